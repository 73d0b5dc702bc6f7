package kernel

// Mutex is a non-reentrant lock parameterized by an optional ceiling
// priority. With no ceiling it is equivalent to a critical section
// (task-vs-task only, no ISR masking). With a ceiling it additionally
// raises the interrupt mask: ceiling 0 disables interrupts globally,
// any other ceiling raises BASEPRI to that value.
//
// Grounded on original_source/src/PriorityMutex.{hpp,cpp}, ported
// branch for branch.
type Mutex struct {
	ceiling *Priority

	locked bool
	cs     CriticalSection

	previousBasepri IsrPriority
	previousPrimask bool
}

// NewMutex builds a Mutex. Pass nil for a critical-section-only lock
// (task-vs-task), or a pointer to a priority for a ceiling lock; pass
// a pointer to 0 for a full-disable lock.
func NewMutex(ceiling *Priority) *Mutex {
	return &Mutex{ceiling: ceiling}
}

// Priority returns the mutex's configured ceiling, or nil if it has
// none.
func (m *Mutex) Priority() *Priority { return m.ceiling }

func (m *Mutex) ceilingIsrPriority() IsrPriority {
	return NewIsrPriority(uint8(*m.ceiling))
}

// Lock acquires the mutex, blocking (via a critical section) only
// against other tasks -- never against interrupts above the ceiling,
// which are masked out instead, never scheduled at all.
func (m *Mutex) Lock() {
	bits := sched.config.PriorityBits

	if m.ceiling == nil {
		assert(taskContext(), "no-ceiling mutex locked from ISR context")
		m.cs = sched.criticalSection()
		m.locked = true
		return
	}

	if *m.ceiling == 0 {
		assert(!hw.IsPrimaskSet(), "full-lock mutex already disables interrupts")
		sched.hooks.EnterFullLock()
		m.previousPrimask = hw.DisableInterrupts()
		m.locked = true
		return
	}

	p := m.ceilingIsrPriority()
	if cur, inIsr := hw.CurrentIsrPriority(); inIsr {
		assert(p.AtLeastAsImportant(cur, bits), "calling ISR is more important than the mutex ceiling")
	} else {
		m.cs = sched.criticalSection()
	}
	sched.hooks.EnterPriorityLock(*m.ceiling)
	prev := hw.SetBasepri(p)
	assert(p.AtLeastAsImportant(prev, bits), "mutex relock would lower the effective interrupt mask")
	m.previousBasepri = prev
	m.locked = true
}

// Unlock releases the mutex. Idempotent: unlocking an already-unlocked
// mutex is a silent no-op.
func (m *Mutex) Unlock() {
	if !m.locked {
		return
	}

	if m.ceiling == nil {
		m.cs.Drop()
		m.locked = false
		return
	}

	if *m.ceiling == 0 {
		hw.EnableInterrupts(m.previousPrimask)
		m.locked = false
		sched.hooks.ExitFullLock()
		return
	}

	hw.SetBasepri(m.previousBasepri)
	m.cs.Drop()
	m.locked = false
	sched.hooks.ExitPriorityLock(*m.ceiling)
}

// releaseFromServiceCall is called by the scheduler's Wait service
// call when a task blocks on a condition variable while holding this
// mutex. It restores the interrupt mask but deliberately does not drop
// the critical-section token: the scheduler is already inside its own
// critical section for the rest of the service call and will release
// it itself.
func (m *Mutex) releaseFromServiceCall() {
	if m.ceiling == nil {
		return
	}
	if *m.ceiling == 0 {
		hw.EnableInterrupts(m.previousPrimask)
		return
	}
	hw.SetBasepri(m.previousBasepri)
}

// disableCriticalSection invalidates this mutex's held critical
// section token without running its release side effect -- used
// immediately after releaseFromServiceCall so the scheduler, not the
// mutex, decides when the hold actually ends.
func (m *Mutex) disableCriticalSection() {
	if m.cs.Valid() {
		m.cs.Disable()
	}
}

// relockFromPendSV is called by the pend-switch handler when resuming
// a task that recorded this mutex as one it must re-acquire. It
// consumes the scheduler's pre-minted critical-section token and, for
// a ceiling mutex, returns the masked ceiling value the switch
// epilogue would write into the hardware interrupt-mask register on
// exception return -- 0 (the highest priority, i.e. "no extra mask")
// for a plain critical-section mutex, which never touched BASEPRI in
// the first place.
func (m *Mutex) relockFromPendSV(cs CriticalSection) uint8 {
	assert(m.ceiling == nil || *m.ceiling != 0, "relockFromPendSV on a full-disable mutex: a task cannot block while holding one")
	m.cs = cs
	m.locked = true
	if m.ceiling == nil {
		return 0
	}
	return m.ceilingIsrPriority().Masked(sched.config.PriorityBits)
}
