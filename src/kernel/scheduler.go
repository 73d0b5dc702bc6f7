package kernel

import (
	"sync"
	"sync/atomic"

	"rtkernel/src/lib/trust"
)

// scheduler is the process-wide singleton state: the tick counter, the
// three queues, the current/next/previous task pointers, the idle
// pointer, the critical-section flag and the deferred-switch flag.
// There is exactly one, package-level, rather than a fields-of-an-
// instance object callers pass around -- a real board never has more
// than one of these either.
//
// s.mu stands in for "interrupt mask raised to service-call priority":
// every mutation of scheduler state happens while it is held, so code
// paths are totally ordered on this single core.
type scheduler struct {
	mu sync.Mutex

	config  Config
	started bool
	ticks   int64

	idling        bool
	mayNeedSwitch bool
	criticalSectionHeld bool
	switchCount   int64

	allTasks taskList
	ready    taskList
	timeouts taskList

	idle         *Task
	previousTask *Task
	currentTask  *Task
	nextTask     *Task

	hooks Hooks
}

var sched = &scheduler{
	allTasks: newTaskList(tagHandle),
	ready:    newTaskList(tagWaiting),
	timeouts: newTaskList(tagTimeout),
	hooks:    NoopHooks{},
}

// SetHooks installs the tracing hook implementation the scheduler
// calls at every significant transition. Call before Start.
func SetHooks(h Hooks) {
	sched.hooks = h
}

// Start brings the scheduler up: validates the configuration, records
// the idle task, and runs the first scheduling decision. Unlike the
// original (which never returns once the first task starts running,
// since the whole CPU belongs to the kernel from then on), this host
// build returns as soon as that first scheduling decision is made
// (usually into idle, since tasks are typically started afterwards)
// -- tasks run on their own goroutines, and the caller (a test or a
// `main`) stays in control of its own goroutine. Real hardware
// entry points built against this package should still treat
// Start as the last thing they call.
func Start(cfg Config, idle *Task) error {
	if err := cfg.Validate(); err != nil {
		trust.Errorf("kernel: invalid configuration: %v", err)
		return err
	}
	sched.mu.Lock()
	assert(!sched.started, "Start called twice")
	sched.config = cfg
	sched.idle = idle
	sched.started = true
	sched.hooks.Starting(idle)
	sched.doSwitch()
	sched.mu.Unlock()
	return nil
}

// Now returns the current tick count. A single-word atomic load, so
// it is safe to call from any context without masking interrupts,
// matching spec.md §5's "tick-time reads are single-word loads and
// therefore atomic".
func Now() int64 {
	return sched.now()
}

func (s *scheduler) now() int64 {
	return atomic.LoadInt64(&s.ticks)
}

// AllTasks returns every currently active task, in the all-tasks
// list's order (arbitrary, per spec.md §3). Asserts the scheduler has
// started, matching original_source/src/Scheduler.hpp's allTasks().
func AllTasks() []*Task {
	sched.mu.Lock()
	defer sched.mu.Unlock()
	assert(sched.started, "AllTasks called before Start")
	tasks := make([]*Task, 0, sched.allTasks.Len())
	sched.allTasks.ForEach(func(t *Task) { tasks = append(tasks, t) })
	return tasks
}

// criticalSection mints a critical-section token: valid if none is
// currently held, inert otherwise. Only the scheduler calls this
// (directly, or via Mutex.Lock's no-ceiling branch and its ceiling
// branch when locked from task context).
func (s *scheduler) criticalSection() CriticalSection {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.criticalSectionHeld {
		return CriticalSection{valid: false}
	}
	s.criticalSectionHeld = true
	s.hooks.EnterCriticalSection()
	return CriticalSection{valid: true}
}

// criticalSectionEnd is run when a valid CriticalSection token is
// dropped: clears the flag and, if a switch was deferred while the
// section was held, runs it now.
func (s *scheduler) criticalSectionEnd() {
	s.mu.Lock()
	assert(s.criticalSectionHeld, "criticalSectionEnd without a held critical section")
	s.criticalSectionHeld = false
	s.hooks.ExitCriticalSection()
	if !s.mayNeedSwitch {
		s.mu.Unlock()
		return
	}
	s.mayNeedSwitch = false
	caller := s.currentTask
	s.finishSwitch(caller)
}

// addTask is called by Task.Start to publish a freshly activated task
// to the scheduler: inserted into all-tasks and ready, and (if the
// scheduler is already running) a switch is requested in case the new
// task outranks whatever is current.
func (s *scheduler) addTask(t *Task) {
	s.mu.Lock()
	s.allTasks.PushFront(t)
	s.ready.InsertWhen(priorityIsLower, t)
	s.hooks.TaskAdded(t)
	if !s.started {
		s.mu.Unlock()
		return
	}
	caller := s.currentTask
	s.finishSwitch(caller)
}

// serviceCallTerminate is the Terminate service call: Task.Stop's
// kernel half. If t was not active, it is a no-op. If t was current,
// a switch is forced; the calling goroutine parks only if it really
// is t's own goroutine (self-termination), matching spec.md's
// "Task T calls stop() on itself ... never returns from stop".
func (s *scheduler) serviceCallTerminate(t *Task) {
	s.mu.Lock()
	s.hooks.EnterServiceCall("Terminate")
	if !atomic.CompareAndSwapUint32(&t.active, 1, 0) {
		s.hooks.ExitServiceCall("Terminate", false)
		s.mu.Unlock()
		return
	}
	s.allTasks.Erase(t)
	if t.hasDeadline {
		t.hasDeadline = false
		s.timeouts.Erase(t)
	}
	if t.waiting != nil {
		t.waiting.waiters.Erase(t)
		t.waiting = nil
	}
	// ready shares the waiting tag with every Cond's waiter list, so this
	// is a no-op unless t was sitting in ready.
	s.ready.Erase(t)

	wasCurrent := s.currentTask == t
	s.hooks.TaskTerminated(t)
	if !wasCurrent {
		s.hooks.ExitServiceCall("Terminate", false)
		s.mu.Unlock()
		return
	}
	assert(!s.criticalSectionHeld, "terminating the current task while holding a critical section")
	s.currentTask = nil
	s.finishSwitchHook(t, func(switched bool) { s.hooks.ExitServiceCall("Terminate", switched) })
}

// SleepFor blocks the calling task for at least delta ticks: the
// tick handler will not move it back to ready until the tick count
// has advanced by more than delta, so it always observes at least
// delta ticks elapsed, never exactly delta.
func SleepFor(delta int64) {
	sched.sleepFor(delta)
}

// maxSleepUntilHorizon bounds how far past now a SleepUntil deadline
// may sit, mirroring original_source/src/opsy.hpp's sleep_until
// assert (tp - now() < 1h) -- ticks here have no fixed relation to
// wall-clock time, so the bound is expressed in ticks rather than an
// hour, but it exists for the same reason: a deadline this far out is
// almost always a units mistake, not an intentionally long sleep.
const maxSleepUntilHorizon = 1 << 20

// SleepUntil blocks the calling task until the tick count reaches
// deadline, delegating to SleepFor exactly as
// original_source/src/opsy.hpp's sleep_until does. Asserts the
// deadline sits within maxSleepUntilHorizon of now so a deadline that
// has already passed, or one absurdly far in the future, is caught
// rather than silently accepted.
func SleepUntil(deadline int64) {
	now := sched.now()
	assert(deadline > now, "SleepUntil called with a deadline that has already passed")
	assert(deadline-now < maxSleepUntilHorizon, "SleepUntil called with a deadline too far in the future")
	sched.sleepFor(deadline - now)
}

// sleepFor is the Sleep service call.
func (s *scheduler) sleepFor(delta int64) {
	s.mu.Lock()
	s.hooks.EnterServiceCall("Sleep")
	assert(taskContext(), "Sleep called from ISR context")
	assert(!s.criticalSectionHeld, "Sleep called while holding a critical section")
	t := s.currentTask
	assert(t != nil, "Sleep called with no current task")
	t.waitUntil = s.now() + delta + 1
	t.hasDeadline = true
	s.timeouts.InsertWhen(wakeupAfter, t)
	s.hooks.TaskSleep(t, delta)
	s.currentTask = nil
	s.finishSwitchHook(t, func(switched bool) { s.hooks.ExitServiceCall("Sleep", switched) })
}

// Switch is the Switch service call: a pure yield. If nothing more
// important than the caller is ready, it returns immediately with no
// real hardware switch, exactly as original_source/src/Scheduler.cpp's
// doSwitch's "equals previous task" shortcut intends.
func Switch() {
	sched.mu.Lock()
	sched.hooks.EnterServiceCall("Switch")
	assert(taskContext(), "Switch called from ISR context")
	assert(!sched.criticalSectionHeld, "Switch called while holding a critical section")
	caller := sched.currentTask
	sched.finishSwitchHook(caller, func(switched bool) { sched.hooks.ExitServiceCall("Switch", switched) })
}

// serviceCallWait is the Wait service call backing Cond's wait
// variants. timeoutTicks < 0 means no timeout. mutex may be nil.
func (s *scheduler) serviceCallWait(cv *Cond, timeoutTicks int64, mutex *Mutex) WaitStatus {
	s.mu.Lock()
	s.hooks.EnterServiceCall("Wait")
	assert(taskContext(), "Wait called from ISR context")
	t := s.currentTask
	assert(t != nil, "Wait called with no current task")
	assert(t.waiting == nil, "task is already waiting on a condition variable")

	if timeoutTicks >= 0 {
		t.waitUntil = s.now() + timeoutTicks
		t.hasDeadline = true
		s.timeouts.InsertWhen(wakeupAfter, t)
		s.hooks.TaskWaitTimeout(t, timeoutTicks)
	} else {
		s.hooks.TaskWait(t)
	}
	s.hooks.ConditionVariableStartWaiting(cv, t, timeoutTicks)

	if mutex != nil {
		assert(s.criticalSectionHeld, "Wait with a mutex requires a held critical section")
		t.mutexToRelock = mutex
		mutex.releaseFromServiceCall()
		mutex.disableCriticalSection()
		s.criticalSectionHeld = false
		s.hooks.MutexStoredForTask(t)
	}

	cv.waiters.InsertWhen(priorityIsLower, t)
	t.waiting = cv
	s.currentTask = nil
	s.finishSwitchHook(t, func(switched bool) { s.hooks.ExitServiceCall("Wait", switched) })
	return t.wakeResult
}

// wake is scheduler-internal: invoked only by Cond.NotifyOne/NotifyAll
// while holding the condition variable's notifier mutex. It moves t
// from the condition variable's waiter list to ready and requests a
// switch. Unlike the task-originated service calls above, the caller
// here may be an interrupt handler rather than a task's own goroutine
// -- see finishSwitch for how that is told apart.
func (s *scheduler) wake(cv *Cond, t *Task) {
	s.mu.Lock()
	assert(t.waiting == cv, "wake: task is not waiting on this condition variable")
	cv.waiters.Erase(t)
	t.waiting = nil
	t.setReturnValue(Notified)
	if t.hasDeadline {
		t.hasDeadline = false
		s.timeouts.Erase(t)
	}
	s.ready.InsertWhen(priorityIsLower, t)
	caller := s.currentTask
	s.finishSwitch(caller)
}

// updatePriority is the scheduler side of Task.SetPriority: re-sorts
// whatever queue t is currently a member of, and requests a switch if
// the change could plausibly affect who should be running.
func (s *scheduler) updatePriority(t *Task, newPriority Priority) {
	s.mu.Lock()
	t.priority = newPriority
	if !t.IsActive() {
		s.hooks.TaskPriorityChanged(t, newPriority)
		s.mu.Unlock()
		return
	}

	caller := s.currentTask
	needSwitch := false
	switch {
	case t == s.currentTask || t == s.nextTask:
		needSwitch = true
	case t.waiting != nil:
		t.waiting.waiters.Erase(t)
		t.waiting.waiters.InsertWhen(priorityIsLower, t)
	case !t.hasDeadline:
		s.ready.Erase(t)
		s.ready.InsertWhen(priorityIsLower, t)
		needSwitch = s.ready.Front() == t
	}
	s.hooks.TaskPriorityChanged(t, newPriority)
	if !needSwitch {
		s.mu.Unlock()
		return
	}
	s.finishSwitch(caller)
}

// Tick is the Systick handler: advances the tick counter and promotes
// every task whose deadline has elapsed into ready. It is always
// treated as interrupt context: it never parks any goroutine, it only
// updates bookkeeping and signals whichever task becomes current.
func Tick() {
	sched.mu.Lock()
	sched.hooks.EnterSystick()
	atomic.AddInt64(&sched.ticks, 1)
	now := sched.now()

	moved := false
	for {
		head := sched.timeouts.Front()
		if head == nil || head.waitUntil > now {
			break
		}
		sched.timeouts.Erase(head)
		head.hasDeadline = false
		if head.waiting != nil {
			head.waiting.waiters.Erase(head)
			head.waiting = nil
			head.setReturnValue(TimedOut)
		}
		sched.ready.InsertWhen(priorityIsLower, head)
		sched.hooks.TaskReady(head)
		moved = true
	}
	if moved {
		sched.doSwitch()
	}
	sched.hooks.ExitSystick(moved)
	sched.mu.Unlock()
}

// wakeupAfter orders the timeouts queue ascending by deadline.
func wakeupAfter(a, b *Task) bool {
	return a.waitUntil < b.waitUntil
}

// doSwitch re-evaluates who should run next. Must be called with s.mu
// held. Ported algorithm-for-algorithm from
// original_source/src/Scheduler.cpp's doSwitch.
func (s *scheduler) doSwitch() bool {
	assert(s.started, "doSwitch called before Start")
	assert(s.currentTask != nil || !s.criticalSectionHeld, "doSwitch invariant violated")

	if s.criticalSectionHeld {
		s.mayNeedSwitch = true
		return false
	}

	var cur *Task
	if s.nextTask != nil {
		pending := s.nextTask
		s.nextTask = nil
		s.ready.InsertWhen(priorityIsLower, pending)
	}
	if s.currentTask != nil {
		cur = s.currentTask
		s.currentTask = nil
		s.ready.InsertWhen(priorityIsLower, cur)
	}

	if s.ready.Empty() {
		hw.TriggerPendSwitch()
		return true
	}

	candidate := s.ready.PopFront()
	if candidate == s.previousTask {
		s.currentTask = candidate
		s.nextTask = nil
		return false
	}
	s.nextTask = candidate
	s.switchCount++
	trust.Statsf("sched", "switch #%d: %q -> %q, ready=%d timeouts=%d", s.switchCount, previousTaskName(cur), candidate.name, s.ready.Len(), s.timeouts.Len())
	hw.TriggerPendSwitch()
	return true
}

// previousTaskName names the task a switch is leaving, tolerating a
// nil cur (no task was current, e.g. the very first switch out of
// idle or a switch decided entirely from ISR/tick context).
func previousTaskName(cur *Task) string {
	if cur == nil {
		return "<none>"
	}
	return cur.name
}

// pendSwitch is the pend-switch trampoline's handler half: installs
// s.nextTask as current (or goes idle), re-locks any mutex the
// incoming task recorded across a CV wait, and hands the incoming
// task's goroutine the baton. Must be called with s.mu held.
func (s *scheduler) pendSwitch() {
	s.hooks.EnterPendSv()

	if s.previousTask != nil {
		s.hooks.TaskStopped(s.previousTask)
	}

	if s.nextTask == nil {
		s.idling = true
		s.previousTask = nil
		s.hooks.EnterIdle()
		return
	}

	s.idling = false
	incoming := s.nextTask
	s.nextTask = nil
	s.previousTask = incoming
	s.currentTask = incoming
	incoming.lastStarted = s.now()

	if incoming.mutexToRelock != nil {
		m := incoming.mutexToRelock
		incoming.mutexToRelock = nil
		masked := m.relockFromPendSV(CriticalSection{valid: true})
		if m.Priority() != nil {
			hw.SetBasepri(NewIsrPriority(masked))
		}
		s.criticalSectionHeld = true
		s.hooks.MutexRestoredForTask(incoming)
	}

	s.hooks.TaskStarted(incoming)
	select {
	case incoming.runCh <- struct{}{}:
	default:
	}
}

// finishSwitch runs doSwitch, releases s.mu, and -- only if the
// caller is genuinely the task's own goroutine that is being switched
// away from -- blocks that goroutine on its own baton until it is
// scheduled again. Must be called with s.mu held; it always unlocks.
//
// The distinction between "a task calling a blocking kernel API" and
// "an interrupt handler waking a task" matters here: only the former
// corresponds to a real goroutine that must stop running right now.
// taskContext() (backed by the same EnterISR/exit-function bookkeeping tests
// use to simulate peripheral interrupts) tells the two apart. A
// busy-looping task that never calls into the kernel cannot be
// stopped mid-instruction without the real register-save assembly
// stub spec.md explicitly puts out of scope; this host build reflects
// that honestly rather than faking true preemption of such a task.
func (s *scheduler) finishSwitch(caller *Task) {
	s.finishSwitchHook(caller, nil)
}

// finishSwitchHook is finishSwitch with an optional callback run with
// s.mu still held, immediately after doSwitch, before any parking --
// the hook point the four task-originated service calls (Terminate,
// Sleep, Switch, Wait) use to fire ExitServiceCall synchronously,
// the same place original_source/src/Scheduler.cpp's serviceCallHandler
// fires it, rather than after a goroutine resumes much later.
func (s *scheduler) finishSwitchHook(caller *Task, afterSwitch func(switched bool)) {
	switched := s.doSwitch()
	if afterSwitch != nil {
		afterSwitch(switched)
	}
	park := caller != nil && s.currentTask != caller && taskContext()
	s.mu.Unlock()
	if park {
		<-caller.runCh
	}
}
