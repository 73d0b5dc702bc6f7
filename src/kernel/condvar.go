package kernel

// Cond is a condition variable with a private notifier mutex that
// serializes its notify calls against each other. A task waits either
// plainly (Wait, WaitFor, WaitUntil) or, with the *Mutex variants, by
// atomically releasing a mutex of its own for the duration of the
// wait; it is woken by a notify from another task or an interrupt
// handler, or by its deadline.
//
// Grounded on original_source/src/ConditionVariable.{hpp,cpp}. Every
// Cond shares its waiters list's tag (tagWaiting) with the scheduler's
// own ready queue -- spec.md §3's invariant that a task is in at most
// one of {ready, waiting-on-a-cv} at a time is enforced by construction
// this way, since taskLink membership is exclusive per tag.
type Cond struct {
	notifier *Mutex
	waiters  taskList
}

// NewCond builds a condition variable whose notify calls lock an
// internal notifier mutex with the given ceiling (nil for a plain,
// task-vs-task critical section). On every notify the ceiling is
// asserted against the calling ISR's priority (when called from one)
// and against the service-call priority, exactly as
// original_source/src/ConditionVariable.cpp's notify methods assert.
func NewCond(ceiling *Priority) *Cond {
	return &Cond{
		notifier: NewMutex(ceiling),
		waiters:  newTaskList(tagWaiting),
	}
}

// notifyPriority is the priority notify_one/notify_all's asserts check
// against: the notifier's own ceiling, or the service-call priority if
// the notifier has none, exactly as
// original_source/src/ConditionVariable.cpp's
// "m_mutex.priority().value_or(Scheduler::kServiceCallPriority)".
func (c *Cond) notifyPriority() IsrPriority {
	if p := c.notifier.Priority(); p != nil {
		return NewIsrPriority(uint8(*p))
	}
	return sched.config.servicePriority()
}

// assertNotifyPriority runs the two debug asserts
// original_source/src/ConditionVariable.cpp's notify_one/notify_all
// both open with: the notifier's ceiling must be at least as important
// as the calling ISR's own priority (when called from one), and at
// least as important as the kernel's own service-call priority.
func (c *Cond) assertNotifyPriority() {
	bits := sched.config.PriorityBits
	np := c.notifyPriority()
	if cur, inIsr := hw.CurrentIsrPriority(); inIsr {
		assert(np.AtLeastAsImportant(cur, bits), "notify: calling ISR is more important than the notifier ceiling")
	}
	assert(np.AtLeastAsImportant(sched.config.servicePriority(), bits), "notify: service-call priority is more important than the notifier ceiling")
}

// NotifyOne wakes the highest-priority waiter, if any, while holding
// the notifier mutex -- the same std::lock_guard<Mutex> scope
// original_source/src/ConditionVariable.cpp's notify_one takes, so
// concurrent notifies on the same Cond are serialized against each
// other. A no-op if no task is waiting.
func (c *Cond) NotifyOne() {
	c.assertNotifyPriority()
	c.notifier.Lock()
	defer c.notifier.Unlock()

	sched.mu.Lock()
	empty := c.waiters.Empty()
	var t *Task
	if !empty {
		t = c.waiters.Front()
	}
	sched.mu.Unlock()
	sched.hooks.ConditionVariableNotifyOne(c, t)
	if empty {
		return
	}
	sched.wake(c, t)
}

// NotifyAll wakes every waiter, highest priority first, under the same
// single notifier-mutex hold notify_one takes.
func (c *Cond) NotifyAll() {
	c.assertNotifyPriority()
	c.notifier.Lock()
	defer c.notifier.Unlock()

	sched.mu.Lock()
	count := c.waiters.Len()
	sched.mu.Unlock()
	sched.hooks.ConditionVariableNotifyAll(c, count)
	for {
		sched.mu.Lock()
		if c.waiters.Empty() {
			sched.mu.Unlock()
			return
		}
		t := c.waiters.Front()
		sched.mu.Unlock()
		sched.wake(c, t)
	}
}

// Wait blocks the calling task until notified, with no timeout and no
// mutex to release and re-acquire around the wait.
func (c *Cond) Wait() WaitStatus {
	return sched.serviceCallWait(c, -1, nil)
}

// WaitMutex blocks the calling task until notified, atomically
// releasing m for the duration of the wait and re-acquiring it before
// returning -- the same contract as a standard condition variable's
// wait(lock).
func (c *Cond) WaitMutex(m *Mutex) WaitStatus {
	return sched.serviceCallWait(c, -1, m)
}

// WaitFor blocks until notified or until delta ticks elapse, whichever
// comes first.
func (c *Cond) WaitFor(delta int64) WaitStatus {
	return sched.serviceCallWait(c, delta, nil)
}

// WaitForMutex is WaitFor, additionally releasing and re-acquiring m
// around the wait.
func (c *Cond) WaitForMutex(m *Mutex, delta int64) WaitStatus {
	return sched.serviceCallWait(c, delta, m)
}

// WaitUntil blocks until notified or until the tick clock reaches
// deadline, whichever comes first.
func (c *Cond) WaitUntil(deadline int64) WaitStatus {
	delta := deadline - sched.now()
	if delta < 0 {
		delta = 0
	}
	return sched.serviceCallWait(c, delta, nil)
}

// WaitUntilMutex is WaitUntil, additionally releasing and re-acquiring
// m around the wait.
func (c *Cond) WaitUntilMutex(m *Mutex, deadline int64) WaitStatus {
	delta := deadline - sched.now()
	if delta < 0 {
		delta = 0
	}
	return sched.serviceCallWait(c, delta, m)
}
