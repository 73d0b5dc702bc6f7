package kernel

import (
	"sync/atomic"

	"rtkernel/src/lib/trust"
)

// WaitStatus is the result a task observes when it resumes from a
// condition-variable wait.
type WaitStatus int

const (
	// Notified means a matching notify_one/notify_all woke the task.
	Notified WaitStatus = iota
	// TimedOut means the tick handler observed the deadline elapse
	// before any matching notify arrived.
	TimedOut
)

func (s WaitStatus) String() string {
	if s == Notified {
		return "notified"
	}
	return "timeout"
}

// Task is a Task Control Block: the persistent per-task record. It is
// simultaneously a node in up to three intrusive lists (all-tasks,
// timeouts, ready-or-waiting), selected by tag -- see embeddedlist.go.
//
// A flat struct plus a package-level registry, not a class hierarchy.
type Task struct {
	name string

	stack     []uintptr // host/test stand-in for a real per-task stack
	stackSize int

	active uint32 // 0 or 1; mutated only via sync/atomic

	priority    Priority
	lastStarted int64 // tick at which this task last began running

	waitUntil     int64 // valid iff hasDeadline
	hasDeadline   bool
	waiting       *Cond  // non-nil iff blocked in a CV wait
	mutexToRelock *Mutex // non-nil iff a mutex must be re-acquired on resume
	wakeResult    WaitStatus

	entry func()

	// runCh is the baton this task's goroutine waits on between
	// service calls -- the host-testable stand-in for "this task's
	// registers are not loaded, it is not running". Exactly one
	// goroutine ever holds the baton at a time, mirroring the single
	// core this kernel targets.
	runCh chan struct{}

	handleLink  taskLink
	timeoutLink taskLink
	waitLink    taskLink
	inHandle    bool
	inTimeout   bool
	inWaiting   bool
}

// NewTask allocates a Task with the given priority and entry body. The
// task is inert (not active, not known to any Scheduler) until Start
// is called. stackWords stands in for the size of the stack region a
// real build would carve out of static memory; it is not used to place
// a real stack in this host-testable tree (see cortexm for the
// register-level boundary this would otherwise touch).
func NewTask(name string, priority Priority, stackWords int, entry func()) *Task {
	return &Task{
		name:      name,
		priority:  priority,
		stack:     make([]uintptr, stackWords),
		stackSize: stackWords,
		entry:     entry,
	}
}

// Name returns the task's diagnostic name.
func (t *Task) Name() string { return t.name }

// SetName changes the task's diagnostic name, firing the
// TaskNameChanged hook -- carried over from
// original_source/src/Task.hpp's updateName, dropped by the
// distillation (see SPEC_FULL.md §12).
func (t *Task) SetName(name string) {
	old := t.name
	t.name = name
	sched.hooks.TaskNameChanged(t, old, name)
}

// Priority returns the task's current priority.
func (t *Task) Priority() Priority { return t.priority }

// IsActive reports whether the task is currently started.
func (t *Task) IsActive() bool { return atomic.LoadUint32(&t.active) == 1 }

// SetPriority changes the task's priority, and if it actually changed,
// asks the scheduler to re-sort whatever queue the task is in.
func (t *Task) SetPriority(newPriority Priority) {
	if newPriority == t.priority {
		return
	}
	sched.updatePriority(t, newPriority)
}

// Start publishes the task to the scheduler singleton. It returns
// false if the task was already active (a CAS loser); callers racing
// to start the same Task see exactly one winner, matching the atomic
// active-flag semantics of original_source/src/Task.cpp's start().
func (t *Task) Start() bool {
	if !atomic.CompareAndSwapUint32(&t.active, 0, 1) {
		return false
	}
	t.lastStarted = sched.now()
	t.hasDeadline = false
	t.waiting = nil
	t.mutexToRelock = nil
	t.runCh = make(chan struct{}, 1)
	trust.Debugf("task %q started (priority=%#x)", t.name, t.priority)

	go func() {
		<-t.runCh
		t.entry()
		sched.serviceCallTerminate(t)
	}()

	sched.addTask(t)
	return true
}

// Stop terminates the task via the kernel's Terminate service call. If
// called by the task on itself, it never returns -- the scheduler
// switches away before the service call's emulated trap returns. If
// called on a task that is not active, it is a no-op and returns
// false.
func (t *Task) Stop() bool {
	if !t.IsActive() {
		return false
	}
	sched.serviceCallTerminate(t)
	return true
}

// priorityIsLower is the scheduler's comparator: true iff a is
// strictly more important than b, or they are equally important and a
// started running (most recently) before b did. Ported verbatim from
// original_source/src/Task.cpp's priorityIsLower.
func priorityIsLower(a, b *Task) bool {
	if a.priority != b.priority {
		return a.priority < b.priority
	}
	return a.lastStarted < b.lastStarted
}

// setReturnValue records the result a resuming task observes from a
// condition-variable wait. In the original this writes into the
// task's saved exception frame's r0 slot; in this tree, with no real
// register-saved context, it is simply a field write read back by
// Cond.Wait's caller-side glue.
func (t *Task) setReturnValue(v WaitStatus) {
	t.wakeResult = v
}
