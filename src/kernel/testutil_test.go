package kernel

import (
	"testing"
	"time"
)

// resetForTest reinitializes the package-level scheduler and hardware
// singletons to a pristine, never-started state. A real board never
// needs this -- it calls Start exactly once per boot -- but the test
// binary links every _test.go file in this package into one process,
// and Start asserts it is never called twice against the same
// scheduler. Each test that wants its own Start call runs this first.
func resetForTest() {
	sched = &scheduler{
		allTasks: newTaskList(tagHandle),
		ready:    newTaskList(tagWaiting),
		timeouts: newTaskList(tagTimeout),
		hooks:    NoopHooks{},
	}
	hw = newHostHW()
}

// currentTaskForTest reads sched.currentTask under the scheduler's own
// lock, for tests that want to observe who is running without racing
// the goroutines doing the running.
func currentTaskForTest() *Task {
	sched.mu.Lock()
	defer sched.mu.Unlock()
	return sched.currentTask
}

// awaitCondition polls cond until it reports true or the budget is
// exhausted, for tests that need to wait on another task's goroutine
// reaching some scheduler-visible state before driving the tick clock
// further. Fails the test if the condition never becomes true.
func awaitCondition(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(50 * time.Microsecond)
	}
	t.Fatal("condition never became true within the test's wait budget")
}
