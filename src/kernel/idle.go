package kernel

// DefaultIdle builds the task the scheduler runs whenever no other
// task is ready: a tight loop that waits for the next interrupt
// (`WFI` on real hardware, a no-op spin loop here) and never blocks
// through a service call, so it can never be put on any of the
// scheduler's own queues.
//
// Grounded on original_source/src/Task.hpp's DefaultIdle<StackSize>
// (64-word stack default, `wfi` in a `while(true)` loop). The idle
// task is passed to Start directly rather than kept on the ready
// queue -- pendSwitch installs it implicitly by leaving currentTask
// nil, matching the original's s_idleTask special case rather than
// giving it real priority-queue membership.
func DefaultIdle(stackWords int) *Task {
	if stackWords <= 0 {
		stackWords = 64
	}
	return NewTask("idle", PriorityLowest, stackWords, func() {
		for {
			hw.WaitForInterrupt()
		}
	})
}
