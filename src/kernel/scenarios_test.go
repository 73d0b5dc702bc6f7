package kernel

import (
	"sync"
	"testing"

	tassert "github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestTimedWaitWithNoNotifyTimesOut is end-to-end scenario 2: a task
// sleeps 7 ticks, then waits on a condition variable with a 5-tick
// timeout and no notifier. It must observe a timeout, not fewer than
// 12 ticks elapsed in total, and be removed from the waiter list.
func TestTimedWaitWithNoNotifyTimesOut(t *testing.T) {
	resetForTest()
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	cv := NewCond(nil)
	var status WaitStatus
	done := make(chan struct{})

	task := NewTask("solo", PriorityNormal, 256, func() {
		SleepFor(7)
		status = cv.WaitFor(5)
		close(done)
		for {
			SleepFor(1000)
		}
	})

	idle := DefaultIdle(64)
	startTick := Now()
	require.NoError(t, Start(cfg, idle))
	require.True(t, task.Start())

	const maxTicks = 1000
	for i := 0; i < maxTicks; i++ {
		select {
		case <-done:
			tassert.Equal(t, TimedOut, status)
			tassert.GreaterOrEqual(t, Now()-startTick, int64(12))
			sched.mu.Lock()
			empty := cv.waiters.Empty()
			sched.mu.Unlock()
			tassert.True(t, empty, "a timed-out wait must be removed from the waiter list")
			return
		default:
			Tick()
		}
	}
	t.Fatal("timed wait scenario did not complete within the tick budget")
}

// TestSleepSameDeadlineOrdersByLastStarted is end-to-end scenario 5:
// two equal-priority tasks wake at the identical deadline; the one
// that started running earlier (smaller last_started) must be the one
// the scheduler runs first.
func TestSleepSameDeadlineOrdersByLastStarted(t *testing.T) {
	resetForTest()
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	idle := DefaultIdle(64)
	require.NoError(t, Start(cfg, idle))

	var mu sync.Mutex
	var order []string
	done := make(chan struct{})

	a := NewTask("A", PriorityHigh, 256, func() {
		SleepFor(10)
		mu.Lock()
		order = append(order, "A")
		mu.Unlock()
		for {
			SleepFor(1000)
		}
	})
	b := NewTask("B", PriorityHigh, 256, func() {
		SleepFor(9) // lands on the same absolute deadline as A's sleep_for(10) issued one tick earlier
		mu.Lock()
		order = append(order, "B")
		mu.Unlock()
		close(done)
		for {
			SleepFor(1000)
		}
	})

	require.True(t, a.Start())
	awaitCondition(t, func() bool {
		sched.mu.Lock()
		defer sched.mu.Unlock()
		return a.hasDeadline
	})
	Tick()
	require.True(t, b.Start())
	awaitCondition(t, func() bool {
		sched.mu.Lock()
		defer sched.mu.Unlock()
		return b.hasDeadline
	})

	sched.mu.Lock()
	aDeadline, aStarted := a.waitUntil, a.lastStarted
	bDeadline, bStarted := b.waitUntil, b.lastStarted
	sched.mu.Unlock()
	require.Equal(t, aDeadline, bDeadline, "test setup must land both tasks on the same wake deadline")
	require.Less(t, aStarted, bStarted, "test setup must give A an earlier last_started than B")

	const maxTicks = 1000
	for i := 0; i < maxTicks; i++ {
		select {
		case <-done:
			mu.Lock()
			tassert.Equal(t, []string{"A", "B"}, order)
			mu.Unlock()
			return
		default:
			Tick()
		}
	}
	t.Fatal("sleep-ordering scenario did not complete within the tick budget")
}

// TestSelfTerminateNeverReturnsAndIsRestartable is end-to-end scenario
// 6: a task that stops itself never returns from Stop (a return would
// panic below), the next ready task is scheduled, the task's active
// flag goes false, and it can be started again later.
func TestSelfTerminateNeverReturnsAndIsRestartable(t *testing.T) {
	resetForTest()
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	idle := DefaultIdle(64)
	require.NoError(t, Start(cfg, idle))

	var srMu sync.Mutex
	successorRuns := 0
	successor := NewTask("successor", PriorityLow, 256, func() {
		for {
			srMu.Lock()
			successorRuns++
			srMu.Unlock()
			SleepFor(1)
		}
	})
	require.True(t, successor.Start())
	awaitCondition(t, func() bool {
		sched.mu.Lock()
		defer sched.mu.Unlock()
		return successor.hasDeadline
	})

	var mu sync.Mutex
	runs := 0
	var self *Task
	self = NewTask("self-stop", PriorityNormal, 256, func() {
		mu.Lock()
		runs++
		mu.Unlock()
		self.Stop()
		panic("unreachable: Stop on self must never return")
	})

	require.True(t, self.Start())
	awaitCondition(t, func() bool { return !self.IsActive() })
	tassert.False(t, self.IsActive())

	srMu.Lock()
	before := successorRuns
	srMu.Unlock()

	ran := false
	for i := 0; i < 1000; i++ {
		Tick()
		srMu.Lock()
		now := successorRuns
		srMu.Unlock()
		if now > before {
			ran = true
			break
		}
	}
	tassert.True(t, ran, "the next ready task did not get scheduled after self-termination")

	mu.Lock()
	tassert.Equal(t, 1, runs)
	mu.Unlock()

	awaitCondition(t, func() bool { return currentTaskForTest() == nil })
	require.True(t, self.Start())
	awaitCondition(t, func() bool { return !self.IsActive() })
	mu.Lock()
	tassert.Equal(t, 2, runs)
	mu.Unlock()
}
