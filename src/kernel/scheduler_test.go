package kernel

import (
	"testing"

	tassert "github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSchedulerPingPong reproduces the
// two-tasks-ping-pong-via-a-condition-variable scenario: A (priority
// 0x40) increments, notifies, and sleeps 10 ticks; B (priority 0x80)
// wakes and increments by 2. After 5 A-iterations the shared counter
// must read 15. The scheduler is a process-wide singleton, so every
// test that calls Start -- this one and the scenario/ISR tests in
// scenarios_test.go and isr_test.go -- starts by resetting it.
func TestSchedulerPingPong(t *testing.T) {
	resetForTest()
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	cv := NewCond(nil)
	counter := 0
	const iterations = 5
	done := make(chan struct{})

	b := NewTask("B", PriorityNormal, 256, func() {
		for {
			cv.Wait()
			counter += 2
		}
	})
	a := NewTask("A", PriorityHigh, 256, func() {
		for i := 0; i < iterations; i++ {
			counter++
			cv.NotifyOne()
			SleepFor(10)
		}
		close(done)
		for {
			SleepFor(1000)
		}
	})

	idle := DefaultIdle(64)
	require.NoError(t, Start(cfg, idle))

	require.True(t, b.Start())
	require.True(t, a.Start())

	const maxTicks = 100000
	for i := 0; i < maxTicks; i++ {
		select {
		case <-done:
			tassert.Equal(t, iterations*3, counter)
			tassert.Greater(t, a.lastStarted, int64(0))
			tassert.Greater(t, b.lastStarted, int64(0))
			tassert.True(t, sched.ready.Empty())
			tassert.True(t, sched.timeouts.Empty())
			return
		default:
			Tick()
		}
	}
	t.Fatal("ping-pong scenario did not complete within the tick budget")
}
