// Command pingpong runs the two-tasks-ping-pong-via-a-condition-variable
// scenario against the host-simulated kernel: task A notifies a shared
// condition variable and sleeps, task B wakes, bumps a shared counter,
// and waits again. It is a runnable version of the scenario this
// kernel's behavior is checked against, not a board bring-up -- there
// is no cortexm wiring here, only kernel.Start against the default
// host HwOps.
package main

import (
	"fmt"
	"time"

	"rtkernel/src/kernel"
)

func main() {
	cfg := kernel.DefaultConfig()
	if err := cfg.Validate(); err != nil {
		panic(err)
	}

	cv := kernel.NewCond(nil)

	counter := 0
	iterations := 5
	done := make(chan struct{})

	b := kernel.NewTask("B", kernel.PriorityNormal, 256, func() {
		for {
			cv.Wait()
			counter += 2
		}
	})

	a := kernel.NewTask("A", kernel.PriorityHigh, 256, func() {
		for i := 0; i < iterations; i++ {
			counter += 1
			cv.NotifyOne()
			kernel.SleepFor(10)
		}
		close(done)
		for {
			kernel.SleepFor(1000)
		}
	})

	idle := kernel.DefaultIdle(64)
	if err := kernel.Start(cfg, idle); err != nil {
		panic(err)
	}

	// A real board's Systick interrupt drives kernel.Tick(); this host
	// demo stands in for it with a plain ticker, the same role
	// EnterISR's simulated interrupt priority plays for tests.
	ticker := time.NewTicker(cfg.TickPeriod)
	defer ticker.Stop()
	go func() {
		for range ticker.C {
			kernel.Tick()
		}
	}()

	b.Start()
	a.Start()

	<-done
	fmt.Printf("counter = %d (want %d)\n", counter, iterations*3)
}
