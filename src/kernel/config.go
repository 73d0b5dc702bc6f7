package kernel

import (
	"fmt"
	"time"
)

// Config is the compile-time (here: Start-time) configuration record a
// Scheduler runs under. It mirrors the constants a real Cortex-M build
// would fix at compile time: how many priority bits the part
// implements, how many of those are preemption bits, the kernel's own
// preemption level, and the tick period.
type Config struct {
	// PriorityBits is the number of hardware-implemented NVIC priority
	// bits. Cortex-M parts commonly implement 3 or 4.
	PriorityBits uint8
	// PreemptionBits is the number of PriorityBits used for the
	// preemption field (the rest is sub-priority).
	PreemptionBits uint8
	// KernelPreemptionLevel is the preemption level the scheduler's own
	// interrupts (service-call, tick) run at. Must be < 1<<PreemptionBits.
	KernelPreemptionLevel uint8
	// TickPeriod is the duration of one scheduler tick.
	TickPeriod time.Duration
	// Asserts enables debug-only invariant checks. Disable for a
	// release-style build where a violated invariant is undefined
	// behavior rather than a panic.
	Asserts bool
}

// DefaultConfig is a reasonable configuration for a typical Cortex-M4
// part: 4 priority bits, 2 of them preemption bits, kernel runs at
// preemption level 1 (second highest), 1ms ticks, asserts on.
func DefaultConfig() Config {
	return Config{
		PriorityBits:          4,
		PreemptionBits:        2,
		KernelPreemptionLevel: 1,
		TickPeriod:            time.Millisecond,
		Asserts:               true,
	}
}

// Validate checks the configuration's internal consistency, the Go
// realization of original_source/src/Config.hpp's static_asserts
// (preemption bits must fit within priority bits, and the kernel's own
// preemption level must be representable).
func (c Config) Validate() error {
	if c.PreemptionBits > c.PriorityBits {
		return fmt.Errorf("kernel: preemption bits (%d) exceed priority bits (%d)", c.PreemptionBits, c.PriorityBits)
	}
	if c.PriorityBits == 0 || c.PriorityBits > kMaxPreemptionBits {
		return fmt.Errorf("kernel: priority bits (%d) out of range 1..%d", c.PriorityBits, kMaxPreemptionBits)
	}
	if limit := uint8(1) << c.PreemptionBits; c.KernelPreemptionLevel >= limit {
		return fmt.Errorf("kernel: kernel preemption level (%d) not representable in %d preemption bits", c.KernelPreemptionLevel, c.PreemptionBits)
	}
	if c.TickPeriod <= 0 {
		return fmt.Errorf("kernel: tick period must be positive, got %s", c.TickPeriod)
	}
	return nil
}

// servicePriority is the IsrPriority the service-call (SVC) interrupt
// runs at: the kernel's own preemption level, highest (zero) sub-priority.
func (c Config) servicePriority() IsrPriority {
	return FromPreemptSub(c.PreemptionBits, c.KernelPreemptionLevel, 0)
}

// tickPriority is the IsrPriority the Systick interrupt runs at: same
// preemption level as service calls, but lowest sub-priority, so a
// service call always wins a simultaneous-entry race against the tick.
func (c Config) tickPriority() IsrPriority {
	subBits := kMaxPreemptionBits - c.PreemptionBits
	lowestSub := uint8((1 << subBits) - 1)
	return FromPreemptSub(c.PreemptionBits, c.KernelPreemptionLevel, lowestSub)
}

// pendSwitchPriority is the IsrPriority the pend-switch trampoline runs
// at: the lowest preemption level and lowest sub-priority available,
// so every other interrupt -- including the kernel's own -- preempts it.
func (c Config) pendSwitchPriority() IsrPriority {
	preemptBits := c.PreemptionBits
	lowestPreempt := uint8((1 << preemptBits) - 1)
	subBits := kMaxPreemptionBits - preemptBits
	lowestSub := uint8((1 << subBits) - 1)
	return FromPreemptSub(preemptBits, lowestPreempt, lowestSub)
}
