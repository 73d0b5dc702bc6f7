// Package kernel implements a preemptive, fixed-priority real-time
// scheduler for a single Cortex-M core: tasks, a tick clock, a
// priority-ceiling mutex, and condition variables built on top of it.
//
// The algorithms are ported from the OpSy kernel this package's
// behavior is specified against; the hardware register boundary they
// assume (interrupt-priority masking, the pend-switch trampoline) is
// abstracted behind HwOps so the scheduler itself is fully exercised
// on a host build, with src/cortexm supplying the real Cortex-M
// implementation for an on-target build.
package kernel
