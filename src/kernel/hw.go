package kernel

// HwOps is the seam between the scheduler's algorithms and the
// CPU-specific primitives spec.md calls out as an external
// collaborator (interrupt-priority masking, the pend-switch trigger).
// A real board wires src/cortexm's implementation in through
// SetHardware; host tests use the default, pure-Go simulation below,
// which preserves the same total-ordering guarantees a single Cortex-M
// core gives the real implementation.
type HwOps interface {
	// SetBasepri raises the interrupt mask to p and returns the
	// previous value.
	SetBasepri(p IsrPriority) IsrPriority
	// DisableInterrupts masks every interrupt (the PRIMASK path) and
	// returns whether interrupts were already disabled.
	DisableInterrupts() bool
	// EnableInterrupts restores the PRIMASK state captured by a prior
	// DisableInterrupts.
	EnableInterrupts(wasDisabled bool)
	// IsPrimaskSet reports whether PRIMASK currently disables all
	// interrupts.
	IsPrimaskSet() bool
	// CurrentIsrPriority reports the priority of the interrupt handler
	// currently executing, and false if running in thread (task)
	// context.
	CurrentIsrPriority() (IsrPriority, bool)
	// TriggerPendSwitch requests the pend-switch trampoline run at the
	// next opportunity (immediately, if nothing of higher priority is
	// executing).
	TriggerPendSwitch()
	// WaitForInterrupt suspends the core until the next interrupt (the
	// `wfi` instruction). The idle task's loop body; never actually
	// reached on this host build, since the scheduler simulates "idle"
	// by simply not dispatching any goroutine rather than running the
	// idle task's own, matching how little real work original's WFI
	// loop does either.
	WaitForInterrupt()
}

// hw is the process-wide hardware seam. Defaults to a host simulation;
// overridden by SetHardware on a real board bring-up.
var hw HwOps = newHostHW()

// SetHardware installs the HwOps a Scheduler uses for interrupt
// masking and pend-switch triggering. Call before Start.
func SetHardware(ops HwOps) {
	hw = ops
}

func taskContext() bool {
	_, inIsr := hw.CurrentIsrPriority()
	return !inIsr
}

// hostHW is a cooperative, single-goroutine stand-in for real
// Cortex-M interrupt masking: there is no real preemption, so
// "priority" bookkeeping exists purely to keep the scheduler's own
// assertions and comparisons meaningful between an EnterISR call and
// the exit function it returns, which tests use to simulate interrupts.
type hostHW struct {
	basepri    IsrPriority
	primask    bool
	isrStack   []IsrPriority // nested EnterISR calls, simulating nested interrupts
	pendingSwitch bool
}

func newHostHW() *hostHW {
	return &hostHW{basepri: IsrPriorityLowest}
}

func (h *hostHW) SetBasepri(p IsrPriority) IsrPriority {
	prev := h.basepri
	h.basepri = p
	return prev
}

func (h *hostHW) DisableInterrupts() bool {
	prev := h.primask
	h.primask = true
	return prev
}

func (h *hostHW) EnableInterrupts(wasDisabled bool) {
	h.primask = wasDisabled
}

func (h *hostHW) IsPrimaskSet() bool { return h.primask }

func (h *hostHW) CurrentIsrPriority() (IsrPriority, bool) {
	if len(h.isrStack) == 0 {
		return IsrPriority{}, false
	}
	return h.isrStack[len(h.isrStack)-1], true
}

// TriggerPendSwitch is doSwitch's request to run the pend-switch
// trampoline. On real hardware this just sets ICSR.PENDSVSET and lets
// the NVIC tail-chain into PendSV once nothing of higher priority is
// executing; nested inside a simulated ISR (EnterISR's stack is
// non-empty) the host build defers the same way, running pendSwitch
// only once the outermost simulated ISR exits. Called from task
// context -- nothing to defer behind -- it runs immediately, matching
// PendSV's lowest-of-all priority meaning nothing else is masking it.
func (h *hostHW) TriggerPendSwitch() {
	if len(h.isrStack) != 0 {
		h.pendingSwitch = true
		return
	}
	sched.pendSwitch()
}

func (h *hostHW) WaitForInterrupt() {}

// wouldBeMasked reports whether an interrupt at priority p would
// currently be blocked by the held interrupt mask: PRIMASK if set, or
// BASEPRI otherwise. As on Cortex-M, a raised BASEPRI blocks every
// interrupt that is not strictly more important than it, so an
// interrupt at exactly a held mutex's ceiling is blocked too.
// IsrPriorityLowest, the value newHostHW starts from, masks nothing.
func (h *hostHW) wouldBeMasked(p IsrPriority) bool {
	if h.primask {
		return true
	}
	if h.basepri == IsrPriorityLowest {
		return false
	}
	return h.basepri.AtLeastAsImportant(p, sched.config.PriorityBits)
}

// EnterISR simulates entry into an interrupt handler running at
// priority p, for tests that need to exercise the scheduler's ISR-vs-
// task assertions and the preemption scenarios from spec.md §8. It
// asserts the interrupt is not currently masked -- a real NVIC would
// simply leave it pending rather than deliver it, so a test that
// wants to exercise "the IRQ runs only after unlock" must not call
// EnterISR until the masking mutex has been released. It returns a
// function that exits the simulated ISR and runs the pend-switch
// trampoline if one was requested while "inside" it, the host
// analogue of the hardware tail-chaining into PendSV on exception
// return.
func EnterISR(p IsrPriority) func() {
	hh, ok := hw.(*hostHW)
	if !ok {
		panic("kernel: EnterISR is only meaningful against the host simulation")
	}
	assert(!hh.wouldBeMasked(p), "EnterISR: interrupt priority is currently masked by a held mutex ceiling or PRIMASK")
	hh.isrStack = append(hh.isrStack, p)
	return func() {
		hh.isrStack = hh.isrStack[:len(hh.isrStack)-1]
		if !hh.pendingSwitch || len(hh.isrStack) != 0 {
			return
		}
		hh.pendingSwitch = false
		sched.mu.Lock()
		sched.pendSwitch()
		sched.mu.Unlock()
	}
}
