//go:build tinygo

// Package cortexm is the on-target implementation of kernel.HwOps: the
// handful of Cortex-M4/M7 registers and instructions the scheduler
// needs to mask interrupts and trigger a context switch. It exists so
// kernel compiles and tests cleanly against the host simulation in
// src/kernel/hw.go while still giving a real board bring-up something
// to wire in through kernel.SetHardware.
//
// Uses the idiomatic TinyGo register-struct access pattern (SCS.*/SYST.*
// accessors, "device/arm" inline asm, atomic tick counters) and the
// implicit "device/arm"/"machine" import surface TinyGo's own overlay
// resolves, with no go.mod entry required.
package cortexm

import (
	"device/arm"
	"machine"
	"sync/atomic"

	"rtkernel/src/kernel"
)

// HW mirrors the Cortex-M system control block addresses
// original_source/src/CortexM.hpp names (ICSR, SHPR2/3, the Systick
// block). TinyGo's "machine" package exposes the same peripherals
// under board-specific names; HW wraps the ones this kernel needs
// behind kernel.HwOps so the algorithms above never see a register.
type HW struct {
	preemptionBits uint8
}

// New builds the on-target HwOps implementation. preemptionBits must
// match the Config passed to kernel.Start.
func New(preemptionBits uint8) *HW {
	return &HW{preemptionBits: preemptionBits}
}

// SetBasepri is original_source/src/CortexM.hpp's setBasepri: an
// mrs/msr/isb sequence that reads BASEPRI, writes the new value, and
// waits for it to take effect before returning.
func (h *HW) SetBasepri(p kernel.IsrPriority) kernel.IsrPriority {
	var prev uint32
	arm.AsmFull(
		"mrs {prev}, basepri\n"+
			"msr basepri, {next}\n"+
			"isb",
		map[string]interface{}{"prev": &prev, "next": uint32(p.Value())})
	return kernel.NewIsrPriority(uint8(prev))
}

// DisableInterrupts is cpsid i; isb -- sets PRIMASK.
func (h *HW) DisableInterrupts() bool {
	was := h.IsPrimaskSet()
	arm.AsmFull("cpsid i\nisb", nil)
	return was
}

// EnableInterrupts is cpsie i; isb, run only if interrupts were not
// already disabled by an outer caller.
func (h *HW) EnableInterrupts(wasDisabled bool) {
	if wasDisabled {
		return
	}
	arm.AsmFull("cpsie i\nisb", nil)
}

// IsPrimaskSet is mrs primask.
func (h *HW) IsPrimaskSet() bool {
	var value uint32
	arm.AsmFull("mrs {v}, primask", map[string]interface{}{"v": &value})
	return value != 0
}

// CurrentIsrPriority reads IPSR to find the currently executing
// exception number and, if one is active, its configured priority out
// of SHPR2/SHPR3 (system handlers) or the NVIC IPR block (peripheral
// IRQs). original_source/src/CortexM.hpp keeps this logic out of
// scope for the portable parts of OpSy; it is spelled out here only
// for the exception numbers the scheduler itself installs.
func (h *HW) CurrentIsrPriority() (kernel.IsrPriority, bool) {
	var ipsr uint32
	arm.AsmFull("mrs {v}, ipsr", map[string]interface{}{"v": &ipsr})
	exceptionNumber := ipsr & 0x1FF
	if exceptionNumber == 0 {
		return kernel.IsrPriority{}, false
	}
	return h.priorityOf(exceptionNumber), true
}

func (h *HW) priorityOf(exceptionNumber uint32) kernel.IsrPriority {
	switch exceptionNumber {
	case 11: // SVCall
		return kernel.NewIsrPriority(machine.SCB.SHPR2.Get() >> 24 & 0xFF)
	case 14: // PendSV
		return kernel.NewIsrPriority(machine.SCB.SHPR3.Get() >> 16 & 0xFF)
	case 15: // SysTick
		return kernel.NewIsrPriority(machine.SCB.SHPR3.Get() >> 24 & 0xFF)
	default:
		idx := exceptionNumber - 16
		reg := machine.NVIC.IPR[idx/4].Get()
		shift := (idx % 4) * 8
		return kernel.NewIsrPriority(uint8(reg >> shift & 0xFF))
	}
}

// TriggerPendSwitch sets ICSR.PENDSVSET, the hardware request for the
// pend-switch trampoline to run at the next opportunity.
func (h *HW) TriggerPendSwitch() {
	const icsrPendSvSet = 1 << 28
	machine.SCB.ICSR.Set(icsrPendSvSet)
}

// WaitForInterrupt executes wfi, suspending the core's clock until the
// next interrupt arrives.
func (h *HW) WaitForInterrupt() {
	arm.Asm("wfi")
}

var tickCount uint32

// SysTickHandler is the interrupt entry point a board's vector table
// wires to the Systick exception: bumps the free-running tick counter
// and runs the kernel's own tick handler.
func SysTickHandler() {
	atomic.AddUint32(&tickCount, 1)
	kernel.Tick()
}

// EnableSystick configures and starts the Systick timer with the
// given reload value, the Go translation of
// original_source/src/CortexM.hpp's enableSystick.
func EnableSystick(reload uint32) {
	machine.SYST.CSR.Set(0)
	machine.SYST.RVR.Set(reload - 1)
	machine.SYST.CVR.Set(0)
	const (
		clkSource = 1 << 2
		tickInt   = 1 << 1
		enable    = 1 << 0
	)
	machine.SYST.CSR.Set(clkSource | tickInt | enable)
}
