package main

import (
	"fmt"

	"rtkernel/src/kernel"
)

// traceHooks is a kernel.Hooks implementation that records task
// lifecycle, sleep/wait, priority-change, idle and notify transitions
// into the bounded event log for the console to drain. Embedding
// kernel.NoopHooks picks up the hook methods this console does not
// render (pend-switch, systick, service-call, critical-section, lock,
// mutex store/restore, task-ready, name-change and CV start-waiting
// hooks), the same "only override what you need" shape
// src/lib/trust's level-masked logf plays for log severities.
type traceHooks struct {
	kernel.NoopHooks
	log *eventLog
}

func newTraceHooks(log *eventLog) *traceHooks {
	return &traceHooks{log: log}
}

func (h *traceHooks) Starting(idle *kernel.Task) {
	h.log.Record("Starting", idle.Name(), "scheduler starting")
}

func (h *traceHooks) EnterIdle() {
	h.log.Record("EnterIdle", "", "")
}

func (h *traceHooks) TaskAdded(t *kernel.Task) {
	h.log.Record("TaskAdded", t.Name(), fmt.Sprintf("priority=%#x", t.Priority()))
}

func (h *traceHooks) TaskStarted(t *kernel.Task) {
	h.log.Record("TaskStarted", t.Name(), "")
}

func (h *traceHooks) TaskStopped(t *kernel.Task) {
	h.log.Record("TaskStopped", t.Name(), "")
}

func (h *traceHooks) TaskTerminated(t *kernel.Task) {
	h.log.Record("TaskTerminated", t.Name(), "")
}

func (h *traceHooks) TaskSleep(t *kernel.Task, delta int64) {
	h.log.Record("TaskSleep", t.Name(), fmt.Sprintf("%d ticks", delta))
}

func (h *traceHooks) TaskWait(t *kernel.Task) {
	h.log.Record("TaskWait", t.Name(), "no timeout")
}

func (h *traceHooks) TaskWaitTimeout(t *kernel.Task, timeout int64) {
	h.log.Record("TaskWait", t.Name(), fmt.Sprintf("timeout in %d ticks", timeout))
}

func (h *traceHooks) TaskPriorityChanged(t *kernel.Task, newPriority kernel.Priority) {
	h.log.Record("TaskPriorityChanged", t.Name(), fmt.Sprintf("now %#x", newPriority))
}

func (h *traceHooks) ConditionVariableNotifyOne(cv *kernel.Cond, woke *kernel.Task) {
	if woke == nil {
		h.log.Record("ConditionVariableNotifyOne", "", "no waiter")
		return
	}
	h.log.Record("ConditionVariableNotifyOne", woke.Name(), "")
}

func (h *traceHooks) ConditionVariableNotifyAll(cv *kernel.Cond, wokeCount int) {
	h.log.Record("ConditionVariableNotifyAll", "", fmt.Sprintf("%d waiters", wokeCount))
}
