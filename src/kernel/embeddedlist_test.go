package kernel

import (
	"testing"

	tassert "github.com/stretchr/testify/assert"
)

func newBareTask(name string, priority Priority) *Task {
	return &Task{name: name, priority: priority}
}

func TestTaskListPushAndPop(t *testing.T) {
	l := newTaskList(tagHandle)
	tassert.True(t, l.Empty())

	a := newBareTask("a", PriorityNormal)
	b := newBareTask("b", PriorityNormal)
	l.PushFront(a)
	l.PushFront(b)

	tassert.Equal(t, 2, l.Len())
	tassert.Same(t, b, l.Front())

	tassert.Same(t, b, l.PopFront())
	tassert.Same(t, a, l.PopFront())
	tassert.True(t, l.Empty())
}

func TestTaskListInsertWhenOrdersByPriority(t *testing.T) {
	l := newTaskList(tagWaiting)
	low := newBareTask("low", PriorityLow)
	high := newBareTask("high", PriorityHigh)
	normal := newBareTask("normal", PriorityNormal)

	l.InsertWhen(priorityIsLower, low)
	l.InsertWhen(priorityIsLower, high)
	l.InsertWhen(priorityIsLower, normal)

	tassert.Same(t, high, l.PopFront())
	tassert.Same(t, normal, l.PopFront())
	tassert.Same(t, low, l.PopFront())
}

func TestTaskListInsertWhenTiesGoToBackOfExistingRun(t *testing.T) {
	l := newTaskList(tagWaiting)
	first := newBareTask("first", PriorityNormal)
	first.lastStarted = 1
	second := newBareTask("second", PriorityNormal)
	second.lastStarted = 1 // same priority and lastStarted: a true tie under priorityIsLower

	l.InsertWhen(priorityIsLower, first)
	l.InsertWhen(priorityIsLower, second)

	tassert.Same(t, first, l.PopFront())
	tassert.Same(t, second, l.PopFront())
}

func TestTaskListErase(t *testing.T) {
	l := newTaskList(tagTimeout)
	a, b, c := newBareTask("a", PriorityNormal), newBareTask("b", PriorityNormal), newBareTask("c", PriorityNormal)
	l.PushFront(a)
	l.PushFront(b)
	l.PushFront(c)

	l.Erase(b)
	tassert.False(t, l.Contains(b))
	tassert.Equal(t, 2, l.Len())

	// Erasing something not a member is a no-op, not a panic.
	l.Erase(b)
	tassert.Equal(t, 2, l.Len())
}
