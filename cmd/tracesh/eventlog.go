package main

import "time"

// TraceEvent is one line of kernel activity: which hook fired, which
// task (if any) it concerns, and when cmd/tracesh observed it.
type TraceEvent struct {
	When    time.Time
	Hook    string
	Task    string
	Detail  string
}

// The doubly linked list below is genny's doubly_linked.go template
// (src/gen/doubly_linked.go) specialized for TraceEvent by hand,
// directly in the consuming package, standing in for:
//
//	//go:generate genny -in=$GOFILE -out=eventlog_gen.go -pkg=main gen "Generic=TraceEvent"
//
// It keeps only the methods eventLog uses, under unexported names, and
// TraverseGeneric here takes a callback with no error result; genny's
// own output would carry the template's full exported method set.
// Kept as a plain file rather than a generated one so the tree does
// not depend on running genny as part of this exercise.
type traceEventNodeDL struct {
	prev  *traceEventNodeDL
	next  *traceEventNodeDL
	value *TraceEvent
}

func (n *traceEventNodeDL) Next() *traceEventNodeDL { return n.next }
func (n *traceEventNodeDL) Prev() *traceEventNodeDL { return n.prev }
func (n *traceEventNodeDL) Value() *TraceEvent      { return n.value }

// traceEventDoublyLinkedList implements a doubly linked list that is
// not concurrent safe -- callers (eventLog below) serialize access.
type traceEventDoublyLinkedList struct {
	first *traceEventNodeDL
	last  *traceEventNodeDL
}

func newTraceEventDoublyLinkedList() traceEventDoublyLinkedList {
	return traceEventDoublyLinkedList{}
}

func (g *traceEventDoublyLinkedList) Empty() bool { return g.first == nil }

func (g *traceEventDoublyLinkedList) First() *traceEventNodeDL { return g.first }
func (g *traceEventDoublyLinkedList) Last() *traceEventNodeDL  { return g.last }

// Append inserts a new node at the end of the list and returns a
// pointer to its value so the caller can fill it in.
func (g *traceEventDoublyLinkedList) Append() *TraceEvent {
	value := new(TraceEvent)
	n := &traceEventNodeDL{value: value}
	if g.last == nil {
		g.first, g.last = n, n
		return value
	}
	old := g.last
	g.last = n
	old.next = n
	n.prev = old
	return value
}

// Remove takes a node out of the list.
func (g *traceEventDoublyLinkedList) Remove(n *traceEventNodeDL) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		g.first = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		g.last = n.prev
	}
	n.prev, n.next = nil, nil
}

// Pop is a shorthand for Remove(First()) and it returns the removed
// node.
func (g *traceEventDoublyLinkedList) Pop() *traceEventNodeDL {
	f := g.First()
	if f == nil {
		return nil
	}
	g.Remove(f)
	return f
}

// TraverseGeneric walks all the items in the list, in order, starting
// at the front.
func (g *traceEventDoublyLinkedList) TraverseGeneric(fn func(*TraceEvent)) {
	for curr := g.first; curr != nil; curr = curr.next {
		fn(curr.value)
	}
}

// eventLog is a bounded trace buffer: the oldest event is evicted once
// capacity is reached, so a long-running session never grows without
// bound. Grounded on src/gen/doubly_linked.go's Append/Pop pairing,
// wrapped with the one policy genny's bare template does not supply.
type eventLog struct {
	list     traceEventDoublyLinkedList
	size     int
	capacity int
}

func newEventLog(capacity int) *eventLog {
	return &eventLog{list: newTraceEventDoublyLinkedList(), capacity: capacity}
}

func (l *eventLog) Record(hook, task, detail string) {
	if l.size == l.capacity {
		l.list.Pop()
		l.size--
	}
	e := l.list.Append()
	e.When = time.Now()
	e.Hook = hook
	e.Task = task
	e.Detail = detail
	l.size++
}

// Drain hands every currently buffered event to fn, oldest first, and
// empties the log.
func (l *eventLog) Drain(fn func(TraceEvent)) {
	for {
		n := l.list.Pop()
		if n == nil {
			return
		}
		l.size--
		fn(*n.value)
	}
}
