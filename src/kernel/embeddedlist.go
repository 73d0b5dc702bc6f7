package kernel

// taskLink is one prev/next pointer pair. A Task carries three of
// these (see Task.handleLink/timeoutLink/waitLink) so it can be a
// member of up to three disjoint lists at once, selected by tag rather
// than by inheritance -- the Go realization of the CRTP-based
// EmbeddedNode/EmbeddedList container the original kernel uses, scoped
// down to the one item type (*Task) this kernel ever threads through
// a list.
type taskLink struct {
	prev, next *Task
}

// listTag selects which of a Task's three link pairs a taskList walks.
type listTag int

const (
	tagHandle listTag = iota
	tagTimeout
	tagWaiting
)

// taskList is a non-owning, intrusive, doubly linked list of *Task,
// threaded through whichever link pair its tag names. A Task may be a
// member of at most one list per tag at any instant.
type taskList struct {
	tag   listTag
	first *Task
	size  int
}

func newTaskList(tag listTag) taskList {
	return taskList{tag: tag}
}

func (l *taskList) link(t *Task) *taskLink {
	switch l.tag {
	case tagHandle:
		return &t.handleLink
	case tagTimeout:
		return &t.timeoutLink
	default:
		return &t.waitLink
	}
}

func (l *taskList) member(t *Task) *bool {
	switch l.tag {
	case tagHandle:
		return &t.inHandle
	case tagTimeout:
		return &t.inTimeout
	default:
		return &t.inWaiting
	}
}

func (l *taskList) Empty() bool { return l.first == nil }
func (l *taskList) Len() int    { return l.size }
func (l *taskList) Front() *Task {
	return l.first
}

// Contains reports whether t is currently a member of this list.
func (l *taskList) Contains(t *Task) bool {
	return *l.member(t)
}

// PushFront inserts t at the head of the list, with no ordering.
func (l *taskList) PushFront(t *Task) {
	assert(!*l.member(t), "task already a member of this list")
	ln := l.link(t)
	ln.prev = nil
	ln.next = l.first
	if l.first != nil {
		l.link(l.first).prev = t
	}
	l.first = t
	*l.member(t) = true
	l.size++
}

// PopFront removes and returns the head of the list, or nil if empty.
func (l *taskList) PopFront() *Task {
	t := l.first
	if t == nil {
		return nil
	}
	l.Erase(t)
	return t
}

// Erase removes t from the list. A no-op if t is not a member.
func (l *taskList) Erase(t *Task) {
	if !*l.member(t) {
		return
	}
	ln := l.link(t)
	if ln.prev != nil {
		l.link(ln.prev).next = ln.next
	} else {
		l.first = ln.next
	}
	if ln.next != nil {
		l.link(ln.next).prev = ln.prev
	}
	ln.prev = nil
	ln.next = nil
	*l.member(t) = false
	l.size--
}

// InsertWhen inserts t in sorted order: it walks from the front while
// less(t, cursor) is false, and inserts t immediately before the first
// cursor for which less(t, cursor) becomes true (or at the back, if
// never true). Equal-priority entries are therefore left after every
// existing entry of the same rank -- the Open Question resolution
// recorded in DESIGN.md.
func (l *taskList) InsertWhen(less func(a, b *Task) bool, t *Task) {
	assert(!*l.member(t), "task already a member of this list")
	var prev *Task
	cur := l.first
	for cur != nil && !less(t, cur) {
		prev = cur
		cur = l.link(cur).next
	}
	ln := l.link(t)
	ln.prev = prev
	ln.next = cur
	if prev != nil {
		l.link(prev).next = t
	} else {
		l.first = t
	}
	if cur != nil {
		l.link(cur).prev = t
	}
	*l.member(t) = true
	l.size++
}

// ForEach walks the list front to back without mutating it.
func (l *taskList) ForEach(fn func(*Task)) {
	for cur := l.first; cur != nil; cur = l.link(cur).next {
		fn(cur)
	}
}
