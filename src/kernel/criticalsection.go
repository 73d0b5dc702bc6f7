package kernel

// CriticalSection is a move-only handle representing suspension of
// task switching. Only Scheduler mints a valid one, and only when no
// critical section was already held; a second concurrent mint yields
// an inert token so that nested pseudo-locks cannot double-release.
//
// Grounded on original_source/src/CriticalSection.hpp. Go has no move
// semantics or destructors, so "drop releases the hold" is realized as
// an explicit Drop call rather than a destructor -- callers are
// expected to `defer cs.Drop()` immediately after minting one, the Go
// idiom that plays the same role as C++ RAII here.
type CriticalSection struct {
	valid bool
}

// Valid reports whether this token actually holds the critical
// section (as opposed to being an inert no-op token).
func (c CriticalSection) Valid() bool { return c.valid }

// Drop releases the critical section if this token is valid, invoking
// the scheduler's critical-section-end bookkeeping; otherwise it is a
// no-op. A token must not be used again after Drop -- the same
// discipline the C++ version's destructor-once rule enforces, here by
// convention rather than by the type system.
func (c *CriticalSection) Drop() {
	if !c.valid {
		return
	}
	c.valid = false
	sched.criticalSectionEnd()
}

// Disable invalidates a valid token without running the release side
// effect. Used by the kernel's Wait service call, which hands the
// critical section off to the scheduler to release on its own terms
// rather than via this token's Drop.
func (c *CriticalSection) Disable() {
	assert(c.valid, "Disable called on an already-inert CriticalSection")
	c.valid = false
}
