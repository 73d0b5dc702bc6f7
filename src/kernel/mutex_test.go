package kernel

import (
	"testing"

	tassert "github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMutexNoCeilingIsACriticalSection(t *testing.T) {
	resetForTest()
	m := NewMutex(nil)
	tassert.Nil(t, m.Priority())

	m.Lock()
	tassert.True(t, sched.criticalSectionHeld)
	m.Unlock()
	tassert.False(t, sched.criticalSectionHeld)

	// Unlocking twice is a no-op, not a double-release panic.
	m.Unlock()
}

func TestMutexFullLockDisablesAndRestoresPrimask(t *testing.T) {
	resetForTest()
	zero := Priority(0)
	m := NewMutex(&zero)
	hh, ok := hw.(*hostHW)
	require.True(t, ok)

	wasSet := hh.IsPrimaskSet()
	require.False(t, wasSet)

	m.Lock()
	tassert.True(t, hh.IsPrimaskSet())
	m.Unlock()
	tassert.Equal(t, wasSet, hh.IsPrimaskSet())
}

func TestMutexCeilingRaisesAndRestoresBasepri(t *testing.T) {
	resetForTest()
	sched.config = DefaultConfig()
	ceiling := PriorityHigh
	m := NewMutex(&ceiling)
	hh, ok := hw.(*hostHW)
	require.True(t, ok)

	before := hh.basepri
	m.Lock()
	tassert.Equal(t, m.ceilingIsrPriority(), hh.basepri)
	m.Unlock()
	tassert.Equal(t, before, hh.basepri)
}
