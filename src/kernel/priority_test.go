package kernel

import (
	"testing"

	tassert "github.com/stretchr/testify/assert"
)

func TestFromPreemptSubRoundTrips(t *testing.T) {
	p := FromPreemptSub(4, 3, 7)
	tassert.Equal(t, uint8(3), p.Preempt(4))
	tassert.Equal(t, uint8(7), p.Sub(4))
}

func TestIsrPriorityMaskedComparesOnlyImplementedBits(t *testing.T) {
	a := NewIsrPriority(0x10)
	b := NewIsrPriority(0x1F)
	// With 4 priority bits, only the top nibble is implemented; both
	// mask down to the same value and are equally important.
	tassert.Equal(t, a.Masked(4), b.Masked(4))
	tassert.True(t, a.AtLeastAsImportant(b, 4))
	tassert.True(t, b.AtLeastAsImportant(a, 4))
}

func TestIsrPriorityLowestNeverWins(t *testing.T) {
	tassert.False(t, IsrPriorityLowest.AtLeastAsImportant(NewIsrPriority(0), 8))
}

func TestConfigValidateRejectsPreemptionBitsExceedingPriorityBits(t *testing.T) {
	c := DefaultConfig()
	c.PreemptionBits = c.PriorityBits + 1
	tassert.Error(t, c.Validate())
}

func TestConfigValidateRejectsUnrepresentableKernelPreemptionLevel(t *testing.T) {
	c := DefaultConfig()
	c.KernelPreemptionLevel = 1 << c.PreemptionBits
	tassert.Error(t, c.Validate())
}

func TestConfigValidateAcceptsDefault(t *testing.T) {
	tassert.NoError(t, DefaultConfig().Validate())
}
