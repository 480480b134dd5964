package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTier_CanAccess(t *testing.T) {
	ordered := []Tier{TierFree, TierFan, TierSuperFan, TierVIP, TierAdmin}

	for i, viewer := range ordered {
		for j, required := range ordered {
			assert.Equalf(
				t,
				i >= j,
				viewer.CanAccess(required),
				"viewer=%s required=%s", viewer, required,
			)
		}
	}
}

func TestTier_CanAccess_unknownViewerFailsClosed(t *testing.T) {
	assert.False(t, Tier("platinum").CanAccess(TierFan))
	assert.False(t, Tier("").CanAccess(TierFan))

	// unknown viewer still sees free content
	assert.True(t, Tier("platinum").CanAccess(TierFree))
}

func TestTier_Rank_monotonic(t *testing.T) {
	ordered := []Tier{TierFree, TierFan, TierSuperFan, TierVIP, TierAdmin}
	for i := 1; i < len(ordered); i++ {
		assert.Greater(t, ordered[i].Rank(), ordered[i-1].Rank())
	}
}

func TestParseTier(t *testing.T) {
	for _, valid := range []string{"free", "fan", "super_fan", "vip", "admin"} {
		tier, err := ParseTier(valid)
		require.NoError(t, err)
		assert.Equal(t, Tier(valid), tier)
	}

	for _, invalid := range []string{"", "premium", "FAN", "superfan"} {
		_, err := ParseTier(invalid)
		assert.ErrorIs(t, err, ErrValidation, "value %q", invalid)
	}
}
