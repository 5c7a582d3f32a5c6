package loyalty

import (
	"testing"

	"github.com/Domenick1991/gulfair/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		from, to string
		want     int
	}{
		{"BAH", "DXB", 302},
		{"DXB", "BAH", 302},
		{"BAH", "DOH", 90},
		{"BAH", "LHR", 3164},
		{"bah", "dxb", 302},
		{"BAH", "XXX", DefaultDistance},
		{"YYY", "DXB", DefaultDistance},
		{"BAH", "BAH", 0},
	}

	for _, tt := range tests {
		t.Run(tt.from+"-"+tt.to, func(t *testing.T) {
			assert.Equal(t, tt.want, Distance(tt.from, tt.to))
		})
	}
}

func TestMilesEarned(t *testing.T) {
	tests := []struct {
		name  string
		class domain.SeatClass
		tier  string
		want  int
	}{
		{"business blue", domain.SeatClassBusiness, TierBlue, 453},
		{"economy blue", domain.SeatClassEconomy, TierBlue, 302},
		{"business silver", domain.SeatClassBusiness, TierSilver, 566},
		{"economy platinum", domain.SeatClassEconomy, TierPlatinum, 604},
		{"unknown tier counts as blue", domain.SeatClassEconomy, "Bronze", 302},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MilesEarned(302, tt.class, tt.tier))
		})
	}
}

func TestPointsFromMiles(t *testing.T) {
	assert.Equal(t, 45, PointsFromMiles(453))
	assert.Equal(t, 0, PointsFromMiles(9))
	assert.Equal(t, 316, PointsFromMiles(3164))
}

func TestTierForPoints(t *testing.T) {
	assert.Equal(t, TierBlue, TierForPoints(0))
	assert.Equal(t, TierBlue, TierForPoints(499))
	assert.Equal(t, TierSilver, TierForPoints(500))
	assert.Equal(t, TierGold, TierForPoints(1999))
	assert.Equal(t, TierPlatinum, TierForPoints(2000))
	assert.Equal(t, TierPlatinum, TierForPoints(50000))
}

func TestNextTierThreshold(t *testing.T) {
	next := NextTierThreshold(TierBlue)
	require.NotNil(t, next)
	assert.Equal(t, 500, *next)

	next = NextTierThreshold(TierGold)
	require.NotNil(t, next)
	assert.Equal(t, 2000, *next)

	assert.Nil(t, NextTierThreshold(TierPlatinum))
}

func TestReevaluate(t *testing.T) {
	change := Reevaluate(TierBlue, 45)
	assert.False(t, change.Upgraded)
	assert.Equal(t, TierBlue, change.NewTier)
	require.NotNil(t, change.NextTierThreshold)
	assert.Equal(t, 500, *change.NextTierThreshold)

	change = Reevaluate(TierBlue, 520)
	assert.True(t, change.Upgraded)
	assert.Equal(t, TierBlue, change.OldTier)
	assert.Equal(t, TierSilver, change.NewTier)
	assert.Equal(t, 520, change.TotalPoints)

	change = Reevaluate("", 0)
	assert.False(t, change.Upgraded)
	assert.Equal(t, TierBlue, change.OldTier)
}
