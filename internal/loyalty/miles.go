// Package loyalty holds the pure earning rules of both loyalty models: the
// distance based miles program stored on the user and the Falcon Flyer
// points program stored in its own account.
package loyalty

import (
	"math"
	"strings"

	"github.com/Domenick1991/gulfair/internal/domain"
)

const (
	earthRadiusMiles = 3959
	// DefaultDistance is used when either airport is missing from the table.
	DefaultDistance = 500
	milesPerPoint   = 10
)

type coord struct {
	lat, lon float64
}

var airports = map[string]coord{
	"BAH": {26.2708, 50.6336},
	"DXB": {25.2532, 55.3657},
	"DOH": {25.2611, 51.5651},
	"KWI": {29.2269, 47.9789},
	"RUH": {24.6408, 46.7728},
	"JED": {21.6796, 39.1565},
	"CAI": {30.1127, 31.4000},
	"BEY": {33.8209, 35.4883},
	"AMM": {31.7225, 35.9933},
	"LHR": {51.4700, -0.4543},
	"CDG": {49.0097, 2.5479},
	"FRA": {50.0379, 8.5622},
	"MAD": {40.4839, -3.5680},
	"FCO": {41.8003, 12.2389},
	"ATH": {37.9364, 23.9445},
	"BOM": {19.0896, 72.8656},
	"DEL": {28.5562, 77.1000},
	"BKK": {13.6900, 100.7501},
	"KUL": {2.7456, 101.7099},
	"SIN": {1.3644, 103.9915},
	"HKG": {22.3080, 113.9185},
	"NBO": {-1.3192, 36.9278},
	"JNB": {-26.1367, 28.2411},
}

// Distance returns the great circle distance in whole miles.
func Distance(from, to string) int {
	a, okA := airports[strings.ToUpper(from)]
	b, okB := airports[strings.ToUpper(to)]
	if !okA || !okB {
		return DefaultDistance
	}

	dLat := radians(b.lat - a.lat)
	dLon := radians(b.lon - a.lon)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(a.lat))*math.Cos(radians(b.lat))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return int(earthRadiusMiles * c)
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Simple tier names of the miles program.
const (
	TierBlue     = "Blue"
	TierSilver   = "Silver"
	TierGold     = "Gold"
	TierPlatinum = "Platinum"
)

type threshold struct {
	tier       string
	points     int
	multiplier float64
}

// milesTiers is ordered ascending by points.
var milesTiers = []threshold{
	{TierBlue, 0, 1.0},
	{TierSilver, 500, 1.25},
	{TierGold, 1000, 1.5},
	{TierPlatinum, 2000, 2.0},
}

func tierMultiplier(tier string) float64 {
	for _, t := range milesTiers {
		if strings.EqualFold(t.tier, tier) {
			return t.multiplier
		}
	}
	return 1.0
}

// MilesEarned applies the cabin and tier multipliers to the flown distance.
func MilesEarned(distance int, class domain.SeatClass, tier string) int {
	seat := 1.0
	if class.Premium() {
		seat = 1.5
	}
	return int(float64(distance) * seat * tierMultiplier(tier))
}

func PointsFromMiles(miles int) int {
	return miles / milesPerPoint
}

// TierForPoints scans thresholds from the top and returns the first one met.
func TierForPoints(points int) string {
	for i := len(milesTiers) - 1; i >= 0; i-- {
		if points >= milesTiers[i].points {
			return milesTiers[i].tier
		}
	}
	return TierBlue
}

// NextTierThreshold returns the points needed for the tier above, or nil at the top.
func NextTierThreshold(tier string) *int {
	for i, t := range milesTiers {
		if strings.EqualFold(t.tier, tier) && i+1 < len(milesTiers) {
			next := milesTiers[i+1].points
			return &next
		}
	}
	return nil
}

// TierChange is the outcome of re-evaluating a user's tier.
type TierChange struct {
	Upgraded          bool
	OldTier           string
	NewTier           string
	TotalPoints       int
	NextTierThreshold *int
}

// Reevaluate derives the tier from the cumulative points.
func Reevaluate(currentTier string, totalPoints int) TierChange {
	if currentTier == "" {
		currentTier = TierBlue
	}
	newTier := TierForPoints(totalPoints)
	return TierChange{
		Upgraded:          !strings.EqualFold(newTier, currentTier),
		OldTier:           currentTier,
		NewTier:           newTier,
		TotalPoints:       totalPoints,
		NextTierThreshold: NextTierThreshold(newTier),
	}
}
