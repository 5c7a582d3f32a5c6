package loyalty

import (
	"database/sql"
	"time"

	"github.com/Domenick1991/gulfair/internal/domain"
)

// Falcon Flyer tiers.
const (
	FalconBlue   = "Blue"
	FalconSilver = "Silver"
	FalconGold   = "Gold"
	FalconBlack  = "Black"
)

type Benefits struct {
	Tier               string `json:"tier"`
	PriorityBoarding   bool   `json:"priority_boarding"`
	ExtraBaggage       string `json:"extra_baggage"`
	LoungeAccess       bool   `json:"lounge_access"`
	SeatSelection      string `json:"seat_selection"`
	UpgradeEligibility bool   `json:"upgrade_eligibility"`
	PointsBonus        string `json:"points_bonus"`
}

type Tier struct {
	Name           string   `json:"tier"`
	PointsRequired int      `json:"points_required"`
	ValidityYears  *int     `json:"validity_years"`
	RenewalPoints  int      `json:"renewal_points"`
	Description    string   `json:"description"`
	Benefits       Benefits `json:"benefits"`

	multiplier float64
}

func years(n int) *int { return &n }

// falconTiers is ordered ascending by points required.
var falconTiers = []Tier{
	{
		Name:           FalconBlue,
		PointsRequired: 0,
		RenewalPoints:  0,
		Description:    "Entry level - default tier for all members",
		Benefits: Benefits{
			Tier: FalconBlue, ExtraBaggage: "0 kg", SeatSelection: "Standard", PointsBonus: "1x",
		},
		multiplier: 1.0,
	},
	{
		Name:           FalconSilver,
		PointsRequired: 900,
		ValidityYears:  years(1),
		RenewalPoints:  650,
		Description:    "Silver tier - 1 year validity, 650 points to renew",
		Benefits: Benefits{
			Tier: FalconSilver, PriorityBoarding: true, ExtraBaggage: "10 kg",
			SeatSelection: "Preferred", UpgradeEligibility: true, PointsBonus: "1.25x",
		},
		multiplier: 1.25,
	},
	{
		Name:           FalconGold,
		PointsRequired: 2500,
		ValidityYears:  years(2),
		RenewalPoints:  1750,
		Description:    "Gold tier - 2 year validity, 1,750 points to retain",
		Benefits: Benefits{
			Tier: FalconGold, PriorityBoarding: true, ExtraBaggage: "20 kg", LoungeAccess: true,
			SeatSelection: "Preferred", UpgradeEligibility: true, PointsBonus: "1.5x",
		},
		multiplier: 1.5,
	},
	{
		Name:           FalconBlack,
		PointsRequired: 6500,
		ValidityYears:  years(2),
		RenewalPoints:  4550,
		Description:    "Black tier - 2 year validity, 4,550 points to retain",
		Benefits: Benefits{
			Tier: FalconBlack, PriorityBoarding: true, ExtraBaggage: "30 kg", LoungeAccess: true,
			SeatSelection: "Premium", UpgradeEligibility: true, PointsBonus: "2x",
		},
		multiplier: 2.0,
	},
}

// Tiers returns a copy of the Falcon Flyer tier catalogue.
func Tiers() []Tier {
	out := make([]Tier, len(falconTiers))
	copy(out, falconTiers)
	return out
}

func falconIndex(name string) int {
	for i, t := range falconTiers {
		if t.Name == name {
			return i
		}
	}
	return 0
}

func TierInfo(name string) Tier {
	return falconTiers[falconIndex(name)]
}

func BonusMultiplier(tier string) float64 {
	return falconTiers[falconIndex(tier)].multiplier
}

// FalconTierForPoints returns the highest tier whose requirement is met.
func FalconTierForPoints(points int) string {
	for i := len(falconTiers) - 1; i >= 0; i-- {
		if points >= falconTiers[i].PointsRequired {
			return falconTiers[i].Name
		}
	}
	return FalconBlue
}

// NextTier returns the tier above and the points still missing. At the top
// tier the name is empty.
func NextTier(current string, totalPoints int) (string, int) {
	i := falconIndex(current)
	if i+1 >= len(falconTiers) {
		return "", 0
	}
	next := falconTiers[i+1]
	return next.Name, next.PointsRequired - totalPoints
}

const longHaul = 4 * time.Hour

// BookingPoints is one point per currency unit, plus 50% for long haul and
// 25% for the premium cabin. Both bonuses are computed on the base.
func BookingPoints(b *domain.Booking, f *domain.Flight) int {
	base := int(b.TotalPrice)
	points := base
	if f.Duration() > longHaul {
		points += int(float64(base) * 0.5)
	}
	if b.SeatClass.Premium() {
		points += int(float64(base) * 0.25)
	}
	return points
}

// Award is the result of crediting points to a Falcon Flyer account.
type Award struct {
	PointsEarned       int     `json:"points_earned"`
	BasePoints         int     `json:"base_points,omitempty"`
	BonusMultiplier    float64 `json:"bonus_multiplier,omitempty"`
	NewTier            string  `json:"new_tier,omitempty"`
	TotalPoints        int     `json:"total_points,omitempty"`
	AvailablePoints    int     `json:"available_points,omitempty"`
	MembershipRequired bool    `json:"membership_required,omitempty"`
	Message            string  `json:"message,omitempty"`
}

const membershipRequiredMsg = "You must be a Falcon Flyer member to earn loyalty points. Join now to start earning!"

// Credit mutates the account and reports what was awarded. Inactive
// members earn nothing.
func Credit(acc *domain.Loyalty, basePoints int, now time.Time) Award {
	if !acc.Active() {
		return Award{MembershipRequired: true, Message: membershipRequiredMsg}
	}

	multiplier := BonusMultiplier(acc.CurrentTier)
	earned := int(float64(basePoints) * multiplier)

	acc.TotalPoints += earned
	acc.AvailablePoints += earned
	acc.PointsEarnedThisPeriod += earned

	if tier := FalconTierForPoints(acc.TotalPoints); tier != acc.CurrentTier {
		acc.CurrentTier = tier
		acc.TierAchievedDate = validTime(now)
		if v := TierInfo(tier).ValidityYears; v != nil {
			acc.TierExpiryDate = validTime(now.AddDate(*v, 0, 0))
		}
	}

	return Award{
		PointsEarned:    earned,
		BasePoints:      basePoints,
		BonusMultiplier: multiplier,
		NewTier:         acc.CurrentTier,
		TotalPoints:     acc.TotalPoints,
		AvailablePoints: acc.AvailablePoints,
	}
}

// Enroll activates the membership at the Blue tier.
func Enroll(acc *domain.Loyalty, now time.Time) {
	acc.MembershipStatus = domain.MembershipActive
	acc.MembershipEnrolledDate = validTime(now)
	acc.CurrentTier = FalconBlue
	acc.TierAchievedDate = validTime(now)
}

func validTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: true}
}
