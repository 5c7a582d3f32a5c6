package domain

import (
	"database/sql"
	"time"
)

type MembershipStatus string

const (
	MembershipActive   MembershipStatus = "active"
	MembershipInactive MembershipStatus = "inactive"
	MembershipPending  MembershipStatus = "pending"
)

// Loyalty is the Falcon Flyer account of a user.
type Loyalty struct {
	ID                     int64            `db:"id"`
	UserID                 int64            `db:"user_id"`
	MembershipStatus       MembershipStatus `db:"membership_status"`
	MembershipEnrolledDate sql.NullTime     `db:"membership_enrolled_date"`
	CurrentTier            string           `db:"current_tier"`
	TotalPoints            int              `db:"total_points"`
	AvailablePoints        int              `db:"available_points"`
	TierAchievedDate       sql.NullTime     `db:"tier_achieved_date"`
	TierExpiryDate         sql.NullTime     `db:"tier_expiry_date"`
	PointsEarnedThisPeriod int              `db:"points_earned_this_period"`
	CreatedAt              time.Time        `db:"created_at"`
	UpdatedAt              time.Time        `db:"updated_at"`
}

func (l *Loyalty) Active() bool {
	return l.MembershipStatus == MembershipActive
}
