package loyalty

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/Domenick1991/gulfair/internal/domain"
	rules "github.com/Domenick1991/gulfair/internal/loyalty"
	"github.com/Domenick1991/gulfair/internal/repository"
	"github.com/sirupsen/logrus"
)

type LoyaltyUseCase interface {
	Status(ctx context.Context, userID int64) (*StatusView, error)
	Tiers() []rules.Tier
	Enroll(ctx context.Context, userID int64, input EnrollInput) (*EnrollResult, error)
	AwardPoints(ctx context.Context, userID int64, basePoints int, reason string) (rules.Award, error)
	History(ctx context.Context, userID int64) (*HistoryResult, error)
}

type StatusView struct {
	IsMember               bool                    `json:"is_falcon_flyer_member"`
	MembershipStatus       domain.MembershipStatus `json:"membership_status"`
	MembershipNumber       *string                 `json:"membership_number"`
	MembershipEnrolledDate *time.Time              `json:"membership_enrolled_date"`
	CurrentTier            string                  `json:"current_tier"`
	TotalPoints            int                     `json:"total_points"`
	AvailablePoints        int                     `json:"available_points"`
	PointsToNextTier       int                     `json:"points_to_next_tier"`
	NextTier               *string                 `json:"next_tier"`
	TierBenefits           rules.Benefits          `json:"tier_benefits"`
	TierExpiry             *time.Time              `json:"tier_expiry"`
	PointsThisPeriod       int                     `json:"points_this_period"`
}

type EnrollInput struct {
	AgreeToTerms   bool
	MarketingOptIn bool
}

type EnrollResult struct {
	Message          string                  `json:"message"`
	MembershipStatus domain.MembershipStatus `json:"membership_status"`
	MembershipNumber string                  `json:"membership_number"`
	CurrentTier      string                  `json:"current_tier"`
	EnrolledDate     time.Time               `json:"enrolled_date"`
}

type HistoryItem struct {
	BookingReference string               `json:"booking_reference"`
	FlightNumber     string               `json:"flight_number"`
	Route            string               `json:"route"`
	BookingDate      time.Time            `json:"booking_date"`
	PointsEarned     int                  `json:"points_earned"`
	SeatClass        domain.SeatClass     `json:"seat_class"`
	TotalPrice       float64              `json:"total_price"`
	Status           domain.BookingStatus `json:"status"`
}

type HistoryResult struct {
	TotalBookings int           `json:"total_bookings"`
	History       []HistoryItem `json:"history"`
}

const (
	welcomeMessage         = "Welcome to Falcon Flyer! You can now start earning loyalty points."
	maxMembershipAttempts  = 5
	membershipNumberDigits = 100000000
)

type LoyaltyService struct {
	accounts  repository.LoyaltyRepository
	users     repository.UserRepository
	bookings  repository.BookingRepository
	log       logrus.FieldLogger
	now       func() time.Time
	newNumber func() string
}

func NewLoyaltyService(
	accounts repository.LoyaltyRepository,
	users repository.UserRepository,
	bookings repository.BookingRepository,
	log logrus.FieldLogger,
) *LoyaltyService {
	return &LoyaltyService{
		accounts:  accounts,
		users:     users,
		bookings:  bookings,
		log:       log,
		now:       time.Now,
		newNumber: NewMembershipNumber,
	}
}

// NewMembershipNumber returns "FF" followed by eight random digits.
func NewMembershipNumber() string {
	return fmt.Sprintf("FF%08d", rand.IntN(membershipNumberDigits))
}

func (s *LoyaltyService) Status(ctx context.Context, userID int64) (*StatusView, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	acc, err := s.accounts.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	view := &StatusView{
		IsMember:               acc.Active(),
		MembershipStatus:       acc.MembershipStatus,
		MembershipNumber:       nullString(user.MembershipNumber),
		MembershipEnrolledDate: nullTime(acc.MembershipEnrolledDate),
		CurrentTier:            acc.CurrentTier,
		TotalPoints:            acc.TotalPoints,
		AvailablePoints:        acc.AvailablePoints,
		TierBenefits:           rules.TierInfo(acc.CurrentTier).Benefits,
		TierExpiry:             nullTime(acc.TierExpiryDate),
		PointsThisPeriod:       acc.PointsEarnedThisPeriod,
	}
	if next, missing := rules.NextTier(acc.CurrentTier, acc.TotalPoints); next != "" {
		view.NextTier = &next
		view.PointsToNextTier = max(missing, 0)
	}
	return view, nil
}

func (s *LoyaltyService) Tiers() []rules.Tier {
	return rules.Tiers()
}

func (s *LoyaltyService) Enroll(ctx context.Context, userID int64, input EnrollInput) (*EnrollResult, error) {
	if !input.AgreeToTerms {
		return nil, domain.ErrTermsNotAccepted
	}
	now := s.now()
	activate := func(acc *domain.Loyalty) error {
		if acc.Active() {
			return domain.ErrAlreadyMember
		}
		rules.Enroll(acc, now)
		return nil
	}

	var (
		acc    *domain.Loyalty
		number string
		err    error
	)
	for i := 0; i < maxMembershipAttempts; i++ {
		number = s.newNumber()
		acc, err = s.accounts.Enroll(ctx, userID, number, activate)
		if !errors.Is(err, repository.ErrDuplicateMembershipNumber) {
			break
		}
	}
	if domain.KindOf(err) != 0 {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("enroll user %d: %w", userID, err)
	}

	s.log.WithFields(logrus.Fields{
		"user_id":           userID,
		"membership_number": number,
		"marketing_opt_in":  input.MarketingOptIn,
	}).Info("falcon flyer enrollment")

	return &EnrollResult{
		Message:          welcomeMessage,
		MembershipStatus: acc.MembershipStatus,
		MembershipNumber: number,
		CurrentTier:      acc.CurrentTier,
		EnrolledDate:     now,
	}, nil
}

// AwardPoints credits base points to an active member under the account row
// lock. Inactive members get a membership_required award and nothing is stored.
func (s *LoyaltyService) AwardPoints(ctx context.Context, userID int64, basePoints int, reason string) (rules.Award, error) {
	var award rules.Award
	err := s.accounts.Update(ctx, userID, func(acc *domain.Loyalty) (bool, error) {
		award = rules.Credit(acc, basePoints, s.now())
		return !award.MembershipRequired, nil
	})
	if err != nil {
		return rules.Award{}, err
	}
	if award.MembershipRequired {
		return award, nil
	}

	s.log.WithFields(logrus.Fields{
		"user_id": userID,
		"points":  award.PointsEarned,
		"reason":  reason,
	}).Info("loyalty points awarded")
	return award, nil
}

func (s *LoyaltyService) History(ctx context.Context, userID int64) (*HistoryResult, error) {
	trips, err := s.bookings.ListTrips(ctx, userID, domain.BookingStatusConfirmed, domain.BookingStatusCheckedIn)
	if err != nil {
		return nil, err
	}

	items := make([]HistoryItem, 0, len(trips))
	for _, t := range trips {
		points := rules.BookingPoints(
			&domain.Booking{TotalPrice: t.TotalPrice, SeatClass: t.SeatClass},
			&domain.Flight{DepartureTime: t.DepartureTime, ArrivalTime: t.ArrivalTime},
		)
		items = append(items, HistoryItem{
			BookingReference: t.BookingReference,
			FlightNumber:     t.FlightNumber,
			Route:            t.DepartureAirport + " → " + t.ArrivalAirport,
			BookingDate:      t.BookingDate,
			PointsEarned:     points,
			SeatClass:        t.SeatClass,
			TotalPrice:       t.TotalPrice,
			Status:           t.Status,
		})
	}
	return &HistoryResult{TotalBookings: len(items), History: items}, nil
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	return &t.Time
}

func nullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}

var _ LoyaltyUseCase = (*LoyaltyService)(nil)
