package booking

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Domenick1991/gulfair/internal/domain"
	"github.com/Domenick1991/gulfair/internal/kafka"
	"github.com/Domenick1991/gulfair/internal/loyalty"
	"github.com/Domenick1991/gulfair/internal/repository"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type BookingUseCase interface {
	ListBookings(ctx context.Context, userID int64) ([]domain.Booking, error)
	GetBooking(ctx context.Context, userID, id int64) (*domain.Booking, error)
	GetByReference(ctx context.Context, reference string) (*domain.Booking, error)
	CreateBooking(ctx context.Context, userID int64, input CreateBookingInput) (*domain.Booking, error)
	UpdateBooking(ctx context.Context, userID, id int64, patch domain.BookingPatch) (*domain.Booking, error)
	CancelBooking(ctx context.Context, userID, id int64) (*CancelResult, error)
	RescheduleBooking(ctx context.Context, userID, id int64, input RescheduleInput) (*RescheduleResult, error)
	CheckIn(ctx context.Context, userID, id int64) (*CheckInResult, error)
}

type Cache interface {
	AcquireSeatLock(ctx context.Context, flightID int64, seat string, ttl time.Duration) (string, error)
	ReleaseSeatLock(ctx context.Context, flightID int64, seat, token string) error
	InvalidateFlights(ctx context.Context) error
}

type Producer interface {
	PublishWithRetry(ctx context.Context, topic, key string, value interface{}, maxRetries int) error
}

// CheckInWindow bounds when check-in is allowed relative to departure.
type CheckInWindow struct {
	Enabled bool
	Opens   time.Duration
	Closes  time.Duration
}

type CreateBookingInput struct {
	FlightID       int64
	PassengerName  string
	PassengerEmail string
	PassportNumber string
	SeatClass      string
	SeatNumber     string
	TotalPrice     float64
}

type RescheduleInput struct {
	NewFlightID int64
	SeatClass   string
	SeatNumber  string
}

type CancelResult struct {
	Message          string               `json:"message"`
	BookingReference string               `json:"booking_reference"`
	RefundAmount     float64              `json:"refund_amount"`
	Status           domain.BookingStatus `json:"status"`
}

type RescheduleResult struct {
	Message    string          `json:"message"`
	NewBooking *domain.Booking `json:"new_booking"`
}

type LoyaltyRewards struct {
	MilesEarned    int              `json:"miles_earned"`
	PointsEarned   int              `json:"points_earned"`
	TotalMiles     int              `json:"total_miles"`
	TotalPoints    int              `json:"total_points"`
	FlightDistance int              `json:"flight_distance"`
	SeatClass      domain.SeatClass `json:"seat_class"`
	LoyaltyTier    string           `json:"loyalty_tier"`
}

type TierUpgrade struct {
	Upgraded          bool   `json:"upgraded"`
	OldTier           string `json:"old_tier,omitempty"`
	NewTier           string `json:"new_tier,omitempty"`
	CurrentTier       string `json:"current_tier,omitempty"`
	TotalPoints       int    `json:"total_points"`
	NextTierThreshold *int   `json:"next_tier_threshold"`
}

type CheckInResult struct {
	Message        string         `json:"message"`
	LoyaltyRewards LoyaltyRewards `json:"loyalty_rewards"`
	TierUpgrade    TierUpgrade    `json:"tier_upgrade"`
	FalconFlyer    loyalty.Award  `json:"falcon_flyer"`
}

type BookingService struct {
	bookings           repository.BookingRepository
	flights            repository.FlightRepository
	cache              Cache
	producer           Producer
	log                logrus.FieldLogger
	bookingTopic       string
	notificationsTopic string
	publishRetries     int
	seatLockTTL        time.Duration
	checkIn            CheckInWindow
	now                func() time.Time
	newReference       func() string
}

type BookingServiceOption func(*BookingService)

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

func WithSeatLockTTL(ttl time.Duration) BookingServiceOption {
	return func(s *BookingService) {
		s.seatLockTTL = ttl
	}
}

func WithCheckInWindow(w CheckInWindow) BookingServiceOption {
	return func(s *BookingService) {
		s.checkIn = w
	}
}

func WithPublishRetries(n int) BookingServiceOption {
	return func(s *BookingService) {
		s.publishRetries = n
	}
}

func WithClock(now func() time.Time) BookingServiceOption {
	return func(s *BookingService) {
		s.now = now
	}
}

const maxReferenceAttempts = 5

func NewBookingService(
	bookings repository.BookingRepository,
	flights repository.FlightRepository,
	cache Cache,
	producer Producer,
	bookingTopic string,
	log logrus.FieldLogger,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		bookings:       bookings,
		flights:        flights,
		cache:          cache,
		producer:       producer,
		log:            log,
		bookingTopic:   bookingTopic,
		publishRetries: 3,
		seatLockTTL:    30 * time.Second,
		checkIn:        CheckInWindow{Enabled: true, Opens: 24 * time.Hour, Closes: time.Hour},
		now:            time.Now,
		newReference:   NewReference,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// NewReference returns "GA" followed by eight upper-case hex digits.
func NewReference() string {
	return "GA" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func (s *BookingService) ListBookings(ctx context.Context, userID int64) ([]domain.Booking, error) {
	return s.bookings.ListByUser(ctx, userID)
}

// GetBooking hides bookings of other users behind NotFound.
func (s *BookingService) GetBooking(ctx context.Context, userID, id int64) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.UserID != userID {
		return nil, domain.ErrBookingNotFound
	}
	return b, nil
}

func (s *BookingService) GetByReference(ctx context.Context, reference string) (*domain.Booking, error) {
	return s.bookings.GetByReference(ctx, strings.ToUpper(strings.TrimSpace(reference)))
}

func (s *BookingService) CreateBooking(ctx context.Context, userID int64, input CreateBookingInput) (*domain.Booking, error) {
	seat := strings.ToUpper(strings.TrimSpace(input.SeatNumber))
	if seat == "" {
		return nil, domain.Invalidf("seat number is required")
	}

	flight, err := s.flights.GetByID(ctx, input.FlightID)
	if err != nil {
		return nil, err
	}
	class, err := domain.ParseSeatClass(input.SeatClass)
	if err != nil {
		return nil, err
	}
	if flight.AvailableSeats(class) <= 0 {
		return nil, domain.NoSeatsError(class, false)
	}

	release, err := s.lockSeat(ctx, flight.ID, seat)
	if err != nil {
		return nil, err
	}
	defer release()

	taken, err := s.bookings.SeatTaken(ctx, flight.ID, seat, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, domain.ErrSeatTaken
	}

	booking := &domain.Booking{
		UserID:         userID,
		FlightID:       flight.ID,
		PassengerName:  input.PassengerName,
		PassengerEmail: input.PassengerEmail,
		PassportNumber: input.PassportNumber,
		SeatClass:      class,
		SeatNumber:     seat,
		TotalPrice:     input.TotalPrice,
	}
	if err := s.withReference(booking, func() error { return s.bookings.Create(ctx, booking) }); err != nil {
		return nil, err
	}

	s.invalidateFlights(ctx)
	s.publish(ctx, kafka.EventBookingCreated, booking, flight.FlightNumber, "")
	return booking, nil
}

// withReference retries fn with a fresh reference while references collide.
func (s *BookingService) withReference(b *domain.Booking, fn func() error) error {
	var err error
	for i := 0; i < maxReferenceAttempts; i++ {
		b.BookingReference = s.newReference()
		if err = fn(); !errors.Is(err, repository.ErrDuplicateReference) {
			return err
		}
	}
	return fmt.Errorf("generate booking reference: %w", err)
}

func (s *BookingService) UpdateBooking(ctx context.Context, userID, id int64, patch domain.BookingPatch) (*domain.Booking, error) {
	if patch.Empty() {
		return nil, domain.ErrEmptyPatch
	}
	b, err := s.GetBooking(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if b.Status != domain.BookingStatusConfirmed {
		return nil, domain.ErrUpdateNotConfirmed
	}

	if patch.SeatNumber.Set {
		seat := strings.ToUpper(strings.TrimSpace(patch.SeatNumber.Value))
		if seat == "" {
			return nil, domain.Invalidf("seat number must not be empty")
		}
		patch.SeatNumber.Value = seat

		if seat != b.SeatNumber {
			release, err := s.lockSeat(ctx, b.FlightID, seat)
			if err != nil {
				return nil, err
			}
			defer release()

			taken, err := s.bookings.SeatTaken(ctx, b.FlightID, seat, b.ID)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, domain.ErrSeatTaken
			}
		}
	}

	if err := s.bookings.Update(ctx, b, patch.Apply(b)); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *BookingService) CancelBooking(ctx context.Context, userID, id int64) (*CancelResult, error) {
	b, err := s.GetBooking(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	switch b.Status {
	case domain.BookingStatusCancelled:
		return nil, domain.ErrBookingAlreadyCancelled
	case domain.BookingStatusCheckedIn:
		return nil, domain.ErrCancelCheckedIn
	}

	if err := s.bookings.Cancel(ctx, b); err != nil {
		return nil, err
	}

	s.invalidateFlights(ctx)
	s.publish(ctx, kafka.EventBookingCancelled, b, "", "")
	return &CancelResult{
		Message:          fmt.Sprintf("Booking %s has been cancelled", b.BookingReference),
		BookingReference: b.BookingReference,
		RefundAmount:     b.TotalPrice,
		Status:           domain.BookingStatusCancelled,
	}, nil
}

func (s *BookingService) RescheduleBooking(ctx context.Context, userID, id int64, input RescheduleInput) (*RescheduleResult, error) {
	original, err := s.GetBooking(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	switch original.Status {
	case domain.BookingStatusCancelled:
		return nil, domain.ErrRescheduleCancelled
	case domain.BookingStatusCheckedIn:
		return nil, domain.ErrRescheduleCheckedIn
	}

	target, err := s.flights.GetByID(ctx, input.NewFlightID)
	if errors.Is(err, domain.ErrFlightNotFound) {
		return nil, domain.ErrNewFlightNotFound
	}
	if err != nil {
		return nil, err
	}
	if target.ID == original.FlightID {
		return nil, domain.ErrSameFlight
	}

	class := original.SeatClass
	if input.SeatClass != "" {
		if class, err = domain.ParseSeatClass(input.SeatClass); err != nil {
			return nil, err
		}
	}
	seat := original.SeatNumber
	if v := strings.ToUpper(strings.TrimSpace(input.SeatNumber)); v != "" {
		seat = v
	}
	if target.AvailableSeats(class) <= 0 {
		return nil, domain.NoSeatsError(class, true)
	}

	release, err := s.lockSeat(ctx, target.ID, seat)
	if err != nil {
		return nil, err
	}
	defer release()

	taken, err := s.bookings.SeatTaken(ctx, target.ID, seat, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, domain.ErrSeatTakenNew
	}

	replacement := &domain.Booking{
		UserID:         original.UserID,
		FlightID:       target.ID,
		PassengerName:  original.PassengerName,
		PassengerEmail: original.PassengerEmail,
		PassportNumber: original.PassportNumber,
		SeatClass:      class,
		SeatNumber:     seat,
		TotalPrice:     original.TotalPrice,
	}
	err = s.withReference(replacement, func() error { return s.bookings.Reschedule(ctx, original, replacement) })
	if err != nil {
		return nil, err
	}

	s.invalidateFlights(ctx)
	s.publish(ctx, kafka.EventBookingRescheduled, replacement, target.FlightNumber, original.BookingReference)
	return &RescheduleResult{
		Message:    fmt.Sprintf("Booking %s has been rescheduled successfully", original.BookingReference),
		NewBooking: replacement,
	}, nil
}

func (s *BookingService) CheckIn(ctx context.Context, userID, id int64) (*CheckInResult, error) {
	b, err := s.GetBooking(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if b.Status != domain.BookingStatusConfirmed {
		return nil, domain.ErrCheckInNotConfirmed
	}

	flight, err := s.flights.GetByID(ctx, b.FlightID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := s.checkWindow(flight, now); err != nil {
		return nil, err
	}

	distance := loyalty.Distance(flight.DepartureAirport, flight.ArrivalAirport)
	var (
		miles, points           int
		totalMiles, totalPoints int
		tier                    string
		change                  loyalty.TierChange
		award                   loyalty.Award
	)
	// balances come from the rows locked by the check-in transaction
	err = s.bookings.CheckIn(ctx, b, func(user *domain.User, acc *domain.Loyalty) (bool, error) {
		miles = loyalty.MilesEarned(distance, b.SeatClass, user.LoyaltyTier)
		points = loyalty.PointsFromMiles(miles)
		user.LoyaltyMiles += miles
		user.LoyaltyPoints += points
		change = loyalty.Reevaluate(user.LoyaltyTier, user.LoyaltyPoints)
		user.LoyaltyTier = change.NewTier
		totalMiles, totalPoints, tier = user.LoyaltyMiles, user.LoyaltyPoints, user.LoyaltyTier

		award = loyalty.Credit(acc, loyalty.BookingPoints(b, flight), now)
		return !award.MembershipRequired, nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, kafka.EventBookingCheckedIn, b, flight.FlightNumber, "")
	return &CheckInResult{
		Message: fmt.Sprintf("Successfully checked in for booking %s", b.BookingReference),
		LoyaltyRewards: LoyaltyRewards{
			MilesEarned:    miles,
			PointsEarned:   points,
			TotalMiles:     totalMiles,
			TotalPoints:    totalPoints,
			FlightDistance: distance,
			SeatClass:      b.SeatClass,
			LoyaltyTier:    tier,
		},
		TierUpgrade: tierUpgrade(change),
		FalconFlyer: award,
	}, nil
}

func tierUpgrade(c loyalty.TierChange) TierUpgrade {
	u := TierUpgrade{
		Upgraded:          c.Upgraded,
		TotalPoints:       c.TotalPoints,
		NextTierThreshold: c.NextTierThreshold,
	}
	if c.Upgraded {
		u.OldTier, u.NewTier = c.OldTier, c.NewTier
	} else {
		u.CurrentTier = c.NewTier
	}
	return u
}

func (s *BookingService) checkWindow(f *domain.Flight, now time.Time) error {
	if !s.checkIn.Enabled {
		return nil
	}
	untilDeparture := f.DepartureTime.Sub(now)
	if untilDeparture <= s.checkIn.Closes {
		return domain.Invalidf("check-in is closed, it closes %d minutes before departure", int(s.checkIn.Closes.Minutes()))
	}
	if untilDeparture > s.checkIn.Opens {
		hours := int(math.Ceil((untilDeparture - s.checkIn.Opens).Hours()))
		return domain.Invalidf("check-in is not open yet, it opens in %d hours", hours)
	}
	return nil
}

// lockSeat serialises requests for one seat. When Redis is unavailable the
// partial unique index on confirmed seats still rejects duplicates.
func (s *BookingService) lockSeat(ctx context.Context, flightID int64, seat string) (func(), error) {
	noop := func() {}
	if s.cache == nil {
		return noop, nil
	}
	token, err := s.cache.AcquireSeatLock(ctx, flightID, seat, s.seatLockTTL)
	if err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{"flight_id": flightID, "seat": seat}).Warn("seat lock unavailable")
		return noop, nil
	}
	if token == "" {
		return nil, domain.ErrSeatLocked
	}
	return func() {
		if err := s.cache.ReleaseSeatLock(context.WithoutCancel(ctx), flightID, seat, token); err != nil {
			s.log.WithError(err).WithField("flight_id", flightID).Warn("release seat lock")
		}
	}, nil
}

func (s *BookingService) invalidateFlights(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateFlights(ctx); err != nil {
		s.log.WithError(err).Warn("invalidate flights cache")
	}
}

// publish never fails the request; delivery problems are only logged.
func (s *BookingService) publish(ctx context.Context, eventType string, b *domain.Booking, flightNumber, previousRef string) {
	if s.producer == nil || s.bookingTopic == "" {
		return
	}
	event := kafka.BookingEvent{
		Type:             eventType,
		BookingReference: b.BookingReference,
		BookingID:        b.ID,
		UserID:           b.UserID,
		FlightID:         b.FlightID,
		FlightNumber:     flightNumber,
		PassengerName:    b.PassengerName,
		Email:            b.PassengerEmail,
		SeatClass:        string(b.SeatClass),
		SeatNumber:       b.SeatNumber,
		Status:           string(b.Status),
		TotalPrice:       b.TotalPrice,
		PreviousRef:      previousRef,
		OccurredAt:       s.now(),
	}

	topics := []string{s.bookingTopic}
	if s.notificationsTopic != "" {
		topics = append(topics, s.notificationsTopic)
	}
	for _, topic := range topics {
		if err := s.producer.PublishWithRetry(ctx, topic, b.BookingReference, event, s.publishRetries); err != nil {
			s.log.WithError(err).WithFields(logrus.Fields{
				"event":             eventType,
				"topic":             topic,
				"booking_reference": b.BookingReference,
			}).Warn("failed to publish booking event")
		}
	}
}

var _ BookingUseCase = (*BookingService)(nil)
