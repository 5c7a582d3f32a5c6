package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/Domenick1991/gulfair/internal/domain"
	"github.com/jmoiron/sqlx"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	GetByReference(ctx context.Context, reference string) (*domain.Booking, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Booking, error)
	ListTrips(ctx context.Context, userID int64, statuses ...domain.BookingStatus) ([]domain.Trip, error)
	SeatTaken(ctx context.Context, flightID int64, seat string, excludeID int64) (bool, error)
	Update(ctx context.Context, booking *domain.Booking, columns []string) error
	Cancel(ctx context.Context, booking *domain.Booking) error
	Reschedule(ctx context.Context, original, replacement *domain.Booking) error
	CheckIn(ctx context.Context, booking *domain.Booking, apply CheckInApply) error
}

// CheckInApply mutates the user and Falcon Flyer rows read under lock by the
// check-in transaction. It reports whether the account has to be written back.
type CheckInApply func(user *domain.User, acc *domain.Loyalty) (bool, error)

const bookingColumns = `id, booking_reference, user_id, flight_id, passenger_name, passenger_email,
	passport_number, seat_class, seat_number, booking_status, total_price, booking_date, created_at, updated_at`

type PGBookingRepository struct {
	db *sqlx.DB
}

func NewBookingRepository(db *sqlx.DB) BookingRepository {
	return &PGBookingRepository{db: db}
}

// Create takes a seat on the flight and inserts the booking in one transaction.
func (r *PGBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer rollback(tx)

	ok, err := takeSeat(ctx, tx, booking.FlightID, booking.SeatClass)
	if err != nil {
		return err
	}
	if !ok {
		return domain.NoSeatsError(booking.SeatClass, false)
	}

	booking.Status = domain.BookingStatusConfirmed
	if err := insertBooking(ctx, tx, booking, domain.ErrSeatTaken); err != nil {
		return err
	}
	return tx.Commit()
}

func insertBooking(ctx context.Context, tx *sqlx.Tx, b *domain.Booking, seatTaken error) error {
	err := tx.QueryRowxContext(ctx, `INSERT INTO bookings
		(booking_reference, user_id, flight_id, passenger_name, passenger_email, passport_number,
		 seat_class, seat_number, booking_status, total_price)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, booking_date, created_at, updated_at`,
		b.BookingReference, b.UserID, b.FlightID, b.PassengerName, b.PassengerEmail, b.PassportNumber,
		b.SeatClass, b.SeatNumber, b.Status, b.TotalPrice,
	).Scan(&b.ID, &b.BookingDate, &b.CreatedAt, &b.UpdatedAt)
	if err == nil {
		return nil
	}
	switch c, _ := uniqueConstraint(err); c {
	case constraintConfirmedSeat:
		return seatTaken
	case constraintReference:
		return ErrDuplicateReference
	}
	return fmt.Errorf("insert booking: %w", err)
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	var b domain.Booking
	if err := r.db.GetContext(ctx, &b, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id); err != nil {
		return nil, notFound(err, domain.ErrBookingNotFound)
	}
	return &b, nil
}

func (r *PGBookingRepository) GetByReference(ctx context.Context, reference string) (*domain.Booking, error) {
	var b domain.Booking
	if err := r.db.GetContext(ctx, &b, `SELECT `+bookingColumns+` FROM bookings WHERE booking_reference = $1`, reference); err != nil {
		return nil, notFound(err, domain.ErrBookingNotFound)
	}
	return &b, nil
}

func (r *PGBookingRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Booking, error) {
	bookings := make([]domain.Booking, 0)
	err := r.db.SelectContext(ctx, &bookings, `SELECT `+bookingColumns+` FROM bookings WHERE user_id = $1 ORDER BY booking_date DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return bookings, nil
}

// ListTrips joins the user's bookings in the given statuses with their flights.
func (r *PGBookingRepository) ListTrips(ctx context.Context, userID int64, statuses ...domain.BookingStatus) ([]domain.Trip, error) {
	trips := make([]domain.Trip, 0)
	if len(statuses) == 0 {
		return trips, nil
	}
	query, args, err := sqlx.In(`SELECT b.id AS booking_id, b.booking_reference, f.flight_number,
		f.departure_airport, f.arrival_airport, f.departure_time, f.arrival_time,
		b.booking_date, b.seat_class, b.total_price, b.booking_status
		FROM bookings b JOIN flights f ON f.id = b.flight_id
		WHERE b.user_id = ? AND b.booking_status IN (?)
		ORDER BY b.booking_date DESC`, userID, statuses)
	if err != nil {
		return nil, fmt.Errorf("build trips query: %w", err)
	}
	if err := r.db.SelectContext(ctx, &trips, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list trips: %w", err)
	}
	return trips, nil
}

// SeatTaken reports whether a confirmed booking other than excludeID holds the seat.
func (r *PGBookingRepository) SeatTaken(ctx context.Context, flightID int64, seat string, excludeID int64) (bool, error) {
	var taken bool
	err := r.db.GetContext(ctx, &taken, `SELECT EXISTS (
		SELECT 1 FROM bookings WHERE flight_id = $1 AND seat_number = $2 AND booking_status = $3 AND id <> $4)`,
		flightID, seat, domain.BookingStatusConfirmed, excludeID)
	if err != nil {
		return false, fmt.Errorf("check seat: %w", err)
	}
	return taken, nil
}

var updatableColumns = map[string]bool{
	"passenger_name":  true,
	"passenger_email": true,
	"passport_number": true,
	"seat_number":     true,
}

// Update writes the given columns of a confirmed booking.
func (r *PGBookingRepository) Update(ctx context.Context, booking *domain.Booking, columns []string) error {
	if len(columns) == 0 {
		return domain.ErrEmptyPatch
	}
	values := map[string]interface{}{
		"passenger_name":  booking.PassengerName,
		"passenger_email": booking.PassengerEmail,
		"passport_number": booking.PassportNumber,
		"seat_number":     booking.SeatNumber,
	}

	sets := make([]string, 0, len(columns))
	args := make([]interface{}, 0, len(columns)+2)
	for _, col := range columns {
		if !updatableColumns[col] {
			return fmt.Errorf("column %q is not updatable", col)
		}
		args = append(args, values[col])
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	args = append(args, booking.ID, domain.BookingStatusConfirmed)

	query := fmt.Sprintf(`UPDATE bookings SET %s, updated_at = now() WHERE id = $%d AND booking_status = $%d RETURNING updated_at`,
		strings.Join(sets, ", "), len(args)-1, len(args))
	err := r.db.QueryRowxContext(ctx, query, args...).Scan(&booking.UpdatedAt)
	if err == nil {
		return nil
	}
	if c, ok := uniqueConstraint(err); ok && c == constraintConfirmedSeat {
		return domain.ErrSeatTaken
	}
	return notFound(err, domain.ErrBookingChanged)
}

// Cancel marks a confirmed booking cancelled and gives the seat back.
func (r *PGBookingRepository) Cancel(ctx context.Context, booking *domain.Booking) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer rollback(tx)

	if err := setStatus(ctx, tx, booking, domain.BookingStatusCancelled); err != nil {
		return err
	}
	if err := releaseSeat(ctx, tx, booking.FlightID, booking.SeatClass); err != nil {
		return err
	}
	return tx.Commit()
}

// Reschedule cancels the original and books the replacement atomically.
func (r *PGBookingRepository) Reschedule(ctx context.Context, original, replacement *domain.Booking) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer rollback(tx)

	if err := setStatus(ctx, tx, original, domain.BookingStatusCancelled); err != nil {
		return err
	}
	if err := releaseSeat(ctx, tx, original.FlightID, original.SeatClass); err != nil {
		return err
	}

	ok, err := takeSeat(ctx, tx, replacement.FlightID, replacement.SeatClass)
	if err != nil {
		return err
	}
	if !ok {
		return domain.NoSeatsError(replacement.SeatClass, true)
	}

	replacement.Status = domain.BookingStatusConfirmed
	if err := insertBooking(ctx, tx, replacement, domain.ErrSeatTakenNew); err != nil {
		return err
	}
	return tx.Commit()
}

// CheckIn moves the booking to checked_in and applies the loyalty award to
// the user and account rows locked in the same transaction. Rows are locked
// in booking, user, account order.
func (r *PGBookingRepository) CheckIn(ctx context.Context, booking *domain.Booking, apply CheckInApply) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer rollback(tx)

	if err := setStatus(ctx, tx, booking, domain.BookingStatusCheckedIn); err != nil {
		return err
	}
	user, err := lockUser(ctx, tx, booking.UserID)
	if err != nil {
		return err
	}
	acc, err := lockAccount(ctx, tx, booking.UserID)
	if err != nil {
		return err
	}

	credited, err := apply(user, acc)
	if err != nil {
		return err
	}
	if err := updateUserLoyalty(ctx, tx, user); err != nil {
		return err
	}
	if credited {
		if err := saveLoyalty(ctx, tx, acc); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// setStatus moves a confirmed booking to status. Zero rows means someone else got there first.
func setStatus(ctx context.Context, tx *sqlx.Tx, b *domain.Booking, status domain.BookingStatus) error {
	res, err := tx.ExecContext(ctx, `UPDATE bookings SET booking_status = $1, updated_at = now()
		WHERE id = $2 AND booking_status = $3`, status, b.ID, domain.BookingStatusConfirmed)
	if err != nil {
		return fmt.Errorf("update booking status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrBookingChanged
	}
	b.Status = status
	return nil
}

var _ BookingRepository = (*PGBookingRepository)(nil)
