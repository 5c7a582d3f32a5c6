package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Domenick1991/gulfair/internal/domain"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBooking() *domain.Booking {
	return &domain.Booking{
		BookingReference: "GA1A2B3C4D",
		UserID:           7,
		FlightID:         1,
		PassengerName:    "Fatima Ali",
		PassengerEmail:   "fatima@example.com",
		PassportNumber:   "BH1234567",
		SeatClass:        domain.SeatClassEconomy,
		SeatNumber:       "12A",
		TotalPrice:       120,
	}
}

func expectInsertBooking(mock sqlmock.Sqlmock) *sqlmock.ExpectedQuery {
	return mock.ExpectQuery(`INSERT INTO bookings`)
}

func TestBookingRepository_Create(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewBookingRepository(db)
		b := newBooking()

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE flights SET available_economy_seats = available_economy_seats - 1`).
			WithArgs(int64(1)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		expectInsertBooking(mock).
			WithArgs("GA1A2B3C4D", int64(7), int64(1), "Fatima Ali", "fatima@example.com", "BH1234567",
				"economy", "12A", "confirmed", 120.0).
			WillReturnRows(sqlmock.NewRows([]string{"id", "booking_date", "created_at", "updated_at"}).
				AddRow(int64(11), testTime, testTime, testTime))
		mock.ExpectCommit()

		require.NoError(t, repo.Create(context.Background(), b))
		assert.Equal(t, int64(11), b.ID)
		assert.Equal(t, domain.BookingStatusConfirmed, b.Status)
		assert.Equal(t, testTime, b.BookingDate)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("No Seats Left", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewBookingRepository(db)
		b := newBooking()
		b.SeatClass = domain.SeatClassBusiness

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE flights SET available_business_seats = available_business_seats - 1`).
			WithArgs(int64(1)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := repo.Create(context.Background(), b)
		assert.ErrorIs(t, err, domain.ErrNoBusinessSeats)
		assert.Zero(t, b.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Seat Taken", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewBookingRepository(db)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE flights SET available_economy_seats`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		expectInsertBooking(mock).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "bookings_confirmed_seat_uidx"})
		mock.ExpectRollback()

		err := repo.Create(context.Background(), newBooking())
		assert.ErrorIs(t, err, domain.ErrSeatTaken)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Reference Collision", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewBookingRepository(db)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE flights SET available_economy_seats`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		expectInsertBooking(mock).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "bookings_booking_reference_key"})
		mock.ExpectRollback()

		err := repo.Create(context.Background(), newBooking())
		assert.ErrorIs(t, err, ErrDuplicateReference)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestBookingRepository_GetByReference(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookingRepository(db)
	b := newBooking()
	b.ID = 3
	b.Status = domain.BookingStatusConfirmed

	mock.ExpectQuery(`FROM bookings WHERE booking_reference = `).
		WithArgs("GA1A2B3C4D").
		WillReturnRows(bookingRows(*b))

	got, err := repo.GetByReference(context.Background(), "GA1A2B3C4D")
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.ID)
	assert.Equal(t, domain.SeatClassEconomy, got.SeatClass)

	mock.ExpectQuery(`FROM bookings WHERE booking_reference = `).
		WithArgs("GAMISSING").
		WillReturnError(sql.ErrNoRows)

	_, err = repo.GetByReference(context.Background(), "GAMISSING")
	assert.ErrorIs(t, err, domain.ErrBookingNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepository_ListTrips(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookingRepository(db)

	mock.ExpectQuery(`FROM bookings b JOIN flights f ON f.id = b.flight_id`).
		WithArgs(int64(7), "confirmed", "checked_in").
		WillReturnRows(sqlmock.NewRows([]string{
			"booking_id", "booking_reference", "flight_number", "departure_airport", "arrival_airport",
			"departure_time", "arrival_time", "booking_date", "seat_class", "total_price", "booking_status",
		}).AddRow(int64(3), "GA1A2B3C4D", "GF500", "BAH", "DXB", testTime, testTime, testTime, "business", 300.0, "checked_in"))

	trips, err := repo.ListTrips(context.Background(), 7, domain.BookingStatusConfirmed, domain.BookingStatusCheckedIn)
	require.NoError(t, err)
	require.Len(t, trips, 1)
	assert.Equal(t, "GF500", trips[0].FlightNumber)
	assert.Equal(t, domain.BookingStatusCheckedIn, trips[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepository_SeatTaken(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookingRepository(db)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(int64(1), "12A", "confirmed", int64(0)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	taken, err := repo.SeatTaken(context.Background(), 1, "12A", 0)
	require.NoError(t, err)
	assert.True(t, taken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepository_Update(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookingRepository(db)
	b := newBooking()
	b.ID = 3
	b.PassengerName = "Fatima A. Ali"
	b.SeatNumber = "14C"

	mock.ExpectQuery(`UPDATE bookings SET passenger_name = \$1, seat_number = \$2, updated_at = now\(\) WHERE id = \$3 AND booking_status = \$4`).
		WithArgs("Fatima A. Ali", "14C", int64(3), "confirmed").
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(testTime))

	require.NoError(t, repo.Update(context.Background(), b, []string{"passenger_name", "seat_number"}))
	assert.Equal(t, testTime, b.UpdatedAt)

	assert.ErrorIs(t, repo.Update(context.Background(), b, nil), domain.ErrEmptyPatch)
	assert.Error(t, repo.Update(context.Background(), b, []string{"booking_status"}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepository_Cancel(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewBookingRepository(db)
		b := newBooking()
		b.ID = 3
		b.Status = domain.BookingStatusConfirmed

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE bookings SET booking_status`).
			WithArgs("cancelled", int64(3), "confirmed").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE flights SET available_economy_seats = available_economy_seats \+ 1`).
			WithArgs(int64(1)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, repo.Cancel(context.Background(), b))
		assert.Equal(t, domain.BookingStatusCancelled, b.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Concurrent Change", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewBookingRepository(db)
		b := newBooking()
		b.ID = 3

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE bookings SET booking_status`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		assert.ErrorIs(t, repo.Cancel(context.Background(), b), domain.ErrBookingChanged)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestBookingRepository_Reschedule(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewBookingRepository(db)
		original := newBooking()
		original.ID = 3
		replacement := newBooking()
		replacement.FlightID = 2
		replacement.BookingReference = "GAFFFF0000"

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE bookings SET booking_status`).
			WithArgs("cancelled", int64(3), "confirmed").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE flights SET available_economy_seats = available_economy_seats \+ 1`).
			WithArgs(int64(1)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE flights SET available_economy_seats = available_economy_seats - 1`).
			WithArgs(int64(2)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		expectInsertBooking(mock).
			WillReturnRows(sqlmock.NewRows([]string{"id", "booking_date", "created_at", "updated_at"}).
				AddRow(int64(12), testTime, testTime, testTime))
		mock.ExpectCommit()

		require.NoError(t, repo.Reschedule(context.Background(), original, replacement))
		assert.Equal(t, domain.BookingStatusCancelled, original.Status)
		assert.Equal(t, domain.BookingStatusConfirmed, replacement.Status)
		assert.Equal(t, int64(12), replacement.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Target Full", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewBookingRepository(db)
		original := newBooking()
		original.ID = 3
		replacement := newBooking()
		replacement.FlightID = 2

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE bookings SET booking_status`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`available_economy_seats \+ 1`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`available_economy_seats - 1`).WithArgs(int64(2)).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := repo.Reschedule(context.Background(), original, replacement)
		assert.ErrorIs(t, err, domain.ErrNoEconomySeatsNew)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func expectLockedRows(mock sqlmock.Sqlmock, miles, points int, status string, totalPoints int) {
	mock.ExpectQuery(`FROM users WHERE id = \$1 FOR UPDATE`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(userRowColumns).AddRow(
			int64(7), "fatima", "fatima@example.com", "hash", "Fatima", "Ali", "",
			miles, points, "Blue", nil, testTime, testTime))
	mock.ExpectExec(`INSERT INTO loyalty \(user_id\) VALUES`).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`FROM loyalty WHERE user_id = \$1 FOR UPDATE`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(loyaltyRowColumns).
			AddRow(int64(1), int64(7), status, nil, "Blue", totalPoints, totalPoints, nil, nil, 0, testTime, testTime))
}

func TestBookingRepository_CheckIn(t *testing.T) {
	t.Run("Adds To Locked Balances", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewBookingRepository(db)
		b := newBooking()
		b.ID = 3

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE bookings SET booking_status`).
			WithArgs("checked_in", int64(3), "confirmed").
			WillReturnResult(sqlmock.NewResult(0, 1))
		// другая регистрация уже записала 453/45
		expectLockedRows(mock, 453, 45, "active", 100)
		mock.ExpectExec(`UPDATE users SET loyalty_miles`).
			WithArgs(906, 90, "Blue", int64(7)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE loyalty SET membership_status`).
			WithArgs("active", sqlmock.AnyArg(), "Blue", 250, 250, sqlmock.AnyArg(), sqlmock.AnyArg(), 0, int64(7)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.CheckIn(context.Background(), b, func(user *domain.User, acc *domain.Loyalty) (bool, error) {
			user.LoyaltyMiles += 453
			user.LoyaltyPoints += 45
			acc.TotalPoints += 150
			acc.AvailablePoints += 150
			return true, nil
		})
		require.NoError(t, err)
		assert.Equal(t, domain.BookingStatusCheckedIn, b.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Account Unchanged", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewBookingRepository(db)
		b := newBooking()
		b.ID = 3

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE bookings SET booking_status`).WillReturnResult(sqlmock.NewResult(0, 1))
		expectLockedRows(mock, 0, 0, "inactive", 0)
		mock.ExpectExec(`UPDATE users SET loyalty_miles`).
			WithArgs(453, 45, "Blue", int64(7)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.CheckIn(context.Background(), b, func(user *domain.User, acc *domain.Loyalty) (bool, error) {
			user.LoyaltyMiles += 453
			user.LoyaltyPoints += 45
			return false, nil
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Already Checked In", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewBookingRepository(db)
		b := newBooking()
		b.ID = 3
		called := false

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE bookings SET booking_status`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := repo.CheckIn(context.Background(), b, func(*domain.User, *domain.Loyalty) (bool, error) {
			called = true
			return true, nil
		})
		assert.ErrorIs(t, err, domain.ErrBookingChanged)
		assert.False(t, called)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
