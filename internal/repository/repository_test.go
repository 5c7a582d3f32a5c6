package repository

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Domenick1991/gulfair/internal/domain"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "pgx"), mock
}

var testTime = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

var flightRowColumns = []string{
	"id", "flight_number", "departure_airport", "arrival_airport", "departure_time", "arrival_time",
	"aircraft_id", "economy_price", "business_price", "available_economy_seats", "available_business_seats",
	"status", "created_at", "updated_at",
}

func flightRows(flights ...domain.Flight) *sqlmock.Rows {
	rows := sqlmock.NewRows(flightRowColumns)
	for _, f := range flights {
		rows.AddRow(f.ID, f.FlightNumber, f.DepartureAirport, f.ArrivalAirport, f.DepartureTime, f.ArrivalTime,
			f.AircraftID, f.EconomyPrice, f.BusinessPrice, f.AvailableEconomySeats, f.AvailableBusinessSeats,
			string(f.Status), f.CreatedAt, f.UpdatedAt)
	}
	return rows
}

var bookingRowColumns = []string{
	"id", "booking_reference", "user_id", "flight_id", "passenger_name", "passenger_email",
	"passport_number", "seat_class", "seat_number", "booking_status", "total_price", "booking_date",
	"created_at", "updated_at",
}

func bookingRows(bookings ...domain.Booking) *sqlmock.Rows {
	rows := sqlmock.NewRows(bookingRowColumns)
	for _, b := range bookings {
		rows.AddRow(b.ID, b.BookingReference, b.UserID, b.FlightID, b.PassengerName, b.PassengerEmail,
			b.PassportNumber, string(b.SeatClass), b.SeatNumber, string(b.Status), b.TotalPrice, b.BookingDate,
			b.CreatedAt, b.UpdatedAt)
	}
	return rows
}

var userRowColumns = []string{
	"id", "username", "email", "password_hash", "first_name", "last_name", "phone_number",
	"loyalty_miles", "loyalty_points", "loyalty_tier", "membership_number", "created_at", "updated_at",
}
