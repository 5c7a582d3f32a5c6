package domain

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCheckedIn BookingStatus = "checked_in"
)

type SeatClass string

const (
	SeatClassEconomy  SeatClass = "economy"
	SeatClassBusiness SeatClass = "business"
)

// seatClassFalconGold is the marketing name of the business cabin.
const seatClassFalconGold = "falcon_gold"

// ParseSeatClass normalises a client supplied class name.
func ParseSeatClass(s string) (SeatClass, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(SeatClassEconomy):
		return SeatClassEconomy, nil
	case string(SeatClassBusiness), seatClassFalconGold:
		return SeatClassBusiness, nil
	default:
		return "", ErrInvalidSeatClass
	}
}

// Premium reports whether the class earns premium cabin bonuses.
func (c SeatClass) Premium() bool {
	return c == SeatClassBusiness
}

type Booking struct {
	ID               int64         `db:"id"`
	BookingReference string        `db:"booking_reference"`
	UserID           int64         `db:"user_id"`
	FlightID         int64         `db:"flight_id"`
	PassengerName    string        `db:"passenger_name"`
	PassengerEmail   string        `db:"passenger_email"`
	PassportNumber   string        `db:"passport_number"`
	SeatClass        SeatClass     `db:"seat_class"`
	SeatNumber       string        `db:"seat_number"`
	Status           BookingStatus `db:"booking_status"`
	TotalPrice       float64       `db:"total_price"`
	BookingDate      time.Time     `db:"booking_date"`
	CreatedAt        time.Time     `db:"created_at"`
	UpdatedAt        time.Time     `db:"updated_at"`
}

// Optional holds a value together with whether the client sent it at all.
type Optional[T any] struct {
	Value T
	Set   bool
}

func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Set: true}
}

// UnmarshalJSON marks the field as present. An explicit null is treated as absent.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(data, &o.Value); err != nil {
		return err
	}
	o.Set = true
	return nil
}

// BookingPatch is a partial update of the passenger facing booking fields.
// Status and seat class are changed only through cancel, reschedule and
// check-in because they move seat counters.
type BookingPatch struct {
	PassengerName  Optional[string]
	PassengerEmail Optional[string]
	PassportNumber Optional[string]
	SeatNumber     Optional[string]
}

func (p BookingPatch) Empty() bool {
	return !p.PassengerName.Set && !p.PassengerEmail.Set && !p.PassportNumber.Set && !p.SeatNumber.Set
}

// Apply merges the present fields into b and returns the touched column names.
func (p BookingPatch) Apply(b *Booking) []string {
	var touched []string
	if p.PassengerName.Set {
		b.PassengerName = p.PassengerName.Value
		touched = append(touched, "passenger_name")
	}
	if p.PassengerEmail.Set {
		b.PassengerEmail = p.PassengerEmail.Value
		touched = append(touched, "passenger_email")
	}
	if p.PassportNumber.Set {
		b.PassportNumber = p.PassportNumber.Value
		touched = append(touched, "passport_number")
	}
	if p.SeatNumber.Set {
		b.SeatNumber = p.SeatNumber.Value
		touched = append(touched, "seat_number")
	}
	return touched
}

// Trip is a booking joined with the flight it is on.
type Trip struct {
	BookingID        int64         `db:"booking_id"`
	BookingReference string        `db:"booking_reference"`
	FlightNumber     string        `db:"flight_number"`
	DepartureAirport string        `db:"departure_airport"`
	ArrivalAirport   string        `db:"arrival_airport"`
	DepartureTime    time.Time     `db:"departure_time"`
	ArrivalTime      time.Time     `db:"arrival_time"`
	BookingDate      time.Time     `db:"booking_date"`
	SeatClass        SeatClass     `db:"seat_class"`
	TotalPrice       float64       `db:"total_price"`
	Status           BookingStatus `db:"booking_status"`
}
