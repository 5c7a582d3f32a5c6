package domain

import "time"

type FlightStatus string

const (
	FlightStatusScheduled FlightStatus = "scheduled"
	FlightStatusDelayed   FlightStatus = "delayed"
	FlightStatusCancelled FlightStatus = "cancelled"
	FlightStatusCompleted FlightStatus = "completed"
)

type Flight struct {
	ID                     int64        `db:"id" json:"id"`
	FlightNumber           string       `db:"flight_number" json:"flight_number"`
	DepartureAirport       string       `db:"departure_airport" json:"departure_airport"`
	ArrivalAirport         string       `db:"arrival_airport" json:"arrival_airport"`
	DepartureTime          time.Time    `db:"departure_time" json:"departure_time"`
	ArrivalTime            time.Time    `db:"arrival_time" json:"arrival_time"`
	AircraftID             int64        `db:"aircraft_id" json:"aircraft_id"`
	EconomyPrice           float64      `db:"economy_price" json:"economy_price"`
	BusinessPrice          float64      `db:"business_price" json:"business_price"`
	AvailableEconomySeats  int          `db:"available_economy_seats" json:"available_economy_seats"`
	AvailableBusinessSeats int          `db:"available_business_seats" json:"available_business_seats"`
	Status                 FlightStatus `db:"status" json:"status"`
	CreatedAt              time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt              time.Time    `db:"updated_at" json:"updated_at"`
}

// AvailableSeats returns the remaining seat counter for the given class.
func (f *Flight) AvailableSeats(class SeatClass) int {
	if class == SeatClassBusiness {
		return f.AvailableBusinessSeats
	}
	return f.AvailableEconomySeats
}

// Duration is the scheduled block time of the flight.
func (f *Flight) Duration() time.Duration {
	return f.ArrivalTime.Sub(f.DepartureTime)
}

type FlightStatusInfo struct {
	FlightNumber     string       `json:"flight_number"`
	Status           FlightStatus `json:"status"`
	DepartureAirport string       `json:"departure_airport"`
	ArrivalAirport   string       `json:"arrival_airport"`
	DepartureTime    time.Time    `json:"departure_time"`
	ArrivalTime      time.Time    `json:"arrival_time"`
}
