package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Domenick1991/gulfair/internal/domain"
	"github.com/jmoiron/sqlx"
)

type FlightRepository interface {
	List(ctx context.Context) ([]domain.Flight, error)
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
	GetByNumber(ctx context.Context, number string) (*domain.Flight, error)
	Search(ctx context.Context, departure, arrival string) ([]domain.Flight, error)
	CompleteArrived(ctx context.Context, now time.Time) (int64, error)
}

const flightColumns = `id, flight_number, departure_airport, arrival_airport, departure_time, arrival_time,
	aircraft_id, economy_price, business_price, available_economy_seats, available_business_seats,
	status, created_at, updated_at`

type PGFlightRepository struct {
	db *sqlx.DB
}

func NewFlightRepository(db *sqlx.DB) FlightRepository {
	return &PGFlightRepository{db: db}
}

func (r *PGFlightRepository) List(ctx context.Context) ([]domain.Flight, error) {
	flights := make([]domain.Flight, 0)
	if err := r.db.SelectContext(ctx, &flights, `SELECT `+flightColumns+` FROM flights ORDER BY departure_time`); err != nil {
		return nil, fmt.Errorf("list flights: %w", err)
	}
	return flights, nil
}

func (r *PGFlightRepository) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	var f domain.Flight
	if err := r.db.GetContext(ctx, &f, `SELECT `+flightColumns+` FROM flights WHERE id = $1`, id); err != nil {
		return nil, notFound(err, domain.ErrFlightNotFound)
	}
	return &f, nil
}

func (r *PGFlightRepository) GetByNumber(ctx context.Context, number string) (*domain.Flight, error) {
	var f domain.Flight
	if err := r.db.GetContext(ctx, &f, `SELECT `+flightColumns+` FROM flights WHERE UPPER(flight_number) = UPPER($1)`, number); err != nil {
		return nil, notFound(err, domain.ErrFlightNotFound)
	}
	return &f, nil
}

// Search returns scheduled flights on the route. Airport codes match case-insensitively.
func (r *PGFlightRepository) Search(ctx context.Context, departure, arrival string) ([]domain.Flight, error) {
	flights := make([]domain.Flight, 0)
	err := r.db.SelectContext(ctx, &flights, `SELECT `+flightColumns+` FROM flights
		WHERE UPPER(departure_airport) = UPPER($1) AND UPPER(arrival_airport) = UPPER($2) AND status = $3
		ORDER BY departure_time`, departure, arrival, domain.FlightStatusScheduled)
	if err != nil {
		return nil, fmt.Errorf("search flights: %w", err)
	}
	return flights, nil
}

// CompleteArrived marks scheduled and delayed flights that have landed as completed.
func (r *PGFlightRepository) CompleteArrived(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE flights SET status = $1, updated_at = now()
		WHERE status IN ($2, $3) AND arrival_time <= $4`,
		domain.FlightStatusCompleted, domain.FlightStatusScheduled, domain.FlightStatusDelayed, now)
	if err != nil {
		return 0, fmt.Errorf("complete arrived flights: %w", err)
	}
	return res.RowsAffected()
}

var _ FlightRepository = (*PGFlightRepository)(nil)
