package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Domenick1991/gulfair/config"
	"github.com/Domenick1991/gulfair/internal/domain"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
)

const uniqueViolation = "23505"

// Constraint names as created by the migrations.
const (
	constraintUsername         = "users_username_key"
	constraintEmail            = "users_email_key"
	constraintMembershipNumber = "users_membership_number_key"
	constraintReference        = "bookings_booking_reference_key"
	constraintConfirmedSeat    = "bookings_confirmed_seat_uidx"
)

var (
	// ErrDuplicateReference means a freshly generated booking reference collided.
	ErrDuplicateReference = errors.New("booking reference already exists")
	// ErrDuplicateMembershipNumber means a generated membership number collided.
	ErrDuplicateMembershipNumber = errors.New("membership number already exists")
)

// NewPool opens the pgx pool and checks connectivity.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

// NewDB exposes the pool through database/sql for sqlx and goose.
func NewDB(pool *pgxpool.Pool) *sqlx.DB {
	return sqlx.NewDb(stdlib.OpenDBFromPool(pool), "pgx")
}

func uniqueConstraint(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return pgErr.ConstraintName, true
	}
	return "", false
}

func notFound(err error, sentinel error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel
	}
	return err
}

func rollback(tx *sqlx.Tx) {
	_ = tx.Rollback()
}

// seatColumn maps a cabin to its seat counter column.
func seatColumn(class domain.SeatClass) string {
	if class == domain.SeatClassBusiness {
		return "available_business_seats"
	}
	return "available_economy_seats"
}

// takeSeat decrements the counter only while it is positive.
func takeSeat(ctx context.Context, tx *sqlx.Tx, flightID int64, class domain.SeatClass) (bool, error) {
	col := seatColumn(class)
	res, err := tx.ExecContext(ctx, fmt.Sprintf(
		`UPDATE flights SET %[1]s = %[1]s - 1, updated_at = now() WHERE id = $1 AND %[1]s > 0`, col), flightID)
	if err != nil {
		return false, fmt.Errorf("take seat: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func releaseSeat(ctx context.Context, tx *sqlx.Tx, flightID int64, class domain.SeatClass) error {
	col := seatColumn(class)
	res, err := tx.ExecContext(ctx, fmt.Sprintf(
		`UPDATE flights SET %[1]s = %[1]s + 1, updated_at = now() WHERE id = $1`, col), flightID)
	if err != nil {
		return fmt.Errorf("release seat: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrFlightNotFound
	}
	return nil
}
