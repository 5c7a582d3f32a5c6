package repository

import (
	"context"
	"fmt"

	"github.com/Domenick1991/gulfair/internal/domain"
	"github.com/jmoiron/sqlx"
)

type LoyaltyRepository interface {
	GetOrCreate(ctx context.Context, userID int64) (*domain.Loyalty, error)
	// Update runs fn on the account locked for the transaction and stores it
	// when fn reports a change.
	Update(ctx context.Context, userID int64, fn func(acc *domain.Loyalty) (bool, error)) error
	// Enroll runs activate on the locked account, then stores it together with
	// the membership number.
	Enroll(ctx context.Context, userID int64, membershipNumber string, activate func(acc *domain.Loyalty) error) (*domain.Loyalty, error)
}

const loyaltyColumns = `id, user_id, membership_status, membership_enrolled_date, current_tier, total_points,
	available_points, tier_achieved_date, tier_expiry_date, points_earned_this_period, created_at, updated_at`

type PGLoyaltyRepository struct {
	db *sqlx.DB
}

func NewLoyaltyRepository(db *sqlx.DB) LoyaltyRepository {
	return &PGLoyaltyRepository{db: db}
}

// GetOrCreate returns the account, opening an inactive Blue one on first access.
func (r *PGLoyaltyRepository) GetOrCreate(ctx context.Context, userID int64) (*domain.Loyalty, error) {
	if err := openAccount(ctx, r.db, userID); err != nil {
		return nil, err
	}

	var acc domain.Loyalty
	if err := r.db.GetContext(ctx, &acc, `SELECT `+loyaltyColumns+` FROM loyalty WHERE user_id = $1`, userID); err != nil {
		return nil, fmt.Errorf("get loyalty account: %w", err)
	}
	return &acc, nil
}

func (r *PGLoyaltyRepository) Update(ctx context.Context, userID int64, fn func(acc *domain.Loyalty) (bool, error)) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer rollback(tx)

	acc, err := lockAccount(ctx, tx, userID)
	if err != nil {
		return err
	}
	changed, err := fn(acc)
	if err != nil || !changed {
		return err
	}
	if err := saveLoyalty(ctx, tx, acc); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *PGLoyaltyRepository) Enroll(ctx context.Context, userID int64, membershipNumber string, activate func(acc *domain.Loyalty) error) (*domain.Loyalty, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer rollback(tx)

	// same user, account order as check-in
	if _, err := lockUser(ctx, tx, userID); err != nil {
		return nil, err
	}
	acc, err := lockAccount(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	if err := activate(acc); err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `UPDATE users SET membership_number = $1, updated_at = now() WHERE id = $2`, membershipNumber, userID)
	if err != nil {
		if c, ok := uniqueConstraint(err); ok && c == constraintMembershipNumber {
			return nil, ErrDuplicateMembershipNumber
		}
		return nil, fmt.Errorf("set membership number: %w", err)
	}
	if err := saveLoyalty(ctx, tx, acc); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit enrollment: %w", err)
	}
	return acc, nil
}

func openAccount(ctx context.Context, db sqlx.ExecerContext, userID int64) error {
	_, err := db.ExecContext(ctx, `INSERT INTO loyalty (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`, userID)
	if err != nil {
		return fmt.Errorf("create loyalty account: %w", err)
	}
	return nil
}

// lockAccount opens the account if needed and holds its row until tx ends.
func lockAccount(ctx context.Context, tx *sqlx.Tx, userID int64) (*domain.Loyalty, error) {
	if err := openAccount(ctx, tx, userID); err != nil {
		return nil, err
	}
	var acc domain.Loyalty
	if err := tx.GetContext(ctx, &acc, `SELECT `+loyaltyColumns+` FROM loyalty WHERE user_id = $1 FOR UPDATE`, userID); err != nil {
		return nil, fmt.Errorf("lock loyalty account: %w", err)
	}
	return &acc, nil
}

func saveLoyalty(ctx context.Context, db sqlx.ExecerContext, acc *domain.Loyalty) error {
	_, err := db.ExecContext(ctx, `UPDATE loyalty SET membership_status = $1, membership_enrolled_date = $2,
		current_tier = $3, total_points = $4, available_points = $5, tier_achieved_date = $6,
		tier_expiry_date = $7, points_earned_this_period = $8, updated_at = now()
		WHERE user_id = $9`,
		acc.MembershipStatus, acc.MembershipEnrolledDate, acc.CurrentTier, acc.TotalPoints, acc.AvailablePoints,
		acc.TierAchievedDate, acc.TierExpiryDate, acc.PointsEarnedThisPeriod, acc.UserID)
	if err != nil {
		return fmt.Errorf("save loyalty account: %w", err)
	}
	return nil
}

var _ LoyaltyRepository = (*PGLoyaltyRepository)(nil)
