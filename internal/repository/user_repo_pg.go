package repository

import (
	"context"
	"fmt"

	"github.com/Domenick1991/gulfair/internal/domain"
	"github.com/jmoiron/sqlx"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByIdentifier(ctx context.Context, id domain.LoginIdentifier) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Exists(ctx context.Context, username, email string) (bool, error)
}

const userColumns = `id, username, email, password_hash, first_name, last_name, phone_number,
	loyalty_miles, loyalty_points, loyalty_tier, membership_number, created_at, updated_at`

type PGUserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &PGUserRepository{db: db}
}

func (r *PGUserRepository) Create(ctx context.Context, user *domain.User) error {
	err := r.db.QueryRowxContext(ctx, `INSERT INTO users
		(username, email, password_hash, first_name, last_name, phone_number, loyalty_tier)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, loyalty_miles, loyalty_points, created_at, updated_at`,
		user.Username, user.Email, user.PasswordHash, user.FirstName, user.LastName, user.PhoneNumber, user.LoyaltyTier,
	).Scan(&user.ID, &user.LoyaltyMiles, &user.LoyaltyPoints, &user.CreatedAt, &user.UpdatedAt)
	if err == nil {
		return nil
	}
	switch c, _ := uniqueConstraint(err); c {
	case constraintUsername, constraintEmail:
		return domain.ErrUserExists
	}
	return fmt.Errorf("insert user: %w", err)
}

func (r *PGUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	var u domain.User
	if err := r.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE id = $1`, id); err != nil {
		return nil, notFound(err, domain.ErrUserNotFound)
	}
	return &u, nil
}

var identifierColumns = map[domain.IdentifierKind]string{
	domain.IdentifierUsername:         "username",
	domain.IdentifierEmail:            "LOWER(email)",
	domain.IdentifierMembershipNumber: "membership_number",
}

// GetByIdentifier resolves a login identifier against the column of its kind.
func (r *PGUserRepository) GetByIdentifier(ctx context.Context, id domain.LoginIdentifier) (*domain.User, error) {
	col, ok := identifierColumns[id.Kind]
	if !ok {
		return nil, domain.ErrInvalidLoginIdentifier
	}
	var u domain.User
	if err := r.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE `+col+` = $1`, id.Value); err != nil {
		return nil, notFound(err, domain.ErrUserNotFound)
	}
	return &u, nil
}

func (r *PGUserRepository) List(ctx context.Context) ([]domain.User, error) {
	users := make([]domain.User, 0)
	if err := r.db.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM users ORDER BY id`); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (r *PGUserRepository) Exists(ctx context.Context, username, email string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1 OR LOWER(email) = LOWER($2))`, username, email)
	if err != nil {
		return false, fmt.Errorf("check user exists: %w", err)
	}
	return exists, nil
}

// lockUser reads the user row and holds it until tx ends.
func lockUser(ctx context.Context, tx *sqlx.Tx, id int64) (*domain.User, error) {
	var u domain.User
	if err := tx.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id); err != nil {
		return nil, notFound(err, domain.ErrUserNotFound)
	}
	return &u, nil
}

func updateUserLoyalty(ctx context.Context, tx *sqlx.Tx, u *domain.User) error {
	res, err := tx.ExecContext(ctx, `UPDATE users SET loyalty_miles = $1, loyalty_points = $2, loyalty_tier = $3, updated_at = now()
		WHERE id = $4`, u.LoyaltyMiles, u.LoyaltyPoints, u.LoyaltyTier, u.ID)
	if err != nil {
		return fmt.Errorf("update user loyalty: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

var _ UserRepository = (*PGUserRepository)(nil)
