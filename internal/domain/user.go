package domain

import (
	"database/sql"
	"strings"
	"time"
)

type User struct {
	ID               int64          `db:"id"`
	Username         string         `db:"username"`
	Email            string         `db:"email"`
	PasswordHash     string         `db:"password_hash"`
	FirstName        string         `db:"first_name"`
	LastName         string         `db:"last_name"`
	PhoneNumber      string         `db:"phone_number"`
	LoyaltyMiles     int            `db:"loyalty_miles"`
	LoyaltyPoints    int            `db:"loyalty_points"`
	LoyaltyTier      string         `db:"loyalty_tier"`
	MembershipNumber sql.NullString `db:"membership_number"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`
}

// IdentifierKind tells which column a login identifier is matched against.
type IdentifierKind int

const (
	IdentifierUsername IdentifierKind = iota + 1
	IdentifierEmail
	IdentifierMembershipNumber
)

func (k IdentifierKind) String() string {
	switch k {
	case IdentifierUsername:
		return "username"
	case IdentifierEmail:
		return "email"
	case IdentifierMembershipNumber:
		return "falcon_flyer_number"
	default:
		return "unknown"
	}
}

type LoginIdentifier struct {
	Kind  IdentifierKind
	Value string
}

// NewLoginIdentifier accepts exactly one non-empty identifier.
func NewLoginIdentifier(username, email, membershipNumber string) (LoginIdentifier, error) {
	var found []LoginIdentifier
	if v := strings.TrimSpace(username); v != "" {
		found = append(found, LoginIdentifier{Kind: IdentifierUsername, Value: v})
	}
	if v := strings.TrimSpace(email); v != "" {
		found = append(found, LoginIdentifier{Kind: IdentifierEmail, Value: strings.ToLower(v)})
	}
	if v := strings.TrimSpace(membershipNumber); v != "" {
		found = append(found, LoginIdentifier{Kind: IdentifierMembershipNumber, Value: strings.ToUpper(v)})
	}
	if len(found) != 1 {
		return LoginIdentifier{}, ErrInvalidLoginIdentifier
	}
	return found[0], nil
}
