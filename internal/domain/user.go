package domain

import (
	"context"
	"errors"
)

// User is the authenticated caller, as asserted by a verified token.
type User struct {
	ID         string
	Role       Role
	CustomerID string // set for customer users
}

// Role represents a user's access level
type Role string

const (
	// RoleAdmin reviews applications and manages loan status
	RoleAdmin Role = "admin"

	// RoleCustomer applies for and repays their own loans
	RoleCustomer Role = "customer"
)

// IsValid checks if the role is a valid role
func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleCustomer
}

// CanAccessCustomer reports whether the user may act on customerID's loans.
func (u *User) CanAccessCustomer(customerID string) bool {
	if u.Role == RoleAdmin {
		return true
	}
	return u.Role == RoleCustomer && u.CustomerID != "" && u.CustomerID == customerID
}

// Authentication errors
var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInsufficientRole = errors.New("insufficient role for this operation")
)

type userContextKey struct{}

// ContextWithUser attaches an authenticated user to ctx.
func ContextWithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFromContext returns the authenticated user, if any.
func UserFromContext(ctx context.Context) (*User, bool) {
	user, ok := ctx.Value(userContextKey{}).(*User)
	return user, ok
}
