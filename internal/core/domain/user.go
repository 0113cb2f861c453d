package domain

import (
	"errors"
	"time"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
	RoleGuest = "guest"
)

const (
	UserStatusActive   = "Active"
	UserStatusInactive = "Inactive"
)

// DefaultMembership is assigned to every new account.
const DefaultMembership = "Standard"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrDuplicateEmail     = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("access denied: insufficient permissions")
	ErrTooManyAttempts    = errors.New("too many login attempts, try again later")
)

// User models an account. PasswordHash never leaves the process.
type User struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	PasswordHash   string    `json:"-"`
	Role           string    `json:"role"`
	Status         string    `json:"status"`
	PhotoURL       string    `json:"photoUrl,omitempty"`
	Bio            string    `json:"bio"`
	Address        string    `json:"address"`
	MembershipType string    `json:"membershipType"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// HasRole reports whether u satisfies any of the required roles. An empty
// requirement is always satisfied and admins satisfy every requirement.
func HasRole(u *User, required ...string) bool {
	if len(required) == 0 {
		return true
	}
	if u == nil {
		return false
	}
	if u.Role == RoleAdmin {
		return true
	}
	for _, r := range required {
		if u.Role == r {
			return true
		}
	}
	return false
}

// ValidUserStatus reports whether s is an accepted account status.
func ValidUserStatus(s string) bool {
	return s == UserStatusActive || s == UserStatusInactive
}
