package models

import "time"

type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusInactive UserStatus = "inactive"
)

// Principal is a stored account record. PasswordHash is nil for
// federation-only accounts, which carry no local credential at all.
type Principal struct {
	ID             string
	Email          string
	PasswordHash   []byte
	Username       string
	Phone          string
	SecurityAnswer string
	Role           Role
	Status         UserStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// HasLocalCredential reports whether the principal can log in with a
// password at all.
func (p Principal) HasLocalCredential() bool {
	return len(p.PasswordHash) > 0
}

// RecoveryCode is a short-lived one-time passcode bound to an email. At most
// one live record exists per email; issuing a new code replaces the old one.
type RecoveryCode struct {
	Email     string
	Code      string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the code is no longer usable at the given instant.
// Validity is strict: a code whose expiry equals now is already expired.
func (c RecoveryCode) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}
