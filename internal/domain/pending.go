package domain

import "time"

// PendingRegistration is an unconfirmed signup held in process memory until
// its code is verified or it expires. It is never persisted.
type PendingRegistration struct {
	ID        string
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
	OTP       string
	ExpiresAt time.Time
}

// Expired reports whether the entry's code is no longer usable at now.
func (p *PendingRegistration) Expired(now time.Time) bool {
	return !now.Before(p.ExpiresAt)
}
