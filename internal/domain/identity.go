package domain

// Identity is the authenticated caller resolved by the auth middleware.
type Identity struct {
	UserID string
	Email  string
}
