package http

import (
	"context"
	"io"
	"time"

	"github.com/cashflow-api/internal/domain"
)

// UserRepository is the credential store the router's services share.
// Both the DynamoDB and PostgreSQL drivers satisfy it.
type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, u *domain.User, fields ...domain.UserField) error
	// ChangeEmail swaps u.Email in for previous, failing with
	// domain.ErrDuplicateEmail when the new address is taken.
	ChangeEmail(ctx context.Context, u *domain.User, previous string) error
}

// SessionRepository is the session store used by login and the session endpoints.
type SessionRepository interface {
	// Upsert refreshes the caller's active session for fp or creates one.
	Upsert(ctx context.Context, userID string, fp domain.Fingerprint, now time.Time) (*domain.Session, error)
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
	ListByUser(ctx context.Context, userID string, since *time.Time) ([]domain.Session, error)
	Deactivate(ctx context.Context, s *domain.Session) error
}

type ActivityRepository interface {
	Create(ctx context.Context, a *domain.Activity) error
	ListByUser(ctx context.Context, userID string, since *time.Time) ([]domain.Activity, error)
}

// ObjectStore holds profile images.
type ObjectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, location string) error
}

// ContactRepository stores customers and vendors.
type ContactRepository interface {
	Create(ctx context.Context, c *domain.Contact) error
	// Get returns ErrNotFound for contacts owned by another user.
	Get(ctx context.Context, userID, contactID string) (*domain.Contact, error)
	ListByUser(ctx context.Context, userID string, kind domain.ContactKind) ([]domain.Contact, error)
	Update(ctx context.Context, c *domain.Contact, previousEmail string) error
	Delete(ctx context.Context, c *domain.Contact) error
}

type TagRepository interface {
	Create(ctx context.Context, t *domain.Tag) error
	Get(ctx context.Context, userID, tagID string) (*domain.Tag, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Tag, error)
	Update(ctx context.Context, t *domain.Tag, previousName string) error
	Delete(ctx context.Context, t *domain.Tag) error
}

type TransactionRepository interface {
	Create(ctx context.Context, t *domain.Transaction) error
	Get(ctx context.Context, userID, transactionID string) (*domain.Transaction, error)
	// ListByUser returns matches newest first.
	ListByUser(ctx context.Context, userID string, f domain.TransactionFilter) ([]domain.Transaction, error)
	Update(ctx context.Context, t *domain.Transaction) error
	Delete(ctx context.Context, t *domain.Transaction) error
}
