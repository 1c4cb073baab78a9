package contact

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cashflow-api/internal/domain"
	"github.com/cashflow-api/internal/pkg/id"
	"github.com/cashflow-api/internal/pkg/validate"
)

// Service manages the customer and vendor address books. Every operation is
// scoped to the calling user; another user's contact is reported as not found.
type Service interface {
	Create(ctx context.Context, userID string, kind domain.ContactKind, req domain.ContactRequest) (*domain.Contact, error)
	List(ctx context.Context, userID string, kind domain.ContactKind) ([]domain.Contact, error)
	Get(ctx context.Context, userID string, kind domain.ContactKind, contactID string) (*domain.Contact, error)
	Update(ctx context.Context, userID string, kind domain.ContactKind, contactID string, req domain.ContactRequest) (*domain.Contact, error)
	Delete(ctx context.Context, userID string, kind domain.ContactKind, contactID string) error
}

type contactStore interface {
	Create(ctx context.Context, c *domain.Contact) error
	Get(ctx context.Context, userID, contactID string) (*domain.Contact, error)
	ListByUser(ctx context.Context, userID string, kind domain.ContactKind) ([]domain.Contact, error)
	Update(ctx context.Context, c *domain.Contact, previousEmail string) error
	Delete(ctx context.Context, c *domain.Contact) error
}

type service struct {
	repo contactStore
	now  func() time.Time
}

type ServiceDeps struct {
	ContactRepo contactStore
	Now         func() time.Time
}

func NewService(deps ServiceDeps) Service {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &service{repo: deps.ContactRepo, now: now}
}

func (s *service) Create(ctx context.Context, userID string, kind domain.ContactKind, req domain.ContactRequest) (*domain.Contact, error) {
	req = normalize(req)
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	c := &domain.Contact{
		ContactID: id.New(),
		UserID:    userID,
		Kind:      kind,
		CreatedAt: now,
		UpdatedAt: now,
	}
	apply(c, req)
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) List(ctx context.Context, userID string, kind domain.ContactKind) ([]domain.Contact, error) {
	contacts, err := s.repo.ListByUser(ctx, userID, kind)
	if err != nil {
		return nil, fmt.Errorf("list %ss: %w", kind, err)
	}
	return contacts, nil
}

func (s *service) Get(ctx context.Context, userID string, kind domain.ContactKind, contactID string) (*domain.Contact, error) {
	c, err := s.repo.Get(ctx, userID, contactID)
	if errors.Is(err, domain.ErrNotFound) || (err == nil && c.Kind != kind) {
		return nil, fmt.Errorf("%s %s: %w", kind, contactID, NotFound(kind))
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) Update(ctx context.Context, userID string, kind domain.ContactKind, contactID string, req domain.ContactRequest) (*domain.Contact, error) {
	req = normalize(req)
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	c, err := s.Get(ctx, userID, kind, contactID)
	if err != nil {
		return nil, err
	}
	previous := c.Email
	apply(c, req)
	c.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, c, previous); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%s %s: %w", kind, contactID, NotFound(kind))
		}
		return nil, err
	}
	return c, nil
}

func (s *service) Delete(ctx context.Context, userID string, kind domain.ContactKind, contactID string) error {
	c, err := s.Get(ctx, userID, kind, contactID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, c); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%s %s: %w", kind, contactID, NotFound(kind))
		}
		return err
	}
	return nil
}

// NotFound returns the not-found sentinel for kind.
func NotFound(kind domain.ContactKind) error {
	if kind == domain.KindVendor {
		return domain.ErrVendorNotFound
	}
	return domain.ErrCustomerNotFound
}

func normalize(req domain.ContactRequest) domain.ContactRequest {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	return req
}

func apply(c *domain.Contact, req domain.ContactRequest) {
	c.Name = req.Name
	c.CompanyName = req.CompanyName
	c.Email = req.Email
	c.Phone = req.Phone
	c.Address = req.Address
	c.Notes = req.Notes
}
