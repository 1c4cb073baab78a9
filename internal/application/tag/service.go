package tag

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cashflow-api/internal/domain"
	"github.com/cashflow-api/internal/pkg/id"
	"github.com/cashflow-api/internal/pkg/validate"
)

type Service interface {
	// List returns the user's tags ordered by name, ignoring case.
	List(ctx context.Context, userID string) ([]domain.Tag, error)
	Create(ctx context.Context, userID string, req domain.TagRequest) (*domain.Tag, error)
	Update(ctx context.Context, userID, tagID string, req domain.TagRequest) (*domain.Tag, error)
	Delete(ctx context.Context, userID, tagID string) error
}

type tagStore interface {
	Create(ctx context.Context, t *domain.Tag) error
	Get(ctx context.Context, userID, tagID string) (*domain.Tag, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Tag, error)
	Update(ctx context.Context, t *domain.Tag, previousName string) error
	Delete(ctx context.Context, t *domain.Tag) error
}

type service struct {
	repo tagStore
	now  func() time.Time
}

type ServiceDeps struct {
	TagRepo tagStore
	Now     func() time.Time
}

func NewService(deps ServiceDeps) Service {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &service{repo: deps.TagRepo, now: now}
}

func (s *service) List(ctx context.Context, userID string) ([]domain.Tag, error) {
	tags, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	sort.SliceStable(tags, func(i, j int) bool {
		return strings.ToLower(tags[i].Name) < strings.ToLower(tags[j].Name)
	})
	return tags, nil
}

func (s *service) Create(ctx context.Context, userID string, req domain.TagRequest) (*domain.Tag, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	t := &domain.Tag{
		TagID:     id.NewUUID(),
		UserID:    userID,
		Name:      req.Name,
		Color:     req.Color,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *service) Update(ctx context.Context, userID, tagID string, req domain.TagRequest) (*domain.Tag, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	t, err := s.get(ctx, userID, tagID)
	if err != nil {
		return nil, err
	}
	previous := t.Name
	t.Name = req.Name
	t.Color = req.Color
	t.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, t, previous); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("tag %s: %w", tagID, domain.ErrTagNotFound)
		}
		return nil, err
	}
	return t, nil
}

func (s *service) Delete(ctx context.Context, userID, tagID string) error {
	t, err := s.get(ctx, userID, tagID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, t); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("tag %s: %w", tagID, domain.ErrTagNotFound)
		}
		return err
	}
	return nil
}

func (s *service) get(ctx context.Context, userID, tagID string) (*domain.Tag, error) {
	t, err := s.repo.Get(ctx, userID, tagID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("tag %s: %w", tagID, domain.ErrTagNotFound)
	}
	return t, err
}
