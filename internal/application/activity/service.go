package activity

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cashflow-api/internal/domain"
	"github.com/cashflow-api/internal/pkg/id"
	"github.com/cashflow-api/internal/pkg/timerange"
)

type Service interface {
	// Log records an action for userID. Failures are logged, never returned.
	Log(ctx context.Context, userID, action, details string)
	List(ctx context.Context, userID, rangeName string) ([]domain.Activity, error)
}

type activityStore interface {
	Create(ctx context.Context, a *domain.Activity) error
	ListByUser(ctx context.Context, userID string, since *time.Time) ([]domain.Activity, error)
}

type service struct {
	repo activityStore
	now  func() time.Time
}

type ServiceDeps struct {
	ActivityRepo activityStore
	Now          func() time.Time
}

func NewService(deps ServiceDeps) Service {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &service{repo: deps.ActivityRepo, now: now}
}

func (s *service) Log(ctx context.Context, userID, action, details string) {
	client := domain.ClientFromContext(ctx)
	a := &domain.Activity{
		ActivityID: id.New(),
		UserID:     userID,
		Action:     action,
		Details:    details,
		IPAddress:  client.IPAddress,
		UserAgent:  client.UserAgent,
		Timestamp:  s.now().UTC(),
	}
	if err := s.repo.Create(ctx, a); err != nil {
		slog.Warn("failed to record activity", "user_id", userID, "action", action, "err", err)
	}
}

func (s *service) List(ctx context.Context, userID, rangeName string) ([]domain.Activity, error) {
	since, err := timerange.Since(rangeName, s.now().UTC())
	if err != nil {
		return nil, err
	}
	activities, err := s.repo.ListByUser(ctx, userID, since)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	return activities, nil
}
