package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cashflow-api/internal/domain"
)

type ActivityRepo struct {
	db *sql.DB
}

func NewActivityRepo(db *sql.DB) *ActivityRepo {
	return &ActivityRepo{db: db}
}

func (r *ActivityRepo) Create(ctx context.Context, a *domain.Activity) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO activity_logs (id, user_id, action, details, ip_address, user_agent, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ActivityID, a.UserID, a.Action, a.Details, a.IPAddress, a.UserAgent, a.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

func (r *ActivityRepo) ListByUser(ctx context.Context, userID string, since *time.Time) ([]domain.Activity, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, action, details, ip_address, user_agent, timestamp
		FROM activity_logs
		WHERE user_id = $1 AND ($2::timestamptz IS NULL OR timestamp >= $2)
		ORDER BY timestamp DESC`,
		userID, since,
	)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	defer rows.Close()

	activities := []domain.Activity{}
	for rows.Next() {
		var a domain.Activity
		if err := rows.Scan(&a.ActivityID, &a.UserID, &a.Action, &a.Details, &a.IPAddress, &a.UserAgent, &a.Timestamp); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}
