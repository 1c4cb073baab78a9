package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/cashflow-api/internal/domain"
)

type TagRepo struct {
	db *sql.DB
}

func NewTagRepo(db *sql.DB) *TagRepo {
	return &TagRepo{db: db}
}

func (r *TagRepo) Create(ctx context.Context, t *domain.Tag) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tags (id, user_id, name, color, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		t.TagID, t.UserID, t.Name, t.Color, t.CreatedAt, t.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("create tag %s: %w", t.Name, domain.ErrDuplicateTag)
	}
	if err != nil {
		return fmt.Errorf("insert tag: %w", err)
	}
	return nil
}

func (r *TagRepo) Get(ctx context.Context, userID, tagID string) (*domain.Tag, error) {
	var t domain.Tag
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, color, created_at, updated_at
		FROM tags WHERE id = $1 AND user_id = $2`, tagID, userID,
	).Scan(&t.TagID, &t.UserID, &t.Name, &t.Color, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("tag %s: %w", tagID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get tag: %w", err)
	}
	t.CreatedAt, t.UpdatedAt = t.CreatedAt.UTC(), t.UpdatedAt.UTC()
	return &t, nil
}

func (r *TagRepo) ListByUser(ctx context.Context, userID string) ([]domain.Tag, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, name, color, created_at, updated_at
		FROM tags WHERE user_id = $1
		ORDER BY lower(name)`, userID)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	tags := []domain.Tag{}
	for rows.Next() {
		var t domain.Tag
		if err := rows.Scan(&t.TagID, &t.UserID, &t.Name, &t.Color, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		t.CreatedAt, t.UpdatedAt = t.CreatedAt.UTC(), t.UpdatedAt.UTC()
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

func (r *TagRepo) Update(ctx context.Context, t *domain.Tag, _ string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE tags SET name = $3, color = $4, updated_at = $5
		WHERE id = $1 AND user_id = $2`,
		t.TagID, t.UserID, t.Name, t.Color, t.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("rename tag to %s: %w", t.Name, domain.ErrDuplicateTag)
	}
	if err != nil {
		return fmt.Errorf("update tag: %w", err)
	}
	return expectOneRow(res, "tag "+t.TagID)
}

func (r *TagRepo) Delete(ctx context.Context, t *domain.Tag) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tags WHERE id = $1 AND user_id = $2`, t.TagID, t.UserID)
	if err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	return expectOneRow(res, "tag "+t.TagID)
}
