package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cashflow-api/internal/domain"
	"github.com/cashflow-api/internal/pkg/id"
)

const sessionColumns = `id, user_id, device_name, browser, operating_system, ip_address, location,
	login_time, last_active, status`

// SessionRepo stores login sessions in user_sessions.
type SessionRepo struct {
	db *sql.DB
}

func NewSessionRepo(db *sql.DB) *SessionRepo {
	return &SessionRepo{db: db}
}

// Upsert refreshes the active session matching fp or creates a new one. The
// partial unique index on active fingerprints makes this a single statement.
func (r *SessionRepo) Upsert(ctx context.Context, userID string, fp domain.Fingerprint, now time.Time) (*domain.Session, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO user_sessions (`+sessionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8, 'active')
		ON CONFLICT (user_id, device_name, browser, operating_system) WHERE status = 'active'
		DO UPDATE SET
			last_active = EXCLUDED.last_active,
			ip_address = EXCLUDED.ip_address,
			location = EXCLUDED.location
		RETURNING `+sessionColumns,
		id.New(), userID, fp.DeviceName, fp.Browser, fp.OperatingSystem, fp.IPAddress, fp.Location, now.UTC(),
	)
	s, err := scanSession(row)
	if err != nil {
		return nil, fmt.Errorf("upsert session: %w", err)
	}
	return s, nil
}

func (r *SessionRepo) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM user_sessions WHERE id = $1`, sessionID)
	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %s: %w", sessionID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return s, nil
}

func (r *SessionRepo) ListByUser(ctx context.Context, userID string, since *time.Time) ([]domain.Session, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+sessionColumns+` FROM user_sessions
		WHERE user_id = $1 AND ($2::timestamptz IS NULL OR login_time >= $2)
		ORDER BY login_time DESC`,
		userID, since,
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	sessions := []domain.Session{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

func (r *SessionRepo) Deactivate(ctx context.Context, s *domain.Session) error {
	res, err := r.db.ExecContext(ctx, `UPDATE user_sessions SET status = 'inactive' WHERE id = $1`, s.SessionID)
	if err != nil {
		return fmt.Errorf("deactivate session: %w", err)
	}
	if err := expectOneRow(res, "session "+s.SessionID); err != nil {
		return err
	}
	s.Status = domain.StatusInactive
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*domain.Session, error) {
	var s domain.Session
	err := row.Scan(&s.SessionID, &s.UserID, &s.DeviceName, &s.Browser, &s.OperatingSystem,
		&s.IPAddress, &s.Location, &s.LoginTime, &s.LastActive, &s.Status)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
