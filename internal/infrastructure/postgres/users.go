package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cashflow-api/internal/domain"
)

const userColumns = `id, email, password_hash, first_name, last_name, phone, is_verified, status,
	profile_image, pending_email, email_otp, email_otp_expiry, reset_token, reset_token_expiry,
	created_at, updated_at`

// UserRepo stores credentials in the users table.
type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

// Create inserts a new user. The unique index on email turns a concurrent
// duplicate into domain.ErrDuplicateEmail.
func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		u.UserID, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Phone, u.IsVerified, u.Status,
		u.ProfileImage, u.PendingEmail, u.EmailOTP, u.EmailOTPExpiry, u.ResetToken, u.ResetTokenExpiry,
		u.CreatedAt, u.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("create user %s: %w", u.Email, domain.ErrDuplicateEmail)
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepo) Get(ctx context.Context, userID string) (*domain.User, error) {
	return r.queryOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.queryOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

// Update writes the named fields of u plus updated_at. Other columns are
// left as stored, so concurrent flows touching different fields do not
// overwrite each other.
func (r *UserRepo) Update(ctx context.Context, u *domain.User, fields ...domain.UserField) error {
	u.UpdatedAt = time.Now().UTC()
	set, args, err := userUpdateSet(u, fields)
	if err != nil {
		return err
	}
	args = append(args, u.UserID)
	res, err := r.db.ExecContext(ctx, `UPDATE users SET `+set+` WHERE id = $`+strconv.Itoa(len(args)), args...)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return expectOneRow(res, "user "+u.UserID)
}

// userUpdateSet renders the SET list for fields and its positional args,
// ending with updated_at.
func userUpdateSet(u *domain.User, fields []domain.UserField) (string, []interface{}, error) {
	if len(fields) == 0 {
		return "", nil, errors.New("no user fields to update")
	}
	parts := make([]string, 0, len(fields)+1)
	args := make([]interface{}, 0, len(fields)+2)
	for _, f := range fields {
		v, ok := u.Value(f)
		if !ok {
			return "", nil, fmt.Errorf("unknown user field %q", f)
		}
		args = append(args, v)
		parts = append(parts, fmt.Sprintf("%s = $%d", f, len(args)))
	}
	args = append(args, u.UpdatedAt)
	parts = append(parts, fmt.Sprintf("updated_at = $%d", len(args)))
	return strings.Join(parts, ", "), args, nil
}

// ChangeEmail moves u from previous to u.Email and clears the pending change.
// The unique index on email rejects an address taken in the meantime.
func (r *UserRepo) ChangeEmail(ctx context.Context, u *domain.User, previous string) error {
	u.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET
			email = $2, pending_email = $3, email_otp = $4, email_otp_expiry = $5, updated_at = $6
		WHERE id = $1 AND email = $7`,
		u.UserID, u.Email, u.PendingEmail, u.EmailOTP, u.EmailOTPExpiry, u.UpdatedAt, previous,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("change email to %s: %w", u.Email, domain.ErrDuplicateEmail)
	}
	if err != nil {
		return fmt.Errorf("change email: %w", err)
	}
	return expectOneRow(res, "user "+u.UserID)
}

func (r *UserRepo) queryOne(ctx context.Context, query string, arg string) (*domain.User, error) {
	var (
		u                                             domain.User
		profileImage, pendingEmail, emailOTP, resetTk sql.NullString
		emailOTPExpiry, resetTokenExpiry              sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&u.UserID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Phone, &u.IsVerified, &u.Status,
		&profileImage, &pendingEmail, &emailOTP, &emailOTPExpiry, &resetTk, &resetTokenExpiry,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", arg, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	u.ProfileImage = nullString(profileImage)
	u.PendingEmail = nullString(pendingEmail)
	u.EmailOTP = nullString(emailOTP)
	u.EmailOTPExpiry = nullTime(emailOTPExpiry)
	u.ResetToken = nullString(resetTk)
	u.ResetTokenExpiry = nullTime(resetTokenExpiry)
	return &u, nil
}

func expectOneRow(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	}
	return nil
}
