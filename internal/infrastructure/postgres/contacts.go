package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/cashflow-api/internal/domain"
)

const contactColumns = `id, user_id, kind, name, company_name, email, phone, address, notes, created_at, updated_at`

// ContactRepo stores customers and vendors. A partial unique index keeps a
// set email unique per {user, kind}.
type ContactRepo struct {
	db *sql.DB
}

func NewContactRepo(db *sql.DB) *ContactRepo {
	return &ContactRepo{db: db}
}

func (r *ContactRepo) Create(ctx context.Context, c *domain.Contact) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO contacts (`+contactColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		c.ContactID, c.UserID, c.Kind, c.Name, c.CompanyName, c.Email, c.Phone, c.Address, c.Notes,
		c.CreatedAt, c.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("create %s %s: %w", c.Kind, c.Email, domain.ErrContactEmailTaken)
	}
	if err != nil {
		return fmt.Errorf("insert contact: %w", err)
	}
	return nil
}

func (r *ContactRepo) Get(ctx context.Context, userID, contactID string) (*domain.Contact, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE id = $1 AND user_id = $2`, contactID, userID)
	c, err := scanContact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("contact %s: %w", contactID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get contact: %w", err)
	}
	return c, nil
}

func (r *ContactRepo) ListByUser(ctx context.Context, userID string, kind domain.ContactKind) ([]domain.Contact, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+contactColumns+` FROM contacts
		WHERE user_id = $1 AND kind = $2
		ORDER BY created_at DESC`,
		userID, kind,
	)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()

	contacts := []domain.Contact{}
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		contacts = append(contacts, *c)
	}
	return contacts, rows.Err()
}

// Update rewrites the editable fields. The email index rejects an address
// already used by another contact of the same kind.
func (r *ContactRepo) Update(ctx context.Context, c *domain.Contact, _ string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE contacts SET
			name = $3, company_name = $4, email = $5, phone = $6, address = $7, notes = $8, updated_at = $9
		WHERE id = $1 AND user_id = $2`,
		c.ContactID, c.UserID, c.Name, c.CompanyName, c.Email, c.Phone, c.Address, c.Notes, c.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("update %s %s: %w", c.Kind, c.Email, domain.ErrContactEmailTaken)
	}
	if err != nil {
		return fmt.Errorf("update contact: %w", err)
	}
	return expectOneRow(res, "contact "+c.ContactID)
}

// Delete removes the contact; transactions booked against it keep their
// amounts with the reference cleared.
func (r *ContactRepo) Delete(ctx context.Context, c *domain.Contact) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM contacts WHERE id = $1 AND user_id = $2`, c.ContactID, c.UserID)
	if err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	return expectOneRow(res, "contact "+c.ContactID)
}

func scanContact(row rowScanner) (*domain.Contact, error) {
	var c domain.Contact
	err := row.Scan(&c.ContactID, &c.UserID, &c.Kind, &c.Name, &c.CompanyName, &c.Email, &c.Phone,
		&c.Address, &c.Notes, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	return &c, nil
}
