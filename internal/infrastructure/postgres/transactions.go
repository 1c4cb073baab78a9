package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/cashflow-api/internal/domain"
)

const transactionColumns = `id, user_id, type, amount, date, payment_mode, remarks, vendor_id, customer_id,
	created_at, updated_at`

// TransactionRepo stores payments and sales. Amounts are NUMERIC(12,2).
type TransactionRepo struct {
	db *sql.DB
}

func NewTransactionRepo(db *sql.DB) *TransactionRepo {
	return &TransactionRepo{db: db}
}

func (r *TransactionRepo) Create(ctx context.Context, t *domain.Transaction) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (`+transactionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		t.TransactionID, t.UserID, t.Type, t.Amount, t.Date, t.PaymentMode, t.Remarks, t.VendorID, t.CustomerID,
		t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (r *TransactionRepo) Get(ctx context.Context, userID, transactionID string) (*domain.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1 AND user_id = $2`, transactionID, userID)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transaction %s: %w", transactionID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

// ListByUser returns the user's transactions matching f, newest first.
func (r *TransactionRepo) ListByUser(ctx context.Context, userID string, f domain.TransactionFilter) ([]domain.Transaction, error) {
	var limit interface{}
	if f.Limit > 0 {
		limit = f.Limit
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+transactionColumns+` FROM transactions
		WHERE user_id = $1
			AND ($2::text = '' OR type = $2)
			AND ($3::timestamptz IS NULL OR date >= $3)
			AND ($4::timestamptz IS NULL OR date <= $4)
		ORDER BY date DESC, id DESC
		LIMIT $5`,
		userID, f.Type, f.From, f.To, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	txs := []domain.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, *t)
	}
	return txs, rows.Err()
}

func (r *TransactionRepo) Update(ctx context.Context, t *domain.Transaction) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions SET
			type = $3, amount = $4, date = $5, payment_mode = $6, remarks = $7,
			vendor_id = $8, customer_id = $9, updated_at = $10
		WHERE id = $1 AND user_id = $2`,
		t.TransactionID, t.UserID, t.Type, t.Amount, t.Date, t.PaymentMode, t.Remarks,
		t.VendorID, t.CustomerID, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return expectOneRow(res, "transaction "+t.TransactionID)
}

func (r *TransactionRepo) Delete(ctx context.Context, t *domain.Transaction) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1 AND user_id = $2`, t.TransactionID, t.UserID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return expectOneRow(res, "transaction "+t.TransactionID)
}

func scanTransaction(row rowScanner) (*domain.Transaction, error) {
	var (
		t                  domain.Transaction
		vendorID, customer sql.NullString
	)
	err := row.Scan(&t.TransactionID, &t.UserID, &t.Type, &t.Amount, &t.Date, &t.PaymentMode, &t.Remarks,
		&vendorID, &customer, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.VendorID = nullString(vendorID)
	t.CustomerID = nullString(customer)
	t.Date = t.Date.UTC()
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	return &t, nil
}
