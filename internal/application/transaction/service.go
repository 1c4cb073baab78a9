package transaction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cashflow-api/internal/application/contact"
	"github.com/cashflow-api/internal/domain"
	"github.com/cashflow-api/internal/pkg/id"
	"github.com/cashflow-api/internal/pkg/money"
	"github.com/cashflow-api/internal/pkg/timerange"
	"github.com/cashflow-api/internal/pkg/validate"
)

// Service books payments and sales against the user's vendors and
// customers. Listings resolve the counterparty's names.
type Service interface {
	Create(ctx context.Context, userID string, req domain.TransactionRequest) (*domain.TransactionDetail, error)
	Get(ctx context.Context, userID, transactionID string) (*domain.TransactionDetail, error)
	List(ctx context.Context, userID string, f domain.TransactionFilter) ([]domain.TransactionDetail, error)
	Summary(ctx context.Context, userID string, from, to *time.Time) (*domain.TransactionSummary, error)
	Update(ctx context.Context, userID, transactionID string, req domain.TransactionRequest) (*domain.TransactionDetail, error)
	Delete(ctx context.Context, userID, transactionID string) error
}

type transactionStore interface {
	Create(ctx context.Context, t *domain.Transaction) error
	Get(ctx context.Context, userID, transactionID string) (*domain.Transaction, error)
	ListByUser(ctx context.Context, userID string, f domain.TransactionFilter) ([]domain.Transaction, error)
	Update(ctx context.Context, t *domain.Transaction) error
	Delete(ctx context.Context, t *domain.Transaction) error
}

type contactStore interface {
	Get(ctx context.Context, userID, contactID string) (*domain.Contact, error)
	ListByUser(ctx context.Context, userID string, kind domain.ContactKind) ([]domain.Contact, error)
}

type service struct {
	repo     transactionStore
	contacts contactStore
	now      func() time.Time
}

type ServiceDeps struct {
	TransactionRepo transactionStore
	ContactRepo     contactStore
	Now             func() time.Time
}

func NewService(deps ServiceDeps) Service {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &service{repo: deps.TransactionRepo, contacts: deps.ContactRepo, now: now}
}

func (s *service) Create(ctx context.Context, userID string, req domain.TransactionRequest) (*domain.TransactionDetail, error) {
	now := s.now().UTC()
	t := &domain.Transaction{
		TransactionID: id.New(),
		UserID:        userID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	party, err := s.apply(ctx, t, req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}
	return detail(*t, party), nil
}

func (s *service) Get(ctx context.Context, userID, transactionID string) (*domain.TransactionDetail, error) {
	t, err := s.get(ctx, userID, transactionID)
	if err != nil {
		return nil, err
	}
	var party *domain.Contact
	if pid := t.PartyID(); pid != "" {
		c, err := s.contacts.Get(ctx, userID, pid)
		switch {
		case err == nil:
			party = c
		case !errors.Is(err, domain.ErrNotFound):
			return nil, err
		}
	}
	return detail(*t, party), nil
}

func (s *service) List(ctx context.Context, userID string, f domain.TransactionFilter) ([]domain.TransactionDetail, error) {
	txs, err := s.repo.ListByUser(ctx, userID, f)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	parties, err := s.parties(ctx, userID, txs)
	if err != nil {
		return nil, err
	}
	out := make([]domain.TransactionDetail, 0, len(txs))
	for _, t := range txs {
		out = append(out, *detail(t, parties[t.PartyID()]))
	}
	return out, nil
}

func (s *service) Summary(ctx context.Context, userID string, from, to *time.Time) (*domain.TransactionSummary, error) {
	txs, err := s.repo.ListByUser(ctx, userID, domain.TransactionFilter{From: from, To: to})
	if err != nil {
		return nil, fmt.Errorf("summarize transactions: %w", err)
	}
	sum := Totals(txs)
	return &sum, nil
}

func (s *service) Update(ctx context.Context, userID, transactionID string, req domain.TransactionRequest) (*domain.TransactionDetail, error) {
	t, err := s.get(ctx, userID, transactionID)
	if err != nil {
		return nil, err
	}
	party, err := s.apply(ctx, t, req)
	if err != nil {
		return nil, err
	}
	t.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, t); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("transaction %s: %w", transactionID, domain.ErrTransactionNotFound)
		}
		return nil, fmt.Errorf("update transaction: %w", err)
	}
	return detail(*t, party), nil
}

func (s *service) Delete(ctx context.Context, userID, transactionID string) error {
	t, err := s.get(ctx, userID, transactionID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, t); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("transaction %s: %w", transactionID, domain.ErrTransactionNotFound)
		}
		return err
	}
	return nil
}

// Totals sums sales and payments, each rounded to cents.
func Totals(txs []domain.Transaction) domain.TransactionSummary {
	var sales, payments float64
	for _, t := range txs {
		switch t.Type {
		case domain.TransactionSale:
			sales += t.Amount
		case domain.TransactionPayment:
			payments += t.Amount
		}
	}
	return domain.TransactionSummary{
		Sales:    money.Round(sales),
		Payments: money.Round(payments),
		Balance:  money.Round(sales - payments),
	}
}

func (s *service) get(ctx context.Context, userID, transactionID string) (*domain.Transaction, error) {
	t, err := s.repo.Get(ctx, userID, transactionID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("transaction %s: %w", transactionID, domain.ErrTransactionNotFound)
	}
	return t, err
}

// apply validates req and copies it onto t. The counterparty must be one of
// the user's own contacts of the kind matching the transaction type.
func (s *service) apply(ctx context.Context, t *domain.Transaction, req domain.TransactionRequest) (*domain.Contact, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	date, err := timerange.ParseDate(req.Date)
	if err != nil {
		return nil, fmt.Errorf("date: %w", err)
	}
	kind, partyID := domain.KindVendor, req.VendorID
	other := req.CustomerID
	if req.Type == domain.TransactionSale {
		kind, partyID, other = domain.KindCustomer, req.CustomerID, req.VendorID
	}
	if *partyID == "" {
		return nil, fmt.Errorf("%sId must not be empty: %w", kind, domain.ErrValidation)
	}
	if other != nil && *other != "" {
		return nil, fmt.Errorf("a %s cannot reference a %s: %w", req.Type, otherKind(kind), domain.ErrValidation)
	}
	c, err := s.contacts.Get(ctx, t.UserID, *partyID)
	if errors.Is(err, domain.ErrNotFound) || (err == nil && c.Kind != kind) {
		return nil, fmt.Errorf("%s %s: %w", kind, *partyID, contact.NotFound(kind))
	}
	if err != nil {
		return nil, err
	}

	pid := *partyID
	t.Type = req.Type
	t.Amount = money.Round(*req.Amount)
	t.Date = date
	t.PaymentMode = req.PaymentMode
	t.Remarks = req.Remarks
	t.VendorID, t.CustomerID = nil, nil
	if kind == domain.KindVendor {
		t.VendorID = &pid
	} else {
		t.CustomerID = &pid
	}
	return c, nil
}

// parties loads the contacts referenced by txs, keyed by contact id. Each
// address book is read at most once.
func (s *service) parties(ctx context.Context, userID string, txs []domain.Transaction) (map[string]*domain.Contact, error) {
	need := map[domain.ContactKind]bool{}
	for _, t := range txs {
		switch {
		case t.VendorID != nil:
			need[domain.KindVendor] = true
		case t.CustomerID != nil:
			need[domain.KindCustomer] = true
		}
	}
	out := map[string]*domain.Contact{}
	for _, kind := range []domain.ContactKind{domain.KindVendor, domain.KindCustomer} {
		if !need[kind] {
			continue
		}
		cs, err := s.contacts.ListByUser(ctx, userID, kind)
		if err != nil {
			return nil, fmt.Errorf("load %ss: %w", kind, err)
		}
		for i := range cs {
			out[cs[i].ContactID] = &cs[i]
		}
	}
	return out, nil
}

func detail(t domain.Transaction, party *domain.Contact) *domain.TransactionDetail {
	d := &domain.TransactionDetail{Transaction: t}
	if party == nil {
		return d
	}
	p := &domain.Party{Name: party.Name, CompanyName: party.CompanyName}
	switch {
	case t.VendorID != nil && *t.VendorID == party.ContactID:
		d.Vendor = p
	case t.CustomerID != nil && *t.CustomerID == party.ContactID:
		d.Customer = p
	}
	return d
}

func otherKind(k domain.ContactKind) domain.ContactKind {
	if k == domain.KindVendor {
		return domain.KindCustomer
	}
	return domain.KindVendor
}
