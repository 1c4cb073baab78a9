package dashboard

import (
	"context"
	"time"

	"github.com/cashflow-api/internal/application/transaction"
	"github.com/cashflow-api/internal/domain"
	"github.com/cashflow-api/internal/pkg/timerange"
)

const (
	DefaultRecent = 5
	MaxRecent     = 100
)

type Service interface {
	// Stats totals the user's transactions over period (see timerange.Period).
	Stats(ctx context.Context, userID, period string) (*domain.DashboardStats, error)
	// Recent returns the newest limit transactions; limit <= 0 means DefaultRecent.
	Recent(ctx context.Context, userID string, limit int) ([]domain.RecentTransaction, error)
}

type transactionLister interface {
	List(ctx context.Context, userID string, f domain.TransactionFilter) ([]domain.TransactionDetail, error)
}

type service struct {
	transactions transactionLister
	now          func() time.Time
}

type ServiceDeps struct {
	Transactions transactionLister
	Now          func() time.Time
}

func NewService(deps ServiceDeps) Service {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &service{transactions: deps.Transactions, now: now}
}

func (s *service) Stats(ctx context.Context, userID, period string) (*domain.DashboardStats, error) {
	now := s.now().UTC()
	f := domain.TransactionFilter{From: timerange.Period(period, now)}
	if f.From != nil {
		f.To = &now
	}
	details, err := s.transactions.List(ctx, userID, f)
	if err != nil {
		return nil, err
	}
	txs := make([]domain.Transaction, 0, len(details))
	for _, d := range details {
		txs = append(txs, d.Transaction)
	}
	sum := transaction.Totals(txs)
	if period == "" {
		period = "all"
	}
	return &domain.DashboardStats{
		Period:        period,
		TotalPayments: sum.Payments,
		TotalSales:    sum.Sales,
		Balance:       sum.Balance,
	}, nil
}

func (s *service) Recent(ctx context.Context, userID string, limit int) ([]domain.RecentTransaction, error) {
	if limit <= 0 {
		limit = DefaultRecent
	}
	if limit > MaxRecent {
		limit = MaxRecent
	}
	details, err := s.transactions.List(ctx, userID, domain.TransactionFilter{Limit: limit})
	if err != nil {
		return nil, err
	}
	out := make([]domain.RecentTransaction, 0, len(details))
	for _, d := range details {
		r := domain.RecentTransaction{
			ID:          d.TransactionID,
			Amount:      d.Amount,
			Date:        d.Date,
			Type:        d.Type,
			PaymentMode: d.PaymentMode,
			Remarks:     d.Remarks,
		}
		if d.Type == domain.TransactionPayment && d.Vendor != nil {
			r.VendorName, r.VendorCompany = &d.Vendor.Name, &d.Vendor.CompanyName
		}
		if d.Type == domain.TransactionSale && d.Customer != nil {
			r.CustomerName, r.CustomerCompany = &d.Customer.Name, &d.Customer.CompanyName
		}
		out = append(out, r)
	}
	return out, nil
}
