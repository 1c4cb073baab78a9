package report

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/cashflow-api/internal/domain"
	"github.com/cashflow-api/internal/pkg/money"
	"github.com/cashflow-api/internal/pkg/timerange"
)

const (
	// Received selects sales; any other report type selects payments.
	Received = "received"

	DefaultLimit = 10
	MaxLimit     = 100
)

type Service interface {
	Transactions(ctx context.Context, userID, reportType string, q domain.ReportQuery) (*domain.Report, error)
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

func (s *service) Transactions(ctx context.Context, userID, reportType string, q domain.ReportQuery) (*domain.Report, error) {
	f := domain.TransactionFilter{Type: domain.TransactionPayment}
	if reportType == Received {
		f.Type = domain.TransactionSale
	}
	switch {
	case q.DateRange != "":
		now := s.now().UTC()
		// Unknown ranges do not filter.
		if from, err := timerange.Since(q.DateRange, now); err == nil {
			f.From, f.To = from, &now
		}
	case q.StartDate != "" && q.EndDate != "":
		from, to, err := timerange.Bounds(q.StartDate, q.EndDate)
		if err != nil {
			return nil, err
		}
		f.From, f.To = from, to
	}

	details, err := s.transactions.List(ctx, userID, f)
	if err != nil {
		return nil, err
	}
	var matched []domain.TransactionDetail
	for _, d := range details {
		if matches(d, q.Search) {
			matched = append(matched, d)
		}
	}

	page, limit := q.Page, q.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	rows := []domain.ReportRow{}
	if start := (page - 1) * limit; start < len(matched) {
		end := start + limit
		if end > len(matched) {
			end = len(matched)
		}
		for _, d := range matched[start:end] {
			rows = append(rows, row(d))
		}
	}
	return &domain.Report{Transactions: rows, Summary: summarize(matched)}, nil
}

// matches reports whether the remarks, payment mode, calendar date or
// counterparty names of d contain search, ignoring case.
func matches(d domain.TransactionDetail, search string) bool {
	if search == "" {
		return true
	}
	needle := strings.ToLower(search)
	fields := []string{d.Remarks, d.PaymentMode, d.Date.UTC().Format("2006-01-02")}
	for _, p := range []*domain.Party{d.Vendor, d.Customer} {
		if p != nil {
			fields = append(fields, p.Name, p.CompanyName)
		}
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

func row(d domain.TransactionDetail) domain.ReportRow {
	r := domain.ReportRow{
		ID:          d.TransactionID,
		Date:        d.Date,
		Amount:      d.Amount,
		PaymentMode: d.PaymentMode,
		Description: d.Remarks,
	}
	party := d.Vendor
	if d.Type == domain.TransactionSale {
		party = d.Customer
	}
	if party != nil {
		name := party.Name
		r.CustomerName = &name
	}
	return r
}

func summarize(ds []domain.TransactionDetail) domain.ReportSummary {
	sum := domain.ReportSummary{TransactionCount: len(ds)}
	if len(ds) == 0 {
		return sum
	}
	var total float64
	for _, d := range ds {
		total += d.Amount
	}
	sum.TotalAmount = money.Round(total)
	sum.AverageAmount = money.Round(total / float64(len(ds)))

	byDate := make([]domain.TransactionDetail, len(ds))
	copy(byDate, ds)
	sort.SliceStable(byDate, func(i, j int) bool { return byDate[i].Date.Before(byDate[j].Date) })
	first, last := byDate[0].Amount, byDate[len(byDate)-1].Amount
	if len(byDate) >= 2 && first != 0 {
		sum.Growth = money.Round((last - first) / first * 100)
	}
	return sum
}
