package domain

import "time"

// DashboardStats totals the user's transactions over a period. Period is
// "all" when no period was requested.
type DashboardStats struct {
	Period        string  `json:"period"`
	TotalPayments float64 `json:"totalPayments"`
	TotalSales    float64 `json:"totalSales"`
	Balance       float64 `json:"balance"`
}

// RecentTransaction is the flattened dashboard row. Vendor fields are only
// set on payments and customer fields only on sales.
type RecentTransaction struct {
	ID              string    `json:"id"`
	Amount          float64   `json:"amount"`
	Date            time.Time `json:"date"`
	Type            string    `json:"type"`
	PaymentMode     string    `json:"paymentMode"`
	Remarks         string    `json:"remarks"`
	VendorName      *string   `json:"vendorName"`
	VendorCompany   *string   `json:"vendorCompany"`
	CustomerName    *string   `json:"customerName"`
	CustomerCompany *string   `json:"customerCompany"`
}

// ReportQuery selects the rows of a transaction report. DateRange takes
// precedence over StartDate and EndDate, which only apply together.
type ReportQuery struct {
	DateRange string
	StartDate string
	EndDate   string
	Search    string
	Page      int
	Limit     int
}

type ReportRow struct {
	ID           string    `json:"id"`
	Date         time.Time `json:"date"`
	Amount       float64   `json:"amount"`
	CustomerName *string   `json:"customerName"`
	PaymentMode  string    `json:"paymentMode"`
	Description  string    `json:"description"`
}

// ReportSummary covers every matching row, not only the returned page.
// Growth is the percentage change from the earliest to the latest amount.
type ReportSummary struct {
	TotalAmount      float64 `json:"totalAmount"`
	AverageAmount    float64 `json:"averageAmount"`
	TransactionCount int     `json:"transactionCount"`
	Growth           float64 `json:"growth"`
}

type Report struct {
	Transactions []ReportRow   `json:"transactions"`
	Summary      ReportSummary `json:"summary"`
}
