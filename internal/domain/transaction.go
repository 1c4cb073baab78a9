package domain

import "time"

const (
	TransactionPayment = "payment"
	TransactionSale    = "sale"
)

const (
	PaymentCash       = "Cash"
	PaymentCheck      = "Check"
	PaymentCreditCard = "Credit Card"
)

// Transaction is a payment to a vendor or a sale to a customer. Exactly one
// of VendorID and CustomerID is set, matching Type.
type Transaction struct {
	TransactionID string    `json:"id" dynamodbav:"transaction_id"`
	UserID        string    `json:"userId" dynamodbav:"user_id"`
	Type          string    `json:"type" dynamodbav:"type"`
	Amount        float64   `json:"amount" dynamodbav:"amount"`
	Date          time.Time `json:"date" dynamodbav:"date"`
	PaymentMode   string    `json:"paymentMode" dynamodbav:"payment_mode"`
	Remarks       string    `json:"remarks" dynamodbav:"remarks"`
	VendorID      *string   `json:"vendorId" dynamodbav:"vendor_id"`
	CustomerID    *string   `json:"customerId" dynamodbav:"customer_id"`
	CreatedAt     time.Time `json:"createdAt" dynamodbav:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt" dynamodbav:"updated_at"`
}

// PartyID returns the vendor or customer the transaction is booked against.
func (t *Transaction) PartyID() string {
	switch {
	case t.VendorID != nil:
		return *t.VendorID
	case t.CustomerID != nil:
		return *t.CustomerID
	}
	return ""
}

// Party is the name pair shown next to a transaction.
type Party struct {
	Name        string `json:"name"`
	CompanyName string `json:"companyName"`
}

// TransactionDetail is a Transaction with its counterparty resolved. The
// party is nil when the contact has since been deleted.
type TransactionDetail struct {
	Transaction
	Vendor   *Party `json:"vendor"`
	Customer *Party `json:"customer"`
}

// TransactionFilter narrows a listing. Zero fields do not filter; From and To
// are inclusive. Results are ordered by date, newest first.
type TransactionFilter struct {
	Type  string
	From  *time.Time
	To    *time.Time
	Limit int
}

type TransactionRequest struct {
	Type        string   `json:"type" validate:"required,oneof=payment sale"`
	Amount      *float64 `json:"amount" validate:"required,gte=0"`
	Date        string   `json:"date" validate:"required"`
	PaymentMode string   `json:"paymentMode" validate:"required,oneof=Cash Check 'Credit Card'"`
	Remarks     string   `json:"remarks"`
	VendorID    *string  `json:"vendorId" validate:"required_if=Type payment"`
	CustomerID  *string  `json:"customerId" validate:"required_if=Type sale"`
}

// TransactionSummary totals sales against payments.
type TransactionSummary struct {
	Sales    float64 `json:"sales"`
	Payments float64 `json:"payments"`
	Balance  float64 `json:"balance"`
}
