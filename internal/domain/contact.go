package domain

import "time"

// ContactKind separates the two address books. Customers are the
// counterparty of sales, vendors of payments.
type ContactKind string

const (
	KindCustomer ContactKind = "customer"
	KindVendor   ContactKind = "vendor"
)

// Contact is a customer or vendor owned by one user. Email, when set, is
// unique per user and kind.
type Contact struct {
	ContactID   string      `json:"id" dynamodbav:"contact_id"`
	UserID      string      `json:"userId" dynamodbav:"user_id"`
	Kind        ContactKind `json:"-" dynamodbav:"kind"`
	Name        string      `json:"name" dynamodbav:"name"`
	CompanyName string      `json:"companyName" dynamodbav:"company_name"`
	Email       string      `json:"email" dynamodbav:"email"`
	Phone       string      `json:"phone" dynamodbav:"phone"`
	Address     string      `json:"address" dynamodbav:"address"`
	Notes       string      `json:"notes" dynamodbav:"notes"`
	CreatedAt   time.Time   `json:"createdAt" dynamodbav:"created_at"`
	UpdatedAt   time.Time   `json:"updatedAt" dynamodbav:"updated_at"`
}

type ContactRequest struct {
	Name        string `json:"name" validate:"required"`
	CompanyName string `json:"companyName"`
	Email       string `json:"email" validate:"omitempty,email"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	Notes       string `json:"notes"`
}
