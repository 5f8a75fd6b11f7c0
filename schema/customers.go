package schema

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

type TransactionStatus string

const TransactionStatusProcessed TransactionStatus = "PROCESSED"

type CreateCustomerRequest struct {
	UserID     string `json:"user_id"`
	FullName   string `json:"full_name"`
	DocumentID string `json:"document_id"`
	Email      string `json:"email"`
	Phone      string `json:"phone,omitempty"`
	CVU        string `json:"cvu,omitempty"`
	CBU        string `json:"cbu,omitempty"`
	Alias      string `json:"alias,omitempty"`
}

func (r CreateCustomerRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.UserID, validation.Required),
		validation.Field(&r.FullName, validation.Required),
		validation.Field(&r.DocumentID, validation.Required),
		validation.Field(&r.Email, validation.Required, is.EmailFormat),
	)
}

type BankInfo struct {
	CVU   string `json:"cvu,omitempty"`
	CBU   string `json:"cbu,omitempty"`
	Alias string `json:"alias,omitempty"`
}

type Customer struct {
	CustomerID        string    `json:"customer_id"`
	UserID            string    `json:"user_id,omitempty"`
	FullName          string    `json:"full_name,omitempty"`
	DocumentID        string    `json:"document_id,omitempty"`
	Email             string    `json:"email,omitempty"`
	Phone             string    `json:"phone,omitempty"`
	BankInfo          *BankInfo `json:"bank_info,omitempty"`
	Balance           Amount    `json:"balance,omitempty"`
	CreationTimestamp string    `json:"creation_timestamp,omitempty"`
	UpdateTimestamp   string    `json:"update_timestamp,omitempty"`
}

func (c Customer) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.CustomerID, validation.Required),
		validation.Field(&c.Balance),
	)
}

type CustomerTransaction struct {
	TransactionID     string            `json:"transaction_id,omitempty"`
	PaymentID         string            `json:"payment_id,omitempty"`
	Status            TransactionStatus `json:"status,omitempty"`
	Amount            Amount            `json:"amount,omitempty"`
	Currency          string            `json:"currency,omitempty"`
	CreationTimestamp string            `json:"creation_timestamp,omitempty"`
}

func (t CustomerTransaction) Validate() error {
	return validation.ValidateStruct(&t, validation.Field(&t.Amount))
}
