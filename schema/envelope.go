// Package schema declares the request and response contracts of the Talo
// API. Every type validates itself with ozzo-validation; unknown response
// fields are ignored.
package schema

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Envelope is the success wrapper shared by every resource endpoint.
type Envelope[T any] struct {
	Message string   `json:"message,omitempty"`
	Status  string   `json:"status,omitempty"`
	Error   *bool    `json:"error,omitempty"`
	Code    *float64 `json:"code,omitempty"`
	Data    T        `json:"data"`
}

func (e Envelope[T]) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Data),
	)
}

type (
	PaymentEnvelope             = Envelope[Payment]
	CustomerEnvelope            = Envelope[Customer]
	CustomerTransactionEnvelope = Envelope[CustomerTransaction]
	RefundEnvelope              = Envelope[Refund]
	TokenEnvelope               = Envelope[TokenData]
)
