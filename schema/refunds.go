package schema

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

type RefundType string

const (
	RefundTypeFull    RefundType = "FULL"
	RefundTypePartial RefundType = "PARTIAL"
)

type Blame string

const (
	BlameClient     Blame = "CLIENT"
	BlameCustomer   Blame = "CUSTOMER"
	BlameThirdParty Blame = "THIRD_PARTY"
)

const messagePartialAmount = "amount is required when refund_type is PARTIAL"

type CreateRefundRequest struct {
	Amount     Amount     `json:"amount,omitempty"`
	RefundType RefundType `json:"refund_type"`
	Motive     string     `json:"motive"`
	Blame      Blame      `json:"blame"`
}

func (r CreateRefundRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Amount,
			validation.When(r.RefundType == RefundTypePartial,
				validation.Required.Error(messagePartialAmount),
			),
		),
		validation.Field(&r.RefundType, validation.Required, validation.In(RefundTypeFull, RefundTypePartial)),
		validation.Field(&r.Motive, validation.Required),
		validation.Field(&r.Blame, validation.Required, validation.In(BlameClient, BlameCustomer, BlameThirdParty)),
	)
}

type Refund struct {
	RefundID  string `json:"refund_id,omitempty"`
	PaymentID string `json:"payment_id,omitempty"`
	Amount    Amount `json:"amount,omitempty"`
	Currency  string `json:"currency,omitempty"`
	Status    string `json:"status,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

func (r Refund) Validate() error {
	return validation.ValidateStruct(&r, validation.Field(&r.Amount))
}
