package schema

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

type Currency string

const CurrencyARS Currency = "ARS"

type PaymentOption string

const PaymentOptionTransfer PaymentOption = "transfer"

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusSuccess   PaymentStatus = "SUCCESS"
	PaymentStatusOverpaid  PaymentStatus = "OVERPAID"
	PaymentStatusUnderpaid PaymentStatus = "UNDERPAID"
	PaymentStatusExpired   PaymentStatus = "EXPIRED"
)

// Settled reports whether the payment received at least the requested amount.
func (s PaymentStatus) Settled() bool {
	return s == PaymentStatusSuccess || s == PaymentStatusOverpaid
}

var (
	currencyRule      = validation.In(CurrencyARS)
	paymentOptionRule = validation.In(PaymentOptionTransfer)
	paymentStatusRule = validation.In(
		PaymentStatusPending,
		PaymentStatusSuccess,
		PaymentStatusOverpaid,
		PaymentStatusUnderpaid,
		PaymentStatusExpired,
	)
)

type CreatePaymentPrice struct {
	Amount   float64  `json:"amount"`
	Currency Currency `json:"currency"`
}

func (p CreatePaymentPrice) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Currency, validation.Required, currencyRule),
	)
}

type Price struct {
	Amount   Amount   `json:"amount"`
	Currency Currency `json:"currency"`
}

func (p Price) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Amount, validation.Required),
		validation.Field(&p.Currency, validation.Required, currencyRule),
	)
}

type ClientData struct {
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Email     string `json:"email,omitempty"`
	DNI       string `json:"dni,omitempty"`
	CUIT      string `json:"cuit,omitempty"`
}

func (c ClientData) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Email, is.EmailFormat),
	)
}

type CreatePaymentRequest struct {
	UserID         string             `json:"user_id"`
	Price          CreatePaymentPrice `json:"price"`
	PaymentOptions []PaymentOption    `json:"payment_options"`
	ExternalID     string             `json:"external_id"`
	WebhookURL     string             `json:"webhook_url"`
	RedirectURL    string             `json:"redirect_url,omitempty"`
	Motive         string             `json:"motive,omitempty"`
	ClientData     *ClientData        `json:"client_data,omitempty"`
}

func (r CreatePaymentRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.UserID, validation.Required),
		validation.Field(&r.Price),
		validation.Field(&r.PaymentOptions, validation.Required, validation.Each(paymentOptionRule)),
		validation.Field(&r.ExternalID, validation.Required),
		validation.Field(&r.WebhookURL, validation.Required, is.URL),
		validation.Field(&r.RedirectURL, is.URL),
		validation.Field(&r.ClientData),
	)
}

type UpdatePaymentMetadataRequest struct {
	Motive string `json:"motive"`
}

func (r UpdatePaymentMetadataRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Motive, validation.Required),
	)
}

type Quote struct {
	Amount   Amount `json:"amount,omitempty"`
	Network  string `json:"network,omitempty"`
	Currency string `json:"currency,omitempty"`
	Address  string `json:"address,omitempty"`
	CVU      string `json:"cvu,omitempty"`
	Alias    string `json:"alias,omitempty"`
}

func (q Quote) Validate() error {
	return validation.ValidateStruct(&q, validation.Field(&q.Amount))
}

type TransactionField struct {
	Amount Amount `json:"amount,omitempty"`
	CVU    string `json:"cvu,omitempty"`
	Alias  string `json:"alias,omitempty"`
}

func (f TransactionField) Validate() error {
	return validation.ValidateStruct(&f, validation.Field(&f.Amount))
}

type Transaction struct {
	Amount          Amount `json:"amount,omitempty"`
	Currency        string `json:"currency,omitempty"`
	PaymentDate     string `json:"payment_date,omitempty"`
	BeneficiaryName string `json:"beneficiary_name,omitempty"`
	CUIT            string `json:"cuit,omitempty"`
	CBU             string `json:"cbu,omitempty"`
	CVU             string `json:"cvu,omitempty"`
	Alias           string `json:"alias,omitempty"`
}

func (t Transaction) Validate() error {
	return validation.ValidateStruct(&t, validation.Field(&t.Amount))
}

type Payment struct {
	ID                    string             `json:"id"`
	PaymentStatus         PaymentStatus      `json:"payment_status"`
	UserID                string             `json:"user_id,omitempty"`
	Quotes                []Quote            `json:"quotes,omitempty"`
	TransactionFields     []TransactionField `json:"transaction_fields,omitempty"`
	Transactions          []Transaction      `json:"transactions,omitempty"`
	PaymentURL            string             `json:"payment_url,omitempty"`
	ExternalID            string             `json:"external_id,omitempty"`
	ExpirationTimestamp   string             `json:"expiration_timestamp,omitempty"`
	CreationTimestamp     string             `json:"creation_timestamp,omitempty"`
	LastModifiedTimestamp string             `json:"last_modified_timestamp,omitempty"`
	Price                 *Price             `json:"price,omitempty"`
	PaymentOptions        []PaymentOption    `json:"payment_options,omitempty"`
	WebhookURL            string             `json:"webhook_url,omitempty"`
	RedirectURL           string             `json:"redirect_url,omitempty"`
	Motive                string             `json:"motive,omitempty"`
	ClientData            *ClientData        `json:"client_data,omitempty"`
	Metadata              map[string]any     `json:"metadata,omitempty"`
}

func (p Payment) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.ID, validation.Required),
		validation.Field(&p.PaymentStatus, validation.Required, paymentStatusRule),
		validation.Field(&p.PaymentURL, is.URL),
		validation.Field(&p.Price),
		validation.Field(&p.PaymentOptions, validation.Each(paymentOptionRule)),
		validation.Field(&p.Quotes),
		validation.Field(&p.Transactions),
		validation.Field(&p.TransactionFields),
	)
}
