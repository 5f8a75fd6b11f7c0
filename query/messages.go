package query

import "strings"

const (
	TypeGetPayment             = "talo.query.payment.get"
	TypeGetCustomer            = "talo.query.customer.get"
	TypeGetCustomerTransaction = "talo.query.customer_transaction.get"
)

type GetPaymentMessage struct {
	PaymentID string
}

func (GetPaymentMessage) Type() string { return TypeGetPayment }

func (m GetPaymentMessage) Validate() error {
	if strings.TrimSpace(m.PaymentID) == "" {
		return queryValidationError("payment_id", "payment id is required")
	}
	return nil
}

type GetCustomerMessage struct {
	CustomerID string
}

func (GetCustomerMessage) Type() string { return TypeGetCustomer }

func (m GetCustomerMessage) Validate() error {
	if strings.TrimSpace(m.CustomerID) == "" {
		return queryValidationError("customer_id", "customer id is required")
	}
	return nil
}

type GetCustomerTransactionMessage struct {
	CustomerID    string
	TransactionID string
}

func (GetCustomerTransactionMessage) Type() string { return TypeGetCustomerTransaction }

func (m GetCustomerTransactionMessage) Validate() error {
	if strings.TrimSpace(m.CustomerID) == "" {
		return queryValidationError("customer_id", "customer id is required")
	}
	if strings.TrimSpace(m.TransactionID) == "" {
		return queryValidationError("transaction_id", "transaction id is required")
	}
	return nil
}
