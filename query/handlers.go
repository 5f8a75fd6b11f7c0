// Package query exposes the Talo read operations as go-command queriers.
package query

import (
	"context"

	"github.com/goliatone/go-talo/schema"
)

type PaymentReader interface {
	GetPayment(ctx context.Context, paymentID string) (schema.Payment, error)
}

// CustomerReader is implemented by *talo.Client and by the cached reader in
// store/cache.
type CustomerReader interface {
	GetCustomer(ctx context.Context, customerID string) (schema.Customer, error)
	GetCustomerTransaction(ctx context.Context, customerID string, transactionID string) (schema.CustomerTransaction, error)
}

type GetPaymentQuery struct {
	reader PaymentReader
}

func NewGetPaymentQuery(reader PaymentReader) *GetPaymentQuery {
	return &GetPaymentQuery{reader: reader}
}

func (q *GetPaymentQuery) Query(ctx context.Context, msg GetPaymentMessage) (schema.Payment, error) {
	if q == nil || q.reader == nil {
		return schema.Payment{}, queryDependencyError("query: payment reader is required")
	}
	return q.reader.GetPayment(ctx, msg.PaymentID)
}

type GetCustomerQuery struct {
	reader CustomerReader
}

func NewGetCustomerQuery(reader CustomerReader) *GetCustomerQuery {
	return &GetCustomerQuery{reader: reader}
}

func (q *GetCustomerQuery) Query(ctx context.Context, msg GetCustomerMessage) (schema.Customer, error) {
	if q == nil || q.reader == nil {
		return schema.Customer{}, queryDependencyError("query: customer reader is required")
	}
	return q.reader.GetCustomer(ctx, msg.CustomerID)
}

type GetCustomerTransactionQuery struct {
	reader CustomerReader
}

func NewGetCustomerTransactionQuery(reader CustomerReader) *GetCustomerTransactionQuery {
	return &GetCustomerTransactionQuery{reader: reader}
}

func (q *GetCustomerTransactionQuery) Query(
	ctx context.Context,
	msg GetCustomerTransactionMessage,
) (schema.CustomerTransaction, error) {
	if q == nil || q.reader == nil {
		return schema.CustomerTransaction{}, queryDependencyError("query: customer reader is required")
	}
	return q.reader.GetCustomerTransaction(ctx, msg.CustomerID, msg.TransactionID)
}
