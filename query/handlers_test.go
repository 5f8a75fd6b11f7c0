package query

import (
	"context"
	"errors"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-talo/schema"
)

type stubReader struct {
	getPaymentFn     func(context.Context, string) (schema.Payment, error)
	getCustomerFn    func(context.Context, string) (schema.Customer, error)
	getTransactionFn func(context.Context, string, string) (schema.CustomerTransaction, error)
}

func (s stubReader) GetPayment(ctx context.Context, id string) (schema.Payment, error) {
	return s.getPaymentFn(ctx, id)
}

func (s stubReader) GetCustomer(ctx context.Context, id string) (schema.Customer, error) {
	return s.getCustomerFn(ctx, id)
}

func (s stubReader) GetCustomerTransaction(ctx context.Context, customerID string, transactionID string) (schema.CustomerTransaction, error) {
	return s.getTransactionFn(ctx, customerID, transactionID)
}

func TestGetPaymentQuery_QueryDelegates(t *testing.T) {
	reader := stubReader{getPaymentFn: func(_ context.Context, id string) (schema.Payment, error) {
		if id != "payment_1" {
			t.Fatalf("unexpected payment id %q", id)
		}
		return schema.Payment{ID: id, PaymentStatus: schema.PaymentStatusSuccess}, nil
	}}
	result, err := NewGetPaymentQuery(reader).Query(context.Background(), GetPaymentMessage{PaymentID: "payment_1"})
	if err != nil {
		t.Fatalf("query payment: %v", err)
	}
	if !result.PaymentStatus.Settled() {
		t.Fatalf("unexpected payment %#v", result)
	}
}

func TestCustomerQueries_Delegate(t *testing.T) {
	reader := stubReader{
		getCustomerFn: func(_ context.Context, id string) (schema.Customer, error) {
			return schema.Customer{CustomerID: id, Balance: "10"}, nil
		},
		getTransactionFn: func(_ context.Context, customerID string, transactionID string) (schema.CustomerTransaction, error) {
			if customerID != "customer_1" || transactionID != "tx_1" {
				t.Fatalf("unexpected transaction lookup %q %q", customerID, transactionID)
			}
			return schema.CustomerTransaction{TransactionID: transactionID, Status: schema.TransactionStatusProcessed}, nil
		},
	}
	customer, err := NewGetCustomerQuery(reader).Query(context.Background(), GetCustomerMessage{CustomerID: "customer_1"})
	if err != nil || customer.Balance != "10" {
		t.Fatalf("unexpected customer result %#v %v", customer, err)
	}
	tx, err := NewGetCustomerTransactionQuery(reader).Query(context.Background(), GetCustomerTransactionMessage{
		CustomerID:    "customer_1",
		TransactionID: "tx_1",
	})
	if err != nil || tx.Status != schema.TransactionStatusProcessed {
		t.Fatalf("unexpected transaction result %#v %v", tx, err)
	}
}

func TestQueries_PropagateReaderErrors(t *testing.T) {
	boom := errors.New("api down")
	reader := stubReader{getCustomerFn: func(context.Context, string) (schema.Customer, error) {
		return schema.Customer{}, boom
	}}
	if _, err := NewGetCustomerQuery(reader).Query(context.Background(), GetCustomerMessage{CustomerID: "c"}); !errors.Is(err, boom) {
		t.Fatalf("expected reader error, got %v", err)
	}
}

func TestMessages_ValidateReturnsRichError(t *testing.T) {
	cases := []interface{ Validate() error }{
		GetPaymentMessage{},
		GetCustomerMessage{CustomerID: " "},
		GetCustomerTransactionMessage{CustomerID: "c"},
	}
	for _, msg := range cases {
		var rich *goerrors.Error
		if !goerrors.As(msg.Validate(), &rich) {
			t.Fatalf("expected go-errors envelope for %T", msg)
		}
		if rich.Category != goerrors.CategoryValidation {
			t.Fatalf("expected validation category for %T, got %q", msg, rich.Category)
		}
	}
	if err := (GetCustomerTransactionMessage{CustomerID: "c", TransactionID: "t"}).Validate(); err != nil {
		t.Fatalf("expected valid message: %v", err)
	}
}

func TestGetPaymentQuery_NilReader(t *testing.T) {
	var q *GetPaymentQuery
	var rich *goerrors.Error
	if _, err := q.Query(context.Background(), GetPaymentMessage{PaymentID: "p"}); !goerrors.As(err, &rich) || rich.Category != goerrors.CategoryInternal {
		t.Fatalf("expected internal dependency error, got %v", err)
	}
}
