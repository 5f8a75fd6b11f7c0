package command

import (
	"context"
	"errors"
	"testing"

	gocmd "github.com/goliatone/go-command"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-talo/core"
	"github.com/goliatone/go-talo/schema"
)

type stubMutatingService struct {
	createPaymentFn  func(context.Context, schema.CreatePaymentRequest) (schema.Payment, error)
	updateMetadataFn func(context.Context, string, schema.UpdatePaymentMetadataRequest) (schema.Payment, error)
	createRefundFn   func(context.Context, string, schema.CreateRefundRequest) (schema.Refund, error)
	createCustomerFn func(context.Context, schema.CreateCustomerRequest) (schema.Customer, error)
	faucetFn         func(context.Context, string, schema.FaucetRequest) (schema.FaucetResponse, error)
}

func (s stubMutatingService) CreatePayment(ctx context.Context, req schema.CreatePaymentRequest) (schema.Payment, error) {
	return s.createPaymentFn(ctx, req)
}

func (s stubMutatingService) UpdatePaymentMetadata(ctx context.Context, id string, req schema.UpdatePaymentMetadataRequest) (schema.Payment, error) {
	return s.updateMetadataFn(ctx, id, req)
}

func (s stubMutatingService) CreateRefund(ctx context.Context, id string, req schema.CreateRefundRequest) (schema.Refund, error) {
	return s.createRefundFn(ctx, id, req)
}

func (s stubMutatingService) CreateCustomer(ctx context.Context, req schema.CreateCustomerRequest) (schema.Customer, error) {
	return s.createCustomerFn(ctx, req)
}

func (s stubMutatingService) SimulateCvuTransfer(ctx context.Context, cvu string, req schema.FaucetRequest) (schema.FaucetResponse, error) {
	return s.faucetFn(ctx, cvu, req)
}

func TestCreatePaymentCommand_ExecuteDelegatesAndStoresResult(t *testing.T) {
	called := false
	svc := stubMutatingService{
		createPaymentFn: func(_ context.Context, req schema.CreatePaymentRequest) (schema.Payment, error) {
			called = true
			if req.ExternalID != "order_1" {
				t.Fatalf("unexpected external id %q", req.ExternalID)
			}
			return schema.Payment{ID: "payment_1", PaymentStatus: schema.PaymentStatusPending}, nil
		},
	}

	cmd := NewCreatePaymentCommand(svc)
	collector := gocmd.NewResult[schema.Payment]()
	ctx := gocmd.ContextWithResult(context.Background(), collector)

	if err := cmd.Execute(ctx, CreatePaymentMessage{Request: schema.CreatePaymentRequest{ExternalID: "order_1"}}); err != nil {
		t.Fatalf("execute create payment: %v", err)
	}
	if !called {
		t.Fatalf("expected payment service invocation")
	}
	result, ok := collector.Load()
	if !ok || result.ID != "payment_1" {
		t.Fatalf("unexpected stored result %#v (ok=%v)", result, ok)
	}
}

func TestMutationCommands_DelegateToService(t *testing.T) {
	t.Run("update metadata", func(t *testing.T) {
		svc := stubMutatingService{
			updateMetadataFn: func(_ context.Context, id string, req schema.UpdatePaymentMetadataRequest) (schema.Payment, error) {
				if id != "payment_1" || req.Motive != "gift" {
					t.Fatalf("unexpected update payload %q %#v", id, req)
				}
				return schema.Payment{ID: id}, nil
			},
		}
		err := NewUpdatePaymentMetadataCommand(svc).Execute(context.Background(), UpdatePaymentMetadataMessage{
			PaymentID: "payment_1",
			Request:   schema.UpdatePaymentMetadataRequest{Motive: "gift"},
		})
		if err != nil {
			t.Fatalf("execute update metadata: %v", err)
		}
	})

	t.Run("refund", func(t *testing.T) {
		collector := gocmd.NewResult[schema.Refund]()
		ctx := gocmd.ContextWithResult(context.Background(), collector)
		svc := stubMutatingService{
			createRefundFn: func(_ context.Context, id string, _ schema.CreateRefundRequest) (schema.Refund, error) {
				return schema.Refund{RefundID: "refund_1", PaymentID: id}, nil
			},
		}
		if err := NewCreateRefundCommand(svc).Execute(ctx, CreateRefundMessage{PaymentID: "payment_1"}); err != nil {
			t.Fatalf("execute refund: %v", err)
		}
		result, ok := collector.Load()
		if !ok || result.PaymentID != "payment_1" {
			t.Fatalf("unexpected refund result %#v", result)
		}
	})

	t.Run("customer", func(t *testing.T) {
		svc := stubMutatingService{
			createCustomerFn: func(_ context.Context, req schema.CreateCustomerRequest) (schema.Customer, error) {
				return schema.Customer{CustomerID: "customer_1", Email: req.Email}, nil
			},
		}
		if err := NewCreateCustomerCommand(svc).Execute(context.Background(), CreateCustomerMessage{}); err != nil {
			t.Fatalf("execute create customer: %v", err)
		}
	})

	t.Run("faucet propagates errors", func(t *testing.T) {
		boom := errors.New("sandbox unavailable")
		svc := stubMutatingService{
			faucetFn: func(context.Context, string, schema.FaucetRequest) (schema.FaucetResponse, error) {
				return schema.FaucetResponse{}, boom
			},
		}
		err := NewSimulateCvuTransferCommand(svc).Execute(context.Background(), SimulateCvuTransferMessage{CVU: "000"})
		if !errors.Is(err, boom) {
			t.Fatalf("expected service error, got %v", err)
		}
	})
}

func TestMessages_ValidateReturnsRichError(t *testing.T) {
	cases := []struct {
		name  string
		msg   interface{ Validate() error }
		field string
	}{
		{"update metadata without id", UpdatePaymentMetadataMessage{Request: schema.UpdatePaymentMetadataRequest{Motive: "m"}}, "payment_id"},
		{"refund without id", CreateRefundMessage{}, "payment_id"},
		{"faucet without cvu", SimulateCvuTransferMessage{Request: schema.FaucetRequest{Amount: "1"}}, "cvu"},
		{"partial refund without amount", CreateRefundMessage{PaymentID: "p", Request: schema.CreateRefundRequest{
			RefundType: schema.RefundTypePartial, Motive: "m", Blame: schema.BlameClient,
		}}, "amount"},
		{"payment without user", CreatePaymentMessage{}, "user_id"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.msg.Validate()
			var rich *goerrors.Error
			if !goerrors.As(err, &rich) {
				t.Fatalf("expected go-errors envelope, got %T (%v)", err, err)
			}
			if rich.Category != goerrors.CategoryValidation {
				t.Fatalf("expected validation category, got %q", rich.Category)
			}
			if rich.TextCode != core.ErrorCodeInvalidRequest {
				t.Fatalf("expected %q text code, got %q", core.ErrorCodeInvalidRequest, rich.TextCode)
			}
			found := false
			for _, field := range rich.ValidationErrors {
				if field.Field == tc.field {
					found = true
				}
			}
			if !found {
				t.Fatalf("expected field %q in %#v", tc.field, rich.ValidationErrors)
			}
		})
	}
}

func TestMessages_ValidAndTyped(t *testing.T) {
	msg := CreateRefundMessage{PaymentID: "p", Request: schema.CreateRefundRequest{
		RefundType: schema.RefundTypeFull, Motive: "m", Blame: schema.BlameCustomer,
	}}
	if err := msg.Validate(); err != nil {
		t.Fatalf("expected valid refund message: %v", err)
	}
	if msg.Type() != TypeCreateRefund {
		t.Fatalf("unexpected type %q", msg.Type())
	}
}

func TestCreatePaymentCommand_NilServiceReturnsRichError(t *testing.T) {
	var cmd *CreatePaymentCommand
	err := cmd.Execute(context.Background(), CreatePaymentMessage{})
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.Category != goerrors.CategoryInternal {
		t.Fatalf("expected internal category, got %q", rich.Category)
	}
}
