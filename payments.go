package talo

import (
	"context"
	"net/http"

	"github.com/goliatone/go-talo/core"
	"github.com/goliatone/go-talo/schema"
)

type Payments struct {
	exec *core.Executor
}

func (p *Payments) Create(ctx context.Context, req schema.CreatePaymentRequest) (schema.Payment, error) {
	var out schema.PaymentEnvelope
	if err := p.exec.Do(ctx, core.Call{Method: http.MethodPost, Path: "/payments/", Body: req}, &out); err != nil {
		return schema.Payment{}, err
	}
	return out.Data, nil
}

func (p *Payments) Get(ctx context.Context, paymentID string) (schema.Payment, error) {
	id, err := identifier("payment_id", paymentID)
	if err != nil {
		return schema.Payment{}, err
	}
	var out schema.PaymentEnvelope
	if err := p.exec.Do(ctx, core.Call{Method: http.MethodGet, Path: "/payments/" + id}, &out); err != nil {
		return schema.Payment{}, err
	}
	return out.Data, nil
}

// GetPayment lets Payments serve as the webhook payment lookup.
func (p *Payments) GetPayment(ctx context.Context, paymentID string) (schema.Payment, error) {
	return p.Get(ctx, paymentID)
}

func (p *Payments) UpdateMetadata(ctx context.Context, paymentID string, req schema.UpdatePaymentMetadataRequest) (schema.Payment, error) {
	id, err := identifier("payment_id", paymentID)
	if err != nil {
		return schema.Payment{}, err
	}
	var out schema.PaymentEnvelope
	if err := p.exec.Do(ctx, core.Call{Method: http.MethodPut, Path: "/payments/" + id + "/metadata", Body: req}, &out); err != nil {
		return schema.Payment{}, err
	}
	return out.Data, nil
}

// CreateRefund is Refunds.Create reached through the payment group.
func (p *Payments) CreateRefund(ctx context.Context, paymentID string, req schema.CreateRefundRequest) (schema.Refund, error) {
	return (&Refunds{exec: p.exec}).Create(ctx, paymentID, req)
}
