package talo

import (
	"context"
	"net/http"

	"github.com/goliatone/go-talo/core"
	"github.com/goliatone/go-talo/schema"
)

type Refunds struct {
	exec *core.Executor
}

func (r *Refunds) Create(ctx context.Context, paymentID string, req schema.CreateRefundRequest) (schema.Refund, error) {
	id, err := identifier("payment_id", paymentID)
	if err != nil {
		return schema.Refund{}, err
	}
	var out schema.RefundEnvelope
	if err := r.exec.Do(ctx, core.Call{Method: http.MethodPost, Path: "/payments/" + id + "/refunds", Body: req}, &out); err != nil {
		return schema.Refund{}, err
	}
	return out.Data, nil
}
