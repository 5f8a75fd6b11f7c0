package talo

import (
	"io"
	"net/http"

	"github.com/goliatone/go-talo/core"
	"github.com/goliatone/go-talo/webhooks"
)

type Webhooks struct {
	payments *Payments
	logger   core.Logger
}

// Handler serves inbound deliveries with opts. The client logger is used
// when opts carries none.
func (w *Webhooks) Handler(opts webhooks.HandlerOptions) http.Handler {
	if opts.Logger == nil {
		opts.Logger = w.logger
	}
	return webhooks.NewHandler(opts)
}

// PaymentHandler serves deliveries in lookup mode: each payment_updated
// event is resolved through this client before onResolved runs.
func (w *Webhooks) PaymentHandler(opts webhooks.HandlerOptions) http.Handler {
	if opts.Payments == nil {
		opts.Payments = w.payments
	}
	return w.Handler(opts)
}

// Parse reads and classifies the body of r.
func (w *Webhooks) Parse(r *http.Request) (webhooks.Event, error) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, webhooks.DefaultMaxBodyBytes))
	if err != nil {
		return webhooks.Event{}, err
	}
	return webhooks.Parse(raw)
}

func (w *Webhooks) ParseRaw(raw []byte) (webhooks.Event, error) {
	return webhooks.Parse(raw)
}

func (w *Webhooks) VerifySignature(payload []byte, secret string, signature string) bool {
	return webhooks.VerifySignature(payload, secret, signature)
}
