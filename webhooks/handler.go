package webhooks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-talo/core"
	"github.com/goliatone/go-talo/schema"
)

const DefaultMaxBodyBytes int64 = 1 << 20 // 1 MiB

// DefaultClaimLease bounds how long a reserved delivery stays in flight
// before a redelivery may take it over.
const DefaultClaimLease = 30 * time.Second

const (
	MessageMissingSignature = "Missing webhook signature"
	MessageInvalidSignature = "Invalid webhook signature"
	MessageHandlerFailed    = "Webhook handler execution failed"
	MessageLookupFailed     = "Webhook payment lookup failed"
	MessageLedgerFailed     = "Webhook delivery could not be recorded"
	MessagePayloadTooLarge  = "Webhook payload too large"
	MessageReadFailed       = "Failed to process webhook payload"
)

type VerificationInput struct {
	Request   *http.Request
	RawBody   []byte
	Signature string
	// HasSignature is false when the signature header was absent.
	HasSignature bool
}

type PaymentFetcher interface {
	GetPayment(ctx context.Context, paymentID string) (schema.Payment, error)
}

type HandlerOptions struct {
	Secret          string
	SignatureHeader string
	VerifySignature func(ctx context.Context, input VerificationInput) (bool, error)

	OnEvent           func(ctx context.Context, event Event, r *http.Request) error
	OnPaymentUpdated  func(ctx context.Context, event PaymentUpdatedEvent, r *http.Request) error
	OnCustomerPayment func(ctx context.Context, event CustomerPaymentEvent, r *http.Request) error

	// Payments enables the lookup deployment: payment_updated events are
	// resolved against the API before OnPaymentResolved runs.
	Payments          PaymentFetcher
	OnPaymentResolved func(ctx context.Context, event PaymentUpdatedEvent, payment schema.Payment, r *http.Request) error

	Ledger DeliveryLedger
	// ClaimLease is how long a reservation may stay processing before a
	// redelivery reclaims it. Defaults to DefaultClaimLease.
	ClaimLease   time.Duration
	Logger       core.Logger
	MaxBodyBytes int64
}

type handler struct {
	opts   HandlerOptions
	logger core.Logger
}

func NewHandler(opts HandlerOptions) http.Handler {
	if strings.TrimSpace(opts.SignatureHeader) == "" {
		opts.SignatureHeader = DefaultSignatureHeader
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if opts.ClaimLease <= 0 {
		opts.ClaimLease = DefaultClaimLease
	}
	return &handler{
		opts:   opts,
		logger: core.ResolveLogger("talo.webhooks", nil, opts.Logger),
	}
}

// Handler is NewHandler as an http.HandlerFunc.
func Handler(opts HandlerOptions) http.HandlerFunc {
	return NewHandler(opts).ServeHTTP
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	rawBody, err := io.ReadAll(io.LimitReader(r.Body, h.opts.MaxBodyBytes+1))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(MessageReadFailed, nil))
		return
	}
	if int64(len(rawBody)) > h.opts.MaxBodyBytes {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorBody(MessagePayloadTooLarge, nil))
		return
	}

	if status, message := h.verify(ctx, r, rawBody); status != 0 {
		core.Log(ctx, h.logger, core.LevelWarn, "talo webhook rejected", map[string]any{
			"status": status,
			"reason": message,
		})
		writeJSON(w, status, errorBody(message, nil))
		return
	}

	event, err := Parse(rawBody)
	if err != nil {
		message := MessageInvalidJSON
		if rich, ok := core.AsError(err); ok {
			message = rich.Message
		}
		writeJSON(w, http.StatusBadRequest, errorBody(message, core.Details(err)))
		return
	}

	deliveryKey := DeliveryKey(rawBody)
	if h.opts.Ledger != nil {
		record, duplicate, err := h.opts.Ledger.Reserve(ctx, deliveryKey, event, h.opts.ClaimLease)
		if err != nil {
			core.Log(ctx, h.logger, core.LevelError, "talo webhook ledger reserve failed", map[string]any{
				"delivery_key": deliveryKey,
				"error":        err.Error(),
			})
			writeJSON(w, http.StatusInternalServerError, errorBody(MessageLedgerFailed, nil))
			return
		}
		if duplicate {
			core.Log(ctx, h.logger, core.LevelInfo, "talo webhook duplicate delivery", map[string]any{
				"delivery_key": deliveryKey,
				"status":       record.Status,
			})
			writeJSON(w, http.StatusOK, map[string]any{"received": true, "duplicate": true})
			return
		}
	}

	var payment *schema.Payment
	if event.PaymentUpdated != nil && h.opts.Payments != nil {
		resolved, err := h.opts.Payments.GetPayment(ctx, event.PaymentUpdated.PaymentID)
		if err != nil {
			h.release(ctx, deliveryKey, err)
			core.Log(ctx, h.logger, core.LevelError, "talo webhook payment lookup failed", map[string]any{
				"payment_id": event.PaymentUpdated.PaymentID,
				"error":      err.Error(),
			})
			writeJSON(w, http.StatusBadGateway, errorBody(MessageLookupFailed, nil))
			return
		}
		payment = &resolved
	}

	if err := h.dispatch(ctx, event, payment, r); err != nil {
		h.release(ctx, deliveryKey, err)
		core.Log(ctx, h.logger, core.LevelError, "talo webhook callback failed", map[string]any{
			"kind":      string(event.Kind),
			"reference": event.Reference(),
			"error":     err.Error(),
		})
		writeJSON(w, http.StatusInternalServerError, errorBody(MessageHandlerFailed, nil))
		return
	}

	if h.opts.Ledger != nil {
		if err := h.opts.Ledger.Complete(ctx, deliveryKey); err != nil {
			core.Log(ctx, h.logger, core.LevelWarn, "talo webhook ledger complete failed", map[string]any{
				"delivery_key": deliveryKey,
				"error":        err.Error(),
			})
		}
	}
	core.Log(ctx, h.logger, core.LevelDebug, "talo webhook handled", map[string]any{
		"kind":      string(event.Kind),
		"reference": event.Reference(),
	})
	writeJSON(w, http.StatusOK, map[string]any{"received": true})
}

// verify returns a non-zero status when the delivery must be rejected.
func (h *handler) verify(ctx context.Context, r *http.Request, rawBody []byte) (int, string) {
	values, present := r.Header[http.CanonicalHeaderKey(h.opts.SignatureHeader)]
	signature := ""
	if present && len(values) > 0 {
		signature = values[0]
	}

	if h.opts.VerifySignature != nil {
		ok, err := h.opts.VerifySignature(ctx, VerificationInput{
			Request:      r,
			RawBody:      rawBody,
			Signature:    signature,
			HasSignature: present,
		})
		if err != nil || !ok {
			return http.StatusUnauthorized, MessageInvalidSignature
		}
		return 0, ""
	}
	if h.opts.Secret == "" {
		return 0, ""
	}
	if !present {
		return http.StatusUnauthorized, MessageMissingSignature
	}
	if !VerifySignature(rawBody, h.opts.Secret, signature) {
		return http.StatusUnauthorized, MessageInvalidSignature
	}
	return 0, ""
}

func (h *handler) dispatch(ctx context.Context, event Event, payment *schema.Payment, r *http.Request) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("webhooks: callback panic: %v", recovered)
		}
	}()

	if h.opts.OnEvent != nil {
		if err := h.opts.OnEvent(ctx, event, r); err != nil {
			return err
		}
	}
	switch {
	case event.PaymentUpdated != nil:
		if h.opts.OnPaymentUpdated != nil {
			if err := h.opts.OnPaymentUpdated(ctx, *event.PaymentUpdated, r); err != nil {
				return err
			}
		}
		if payment != nil && h.opts.OnPaymentResolved != nil {
			if err := h.opts.OnPaymentResolved(ctx, *event.PaymentUpdated, *payment, r); err != nil {
				return err
			}
		}
	case event.CustomerPayment != nil:
		if h.opts.OnCustomerPayment != nil {
			if err := h.opts.OnCustomerPayment(ctx, *event.CustomerPayment, r); err != nil {
				return err
			}
		}
	default:
		return errors.New("webhooks: unclassified event")
	}
	return nil
}

func (h *handler) release(ctx context.Context, deliveryKey string, cause error) {
	if h.opts.Ledger == nil {
		return
	}
	if err := h.opts.Ledger.Release(ctx, deliveryKey, cause); err != nil {
		core.Log(ctx, h.logger, core.LevelWarn, "talo webhook ledger release failed", map[string]any{
			"delivery_key": deliveryKey,
			"error":        err.Error(),
		})
	}
}

func errorBody(message string, details any) map[string]any {
	body := map[string]any{"error": message}
	if details != nil {
		body["details"] = details
	}
	return body
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", core.MediaTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
