package webhooks

import (
	"encoding/json"
	"sort"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-talo/core"
)

type EventKind string

const (
	EventKindPaymentUpdated  EventKind = "payment_updated"
	EventKindCustomerPayment EventKind = "customer_payment"
)

const (
	MessageInvalidJSON      = "Invalid webhook JSON payload"
	MessageValidationFailed = "Webhook payload failed validation"

	ErrorCodeInvalidJSON    = "TALO_WEBHOOK_INVALID_JSON"
	ErrorCodeInvalidPayload = "TALO_WEBHOOK_INVALID_PAYLOAD"
)

var (
	paymentUpdatedFields  = []string{"message", "paymentId", "externalId"}
	customerPaymentFields = []string{"message", "customerId", "transactionId"}
)

type PaymentUpdatedEvent struct {
	Message    string `json:"message"`
	PaymentID  string `json:"paymentId"`
	ExternalID string `json:"externalId"`
}

type CustomerPaymentEvent struct {
	Message       string `json:"message"`
	CustomerID    string `json:"customerId"`
	TransactionID string `json:"transactionId"`
}

// Event is exactly one of PaymentUpdated or CustomerPayment. Extra keeps
// every payload field outside the variant's own.
type Event struct {
	Kind            EventKind
	PaymentUpdated  *PaymentUpdatedEvent
	CustomerPayment *CustomerPaymentEvent
	Extra           map[string]any
	RawBody         []byte
}

// Message returns the human readable message of either variant.
func (e Event) Message() string {
	switch {
	case e.PaymentUpdated != nil:
		return e.PaymentUpdated.Message
	case e.CustomerPayment != nil:
		return e.CustomerPayment.Message
	}
	return ""
}

// Reference returns the primary identifier of the event: the payment id or
// the transaction id.
func (e Event) Reference() string {
	switch {
	case e.PaymentUpdated != nil:
		return e.PaymentUpdated.PaymentID
	case e.CustomerPayment != nil:
		return e.CustomerPayment.TransactionID
	}
	return ""
}

// Parse decodes and classifies a raw webhook body.
func Parse(raw []byte) (Event, error) {
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return Event{}, goerrors.Wrap(err, goerrors.CategoryBadInput, MessageInvalidJSON).
			WithCode(400).
			WithTextCode(ErrorCodeInvalidJSON)
	}
	fields, ok := decoded.(map[string]any)
	if !ok {
		return Event{}, payloadError(goerrors.FieldError{Field: "body", Message: "must be a JSON object"})
	}

	kind, err := Classify(fields)
	if err != nil {
		return Event{}, err
	}

	event := Event{Kind: kind, RawBody: append([]byte(nil), raw...)}
	var known []string
	switch kind {
	case EventKindPaymentUpdated:
		event.PaymentUpdated = &PaymentUpdatedEvent{
			Message:    fields["message"].(string),
			PaymentID:  fields["paymentId"].(string),
			ExternalID: fields["externalId"].(string),
		}
		known = paymentUpdatedFields
	case EventKindCustomerPayment:
		event.CustomerPayment = &CustomerPaymentEvent{
			Message:       fields["message"].(string),
			CustomerID:    fields["customerId"].(string),
			TransactionID: fields["transactionId"].(string),
		}
		known = customerPaymentFields
	}
	event.Extra = extraFields(fields, known)
	return event, nil
}

// Classify resolves the event variant from field presence. A payload that
// satisfies both variants, or neither, is rejected rather than guessed.
func Classify(fields map[string]any) (EventKind, error) {
	payment := missingStringFields(fields, paymentUpdatedFields)
	customer := missingStringFields(fields, customerPaymentFields)

	switch {
	case len(payment) == 0 && len(customer) == 0:
		return "", payloadError(goerrors.FieldError{
			Field:   "body",
			Message: "payload matches both payment_updated and customer_payment shapes",
		})
	case len(payment) == 0:
		return EventKindPaymentUpdated, nil
	case len(customer) == 0:
		return EventKindCustomerPayment, nil
	}

	// Report against the variant the payload was closer to.
	missing := payment
	if len(customer) < len(payment) {
		missing = customer
	}
	return "", payloadError(missing...)
}

func missingStringFields(fields map[string]any, required []string) []goerrors.FieldError {
	var missing []goerrors.FieldError
	for _, key := range required {
		value, ok := fields[key]
		if !ok || value == nil {
			missing = append(missing, goerrors.FieldError{Field: key, Message: "is required"})
			continue
		}
		if _, ok := value.(string); !ok {
			missing = append(missing, goerrors.FieldError{Field: key, Message: "must be a string"})
		}
	}
	return missing
}

func payloadError(fields ...goerrors.FieldError) *goerrors.Error {
	err := goerrors.NewValidation(MessageValidationFailed, fields...).
		WithCode(400).
		WithTextCode(ErrorCodeInvalidPayload)
	err.WithMetadata(map[string]any{core.MetaDetails: fieldDetails(fields)})
	return err
}

func fieldDetails(fields []goerrors.FieldError) []map[string]string {
	details := make([]map[string]string, 0, len(fields))
	for _, field := range fields {
		details = append(details, map[string]string{"field": field.Field, "message": field.Message})
	}
	sort.SliceStable(details, func(i, j int) bool { return details[i]["field"] < details[j]["field"] })
	return details
}

func extraFields(fields map[string]any, known []string) map[string]any {
	extra := map[string]any{}
	for key, value := range fields {
		extra[key] = value
	}
	for _, key := range known {
		delete(extra, key)
	}
	return extra
}
