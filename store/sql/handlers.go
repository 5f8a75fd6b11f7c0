package sqlstore

import (
	"strings"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

func webhookDeliveryHandlers() repository.ModelHandlers[*webhookDeliveryRecord] {
	return repository.ModelHandlers[*webhookDeliveryRecord]{
		NewRecord: func() *webhookDeliveryRecord {
			return &webhookDeliveryRecord{}
		},
		GetID: func(record *webhookDeliveryRecord) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return parseUUID(record.ID)
		},
		SetID: func(record *webhookDeliveryRecord, id uuid.UUID) {
			if record == nil {
				return
			}
			record.ID = id.String()
		},
		GetIdentifier: func() string {
			return "delivery_key"
		},
		GetIdentifierValue: func(record *webhookDeliveryRecord) string {
			if record == nil {
				return ""
			}
			return strings.TrimSpace(record.DeliveryKey)
		},
	}
}

// Snapshots are keyed by the Talo payment id, which is not a UUID.
func paymentSnapshotHandlers() repository.ModelHandlers[*paymentSnapshotRecord] {
	return repository.ModelHandlers[*paymentSnapshotRecord]{
		NewRecord: func() *paymentSnapshotRecord {
			return &paymentSnapshotRecord{}
		},
		GetID: func(record *paymentSnapshotRecord) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return parseUUID(record.PaymentID)
		},
		SetID: func(*paymentSnapshotRecord, uuid.UUID) {},
		GetIdentifier: func() string {
			return "payment_id"
		},
		GetIdentifierValue: func(record *paymentSnapshotRecord) string {
			if record == nil {
				return ""
			}
			return strings.TrimSpace(record.PaymentID)
		},
	}
}

func parseUUID(value string) uuid.UUID {
	parsed, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil {
		return uuid.Nil
	}
	return parsed
}
