package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

type webhookDeliveryRecord struct {
	bun.BaseModel `bun:"table:talo_webhook_deliveries,alias:twd"`

	ID          string    `bun:"id,pk"`
	DeliveryKey string    `bun:"delivery_key,notnull"`
	EventKind   string    `bun:"event_kind,notnull"`
	Reference   string    `bun:"reference,notnull"`
	Status      string    `bun:"status,notnull"`
	Attempts    int       `bun:"attempts,notnull"`
	LastError   string    `bun:"last_error,notnull"`
	Payload     []byte    `bun:"payload"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt   time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type paymentSnapshotRecord struct {
	bun.BaseModel `bun:"table:talo_payment_snapshots,alias:tps"`

	PaymentID     string         `bun:"payment_id,pk"`
	ExternalID    string         `bun:"external_id,notnull"`
	PaymentStatus string         `bun:"payment_status,notnull"`
	Payload       map[string]any `bun:"payload,type:jsonb,notnull"`
	CreatedAt     time.Time      `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt     time.Time      `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}
