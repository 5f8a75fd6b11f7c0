package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-talo/schema"
	"github.com/goliatone/go-talo/webhooks"
	"github.com/uptrace/bun"
)

// PaymentSnapshot is the last payment state observed through a webhook
// lookup.
type PaymentSnapshot struct {
	PaymentID     string
	ExternalID    string
	PaymentStatus schema.PaymentStatus
	Payment       schema.Payment
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type PaymentSnapshotStore struct {
	db   *bun.DB
	repo repository.Repository[*paymentSnapshotRecord]
	now  func() time.Time
}

func NewPaymentSnapshotStore(db *bun.DB) (*PaymentSnapshotStore, error) {
	if db == nil {
		return nil, configError("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*paymentSnapshotRecord](db, paymentSnapshotHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, configError("sqlstore: invalid payment snapshot repository wiring: " + err.Error())
		}
	}
	return &PaymentSnapshotStore{
		db:   db,
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}, nil
}

// Save inserts or replaces the snapshot of payment.
func (s *PaymentSnapshotStore) Save(ctx context.Context, payment schema.Payment) error {
	if s == nil || s.db == nil {
		return configError("sqlstore: payment snapshot store is not configured")
	}
	paymentID := strings.TrimSpace(payment.ID)
	if paymentID == "" {
		return configError("sqlstore: payment id is required")
	}
	payload, err := paymentPayload(payment)
	if err != nil {
		return err
	}
	now := s.now()

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		existing := &paymentSnapshotRecord{}
		err := tx.NewSelect().
			Model(existing).
			Where("?TableAlias.payment_id = ?", paymentID).
			Limit(1).
			Scan(ctx)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		record := &paymentSnapshotRecord{
			PaymentID:     paymentID,
			ExternalID:    strings.TrimSpace(payment.ExternalID),
			PaymentStatus: string(payment.PaymentStatus),
			Payload:       payload,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if errors.Is(err, sql.ErrNoRows) {
			_, insertErr := tx.NewInsert().Model(record).Exec(ctx)
			return insertErr
		}
		record.CreatedAt = existing.CreatedAt
		_, updateErr := tx.NewUpdate().
			Model(record).
			Where("payment_id = ?", paymentID).
			Exec(ctx)
		return updateErr
	})
}

// Resolved adapts Save to the webhook lookup callback.
func (s *PaymentSnapshotStore) Resolved(
	ctx context.Context,
	_ webhooks.PaymentUpdatedEvent,
	payment schema.Payment,
	_ *http.Request,
) error {
	return s.Save(ctx, payment)
}

func (s *PaymentSnapshotStore) Get(ctx context.Context, paymentID string) (PaymentSnapshot, error) {
	if s == nil || s.repo == nil {
		return PaymentSnapshot{}, configError("sqlstore: payment snapshot store is not configured")
	}
	paymentID = strings.TrimSpace(paymentID)
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("payment_id", "=", paymentID),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return PaymentSnapshot{}, err
	}
	if len(records) == 0 {
		return PaymentSnapshot{}, notFoundError("sqlstore: payment snapshot not found", map[string]any{
			"payment_id": paymentID,
		})
	}
	return paymentSnapshotToDomain(records[0])
}

// ListByExternalID returns every snapshot that carries externalID, most
// recently updated first.
func (s *PaymentSnapshotStore) ListByExternalID(ctx context.Context, externalID string) ([]PaymentSnapshot, error) {
	if s == nil || s.repo == nil {
		return nil, configError("sqlstore: payment snapshot store is not configured")
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("external_id", "=", strings.TrimSpace(externalID)),
		repository.OrderBy("updated_at DESC"),
	)
	if err != nil {
		return nil, err
	}
	out := make([]PaymentSnapshot, 0, len(records))
	for _, record := range records {
		snapshot, convErr := paymentSnapshotToDomain(record)
		if convErr != nil {
			return nil, convErr
		}
		out = append(out, snapshot)
	}
	return out, nil
}

func paymentPayload(payment schema.Payment) (map[string]any, error) {
	encoded, err := json.Marshal(payment)
	if err != nil {
		return nil, err
	}
	payload := map[string]any{}
	if err := json.Unmarshal(encoded, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func paymentSnapshotToDomain(record *paymentSnapshotRecord) (PaymentSnapshot, error) {
	snapshot := PaymentSnapshot{
		PaymentID:     record.PaymentID,
		ExternalID:    record.ExternalID,
		PaymentStatus: schema.PaymentStatus(record.PaymentStatus),
		CreatedAt:     record.CreatedAt,
		UpdatedAt:     record.UpdatedAt,
	}
	if len(record.Payload) == 0 {
		return snapshot, nil
	}
	encoded, err := json.Marshal(record.Payload)
	if err != nil {
		return PaymentSnapshot{}, err
	}
	if err := json.Unmarshal(encoded, &snapshot.Payment); err != nil {
		return PaymentSnapshot{}, err
	}
	return snapshot, nil
}
