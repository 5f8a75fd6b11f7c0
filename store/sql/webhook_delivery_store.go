package sqlstore

import (
	"context"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-talo/webhooks"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// WebhookDeliveryStore is a webhooks.DeliveryLedger backed by the
// talo_webhook_deliveries table. The unique delivery_key index arbitrates
// concurrent reservations across processes.
type WebhookDeliveryStore struct {
	db   *bun.DB
	repo repository.Repository[*webhookDeliveryRecord]
	now  func() time.Time
}

type WebhookDeliveryStoreOption func(*WebhookDeliveryStore)

// WithWebhookDeliveryClock sets the clock used for timestamps and lease
// checks.
func WithWebhookDeliveryClock(now func() time.Time) WebhookDeliveryStoreOption {
	return func(s *WebhookDeliveryStore) {
		if now != nil {
			s.now = now
		}
	}
}

func NewWebhookDeliveryStore(db *bun.DB, opts ...WebhookDeliveryStoreOption) (*WebhookDeliveryStore, error) {
	if db == nil {
		return nil, configError("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*webhookDeliveryRecord](db, webhookDeliveryHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, configError("sqlstore: invalid webhook delivery repository wiring: " + err.Error())
		}
	}
	store := &WebhookDeliveryStore{
		db:   db,
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}
	return store, nil
}

func (s *WebhookDeliveryStore) Reserve(
	ctx context.Context,
	deliveryKey string,
	event webhooks.Event,
	lease time.Duration,
) (webhooks.DeliveryRecord, bool, error) {
	if s == nil || s.db == nil {
		return webhooks.DeliveryRecord{}, false, configError("sqlstore: webhook delivery store is not configured")
	}
	deliveryKey = strings.TrimSpace(deliveryKey)
	if deliveryKey == "" {
		return webhooks.DeliveryRecord{}, false, configError("sqlstore: delivery key is required")
	}

	now := s.now()
	record := &webhookDeliveryRecord{
		ID:          uuid.NewString(),
		DeliveryKey: deliveryKey,
		EventKind:   string(event.Kind),
		Reference:   event.Reference(),
		Status:      webhooks.DeliveryStatusProcessing,
		Attempts:    1,
		Payload:     append([]byte(nil), event.RawBody...),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := s.db.NewInsert().Model(record).Exec(ctx); err != nil {
		if !isUniqueViolation(err) {
			return webhooks.DeliveryRecord{}, false, err
		}
		return s.reclaim(ctx, deliveryKey, lease)
	}
	return webhookDeliveryToDomain(record), false, nil
}

// reclaim re-reserves a failed delivery or a processing one whose lease
// has passed. The update is conditioned on the observed status and attempt
// count, so only one caller can win it; everyone else sees a duplicate.
func (s *WebhookDeliveryStore) reclaim(
	ctx context.Context,
	deliveryKey string,
	lease time.Duration,
) (webhooks.DeliveryRecord, bool, error) {
	existing, err := s.Get(ctx, deliveryKey)
	if err != nil {
		return webhooks.DeliveryRecord{}, false, err
	}
	if !webhooks.Reclaimable(existing, lease, s.now()) {
		return existing, true, nil
	}

	res, err := s.db.NewUpdate().
		Model((*webhookDeliveryRecord)(nil)).
		Set("status = ?", webhooks.DeliveryStatusProcessing).
		Set("attempts = attempts + 1").
		Set("updated_at = ?", s.now()).
		Where("delivery_key = ?", deliveryKey).
		Where("status = ?", existing.Status).
		Where("attempts = ?", existing.Attempts).
		Exec(ctx)
	if err != nil {
		return webhooks.DeliveryRecord{}, false, err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		current, getErr := s.Get(ctx, deliveryKey)
		if getErr != nil {
			return webhooks.DeliveryRecord{}, false, getErr
		}
		return current, true, nil
	}
	current, err := s.Get(ctx, deliveryKey)
	if err != nil {
		return webhooks.DeliveryRecord{}, false, err
	}
	return current, false, nil
}

func (s *WebhookDeliveryStore) Get(ctx context.Context, deliveryKey string) (webhooks.DeliveryRecord, error) {
	if s == nil || s.repo == nil {
		return webhooks.DeliveryRecord{}, configError("sqlstore: webhook delivery store is not configured")
	}
	deliveryKey = strings.TrimSpace(deliveryKey)
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("delivery_key", "=", deliveryKey),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return webhooks.DeliveryRecord{}, err
	}
	if len(records) == 0 {
		return webhooks.DeliveryRecord{}, notFoundError("sqlstore: webhook delivery not found", map[string]any{
			"delivery_key": deliveryKey,
		})
	}
	return webhookDeliveryToDomain(records[0]), nil
}

// ListByStatus returns deliveries in status, oldest update first.
func (s *WebhookDeliveryStore) ListByStatus(ctx context.Context, status string, limit int) ([]webhooks.DeliveryRecord, error) {
	if s == nil || s.repo == nil {
		return nil, configError("sqlstore: webhook delivery store is not configured")
	}
	if limit <= 0 {
		limit = 100
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("status", "=", strings.TrimSpace(status)),
		repository.OrderBy("updated_at ASC"),
		repository.SelectPaginate(limit, 0),
	)
	if err != nil {
		return nil, err
	}
	out := make([]webhooks.DeliveryRecord, 0, len(records))
	for _, record := range records {
		out = append(out, webhookDeliveryToDomain(record))
	}
	return out, nil
}

func (s *WebhookDeliveryStore) Complete(ctx context.Context, deliveryKey string) error {
	return s.transition(ctx, deliveryKey, webhooks.DeliveryStatusProcessed, nil)
}

func (s *WebhookDeliveryStore) Release(ctx context.Context, deliveryKey string, cause error) error {
	return s.transition(ctx, deliveryKey, webhooks.DeliveryStatusFailed, cause)
}

func (s *WebhookDeliveryStore) transition(ctx context.Context, deliveryKey string, status string, cause error) error {
	if s == nil || s.db == nil {
		return configError("sqlstore: webhook delivery store is not configured")
	}
	deliveryKey = strings.TrimSpace(deliveryKey)
	query := s.db.NewUpdate().
		Model((*webhookDeliveryRecord)(nil)).
		Set("status = ?", status).
		Set("updated_at = ?", s.now()).
		Where("delivery_key = ?", deliveryKey)
	if cause != nil {
		query = query.Set("last_error = ?", cause.Error())
	}
	res, err := query.Exec(ctx)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return notFoundError("sqlstore: webhook delivery not found", map[string]any{
			"delivery_key": deliveryKey,
		})
	}
	return nil
}

func webhookDeliveryToDomain(record *webhookDeliveryRecord) webhooks.DeliveryRecord {
	if record == nil {
		return webhooks.DeliveryRecord{}
	}
	return webhooks.DeliveryRecord{
		ID:          record.ID,
		DeliveryKey: record.DeliveryKey,
		EventKind:   webhooks.EventKind(record.EventKind),
		Reference:   record.Reference,
		Status:      record.Status,
		Attempts:    record.Attempts,
		LastError:   record.LastError,
		CreatedAt:   record.CreatedAt,
		UpdatedAt:   record.UpdatedAt,
	}
}

func isUniqueViolation(err error) bool {
	message := strings.ToLower(strings.TrimSpace(err.Error()))
	return strings.Contains(message, "unique constraint failed") ||
		strings.Contains(message, "duplicate key value violates unique constraint")
}
