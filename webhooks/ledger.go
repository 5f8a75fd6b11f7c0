package webhooks

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

const (
	DeliveryStatusProcessing = "processing"
	DeliveryStatusProcessed  = "processed"
	DeliveryStatusFailed     = "failed"
)

type DeliveryRecord struct {
	ID          string
	DeliveryKey string
	EventKind   EventKind
	Reference   string
	Status      string
	Attempts    int
	LastError   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DeliveryLedger records which deliveries were handled. Reserve reports
// duplicate=true when the key is already processed or still being
// processed. A released (failed) key can be reserved again, and so can a
// processing key whose lease has passed since its last update. A
// non-positive lease never expires.
type DeliveryLedger interface {
	Reserve(ctx context.Context, deliveryKey string, event Event, lease time.Duration) (DeliveryRecord, bool, error)
	Complete(ctx context.Context, deliveryKey string) error
	Release(ctx context.Context, deliveryKey string, cause error) error
}

// DeliveryKey derives the dedupe key of a delivery from its raw body.
func DeliveryKey(rawBody []byte) string {
	sum := sha256.Sum256(rawBody)
	return hex.EncodeToString(sum[:])
}

// MemoryLedger is a process-local DeliveryLedger.
type MemoryLedger struct {
	mu      sync.Mutex
	records map[string]DeliveryRecord
	now     func() time.Time
}

type MemoryLedgerOption func(*MemoryLedger)

func WithMemoryLedgerClock(now func() time.Time) MemoryLedgerOption {
	return func(l *MemoryLedger) {
		if now != nil {
			l.now = now
		}
	}
}

func NewMemoryLedger(opts ...MemoryLedgerOption) *MemoryLedger {
	ledger := &MemoryLedger{
		records: map[string]DeliveryRecord{},
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(ledger)
		}
	}
	return ledger
}

func (l *MemoryLedger) Reserve(
	_ context.Context,
	deliveryKey string,
	event Event,
	lease time.Duration,
) (DeliveryRecord, bool, error) {
	deliveryKey = strings.TrimSpace(deliveryKey)
	if deliveryKey == "" {
		return DeliveryRecord{}, false, goerrors.New("webhooks: delivery key is required", goerrors.CategoryBadInput)
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	record, ok := l.records[deliveryKey]
	if ok && !Reclaimable(record, lease, now) {
		return record, true, nil
	}
	if !ok {
		record = DeliveryRecord{
			ID:          deliveryKey,
			DeliveryKey: deliveryKey,
			EventKind:   event.Kind,
			Reference:   event.Reference(),
			CreatedAt:   now,
		}
	}
	record.Status = DeliveryStatusProcessing
	record.Attempts++
	record.UpdatedAt = now
	l.records[deliveryKey] = record
	return record, false, nil
}

func (l *MemoryLedger) Complete(_ context.Context, deliveryKey string) error {
	return l.transition(deliveryKey, DeliveryStatusProcessed, nil)
}

func (l *MemoryLedger) Release(_ context.Context, deliveryKey string, cause error) error {
	return l.transition(deliveryKey, DeliveryStatusFailed, cause)
}

// Reclaimable reports whether record may be reserved again at now.
func Reclaimable(record DeliveryRecord, lease time.Duration, now time.Time) bool {
	switch record.Status {
	case DeliveryStatusFailed:
		return true
	case DeliveryStatusProcessing:
		return lease > 0 && !now.Before(record.UpdatedAt.Add(lease))
	default:
		return false
	}
}

// Get returns the record stored for deliveryKey.
func (l *MemoryLedger) Get(deliveryKey string) (DeliveryRecord, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	record, ok := l.records[strings.TrimSpace(deliveryKey)]
	return record, ok
}

func (l *MemoryLedger) transition(deliveryKey string, status string, cause error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	record, ok := l.records[strings.TrimSpace(deliveryKey)]
	if !ok {
		return goerrors.New("webhooks: delivery not found", goerrors.CategoryNotFound).
			WithMetadata(map[string]any{"delivery_key": deliveryKey})
	}
	record.Status = status
	record.UpdatedAt = l.now()
	if cause != nil {
		record.LastError = cause.Error()
	}
	l.records[record.DeliveryKey] = record
	return nil
}

var _ DeliveryLedger = (*MemoryLedger)(nil)
