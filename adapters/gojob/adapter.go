// Package gojob moves verified webhook events onto a go-job queue and back,
// so slow processing happens outside the HTTP request.
package gojob

import (
	"context"
	"net/http"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"
	"github.com/goliatone/go-job/queue/worker"
	"github.com/goliatone/go-talo/core"
	"github.com/goliatone/go-talo/webhooks"
)

const (
	JobIDPaymentUpdated  = "talo.webhook.payment_updated"
	JobIDCustomerPayment = "talo.webhook.customer_payment"

	// DedupPolicyDrop drops a message whose idempotency key was already seen.
	DedupPolicyDrop = job.DeduplicationPolicy("drop")

	paramKind    = "kind"
	paramPayload = "payload"

	ErrorCodeQueue = "TALO_QUEUE_ERROR"
)

// RetryPolicy bounds redelivery of events whose processing failed.
type RetryPolicy struct {
	MaxAttempts     int
	MaxDelay        time.Duration
	DeadLetterOnMax bool
}

// NormalizeAttempt caps the delay and stops requeueing once attempt reaches
// MaxAttempts.
func (p RetryPolicy) NormalizeAttempt(opts queue.NackOptions, attempt int) queue.NackOptions {
	out := opts
	out.Reason = strings.TrimSpace(out.Reason)
	if out.Delay < 0 {
		out.Delay = 0
	}
	if p.MaxDelay > 0 && out.Delay > p.MaxDelay {
		out.Delay = p.MaxDelay
	}
	if out.DeadLetter {
		out.Requeue = false
	}
	if p.MaxAttempts > 0 && attempt >= p.MaxAttempts {
		out.Requeue = false
		if p.DeadLetterOnMax || out.DeadLetter {
			out.DeadLetter = true
		}
	}
	if !out.Requeue && !out.DeadLetter {
		out.Requeue = true
	}
	return out
}

// JobIDFor returns the job id events of kind are queued under.
func JobIDFor(kind webhooks.EventKind) string {
	switch kind {
	case webhooks.EventKindPaymentUpdated:
		return JobIDPaymentUpdated
	case webhooks.EventKindCustomerPayment:
		return JobIDCustomerPayment
	}
	return ""
}

// ToExecutionMessage carries the raw delivery body so the consumer can
// classify it again. The idempotency key is the delivery key.
func ToExecutionMessage(event webhooks.Event) (*job.ExecutionMessage, error) {
	jobID := JobIDFor(event.Kind)
	if jobID == "" || len(event.RawBody) == 0 {
		return nil, queueError("gojob: event kind and raw body are required", goerrors.CategoryBadInput, nil)
	}
	return &job.ExecutionMessage{
		JobID:      jobID,
		ScriptPath: jobID,
		Parameters: map[string]any{
			paramKind:    string(event.Kind),
			paramPayload: string(event.RawBody),
			"reference":  event.Reference(),
		},
		IdempotencyKey: webhooks.DeliveryKey(event.RawBody),
		DedupPolicy:    DedupPolicyDrop,
	}, nil
}

// FromExecutionMessage re-parses the queued payload.
func FromExecutionMessage(msg *job.ExecutionMessage) (webhooks.Event, error) {
	if msg == nil {
		return webhooks.Event{}, queueError("gojob: execution message is required", goerrors.CategoryBadInput, nil)
	}
	payload, _ := msg.Parameters[paramPayload].(string)
	if strings.TrimSpace(payload) == "" {
		return webhooks.Event{}, queueError("gojob: execution message has no payload", goerrors.CategoryBadInput, nil)
	}
	event, err := webhooks.Parse([]byte(payload))
	if err != nil {
		return webhooks.Event{}, err
	}
	if JobIDFor(event.Kind) != strings.TrimSpace(msg.JobID) {
		return webhooks.Event{}, queueError("gojob: job id does not match payload", goerrors.CategoryBadInput, map[string]any{
			"job_id": msg.JobID,
			"kind":   string(event.Kind),
		})
	}
	return event, nil
}

// EventEnqueuer queues every delivered event. OnEvent fits
// webhooks.HandlerOptions.OnEvent; an enqueue failure answers the sender
// with 500 so it retries.
type EventEnqueuer struct {
	enqueuer queue.Enqueuer
}

func NewEventEnqueuer(enqueuer queue.Enqueuer) *EventEnqueuer {
	return &EventEnqueuer{enqueuer: enqueuer}
}

func (e *EventEnqueuer) Enqueue(ctx context.Context, event webhooks.Event) error {
	if e == nil || e.enqueuer == nil {
		return queueError("gojob: enqueuer is not configured", goerrors.CategoryInternal, nil)
	}
	msg, err := ToExecutionMessage(event)
	if err != nil {
		return err
	}
	return e.enqueuer.Enqueue(ctx, msg)
}

func (e *EventEnqueuer) OnEvent(ctx context.Context, event webhooks.Event, _ *http.Request) error {
	return e.Enqueue(ctx, event)
}

// EventHandler processes one dequeued event.
type EventHandler func(ctx context.Context, event webhooks.Event) error

// Consumer pulls events from a dequeuer and acks or nacks them.
type Consumer struct {
	dequeuer queue.Dequeuer
	policy   RetryPolicy
	handler  EventHandler
	hook     worker.Hook
	now      func() time.Time
}

func NewConsumer(dequeuer queue.Dequeuer, handler EventHandler, policy RetryPolicy, hook worker.Hook) *Consumer {
	return &Consumer{
		dequeuer: dequeuer,
		policy:   policy,
		handler:  handler,
		hook:     hook,
		now:      time.Now,
	}
}

// ProcessNext handles a single delivery. A payload that no longer parses is
// dead-lettered; a handler failure is nacked under the retry policy.
// attempt is the delivery attempt number as tracked by the caller.
func (c *Consumer) ProcessNext(ctx context.Context, attempt int) error {
	if c == nil || c.dequeuer == nil || c.handler == nil {
		return queueError("gojob: consumer is not configured", goerrors.CategoryInternal, nil)
	}
	delivery, err := c.dequeuer.Dequeue(ctx)
	if err != nil {
		return err
	}
	startedAt := c.now()
	event := worker.Event{
		Message:   delivery.Message(),
		Delivery:  delivery,
		Attempt:   attempt,
		StartedAt: startedAt,
	}
	c.onStart(ctx, event)

	parsed, err := FromExecutionMessage(delivery.Message())
	if err != nil {
		event.Err = err
		event.Duration = c.now().Sub(startedAt)
		c.onFailure(ctx, event)
		return delivery.Nack(ctx, queue.NackOptions{DeadLetter: true, Reason: err.Error()})
	}

	if handleErr := c.handler(ctx, parsed); handleErr != nil {
		opts := c.policy.NormalizeAttempt(queue.NackOptions{
			Requeue: true,
			Delay:   c.policy.MaxDelay,
			Reason:  handleErr.Error(),
		}, attempt)
		event.Err = handleErr
		event.Delay = opts.Delay
		event.Duration = c.now().Sub(startedAt)
		if opts.Requeue {
			c.onRetry(ctx, event)
		} else {
			c.onFailure(ctx, event)
		}
		return delivery.Nack(ctx, opts)
	}

	event.Duration = c.now().Sub(startedAt)
	c.onSuccess(ctx, event)
	return delivery.Ack(ctx)
}

func (c *Consumer) onStart(ctx context.Context, event worker.Event) {
	if c.hook != nil {
		c.hook.OnStart(ctx, event)
	}
}

func (c *Consumer) onSuccess(ctx context.Context, event worker.Event) {
	if c.hook != nil {
		c.hook.OnSuccess(ctx, event)
	}
}

func (c *Consumer) onFailure(ctx context.Context, event worker.Event) {
	if c.hook != nil {
		c.hook.OnFailure(ctx, event)
	}
}

func (c *Consumer) onRetry(ctx context.Context, event worker.Event) {
	if c.hook != nil {
		c.hook.OnRetry(ctx, event)
	}
}

// LoggingHook reports worker lifecycle events through a glog logger.
type LoggingHook struct {
	logger core.Logger
}

func NewLoggingHook(logger core.Logger) *LoggingHook {
	return &LoggingHook{logger: core.ResolveLogger("talo.gojob", nil, logger)}
}

func (h *LoggingHook) OnStart(ctx context.Context, event worker.Event) {
	core.Log(ctx, h.logger, core.LevelDebug, "talo webhook job started", eventFields(event))
}

func (h *LoggingHook) OnSuccess(ctx context.Context, event worker.Event) {
	core.Log(ctx, h.logger, core.LevelInfo, "talo webhook job succeeded", eventFields(event))
}

func (h *LoggingHook) OnFailure(ctx context.Context, event worker.Event) {
	core.Log(ctx, h.logger, core.LevelError, "talo webhook job failed", eventFields(event))
}

func (h *LoggingHook) OnRetry(ctx context.Context, event worker.Event) {
	core.Log(ctx, h.logger, core.LevelWarn, "talo webhook job retrying", eventFields(event))
}

func eventFields(event worker.Event) map[string]any {
	message := event.Message
	if message == nil && event.Delivery != nil {
		message = event.Delivery.Message()
	}
	fields := map[string]any{
		"attempt":     event.Attempt,
		"duration_ms": event.Duration.Milliseconds(),
	}
	if message != nil {
		fields["job_id"] = message.JobID
		fields["idempotency_key"] = message.IdempotencyKey
	}
	if event.Delay > 0 {
		fields["delay_ms"] = event.Delay.Milliseconds()
	}
	if event.Err != nil {
		fields["error"] = event.Err.Error()
	}
	return fields
}

func queueError(message string, category goerrors.Category, metadata map[string]any) error {
	err := goerrors.New(message, category).WithTextCode(ErrorCodeQueue)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

var _ worker.Hook = (*LoggingHook)(nil)
