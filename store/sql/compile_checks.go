package sqlstore

import "github.com/goliatone/go-talo/webhooks"

var _ webhooks.DeliveryLedger = (*WebhookDeliveryStore)(nil)
