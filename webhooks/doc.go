// Package webhooks verifies and dispatches inbound Talo webhook deliveries.
//
// A delivery moves through a fixed sequence: method check, raw body read,
// signature verification, JSON parse, shape classification, optional
// dedupe reservation, optional payment lookup and finally the callbacks.
// Callbacks never run before verification and validation succeed, and
// never run twice for one delivery.
package webhooks
