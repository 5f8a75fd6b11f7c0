// Package talo is a client for the Talo payment API.
//
// A Client authenticates either with a pre-issued access token or with
// client credentials exchanged for short-lived tokens, validates every
// request and response against its contract, and reports failures as a
// single normalized error kind (see core.AsError and its accessors).
//
//	client, err := talo.New(talo.Config{AccessToken: os.Getenv("TALO_ACCESS_TOKEN")})
//	payment, err := client.CreatePayment(ctx, schema.CreatePaymentRequest{...})
//
// Inbound webhooks are served by client.Webhooks.Handler.
package talo
