// Package command exposes the mutating Talo operations as go-command
// handlers. Results are stored in the go-command result collector carried by
// the context, when there is one.
package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-talo/schema"
)

// MutatingService is implemented by *talo.Client.
type MutatingService interface {
	CreatePayment(ctx context.Context, req schema.CreatePaymentRequest) (schema.Payment, error)
	UpdatePaymentMetadata(ctx context.Context, paymentID string, req schema.UpdatePaymentMetadataRequest) (schema.Payment, error)
	CreateRefund(ctx context.Context, paymentID string, req schema.CreateRefundRequest) (schema.Refund, error)
	CreateCustomer(ctx context.Context, req schema.CreateCustomerRequest) (schema.Customer, error)
	SimulateCvuTransfer(ctx context.Context, cvu string, req schema.FaucetRequest) (schema.FaucetResponse, error)
}

type CreatePaymentCommand struct {
	service MutatingService
}

func NewCreatePaymentCommand(service MutatingService) *CreatePaymentCommand {
	return &CreatePaymentCommand{service: service}
}

func (c *CreatePaymentCommand) Execute(ctx context.Context, msg CreatePaymentMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: payment service is required")
	}
	out, err := c.service.CreatePayment(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type UpdatePaymentMetadataCommand struct {
	service MutatingService
}

func NewUpdatePaymentMetadataCommand(service MutatingService) *UpdatePaymentMetadataCommand {
	return &UpdatePaymentMetadataCommand{service: service}
}

func (c *UpdatePaymentMetadataCommand) Execute(ctx context.Context, msg UpdatePaymentMetadataMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: payment service is required")
	}
	out, err := c.service.UpdatePaymentMetadata(ctx, msg.PaymentID, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type CreateRefundCommand struct {
	service MutatingService
}

func NewCreateRefundCommand(service MutatingService) *CreateRefundCommand {
	return &CreateRefundCommand{service: service}
}

func (c *CreateRefundCommand) Execute(ctx context.Context, msg CreateRefundMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: refund service is required")
	}
	out, err := c.service.CreateRefund(ctx, msg.PaymentID, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type CreateCustomerCommand struct {
	service MutatingService
}

func NewCreateCustomerCommand(service MutatingService) *CreateCustomerCommand {
	return &CreateCustomerCommand{service: service}
}

func (c *CreateCustomerCommand) Execute(ctx context.Context, msg CreateCustomerMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: customer service is required")
	}
	out, err := c.service.CreateCustomer(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type SimulateCvuTransferCommand struct {
	service MutatingService
}

func NewSimulateCvuTransferCommand(service MutatingService) *SimulateCvuTransferCommand {
	return &SimulateCvuTransferCommand{service: service}
}

func (c *SimulateCvuTransferCommand) Execute(ctx context.Context, msg SimulateCvuTransferMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: sandbox service is required")
	}
	out, err := c.service.SimulateCvuTransfer(ctx, msg.CVU, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
