package command

import (
	"strings"

	"github.com/goliatone/go-talo/core"
	"github.com/goliatone/go-talo/schema"
)

const (
	TypeCreatePayment         = "talo.command.payment.create"
	TypeUpdatePaymentMetadata = "talo.command.payment.update_metadata"
	TypeCreateRefund          = "talo.command.refund.create"
	TypeCreateCustomer        = "talo.command.customer.create"
	TypeSimulateCvuTransfer   = "talo.command.sandbox.simulate_cvu_transfer"
)

type CreatePaymentMessage struct {
	Request schema.CreatePaymentRequest
}

func (CreatePaymentMessage) Type() string { return TypeCreatePayment }

func (m CreatePaymentMessage) Validate() error {
	return commandWrapValidation(core.ValidateContract(m.Request), "command: invalid create payment request")
}

type UpdatePaymentMetadataMessage struct {
	PaymentID string
	Request   schema.UpdatePaymentMetadataRequest
}

func (UpdatePaymentMetadataMessage) Type() string { return TypeUpdatePaymentMetadata }

func (m UpdatePaymentMetadataMessage) Validate() error {
	if strings.TrimSpace(m.PaymentID) == "" {
		return commandValidationError("payment_id", "payment id is required")
	}
	return commandWrapValidation(core.ValidateContract(m.Request), "command: invalid payment metadata request")
}

type CreateRefundMessage struct {
	PaymentID string
	Request   schema.CreateRefundRequest
}

func (CreateRefundMessage) Type() string { return TypeCreateRefund }

func (m CreateRefundMessage) Validate() error {
	if strings.TrimSpace(m.PaymentID) == "" {
		return commandValidationError("payment_id", "payment id is required")
	}
	return commandWrapValidation(core.ValidateContract(m.Request), "command: invalid refund request")
}

type CreateCustomerMessage struct {
	Request schema.CreateCustomerRequest
}

func (CreateCustomerMessage) Type() string { return TypeCreateCustomer }

func (m CreateCustomerMessage) Validate() error {
	return commandWrapValidation(core.ValidateContract(m.Request), "command: invalid create customer request")
}

type SimulateCvuTransferMessage struct {
	CVU     string
	Request schema.FaucetRequest
}

func (SimulateCvuTransferMessage) Type() string { return TypeSimulateCvuTransfer }

func (m SimulateCvuTransferMessage) Validate() error {
	if strings.TrimSpace(m.CVU) == "" {
		return commandValidationError("cvu", "cvu is required")
	}
	return commandWrapValidation(core.ValidateContract(m.Request), "command: invalid faucet request")
}
