package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[CreatePaymentMessage]         = (*CreatePaymentCommand)(nil)
	_ gocmd.Commander[UpdatePaymentMetadataMessage] = (*UpdatePaymentMetadataCommand)(nil)
	_ gocmd.Commander[CreateRefundMessage]          = (*CreateRefundCommand)(nil)
	_ gocmd.Commander[CreateCustomerMessage]        = (*CreateCustomerCommand)(nil)
	_ gocmd.Commander[SimulateCvuTransferMessage]   = (*SimulateCvuTransferCommand)(nil)
)
