package main

import (
	"github.com/spf13/cobra"

	talocommand "github.com/goliatone/go-talo/command"
	taloquery "github.com/goliatone/go-talo/query"
	"github.com/goliatone/go-talo/schema"
)

func newPaymentCommand(a *app) *cobra.Command {
	payment := &cobra.Command{
		Use:   "payment",
		Short: "Create, read and refund payments",
	}

	var createData string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a payment from a JSON body",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var req schema.CreatePaymentRequest
			if err := decodeData(cmd, createData, &req); err != nil {
				return err
			}
			return runCommand[talocommand.CreatePaymentMessage, schema.Payment](
				cmd.Context(), a, talocommand.CreatePaymentMessage{Request: req},
			)
		},
	}
	create.Flags().StringVar(&createData, "data", "-", "JSON body, @file or - for stdin")

	get := &cobra.Command{
		Use:   "get <payment-id>",
		Short: "Fetch a payment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery[taloquery.GetPaymentMessage, schema.Payment](
				cmd.Context(), a, taloquery.GetPaymentMessage{PaymentID: args[0]},
			)
		},
	}

	var motive string
	updateMetadata := &cobra.Command{
		Use:   "update-metadata <payment-id>",
		Short: "Replace the payment motive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommand[talocommand.UpdatePaymentMetadataMessage, schema.Payment](
				cmd.Context(), a, talocommand.UpdatePaymentMetadataMessage{
					PaymentID: args[0],
					Request:   schema.UpdatePaymentMetadataRequest{Motive: motive},
				},
			)
		},
	}
	updateMetadata.Flags().StringVar(&motive, "motive", "", "new payment motive")

	var (
		refundType   string
		refundAmount string
		refundMotive string
		refundBlame  string
	)
	refund := &cobra.Command{
		Use:   "refund <payment-id>",
		Short: "Refund a payment in full or in part",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommand[talocommand.CreateRefundMessage, schema.Refund](
				cmd.Context(), a, talocommand.CreateRefundMessage{
					PaymentID: args[0],
					Request: schema.CreateRefundRequest{
						Amount:     schema.Amount(refundAmount),
						RefundType: schema.RefundType(refundType),
						Motive:     refundMotive,
						Blame:      schema.Blame(refundBlame),
					},
				},
			)
		},
	}
	refund.Flags().StringVar(&refundType, "type", string(schema.RefundTypeFull), "FULL or PARTIAL")
	refund.Flags().StringVar(&refundAmount, "amount", "", "amount for partial refunds")
	refund.Flags().StringVar(&refundMotive, "motive", "", "refund motive")
	refund.Flags().StringVar(&refundBlame, "blame", string(schema.BlameClient), "CLIENT, CUSTOMER or THIRD_PARTY")

	payment.AddCommand(create, get, updateMetadata, refund)
	return payment
}

func newCustomerCommand(a *app) *cobra.Command {
	customer := &cobra.Command{
		Use:   "customer",
		Short: "Manage customers and their transactions",
	}

	var createData string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a customer from a JSON body",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var req schema.CreateCustomerRequest
			if err := decodeData(cmd, createData, &req); err != nil {
				return err
			}
			return runCommand[talocommand.CreateCustomerMessage, schema.Customer](
				cmd.Context(), a, talocommand.CreateCustomerMessage{Request: req},
			)
		},
	}
	create.Flags().StringVar(&createData, "data", "-", "JSON body, @file or - for stdin")

	get := &cobra.Command{
		Use:   "get <customer-id>",
		Short: "Fetch a customer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery[taloquery.GetCustomerMessage, schema.Customer](
				cmd.Context(), a, taloquery.GetCustomerMessage{CustomerID: args[0]},
			)
		},
	}

	transaction := &cobra.Command{
		Use:   "transaction <customer-id> <transaction-id>",
		Short: "Fetch one customer transaction",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery[taloquery.GetCustomerTransactionMessage, schema.CustomerTransaction](
				cmd.Context(), a, taloquery.GetCustomerTransactionMessage{
					CustomerID:    args[0],
					TransactionID: args[1],
				},
			)
		},
	}

	customer.AddCommand(create, get, transaction)
	return customer
}

func newFaucetCommand(a *app) *cobra.Command {
	var amount string
	faucet := &cobra.Command{
		Use:   "faucet <cvu>",
		Short: "Simulate an inbound CVU transfer in the sandbox",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommand[talocommand.SimulateCvuTransferMessage, schema.FaucetResponse](
				cmd.Context(), a, talocommand.SimulateCvuTransferMessage{
					CVU:     args[0],
					Request: schema.FaucetRequest{Amount: schema.Amount(amount)},
				},
			)
		},
	}
	faucet.Flags().StringVar(&amount, "amount", "", "transfer amount")
	return faucet
}
