package query

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-talo/schema"
)

var (
	_ gocmd.Querier[GetPaymentMessage, schema.Payment]                         = (*GetPaymentQuery)(nil)
	_ gocmd.Querier[GetCustomerMessage, schema.Customer]                       = (*GetCustomerQuery)(nil)
	_ gocmd.Querier[GetCustomerTransactionMessage, schema.CustomerTransaction] = (*GetCustomerTransactionQuery)(nil)
)
