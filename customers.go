package talo

import (
	"context"
	"net/http"

	"github.com/goliatone/go-talo/core"
	"github.com/goliatone/go-talo/schema"
)

type Customers struct {
	exec *core.Executor
}

func (c *Customers) Create(ctx context.Context, req schema.CreateCustomerRequest) (schema.Customer, error) {
	var out schema.CustomerEnvelope
	if err := c.exec.Do(ctx, core.Call{Method: http.MethodPost, Path: "/customers/", Body: req}, &out); err != nil {
		return schema.Customer{}, err
	}
	return out.Data, nil
}

func (c *Customers) Get(ctx context.Context, customerID string) (schema.Customer, error) {
	id, err := identifier("customer_id", customerID)
	if err != nil {
		return schema.Customer{}, err
	}
	var out schema.CustomerEnvelope
	if err := c.exec.Do(ctx, core.Call{Method: http.MethodGet, Path: "/customers/" + id}, &out); err != nil {
		return schema.Customer{}, err
	}
	return out.Data, nil
}

func (c *Customers) GetTransaction(ctx context.Context, customerID string, transactionID string) (schema.CustomerTransaction, error) {
	id, err := identifier("customer_id", customerID)
	if err != nil {
		return schema.CustomerTransaction{}, err
	}
	txID, err := identifier("transaction_id", transactionID)
	if err != nil {
		return schema.CustomerTransaction{}, err
	}
	var out schema.CustomerTransactionEnvelope
	path := "/customers/" + id + "/transactions/" + txID
	if err := c.exec.Do(ctx, core.Call{Method: http.MethodGet, Path: path}, &out); err != nil {
		return schema.CustomerTransaction{}, err
	}
	return out.Data, nil
}
