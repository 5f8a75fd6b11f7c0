// Package cache memoizes customer reads in front of the Talo API with
// go-repository-cache.
package cache

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/goliatone/go-talo/schema"
	"github.com/goliatone/go-talo/webhooks"
)

const (
	customerCacheKeyPrefix    = "go-talo::customer::v1"
	transactionCacheKeyPrefix = "go-talo::customer_transaction::v1"
)

// CustomerFetcher is the uncached read path, usually a *talo.Client.
type CustomerFetcher interface {
	GetCustomer(ctx context.Context, customerID string) (schema.Customer, error)
	GetCustomerTransaction(ctx context.Context, customerID string, transactionID string) (schema.CustomerTransaction, error)
}

// CustomerReader serves customers and their transactions from cache. A
// customer entry is dropped whenever a customer_payment webhook for it
// arrives, since its balance changed.
type CustomerReader struct {
	base  CustomerFetcher
	cache repositorycache.CacheService
}

func NewCustomerReader(base CustomerFetcher, cacheService repositorycache.CacheService) (*CustomerReader, error) {
	if base == nil {
		return nil, dependencyError("cache: customer fetcher is required")
	}
	if cacheService == nil {
		return nil, dependencyError("cache: cache service is required")
	}
	return &CustomerReader{base: base, cache: cacheService}, nil
}

// CustomerCacheKey returns go-talo::customer::v1::<customer_id>, the id
// URL-path escaped.
func CustomerCacheKey(customerID string) string {
	return customerCacheKeyPrefix + "::" + url.PathEscape(strings.TrimSpace(customerID))
}

func TransactionCacheKey(customerID string, transactionID string) string {
	return strings.Join([]string{
		transactionCacheKeyPrefix,
		url.PathEscape(strings.TrimSpace(customerID)),
		url.PathEscape(strings.TrimSpace(transactionID)),
	}, "::")
}

func (r *CustomerReader) GetCustomer(ctx context.Context, customerID string) (schema.Customer, error) {
	if r == nil || r.base == nil || r.cache == nil {
		return schema.Customer{}, dependencyError("cache: customer reader is not configured")
	}
	// Empty ids go straight to the client, which rejects them locally.
	if strings.TrimSpace(customerID) == "" {
		return r.base.GetCustomer(ctx, customerID)
	}
	return repositorycache.GetOrFetch(ctx, r.cache, CustomerCacheKey(customerID), func(ctx context.Context) (schema.Customer, error) {
		return r.base.GetCustomer(ctx, customerID)
	})
}

// GetCustomerTransaction caches only processed transactions; anything else
// may still change.
func (r *CustomerReader) GetCustomerTransaction(
	ctx context.Context,
	customerID string,
	transactionID string,
) (schema.CustomerTransaction, error) {
	if r == nil || r.base == nil || r.cache == nil {
		return schema.CustomerTransaction{}, dependencyError("cache: customer reader is not configured")
	}
	if strings.TrimSpace(customerID) == "" || strings.TrimSpace(transactionID) == "" {
		return r.base.GetCustomerTransaction(ctx, customerID, transactionID)
	}
	key := TransactionCacheKey(customerID, transactionID)
	tx, err := repositorycache.GetOrFetch(ctx, r.cache, key, func(ctx context.Context) (schema.CustomerTransaction, error) {
		return r.base.GetCustomerTransaction(ctx, customerID, transactionID)
	})
	if err != nil {
		return schema.CustomerTransaction{}, err
	}
	if tx.Status != schema.TransactionStatusProcessed {
		if err := r.cache.Delete(ctx, key); err != nil {
			return schema.CustomerTransaction{}, err
		}
	}
	return tx, nil
}

func (r *CustomerReader) Invalidate(ctx context.Context, customerID string) error {
	if r == nil || r.cache == nil {
		return dependencyError("cache: customer reader is not configured")
	}
	return r.cache.Delete(ctx, CustomerCacheKey(customerID))
}

// OnCustomerPayment fits webhooks.HandlerOptions.OnCustomerPayment.
func (r *CustomerReader) OnCustomerPayment(ctx context.Context, event webhooks.CustomerPaymentEvent, _ *http.Request) error {
	return r.Invalidate(ctx, event.CustomerID)
}

func dependencyError(message string) error {
	return goerrors.New(message, goerrors.CategoryInternal).
		WithCode(http.StatusInternalServerError).
		WithTextCode("TALO_CACHE_CONFIG")
}
