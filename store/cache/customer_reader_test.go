package cache

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/goliatone/go-talo/schema"
	"github.com/goliatone/go-talo/webhooks"
)

type stubFetcher struct {
	mu               sync.Mutex
	customerCalls    int
	transactionCalls int
	balance          schema.Amount
	status           schema.TransactionStatus
	err              error
}

func (s *stubFetcher) GetCustomer(_ context.Context, customerID string) (schema.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customerCalls++
	if s.err != nil {
		return schema.Customer{}, s.err
	}
	return schema.Customer{CustomerID: customerID, Balance: s.balance}, nil
}

func (s *stubFetcher) GetCustomerTransaction(_ context.Context, _ string, transactionID string) (schema.CustomerTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactionCalls++
	return schema.CustomerTransaction{TransactionID: transactionID, Status: s.status}, nil
}

func TestCustomerReader_MissFetchThenHit(t *testing.T) {
	base := &stubFetcher{balance: "100"}
	reader := newTestReader(t, base)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		customer, err := reader.GetCustomer(ctx, "customer_1")
		if err != nil {
			t.Fatalf("get customer: %v", err)
		}
		if customer.Balance != "100" {
			t.Fatalf("unexpected balance %q", customer.Balance)
		}
	}
	if base.customerCalls != 1 {
		t.Fatalf("expected one upstream call, got %d", base.customerCalls)
	}
}

func TestCustomerReader_WebhookInvalidatesCustomer(t *testing.T) {
	base := &stubFetcher{balance: "100"}
	reader := newTestReader(t, base)
	ctx := context.Background()

	if _, err := reader.GetCustomer(ctx, "customer_1"); err != nil {
		t.Fatalf("prime cache: %v", err)
	}
	base.balance = "250"

	handler := webhooks.NewHandler(webhooks.HandlerOptions{OnCustomerPayment: reader.OnCustomerPayment})
	body := `{"message":"Pago recibido","customerId":"customer_1","transactionId":"tx_1"}`
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/webhooks/talo", strings.NewReader(body)))
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}

	customer, err := reader.GetCustomer(ctx, "customer_1")
	if err != nil {
		t.Fatalf("get customer: %v", err)
	}
	if customer.Balance != "250" || base.customerCalls != 2 {
		t.Fatalf("expected refetch after webhook, got balance %q calls %d", customer.Balance, base.customerCalls)
	}
}

func TestCustomerReader_OnlyProcessedTransactionsStayCached(t *testing.T) {
	base := &stubFetcher{status: "PENDING"}
	reader := newTestReader(t, base)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := reader.GetCustomerTransaction(ctx, "customer_1", "tx_1"); err != nil {
			t.Fatalf("get transaction: %v", err)
		}
	}
	if base.transactionCalls != 2 {
		t.Fatalf("expected pending transactions to bypass cache, got %d calls", base.transactionCalls)
	}

	base.status = schema.TransactionStatusProcessed
	for i := 0; i < 2; i++ {
		if _, err := reader.GetCustomerTransaction(ctx, "customer_1", "tx_1"); err != nil {
			t.Fatalf("get transaction: %v", err)
		}
	}
	if base.transactionCalls != 3 {
		t.Fatalf("expected processed transaction to be cached, got %d calls", base.transactionCalls)
	}
}

func TestCustomerReader_ErrorsAreNotCached(t *testing.T) {
	base := &stubFetcher{err: errors.New("upstream down")}
	reader := newTestReader(t, base)
	ctx := context.Background()

	if _, err := reader.GetCustomer(ctx, "customer_1"); err == nil {
		t.Fatalf("expected upstream error")
	}
	base.err = nil
	base.balance = "5"
	customer, err := reader.GetCustomer(ctx, "customer_1")
	if err != nil {
		t.Fatalf("get customer after recovery: %v", err)
	}
	if customer.Balance != "5" {
		t.Fatalf("unexpected balance %q", customer.Balance)
	}
}

func TestCacheKeys_EscapeSegments(t *testing.T) {
	if got := CustomerCacheKey(" a/b "); got != "go-talo::customer::v1::a%2Fb" {
		t.Fatalf("unexpected customer key %q", got)
	}
	if got := TransactionCacheKey("c", "t 1"); got != "go-talo::customer_transaction::v1::c::t%201" {
		t.Fatalf("unexpected transaction key %q", got)
	}
}

func TestNewCustomerReader_RequiresDependencies(t *testing.T) {
	if _, err := NewCustomerReader(nil, nil); err == nil {
		t.Fatalf("expected missing dependencies to fail")
	}
}

func newTestReader(t *testing.T, base CustomerFetcher) *CustomerReader {
	t.Helper()
	config := repositorycache.DefaultConfig()
	config.TTL = time.Minute
	service, err := repositorycache.NewCacheService(config)
	if err != nil {
		t.Fatalf("new cache service: %v", err)
	}
	reader, err := NewCustomerReader(base, service)
	if err != nil {
		t.Fatalf("new customer reader: %v", err)
	}
	return reader
}
