package transport

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-talo/core"
)

func TestRESTAdapter_DoSendsMethodHeadersAndBody(t *testing.T) {
	var gotMethod, gotAuth, gotTenant, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotAuth = r.Header.Get("Authorization")
		gotTenant = r.Header.Get("X-Tenant")
		raw, _ := io.ReadAll(r.Body)
		gotBody = string(raw)
		w.Header().Set("X-Request-Id", "req_rest")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"id":"pay_1"}}`))
	}))
	defer server.Close()

	adapter := NewRESTAdapter(server.Client())
	adapter.DefaultHeaders["X-Tenant"] = "default"
	res, err := adapter.Do(context.Background(), core.TransportRequest{
		Method: "post",
		URL:    server.URL + "/payments/",
		Headers: http.Header{
			"Authorization": []string{"Bearer test_token"},
			"X-Tenant":      []string{"acme"},
		},
		Body: []byte(`{"external_id":"order-1"}`),
	})
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	if gotMethod != http.MethodPost {
		t.Fatalf("expected POST, got %s", gotMethod)
	}
	if gotAuth != "Bearer test_token" {
		t.Fatalf("expected authorization header, got %q", gotAuth)
	}
	if gotTenant != "acme" {
		t.Fatalf("expected request header to override default, got %q", gotTenant)
	}
	if gotBody != `{"external_id":"order-1"}` {
		t.Fatalf("unexpected body %q", gotBody)
	}
	if res.StatusCode != http.StatusCreated || res.RequestID() != "req_rest" {
		t.Fatalf("unexpected response %d %q", res.StatusCode, res.RequestID())
	}
	if string(res.Body) != `{"data":{"id":"pay_1"}}` {
		t.Fatalf("unexpected response body %q", res.Body)
	}
}

func TestRESTAdapter_ResponseLimitReturnsRichError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("12345"))
	}))
	defer server.Close()

	adapter := NewRESTAdapter(server.Client())
	adapter.MaxResponseBodyBytes = 4

	_, err := adapter.Do(context.Background(), core.TransportRequest{Method: http.MethodGet, URL: server.URL})
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.Category != goerrors.CategoryExternal {
		t.Fatalf("expected external category, got %q", rich.Category)
	}
	if rich.TextCode != ErrorCodeResponseTooLarge {
		t.Fatalf("expected %q text code, got %q", ErrorCodeResponseTooLarge, rich.TextCode)
	}
	if rich.Code != http.StatusBadGateway {
		t.Fatalf("expected %d code, got %d", http.StatusBadGateway, rich.Code)
	}
}

func TestRESTAdapter_NetworkErrorIsReturnedUnchanged(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := listener.Addr().String()
	_ = listener.Close()

	adapter := NewRESTAdapter(&http.Client{Timeout: time.Second})
	_, err = adapter.Do(context.Background(), core.TransportRequest{Method: http.MethodGet, URL: "http://" + addr + "/payments/p"})
	if err == nil {
		t.Fatalf("expected network error")
	}
	var urlErr *url.Error
	if !errors.As(err, &urlErr) {
		t.Fatalf("expected raw *url.Error, got %T", err)
	}
	if _, ok := core.AsError(err); ok {
		t.Fatalf("network errors must not be normalized")
	}
}

func TestRESTAdapter_RejectsRelativeURL(t *testing.T) {
	_, err := NewRESTAdapter(nil).Do(context.Background(), core.TransportRequest{URL: "/payments/"})
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) || rich.TextCode != ErrorCodeTransportConfig {
		t.Fatalf("expected transport config error, got %v", err)
	}
}

func TestNewRESTAdapter_DefaultClientTimeout(t *testing.T) {
	adapter := NewRESTAdapter(nil)
	client, ok := adapter.Client.(*http.Client)
	if !ok {
		t.Fatalf("expected default http client, got %T", adapter.Client)
	}
	if client.Timeout != defaultRESTClientTimeout {
		t.Fatalf("expected timeout %s, got %s", defaultRESTClientTimeout, client.Timeout)
	}
	custom := NewTimeoutRESTAdapter(5 * time.Second).Client.(*http.Client)
	if custom.Timeout != 5*time.Second {
		t.Fatalf("expected custom timeout, got %s", custom.Timeout)
	}
}

func TestFunc_AdaptsFunction(t *testing.T) {
	var seen string
	fn := Func(func(_ context.Context, req core.TransportRequest) (core.TransportResponse, error) {
		seen = req.URL
		return core.TransportResponse{StatusCode: http.StatusNoContent}, nil
	})
	res, err := fn.Do(context.Background(), core.TransportRequest{URL: "https://api.talo.com.ar/x"})
	if err != nil || res.StatusCode != http.StatusNoContent || seen != "https://api.talo.com.ar/x" {
		t.Fatalf("unexpected func transport result %d %v %q", res.StatusCode, err, seen)
	}
}
