// Package transport sends the HTTP exchanges issued by the executor and the
// token manager.
package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-talo/core"
)

const defaultRESTClientTimeout = 30 * time.Second
const defaultRESTResponseBodyLimit int64 = 10 << 20 // 10 MiB

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Func adapts a plain function to core.Transport.
type Func func(ctx context.Context, req core.TransportRequest) (core.TransportResponse, error)

func (f Func) Do(ctx context.Context, req core.TransportRequest) (core.TransportResponse, error) {
	return f(ctx, req)
}

type RESTAdapter struct {
	Client               HTTPDoer
	DefaultHeaders       map[string]string
	MaxResponseBodyBytes int64
}

func NewRESTAdapter(client HTTPDoer) *RESTAdapter {
	if client == nil {
		client = &http.Client{Timeout: defaultRESTClientTimeout}
	}
	return &RESTAdapter{
		Client:               client,
		DefaultHeaders:       map[string]string{},
		MaxResponseBodyBytes: defaultRESTResponseBodyLimit,
	}
}

// NewTimeoutRESTAdapter builds an adapter over a fresh http.Client with the
// given timeout; zero keeps the default.
func NewTimeoutRESTAdapter(timeout time.Duration) *RESTAdapter {
	if timeout <= 0 {
		timeout = defaultRESTClientTimeout
	}
	return NewRESTAdapter(&http.Client{Timeout: timeout})
}

// Do performs one exchange. Errors from the underlying client and from
// reading the body are returned unchanged.
func (a *RESTAdapter) Do(ctx context.Context, req core.TransportRequest) (core.TransportResponse, error) {
	if a == nil || a.Client == nil {
		return core.TransportResponse{}, transportError(
			"transport: rest adapter requires an http client",
			goerrors.CategoryInternal,
			http.StatusInternalServerError,
			ErrorCodeTransportConfig,
			nil,
		)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	method := strings.TrimSpace(strings.ToUpper(req.Method))
	if method == "" {
		method = http.MethodGet
	}
	parsedURL, err := url.Parse(strings.TrimSpace(req.URL))
	if err != nil {
		return core.TransportResponse{}, transportWrapError(
			err,
			goerrors.CategoryBadInput,
			"transport: invalid request url",
			http.StatusBadRequest,
			ErrorCodeTransportConfig,
			map[string]any{"url": strings.TrimSpace(req.URL)},
		)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return core.TransportResponse{}, transportError(
			"transport: request url must be absolute",
			goerrors.CategoryBadInput,
			http.StatusBadRequest,
			ErrorCodeTransportConfig,
			map[string]any{"url": parsedURL.String()},
		)
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, parsedURL.String(), body)
	if err != nil {
		return core.TransportResponse{}, transportWrapError(
			err,
			goerrors.CategoryBadInput,
			"transport: create http request",
			http.StatusBadRequest,
			ErrorCodeTransportConfig,
			map[string]any{"method": method, "url": parsedURL.String()},
		)
	}
	for key, value := range a.DefaultHeaders {
		if strings.TrimSpace(key) == "" {
			continue
		}
		httpReq.Header.Set(strings.TrimSpace(key), strings.TrimSpace(value))
	}
	for key, values := range req.Headers {
		if strings.TrimSpace(key) == "" {
			continue
		}
		httpReq.Header.Del(key)
		for _, value := range values {
			httpReq.Header.Add(key, value)
		}
	}

	httpRes, err := a.Client.Do(httpReq)
	if err != nil {
		return core.TransportResponse{}, err
	}
	defer httpRes.Body.Close()

	limit := a.MaxResponseBodyBytes
	if limit <= 0 {
		limit = defaultRESTResponseBodyLimit
	}
	payload, err := io.ReadAll(io.LimitReader(httpRes.Body, limit+1))
	if err != nil {
		return core.TransportResponse{}, err
	}
	if int64(len(payload)) > limit {
		return core.TransportResponse{}, transportError(
			fmt.Sprintf("transport: response body exceeds limit of %d bytes", limit),
			goerrors.CategoryExternal,
			http.StatusBadGateway,
			ErrorCodeResponseTooLarge,
			map[string]any{
				"status_code":      httpRes.StatusCode,
				"response_limit_b": limit,
				core.MetaRequestID: strings.TrimSpace(httpRes.Header.Get(core.HeaderRequestID)),
			},
		)
	}

	return core.TransportResponse{
		StatusCode: httpRes.StatusCode,
		Headers:    httpRes.Header.Clone(),
		Body:       payload,
	}, nil
}

var (
	_ core.Transport = (*RESTAdapter)(nil)
	_ core.Transport = Func(nil)
)
