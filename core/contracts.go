package core

import (
	"context"
	"net/http"
	"strings"

	glog "github.com/goliatone/go-logger/glog"
)

const (
	HeaderAuthorization = "Authorization"
	HeaderAccept        = "Accept"
	HeaderContentType   = "Content-Type"
	HeaderRequestID     = "X-Request-Id"

	MediaTypeJSON = "application/json"
	BearerPrefix  = "Bearer "
)

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

// Validatable is implemented by request and response contracts.
type Validatable interface {
	Validate() error
}

type TransportRequest struct {
	Method  string
	URL     string
	Headers http.Header
	Body    []byte
}

type TransportResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

func (r TransportResponse) RequestID() string {
	if r.Headers == nil {
		return ""
	}
	return strings.TrimSpace(r.Headers.Get(HeaderRequestID))
}

func (r TransportResponse) Success() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Transport performs a single HTTP exchange. Network failures are returned
// unchanged so callers can tell them apart from API failures.
type Transport interface {
	Do(ctx context.Context, req TransportRequest) (TransportResponse, error)
}

// CredentialProvider supplies the bearer token attached to resource calls.
// forceRefresh asks managed providers to mint a new token even when the
// cached one still looks valid.
type CredentialProvider interface {
	AccessToken(ctx context.Context, forceRefresh bool) (string, error)
}

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}
