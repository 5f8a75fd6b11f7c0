package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Call describes one resource request. Body is JSON-encoded unless it is
// already []byte or json.RawMessage; a Validatable body is checked before
// anything is sent.
type Call struct {
	Method  string
	Path    string
	Body    any
	Headers map[string]string
	// UnexpectedMessage overrides the message used when a 2xx response
	// breaks its contract.
	UnexpectedMessage string
}

type ExecutorConfig struct {
	BaseURL     string
	Headers     map[string]string
	Transport   Transport
	Credentials CredentialProvider
	Logger      Logger
	Metrics     MetricsRecorder
	Now         func() time.Time
}

// Executor sends authenticated calls and normalizes their outcome. It is
// safe for concurrent use.
type Executor struct {
	baseURL     string
	headers     map[string]string
	transport   Transport
	credentials CredentialProvider
	logger      Logger
	metrics     MetricsRecorder
	now         func() time.Time
}

func NewExecutor(cfg ExecutorConfig) (*Executor, error) {
	if cfg.Transport == nil {
		return nil, NewDependencyError("core: executor requires a transport")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, NewConfigError("core: executor requires a base url")
	}
	exec := &Executor{
		baseURL:     strings.TrimSpace(cfg.BaseURL),
		headers:     cloneStringMap(cfg.Headers),
		transport:   cfg.Transport,
		credentials: cfg.Credentials,
		logger:      cfg.Logger,
		metrics:     cfg.Metrics,
		now:         cfg.Now,
	}
	if exec.logger == nil {
		exec.logger = ResolveLogger("talo", nil, nil)
	}
	if exec.metrics == nil {
		exec.metrics = NopMetricsRecorder{}
	}
	if exec.now == nil {
		exec.now = time.Now
	}
	return exec, nil
}

func (e *Executor) BaseURL() string {
	if e == nil {
		return ""
	}
	return e.baseURL
}

// Do executes call and decodes a successful response into out (which may be
// nil). A 401 on a call we authorized ourselves triggers exactly one forced
// token refresh and one resend.
func (e *Executor) Do(ctx context.Context, call Call, out any) error {
	if e == nil || e.transport == nil {
		return NewDependencyError("core: executor is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if err := ValidateContract(call.Body); err != nil {
		return NewInvalidRequestError(err)
	}
	payload, err := encodeBody(call.Body)
	if err != nil {
		return NewInvalidRequestError(err)
	}

	method := strings.ToUpper(strings.TrimSpace(call.Method))
	if method == "" {
		method = http.MethodGet
	}
	target := JoinURL(e.baseURL, call.Path)
	headers := MergeHeaders(payload != nil, e.headers, call.Headers)

	startedAt := e.now()
	callerAuthorized := strings.TrimSpace(headers.Get(HeaderAuthorization)) != ""
	if !callerAuthorized {
		if err := e.authorize(ctx, headers, false); err != nil {
			return err
		}
	}

	res, err := e.transport.Do(ctx, TransportRequest{
		Method:  method,
		URL:     target,
		Headers: headers.Clone(),
		Body:    payload,
	})
	if err != nil {
		return err
	}

	retried := false
	if res.StatusCode == http.StatusUnauthorized && !callerAuthorized {
		if err := e.authorize(ctx, headers, true); err != nil {
			return err
		}
		retried = true
		res, err = e.transport.Do(ctx, TransportRequest{
			Method:  method,
			URL:     target,
			Headers: headers.Clone(),
			Body:    payload,
		})
		if err != nil {
			return err
		}
	}

	e.observe(ctx, method, call.Path, res, retried, e.now().Sub(startedAt))
	return DecodeResponse(res, out, call.UnexpectedMessage)
}

func (e *Executor) authorize(ctx context.Context, headers http.Header, forceRefresh bool) error {
	if e.credentials == nil {
		return NewDependencyError("core: no credential provider configured and no authorization header supplied")
	}
	token, err := e.credentials.AccessToken(ctx, forceRefresh)
	if err != nil {
		return err
	}
	headers.Set(HeaderAuthorization, BearerValue(token))
	return nil
}

func (e *Executor) observe(
	ctx context.Context,
	method string,
	path string,
	res TransportResponse,
	retried bool,
	elapsed time.Duration,
) {
	tags := map[string]string{
		"method": method,
		"status": strconv.Itoa(res.StatusCode),
	}
	e.metrics.IncCounter(ctx, MetricRequestTotal, 1, cloneTags(tags))
	e.metrics.ObserveHistogram(ctx, MetricRequestDuration, float64(elapsed.Milliseconds()), cloneTags(tags))
	if retried {
		e.metrics.IncCounter(ctx, MetricRequestRetried, 1, cloneTags(tags))
	}

	level := LevelDebug
	if !res.Success() {
		level = LevelWarn
	}
	Log(ctx, e.logger, level, "talo request completed", map[string]any{
		"method":      method,
		"path":        path,
		"status":      res.StatusCode,
		"request_id":  res.RequestID(),
		"retried":     retried,
		"duration_ms": elapsed.Milliseconds(),
	})
}

// DecodeResponse maps res onto out, normalizing API failures and contract
// violations. unexpectedMessage defaults to MessageUnexpectedResponse.
func DecodeResponse(res TransportResponse, out any, unexpectedMessage string) error {
	rawBody := string(res.Body)
	parsed := ParseBody(res.Body)
	if !res.Success() {
		return NewAPIError(res.StatusCode, parsed, res.RequestID(), rawBody)
	}
	if out == nil {
		return nil
	}

	unexpected := func(cause error) error {
		return NewUnexpectedResponseError(unexpectedMessage, res.StatusCode, res.RequestID(), rawBody, cause)
	}
	switch parsed.(type) {
	case nil:
		return unexpected(errors.New("response body is empty"))
	case string:
		return unexpected(errors.New("response body is not valid JSON"))
	}
	if err := json.Unmarshal(res.Body, out); err != nil {
		return unexpected(err)
	}
	if err := ValidateContract(out); err != nil {
		return unexpected(err)
	}
	return nil
}

// ParseBody returns nil for an empty body, the decoded JSON value when the
// body parses, and the raw text otherwise.
func ParseBody(body []byte) any {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	var parsed any
	if err := json.Unmarshal(body, &parsed); err != nil {
		return string(body)
	}
	return parsed
}

// MergeHeaders layers sources over the JSON defaults; later sources win and
// names are matched case-insensitively.
func MergeHeaders(hasBody bool, sources ...map[string]string) http.Header {
	headers := http.Header{}
	headers.Set(HeaderAccept, MediaTypeJSON)
	if hasBody {
		headers.Set(HeaderContentType, MediaTypeJSON)
	}
	for _, source := range sources {
		for key, value := range source {
			if strings.TrimSpace(key) == "" {
				continue
			}
			headers.Set(strings.TrimSpace(key), value)
		}
	}
	return headers
}

// BearerValue prefixes token with "Bearer " unless it already carries it.
func BearerValue(token string) string {
	token = strings.TrimSpace(token)
	if strings.HasPrefix(token, BearerPrefix) {
		return token
	}
	return BearerPrefix + token
}

// JoinURL returns path untouched when it is an absolute http(s) URL and
// otherwise joins it to base with exactly one slash.
func JoinURL(base string, path string) string {
	path = strings.TrimSpace(path)
	lower := strings.ToLower(path)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return path
	}
	return strings.TrimRight(strings.TrimSpace(base), "/") + "/" + strings.TrimLeft(path, "/")
}

func encodeBody(body any) ([]byte, error) {
	switch typed := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return typed, nil
	case json.RawMessage:
		return []byte(typed), nil
	}
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}
	return encoded, nil
}

func cloneStringMap(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}
