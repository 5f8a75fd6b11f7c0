package talo

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-talo/auth"
	"github.com/goliatone/go-talo/core"
	"github.com/goliatone/go-talo/schema"
	"github.com/goliatone/go-talo/transport"
)

type Config = core.Config

const DefaultBaseURL = core.DefaultBaseURL

type Option func(*clientOptions)

type clientOptions struct {
	transport      core.Transport
	httpClient     transport.HTTPDoer
	credentials    core.CredentialProvider
	logger         core.Logger
	loggerProvider core.LoggerProvider
	metrics        core.MetricsRecorder
	now            func() time.Time
}

// WithTransport replaces the HTTP transport used for every exchange.
func WithTransport(t core.Transport) Option {
	return func(o *clientOptions) { o.transport = t }
}

// WithHTTPClient keeps the REST transport but sends through client.
func WithHTTPClient(client transport.HTTPDoer) Option {
	return func(o *clientOptions) { o.httpClient = client }
}

// WithCredentials overrides the credential provider derived from Config.
func WithCredentials(provider core.CredentialProvider) Option {
	return func(o *clientOptions) { o.credentials = provider }
}

func WithLogger(logger core.Logger) Option {
	return func(o *clientOptions) { o.logger = logger }
}

func WithLoggerProvider(provider core.LoggerProvider) Option {
	return func(o *clientOptions) { o.loggerProvider = provider }
}

func WithMetrics(recorder core.MetricsRecorder) Option {
	return func(o *clientOptions) { o.metrics = recorder }
}

func WithClock(now func() time.Time) Option {
	return func(o *clientOptions) { o.now = now }
}

type Client struct {
	config      Config
	executor    *core.Executor
	credentials core.CredentialProvider
	logger      core.Logger

	Payments  *Payments
	Customers *Customers
	Refunds   *Refunds
	Sandbox   *Sandbox
	Webhooks  *Webhooks
}

// New builds a client. Zero-valued config fields take their defaults; the
// config must carry either a static token or the full client-credentials
// triple unless WithCredentials is given.
func New(cfg Config, opts ...Option) (*Client, error) {
	options := clientOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	cfg = cfg.WithDefaults()
	if options.credentials != nil {
		if err := cfg.ValidateEndpoint(); err != nil {
			return nil, err
		}
	} else if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := core.ResolveLogger("talo", options.loggerProvider, options.logger)

	tr := options.transport
	if tr == nil {
		if options.httpClient != nil {
			tr = transport.NewRESTAdapter(options.httpClient)
		} else {
			tr = transport.NewTimeoutRESTAdapter(cfg.Timeout)
		}
	}

	credentials := options.credentials
	if credentials == nil {
		var err error
		credentials, err = newCredentials(cfg, tr, logger, options.now)
		if err != nil {
			return nil, err
		}
	}

	executor, err := core.NewExecutor(core.ExecutorConfig{
		BaseURL:     cfg.BaseURL,
		Headers:     cfg.Headers,
		Transport:   tr,
		Credentials: credentials,
		Logger:      logger,
		Metrics:     options.metrics,
		Now:         options.now,
	})
	if err != nil {
		return nil, err
	}

	client := &Client{
		config:      cfg,
		executor:    executor,
		credentials: credentials,
		logger:      logger,
	}
	client.Payments = &Payments{exec: executor}
	client.Customers = &Customers{exec: executor}
	client.Refunds = &Refunds{exec: executor}
	client.Sandbox = &Sandbox{exec: executor}
	client.Webhooks = &Webhooks{payments: client.Payments, logger: logger}
	return client, nil
}

func newCredentials(cfg Config, tr core.Transport, logger core.Logger, now func() time.Time) (core.CredentialProvider, error) {
	if token := cfg.StaticToken(); token != "" {
		return auth.NewStaticCredentials(token)
	}
	return auth.NewTokenManager(auth.TokenManagerConfig{
		BaseURL: cfg.BaseURL,
		Credentials: auth.ClientCredentials{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			UserID:       cfg.UserID,
		},
		Headers:       cfg.Headers,
		Transport:     tr,
		RefreshWindow: cfg.RefreshWindow,
		TokenTTL:      cfg.TokenTTL,
		Logger:        logger,
		Now:           now,
	})
}

// Config returns the resolved configuration.
func (c *Client) Config() Config {
	return c.config
}

// Executor exposes the request pipeline for calls the resource groups do
// not cover.
func (c *Client) Executor() *core.Executor {
	return c.executor
}

// AccessToken resolves the bearer token the next call would use.
func (c *Client) AccessToken(ctx context.Context, forceRefresh bool) (string, error) {
	return c.credentials.AccessToken(ctx, forceRefresh)
}

func (c *Client) CreatePayment(ctx context.Context, req schema.CreatePaymentRequest) (schema.Payment, error) {
	return c.Payments.Create(ctx, req)
}

func (c *Client) GetPayment(ctx context.Context, paymentID string) (schema.Payment, error) {
	return c.Payments.Get(ctx, paymentID)
}

func (c *Client) UpdatePaymentMetadata(ctx context.Context, paymentID string, req schema.UpdatePaymentMetadataRequest) (schema.Payment, error) {
	return c.Payments.UpdateMetadata(ctx, paymentID, req)
}

func (c *Client) CreateCustomer(ctx context.Context, req schema.CreateCustomerRequest) (schema.Customer, error) {
	return c.Customers.Create(ctx, req)
}

func (c *Client) GetCustomer(ctx context.Context, customerID string) (schema.Customer, error) {
	return c.Customers.Get(ctx, customerID)
}

func (c *Client) GetCustomerTransaction(ctx context.Context, customerID string, transactionID string) (schema.CustomerTransaction, error) {
	return c.Customers.GetTransaction(ctx, customerID, transactionID)
}

func (c *Client) CreateRefund(ctx context.Context, paymentID string, req schema.CreateRefundRequest) (schema.Refund, error) {
	return c.Refunds.Create(ctx, paymentID, req)
}

func (c *Client) SimulateCvuTransfer(ctx context.Context, cvu string, req schema.FaucetRequest) (schema.FaucetResponse, error) {
	return c.Sandbox.SimulateCvuTransfer(ctx, cvu, req)
}

// identifier validates and escapes one path segment.
func identifier(field string, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", core.NewFieldError(field, "Identifier is required")
	}
	return url.PathEscape(value), nil
}
