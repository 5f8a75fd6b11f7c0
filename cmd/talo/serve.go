package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	goerrors "github.com/goliatone/go-errors"
	persistence "github.com/goliatone/go-persistence-bun"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/gorilla/mux"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-talo/core"
	storecache "github.com/goliatone/go-talo/store/cache"
	sqlstore "github.com/goliatone/go-talo/store/sql"
	"github.com/goliatone/go-talo/webhooks"
)

type serveOptions struct {
	addr            string
	webhookPath     string
	secret          string
	dbDriver        string
	dbDSN           string
	cacheTTL        time.Duration
	claimLease      time.Duration
	shutdownTimeout time.Duration
}

func newServeCommand(a *app) *cobra.Command {
	opts := serveOptions{}
	serve := &cobra.Command{
		Use:   "serve-webhooks",
		Short: "Receive Talo webhooks and serve stored payment snapshots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx, opts)
		},
	}
	flags := serve.Flags()
	flags.StringVar(&opts.addr, "addr", ":8080", "listen address")
	flags.StringVar(&opts.webhookPath, "path", "/webhooks/talo", "webhook route")
	flags.StringVar(&opts.secret, "secret", "", "shared signing secret (default $"+webhookSecretEnv+")")
	flags.StringVar(&opts.dbDriver, "db-driver", sqlstore.DriverSQLite, "delivery store driver (sqlite3, postgres)")
	flags.StringVar(&opts.dbDSN, "db-dsn", "file:talo.db?cache=shared&_foreign_keys=on", "delivery store DSN")
	flags.DurationVar(&opts.cacheTTL, "cache-ttl", time.Minute, "customer read cache TTL")
	flags.DurationVar(&opts.claimLease, "claim-lease", webhooks.DefaultClaimLease, "how long an unfinished delivery blocks redeliveries")
	flags.DurationVar(&opts.shutdownTimeout, "shutdown-timeout", 10*time.Second, "graceful shutdown timeout")
	return serve
}

// routes holds the collaborators behind the HTTP surface.
type routes struct {
	webhookPath string
	webhook     http.Handler
	snapshots   *sqlstore.PaymentSnapshotStore
	customers   *storecache.CustomerReader
	logger      core.Logger
}

func (a *app) serve(ctx context.Context, opts serveOptions) error {
	store, err := sqlstore.Open(ctx, sqlstore.Config{Driver: opts.dbDriver, DSN: opts.dbDSN})
	if err != nil {
		return err
	}
	defer store.Close()

	r, err := a.newRoutes(ctx, opts, store)
	if err != nil {
		return err
	}
	logger := r.logger

	server := &http.Server{
		Addr:              opts.addr,
		Handler:           r.router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errs := make(chan error, 1)
	go func() {
		core.Log(ctx, logger, core.LevelInfo, "listening", map[string]any{
			"addr": opts.addr,
			"path": r.webhookPath,
		})
		errs <- server.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), opts.shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func (a *app) newRoutes(ctx context.Context, opts serveOptions, store *persistence.Client) (routes, error) {
	client, err := a.client(ctx)
	if err != nil {
		return routes{}, err
	}
	factory, err := sqlstore.NewRepositoryFactoryFromPersistence(store)
	if err != nil {
		return routes{}, err
	}
	cacheConfig := repositorycache.DefaultConfig()
	if opts.cacheTTL > 0 {
		cacheConfig.TTL = opts.cacheTTL
	}
	cacheService, err := repositorycache.NewCacheService(cacheConfig)
	if err != nil {
		return routes{}, err
	}
	customers, err := storecache.NewCustomerReader(client, cacheService)
	if err != nil {
		return routes{}, err
	}

	secret := strings.TrimSpace(opts.secret)
	if secret == "" && a.lookup != nil {
		secret, _ = a.lookup(webhookSecretEnv)
	}
	logger := core.ResolveLogger("talo.serve", a.loggerProvider(), nil)
	if secret == "" {
		core.Log(ctx, logger, core.LevelWarn, "webhook signatures are not verified", nil)
	}

	return routes{
		webhookPath: opts.webhookPath,
		webhook: client.Webhooks.PaymentHandler(webhooks.HandlerOptions{
			Secret:            secret,
			Ledger:            factory.WebhookDeliveryStore(),
			ClaimLease:        opts.claimLease,
			OnPaymentResolved: factory.PaymentSnapshotStore().Resolved,
			OnCustomerPayment: customers.OnCustomerPayment,
		}),
		snapshots: factory.PaymentSnapshotStore(),
		customers: customers,
		logger:    logger,
	}, nil
}

func (r routes) router() *mux.Router {
	router := mux.NewRouter()
	path := strings.TrimSpace(r.webhookPath)
	if path == "" {
		path = "/webhooks/talo"
	}
	router.Handle(path, r.webhook).Methods(http.MethodPost)
	router.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)
	router.HandleFunc("/payments/{payment_id}/snapshot", r.paymentSnapshot).Methods(http.MethodGet)
	router.HandleFunc("/customers/{customer_id}", r.customer).Methods(http.MethodGet)
	router.HandleFunc("/customers/{customer_id}/transactions/{transaction_id}", r.customerTransaction).Methods(http.MethodGet)
	return router
}

func (r routes) paymentSnapshot(w http.ResponseWriter, req *http.Request) {
	snapshot, err := r.snapshots.Get(req.Context(), mux.Vars(req)["payment_id"])
	if err != nil {
		r.writeError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (r routes) customer(w http.ResponseWriter, req *http.Request) {
	customer, err := r.customers.GetCustomer(req.Context(), mux.Vars(req)["customer_id"])
	if err != nil {
		r.writeError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, customer)
}

func (r routes) customerTransaction(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)
	tx, err := r.customers.GetCustomerTransaction(req.Context(), vars["customer_id"], vars["transaction_id"])
	if err != nil {
		r.writeError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

// writeError keeps client errors from the API or the store and reports
// anything else as a bad gateway.
func (r routes) writeError(w http.ResponseWriter, req *http.Request, err error) {
	status := http.StatusBadGateway
	body := map[string]any{"message": err.Error()}
	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		if rich.Code >= 400 && rich.Code < 500 {
			status = rich.Code
		}
		if rich.TextCode != "" {
			body["code"] = rich.TextCode
		}
	}
	core.Log(req.Context(), r.logger, core.LevelWarn, "request failed", map[string]any{
		"path":   req.URL.Path,
		"status": status,
		"error":  err.Error(),
	})
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
