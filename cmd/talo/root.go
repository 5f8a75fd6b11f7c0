package main

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"

	gocmd "github.com/goliatone/go-command"
	"github.com/spf13/cobra"

	talo "github.com/goliatone/go-talo"
	"github.com/goliatone/go-talo/adapters/gocommand"
	"github.com/goliatone/go-talo/adapters/gologger"
	"github.com/goliatone/go-talo/core"
)

const webhookSecretEnv = core.EnvPrefix + "WEBHOOK_SECRET"

type app struct {
	out    io.Writer
	errOut io.Writer
	lookup func(string) (string, bool)

	envFiles  []string
	baseURL   string
	logLevel  string
	logFormat string

	logger     *gologger.ZeroLogger
	clientOpts []talo.Option
}

func newApp(out io.Writer, errOut io.Writer) *app {
	return &app{out: out, errOut: errOut, lookup: os.LookupEnv}
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "talo",
		Short:         "Talo payment API client",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			a.logger = gologger.New(a.errOut, a.logLevel, a.logFormat)
		},
	}
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	flags := root.PersistentFlags()
	flags.StringSliceVar(&a.envFiles, "env-file", []string{".env"}, "dotenv files read before the process environment")
	flags.StringVar(&a.baseURL, "base-url", "", "API base URL (default "+core.DefaultBaseURL+")")
	flags.StringVar(&a.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	flags.StringVar(&a.logFormat, "log-format", gologger.FormatConsole, "log format (console, json)")

	root.AddCommand(
		newPaymentCommand(a),
		newCustomerCommand(a),
		newFaucetCommand(a),
		newServeCommand(a),
	)
	return root
}

func (a *app) config(ctx context.Context) (core.Config, error) {
	loader := core.EnvRawConfigLoader{Files: a.envFiles, Lookup: a.lookup}
	return core.ResolveConfig(ctx, core.NewCfgxConfigProvider(loader), nil, core.Config{
		BaseURL: strings.TrimSpace(a.baseURL),
	})
}

func (a *app) client(ctx context.Context) (*talo.Client, error) {
	cfg, err := a.config(ctx)
	if err != nil {
		return nil, err
	}
	opts := append([]talo.Option{
		talo.WithLoggerProvider(a.loggerProvider()),
	}, a.clientOpts...)
	return talo.New(cfg, opts...)
}

func (a *app) loggerProvider() core.LoggerProvider {
	if a.logger == nil {
		a.logger = gologger.New(a.errOut, a.logLevel, a.logFormat)
	}
	return gologger.NewZeroProvider(a.logger)
}

// dispatch runs fn with every client operation subscribed on the command
// dispatcher and unsubscribes afterwards.
func (a *app) dispatch(ctx context.Context, fn func(ctx context.Context) error) error {
	client, err := a.client(ctx)
	if err != nil {
		return err
	}
	cleanup, err := gocommand.RegisterTalo(gocommand.NewRegistryAdapter(gocmd.NewRegistry()), client, nil)
	if err != nil {
		return err
	}
	defer cleanup()
	return fn(ctx)
}

func (a *app) printJSON(value any) error {
	encoder := json.NewEncoder(a.out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}

// runCommand dispatches msg and prints the stored result.
func runCommand[T any, R any](ctx context.Context, a *app, msg T) error {
	return a.dispatch(ctx, func(ctx context.Context) error {
		collector := gocmd.NewResult[R]()
		if err := gocommand.Dispatch(gocmd.ContextWithResult(ctx, collector), msg); err != nil {
			return err
		}
		result, _ := collector.Load()
		return a.printJSON(result)
	})
}

func runQuery[T any, R any](ctx context.Context, a *app, msg T) error {
	return a.dispatch(ctx, func(ctx context.Context) error {
		result, err := gocommand.Query[T, R](ctx, msg)
		if err != nil {
			return err
		}
		return a.printJSON(result)
	})
}

// decodeData reads a JSON request body from the flag value, a file
// (@path) or stdin (-).
func decodeData(cmd *cobra.Command, data string, target any) error {
	data = strings.TrimSpace(data)
	var raw []byte
	switch {
	case data == "-":
		body, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return err
		}
		raw = body
	case strings.HasPrefix(data, "@"):
		body, err := os.ReadFile(strings.TrimPrefix(data, "@"))
		if err != nil {
			return err
		}
		raw = body
	default:
		raw = []byte(data)
	}
	if len(raw) == 0 {
		return core.NewFieldError("data", "Request body is required")
	}
	return json.Unmarshal(raw, target)
}
