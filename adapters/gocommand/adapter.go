// Package gocommand registers the Talo commands and queries with a
// go-command registry and the global dispatcher.
package gocommand

import (
	"context"
	"strings"

	"github.com/goliatone/go-command"
	commanddispatcher "github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
	goerrors "github.com/goliatone/go-errors"
	jobqueuecommand "github.com/goliatone/go-job/queue/command"
	talocommand "github.com/goliatone/go-talo/command"
	"github.com/goliatone/go-talo/core"
	taloquery "github.com/goliatone/go-talo/query"
	"github.com/goliatone/go-talo/schema"
)

// ValidateMessageContract enforces Type() plus optional Validate() contract.
func ValidateMessageContract(msg any) error {
	if err := command.ValidateMessage(msg); err != nil {
		return err
	}
	m, ok := msg.(command.Message)
	if !ok {
		return adapterError("gocommand: message must implement Type() string")
	}
	if strings.TrimSpace(m.Type()) == "" {
		return adapterError("gocommand: message type is required")
	}
	return nil
}

type RegistryAdapter struct {
	registry *command.Registry
}

func NewRegistryAdapter(registry *command.Registry) *RegistryAdapter {
	if registry == nil {
		registry = command.NewRegistry()
	}
	return &RegistryAdapter{registry: registry}
}

func (a *RegistryAdapter) Registry() *command.Registry {
	if a == nil {
		return nil
	}
	return a.registry
}

func (a *RegistryAdapter) RegisterCommand(cmd any) error {
	if a == nil || a.registry == nil {
		return errRegistryNotConfigured()
	}
	return a.registry.RegisterCommand(cmd)
}

func (a *RegistryAdapter) RegisterQuery(qry any) error {
	if a == nil || a.registry == nil {
		return errRegistryNotConfigured()
	}
	return a.registry.RegisterCommand(qry)
}

func (a *RegistryAdapter) AddResolver(key string, resolver command.Resolver) error {
	if a == nil || a.registry == nil {
		return errRegistryNotConfigured()
	}
	return a.registry.AddResolver(strings.TrimSpace(key), resolver)
}

func (a *RegistryAdapter) AddQueueResolver(key string, queueRegistry *jobqueuecommand.Registry) error {
	if queueRegistry == nil {
		return adapterError("gocommand: queue registry is required")
	}
	return a.AddResolver(key, jobqueuecommand.QueueResolver(queueRegistry))
}

func (a *RegistryAdapter) HasResolver(key string) bool {
	if a == nil || a.registry == nil {
		return false
	}
	return a.registry.HasResolver(strings.TrimSpace(key))
}

func (a *RegistryAdapter) Initialize() error {
	if a == nil || a.registry == nil {
		return errRegistryNotConfigured()
	}
	return a.registry.Initialize()
}

func SubscribeCommand[T any](cmd command.Commander[T], runnerOpts ...runner.Option) commanddispatcher.Subscription {
	return commanddispatcher.SubscribeCommand(cmd, runnerOpts...)
}

func SubscribeCommandFunc[T any](handler command.CommandFunc[T], runnerOpts ...runner.Option) commanddispatcher.Subscription {
	return commanddispatcher.SubscribeCommand(handler, runnerOpts...)
}

func SubscribeQuery[T any, R any](qry command.Querier[T, R], runnerOpts ...runner.Option) commanddispatcher.Subscription {
	return commanddispatcher.SubscribeQuery(qry, runnerOpts...)
}

func SubscribeQueryFunc[T any, R any](qry command.QueryFunc[T, R], runnerOpts ...runner.Option) commanddispatcher.Subscription {
	return commanddispatcher.SubscribeQuery(qry, runnerOpts...)
}

func Dispatch[T any](ctx context.Context, msg T) error {
	return commanddispatcher.Dispatch(ctx, msg)
}

func Query[T any, R any](ctx context.Context, msg T) (R, error) {
	return commanddispatcher.Query[T, R](ctx, msg)
}

func RegisterAndSubscribe[T any](
	adapter *RegistryAdapter,
	cmd command.Commander[T],
	runnerOpts ...runner.Option,
) (commanddispatcher.Subscription, error) {
	if adapter == nil || adapter.registry == nil {
		return nil, errRegistryNotConfigured()
	}
	if cmd == nil {
		return nil, adapterError("gocommand: command is required")
	}
	subscription := SubscribeCommand(cmd, runnerOpts...)
	if err := adapter.RegisterCommand(cmd); err != nil {
		if subscription != nil {
			subscription.Unsubscribe()
		}
		return nil, err
	}
	return subscription, nil
}

func RegisterAndSubscribeQuery[T any, R any](
	adapter *RegistryAdapter,
	qry command.Querier[T, R],
	runnerOpts ...runner.Option,
) (commanddispatcher.Subscription, error) {
	if adapter == nil || adapter.registry == nil {
		return nil, errRegistryNotConfigured()
	}
	if qry == nil {
		return nil, adapterError("gocommand: query is required")
	}
	subscription := SubscribeQuery(qry, runnerOpts...)
	if err := adapter.RegisterQuery(qry); err != nil {
		if subscription != nil {
			subscription.Unsubscribe()
		}
		return nil, err
	}
	return subscription, nil
}

// Service is the client surface the handlers need; *talo.Client satisfies it.
type Service interface {
	talocommand.MutatingService
	taloquery.PaymentReader
	taloquery.CustomerReader
}

// RegisterTalo registers and subscribes every Talo command and query. When
// customers is non-nil it serves the customer queries instead of service.
// The returned subscriptions are unsubscribed together by the cleanup func.
func RegisterTalo(adapter *RegistryAdapter, service Service, customers taloquery.CustomerReader) (func(), error) {
	if service == nil {
		return nil, adapterError("gocommand: talo service is required")
	}
	if customers == nil {
		customers = service
	}
	var subscriptions []commanddispatcher.Subscription
	cleanup := func() {
		for _, sub := range subscriptions {
			if sub != nil {
				sub.Unsubscribe()
			}
		}
	}
	track := func(sub commanddispatcher.Subscription, err error) error {
		if err != nil {
			return err
		}
		subscriptions = append(subscriptions, sub)
		return nil
	}

	steps := []func() error{
		func() error {
			return track(RegisterAndSubscribe[talocommand.CreatePaymentMessage](adapter, talocommand.NewCreatePaymentCommand(service)))
		},
		func() error {
			return track(RegisterAndSubscribe[talocommand.UpdatePaymentMetadataMessage](adapter, talocommand.NewUpdatePaymentMetadataCommand(service)))
		},
		func() error {
			return track(RegisterAndSubscribe[talocommand.CreateRefundMessage](adapter, talocommand.NewCreateRefundCommand(service)))
		},
		func() error {
			return track(RegisterAndSubscribe[talocommand.CreateCustomerMessage](adapter, talocommand.NewCreateCustomerCommand(service)))
		},
		func() error {
			return track(RegisterAndSubscribe[talocommand.SimulateCvuTransferMessage](adapter, talocommand.NewSimulateCvuTransferCommand(service)))
		},
		func() error {
			return track(RegisterAndSubscribeQuery[taloquery.GetPaymentMessage, schema.Payment](adapter, taloquery.NewGetPaymentQuery(service)))
		},
		func() error {
			return track(RegisterAndSubscribeQuery[taloquery.GetCustomerMessage, schema.Customer](adapter, taloquery.NewGetCustomerQuery(customers)))
		},
		func() error {
			return track(RegisterAndSubscribeQuery[taloquery.GetCustomerTransactionMessage, schema.CustomerTransaction](
				adapter,
				taloquery.NewGetCustomerTransactionQuery(customers),
			))
		},
	}
	for _, step := range steps {
		if err := step(); err != nil {
			cleanup()
			return nil, err
		}
	}
	return cleanup, nil
}

func errRegistryNotConfigured() error {
	return adapterError("gocommand: registry is not configured")
}

func adapterError(message string) error {
	return goerrors.New(message, goerrors.CategoryInternal).
		WithTextCode(core.ErrorCodeInternal)
}
