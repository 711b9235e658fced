// Package gocommand binds eventsub commands and queries to the go-command
// registry and global dispatcher.
package gocommand

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/goliatone/go-command"
	commanddispatcher "github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-eventsub/core"
	jobqueuecommand "github.com/goliatone/go-job/queue/command"
)

// QueueResolverKey is the resolver name used when mirroring registered
// commands into a go-job queue registry.
const QueueResolverKey = "eventsub.queue"

// ValidateMessageContract requires a non-empty Type() and runs Validate()
// when the message has one.
func ValidateMessageContract(msg any) error {
	if err := command.ValidateMessage(msg); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "gocommand: message validation failed").
			WithCode(http.StatusBadRequest).
			WithTextCode(core.ErrorBadInput)
	}
	m, ok := msg.(command.Message)
	if !ok {
		return contractError("gocommand: message must implement Type() string")
	}
	if strings.TrimSpace(m.Type()) == "" {
		return contractError("gocommand: message type is required")
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
	if err := a.configured(); err != nil {
		return err
	}
	return a.registry.RegisterCommand(cmd)
}

// RegisterQuery records a query handler. go-command keeps commands and
// queries in the same registry.
func (a *RegistryAdapter) RegisterQuery(qry any) error {
	if err := a.configured(); err != nil {
		return err
	}
	return a.registry.RegisterCommand(qry)
}

func (a *RegistryAdapter) AddResolver(key string, resolver command.Resolver) error {
	if err := a.configured(); err != nil {
		return err
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return contractError("gocommand: resolver key is required")
	}
	return a.registry.AddResolver(key, resolver)
}

// AddQueueResolver mirrors every registered command into queueRegistry on
// Initialize, so the same handlers can run from a go-job worker.
func (a *RegistryAdapter) AddQueueResolver(key string, queueRegistry *jobqueuecommand.Registry) error {
	if queueRegistry == nil {
		return notConfiguredError("gocommand: queue registry is required")
	}
	if strings.TrimSpace(key) == "" {
		key = QueueResolverKey
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
	if err := a.configured(); err != nil {
		return err
	}
	return a.registry.Initialize()
}

func (a *RegistryAdapter) configured() error {
	if a == nil || a.registry == nil {
		return notConfiguredError("gocommand: registry is not configured")
	}
	return nil
}

func Dispatch[T any](ctx context.Context, msg T) error {
	return commanddispatcher.Dispatch(ctx, msg)
}

func Query[T any, R any](ctx context.Context, msg T) (R, error) {
	return commanddispatcher.Query[T, R](ctx, msg)
}

// RegisterAndSubscribe checks the message contract of T, subscribes cmd on
// the global dispatcher and records it in the registry. The subscription is
// dropped again when registration fails.
func RegisterAndSubscribe[T any](
	adapter *RegistryAdapter,
	cmd command.Commander[T],
	runnerOpts ...runner.Option,
) (commanddispatcher.Subscription, error) {
	if err := adapter.configured(); err != nil {
		return nil, err
	}
	if cmd == nil {
		return nil, notConfiguredError("gocommand: command is required")
	}
	var zero T
	if err := typeContract(zero); err != nil {
		return nil, err
	}
	subscription := commanddispatcher.SubscribeCommand(cmd, runnerOpts...)
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
	if err := adapter.configured(); err != nil {
		return nil, err
	}
	if qry == nil {
		return nil, notConfiguredError("gocommand: query is required")
	}
	var zero T
	if err := typeContract(zero); err != nil {
		return nil, err
	}
	subscription := commanddispatcher.SubscribeQuery(qry, runnerOpts...)
	if err := adapter.RegisterQuery(qry); err != nil {
		if subscription != nil {
			subscription.Unsubscribe()
		}
		return nil, err
	}
	return subscription, nil
}

// SubscriptionSet collects dispatcher subscriptions so they can be removed
// together.
type SubscriptionSet struct {
	mu    sync.Mutex
	items []commanddispatcher.Subscription
}

// Track appends subscription when err is nil and returns err unchanged. It is
// shaped to wrap RegisterAndSubscribe calls directly.
func (s *SubscriptionSet) Track(subscription commanddispatcher.Subscription, err error) error {
	if err != nil {
		return err
	}
	if subscription == nil {
		return nil
	}
	s.mu.Lock()
	s.items = append(s.items, subscription)
	s.mu.Unlock()
	return nil
}

func (s *SubscriptionSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *SubscriptionSet) Subscriptions() []commanddispatcher.Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]commanddispatcher.Subscription(nil), s.items...)
}

// UnsubscribeAll removes every tracked subscription, newest first, and
// empties the set.
func (s *SubscriptionSet) UnsubscribeAll() {
	s.mu.Lock()
	items := s.items
	s.items = nil
	s.mu.Unlock()
	for index := len(items) - 1; index >= 0; index-- {
		items[index].Unsubscribe()
	}
}

// typeContract only checks Type(); zero values are not expected to pass
// Validate().
func typeContract(msg any) error {
	m, ok := msg.(command.Message)
	if !ok {
		return contractError("gocommand: message must implement Type() string")
	}
	if strings.TrimSpace(m.Type()) == "" {
		return contractError("gocommand: message type is required")
	}
	return nil
}

func contractError(message string) error {
	return goerrors.New(message, goerrors.CategoryValidation).
		WithCode(http.StatusBadRequest).
		WithTextCode(core.ErrorBadInput)
}

func notConfiguredError(message string) error {
	return goerrors.New(message, goerrors.CategoryInternal).
		WithCode(http.StatusInternalServerError).
		WithTextCode(core.ErrorNotConfigured)
}
