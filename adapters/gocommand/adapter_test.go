package gocommand

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-command"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-eventsub/core"
	jobqueuecommand "github.com/goliatone/go-job/queue/command"
)

type okMessage struct{}

func (okMessage) Type() string { return "eventsub.command.test_ok" }

type invalidMessage struct{}

func (invalidMessage) Type() string { return "" }

type failingMessage struct{}

func (failingMessage) Type() string { return "eventsub.command.test_fail" }

func (failingMessage) Validate() error { return errors.New("invalid payload") }

type dispatchMessage struct {
	ID string
}

func (dispatchMessage) Type() string { return "eventsub.command.test_test" }

type queueMessage struct{}

func (queueMessage) Type() string { return "eventsub.command.test_queue" }

func TestValidateMessageContract(t *testing.T) {
	if err := ValidateMessageContract(okMessage{}); err != nil {
		t.Fatalf("expected valid message, got %v", err)
	}
	if err := ValidateMessageContract(invalidMessage{}); err == nil {
		t.Fatalf("expected empty type to fail contract validation")
	}
	if err := ValidateMessageContract(failingMessage{}); err == nil {
		t.Fatalf("expected Validate() failure to bubble")
	}
}

func TestRegistryAndDispatchWiring(t *testing.T) {
	adapter := NewRegistryAdapter(command.NewRegistry())
	executed := 0
	customResolverCalled := 0

	cmd := command.CommandFunc[dispatchMessage](func(context.Context, dispatchMessage) error {
		executed++
		return nil
	})

	if _, err := RegisterAndSubscribe(adapter, cmd); err != nil {
		t.Fatalf("register and subscribe: %v", err)
	}
	if err := adapter.AddResolver("custom", func(any, command.CommandMeta, *command.Registry) error {
		customResolverCalled++
		return nil
	}); err != nil {
		t.Fatalf("add resolver: %v", err)
	}
	if !adapter.HasResolver("custom") {
		t.Fatalf("expected custom resolver to be registered")
	}
	if err := adapter.Initialize(); err != nil {
		t.Fatalf("initialize registry: %v", err)
	}
	if customResolverCalled == 0 {
		t.Fatalf("expected resolver hook to run during initialization")
	}

	if err := Dispatch(context.Background(), dispatchMessage{ID: "m1"}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if executed != 1 {
		t.Fatalf("expected command execution count=1, got %d", executed)
	}
}

func TestQueueResolverHookWiring(t *testing.T) {
	adapter := NewRegistryAdapter(command.NewRegistry())
	queueRegistry := jobqueuecommand.NewRegistry()

	cmd := command.CommandFunc[queueMessage](func(context.Context, queueMessage) error { return nil })

	if err := adapter.AddQueueResolver("queue", queueRegistry); err != nil {
		t.Fatalf("add queue resolver: %v", err)
	}
	if err := adapter.RegisterCommand(cmd); err != nil {
		t.Fatalf("register command: %v", err)
	}
	if err := adapter.Initialize(); err != nil {
		t.Fatalf("initialize registry: %v", err)
	}

	if _, ok := queueRegistry.Get("eventsub.command.test_queue"); !ok {
		t.Fatalf("expected command to be mirrored into queue registry")
	}
}

func TestRegisterAndSubscribe_RejectsUntypedMessages(t *testing.T) {
	adapter := NewRegistryAdapter(command.NewRegistry())
	cmd := command.CommandFunc[invalidMessage](func(context.Context, invalidMessage) error { return nil })

	_, err := RegisterAndSubscribe[invalidMessage](adapter, cmd)
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) || rich.TextCode != core.ErrorBadInput {
		t.Fatalf("expected bad input error, got %v", err)
	}

	var missing *RegistryAdapter
	_, err = RegisterAndSubscribe[okMessage](missing, command.CommandFunc[okMessage](func(context.Context, okMessage) error { return nil }))
	if !goerrors.As(err, &rich) || rich.TextCode != core.ErrorNotConfigured {
		t.Fatalf("expected not configured error, got %v", err)
	}
}

func TestAddQueueResolver_DefaultsKey(t *testing.T) {
	adapter := NewRegistryAdapter(nil)
	if err := adapter.AddQueueResolver(" ", jobqueuecommand.NewRegistry()); err != nil {
		t.Fatalf("add queue resolver: %v", err)
	}
	if !adapter.HasResolver(QueueResolverKey) {
		t.Fatalf("expected default queue resolver key")
	}
	if err := adapter.AddQueueResolver("", nil); err == nil {
		t.Fatalf("expected missing queue registry error")
	}
}

type countingSubscription struct {
	id    int
	order *[]int
}

func (s countingSubscription) Unsubscribe() {
	*s.order = append(*s.order, s.id)
}

func TestSubscriptionSet_UnsubscribesNewestFirst(t *testing.T) {
	var order []int
	set := &SubscriptionSet{}
	for id := 1; id <= 3; id++ {
		if err := set.Track(countingSubscription{id: id, order: &order}, nil); err != nil {
			t.Fatalf("track: %v", err)
		}
	}
	trackErr := errors.New("register failed")
	if err := set.Track(countingSubscription{id: 9, order: &order}, trackErr); !errors.Is(err, trackErr) {
		t.Fatalf("expected track error passthrough, got %v", err)
	}
	if set.Len() != 3 || len(set.Subscriptions()) != 3 {
		t.Fatalf("expected 3 tracked subscriptions, got %d", set.Len())
	}

	set.UnsubscribeAll()
	if len(order) != 3 || order[0] != 3 || order[2] != 1 {
		t.Fatalf("unexpected unsubscribe order %v", order)
	}
	if set.Len() != 0 {
		t.Fatalf("expected empty set after unsubscribe")
	}
}
