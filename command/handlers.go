package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-eventsub/core"
)

// Lifecycle is the controller surface the commands drive.
type Lifecycle interface {
	Initialize(ctx context.Context) error
	Shutdown()
	ResetWebhookSubscriptions(ctx context.Context) (core.ReconciliationResult, error)
	UnsubscribeFromEvents(ctx context.Context) core.UnsubscribeResult
	Audit(ctx context.Context) (core.AuditReport, error)
}

type InitializeCommand struct {
	lifecycle Lifecycle
}

func NewInitializeCommand(lifecycle Lifecycle) *InitializeCommand {
	return &InitializeCommand{lifecycle: lifecycle}
}

func (c *InitializeCommand) Execute(ctx context.Context, _ InitializeMessage) error {
	if c == nil || c.lifecycle == nil {
		return commandDependencyError("command: initialize lifecycle is required")
	}
	return c.lifecycle.Initialize(ctx)
}

type ShutdownCommand struct {
	lifecycle Lifecycle
}

func NewShutdownCommand(lifecycle Lifecycle) *ShutdownCommand {
	return &ShutdownCommand{lifecycle: lifecycle}
}

func (c *ShutdownCommand) Execute(_ context.Context, _ ShutdownMessage) error {
	if c == nil || c.lifecycle == nil {
		return commandDependencyError("command: shutdown lifecycle is required")
	}
	c.lifecycle.Shutdown()
	return nil
}

type ResetCommand struct {
	lifecycle Lifecycle
}

func NewResetCommand(lifecycle Lifecycle) *ResetCommand {
	return &ResetCommand{lifecycle: lifecycle}
}

func (c *ResetCommand) Execute(ctx context.Context, msg ResetMessage) error {
	if c == nil || c.lifecycle == nil {
		return commandDependencyError("command: reset lifecycle is required")
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	out, err := c.lifecycle.ResetWebhookSubscriptions(ctx)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type UnsubscribeCommand struct {
	lifecycle Lifecycle
}

func NewUnsubscribeCommand(lifecycle Lifecycle) *UnsubscribeCommand {
	return &UnsubscribeCommand{lifecycle: lifecycle}
}

func (c *UnsubscribeCommand) Execute(ctx context.Context, msg UnsubscribeMessage) error {
	if c == nil || c.lifecycle == nil {
		return commandDependencyError("command: unsubscribe lifecycle is required")
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	storeResult(ctx, c.lifecycle.UnsubscribeFromEvents(ctx))
	return nil
}

type AuditCommand struct {
	lifecycle Lifecycle
}

func NewAuditCommand(lifecycle Lifecycle) *AuditCommand {
	return &AuditCommand{lifecycle: lifecycle}
}

func (c *AuditCommand) Execute(ctx context.Context, _ AuditMessage) error {
	if c == nil || c.lifecycle == nil {
		return commandDependencyError("command: audit lifecycle is required")
	}
	out, err := c.lifecycle.Audit(ctx)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

// EnqueueJobCommand defers a lifecycle operation to the job queue instead of
// running it inline.
type EnqueueJobCommand struct {
	enqueuer core.JobEnqueuer
}

func NewEnqueueJobCommand(enqueuer core.JobEnqueuer) *EnqueueJobCommand {
	return &EnqueueJobCommand{enqueuer: enqueuer}
}

func (c *EnqueueJobCommand) Execute(ctx context.Context, msg EnqueueJobMessage) error {
	if c == nil || c.enqueuer == nil {
		return commandDependencyError("command: job enqueuer is required")
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	job, err := core.NewJobMessage(msg.JobID, msg.Parameters)
	if err != nil {
		return err
	}
	if err := c.enqueuer.Enqueue(ctx, job); err != nil {
		return err
	}
	storeResult(ctx, *job)
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
