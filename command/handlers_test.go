package command

import (
	"context"
	"errors"
	"testing"

	gocmd "github.com/goliatone/go-command"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-eventsub/core"
)

type stubLifecycle struct {
	calls       []string
	initErr     error
	resetResult core.ReconciliationResult
	resetErr    error
	unsubscribe core.UnsubscribeResult
	report      core.AuditReport
	auditErr    error
}

func (s *stubLifecycle) Initialize(context.Context) error {
	s.calls = append(s.calls, "initialize")
	return s.initErr
}

func (s *stubLifecycle) Shutdown() {
	s.calls = append(s.calls, "shutdown")
}

func (s *stubLifecycle) ResetWebhookSubscriptions(context.Context) (core.ReconciliationResult, error) {
	s.calls = append(s.calls, "reset")
	return s.resetResult, s.resetErr
}

func (s *stubLifecycle) UnsubscribeFromEvents(context.Context) core.UnsubscribeResult {
	s.calls = append(s.calls, "unsubscribe")
	return s.unsubscribe
}

func (s *stubLifecycle) Audit(context.Context) (core.AuditReport, error) {
	s.calls = append(s.calls, "audit")
	return s.report, s.auditErr
}

type stubEnqueuer struct {
	last *core.JobExecutionMessage
	err  error
}

func (s *stubEnqueuer) Enqueue(_ context.Context, msg *core.JobExecutionMessage) error {
	s.last = msg
	return s.err
}

func TestInitializeAndShutdownCommandsDelegate(t *testing.T) {
	lifecycle := &stubLifecycle{}
	ctx := context.Background()

	if err := NewInitializeCommand(lifecycle).Execute(ctx, InitializeMessage{}); err != nil {
		t.Fatalf("execute initialize: %v", err)
	}
	if err := NewShutdownCommand(lifecycle).Execute(ctx, ShutdownMessage{}); err != nil {
		t.Fatalf("execute shutdown: %v", err)
	}
	if len(lifecycle.calls) != 2 || lifecycle.calls[0] != "initialize" || lifecycle.calls[1] != "shutdown" {
		t.Fatalf("unexpected calls %v", lifecycle.calls)
	}

	lifecycle.initErr = errors.New("create failed")
	if err := NewInitializeCommand(lifecycle).Execute(ctx, InitializeMessage{}); !errors.Is(err, lifecycle.initErr) {
		t.Fatalf("expected initialize error to propagate, got %v", err)
	}
}

func TestResetCommand_StoresResult(t *testing.T) {
	lifecycle := &stubLifecycle{resetResult: core.ReconciliationResult{Delete: []string{"sub_1", "sub_2"}}}
	collector := gocmd.NewResult[core.ReconciliationResult]()
	ctx := gocmd.ContextWithResult(context.Background(), collector)

	if err := NewResetCommand(lifecycle).Execute(ctx, ResetMessage{Confirm: true}); err != nil {
		t.Fatalf("execute reset: %v", err)
	}
	result, ok := collector.Load()
	if !ok {
		t.Fatalf("expected result to be stored")
	}
	if len(result.Delete) != 2 {
		t.Fatalf("unexpected reset result %#v", result)
	}
}

func TestResetCommand_RequiresConfirmation(t *testing.T) {
	lifecycle := &stubLifecycle{}
	err := NewResetCommand(lifecycle).Execute(context.Background(), ResetMessage{})
	if err == nil {
		t.Fatalf("expected confirmation error")
	}
	if len(lifecycle.calls) != 0 {
		t.Fatalf("expected no lifecycle call without confirmation, got %v", lifecycle.calls)
	}
}

func TestUnsubscribeCommand_StoresResult(t *testing.T) {
	lifecycle := &stubLifecycle{unsubscribe: core.UnsubscribeResult{Attempted: 2, Deleted: []string{"a"}, Failed: []string{"b"}}}
	collector := gocmd.NewResult[core.UnsubscribeResult]()
	ctx := gocmd.ContextWithResult(context.Background(), collector)

	if err := NewUnsubscribeCommand(lifecycle).Execute(ctx, UnsubscribeMessage{Confirm: true}); err != nil {
		t.Fatalf("execute unsubscribe: %v", err)
	}
	result, ok := collector.Load()
	if !ok || result.Attempted != 2 || len(result.Failed) != 1 {
		t.Fatalf("unexpected unsubscribe result %#v", result)
	}
}

func TestAuditCommand_StoresReport(t *testing.T) {
	lifecycle := &stubLifecycle{report: core.AuditReport{Expected: 9, Observed: 8, Degraded: true}}
	collector := gocmd.NewResult[core.AuditReport]()
	ctx := gocmd.ContextWithResult(context.Background(), collector)

	if err := NewAuditCommand(lifecycle).Execute(ctx, AuditMessage{}); err != nil {
		t.Fatalf("execute audit: %v", err)
	}
	report, ok := collector.Load()
	if !ok || !report.Degraded || report.Observed != 8 {
		t.Fatalf("unexpected audit report %#v", report)
	}

	lifecycle.auditErr = errors.New("not ready")
	if err := NewAuditCommand(lifecycle).Execute(context.Background(), AuditMessage{}); err == nil {
		t.Fatalf("expected audit error")
	}
}

func TestEnqueueJobCommand_BuildsJobMessage(t *testing.T) {
	enqueuer := &stubEnqueuer{}
	collector := gocmd.NewResult[core.JobExecutionMessage]()
	ctx := gocmd.ContextWithResult(context.Background(), collector)

	err := NewEnqueueJobCommand(enqueuer).Execute(ctx, EnqueueJobMessage{
		JobID:      core.JobIDReconcile,
		Parameters: map[string]any{"trigger": "deploy"},
	})
	if err != nil {
		t.Fatalf("execute enqueue: %v", err)
	}
	if enqueuer.last == nil || enqueuer.last.JobID != core.JobIDReconcile {
		t.Fatalf("expected reconcile job enqueued, got %#v", enqueuer.last)
	}
	stored, ok := collector.Load()
	if !ok || stored.IdempotencyKey != enqueuer.last.IdempotencyKey {
		t.Fatalf("expected stored job message, got %#v", stored)
	}

	enqueuer.err = errors.New("queue full")
	if err := NewEnqueueJobCommand(enqueuer).Execute(context.Background(), EnqueueJobMessage{JobID: core.JobIDAudit}); !errors.Is(err, enqueuer.err) {
		t.Fatalf("expected enqueue error, got %v", err)
	}
}

func TestMessageValidation(t *testing.T) {
	tests := []struct {
		name    string
		msg     interface{ Validate() error }
		wantErr bool
	}{
		{name: "reset confirmed", msg: ResetMessage{Confirm: true}},
		{name: "reset unconfirmed", msg: ResetMessage{}, wantErr: true},
		{name: "unsubscribe confirmed", msg: UnsubscribeMessage{Confirm: true}},
		{name: "unsubscribe unconfirmed", msg: UnsubscribeMessage{}, wantErr: true},
		{name: "job id known", msg: EnqueueJobMessage{JobID: core.JobIDAudit}},
		{name: "job id missing", msg: EnqueueJobMessage{}, wantErr: true},
		{name: "job id unknown", msg: EnqueueJobMessage{JobID: "eventsub.refresh_token"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.msg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidationReturnsRichError(t *testing.T) {
	err := (ResetMessage{}).Validate()
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.Category != goerrors.CategoryValidation {
		t.Fatalf("expected validation category, got %q", rich.Category)
	}
	if rich.TextCode != core.ErrorBadInput {
		t.Fatalf("expected %q text code, got %q", core.ErrorBadInput, rich.TextCode)
	}
}

func TestNilCommandsReturnDependencyError(t *testing.T) {
	var cmd *InitializeCommand
	err := cmd.Execute(context.Background(), InitializeMessage{})
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) || rich.Category != goerrors.CategoryInternal {
		t.Fatalf("expected internal envelope, got %v", err)
	}
	if err := NewAuditCommand(nil).Execute(context.Background(), AuditMessage{}); err == nil {
		t.Fatalf("expected audit dependency error")
	}
	if err := NewEnqueueJobCommand(nil).Execute(context.Background(), EnqueueJobMessage{JobID: core.JobIDAudit}); err == nil {
		t.Fatalf("expected enqueuer dependency error")
	}
}
