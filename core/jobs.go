package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	JobIDReconcile   = "eventsub.reconcile"
	JobIDReset       = "eventsub.reset"
	JobIDUnsubscribe = "eventsub.unsubscribe"
	JobIDAudit       = "eventsub.audit"
)

const jobDedupPolicyDrop = "drop"

// NewJobMessage builds an execution message for one of the eventsub job ids.
func NewJobMessage(jobID string, params map[string]any) (*JobExecutionMessage, error) {
	jobID = strings.TrimSpace(jobID)
	switch jobID {
	case JobIDReconcile, JobIDReset, JobIDUnsubscribe, JobIDAudit:
	default:
		return nil, fmt.Errorf("core: unsupported job id %q is invalid", jobID)
	}
	parameters := cloneFields(params)
	return &JobExecutionMessage{
		JobID:          jobID,
		ScriptPath:     jobID,
		Parameters:     parameters,
		IdempotencyKey: jobID + ":" + uuid.NewString(),
		DedupPolicy:    jobDedupPolicyDrop,
	}, nil
}

// HandleJob runs the controller operation named by msg.JobID. Unsubscribe
// never fails; a degraded audit is reported through the notifier, not as an
// error.
func (c *Controller) HandleJob(ctx context.Context, msg *JobExecutionMessage) error {
	if c == nil {
		return notConfiguredError("core: controller is not configured")
	}
	if msg == nil {
		return c.mapError(fmt.Errorf("core: job message is required"))
	}
	switch strings.TrimSpace(msg.JobID) {
	case JobIDReconcile:
		return c.Initialize(ctx)
	case JobIDReset:
		_, err := c.ResetWebhookSubscriptions(ctx)
		return err
	case JobIDUnsubscribe:
		c.UnsubscribeFromEvents(ctx)
		return nil
	case JobIDAudit:
		_, err := c.Audit(ctx)
		return err
	default:
		return c.mapError(fmt.Errorf("core: unsupported job id %q is invalid", msg.JobID))
	}
}

// JobWorker pulls one delivery at a time and hands it to a JobHandler. Failed
// jobs are dead-lettered; reconciliation has no retry policy of its own.
type JobWorker struct {
	handler  JobHandler
	dequeuer JobDequeuer
	hook     JobWorkerHook
	now      func() time.Time
}

func NewJobWorker(handler JobHandler, dequeuer JobDequeuer, hook JobWorkerHook) *JobWorker {
	return &JobWorker{
		handler:  handler,
		dequeuer: dequeuer,
		hook:     hook,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (w *JobWorker) ProcessNext(ctx context.Context) error {
	if w == nil || w.handler == nil || w.dequeuer == nil {
		return notConfiguredError("core: job worker is not configured")
	}
	delivery, err := w.dequeuer.Dequeue(ctx)
	if err != nil {
		return err
	}
	if delivery == nil {
		return nil
	}
	msg := delivery.Message()
	startedAt := w.now()
	event := JobWorkerEvent{Message: msg, Attempt: 1, StartedAt: startedAt}
	w.onStart(ctx, event)

	if handleErr := w.handler.HandleJob(ctx, msg); handleErr != nil {
		event.Err = handleErr
		event.Duration = w.now().Sub(startedAt)
		w.onFailure(ctx, event)
		if nackErr := delivery.Nack(ctx, JobNackOptions{
			DeadLetter: true,
			Reason:     handleErr.Error(),
		}); nackErr != nil {
			return nackErr
		}
		return handleErr
	}

	event.Duration = w.now().Sub(startedAt)
	w.onSuccess(ctx, event)
	return delivery.Ack(ctx)
}

func (w *JobWorker) onStart(ctx context.Context, event JobWorkerEvent) {
	if w.hook != nil {
		w.hook.OnStart(ctx, event)
	}
}

func (w *JobWorker) onSuccess(ctx context.Context, event JobWorkerEvent) {
	if w.hook != nil {
		w.hook.OnSuccess(ctx, event)
	}
}

func (w *JobWorker) onFailure(ctx context.Context, event JobWorkerEvent) {
	if w.hook != nil {
		w.hook.OnFailure(ctx, event)
	}
}
