package core

import (
	"context"
	"time"
)

// scheduleAudit replaces any pending audit with a fresh one bound to a new
// generation. An audit that fires after Shutdown or a later Initialize sees a
// stale generation and does nothing.
func (c *Controller) scheduleAudit(parent context.Context) {
	if c == nil || c.scheduler == nil {
		return
	}
	if parent == nil {
		parent = context.Background()
	}
	auditCtx, cancel := context.WithCancel(context.WithoutCancel(parent))

	c.mu.Lock()
	c.cancelAuditLocked()
	c.auditGeneration++
	generation := c.auditGeneration
	c.auditCancel = cancel
	delay := c.config.AuditDelay
	c.mu.Unlock()

	task := c.scheduler.Schedule(delay, func() {
		c.runScheduledAudit(auditCtx, generation)
	})

	c.mu.Lock()
	if c.auditGeneration == generation {
		c.pendingAudit = task
	} else if task != nil {
		task.Cancel()
	}
	c.mu.Unlock()
}

func (c *Controller) cancelAuditLocked() {
	if c.pendingAudit != nil {
		c.pendingAudit.Cancel()
		c.pendingAudit = nil
	}
	if c.auditCancel != nil {
		c.auditCancel()
		c.auditCancel = nil
	}
}

func (c *Controller) runScheduledAudit(ctx context.Context, generation uint64) {
	c.mu.Lock()
	if c.auditGeneration != generation {
		c.mu.Unlock()
		return
	}
	c.pendingAudit = nil
	ready := c.ready
	c.mu.Unlock()

	if !ready {
		return
	}
	if ctx.Err() != nil {
		return
	}
	_, _ = c.audit(ctx, "scheduled", func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		return ctx.Err() == nil && c.auditGeneration == generation && c.ready
	})
}

// Audit re-lists the remote subscriptions and checks them against the desired
// set. A degraded result sends one warning notification, the same as the
// scheduled audit.
func (c *Controller) Audit(ctx context.Context) (AuditReport, error) {
	if c == nil || c.directory == nil {
		return AuditReport{}, notConfiguredError("core: controller is not configured")
	}
	return c.audit(ctx, "manual", nil)
}

// audit lists once and reports. A non-nil current is consulted after the list
// returns; when it reports false the run was superseded and nothing is
// logged, recorded or notified.
func (c *Controller) audit(ctx context.Context, trigger string, current func() bool) (report AuditReport, err error) {
	startedAt := c.now()
	fields := map[string]any{"trigger": trigger}
	superseded := false
	defer func() {
		if superseded {
			return
		}
		fields["degraded"] = report.Degraded
		fields["observed_count"] = report.Observed
		fields["missing"] = keyStrings(report.Missing)
		activityStatus := ActivityStatusOK
		if report.Degraded {
			activityStatus = ActivityStatusWarn
		}
		c.observeOperation(ctx, startedAt, "audit", err, fields)
		c.recordActivity(ctx, ActivityActionAudit, activityStatus, fields)
	}()

	listed := c.listCurrent(ctx, "audit")
	if current != nil && !current() {
		superseded = true
		c.logInfo(ctx, "scheduled audit superseded; skipping", map[string]any{
			"trigger": trigger,
		})
		return AuditReport{}, nil
	}
	report = buildAuditReport(listed, c.desired, c.now())

	if !report.Degraded {
		c.logInfo(ctx, "webhook subscriptions verified", map[string]any{
			"count": len(listed),
		})
		return report, nil
	}

	for _, key := range report.Missing {
		c.logWarn(ctx, "webhook subscription missing after initialize", map[string]any{
			"event":   key.Name,
			"version": key.Version,
		})
	}
	c.recordCounter(ctx, MetricAuditDegraded, 1, map[string]string{
		"service": c.config.ServiceName,
		"trigger": trigger,
	})
	c.notifyDegraded(ctx, report)
	return report, nil
}

func (c *Controller) notifyDegraded(ctx context.Context, report AuditReport) {
	if c.notifier == nil {
		return
	}
	notification := Notification{
		Severity: NotificationSeverityWarning,
		Title:    "Webhook subscriptions degraded",
		Message:  c.config.DegradedMessage,
		Metadata: map[string]any{
			"service":        c.config.ServiceName,
			"expected_count": report.Expected,
			"observed_count": report.Observed,
			"missing":        keyStrings(report.Missing),
		},
	}
	if err := c.notifier.Notify(ctx, notification); err != nil {
		c.logWarn(ctx, "degraded notification failed", map[string]any{
			"error": err.Error(),
		})
	}
}

// buildAuditReport flags the result as degraded when the remote count differs
// from the desired count or any desired pair is absent.
func buildAuditReport(current []RemoteSubscription, desired DesiredSet, checkedAt time.Time) AuditReport {
	present := make(map[EventKey]struct{}, len(current))
	for _, entry := range current {
		present[entry.Key()] = struct{}{}
	}
	missing := []EventKey{}
	for _, key := range desired.Keys() {
		if _, ok := present[key]; !ok {
			missing = append(missing, key)
		}
	}
	return AuditReport{
		Expected:  desired.Len(),
		Observed:  len(current),
		Missing:   missing,
		Degraded:  len(current) != desired.Len() || len(missing) > 0,
		CheckedAt: checkedAt,
	}
}
