package core

import (
	"context"
	"strings"
	"sync"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

// Controller keeps the remote webhook subscriptions in line with a fixed
// desired set. Initialize must not be called concurrently on the same
// controller; state reads and the scheduled audit are safe to overlap with
// other calls.
type Controller struct {
	config          Config
	logger          Logger
	loggerProvider  LoggerProvider
	metricsRecorder MetricsRecorder
	errorMapper     ErrorMapper
	directory       SubscriptionDirectory
	desired         DesiredSet
	notifier        Notifier
	scheduler       Scheduler
	activitySink    ActivitySink
	now             func() time.Time
	sleep           SleepFunc

	mu                sync.Mutex
	ready             bool
	broken            bool
	lastResult        ReconciliationResult
	lastInitializedAt time.Time
	pendingAudit      ScheduledTask
	auditCancel       context.CancelFunc
	auditGeneration   uint64
}

func NewController(cfg Config, opts ...Option) (*Controller, error) {
	builder := defaultControllerBuilder(cfg)
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve("eventsub", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("eventsub"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.errorMapper == nil {
		builder.errorMapper = DefaultErrorMapper
	}
	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}
	if builder.scheduler == nil {
		builder.scheduler = TimerScheduler{}
	}
	if builder.now == nil {
		builder.now = func() time.Time { return time.Now().UTC() }
	}
	if builder.sleep == nil {
		builder.sleep = sleepContext
	}
	if builder.notifier == nil {
		builder.notifier = LogNotifier{Logger: logger}
	}
	if builder.directory == nil {
		return nil, mapBuildError(builder.errorMapper, notConfiguredError("core: subscription directory is required"))
	}
	if builder.desired.IsZero() {
		return nil, mapBuildError(builder.errorMapper, notConfiguredError("core: desired subscription set is required"))
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	return &Controller{
		config:          finalConfig,
		logger:          logger,
		loggerProvider:  provider,
		metricsRecorder: builder.metricsRecorder,
		errorMapper:     builder.errorMapper,
		directory:       builder.directory,
		desired:         builder.desired,
		notifier:        builder.notifier,
		scheduler:       builder.scheduler,
		activitySink:    builder.activitySink,
		now:             builder.now,
		sleep:           builder.sleep,
	}, nil
}

func mapBuildError(mapper ErrorMapper, err error) error {
	if err == nil {
		return nil
	}
	if mapper == nil {
		return err
	}
	mapped := mapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

func (c *Controller) Config() Config {
	if c == nil {
		return Config{}
	}
	return c.config
}

func (c *Controller) DesiredSet() DesiredSet {
	if c == nil {
		return DesiredSet{}
	}
	return c.desired
}

func (c *Controller) Ready() bool {
	if c == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready
}

func (c *Controller) State() EngineState {
	if c == nil {
		return EngineState{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	state := EngineState{
		Ready:        c.ready,
		Broken:       c.broken,
		AuditPending: c.pendingAudit != nil,
		LastResult:   c.lastResult.clone(),
	}
	if !c.lastInitializedAt.IsZero() {
		at := c.lastInitializedAt
		state.LastInitializedAt = &at
	}
	return state
}

// Initialize fetches the remote list, reconciles it against the desired set,
// applies the result and schedules the one-shot audit.
//
// A failed list is treated as empty and a failed delete is logged; neither
// aborts the pass. A failed create or a cancelled settle wait is returned,
// leaves the controller not ready and drops any audit scheduled by an earlier
// pass. Deletes already applied are not rolled back.
func (c *Controller) Initialize(ctx context.Context) (err error) {
	if c == nil || c.directory == nil {
		return notConfiguredError("core: controller is not configured")
	}
	startedAt := c.now()
	fields := map[string]any{}
	activityStatus := ActivityStatusOK
	defer func() {
		c.observeOperation(ctx, startedAt, "initialize", err, fields)
		if err != nil {
			activityStatus = ActivityStatusFailed
		}
		c.recordActivity(ctx, ActivityActionInitialize, activityStatus, fields)
	}()

	current := c.listCurrent(ctx, "initialize")
	report := DetectBrokenness(current, c.desired)

	c.mu.Lock()
	c.broken = report.Broken
	c.mu.Unlock()

	fields["current_count"] = len(current)
	fields["broken"] = report.Broken
	if report.Broken {
		activityStatus = ActivityStatusWarn
		c.logWarn(ctx, "remote webhook subscriptions are inconsistent; resetting all", map[string]any{
			"duplicates": keyStrings(report.Duplicates),
			"unknown":    keyStrings(report.Unknown),
		})
	}

	result := Reconcile(current, c.desired, report.Broken)
	fields["create_count"] = len(result.Create)
	fields["delete_count"] = len(result.Delete)
	if result.Empty() {
		c.logInfo(ctx, "webhook subscriptions already converged", map[string]any{
			"count": len(current),
		})
	}

	if len(result.Delete) > 0 {
		if deleteErr := c.directory.Delete(ctx, result.Delete); deleteErr != nil {
			activityStatus = ActivityStatusWarn
			fields["delete_error"] = deleteErr.Error()
			c.logWarn(ctx, "delete webhook subscriptions failed; continuing", map[string]any{
				"ids":   append([]string{}, result.Delete...),
				"error": deleteErr.Error(),
			})
		}
	}

	if len(result.Delete) > 0 && len(result.Create) > 0 {
		if err = c.sleep(ctx, c.config.SettleDelay); err != nil {
			c.markNotReady()
			err = c.mapError(err)
			return err
		}
	}

	if len(result.Create) > 0 {
		if createErr := c.directory.Create(ctx, result.Create); createErr != nil {
			c.markNotReady()
			err = c.mapError(createFailedError(createErr, len(result.Create)))
			return err
		}
	}

	c.mu.Lock()
	c.lastResult = result.clone()
	c.lastInitializedAt = c.now()
	c.ready = true
	c.mu.Unlock()

	c.scheduleAudit(ctx)
	return nil
}

// Shutdown cancels a pending audit and marks the controller not ready. It is
// idempotent.
func (c *Controller) Shutdown() {
	if c == nil {
		return
	}
	if wasReady := c.markNotReady(); wasReady {
		c.logInfo(context.Background(), "eventsub shut down", nil)
	}
}

// markNotReady clears readiness and invalidates any scheduled or running
// audit. It reports whether the controller was ready before the call.
func (c *Controller) markNotReady() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	wasReady := c.ready
	c.cancelAuditLocked()
	c.auditGeneration++
	c.ready = false
	return wasReady
}

// ResetWebhookSubscriptions deletes every addressable remote subscription and
// creates nothing. Delete failures are logged, not returned.
func (c *Controller) ResetWebhookSubscriptions(ctx context.Context) (result ReconciliationResult, err error) {
	if c == nil || c.directory == nil {
		return ReconciliationResult{}, notConfiguredError("core: controller is not configured")
	}
	startedAt := c.now()
	fields := map[string]any{}
	activityStatus := ActivityStatusOK
	defer func() {
		c.observeOperation(ctx, startedAt, "reset", err, fields)
		c.recordActivity(ctx, ActivityActionReset, activityStatus, fields)
	}()

	current := c.listCurrent(ctx, "reset")
	result = ReconciliationResult{
		Create: []DesiredSubscription{},
		Delete: addressableIDs(current),
	}
	fields["current_count"] = len(current)
	fields["delete_count"] = len(result.Delete)

	if len(result.Delete) == 0 {
		return result, nil
	}
	if deleteErr := c.directory.Delete(ctx, result.Delete); deleteErr != nil {
		activityStatus = ActivityStatusWarn
		fields["delete_error"] = deleteErr.Error()
		c.logWarn(ctx, "reset webhook subscriptions failed", map[string]any{
			"ids":   append([]string{}, result.Delete...),
			"error": deleteErr.Error(),
		})
	}
	return result, nil
}

// UnsubscribeFromEvents removes every addressable remote subscription one id
// at a time. It runs during teardown and never fails.
func (c *Controller) UnsubscribeFromEvents(ctx context.Context) UnsubscribeResult {
	result := UnsubscribeResult{Deleted: []string{}, Failed: []string{}}
	if c == nil || c.directory == nil {
		return result
	}
	startedAt := c.now()
	fields := map[string]any{}
	defer func() {
		fields["attempted"] = result.Attempted
		fields["deleted_count"] = len(result.Deleted)
		fields["failed_count"] = len(result.Failed)
		activityStatus := ActivityStatusOK
		if len(result.Failed) > 0 {
			activityStatus = ActivityStatusWarn
		}
		c.observeOperation(ctx, startedAt, "unsubscribe", nil, fields)
		c.recordActivity(ctx, ActivityActionUnsubscribe, activityStatus, fields)
	}()

	current := c.listCurrent(ctx, "unsubscribe")
	for _, id := range addressableIDs(current) {
		result.Attempted++
		if deleteErr := c.directory.Delete(ctx, []string{id}); deleteErr != nil {
			result.Failed = append(result.Failed, id)
			c.logWarn(ctx, "unsubscribe webhook subscription failed", map[string]any{
				"id":    id,
				"error": deleteErr.Error(),
			})
			continue
		}
		result.Deleted = append(result.Deleted, id)
	}
	return result
}

// listCurrent downgrades a list failure to an empty result.
func (c *Controller) listCurrent(ctx context.Context, operation string) []RemoteSubscription {
	current, err := c.directory.List(ctx)
	if err != nil {
		c.logError(ctx, "list webhook subscriptions failed; treating as empty", map[string]any{
			"operation": operation,
			"error":     err.Error(),
		})
		return []RemoteSubscription{}
	}
	out := make([]RemoteSubscription, 0, len(current))
	for _, entry := range current {
		entry.ID = strings.TrimSpace(entry.ID)
		entry.Event = strings.TrimSpace(entry.Event)
		out = append(out, entry)
	}
	return out
}

func (c *Controller) mapError(err error) error {
	if err == nil {
		return nil
	}
	if c == nil || c.errorMapper == nil {
		return err
	}
	mapped := c.errorMapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}
