package eventsub

import (
	"fmt"

	commanddispatcher "github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-eventsub/adapters/gocommand"
	eventsubcommand "github.com/goliatone/go-eventsub/command"
	"github.com/goliatone/go-eventsub/core"
	eventsubquery "github.com/goliatone/go-eventsub/query"
)

// Lifecycle is what the facade needs from a controller.
type Lifecycle interface {
	eventsubcommand.Lifecycle
	eventsubquery.StateReader
	eventsubquery.DesiredSetReader
}

type Commands struct {
	Initialize  *eventsubcommand.InitializeCommand
	Shutdown    *eventsubcommand.ShutdownCommand
	Reset       *eventsubcommand.ResetCommand
	Unsubscribe *eventsubcommand.UnsubscribeCommand
	Audit       *eventsubcommand.AuditCommand
	EnqueueJob  *eventsubcommand.EnqueueJobCommand
}

type Queries struct {
	State        *eventsubquery.EngineStateQuery
	DesiredSet   *eventsubquery.DesiredSetQuery
	ListActivity *eventsubquery.ListActivityQuery
}

type Facade struct {
	lifecycle Lifecycle
	commands  Commands
	queries   Queries
}

type FacadeOption func(*facadeOptions)

type facadeOptions struct {
	activityReader core.ActivityReader
	jobEnqueuer    core.JobEnqueuer
}

func WithActivityReader(reader core.ActivityReader) FacadeOption {
	return func(options *facadeOptions) {
		options.activityReader = reader
	}
}

// WithJobEnqueuer enables the enqueue command.
func WithJobEnqueuer(enqueuer core.JobEnqueuer) FacadeOption {
	return func(options *facadeOptions) {
		options.jobEnqueuer = enqueuer
	}
}

func NewFacade(lifecycle Lifecycle, opts ...FacadeOption) (*Facade, error) {
	if lifecycle == nil {
		return nil, fmt.Errorf("eventsub: lifecycle is required")
	}
	cfg := facadeOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	facade := &Facade{lifecycle: lifecycle}
	facade.commands = Commands{
		Initialize:  eventsubcommand.NewInitializeCommand(lifecycle),
		Shutdown:    eventsubcommand.NewShutdownCommand(lifecycle),
		Reset:       eventsubcommand.NewResetCommand(lifecycle),
		Unsubscribe: eventsubcommand.NewUnsubscribeCommand(lifecycle),
		Audit:       eventsubcommand.NewAuditCommand(lifecycle),
	}
	if cfg.jobEnqueuer != nil {
		facade.commands.EnqueueJob = eventsubcommand.NewEnqueueJobCommand(cfg.jobEnqueuer)
	}
	facade.queries = Queries{
		State:      eventsubquery.NewEngineStateQuery(lifecycle),
		DesiredSet: eventsubquery.NewDesiredSetQuery(lifecycle),
	}
	if cfg.activityReader != nil {
		facade.queries.ListActivity = eventsubquery.NewListActivityQuery(cfg.activityReader)
	}

	return facade, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Lifecycle() Lifecycle {
	if f == nil {
		return nil
	}
	return f.lifecycle
}

// Register subscribes every configured command and query on the global
// dispatcher and records them in the registry. On failure, subscriptions made
// so far are removed.
func (f *Facade) Register(adapter *gocommand.RegistryAdapter) ([]commanddispatcher.Subscription, error) {
	if f == nil {
		return nil, fmt.Errorf("eventsub: facade is nil")
	}
	set := &gocommand.SubscriptionSet{}
	steps := []func() error{
		func() error {
			return set.Track(gocommand.RegisterAndSubscribe[eventsubcommand.InitializeMessage](adapter, f.commands.Initialize))
		},
		func() error {
			return set.Track(gocommand.RegisterAndSubscribe[eventsubcommand.ShutdownMessage](adapter, f.commands.Shutdown))
		},
		func() error {
			return set.Track(gocommand.RegisterAndSubscribe[eventsubcommand.ResetMessage](adapter, f.commands.Reset))
		},
		func() error {
			return set.Track(gocommand.RegisterAndSubscribe[eventsubcommand.UnsubscribeMessage](adapter, f.commands.Unsubscribe))
		},
		func() error {
			return set.Track(gocommand.RegisterAndSubscribe[eventsubcommand.AuditMessage](adapter, f.commands.Audit))
		},
		func() error {
			return set.Track(gocommand.RegisterAndSubscribeQuery[eventsubquery.EngineStateMessage, core.EngineState](adapter, f.queries.State))
		},
		func() error {
			return set.Track(gocommand.RegisterAndSubscribeQuery[eventsubquery.DesiredSetMessage, []core.DesiredSubscription](adapter, f.queries.DesiredSet))
		},
	}
	if f.commands.EnqueueJob != nil {
		steps = append(steps, func() error {
			return set.Track(gocommand.RegisterAndSubscribe[eventsubcommand.EnqueueJobMessage](adapter, f.commands.EnqueueJob))
		})
	}
	if f.queries.ListActivity != nil {
		steps = append(steps, func() error {
			return set.Track(gocommand.RegisterAndSubscribeQuery[eventsubquery.ListActivityMessage, core.ActivityPage](adapter, f.queries.ListActivity))
		})
	}

	for _, step := range steps {
		if err := step(); err != nil {
			set.UnsubscribeAll()
			return nil, err
		}
	}
	return set.Subscriptions(), nil
}
