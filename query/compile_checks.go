package query

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-eventsub/core"
)

var (
	_ gocmd.Querier[EngineStateMessage, core.EngineState]          = (*EngineStateQuery)(nil)
	_ gocmd.Querier[DesiredSetMessage, []core.DesiredSubscription] = (*DesiredSetQuery)(nil)
	_ gocmd.Querier[ListActivityMessage, core.ActivityPage]        = (*ListActivityQuery)(nil)
	_ StateReader                                                  = (*core.Controller)(nil)
	_ DesiredSetReader                                             = (*core.Controller)(nil)
)
