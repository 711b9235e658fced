package query

import "github.com/goliatone/go-eventsub/core"

const (
	TypeEngineState    = "eventsub.query.state"
	TypeDesiredSet     = "eventsub.query.desired_set"
	TypeListActivity   = "eventsub.query.activity.list"
	maxActivityPerPage = 200
)

type EngineStateMessage struct{}

func (EngineStateMessage) Type() string { return TypeEngineState }

type DesiredSetMessage struct{}

func (DesiredSetMessage) Type() string { return TypeDesiredSet }

type ListActivityMessage struct {
	Filter core.ActivityFilter
}

func (ListActivityMessage) Type() string { return TypeListActivity }

func (m ListActivityMessage) Validate() error {
	if m.Filter.Page < 0 {
		return queryValidationError("page", "page must be >= 0")
	}
	if m.Filter.PerPage < 0 || m.Filter.PerPage > maxActivityPerPage {
		return queryValidationError("per_page", "per_page must be between 0 and 200")
	}
	if m.Filter.From != nil && m.Filter.To != nil && m.Filter.To.Before(*m.Filter.From) {
		return queryValidationError("to", "to must not be before from")
	}
	return nil
}
