package query

import (
	"context"

	"github.com/goliatone/go-eventsub/core"
)

type StateReader interface {
	State() core.EngineState
}

type DesiredSetReader interface {
	DesiredSet() core.DesiredSet
}

type EngineStateQuery struct {
	reader StateReader
}

func NewEngineStateQuery(reader StateReader) *EngineStateQuery {
	return &EngineStateQuery{reader: reader}
}

func (q *EngineStateQuery) Query(_ context.Context, _ EngineStateMessage) (core.EngineState, error) {
	if q == nil || q.reader == nil {
		return core.EngineState{}, queryDependencyError("query: state reader is required")
	}
	return q.reader.State(), nil
}

type DesiredSetQuery struct {
	reader DesiredSetReader
}

func NewDesiredSetQuery(reader DesiredSetReader) *DesiredSetQuery {
	return &DesiredSetQuery{reader: reader}
}

func (q *DesiredSetQuery) Query(_ context.Context, _ DesiredSetMessage) ([]core.DesiredSubscription, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: desired set reader is required")
	}
	return q.reader.DesiredSet().Entries(), nil
}

type ListActivityQuery struct {
	reader core.ActivityReader
}

func NewListActivityQuery(reader core.ActivityReader) *ListActivityQuery {
	return &ListActivityQuery{reader: reader}
}

func (q *ListActivityQuery) Query(ctx context.Context, msg ListActivityMessage) (core.ActivityPage, error) {
	if q == nil || q.reader == nil {
		return core.ActivityPage{}, queryDependencyError("query: activity reader is required")
	}
	if err := msg.Validate(); err != nil {
		return core.ActivityPage{}, err
	}
	return q.reader.List(ctx, msg.Filter)
}
