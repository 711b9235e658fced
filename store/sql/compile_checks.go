package sqlstore

import "github.com/goliatone/go-eventsub/core"

var (
	_ core.ActivitySink            = (*ActivityStore)(nil)
	_ core.ActivityReader          = (*ActivityStore)(nil)
	_ core.ActivityRetentionPruner = (*ActivityStore)(nil)
)
