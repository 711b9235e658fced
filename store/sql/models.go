package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

type activityEntryRecord struct {
	bun.BaseModel `bun:"table:eventsub_activity_entries,alias:eae"`

	ID        string         `bun:"id,pk"`
	Service   string         `bun:"service,notnull"`
	Action    string         `bun:"action,notnull"`
	Status    string         `bun:"status,notnull"`
	Broken    bool           `bun:"broken,notnull"`
	Metadata  map[string]any `bun:"metadata,type:jsonb,notnull"`
	CreatedAt time.Time      `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}
