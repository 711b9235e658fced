package core

import (
	"fmt"
	"strings"
	"time"
)

// EventKey identifies a webhook subscription by event name and version.
type EventKey struct {
	Name    string
	Version int
}

func (k EventKey) String() string {
	return fmt.Sprintf("%s@v%d", k.Name, k.Version)
}

// DesiredSubscription is one (event, version) pair the integration requires.
type DesiredSubscription struct {
	Name    string
	Version int
}

func (d DesiredSubscription) Key() EventKey {
	return EventKey{Name: strings.TrimSpace(d.Name), Version: d.Version}
}

// RemoteSubscription is an entry as reported by the remote directory. ID may
// be empty for malformed entries; those cannot be addressed individually.
type RemoteSubscription struct {
	ID                string
	AppID             string
	BroadcasterUserID string
	Event             string
	Version           int
	Method            string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (r RemoteSubscription) Key() EventKey {
	return EventKey{Name: strings.TrimSpace(r.Event), Version: r.Version}
}

func (r RemoteSubscription) Addressable() bool {
	return strings.TrimSpace(r.ID) != ""
}

type ReconciliationResult struct {
	Create []DesiredSubscription
	Delete []string
}

func (r ReconciliationResult) Empty() bool {
	return len(r.Create) == 0 && len(r.Delete) == 0
}

func (r ReconciliationResult) clone() ReconciliationResult {
	return ReconciliationResult{
		Create: append([]DesiredSubscription{}, r.Create...),
		Delete: append([]string{}, r.Delete...),
	}
}

type BrokennessReport struct {
	Broken     bool
	Duplicates []EventKey
	Unknown    []EventKey
}

// EngineState is an in-memory snapshot of the controller. Nothing here is
// persisted; it is rebuilt from the remote directory on every Initialize.
// Broken reflects the latest pass, successful or not. LastResult and
// LastInitializedAt only move on a successful pass.
type EngineState struct {
	Ready             bool
	Broken            bool
	AuditPending      bool
	LastResult        ReconciliationResult
	LastInitializedAt *time.Time
}

type AuditReport struct {
	Expected  int
	Observed  int
	Missing   []EventKey
	Degraded  bool
	CheckedAt time.Time
}

type UnsubscribeResult struct {
	Attempted int
	Deleted   []string
	Failed    []string
}

type NotificationSeverity string

const (
	NotificationSeverityWarning NotificationSeverity = "warning"
)

type Notification struct {
	Severity NotificationSeverity
	Title    string
	Message  string
	Metadata map[string]any
}

type ActivityStatus string

const (
	ActivityStatusOK     ActivityStatus = "ok"
	ActivityStatusWarn   ActivityStatus = "warn"
	ActivityStatusFailed ActivityStatus = "failed"
)

const (
	ActivityActionInitialize  = "eventsub.initialize"
	ActivityActionReset       = "eventsub.reset"
	ActivityActionUnsubscribe = "eventsub.unsubscribe"
	ActivityActionAudit       = "eventsub.audit"
)

type ActivityEntry struct {
	ID        string
	Service   string
	Action    string
	Status    ActivityStatus
	Metadata  map[string]any
	CreatedAt time.Time
}

type ActivityFilter struct {
	Service string
	Action  string
	Status  ActivityStatus
	From    *time.Time
	To      *time.Time
	Page    int
	PerPage int
}

type ActivityPage struct {
	Items      []ActivityEntry
	Page       int
	PerPage    int
	Total      int
	HasNext    bool
	NextCursor string
}

type ActivityRetentionPolicy struct {
	TTL    time.Duration
	RowCap int
}
