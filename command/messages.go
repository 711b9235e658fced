package command

import (
	"strings"

	"github.com/goliatone/go-eventsub/core"
)

const (
	TypeInitialize  = "eventsub.command.initialize"
	TypeShutdown    = "eventsub.command.shutdown"
	TypeReset       = "eventsub.command.reset"
	TypeUnsubscribe = "eventsub.command.unsubscribe"
	TypeAudit       = "eventsub.command.audit"
	TypeEnqueueJob  = "eventsub.command.job.enqueue"
)

type InitializeMessage struct{}

func (InitializeMessage) Type() string { return TypeInitialize }

type ShutdownMessage struct{}

func (ShutdownMessage) Type() string { return TypeShutdown }

// ResetMessage deletes every addressable subscription. Confirm must be set.
type ResetMessage struct {
	Confirm bool
}

func (ResetMessage) Type() string { return TypeReset }

func (m ResetMessage) Validate() error {
	if !m.Confirm {
		return commandValidationError("confirm", "reset must be confirmed")
	}
	return nil
}

type UnsubscribeMessage struct {
	Confirm bool
}

func (UnsubscribeMessage) Type() string { return TypeUnsubscribe }

func (m UnsubscribeMessage) Validate() error {
	if !m.Confirm {
		return commandValidationError("confirm", "unsubscribe must be confirmed")
	}
	return nil
}

type AuditMessage struct{}

func (AuditMessage) Type() string { return TypeAudit }

type EnqueueJobMessage struct {
	JobID      string
	Parameters map[string]any
}

func (EnqueueJobMessage) Type() string { return TypeEnqueueJob }

func (m EnqueueJobMessage) Validate() error {
	switch strings.TrimSpace(m.JobID) {
	case "":
		return commandValidationError("job_id", "job id is required")
	case core.JobIDReconcile, core.JobIDReset, core.JobIDUnsubscribe, core.JobIDAudit:
		return nil
	default:
		return commandValidationError("job_id", "unsupported job id")
	}
}
