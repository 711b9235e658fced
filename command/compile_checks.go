package command

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-eventsub/core"
)

var (
	_ gocmd.Commander[InitializeMessage]  = (*InitializeCommand)(nil)
	_ gocmd.Commander[ShutdownMessage]    = (*ShutdownCommand)(nil)
	_ gocmd.Commander[ResetMessage]       = (*ResetCommand)(nil)
	_ gocmd.Commander[UnsubscribeMessage] = (*UnsubscribeCommand)(nil)
	_ gocmd.Commander[AuditMessage]       = (*AuditCommand)(nil)
	_ gocmd.Commander[EnqueueJobMessage]  = (*EnqueueJobCommand)(nil)
	_ Lifecycle                           = (*core.Controller)(nil)
)
