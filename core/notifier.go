package core

import (
	"context"
	"strings"
)

// LogNotifier writes notifications through a logger. It is the default when
// no notifier is configured.
type LogNotifier struct {
	Logger Logger
}

func (n LogNotifier) Notify(ctx context.Context, notification Notification) error {
	if n.Logger == nil {
		return nil
	}
	logger := n.Logger
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	args := flattenFields(notification.Metadata)
	args = append(args, "title", strings.TrimSpace(notification.Title))
	switch notification.Severity {
	case NotificationSeverityWarning:
		logger.Warn(notification.Message, args...)
	default:
		logger.Info(notification.Message, args...)
	}
	return nil
}

var (
	_ Notifier = LogNotifier{}
	_ Notifier = NotifierFunc(nil)
)
