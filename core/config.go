package core

import (
	"fmt"
	"strings"
	"time"
)

const (
	// DefaultAuditDelay is how long after Initialize the one-shot audit runs.
	DefaultAuditDelay = 5 * time.Second
	// DefaultSettleDelay separates a delete batch from the following create
	// batch so the create does not race a delete still settling remotely.
	DefaultSettleDelay = 100 * time.Millisecond
)

const DegradedNotificationMessage = "Webhook subscriptions with the streaming platform could not be verified. " +
	"Chat, follow, subscription, gift and stream status events may be delayed or unreliable " +
	"until the integration is reconnected."

type Config struct {
	ServiceName     string        `koanf:"service_name" mapstructure:"service_name"`
	AuditDelay      time.Duration `koanf:"audit_delay" mapstructure:"audit_delay"`
	SettleDelay     time.Duration `koanf:"settle_delay" mapstructure:"settle_delay"`
	DegradedMessage string        `koanf:"degraded_message" mapstructure:"degraded_message"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName:     "eventsub",
		AuditDelay:      DefaultAuditDelay,
		SettleDelay:     DefaultSettleDelay,
		DegradedMessage: DegradedNotificationMessage,
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if c.AuditDelay < 0 {
		return fmt.Errorf("core: audit_delay must not be negative")
	}
	if c.SettleDelay < 0 {
		return fmt.Errorf("core: settle_delay must not be negative")
	}
	if strings.TrimSpace(c.DegradedMessage) == "" {
		return fmt.Errorf("core: degraded_message is required")
	}
	return nil
}
