// Package kick implements the webhook subscription directory for the Kick
// public API and the catalog of events the integration depends on.
package kick

import (
	"strings"
	"time"
)

const (
	ProviderID        = "kick"
	BaseURL           = "https://api.kick.com"
	SubscriptionsPath = "/public/v1/events/subscriptions"
	UsersPath         = "/public/v1/users"
	MethodWebhook     = "webhook"
)

const defaultRequestTimeout = 10 * time.Second

// Config describes how to reach the Kick public API. BroadcasterUserID is
// optional; when empty the broadcaster is resolved from the token owner.
type Config struct {
	BaseURL           string        `koanf:"base_url" mapstructure:"base_url"`
	BroadcasterUserID string        `koanf:"broadcaster_user_id" mapstructure:"broadcaster_user_id"`
	RequestTimeout    time.Duration `koanf:"request_timeout" mapstructure:"request_timeout"`
	BroadcasterTTL    time.Duration `koanf:"broadcaster_ttl" mapstructure:"broadcaster_ttl"`
}

func DefaultConfig() Config {
	return Config{
		BaseURL:        BaseURL,
		RequestTimeout: defaultRequestTimeout,
		BroadcasterTTL: time.Hour,
	}
}

func (c Config) normalized() Config {
	defaults := DefaultConfig()
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.BaseURL == "" {
		c.BaseURL = defaults.BaseURL
	}
	c.BroadcasterUserID = strings.TrimSpace(c.BroadcasterUserID)
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = defaults.RequestTimeout
	}
	if c.BroadcasterTTL <= 0 {
		c.BroadcasterTTL = defaults.BroadcasterTTL
	}
	return c
}
