package eventsub

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-eventsub/core"
	"github.com/goliatone/go-eventsub/providers/kick"
	"github.com/goliatone/go-eventsub/transport"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
)

type Config = core.Config

type Option = core.Option

type Controller = core.Controller

type DesiredSet = core.DesiredSet
type DesiredSubscription = core.DesiredSubscription
type RemoteSubscription = core.RemoteSubscription
type EventKey = core.EventKey

type ReconciliationResult = core.ReconciliationResult
type AuditReport = core.AuditReport
type UnsubscribeResult = core.UnsubscribeResult
type EngineState = core.EngineState

type Notification = core.Notification
type Notifier = core.Notifier
type NotifierFunc = core.NotifierFunc

type SubscriptionDirectory = core.SubscriptionDirectory

func DefaultConfig() Config {
	return core.DefaultConfig()
}

func NewController(cfg Config, opts ...Option) (*Controller, error) {
	return core.NewController(cfg, opts...)
}

// KickSetup describes the Kick directory backing a controller.
type KickSetup struct {
	Config    kick.Config
	Tokens    kick.TokenSource
	Transport core.TransportAdapter
	// BroadcasterCache caches the token owner lookup when no static
	// broadcaster id is configured. When nil, an in-process cache honouring
	// Config.BroadcasterTTL is built.
	BroadcasterCache repositorycache.CacheService
	CacheScope       string
}

// Setup builds a controller reconciling the Kick webhook subscriptions the
// integration depends on. Options passed in opts override the directory and
// desired set built here.
func Setup(cfg Config, setup KickSetup, opts ...Option) (*Controller, error) {
	directory, err := NewKickDirectory(setup)
	if err != nil {
		return nil, err
	}
	base := []Option{
		core.WithDirectory(directory),
		core.WithDesiredSet(kick.DesiredSet()),
	}
	return core.NewController(cfg, append(base, opts...)...)
}

func NewKickDirectory(setup KickSetup) (*kick.Directory, error) {
	if setup.Tokens == nil {
		return nil, fmt.Errorf("eventsub: kick token source is required")
	}
	if setup.Transport == nil {
		setup.Transport = transport.NewRESTAdapter(nil)
	}
	var directoryOpts []kick.DirectoryOption
	if strings.TrimSpace(setup.Config.BroadcasterUserID) == "" {
		if setup.BroadcasterCache == nil {
			cache, err := kick.NewBroadcasterCache(setup.Config)
			if err != nil {
				return nil, err
			}
			setup.BroadcasterCache = cache
		}
		apiResolver, err := kick.NewAPIBroadcasterResolver(setup.Config, setup.Transport, setup.Tokens)
		if err != nil {
			return nil, err
		}
		cached, err := kick.NewCachedBroadcasterResolver(apiResolver, setup.BroadcasterCache, setup.CacheScope)
		if err != nil {
			return nil, err
		}
		directoryOpts = append(directoryOpts, kick.WithBroadcasterResolver(cached))
	}
	return kick.NewDirectory(setup.Config, setup.Transport, setup.Tokens, directoryOpts...)
}
