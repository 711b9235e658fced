package kick

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/goliatone/go-eventsub/core"
	"github.com/goliatone/go-eventsub/transport"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
)

const broadcasterCacheKeyPrefix = "go-eventsub::kick::broadcaster::v1"

// BroadcasterResolver supplies the broadcaster user id that new webhook
// subscriptions are bound to.
type BroadcasterResolver interface {
	BroadcasterUserID(ctx context.Context) (string, error)
}

type StaticBroadcaster string

func (b StaticBroadcaster) BroadcasterUserID(context.Context) (string, error) {
	return normalizeBroadcasterID(string(b))
}

// APIBroadcasterResolver asks the users endpoint who owns the current token.
type APIBroadcasterResolver struct {
	config    Config
	transport core.TransportAdapter
	tokens    TokenSource
}

func NewAPIBroadcasterResolver(cfg Config, adapter core.TransportAdapter, tokens TokenSource) (*APIBroadcasterResolver, error) {
	if adapter == nil {
		return nil, fmt.Errorf("kick: transport adapter is required")
	}
	if tokens == nil {
		return nil, fmt.Errorf("kick: token source is required")
	}
	return &APIBroadcasterResolver{config: cfg.normalized(), transport: adapter, tokens: tokens}, nil
}

func (r *APIBroadcasterResolver) BroadcasterUserID(ctx context.Context) (string, error) {
	if r == nil || r.transport == nil {
		return "", fmt.Errorf("kick: broadcaster resolver is not configured")
	}
	authorization, err := bearer(ctx, r.tokens)
	if err != nil {
		return "", err
	}
	res, err := r.transport.Do(ctx, core.TransportRequest{
		Method:  http.MethodGet,
		URL:     r.config.BaseURL + UsersPath,
		Headers: map[string]string{"Authorization": authorization},
		Timeout: r.config.RequestTimeout,
	})
	if err != nil {
		return "", err
	}
	if err := transport.CheckStatus(res, "kick users lookup"); err != nil {
		return "", err
	}
	var envelope usersEnvelope
	if err := json.Unmarshal(res.Body, &envelope); err != nil {
		return "", fmt.Errorf("kick: decode users response: %w", err)
	}
	if len(envelope.Data) == 0 {
		return "", fmt.Errorf("kick: users response is empty; broadcaster id is required")
	}
	return normalizeBroadcasterID(envelope.Data[0].UserID.String())
}

// CachedBroadcasterResolver memoizes another resolver through a
// go-repository-cache service, keyed by cacheScope.
type CachedBroadcasterResolver struct {
	base       BroadcasterResolver
	cache      repositorycache.CacheService
	cacheScope string
}

func NewCachedBroadcasterResolver(
	base BroadcasterResolver,
	cacheService repositorycache.CacheService,
	cacheScope string,
) (*CachedBroadcasterResolver, error) {
	if base == nil {
		return nil, fmt.Errorf("kick: base broadcaster resolver is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("kick: broadcaster cache service is required")
	}
	cacheScope = strings.TrimSpace(cacheScope)
	if cacheScope == "" {
		cacheScope = "default"
	}
	return &CachedBroadcasterResolver{base: base, cache: cacheService, cacheScope: cacheScope}, nil
}

// NewBroadcasterCache builds the in-process cache used for token owner
// lookups. Entries live for cfg.BroadcasterTTL, one hour when unset.
func NewBroadcasterCache(cfg Config) (repositorycache.CacheService, error) {
	config := repositorycache.DefaultConfig()
	config.TTL = cfg.normalized().BroadcasterTTL
	service, err := repositorycache.NewCacheService(config)
	if err != nil {
		return nil, fmt.Errorf("kick: broadcaster cache: %w", err)
	}
	return service, nil
}

// BroadcasterCacheKey returns go-eventsub::kick::broadcaster::v1::<scope>.
func BroadcasterCacheKey(scope string) string {
	return broadcasterCacheKeyPrefix + "::" + url.PathEscape(strings.TrimSpace(scope))
}

func (r *CachedBroadcasterResolver) BroadcasterUserID(ctx context.Context) (string, error) {
	if r == nil || r.base == nil || r.cache == nil {
		return "", fmt.Errorf("kick: cached broadcaster resolver is not configured")
	}
	return repositorycache.GetOrFetch(ctx, r.cache, BroadcasterCacheKey(r.cacheScope), func(ctx context.Context) (string, error) {
		return r.base.BroadcasterUserID(ctx)
	})
}

// Invalidate drops the cached id, e.g. after the integration reconnects with
// a different account.
func (r *CachedBroadcasterResolver) Invalidate(ctx context.Context) error {
	if r == nil || r.cache == nil {
		return fmt.Errorf("kick: cached broadcaster resolver is not configured")
	}
	return r.cache.Delete(ctx, BroadcasterCacheKey(r.cacheScope))
}

func normalizeBroadcasterID(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("kick: broadcaster user id is required")
	}
	if _, err := strconv.ParseInt(value, 10, 64); err != nil {
		return "", fmt.Errorf("kick: broadcaster user id %q is invalid", value)
	}
	return value, nil
}

var (
	_ BroadcasterResolver = StaticBroadcaster("")
	_ BroadcasterResolver = (*APIBroadcasterResolver)(nil)
	_ BroadcasterResolver = (*CachedBroadcasterResolver)(nil)
)
