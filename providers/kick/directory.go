package kick

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-eventsub/core"
	"github.com/goliatone/go-eventsub/transport"
)

// Directory talks to the Kick events subscriptions endpoint. Calls are not
// retried.
type Directory struct {
	config      Config
	transport   core.TransportAdapter
	tokens      TokenSource
	broadcaster BroadcasterResolver
}

type DirectoryOption func(*Directory)

func WithBroadcasterResolver(resolver BroadcasterResolver) DirectoryOption {
	return func(d *Directory) {
		d.broadcaster = resolver
	}
}

func NewDirectory(cfg Config, adapter core.TransportAdapter, tokens TokenSource, opts ...DirectoryOption) (*Directory, error) {
	if adapter == nil {
		adapter = transport.NewRESTAdapter(nil)
	}
	if tokens == nil {
		return nil, fmt.Errorf("kick: token source is required")
	}
	cfg = cfg.normalized()
	directory := &Directory{config: cfg, transport: adapter, tokens: tokens}
	for _, opt := range opts {
		if opt != nil {
			opt(directory)
		}
	}
	if directory.broadcaster == nil {
		if cfg.BroadcasterUserID != "" {
			directory.broadcaster = StaticBroadcaster(cfg.BroadcasterUserID)
		} else {
			resolver, err := NewAPIBroadcasterResolver(cfg, adapter, tokens)
			if err != nil {
				return nil, err
			}
			directory.broadcaster = resolver
		}
	}
	return directory, nil
}

func (d *Directory) List(ctx context.Context) ([]core.RemoteSubscription, error) {
	res, err := d.do(ctx, http.MethodGet, nil, nil, "list subscriptions")
	if err != nil {
		return nil, err
	}
	var envelope subscriptionsEnvelope
	if err := json.Unmarshal(res.Body, &envelope); err != nil {
		return nil, decodeError(err, "list subscriptions")
	}
	out := make([]core.RemoteSubscription, 0, len(envelope.Data))
	for _, entry := range envelope.Data {
		out = append(out, entry.toRemote())
	}
	return out, nil
}

// Create registers all entries in one call bound to the current broadcaster.
// Per-event rejections in the response body fail the whole call.
func (d *Directory) Create(ctx context.Context, entries []core.DesiredSubscription) error {
	if len(entries) == 0 {
		return nil
	}
	if d == nil || d.broadcaster == nil {
		return fmt.Errorf("kick: directory is not configured")
	}
	broadcasterID, err := d.broadcaster.BroadcasterUserID(ctx)
	if err != nil {
		return err
	}
	payload := createRequest{
		BroadcasterUserID: json.Number(broadcasterID),
		Events:            make([]eventEntry, 0, len(entries)),
		Method:            MethodWebhook,
	}
	for _, entry := range entries {
		payload.Events = append(payload.Events, eventEntry{
			Name:    strings.TrimSpace(entry.Name),
			Version: entry.Version,
		})
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("kick: encode create request: %w", err)
	}

	res, err := d.do(ctx, http.MethodPost, nil, body, "create subscriptions")
	if err != nil {
		return err
	}
	if len(res.Body) == 0 {
		return nil
	}
	var envelope createEnvelope
	if err := json.Unmarshal(res.Body, &envelope); err != nil {
		return decodeError(err, "create subscriptions")
	}
	rejected := []string{}
	for _, result := range envelope.Data {
		if strings.TrimSpace(result.Error) == "" {
			continue
		}
		rejected = append(rejected, fmt.Sprintf("%s@v%d: %s", result.Name, result.Version, strings.TrimSpace(result.Error)))
	}
	if len(rejected) > 0 {
		return goerrors.New("kick: create subscriptions partially rejected", goerrors.CategoryExternal).
			WithCode(http.StatusBadGateway).
			WithTextCode(core.ErrorRemoteRejected).
			WithMetadata(map[string]any{"rejected": rejected})
	}
	return nil
}

// Delete removes the given ids with a single call (?id=a&id=b).
func (d *Directory) Delete(ctx context.Context, ids []string) error {
	query := url.Values{}
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		query.Add("id", id)
	}
	if len(query) == 0 {
		return nil
	}
	_, err := d.do(ctx, http.MethodDelete, query, nil, "delete subscriptions")
	return err
}

func (d *Directory) do(
	ctx context.Context,
	method string,
	query url.Values,
	body []byte,
	operation string,
) (core.TransportResponse, error) {
	if d == nil || d.transport == nil {
		return core.TransportResponse{}, fmt.Errorf("kick: directory is not configured")
	}
	authorization, err := bearer(ctx, d.tokens)
	if err != nil {
		return core.TransportResponse{}, err
	}
	res, err := d.transport.Do(ctx, core.TransportRequest{
		Method:  method,
		URL:     d.config.BaseURL + SubscriptionsPath,
		Headers: map[string]string{"Authorization": authorization},
		Query:   query,
		Body:    body,
		Timeout: d.config.RequestTimeout,
		Metadata: map[string]any{
			"provider":  ProviderID,
			"operation": operation,
		},
	})
	if err != nil {
		return core.TransportResponse{}, err
	}
	if err := transport.CheckStatus(res, "kick "+operation); err != nil {
		return core.TransportResponse{}, err
	}
	return res, nil
}

func decodeError(err error, operation string) error {
	return goerrors.Wrap(err, goerrors.CategoryExternal, "kick: decode "+operation+" response").
		WithCode(http.StatusBadGateway).
		WithTextCode(core.ErrorTransportFailed)
}

var _ core.SubscriptionDirectory = (*Directory)(nil)
