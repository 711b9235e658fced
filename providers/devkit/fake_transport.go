package devkit

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/goliatone/go-eventsub/core"
)

// TransportScript is one canned reply. Scripts are consumed in order and the
// last one repeats.
type TransportScript struct {
	Response core.TransportResponse
	Err      error
}

// JSONResponse builds a script returning body with the given status.
func JSONResponse(status int, body string) TransportScript {
	return TransportScript{Response: core.TransportResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       []byte(body),
	}}
}

type FakeTransportAdapter struct {
	mu       sync.Mutex
	kind     string
	scripts  []TransportScript
	requests []core.TransportRequest
}

func NewFakeTransportAdapter(kind string, scripts ...TransportScript) *FakeTransportAdapter {
	return &FakeTransportAdapter{
		kind:    strings.TrimSpace(strings.ToLower(kind)),
		scripts: append([]TransportScript(nil), scripts...),
	}
}

func (a *FakeTransportAdapter) Kind() string {
	if a == nil {
		return ""
	}
	return a.kind
}

func (a *FakeTransportAdapter) Do(_ context.Context, req core.TransportRequest) (core.TransportResponse, error) {
	if a == nil {
		return core.TransportResponse{}, fmt.Errorf("devkit: fake transport adapter is not configured")
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	a.requests = append(a.requests, cloneRequest(req))
	if len(a.scripts) == 0 {
		return core.TransportResponse{StatusCode: 200, Headers: map[string]string{}}, nil
	}
	index := len(a.requests) - 1
	if index >= len(a.scripts) {
		index = len(a.scripts) - 1
	}
	script := a.scripts[index]
	return cloneResponse(script.Response), script.Err
}

func (a *FakeTransportAdapter) Requests() []core.TransportRequest {
	if a == nil {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]core.TransportRequest, 0, len(a.requests))
	for _, item := range a.requests {
		out = append(out, cloneRequest(item))
	}
	return out
}

func cloneRequest(in core.TransportRequest) core.TransportRequest {
	out := in
	out.Headers = make(map[string]string, len(in.Headers))
	for key, value := range in.Headers {
		out.Headers[key] = value
	}
	out.Query = url.Values{}
	for key, values := range in.Query {
		out.Query[key] = append([]string(nil), values...)
	}
	out.Body = append([]byte(nil), in.Body...)
	out.Metadata = make(map[string]any, len(in.Metadata))
	for key, value := range in.Metadata {
		out.Metadata[key] = value
	}
	return out
}

func cloneResponse(in core.TransportResponse) core.TransportResponse {
	out := in
	out.Headers = make(map[string]string, len(in.Headers))
	for key, value := range in.Headers {
		out.Headers[key] = value
	}
	out.Body = append([]byte(nil), in.Body...)
	out.Metadata = make(map[string]any, len(in.Metadata))
	for key, value := range in.Metadata {
		out.Metadata[key] = value
	}
	return out
}

var _ core.TransportAdapter = (*FakeTransportAdapter)(nil)
