package devkit

import (
	"context"
	"net/url"
	"testing"

	"github.com/goliatone/go-eventsub/core"
)

func TestFakeTransportAdapter_ScriptsAndCapturesRequests(t *testing.T) {
	adapter := NewFakeTransportAdapter("REST",
		JSONResponse(429, `{}`),
		JSONResponse(200, `{"data":[]}`),
	)
	if adapter.Kind() != "rest" {
		t.Fatalf("expected normalized kind, got %q", adapter.Kind())
	}

	query := url.Values{"id": {"a", "b"}}
	first, err := adapter.Do(context.Background(), core.TransportRequest{Method: "DELETE", URL: "https://api.example.test", Query: query})
	if err != nil {
		t.Fatalf("first fake call: %v", err)
	}
	if first.StatusCode != 429 {
		t.Fatalf("expected first scripted status 429, got %d", first.StatusCode)
	}
	query.Set("id", "mutated")

	for index := 0; index < 2; index++ {
		res, err := adapter.Do(context.Background(), core.TransportRequest{Method: "GET", URL: "https://api.example.test"})
		if err != nil {
			t.Fatalf("fake call: %v", err)
		}
		if res.StatusCode != 200 {
			t.Fatalf("expected last script to repeat, got %d", res.StatusCode)
		}
	}

	requests := adapter.Requests()
	if len(requests) != 3 {
		t.Fatalf("expected 3 captured requests, got %d", len(requests))
	}
	if ids := requests[0].Query["id"]; len(ids) != 2 || ids[0] != "a" {
		t.Fatalf("expected captured query to be a copy, got %v", ids)
	}
}
