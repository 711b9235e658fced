package kick

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-eventsub/core"
	"github.com/goliatone/go-eventsub/providers/devkit"
	"github.com/goliatone/go-eventsub/transport"
)

const listBody = `{
  "data": [
    {"id": "sub_1", "app_id": "app", "broadcaster_user_id": 123, "event": "chat.message.sent", "version": 1, "method": "webhook", "created_at": "2025-01-02T03:04:05Z", "updated_at": "2025-01-02T03:04:05Z"},
    {"id": null, "app_id": "app", "broadcaster_user_id": 123, "event": "kicks.gifted", "version": 1, "method": "webhook"}
  ],
  "message": "OK"
}`

func TestDesiredSet_HasNineVersionOnePairs(t *testing.T) {
	set := DesiredSet()
	if set.Len() != 9 {
		t.Fatalf("expected 9 desired pairs, got %d", set.Len())
	}
	for _, entry := range set.Entries() {
		if entry.Version != 1 {
			t.Fatalf("expected version 1 for %s", entry.Name)
		}
	}
	if !set.Contains(core.EventKey{Name: EventLivestreamMetadataUpdated, Version: 1}) {
		t.Fatalf("expected livestream metadata event")
	}
}

func TestDirectory_ListDecodesEntriesAndNullIDs(t *testing.T) {
	adapter := devkit.NewFakeTransportAdapter(transport.KindREST, devkit.JSONResponse(http.StatusOK, listBody))
	directory, err := NewDirectory(Config{BroadcasterUserID: "123"}, adapter, StaticToken("tok"))
	if err != nil {
		t.Fatalf("new directory: %v", err)
	}

	current, err := directory.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(current) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(current))
	}
	if current[0].ID != "sub_1" || current[0].BroadcasterUserID != "123" || current[0].CreatedAt.IsZero() {
		t.Fatalf("unexpected first entry %+v", current[0])
	}
	if current[1].ID != "" || current[1].Addressable() {
		t.Fatalf("expected null id to decode as empty, got %+v", current[1])
	}

	request := adapter.Requests()[0]
	if request.Method != http.MethodGet || request.URL != BaseURL+SubscriptionsPath {
		t.Fatalf("unexpected request %s %s", request.Method, request.URL)
	}
	if request.Headers["Authorization"] != "Bearer tok" {
		t.Fatalf("expected bearer token, got %q", request.Headers["Authorization"])
	}
}

func TestDirectory_ListStatusErrorIsTransportEnvelope(t *testing.T) {
	adapter := devkit.NewFakeTransportAdapter(transport.KindREST, devkit.JSONResponse(http.StatusUnauthorized, `{"message":"Unauthorized"}`))
	directory, err := NewDirectory(Config{BroadcasterUserID: "123"}, adapter, StaticToken("tok"))
	if err != nil {
		t.Fatalf("new directory: %v", err)
	}
	_, err = directory.List(context.Background())
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) || rich.Category != goerrors.CategoryAuth {
		t.Fatalf("expected auth envelope, got %v", err)
	}
}

func TestDirectory_CreateSendsBatchedBody(t *testing.T) {
	adapter := devkit.NewFakeTransportAdapter(transport.KindREST, devkit.JSONResponse(http.StatusOK, `{"data":[],"message":"OK"}`))
	directory, err := NewDirectory(Config{BroadcasterUserID: "987"}, adapter, StaticToken("tok"))
	if err != nil {
		t.Fatalf("new directory: %v", err)
	}

	if err := directory.Create(context.Background(), DesiredEvents()[:2]); err != nil {
		t.Fatalf("create: %v", err)
	}
	request := adapter.Requests()[0]
	if request.Method != http.MethodPost {
		t.Fatalf("expected POST, got %s", request.Method)
	}
	var payload struct {
		BroadcasterUserID int64 `json:"broadcaster_user_id"`
		Events            []struct {
			Name    string `json:"name"`
			Version int    `json:"version"`
		} `json:"events"`
		Method string `json:"method"`
	}
	if err := json.Unmarshal(request.Body, &payload); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if payload.BroadcasterUserID != 987 || payload.Method != "webhook" || len(payload.Events) != 2 {
		t.Fatalf("unexpected payload %+v", payload)
	}
	if payload.Events[0].Name != EventChatMessageSent || payload.Events[0].Version != 1 {
		t.Fatalf("unexpected first event %+v", payload.Events[0])
	}
}

func TestDirectory_CreateReportsPerEventRejection(t *testing.T) {
	adapter := devkit.NewFakeTransportAdapter(transport.KindREST, devkit.JSONResponse(http.StatusOK,
		`{"data":[{"name":"kicks.gifted","version":1,"error":"event not allowed"}]}`))
	directory, err := NewDirectory(Config{BroadcasterUserID: "987"}, adapter, StaticToken("tok"))
	if err != nil {
		t.Fatalf("new directory: %v", err)
	}
	err = directory.Create(context.Background(), DesiredEvents())
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) || rich.TextCode != core.ErrorRemoteRejected {
		t.Fatalf("expected remote rejected envelope, got %v", err)
	}
}

func TestDirectory_CreateFailsWhenBroadcasterUnknown(t *testing.T) {
	adapter := devkit.NewFakeTransportAdapter(transport.KindREST)
	directory, err := NewDirectory(Config{}, adapter, StaticToken("tok"),
		WithBroadcasterResolver(StaticBroadcaster("not-a-number")))
	if err != nil {
		t.Fatalf("new directory: %v", err)
	}
	if err := directory.Create(context.Background(), DesiredEvents()); err == nil {
		t.Fatalf("expected invalid broadcaster error")
	}
	if len(adapter.Requests()) != 0 {
		t.Fatalf("no request expected without a broadcaster id")
	}
}

func TestDirectory_DeleteUsesRepeatedIDs(t *testing.T) {
	adapter := devkit.NewFakeTransportAdapter(transport.KindREST, devkit.JSONResponse(http.StatusNoContent, ``))
	directory, err := NewDirectory(Config{BroadcasterUserID: "1"}, adapter, StaticToken("tok"))
	if err != nil {
		t.Fatalf("new directory: %v", err)
	}
	if err := directory.Delete(context.Background(), []string{"a", " ", "b"}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := directory.Delete(context.Background(), []string{""}); err != nil {
		t.Fatalf("empty delete: %v", err)
	}
	requests := adapter.Requests()
	if len(requests) != 1 {
		t.Fatalf("expected empty delete to skip the call, got %d requests", len(requests))
	}
	if ids := requests[0].Query["id"]; len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Fatalf("unexpected ids %v", ids)
	}
}

func TestDirectory_TokenFailureStopsRequest(t *testing.T) {
	adapter := devkit.NewFakeTransportAdapter(transport.KindREST)
	tokenErr := errors.New("token expired")
	directory, err := NewDirectory(Config{BroadcasterUserID: "1"}, adapter, TokenSourceFunc(func(context.Context) (string, error) {
		return "", tokenErr
	}))
	if err != nil {
		t.Fatalf("new directory: %v", err)
	}
	if _, err := directory.List(context.Background()); !errors.Is(err, tokenErr) {
		t.Fatalf("expected token error, got %v", err)
	}
	if len(adapter.Requests()) != 0 {
		t.Fatalf("no request expected without a token")
	}
}

func TestDirectory_EndToEndOverHTTP(t *testing.T) {
	var deleted []string
	created := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == UsersPath:
			_, _ = io.WriteString(w, `{"data":[{"user_id":4242,"name":"streamer"}]}`)
		case r.URL.Path == SubscriptionsPath && r.Method == http.MethodGet:
			_, _ = io.WriteString(w, listBody)
		case r.URL.Path == SubscriptionsPath && r.Method == http.MethodDelete:
			deleted = append(deleted, r.URL.Query()["id"]...)
			w.WriteHeader(http.StatusNoContent)
		case r.URL.Path == SubscriptionsPath && r.Method == http.MethodPost:
			body, _ := io.ReadAll(r.Body)
			var payload map[string]any
			_ = json.Unmarshal(body, &payload)
			if payload["broadcaster_user_id"] != float64(4242) {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			events, _ := payload["events"].([]any)
			created += len(events)
			_, _ = io.WriteString(w, `{"data":[{"name":"chat.message.sent","version":1,"subscription_id":"new_1"}]}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	directory, err := NewDirectory(Config{BaseURL: server.URL + "/"}, transport.NewRESTAdapter(server.Client()), StaticToken("tok"))
	if err != nil {
		t.Fatalf("new directory: %v", err)
	}

	controller, err := core.NewController(core.DefaultConfig(),
		core.WithDirectory(directory),
		core.WithDesiredSet(DesiredSet()),
		core.WithSleeper(func(context.Context, time.Duration) error { return nil }),
	)
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	defer controller.Shutdown()

	// Both listed pairs are desired, so only the seven missing ones are created.
	if err := controller.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if len(deleted) != 0 {
		t.Fatalf("expected no deletes, got %v", deleted)
	}
	if created != 7 {
		t.Fatalf("expected 7 creates, got %d", created)
	}

	result := controller.UnsubscribeFromEvents(context.Background())
	if result.Attempted != 1 || len(deleted) != 1 || deleted[0] != "sub_1" {
		t.Fatalf("expected only the addressable id unsubscribed, got %+v %v", result, deleted)
	}
	if !controller.Ready() {
		t.Fatalf("expected ready controller")
	}
}
