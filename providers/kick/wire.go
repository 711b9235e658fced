package kick

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/goliatone/go-eventsub/core"
)

type subscriptionsEnvelope struct {
	Data    []subscriptionPayload `json:"data"`
	Message string                `json:"message"`
}

// subscriptionPayload mirrors one entry of the list response. The remote has
// been seen to return null ids, so ID is a pointer.
type subscriptionPayload struct {
	ID                *string     `json:"id"`
	AppID             string      `json:"app_id"`
	BroadcasterUserID json.Number `json:"broadcaster_user_id"`
	Event             string      `json:"event"`
	Version           int         `json:"version"`
	Method            string      `json:"method"`
	CreatedAt         string      `json:"created_at"`
	UpdatedAt         string      `json:"updated_at"`
}

func (p subscriptionPayload) toRemote() core.RemoteSubscription {
	id := ""
	if p.ID != nil {
		id = strings.TrimSpace(*p.ID)
	}
	return core.RemoteSubscription{
		ID:                id,
		AppID:             strings.TrimSpace(p.AppID),
		BroadcasterUserID: strings.TrimSpace(p.BroadcasterUserID.String()),
		Event:             strings.TrimSpace(p.Event),
		Version:           p.Version,
		Method:            strings.TrimSpace(p.Method),
		CreatedAt:         parseTimestamp(p.CreatedAt),
		UpdatedAt:         parseTimestamp(p.UpdatedAt),
	}
}

type createRequest struct {
	BroadcasterUserID json.Number  `json:"broadcaster_user_id"`
	Events            []eventEntry `json:"events"`
	Method            string       `json:"method"`
}

type eventEntry struct {
	Name    string `json:"name"`
	Version int    `json:"version"`
}

type createEnvelope struct {
	Data    []createResult `json:"data"`
	Message string         `json:"message"`
}

type createResult struct {
	Error          string `json:"error"`
	Name           string `json:"name"`
	SubscriptionID string `json:"subscription_id"`
	Version        int    `json:"version"`
}

type usersEnvelope struct {
	Data []userPayload `json:"data"`
}

type userPayload struct {
	UserID json.Number `json:"user_id"`
	Name   string      `json:"name"`
}

func parseTimestamp(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	parsed, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return parsed.UTC()
}
