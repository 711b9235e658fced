package kick

import (
	"context"
	"fmt"
	"strings"
)

// TokenSource returns the bearer token used for each API call. It is asked on
// every request so rotated tokens take effect without rebuilding the client.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

type TokenSourceFunc func(ctx context.Context) (string, error)

func (f TokenSourceFunc) Token(ctx context.Context) (string, error) {
	if f == nil {
		return "", fmt.Errorf("kick: token source is not configured")
	}
	return f(ctx)
}

type StaticToken string

func (t StaticToken) Token(context.Context) (string, error) {
	token := strings.TrimSpace(string(t))
	if token == "" {
		return "", fmt.Errorf("kick: access token is required")
	}
	return token, nil
}

func bearer(ctx context.Context, source TokenSource) (string, error) {
	if source == nil {
		return "", fmt.Errorf("kick: token source is not configured")
	}
	token, err := source.Token(ctx)
	if err != nil {
		return "", err
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", fmt.Errorf("kick: access token is required")
	}
	return "Bearer " + token, nil
}
