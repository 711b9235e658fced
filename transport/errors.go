package transport

import (
	"fmt"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-eventsub/core"
)

const maxErrorBodyPreview = 512

func transportError(
	message string,
	category goerrors.Category,
	code int,
	metadata map[string]any,
) error {
	err := goerrors.New(message, category).
		WithCode(code).
		WithTextCode(core.TextCodeForCategory(category))
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func transportWrapError(
	source error,
	category goerrors.Category,
	message string,
	code int,
	metadata map[string]any,
) error {
	if source == nil {
		return transportError(message, category, code, metadata)
	}
	err := goerrors.Wrap(source, category, message).
		WithCode(code).
		WithTextCode(core.TextCodeForCategory(category))
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

// CheckStatus returns nil for 2xx responses and a go-errors envelope
// otherwise. The category follows the status: 401 auth, 403 authz, 404 not
// found, 429 rate limit, other 4xx bad input, everything else external.
func CheckStatus(res core.TransportResponse, operation string) error {
	if res.StatusCode >= 200 && res.StatusCode < 300 {
		return nil
	}
	category := categoryForStatus(res.StatusCode)
	operation = strings.TrimSpace(operation)
	if operation == "" {
		operation = "request"
	}
	return transportError(
		fmt.Sprintf("transport: %s rejected with status %d", operation, res.StatusCode),
		category,
		res.StatusCode,
		map[string]any{
			"status_code": res.StatusCode,
			"operation":   operation,
			"body":        previewBody(res.Body),
		},
	)
}

func categoryForStatus(status int) goerrors.Category {
	switch {
	case status == http.StatusUnauthorized:
		return goerrors.CategoryAuth
	case status == http.StatusForbidden:
		return goerrors.CategoryAuthz
	case status == http.StatusNotFound:
		return goerrors.CategoryNotFound
	case status == http.StatusTooManyRequests:
		return goerrors.CategoryRateLimit
	case status >= 400 && status < 500:
		return goerrors.CategoryBadInput
	default:
		return goerrors.CategoryExternal
	}
}

func previewBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) > maxErrorBodyPreview {
		return text[:maxErrorBodyPreview]
	}
	return text
}
