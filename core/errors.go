package core

import (
	"context"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	ErrorBadInput        = "EVENTSUB_BAD_INPUT"
	ErrorNotConfigured   = "EVENTSUB_NOT_CONFIGURED"
	ErrorTransportFailed = "EVENTSUB_TRANSPORT_FAILED"
	ErrorCreateFailed    = "EVENTSUB_CREATE_FAILED"
	ErrorRemoteRejected  = "EVENTSUB_REMOTE_REJECTED"
	ErrorUnauthorized    = "EVENTSUB_UNAUTHORIZED"
	ErrorForbidden       = "EVENTSUB_FORBIDDEN"
	ErrorRateLimited     = "EVENTSUB_RATE_LIMITED"
	ErrorCancelled       = "EVENTSUB_CANCELLED"
	ErrorInternal        = "EVENTSUB_INTERNAL_ERROR"
)

// DefaultErrorMapper turns plain errors into go-errors envelopes. Errors that
// already carry an envelope keep their category and only get defaults filled.
func DefaultErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureErrorEnvelope(richErr)
	}

	if goerrors.Is(err, context.Canceled) || goerrors.Is(err, context.DeadlineExceeded) {
		return ensureErrorEnvelope(
			goerrors.Wrap(err, goerrors.CategoryOperation, "eventsub: operation cancelled").
				WithTextCode(ErrorCancelled),
		)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "not configured"):
		return newEventsubError(err.Error(), goerrors.CategoryInternal, ErrorNotConfigured)
	case strings.Contains(msg, "rate limit"), strings.Contains(msg, "throttl"):
		return newEventsubError(err.Error(), goerrors.CategoryRateLimit, ErrorRateLimited)
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"):
		return newEventsubError(err.Error(), goerrors.CategoryBadInput, ErrorBadInput)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureErrorEnvelope(mapped)
}

func newEventsubError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureErrorEnvelope(
		goerrors.New(message, category).
			WithTextCode(textCode),
	)
}

func notConfiguredError(message string) error {
	return newEventsubError(message, goerrors.CategoryInternal, ErrorNotConfigured)
}

func createFailedError(source error, count int) error {
	return ensureErrorEnvelope(
		goerrors.Wrap(source, goerrors.CategoryExternal, "eventsub: create webhook subscriptions failed").
			WithTextCode(ErrorCreateFailed).
			WithMetadata(map[string]any{"create_count": count}),
	)
}

func ensureErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = httpStatusForCategory(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return ErrorBadInput
	case goerrors.CategoryAuth:
		return ErrorUnauthorized
	case goerrors.CategoryAuthz:
		return ErrorForbidden
	case goerrors.CategoryRateLimit:
		return ErrorRateLimited
	case goerrors.CategoryExternal:
		return ErrorTransportFailed
	case goerrors.CategoryOperation:
		return ErrorRemoteRejected
	default:
		return ErrorInternal
	}
}

// HTTPStatusForCategory is shared with transport and command adapters.
func HTTPStatusForCategory(category goerrors.Category) int {
	return httpStatusForCategory(category)
}

// TextCodeForCategory is shared with transport and command adapters.
func TextCodeForCategory(category goerrors.Category) string {
	return defaultTextCode(category)
}

func httpStatusForCategory(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryRateLimit:
		return http.StatusTooManyRequests
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
