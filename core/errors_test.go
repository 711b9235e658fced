package core

import (
	"context"
	stderrors "errors"
	"net/http"
	"testing"

	goerrors "github.com/goliatone/go-errors"
)

func TestDefaultErrorMapper_AssignsStableCodes(t *testing.T) {
	cases := []struct {
		err      error
		textCode string
		category goerrors.Category
	}{
		{stderrors.New("core: controller is not configured"), ErrorNotConfigured, goerrors.CategoryInternal},
		{stderrors.New("remote rate limit exceeded"), ErrorRateLimited, goerrors.CategoryRateLimit},
		{stderrors.New("broadcaster id is required"), ErrorBadInput, goerrors.CategoryBadInput},
		{context.Canceled, ErrorCancelled, goerrors.CategoryOperation},
	}
	for _, tc := range cases {
		mapped := DefaultErrorMapper(tc.err)
		if mapped == nil {
			t.Fatalf("expected mapped error for %v", tc.err)
		}
		if mapped.TextCode != tc.textCode {
			t.Fatalf("%v: expected text code %s, got %s", tc.err, tc.textCode, mapped.TextCode)
		}
		if mapped.Category != tc.category {
			t.Fatalf("%v: expected category %s, got %s", tc.err, tc.category, mapped.Category)
		}
		if mapped.Code == 0 {
			t.Fatalf("%v: expected http status", tc.err)
		}
	}
	if DefaultErrorMapper(nil) != nil {
		t.Fatalf("expected nil for nil error")
	}
}

func TestDefaultErrorMapper_KeepsExistingEnvelope(t *testing.T) {
	original := goerrors.New("upstream rejected", goerrors.CategoryExternal).
		WithTextCode(ErrorRemoteRejected)
	mapped := DefaultErrorMapper(original)
	if mapped.TextCode != ErrorRemoteRejected {
		t.Fatalf("expected text code preserved, got %s", mapped.TextCode)
	}
	if mapped.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 default for external category, got %d", mapped.Code)
	}
}

func TestCreateFailedError_KeepsSource(t *testing.T) {
	source := stderrors.New("http 500")
	err := createFailedError(source, 9)
	if !stderrors.Is(err, source) {
		t.Fatalf("expected source to unwrap")
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if richErr.TextCode != ErrorCreateFailed || richErr.Metadata["create_count"] != 9 {
		t.Fatalf("unexpected envelope %+v", richErr)
	}
}
