package services_test

import (
	"errors"
	"fmt"
	"testing"

	"packshot/internal/services"
)

func TestWrapTagsMarker(t *testing.T) {
	err := services.Wrap(services.ErrNotFound, "catalog", "fetch", "identifier not in portal", nil)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("errors.Is(ErrNotFound) = false for %v", err)
	}
	want := "not found: catalog: fetch: identifier not in portal"
	if err.Error() != want {
		t.Fatalf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := services.Wrap(services.ErrPortalUnavailable, "catalog", "fetch", "endpoint", cause)
	if !errors.Is(err, services.ErrPortalUnavailable) {
		t.Fatalf("marker lost: %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("cause lost: %v", err)
	}
}

func TestWrapNilMarkerDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("error = %v, want transient default", err)
	}
}

func TestIsRetryable(t *testing.T) {
	retryable := []error{
		services.Wrap(services.ErrPortalUnavailable, "catalog", "fetch", "status 503", nil),
		services.Wrap(services.ErrTransient, "catalog", "fetch", "status 418", nil),
	}
	for _, err := range retryable {
		if !services.IsRetryable(err) {
			t.Fatalf("IsRetryable(%v) = false", err)
		}
	}

	terminal := []error{
		services.Wrap(services.ErrNotFound, "catalog", "fetch", "", nil),
		services.Wrap(services.ErrInvalidIdentifier, "normalize", "", "", nil),
		services.Wrap(services.ErrWriteConflict, "fanout", "write", "", nil),
	}
	for _, err := range terminal {
		if services.IsRetryable(err) {
			t.Fatalf("IsRetryable(%v) = true", err)
		}
	}
}
