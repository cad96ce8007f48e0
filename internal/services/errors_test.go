package services_test

import (
	"errors"
	"strings"
	"testing"

	"vidflow/internal/services"
)

func TestWrapTagsMarker(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalService, "analyze-content", "analyze", "request failed", base)
	if !errors.Is(err, services.ErrExternalService) {
		t.Fatalf("expected marker to survive wrapping: %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected cause to survive wrapping: %v", err)
	}
	for _, fragment := range []string{"analyze-content", "analyze", "request failed"} {
		if !strings.Contains(err.Error(), fragment) {
			t.Fatalf("expected %q in %q", fragment, err.Error())
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "stage", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
}

func TestIsRetryable(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"validation", services.Wrap(services.ErrValidation, "s", "", "bad input", nil), false},
		{"configuration", services.Wrap(services.ErrConfiguration, "s", "", "missing key", nil), false},
		{"not found", services.Wrap(services.ErrNotFound, "s", "", "gone", nil), false},
		{"timeout", services.Wrap(services.ErrTimeout, "s", "", "slow", nil), true},
		{"external", services.Wrap(services.ErrExternalService, "s", "", "503", nil), true},
		{"plain", errors.New("anything"), true},
	}
	for _, tc := range cases {
		if got := services.IsRetryable(tc.err); got != tc.want {
			t.Errorf("%s: IsRetryable = %v, want %v", tc.name, got, tc.want)
		}
	}
}
