package services_test

import (
	"errors"
	"strings"
	"testing"

	"matinee/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "fetch", "download", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"fetch", "download", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := services.Wrap(nil, "sheet", "parse", "bad row", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected nil marker to default to transient, got %v", err)
	}
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"configuration", services.Wrap(services.ErrConfiguration, "preflight", "access", "output root missing", nil), true},
		{"transient", services.Wrap(services.ErrTransient, "fetch", "get", "timeout", nil), false},
		{"external tool", services.Wrap(services.ErrExternalTool, "ytdlp", "run", "exit 1", nil), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := services.IsFatal(tt.err); got != tt.want {
				t.Fatalf("IsFatal() = %v, want %v", got, tt.want)
			}
		})
	}
}
