package services_test

import (
	"errors"
	"strings"
	"testing"

	"seedkeeper/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "upload", "rclone copy", "failed", base)
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
	for _, fragment := range []string{"upload", "rclone copy", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestRetryable(t *testing.T) {
	if services.Retryable(nil) {
		t.Fatal("nil error should not be retryable")
	}
	perm := services.Wrap(services.ErrPermission, "cleanup", "remove", "denied", nil)
	if services.Retryable(perm) {
		t.Fatal("permission errors need operator action")
	}
	transient := services.Wrap(services.ErrTransient, "tracker", "list", "timeout", errors.New("io"))
	if !services.Retryable(transient) {
		t.Fatal("transient errors should be retryable")
	}
}

func TestHintMentionsChownForPermission(t *testing.T) {
	perm := services.Wrap(services.ErrPermission, "cleanup", "remove", "denied", nil)
	if hint := services.Hint(perm); !strings.Contains(hint, "chown") {
		t.Fatalf("expected chown remediation, got %q", hint)
	}
}
