package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrExternalTool  = errors.New("external tool error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrPermission    = errors.New("permission denied")
	ErrMalformed     = errors.New("malformed response")
	ErrTransient     = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Retryable reports whether the failure is expected to clear on a later pass
// without operator action. Configuration and permission failures need a fix
// before the next run can succeed.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	switch {
	case errors.Is(err, ErrConfiguration), errors.Is(err, ErrPermission):
		return false
	default:
		return true
	}
}

// Hint returns a short remediation suggestion for a classified error.
func Hint(err error) string {
	switch {
	case errors.Is(err, ErrPermission):
		return "fix ownership of the media tree (e.g. chown -R to the service user)"
	case errors.Is(err, ErrConfiguration):
		return "run seedkeeper config validate"
	case errors.Is(err, ErrExternalTool):
		return "check that the external tool is installed and its remote is reachable"
	case errors.Is(err, ErrMalformed):
		return "check the qBittorrent WebUI API version"
	default:
		return "check logs for details"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
