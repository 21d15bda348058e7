// Package services defines shared utilities consumed by the reconciliation
// passes and their external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp the run id, the pass name, and the item being
//     reconciled for logging.
//   - Structured error markers plus the Wrap helper so callers can classify
//     failures (transient, permission, malformed tracker data) and attach a
//     remediation hint.
//   - The Executor abstraction that makes rclone and unar invocations testable.
//
// Use these helpers when wiring new stage logic so error handling and
// observability stay uniform across passes.
package services
