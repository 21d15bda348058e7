// Package main hosts the seedkeeper CLI entrypoint and command graph.
//
// The Cobra-based command tree exposes the scheduled passes (upload,
// cleanup) that systemd timers invoke, plus operator tools: category
// provisioning, the seeding report, scratch housekeeping, configuration
// scaffolding and the doctor checks. It centralizes configuration resolution
// and logger construction so subcommands only wire flags to internal
// packages.
package main
