// Package tracker talks to the qBittorrent WebUI API (v2).
//
// The reconciliation passes only need a read-only snapshot of torrents and a
// way to unregister one without touching its files. Category provisioning
// (create-or-update with a save path) lives here as well because it shares the
// same endpoint and client configuration.
package tracker
