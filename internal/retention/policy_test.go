package retention_test

import (
	"strings"
	"testing"
	"time"

	"seedkeeper/internal/retention"
	"seedkeeper/internal/tracker"
)

const day = int64(86400)

func TestDecide(t *testing.T) {
	now := time.Unix(2_000_000_000, 0)
	policy := retention.Policy{MinAge: 10 * 24 * time.Hour, MinAvgRate: 2048}

	cases := []struct {
		name       string
		ageDays    int64
		ageSeconds int64
		uploaded   int64
		keep       bool
		reason     string
	}{
		{name: "young torrent keeps seeding", ageDays: 3, uploaded: 5_000_000, keep: true, reason: "Seeding (7 days left)"},
		{name: "active torrent keeps seeding", ageDays: 15, uploaded: 10240 * 15 * day, keep: true, reason: "Seeding (active, avg 10 KB/s)"},
		{name: "stale torrent is removed", ageDays: 15, uploaded: 100, keep: false, reason: "Removing (15d seeding, avg 0 KB/s < 2 KB/s)"},
		{name: "rate tie keeps seeding", ageDays: 20, uploaded: 2048 * 20 * day, keep: true, reason: "active"},
		{name: "exact min age judged on rate", ageDays: 10, uploaded: 0, keep: false, reason: "Removing"},
		{name: "exact min age with rate keeps", ageDays: 10, uploaded: 4096 * 10 * day, keep: true, reason: "avg 4 KB/s"},
		{name: "one second short of min age keeps", ageSeconds: 10*day - 1, uploaded: 0, keep: true, reason: "0 days left"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			age := tc.ageDays*day + tc.ageSeconds
			torrent := tracker.Torrent{Hash: "h", CompletionOn: now.Unix() - age, Uploaded: tc.uploaded}
			got := policy.Decide(torrent, now)
			if got.Keep != tc.keep {
				t.Fatalf("Keep = %v, want %v (%s)", got.Keep, tc.keep, got.Reason)
			}
			if !strings.Contains(got.Reason, tc.reason) {
				t.Fatalf("Reason = %q, want it to contain %q", got.Reason, tc.reason)
			}
		})
	}
}

func TestDecideYoungIgnoresRate(t *testing.T) {
	now := time.Unix(2_000_000_000, 0)
	policy := retention.Policy{MinAge: 14 * 24 * time.Hour, MinAvgRate: 1 << 40}
	for _, uploaded := range []int64{0, 1, 1 << 20, 1 << 50} {
		for ageDays := int64(0); ageDays < 14; ageDays++ {
			torrent := tracker.Torrent{CompletionOn: now.Unix() - ageDays*day, Uploaded: uploaded}
			if d := policy.Decide(torrent, now); !d.Keep {
				t.Fatalf("age %dd uploaded %d: expected keep, got %+v", ageDays, uploaded, d)
			}
		}
	}
}

func TestDecideZeroAgeHasZeroRate(t *testing.T) {
	now := time.Unix(2_000_000_000, 0)
	policy := retention.Policy{MinAge: 0, MinAvgRate: 1}
	d := policy.Decide(tracker.Torrent{CompletionOn: now.Unix(), Uploaded: 1 << 30}, now)
	if d.Keep || d.AvgRate != 0 {
		t.Fatalf("expected removal with zero rate, got %+v", d)
	}
}
