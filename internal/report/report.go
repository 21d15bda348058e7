// Package report builds the read-only seeding report shown by
// `seedkeeper torrents`: one row per completed torrent with its size, seeding
// age, average upload rate and the retention decision it would get today.
package report

import (
	"fmt"
	"sort"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"seedkeeper/internal/retention"
	"seedkeeper/internal/tracker"
)

const maxNameLength = 60

// Row is one report line. The string fields are display-ready; the numeric
// fields back sorting and JSON output.
type Row struct {
	Hash     string `json:"hash"`
	Name     string `json:"name"`
	Size     string `json:"size"`
	Uploaded string `json:"uploaded"`
	Seeding  string `json:"seeding"`
	AvgRate  string `json:"avg_rate"`
	Keep     bool   `json:"keep"`
	Decision string `json:"decision"`

	SizeBytes      int64   `json:"size_bytes"`
	UploadedBytes  int64   `json:"uploaded_bytes"`
	SeedingSeconds int64   `json:"seeding_seconds"`
	AvgRateKBs     float64 `json:"avg_rate_kbs"`
}

// Build turns a tracker snapshot into report rows. Torrents that have not
// completed are left out. Rows are ordered slowest first, so the torrents
// closest to removal lead the list.
func Build(torrents []tracker.Torrent, policy retention.Policy, now time.Time) []Row {
	rows := make([]Row, 0, len(torrents))
	for _, t := range torrents {
		if !t.Completed() {
			continue
		}
		age := now.Unix() - t.CompletionOn
		var rate float64
		if age > 0 {
			rate = float64(t.Uploaded) / float64(age) / 1024
		}
		decision := policy.Decide(t, now)
		rows = append(rows, Row{
			Hash:     t.Hash,
			Name:     truncate(t.Name, maxNameLength),
			Size:     FormatSize(t.Size),
			Uploaded: FormatSize(t.Uploaded),
			Seeding:  FormatSeeding(age),
			AvgRate:  fmt.Sprintf("%.1f KB/s", rate),
			Keep:     decision.Keep,
			Decision: decision.Reason,

			SizeBytes:      t.Size,
			UploadedBytes:  t.Uploaded,
			SeedingSeconds: age,
			AvgRateKBs:     rate,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].AvgRateKBs < rows[j].AvgRateKBs
	})
	return rows
}

// FormatSize renders bytes as 1.5G, 700M or 12K.
func FormatSize(bytes int64) string {
	const (
		kib = 1024
		mib = 1024 * kib
		gib = 1024 * mib
	)
	switch {
	case bytes >= gib:
		return fmt.Sprintf("%.1fG", float64(bytes)/gib)
	case bytes >= mib:
		return fmt.Sprintf("%.0fM", float64(bytes)/mib)
	default:
		return fmt.Sprintf("%.0fK", float64(bytes)/kib)
	}
}

// FormatSeeding renders a seeding age as whole days, or whole hours under a day.
func FormatSeeding(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	if days := seconds / 86400; days > 0 {
		return fmt.Sprintf("%dd", days)
	}
	return fmt.Sprintf("%dh", seconds/3600)
}

// Summary is the one-line footer printed under the table.
func Summary(rows []Row) string {
	var removable int
	var uploaded int64
	for _, row := range rows {
		if !row.Keep {
			removable++
		}
		uploaded += row.UploadedBytes
	}
	p := message.NewPrinter(language.English)
	return p.Sprintf("%d completed torrents, %d due for removal, %s uploaded in total",
		len(rows), removable, FormatSize(uploaded))
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
