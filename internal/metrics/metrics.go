// Package metrics records per-pass counters and exports them in the
// node_exporter textfile format. Each pass owns a fresh registry; the file it
// writes replaces the previous run's.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels shared by the upload and cleanup passes.
const (
	OutcomeLinked         = "linked"
	OutcomeUploaded       = "uploaded"
	OutcomeAlreadyPresent = "already_present"
	OutcomeFailed         = "failed"
	OutcomeBusy           = "busy"
	OutcomePropagated     = "propagated"
	OutcomeCleaned        = "cleaned"
	OutcomeSeeding        = "seeding"
	OutcomeSkipped        = "skipped"
	OutcomeOrphanMarker   = "orphan_marker"
)

// Pass holds the metrics for one upload or cleanup run.
type Pass struct {
	name     string
	registry *prometheus.Registry
	started  time.Time

	Items         *prometheus.CounterVec // seedkeeper_items_total{pass,outcome}
	FreedBytes    prometheus.Counter     // seedkeeper_freed_bytes_total{pass}
	Duration      prometheus.Gauge       // seedkeeper_pass_duration_seconds{pass}
	LastRun       prometheus.Gauge       // seedkeeper_last_run_timestamp_seconds{pass}
	LastRunStatus prometheus.Gauge       // seedkeeper_last_run_success{pass}
}

// NewPass registers a fresh metric set for the named pass and starts its clock.
func NewPass(name string, now time.Time) *Pass {
	registry := prometheus.NewRegistry()
	labels := prometheus.Labels{"pass": name}
	factory := promauto.With(registry)
	return &Pass{
		name:     name,
		registry: registry,
		started:  now,
		Items: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "seedkeeper_items_total",
			Help:        "Items handled during the last run, by outcome",
			ConstLabels: labels,
		}, []string{"outcome"}),
		FreedBytes: factory.NewCounter(prometheus.CounterOpts{
			Name:        "seedkeeper_freed_bytes_total",
			Help:        "Bytes released from the completed tree during the last run",
			ConstLabels: labels,
		}),
		Duration: factory.NewGauge(prometheus.GaugeOpts{
			Name:        "seedkeeper_pass_duration_seconds",
			Help:        "Wall-clock duration of the last run",
			ConstLabels: labels,
		}),
		LastRun: factory.NewGauge(prometheus.GaugeOpts{
			Name:        "seedkeeper_last_run_timestamp_seconds",
			Help:        "Unix time the last run finished",
			ConstLabels: labels,
		}),
		LastRunStatus: factory.NewGauge(prometheus.GaugeOpts{
			Name:        "seedkeeper_last_run_success",
			Help:        "1 if the last run completed, 0 if it was aborted",
			ConstLabels: labels,
		}),
	}
}

// Name returns the pass label.
func (p *Pass) Name() string {
	return p.name
}

// Add records n items with the given outcome. Zero counts still create the
// series so dashboards see an explicit 0.
func (p *Pass) Add(outcome string, n int) {
	if n < 0 {
		return
	}
	p.Items.WithLabelValues(outcome).Add(float64(n))
}

// AddFreedBytes records bytes released by the cleanup pass.
func (p *Pass) AddFreedBytes(n int64) {
	if n > 0 {
		p.FreedBytes.Add(float64(n))
	}
}

// Finish stamps duration, completion time and status.
func (p *Pass) Finish(now time.Time, success bool) {
	p.Duration.Set(now.Sub(p.started).Seconds())
	p.LastRun.Set(float64(now.Unix()))
	if success {
		p.LastRunStatus.Set(1)
	} else {
		p.LastRunStatus.Set(0)
	}
}

// Gatherer exposes the pass registry.
func (p *Pass) Gatherer() prometheus.Gatherer {
	return p.registry
}

// Path returns the textfile path for the pass under dir.
func (p *Pass) Path(dir string) string {
	return filepath.Join(dir, fmt.Sprintf("seedkeeper_%s.prom", p.name))
}

// WriteTextfile writes the registry to <dir>/seedkeeper_<pass>.prom. An empty
// dir disables export.
func (p *Pass) WriteTextfile(dir string) error {
	if dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create metrics dir: %w", err)
	}
	if err := prometheus.WriteToTextfile(p.Path(dir), p.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
