// Package metrics exports the counters of a pass in the Prometheus text
// format, for node_exporter's textfile collector.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/raoulx24/drive-cleaner/internal/retention"
)

const namespace = "drive_cleaner"

type PassMetrics struct {
	registry *prometheus.Registry

	actions     *prometheus.GaugeVec
	tags        *prometheus.GaugeVec
	sizeBytes   *prometheus.GaugeVec
	duration    prometheus.Gauge
	lastRun     prometheus.Gauge
	lastSuccess prometheus.Gauge
}

func New(base string) *PassMetrics {
	registry := prometheus.NewRegistry()
	labels := prometheus.Labels{"base": base}

	m := &PassMetrics{
		registry: registry,
		actions: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace:   namespace,
				Name:        "pass_actions",
				Help:        "Files, folders and archives handled by the last pass.",
				ConstLabels: labels,
			},
			[]string{"action", "kind"},
		),
		tags: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace:   namespace,
				Name:        "pass_tags",
				Help:        "Tags created, skipped or kept by the last pass.",
				ConstLabels: labels,
			},
			[]string{"outcome"},
		),
		sizeBytes: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace:   namespace,
				Name:        "tree_size_bytes",
				Help:        "Size of the scanned tree before and after the last pass.",
				ConstLabels: labels,
			},
			[]string{"when"},
		),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "pass_duration_seconds",
			Help:        "Wall time of the last pass.",
			ConstLabels: labels,
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "last_run_timestamp_seconds",
			Help:        "Unix time the last pass finished.",
			ConstLabels: labels,
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "last_run_success",
			Help:        "1 if the last pass completed without error.",
			ConstLabels: labels,
		}),
	}

	registry.MustRegister(m.actions, m.tags, m.sizeBytes, m.duration, m.lastRun, m.lastSuccess)
	return m
}

// Observe records one finished pass.
func (m *PassMetrics) Observe(res retention.Result, before, after int64, took time.Duration, finished time.Time, err error) {
	m.actions.WithLabelValues("deleted", "file").Set(float64(res.DeletedFiles))
	m.actions.WithLabelValues("deleted", "folder").Set(float64(res.DeletedFolders))
	m.actions.WithLabelValues("deleted", "archive").Set(float64(res.DeletedArchives))
	m.actions.WithLabelValues("compressed", "file").Set(float64(res.CompressedFiles))
	m.actions.WithLabelValues("compressed", "folder").Set(float64(res.CompressedFolders))
	m.actions.WithLabelValues("created", "archive").Set(float64(res.TotalArchives))

	m.tags.WithLabelValues("created").Set(float64(res.TagsCreated))
	m.tags.WithLabelValues("skipped").Set(float64(res.TagsSkipped))
	m.tags.WithLabelValues("kept").Set(float64(res.Kept))

	m.sizeBytes.WithLabelValues("before").Set(float64(before))
	m.sizeBytes.WithLabelValues("after").Set(float64(after))

	m.duration.Set(took.Seconds())
	m.lastRun.Set(float64(finished.Unix()))
	if err != nil {
		m.lastSuccess.Set(0)
	} else {
		m.lastSuccess.Set(1)
	}
}

// WriteTextfile writes the registry to path atomically.
func (m *PassMetrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

func (m *PassMetrics) Registry() *prometheus.Registry {
	return m.registry
}
