// Package metrics counts converted and failed records on a private
// Prometheus registry that can be exported as a node_exporter textfile.
package metrics

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/afero"
)

const namespace = "rdaconv"

const (
	StatusConverted = "converted"
	StatusFailed    = "failed"
)

type Metrics struct {
	registry *prometheus.Registry
	records  *prometheus.CounterVec
	failures *prometheus.CounterVec
	duration prometheus.Histogram
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_total",
			Help:      "Records processed, by outcome.",
		}, []string{"status"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "record_failures_total",
			Help:      "Records skipped, by error class.",
		}, []string{"class"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "record_duration_seconds",
			Help:      "Time spent converting a single record.",
			Buckets:   prometheus.ExponentialBuckets(0.00005, 4, 8),
		}),
	}
	m.registry.MustRegister(m.records, m.failures, m.duration)
	return m
}

// Observe records the outcome of one record. class is ignored on success.
// A nil Metrics discards observations.
func (m *Metrics) Observe(success bool, class string, d time.Duration) {
	if m == nil {
		return
	}
	m.duration.Observe(d.Seconds())
	if success {
		m.records.WithLabelValues(StatusConverted).Inc()
		return
	}
	m.records.WithLabelValues(StatusFailed).Inc()
	m.failures.WithLabelValues(class).Inc()
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes the registry to path in the text exposition format.
// The file is written beside path and renamed over it.
func (m *Metrics) WriteTextfile(fs afero.Fs, path string) error {
	families, err := m.registry.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}

	tmp, err := afero.TempFile(fs, filepath.Dir(path), filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}

	for _, family := range families {
		if _, err = expfmt.MetricFamilyToText(tmp, family); err != nil {
			break
		}
	}
	err = errors.Join(err, tmp.Close())
	if err == nil {
		err = fs.Rename(tmp.Name(), path)
	}
	if err != nil {
		_ = fs.Remove(tmp.Name())
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
