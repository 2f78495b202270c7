// SPDX-License-Identifier: GPL-3.0-or-later

// Package metrics implements github.com/bassosimone/dnsprivacy's
// [dnsprivacy.MetricsSink] on top of Prometheus client metrics.
package metrics

import (
	"github.com/bassosimone/dnsprivacy"
	"github.com/prometheus/client_golang/prometheus"
)

// Collector implements [dnsprivacy.MetricsSink], exposing one counter split
// by outcome and one histogram of probe latency.
type Collector struct {
	probesTotal  *prometheus.CounterVec
	probeLatency prometheus.Histogram
}

// NewCollector creates a [*Collector] and registers its metrics with reg.
// A nil reg uses [prometheus.DefaultRegisterer].
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	c := &Collector{
		probesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dnsprivacy",
			Name:      "probes_total",
			Help:      "Total private DNS validation probes, by outcome.",
		}, []string{"outcome"}),
		probeLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "dnsprivacy",
			Name:      "probe_latency_ms",
			Help:      "Private DNS validation probe latency in milliseconds.",
			Buckets:   prometheus.ExponentialBuckets(10, 2, 12),
		}),
	}
	reg.MustRegister(c.probesTotal, c.probeLatency)
	return c
}

// Ensure that [*Collector] implements [dnsprivacy.MetricsSink].
var _ dnsprivacy.MetricsSink = &Collector{}

// ObserveProbe implements [dnsprivacy.MetricsSink].
func (c *Collector) ObserveProbe(succeededQuickly bool, tookMS int64) {
	outcome := "fail"
	if succeededQuickly {
		outcome = "success"
	}
	c.probesTotal.WithLabelValues(outcome).Inc()
	c.probeLatency.Observe(float64(tookMS))
}
