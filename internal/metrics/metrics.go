// SPDX-License-Identifier: MIT

// Package metrics exposes Prometheus instrumentation for probes, STAC
// fetches, scene resolution and configuration lifecycle.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	probesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cogtune_probes_total",
		Help: "Endpoint capability probes by outcome",
	}, []string{"outcome"}) // outcome=pass|warn|fail|error

	probeDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cogtune_probe_duration_seconds",
		Help:    "Wall time of a full endpoint probe",
		Buckets: prometheus.DefBuckets,
	})

	stacFetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cogtune_stac_fetch_total",
		Help: "STAC item fetch attempts by outcome",
	}, []string{"outcome"}) // outcome=success|cache|error

	stacFetchDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cogtune_stac_fetch_duration_seconds",
		Help:    "Upstream STAC item fetch latency",
		Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	})

	sceneLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cogtune_scene_lookups_total",
		Help: "Scene resolution attempts by outcome",
	}, []string{"outcome"}) // outcome=success|invalid|unsupported|error

	profileAppliedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cogtune_profile_applied_total",
		Help: "GDAL profile applications by profile name",
	}, []string{"profile"})

	profileVariables = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cogtune_profile_variables",
		Help: "Number of variables in the active GDAL profile",
	})

	configReloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cogtune_config_reloads_total",
		Help: "Configuration reloads by outcome",
	}, []string{"outcome"}) // outcome=success|failure
)

func IncProbe(outcome string) { probesTotal.WithLabelValues(outcome).Inc() }

func ObserveProbeDuration(d time.Duration) { probeDurationSeconds.Observe(d.Seconds()) }

func IncSTACFetch(outcome string) { stacFetchTotal.WithLabelValues(outcome).Inc() }

func ObserveSTACFetchDuration(d time.Duration) { stacFetchDurationSeconds.Observe(d.Seconds()) }

func IncSceneLookup(outcome string) { sceneLookupsTotal.WithLabelValues(outcome).Inc() }

func RecordProfileApplied(profile string, variables int) {
	profileAppliedTotal.WithLabelValues(profile).Inc()
	profileVariables.Set(float64(variables))
}

func IncConfigReload(outcome string) { configReloadsTotal.WithLabelValues(outcome).Inc() }
