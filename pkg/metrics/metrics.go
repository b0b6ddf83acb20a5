// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package metrics holds the application Prometheus collectors. They are
// registered on the metrics server registry by internal/server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "sponsor_unlock"

// Provider call outcomes.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
	OutcomeDrift = "drift"
)

var (
	// ProviderCallsTotal counts adapter calls by source, operation and outcome.
	ProviderCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_calls_total",
			Help:      "Sponsor provider calls segmented by source, operation and outcome.",
		},
		[]string{"source", "operation", "outcome"},
	)

	// ProviderCallDuration observes partner call latency.
	ProviderCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_call_duration_seconds",
			Help:      "Latency of sponsor provider calls.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"source", "operation"},
	)

	// CASConflictsTotal counts lost compare-and-set races in the state store.
	CASConflictsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "state_cas_conflicts_total",
			Help:      "Compare-and-set conflicts retried by transactional updates.",
		},
	)

	// ResolvesTotal counts aggregator resolutions by mode.
	ResolvesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "aggregator_resolves_total",
			Help:      "Offer resolutions segmented by mode (fast_path, completed, resolve).",
		},
		[]string{"mode"},
	)

	// StageOutcomesTotal counts stage machine results per feature.
	StageOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_outcomes_total",
			Help:      "Reward stage machine outcomes segmented by feature and outcome.",
		},
		[]string{"feature", "outcome"},
	)

	// SpamRunsTotal counts promotion sequence runs by result.
	SpamRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "spam_runs_total",
			Help:      "Promotion sequence runs segmented by result.",
		},
		[]string{"result"},
	)
)

// Collectors returns every application collector for registration.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		ProviderCallsTotal,
		ProviderCallDuration,
		CASConflictsTotal,
		ResolvesTotal,
		StageOutcomesTotal,
		SpamRunsTotal,
	}
}
