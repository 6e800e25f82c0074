// Package metrics регистрирует prometheus-метрики гейткипера.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DecisionTransitions считает смены режима доступа по целевому режиму.
	DecisionTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gatekeeper_decision_transitions_total",
		Help: "Number of access decision transitions by target mode.",
	}, []string{"mode"})

	// ProfileFetchFailures считает неудачные начальные загрузки профиля.
	ProfileFetchFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gatekeeper_profile_fetch_failures_total",
		Help: "Number of failed initial profile fetches.",
	})

	// VersionCheckFailures считает неудачные проверки версии приложения.
	VersionCheckFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gatekeeper_version_check_failures_total",
		Help: "Number of failed app version checks.",
	})

	// RealtimeEvents считает принятые realtime-события об изменении профиля.
	RealtimeEvents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gatekeeper_realtime_events_total",
		Help: "Number of received realtime profile update events.",
	})

	// MalformedRealtimeEvents считает отброшенные некорректные realtime-события.
	MalformedRealtimeEvents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gatekeeper_realtime_events_malformed_total",
		Help: "Number of malformed realtime events dropped.",
	})

	// StaleResultsDiscarded считает результаты, отброшенные из-за смены сессии.
	StaleResultsDiscarded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gatekeeper_stale_results_discarded_total",
		Help: "Number of async results discarded because their session was superseded.",
	})
)
