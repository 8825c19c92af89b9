package observability

import (
	"context"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/whodunit/pkg/domain"
)

const namespace = "whodunit"

// Metrics holds the game collectors.
type Metrics struct {
	Turns           *prometheus.CounterVec
	TurnDuration    prometheus.Histogram
	TurnGroups      prometheus.Histogram
	AgentActions    *prometheus.CounterVec
	OracleFailures  prometheus.Counter
	CluesDiscovered *prometheus.CounterVec
	PhaseChanges    *prometheus.CounterVec
	GamesFinished   *prometheus.CounterVec
	GamesInPlay     prometheus.Gauge
}

// NewMetrics creates the collectors and registers them on reg.
// It panics if any is already registered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Turns resolved, by player action.",
		}, []string{"action"}),
		TurnDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_duration_seconds",
			Help:      "Wall time to resolve a turn, oracle calls included.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		TurnGroups: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_location_groups",
			Help:      "Location groups resolved concurrently per turn.",
			Buckets:   prometheus.LinearBuckets(1, 1, 8),
		}),
		AgentActions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "agent_actions_total",
			Help:      "Agent actions applied, by type and whether they were degraded to WAIT.",
		}, []string{"action", "degraded"}),
		OracleFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "oracle_failures_total",
			Help:      "Oracle calls that failed, timed out or panicked.",
		}),
		CluesDiscovered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clues_discovered_total",
			Help:      "First discoveries of clues, by difficulty.",
		}, []string{"difficulty"}),
		PhaseChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "phase_transitions_total",
			Help:      "Game state machine transitions, by target phase.",
		}, []string{"to"}),
		GamesFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_finished_total",
			Help:      "Games that reached RESULTS, by outcome.",
		}, []string{"outcome"}),
		GamesInPlay: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "games_in_play",
			Help:      "Sessions currently in PLAYING.",
		}),
	}
	reg.MustRegister(
		m.Turns, m.TurnDuration, m.TurnGroups,
		m.AgentActions, m.OracleFailures, m.CluesDiscovered,
		m.PhaseChanges, m.GamesFinished, m.GamesInPlay,
	)
	return m
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTurnEnd: func(_ context.Context, e *domain.TurnEndEvent) {
			action := "unknown"
			if e.Result != nil {
				action = string(e.Result.PlayerAction.Type)
			}
			m.Turns.WithLabelValues(action).Inc()
			m.TurnDuration.Observe(e.Duration.Seconds())
			m.TurnGroups.Observe(float64(e.Groups))
		},
		OnAgentResolved: func(_ context.Context, e *domain.AgentEvent) {
			m.AgentActions.WithLabelValues(string(e.Action.Type), strconv.FormatBool(e.Action.Degraded)).Inc()
		},
		OnOracleFailure: func(context.Context, *domain.OracleFailureEvent) {
			m.OracleFailures.Inc()
		},
		OnClueDiscovered: func(_ context.Context, e *domain.ClueEvent) {
			m.CluesDiscovered.WithLabelValues(string(e.Clue.Difficulty)).Inc()
		},
		OnPhaseChange: func(_ context.Context, e *domain.PhaseEvent) {
			m.PhaseChanges.WithLabelValues(string(e.To)).Inc()
			if e.To == domain.PhasePlaying {
				m.GamesInPlay.Inc()
			}
			if e.From == domain.PhasePlaying {
				m.GamesInPlay.Dec()
			}
			if e.To == domain.PhaseResults {
				m.GamesFinished.WithLabelValues(e.Outcome.Label()).Inc()
			}
		},
	}
}

// Handler serves the metrics of g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
