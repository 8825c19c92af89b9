package observability_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/whodunit/pkg/domain"
	"github.com/aretw0/whodunit/pkg/observability"
)

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)
	hooks := m.Hooks()
	ctx := context.Background()

	hooks.OnPhaseChange(ctx, &domain.PhaseEvent{From: domain.PhaseScenarioGen, To: domain.PhasePlaying})
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GamesInPlay))

	hooks.OnAgentResolved(ctx, &domain.AgentEvent{Action: domain.AgentAction{Type: domain.ActionMove}})
	hooks.OnAgentResolved(ctx, &domain.AgentEvent{Action: domain.Wait("Graves", "hall")})
	hooks.OnOracleFailure(ctx, &domain.OracleFailureEvent{Character: "Graves", Err: errors.New("timeout")})
	hooks.OnClueDiscovered(ctx, &domain.ClueEvent{Clue: domain.Clue{ID: "glass", Difficulty: domain.DifficultyEasy}})
	hooks.OnTurnEnd(ctx, &domain.TurnEndEvent{
		Duration: 1500 * time.Millisecond,
		Groups:   2,
		Result:   &domain.TurnResult{PlayerAction: domain.PlayerAction{Type: domain.ActionInvestigate}},
	})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Turns.WithLabelValues("INVESTIGATE")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AgentActions.WithLabelValues("MOVE", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AgentActions.WithLabelValues("WAIT", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OracleFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CluesDiscovered.WithLabelValues("easy")))

	hooks.OnPhaseChange(ctx, &domain.PhaseEvent{From: domain.PhasePlaying, To: domain.PhaseAccusation})
	hooks.OnPhaseChange(ctx, &domain.PhaseEvent{From: domain.PhaseAccusation, To: domain.PhaseResults, Outcome: domain.OutcomeDetectiveWins})
	assert.Equal(t, 0.0, testutil.ToFloat64(m.GamesInPlay))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GamesFinished.WithLabelValues("correct")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PhaseChanges.WithLabelValues("RESULTS")))

	n, err := testutil.GatherAndCount(reg, "whodunit_turn_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMetrics_DoubleRegisterPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	observability.NewMetrics(reg)
	assert.Panics(t, func() { observability.NewMetrics(reg) })
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)
	m.OracleFailures.Inc()

	rec := httptest.NewRecorder()
	observability.Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "whodunit_oracle_failures_total 1")
}

func TestSetupTracing_NoopWithoutEndpoint(t *testing.T) {
	shutdown, err := observability.SetupTracing(context.Background(), "", "whodunit")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, shutdown(ctx))
}

func TestSetupTracing_WithEndpoint(t *testing.T) {
	// Non-routable address: nothing is exported before shutdown.
	shutdown, err := observability.SetupTracing(context.Background(), "http://192.0.2.1:4318", "whodunit")
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}
