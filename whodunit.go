package whodunit

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/aretw0/whodunit/internal/logging"
	"github.com/aretw0/whodunit/pkg/domain"
	"github.com/aretw0/whodunit/pkg/game"
	"github.com/aretw0/whodunit/pkg/ports"
	"github.com/aretw0/whodunit/pkg/scenario"
	"github.com/aretw0/whodunit/pkg/session"
)

// Engine is the high-level entry point of the library. It owns a registry of
// game sessions and resolves every call on a session under that session's
// lock, so at most one turn is in flight per session.
type Engine struct {
	sessions *session.Manager

	oracle         ports.DecisionOracle
	generator      ports.ScenarioGenerator
	narrator       ports.EndingNarrator
	recall         ports.Recall
	settings       game.Settings
	hooks          domain.LifecycleHooks
	locker         ports.DistributedLocker
	store          ports.SnapshotStore
	tracerProvider trace.TracerProvider
	logger         *slog.Logger
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithOracle sets the decision oracle used by every session.
func WithOracle(o ports.DecisionOracle) Option {
	return func(e *Engine) {
		e.oracle = o
	}
}

// WithGenerator sets the scenario generator used by GenerateScenario.
func WithGenerator(g ports.ScenarioGenerator) Option {
	return func(e *Engine) {
		e.generator = g
	}
}

// WithNarrator sets the ending narrator.
func WithNarrator(n ports.EndingNarrator) Option {
	return func(e *Engine) {
		e.narrator = n
	}
}

// WithRecall sets the long-term memory collaborator.
func WithRecall(r ports.Recall) Option {
	return func(e *Engine) {
		e.recall = r
	}
}

// WithSettings sets the game rules of new sessions.
func WithSettings(s game.Settings) Option {
	return func(e *Engine) {
		e.settings = s
	}
}

// WithLifecycleHooks registers observability hooks. Repeated calls add to,
// rather than replace, the hooks already registered.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = domain.MergeHooks(e.hooks, hooks)
	}
}

// WithLocker serializes turns across processes.
func WithLocker(l ports.DistributedLocker) Option {
	return func(e *Engine) {
		e.locker = l
	}
}

// WithSnapshotStore publishes player-visible snapshots after every call.
func WithSnapshotStore(s ports.SnapshotStore) Option {
	return func(e *Engine) {
		e.store = s
	}
}

// WithTracerProvider sets the provider of turn spans. Defaults to the global one.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(e *Engine) {
		e.tracerProvider = tp
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New initializes an Engine. An oracle is required to bind scenarios.
func New(opts ...Option) *Engine {
	e := &Engine{
		settings: game.DefaultSettings(),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}

	defaults := []game.Option{
		game.WithSettings(e.settings),
		game.WithHooks(e.hooks),
		game.WithLogger(e.logger),
	}
	if e.oracle != nil {
		defaults = append(defaults, game.WithOracle(e.oracle))
	}
	if e.narrator != nil {
		defaults = append(defaults, game.WithNarrator(e.narrator))
	}
	if e.recall != nil {
		defaults = append(defaults, game.WithRecall(e.recall))
	}
	if e.tracerProvider != nil {
		defaults = append(defaults, game.WithTracerProvider(e.tracerProvider))
	}

	managerOpts := []session.Option{
		session.WithSessionOptions(defaults...),
		session.WithLogger(e.logger),
	}
	if e.locker != nil {
		managerOpts = append(managerOpts, session.WithLocker(e.locker))
	}
	if e.store != nil {
		managerOpts = append(managerOpts, session.WithSnapshotStore(e.store))
	}
	e.sessions = session.NewManager(managerOpts...)
	return e
}

// Settings returns the rules applied to new sessions.
func (e *Engine) Settings() game.Settings { return e.settings }

// StartSession creates a session in SETUP and returns its first snapshot.
func (e *Engine) StartSession(ctx context.Context, player domain.Character, npcs []domain.Character, victim domain.Character) (game.Snapshot, error) {
	s, err := e.sessions.Create(ctx, player, npcs, victim)
	if err != nil {
		return game.Snapshot{}, err
	}
	return s.Snapshot(), nil
}

// GenerateScenario asks the configured generator for a scenario and binds it.
// On failure the session is back in SETUP and the call can be retried.
func (e *Engine) GenerateScenario(ctx context.Context, sessionID string) (game.Snapshot, error) {
	if e.generator == nil {
		return game.Snapshot{}, fmt.Errorf("no scenario generator configured")
	}
	var snap game.Snapshot
	err := e.sessions.WithLock(ctx, sessionID, func(ctx context.Context, s *game.Session) error {
		if _, err := s.GenerateScenario(ctx, e.generator); err != nil {
			return err
		}
		snap = s.Snapshot()
		return nil
	})
	return snap, err
}

// BindScenario binds a caller-supplied scenario, moving the session from
// SETUP through SCENARIO_GEN to PLAYING.
func (e *Engine) BindScenario(ctx context.Context, sessionID string, sc *scenario.Scenario) (game.Snapshot, error) {
	var snap game.Snapshot
	err := e.sessions.WithLock(ctx, sessionID, func(ctx context.Context, s *game.Session) error {
		if s.Phase() == domain.PhaseSetup {
			if err := s.BeginScenarioGeneration(ctx); err != nil {
				return err
			}
		}
		if err := s.Bind(ctx, sc); err != nil {
			return err
		}
		snap = s.Snapshot()
		return nil
	})
	return snap, err
}

// Move moves the player and resolves the turn.
func (e *Engine) Move(ctx context.Context, sessionID, location string) (*domain.TurnResult, error) {
	return e.Submit(ctx, sessionID, domain.PlayerAction{Type: domain.ActionMove, Target: location})
}

// Talk speaks to an NPC at the player's location and resolves the turn.
func (e *Engine) Talk(ctx context.Context, sessionID, npc, message string) (*domain.TurnResult, error) {
	return e.Submit(ctx, sessionID, domain.PlayerAction{Type: domain.ActionTalk, Target: npc, Message: message})
}

// Investigate searches the player's location and resolves the turn.
func (e *Engine) Investigate(ctx context.Context, sessionID string) (*domain.TurnResult, error) {
	return e.Submit(ctx, sessionID, domain.PlayerAction{Type: domain.ActionInvestigate})
}

// Wait passes the turn.
func (e *Engine) Wait(ctx context.Context, sessionID string) (*domain.TurnResult, error) {
	return e.Submit(ctx, sessionID, domain.PlayerAction{Type: domain.ActionWait})
}

// Submit resolves a non-accusing action. The result is redacted to what the
// player can see.
func (e *Engine) Submit(ctx context.Context, sessionID string, action domain.PlayerAction) (*domain.TurnResult, error) {
	var res *domain.TurnResult
	err := e.sessions.WithLock(ctx, sessionID, func(ctx context.Context, s *game.Session) error {
		r, err := s.Submit(ctx, action)
		if err != nil {
			return err
		}
		res = r.ForPlayer()
		return nil
	})
	return res, err
}

// Accuse ends the game by naming a suspect.
func (e *Engine) Accuse(ctx context.Context, sessionID, suspect, reasoning string) (*game.Result, error) {
	var res *game.Result
	err := e.sessions.WithLock(ctx, sessionID, func(ctx context.Context, s *game.Session) error {
		r, err := s.Accuse(ctx, suspect, reasoning)
		res = r
		return err
	})
	return res, err
}

// State returns the player-visible snapshot of a session.
func (e *Engine) State(ctx context.Context, sessionID string) (game.Snapshot, error) {
	var snap game.Snapshot
	err := e.sessions.WithLock(ctx, sessionID, func(_ context.Context, s *game.Session) error {
		snap = s.Snapshot()
		return nil
	})
	return snap, err
}

// Published returns the last snapshot saved for a session, as JSON.
func (e *Engine) Published(ctx context.Context, sessionID string) ([]byte, error) {
	return e.sessions.Published(ctx, sessionID)
}

// Sessions lists the live session ids.
func (e *Engine) Sessions() []string {
	return e.sessions.List()
}

// Close finishes a session and forgets it.
func (e *Engine) Close(ctx context.Context, sessionID string) error {
	return e.sessions.Delete(ctx, sessionID)
}
