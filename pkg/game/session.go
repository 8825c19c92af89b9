package game

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/aretw0/whodunit/internal/clues"
	"github.com/aretw0/whodunit/internal/knowledge"
	"github.com/aretw0/whodunit/internal/logging"
	"github.com/aretw0/whodunit/internal/turn"
	"github.com/aretw0/whodunit/internal/world"
	"github.com/aretw0/whodunit/pkg/domain"
	"github.com/aretw0/whodunit/pkg/ports"
	"github.com/aretw0/whodunit/pkg/scenario"
)

// Option configures a Session.
type Option func(*Session)

// WithID sets the session id.
func WithID(id string) Option {
	return func(s *Session) {
		s.id = id
	}
}

// WithSettings overrides the default rules.
func WithSettings(settings Settings) Option {
	return func(s *Session) {
		s.settings = settings
	}
}

// WithOracle sets the decision oracle. Required before a scenario is bound.
func WithOracle(o ports.DecisionOracle) Option {
	return func(s *Session) {
		s.oracle = o
	}
}

// WithNarrator sets the ending narrator. Without one a fixed ending is used.
func WithNarrator(n ports.EndingNarrator) Option {
	return func(s *Session) {
		s.narrator = n
	}
}

// WithRecall attaches a long-term memory store to the knowledge partition.
func WithRecall(r ports.Recall) Option {
	return func(s *Session) {
		s.recall = r
	}
}

// WithHardRule installs the combination rule for HARD clues, replacing the
// corroboration rule of the settings.
func WithHardRule(r clues.HardRule) Option {
	return func(s *Session) {
		s.hardRule = r
	}
}

// WithHooks registers lifecycle callbacks.
func WithHooks(h domain.LifecycleHooks) Option {
	return func(s *Session) {
		s.hooks = h
	}
}

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		s.logger = l
	}
}

// WithTracerProvider sets the provider used for turn spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Session) {
		s.tracerProvider = tp
	}
}

// WithRand sets the random source for placement and reveal chances.
func WithRand(rng *rand.Rand) Option {
	return func(s *Session) {
		s.rng = rng
	}
}

// Session is the aggregate root of one game. It owns every manager and
// processes one call at a time.
type Session struct {
	mu sync.Mutex

	id       string
	phase    domain.Phase
	player   domain.Character
	npcs     []domain.Character
	victim   domain.Character
	scenario *scenario.Scenario

	world     *world.Graph
	knowledge *knowledge.Partition
	ledger    *clues.Ledger
	engine    *turn.Engine

	turn    int
	history []*domain.TurnResult
	result  *Result

	settings       Settings
	oracle         ports.DecisionOracle
	narrator       ports.EndingNarrator
	recall         ports.Recall
	hardRule       clues.HardRule
	hooks          domain.LifecycleHooks
	logger         *slog.Logger
	tracerProvider trace.TracerProvider
	rng            *rand.Rand
}

// NewSession creates a session in SETUP with its cast assigned.
// The player must be a detective or a killer.
func NewSession(player domain.Character, npcs []domain.Character, victim domain.Character, opts ...Option) (*Session, error) {
	if !player.Role.PlayerEligible() {
		return nil, fmt.Errorf("player role %q cannot play: must be detective or killer", player.Role)
	}
	if strings.TrimSpace(player.Name) == "" {
		return nil, fmt.Errorf("player name is required")
	}
	if len(npcs) == 0 {
		return nil, fmt.Errorf("at least one npc is required")
	}
	if victim.Name == "" {
		return nil, fmt.Errorf("a victim is required")
	}

	seen := map[string]bool{player.Name: true, victim.Name: true}
	if player.Name == victim.Name {
		return nil, fmt.Errorf("player and victim share the name %q", player.Name)
	}
	for _, npc := range npcs {
		if npc.Name == "" || seen[npc.Name] {
			return nil, fmt.Errorf("duplicate or empty character name %q", npc.Name)
		}
		seen[npc.Name] = true
	}

	player.IsPlayer = true
	victim.Role = domain.RoleVictim
	s := &Session{
		phase:          domain.PhaseSetup,
		player:         player,
		npcs:           append([]domain.Character(nil), npcs...),
		victim:         victim,
		settings:       DefaultSettings(),
		logger:         logging.NewNop(),
		tracerProvider: otel.GetTracerProvider(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		seed := s.settings.Seed
		if seed == 0 {
			seed = rand.Uint64()
		}
		s.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
	return s, nil
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Phase returns the current phase.
func (s *Session) Phase() domain.Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Turn returns the number of turns processed.
func (s *Session) Turn() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.turn
}

// Player returns the player character, with its bound role.
func (s *Session) Player() domain.Character {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.player
}

// Cast returns the NPC roster and the victim.
func (s *Session) Cast() ([]domain.Character, domain.Character) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Character(nil), s.npcs...), s.victim
}

// History returns the processed turns.
func (s *Session) History() []*domain.TurnResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*domain.TurnResult(nil), s.history...)
}

// Result returns the final report once the game has ended.
func (s *Session) Result() (*Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return nil, false
	}
	r := *s.result
	return &r, true
}

// BeginScenarioGeneration moves SETUP to SCENARIO_GEN.
func (s *Session) BeginScenarioGeneration(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.beginGeneration(ctx)
}

func (s *Session) beginGeneration(ctx context.Context) error {
	if s.phase != domain.PhaseSetup {
		return &domain.PhaseError{Op: "generate scenario", Phase: s.phase}
	}
	s.transition(ctx, domain.PhaseScenarioGen, domain.OutcomeNone)
	return nil
}

// GenerateScenario asks gen for a scenario and binds it. On failure the
// session returns to SETUP so generation can be retried.
func (s *Session) GenerateScenario(ctx context.Context, gen ports.ScenarioGenerator) (*scenario.Scenario, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.beginGeneration(ctx); err != nil {
		return nil, err
	}

	sc, err := gen.Generate(ctx, ports.GenerationRequest{
		Player:         s.player,
		NPCs:           append([]domain.Character(nil), s.npcs...),
		Victim:         s.victim,
		LocationsCount: s.settings.LocationsCount,
	})
	if err == nil && sc == nil {
		err = fmt.Errorf("generator returned no scenario")
	}
	if err != nil {
		s.transition(ctx, domain.PhaseSetup, domain.OutcomeNone)
		return nil, fmt.Errorf("scenario generation failed: %w", err)
	}

	if err := s.bind(ctx, sc); err != nil {
		s.transition(ctx, domain.PhaseSetup, domain.OutcomeNone)
		return nil, err
	}
	return s.scenario, nil
}

// Bind accepts a scenario and starts play. It is legal only in SCENARIO_GEN
// and only once per session.
func (s *Session) Bind(ctx context.Context, sc *scenario.Scenario) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bind(ctx, sc)
}

func (s *Session) bind(ctx context.Context, sc *scenario.Scenario) error {
	if s.scenario != nil {
		err := fmt.Errorf("%w: scenario already bound to session %s", domain.ErrIntegrityViolation, s.id)
		if s.settings.StrictIntegrity {
			panic(err)
		}
		s.logger.ErrorContext(ctx, "scenario bound twice", "session_id", s.id, "err", err)
		return err
	}
	if s.phase != domain.PhaseScenarioGen {
		return &domain.PhaseError{Op: "bind scenario", Phase: s.phase}
	}
	if sc == nil {
		return fmt.Errorf("nil scenario")
	}
	if s.oracle == nil {
		return fmt.Errorf("no decision oracle configured")
	}
	if err := sc.Validate(); err != nil {
		return fmt.Errorf("invalid scenario: %w", err)
	}

	b, err := BindRoles(s.player, s.npcs, s.victim.Name, sc)
	if err != nil {
		return fmt.Errorf("bind roles: %w", err)
	}

	g := world.New(b.Scenario.DomainLocations())
	if err := placeCast(g, b.Player, b.NPCs, s.rng); err != nil {
		return fmt.Errorf("place cast: %w", err)
	}

	ledger := clues.New(b.Scenario.DomainClues(),
		clues.WithStrictIntegrity(s.settings.StrictIntegrity),
		clues.WithLogger(s.logger),
	)
	partition := knowledge.New(b.Killer, knowledgeStates(b.Scenario, b.NPCs),
		knowledge.WithRecall(s.recall),
		knowledge.WithLogger(s.logger),
	)

	policy := clues.NewPolicy(s.rng)
	if s.settings.MediumTalkThreshold > 0 {
		policy.MediumTalkThreshold = s.settings.MediumTalkThreshold
	}
	if s.settings.MediumInvestigateChance > 0 {
		policy.MediumInvestigateChance = s.settings.MediumInvestigateChance
	}
	policy.Hard = s.hardRule
	if policy.Hard == nil && s.settings.HardClueCorroboration > 0 {
		policy.Hard = clues.Corroborated(s.settings.HardClueCorroboration)
	}

	s.player = b.Player
	s.npcs = b.NPCs
	s.scenario = b.Scenario
	s.world = g
	s.ledger = ledger
	s.knowledge = partition
	s.engine = turn.New(g, partition, ledger, s.oracle,
		turn.Cast{Player: b.Player, NPCs: b.NPCs, Victim: s.victim},
		turn.WithLogger(s.logger),
		turn.WithHooks(s.hooks),
		turn.WithSessionID(s.id),
		turn.WithOracleTimeout(s.settings.OracleTimeout),
		turn.WithMaxParallel(s.settings.MaxParallelGroups),
		turn.WithPolicy(policy),
		turn.WithTracerProvider(s.tracerProvider),
	)

	if edges := b.Scenario.AsymmetricEdges(); len(edges) > 0 {
		s.logger.InfoContext(ctx, "scenario has one-way connections", "session_id", s.id, "count", len(edges))
	}
	s.logger.InfoContext(ctx, "scenario bound", "session_id", s.id, "title", b.Scenario.Title)
	s.transition(ctx, domain.PhasePlaying, domain.OutcomeNone)
	return nil
}

// Move submits a MOVE to a location id or name.
func (s *Session) Move(ctx context.Context, location string) (*domain.TurnResult, error) {
	return s.submit(ctx, domain.PlayerAction{Type: domain.ActionMove, Target: location})
}

// Talk submits a TALK to an NPC.
func (s *Session) Talk(ctx context.Context, npc, message string) (*domain.TurnResult, error) {
	return s.submit(ctx, domain.PlayerAction{Type: domain.ActionTalk, Target: npc, Message: message})
}

// Investigate searches the player's current location.
func (s *Session) Investigate(ctx context.Context) (*domain.TurnResult, error) {
	return s.submit(ctx, domain.PlayerAction{Type: domain.ActionInvestigate})
}

// Wait passes the turn.
func (s *Session) Wait(ctx context.Context) (*domain.TurnResult, error) {
	return s.submit(ctx, domain.PlayerAction{Type: domain.ActionWait})
}

// Submit resolves any non-accusing player action.
func (s *Session) Submit(ctx context.Context, action domain.PlayerAction) (*domain.TurnResult, error) {
	if action.Type == domain.ActionAccuse {
		return nil, fmt.Errorf("%w: use Accuse to accuse", domain.ErrInvalidAction)
	}
	return s.submit(ctx, action)
}

func (s *Session) submit(ctx context.Context, action domain.PlayerAction) (*domain.TurnResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != domain.PhasePlaying {
		return nil, &domain.PhaseError{Op: strings.ToLower(string(action.Type)), Phase: s.phase}
	}
	if err := action.Validate(); err != nil {
		return nil, err
	}

	next := s.turn + 1
	ctx = logging.WithAttrs(ctx, slog.String("session_id", s.id), slog.Int("turn", next))
	result, err := s.engine.Resolve(ctx, next, action)
	if err != nil {
		return nil, err
	}

	s.turn = next
	s.history = append(s.history, result)
	if s.turn >= s.settings.MaxTurns && s.settings.MaxTurns > 0 {
		s.finish(ctx, domain.OutcomeTimeout, "", "")
	}
	return result, nil
}

// Accuse ends the game by naming a suspect. It is legal only while PLAYING.
func (s *Session) Accuse(ctx context.Context, suspect, reasoning string) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != domain.PhasePlaying {
		return nil, &domain.PhaseError{Op: "accuse", Phase: s.phase}
	}
	if strings.TrimSpace(suspect) == "" {
		return nil, fmt.Errorf("%w: accuse requires a suspect", domain.ErrInvalidAction)
	}

	s.transition(ctx, domain.PhaseAccusation, domain.OutcomeNone)
	accused := s.canonicalName(suspect)
	outcome := ResolveAccusation(s.player.Role, accused, s.knowledge.Killer())
	s.finish(ctx, outcome, accused, reasoning)

	r := *s.result
	return &r, nil
}

// finish records the result and moves to RESULTS.
func (s *Session) finish(ctx context.Context, outcome domain.Outcome, accused, reasoning string) {
	killer := s.knowledge.Killer()
	r := &Result{
		Outcome:      outcome,
		Label:        outcome.Label(),
		Accused:      accused,
		Reasoning:    reasoning,
		ActualKiller: killer,
		TurnsTaken:   s.turn,
		CluesFound:   s.ledger.DiscoveredCount(),
		TotalClues:   s.ledger.TotalCount(),
		Ending:       fallbackEnding(outcome, accused, killer),
	}

	if s.narrator != nil {
		ending, err := s.narrator.NarrateEnding(ctx, ports.EndingRequest{
			Scenario:   s.scenario,
			Player:     s.player,
			Accused:    accused,
			Reasoning:  reasoning,
			Outcome:    outcome,
			TurnsTaken: s.turn,
			CluesFound: r.CluesFound,
		})
		if err != nil {
			s.logger.WarnContext(ctx, "ending narration failed, using fallback", "session_id", s.id, "err", err)
		} else if strings.TrimSpace(ending) != "" {
			r.Ending = strings.TrimSpace(ending)
		}
	}

	s.result = r
	s.transition(ctx, domain.PhaseResults, outcome)
}

// Close moves the session to FINISHED from any phase.
func (s *Session) Close(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != domain.PhaseFinished {
		outcome := domain.OutcomeNone
		if s.result != nil {
			outcome = s.result.Outcome
		}
		s.transition(ctx, domain.PhaseFinished, outcome)
	}
}

func (s *Session) transition(ctx context.Context, to domain.Phase, outcome domain.Outcome) {
	from := s.phase
	s.phase = to
	s.logger.DebugContext(ctx, "phase change", "session_id", s.id, "from", from, "to", to)
	if s.hooks.OnPhaseChange != nil {
		s.hooks.OnPhaseChange(ctx, &domain.PhaseEvent{SessionID: s.id, From: from, To: to, Outcome: outcome})
	}
}

// canonicalName maps a case-insensitive reference to a cast member's name.
func (s *Session) canonicalName(ref string) string {
	ref = strings.TrimSpace(ref)
	if strings.EqualFold(ref, s.player.Name) {
		return s.player.Name
	}
	for _, npc := range s.npcs {
		if strings.EqualFold(ref, npc.Name) {
			return npc.Name
		}
	}
	if strings.EqualFold(ref, s.victim.Name) {
		return s.victim.Name
	}
	return ref
}
