// Package http exposes the game engine as a JSON REST API on chi, with
// per-session server-sent events.
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/aretw0/whodunit/internal/logging"
	"github.com/aretw0/whodunit/pkg/characters"
	"github.com/aretw0/whodunit/pkg/domain"
	"github.com/aretw0/whodunit/pkg/game"
	"github.com/aretw0/whodunit/pkg/runner"
	"github.com/aretw0/whodunit/pkg/scenario"
)

// maxBodySize bounds request bodies; scenarios are the largest payload.
const maxBodySize = 1 << 20

// Engine is the game surface served over HTTP.
type Engine interface {
	StartSession(ctx context.Context, player domain.Character, npcs []domain.Character, victim domain.Character) (game.Snapshot, error)
	GenerateScenario(ctx context.Context, sessionID string) (game.Snapshot, error)
	BindScenario(ctx context.Context, sessionID string, sc *scenario.Scenario) (game.Snapshot, error)
	Move(ctx context.Context, sessionID, location string) (*domain.TurnResult, error)
	Talk(ctx context.Context, sessionID, npc, message string) (*domain.TurnResult, error)
	Investigate(ctx context.Context, sessionID string) (*domain.TurnResult, error)
	Wait(ctx context.Context, sessionID string) (*domain.TurnResult, error)
	Accuse(ctx context.Context, sessionID, suspect, reasoning string) (*game.Result, error)
	State(ctx context.Context, sessionID string) (game.Snapshot, error)
	Published(ctx context.Context, sessionID string) ([]byte, error)
	Sessions() []string
	Close(ctx context.Context, sessionID string) error
}

// Server holds the handler dependencies.
type Server struct {
	engine    Engine
	streams   *StreamManager
	cast      characters.CastFunc
	roster    []domain.Character
	sanitizer runner.Sanitizer
	metrics   http.Handler
	version   string
	logger    *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithStreams serves GET /sessions/{id}/events from sm. The same manager's
// Hooks must be registered on the engine for events to flow.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		s.streams = sm
	}
}

// WithCast sets how sessions created without an explicit cast are filled.
// Defaults to seven NPCs drawn from the built-in pool.
func WithCast(fn characters.CastFunc) Option {
	return func(s *Server) {
		s.cast = fn
	}
}

// WithRoster sets the character pool listed by GET /characters.
// Defaults to the built-in pool.
func WithRoster(pool []domain.Character) Option {
	return func(s *Server) {
		s.roster = pool
	}
}

// WithSanitizer sets the limits applied to player free text.
func WithSanitizer(sz runner.Sanitizer) Option {
	return func(s *Server) {
		s.sanitizer = sz
	}
}

// WithMetrics mounts h on GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithVersion sets the version reported by GET /info.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = strings.TrimSpace(v)
	}
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// NewHandler creates the HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	s := &Server{
		engine:  engine,
		cast:    characters.RandomCast(characters.Default(), 7, nil),
		roster:  characters.Default(),
		version: "dev",
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	r.Use(enableCORS)

	r.Get("/health", s.health)
	r.Get("/info", s.info)
	r.Get("/characters", s.listCharacters)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.listSessions)
		r.Post("/", s.createSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.state)
			r.Delete("/", s.closeSession)
			r.Get("/published", s.published)
			r.Get("/events", s.events)
			r.Post("/scenario", s.generateScenario)
			r.Put("/scenario", s.bindScenario)
			r.Post("/move", s.move)
			r.Post("/talk", s.talk)
			r.Post("/investigate", s.investigate)
			r.Post("/wait", s.wait)
			r.Post("/accuse", s.accuse)
		})
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.DebugContext(r.Context(), "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

type createRequest struct {
	PlayerName string             `json:"player_name"`
	Role       string             `json:"role"`
	NPCs       []domain.Character `json:"npcs,omitempty"`
	Victim     *domain.Character  `json:"victim,omitempty"`
}

type moveRequest struct {
	Location string `json:"location"`
}

type talkRequest struct {
	NPC     string `json:"npc"`
	Message string `json:"message"`
}

type accuseRequest struct {
	Suspect   string `json:"suspect"`
	Reasoning string `json:"reasoning"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) info(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"app": "whodunit-http", "version": s.version})
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string][]string{"sessions": s.engine.Sessions()})
}

func (s *Server) listCharacters(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string][]characters.Summary{"characters": characters.Summarize(s.roster)})
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var body createRequest
	if !s.decode(w, r, &body) {
		return
	}
	role := domain.RoleDetective
	if body.Role != "" {
		parsed, err := domain.ParseRole(body.Role)
		if err != nil {
			s.writeError(w, r, fmt.Errorf("%w: %w", domain.ErrInvalidAction, err))
			return
		}
		role = parsed
	}

	npcs := body.NPCs
	var victim domain.Character
	if body.Victim != nil {
		victim = *body.Victim
	}
	if len(npcs) == 0 || victim.Name == "" {
		var err error
		npcs, victim, err = s.cast(r.Context())
		if err != nil {
			s.writeError(w, r, err)
			return
		}
	}

	snap, err := s.engine.StartSession(r.Context(), characters.NewPlayer(body.PlayerName, role), npcs, victim)
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: %w", domain.ErrInvalidAction, err))
		return
	}
	s.writeJSON(w, http.StatusCreated, snap)
}

func (s *Server) state(w http.ResponseWriter, r *http.Request) {
	snap, err := s.engine.State(r.Context(), chi.URLParam(r, "id"))
	s.respond(w, r, http.StatusOK, snap, err)
}

func (s *Server) published(w http.ResponseWriter, r *http.Request) {
	data, err := s.engine.Published(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func (s *Server) closeSession(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Close(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) generateScenario(w http.ResponseWriter, r *http.Request) {
	snap, err := s.engine.GenerateScenario(r.Context(), chi.URLParam(r, "id"))
	s.respond(w, r, http.StatusOK, snap, err)
}

func (s *Server) bindScenario(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: %w", domain.ErrInvalidAction, err))
		return
	}
	format := scenario.FormatJSON
	if ct := r.Header.Get("Content-Type"); strings.Contains(ct, "yaml") {
		format = scenario.FormatYAML
	}
	sc, err := scenario.Parse(data, format)
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: %w", domain.ErrInvalidAction, err))
		return
	}
	snap, err := s.engine.BindScenario(r.Context(), chi.URLParam(r, "id"), sc)
	s.respond(w, r, http.StatusOK, snap, err)
}

func (s *Server) move(w http.ResponseWriter, r *http.Request) {
	var body moveRequest
	if !s.decode(w, r, &body) {
		return
	}
	res, err := s.engine.Move(r.Context(), chi.URLParam(r, "id"), body.Location)
	s.respond(w, r, http.StatusOK, res, err)
}

func (s *Server) talk(w http.ResponseWriter, r *http.Request) {
	var body talkRequest
	if !s.decode(w, r, &body) {
		return
	}
	msg, err := s.sanitizer.Clean(body.Message)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.engine.Talk(r.Context(), chi.URLParam(r, "id"), body.NPC, msg)
	s.respond(w, r, http.StatusOK, res, err)
}

func (s *Server) investigate(w http.ResponseWriter, r *http.Request) {
	res, err := s.engine.Investigate(r.Context(), chi.URLParam(r, "id"))
	s.respond(w, r, http.StatusOK, res, err)
}

func (s *Server) wait(w http.ResponseWriter, r *http.Request) {
	res, err := s.engine.Wait(r.Context(), chi.URLParam(r, "id"))
	s.respond(w, r, http.StatusOK, res, err)
}

func (s *Server) accuse(w http.ResponseWriter, r *http.Request) {
	var body accuseRequest
	if !s.decode(w, r, &body) {
		return
	}
	reasoning, err := s.sanitizer.Clean(body.Reasoning)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.engine.Accuse(r.Context(), chi.URLParam(r, "id"), body.Suspect, reasoning)
	s.respond(w, r, http.StatusOK, res, err)
}

// events streams the session's turn and phase events (SSE).
func (s *Server) events(w http.ResponseWriter, r *http.Request) {
	if s.streams == nil {
		http.Error(w, "event streaming not enabled", http.StatusNotImplemented)
		return
	}
	id := chi.URLParam(r, "id")
	if _, err := s.engine.State(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.streams.Subscribe(id)
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err := dec.Decode(v); err != nil && err != io.EOF {
		s.writeError(w, r, fmt.Errorf("%w: invalid request body: %w", domain.ErrInvalidAction, err))
		return false
	}
	return true
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, status int, v any, err error) {
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, status, v)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}
