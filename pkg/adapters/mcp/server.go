// Package mcp exposes the game engine as Model Context Protocol tools, so an
// assistant can play a session over stdio or SSE.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/whodunit/internal/logging"
	"github.com/aretw0/whodunit/pkg/characters"
	"github.com/aretw0/whodunit/pkg/domain"
	"github.com/aretw0/whodunit/pkg/game"
	"github.com/aretw0/whodunit/pkg/runner"
	"github.com/aretw0/whodunit/pkg/scenario"
)

// publishedURI is the resource template for a session's public game record.
const publishedURI = "whodunit://sessions/{id}/published"

// Engine is the game surface exposed as tools.
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
}

// SessionArgs addresses an existing session.
type SessionArgs struct {
	SessionID string `json:"session_id"`
}

// StartArgs are the start_session arguments.
type StartArgs struct {
	PlayerName string `json:"player_name"`
	Role       string `json:"role"`
}

// BindArgs are the bind_scenario arguments.
type BindArgs struct {
	SessionID string `json:"session_id"`
	Scenario  string `json:"scenario"`
	Format    string `json:"format"`
}

// MoveArgs are the move arguments.
type MoveArgs struct {
	SessionID string `json:"session_id"`
	Location  string `json:"location"`
}

// TalkArgs are the talk arguments.
type TalkArgs struct {
	SessionID string `json:"session_id"`
	NPC       string `json:"npc"`
	Message   string `json:"message"`
}

// AccuseArgs are the accuse arguments.
type AccuseArgs struct {
	SessionID string `json:"session_id"`
	Suspect   string `json:"suspect"`
	Reasoning string `json:"reasoning"`
}

// SessionList is the list_sessions result.
type SessionList struct {
	Sessions []string `json:"sessions" jsonschema_description:"Ids of the live sessions"`
}

// CharacterList is the list_characters result.
type CharacterList struct {
	Characters []characters.Summary `json:"characters" jsonschema_description:"Characters a cast is drawn from"`
}

// Server wraps the engine and exposes it as an MCP server.
type Server struct {
	engine    Engine
	cast      characters.CastFunc
	roster    []domain.Character
	sanitizer runner.Sanitizer
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures a Server.
type Option func(*Server)

// WithCast sets how new sessions are cast. Defaults to seven NPCs drawn
// from the built-in pool.
func WithCast(fn characters.CastFunc) Option {
	return func(s *Server) {
		s.cast = fn
	}
}

// WithRoster sets the pool listed by list_characters. Defaults to the
// built-in pool.
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

// WithLogger sets the server logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// NewServer creates an MCP server for engine.
func NewServer(engine Engine, version string, opts ...Option) *Server {
	s := &Server{
		engine: engine,
		cast:   characters.RandomCast(characters.Default(), 7, nil),
		roster: characters.Default(),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.mcpServer = server.NewMCPServer("whodunit-mcp", strings.TrimSpace(version),
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio serves on Stdin/Stdout until the client disconnects.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves on addr using SSE until ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, addr string) error {
	baseURL := "http://" + addr
	if strings.HasPrefix(addr, ":") {
		baseURL = "http://localhost" + addr
	}
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("mcp server listening (sse)", "addr", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("shutting down mcp server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func sessionParam() mcp.ToolOption {
	return mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id returned by start_session"))
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("start_session",
		mcp.WithDescription("Start a new game. The cast is drawn from the character pool."),
		mcp.WithString("player_name", mcp.Description("Name of the player character")),
		mcp.WithString("role", mcp.Description("detective (default) or killer")),
		mcp.WithOutputSchema[game.Snapshot](),
	), mcp.NewStructuredToolHandler(s.handleStart))

	s.mcpServer.AddTool(mcp.NewTool("generate_scenario",
		mcp.WithDescription("Generate and bind a scenario for a session in SETUP."),
		sessionParam(),
		mcp.WithOutputSchema[game.Snapshot](),
	), mcp.NewStructuredToolHandler(s.handleGenerate))

	s.mcpServer.AddTool(mcp.NewTool("bind_scenario",
		mcp.WithDescription("Bind a hand-written scenario document to a session."),
		sessionParam(),
		mcp.WithString("scenario", mcp.Required(), mcp.Description("The scenario document")),
		mcp.WithString("format", mcp.Description("json (default) or yaml"), mcp.Enum("json", "yaml")),
		mcp.WithOutputSchema[game.Snapshot](),
	), mcp.NewStructuredToolHandler(s.handleBind))

	s.mcpServer.AddTool(mcp.NewTool("move",
		mcp.WithDescription("Move the player to an adjacent location. Takes a turn."),
		sessionParam(),
		mcp.WithString("location", mcp.Required(), mcp.Description("Location id")),
		mcp.WithOutputSchema[domain.TurnResult](),
	), mcp.NewStructuredToolHandler(s.handleMove))

	s.mcpServer.AddTool(mcp.NewTool("talk",
		mcp.WithDescription("Talk to a character in the same location. Takes a turn."),
		sessionParam(),
		mcp.WithString("npc", mcp.Required(), mcp.Description("Character name")),
		mcp.WithString("message", mcp.Description("What the player says. Empty to just approach them")),
		mcp.WithOutputSchema[domain.TurnResult](),
	), mcp.NewStructuredToolHandler(s.handleTalk))

	s.mcpServer.AddTool(mcp.NewTool("investigate",
		mcp.WithDescription("Search the current location for clues. Takes a turn."),
		sessionParam(),
		mcp.WithOutputSchema[domain.TurnResult](),
	), mcp.NewStructuredToolHandler(s.handleInvestigate))

	s.mcpServer.AddTool(mcp.NewTool("wait",
		mcp.WithDescription("Let a turn pass and watch."),
		sessionParam(),
		mcp.WithOutputSchema[domain.TurnResult](),
	), mcp.NewStructuredToolHandler(s.handleWait))

	s.mcpServer.AddTool(mcp.NewTool("accuse",
		mcp.WithDescription("Name the killer and end the game."),
		sessionParam(),
		mcp.WithString("suspect", mcp.Required(), mcp.Description("Name of the accused")),
		mcp.WithString("reasoning", mcp.Description("Why they did it")),
		mcp.WithOutputSchema[game.Result](),
	), mcp.NewStructuredToolHandler(s.handleAccuse))

	s.mcpServer.AddTool(mcp.NewTool("get_state",
		mcp.WithDescription("Get the player's view of a session."),
		sessionParam(),
		mcp.WithOutputSchema[game.Snapshot](),
	), mcp.NewStructuredToolHandler(s.handleState))

	s.mcpServer.AddTool(mcp.NewTool("list_sessions",
		mcp.WithDescription("List live session ids."),
		mcp.WithOutputSchema[SessionList](),
	), mcp.NewStructuredToolHandler(s.handleList))

	s.mcpServer.AddTool(mcp.NewTool("list_characters",
		mcp.WithDescription("List the character pool new casts are drawn from."),
		mcp.WithOutputSchema[CharacterList](),
	), mcp.NewStructuredToolHandler(s.handleCharacters))
}

func (s *Server) registerResources() {
	s.mcpServer.AddResourceTemplate(mcp.NewResourceTemplate(publishedURI, "Published game record",
		mcp.WithTemplateDescription("Public record of a session: turn results and clue progress."),
		mcp.WithTemplateMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		id, err := sessionFromURI(request.Params.URI)
		if err != nil {
			return nil, err
		}
		data, err := s.engine.Published(ctx, id)
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      request.Params.URI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})
}

func sessionFromURI(uri string) (string, error) {
	rest, ok := strings.CutPrefix(uri, "whodunit://sessions/")
	if !ok {
		return "", fmt.Errorf("unknown resource %q", uri)
	}
	id, ok := strings.CutSuffix(rest, "/published")
	if !ok || id == "" || strings.Contains(id, "/") {
		return "", fmt.Errorf("unknown resource %q", uri)
	}
	return id, nil
}

func (s *Server) handleStart(ctx context.Context, _ mcp.CallToolRequest, args StartArgs) (game.Snapshot, error) {
	role := domain.RoleDetective
	if args.Role != "" {
		parsed, err := domain.ParseRole(args.Role)
		if err != nil {
			return game.Snapshot{}, err
		}
		role = parsed
	}
	name, err := s.sanitizer.Clean(args.PlayerName)
	if err != nil {
		return game.Snapshot{}, fmt.Errorf("input rejected: %w", err)
	}
	npcs, victim, err := s.cast(ctx)
	if err != nil {
		return game.Snapshot{}, fmt.Errorf("cast: %w", err)
	}
	snap, err := s.engine.StartSession(ctx, characters.NewPlayer(name, role), npcs, victim)
	if err != nil {
		return game.Snapshot{}, err
	}
	s.logger.InfoContext(ctx, "mcp session started", "session_id", snap.SessionID)
	return snap, nil
}

func (s *Server) handleGenerate(ctx context.Context, _ mcp.CallToolRequest, args SessionArgs) (game.Snapshot, error) {
	return s.engine.GenerateScenario(ctx, args.SessionID)
}

func (s *Server) handleBind(ctx context.Context, _ mcp.CallToolRequest, args BindArgs) (game.Snapshot, error) {
	format := scenario.FormatJSON
	if strings.EqualFold(args.Format, string(scenario.FormatYAML)) {
		format = scenario.FormatYAML
	}
	sc, err := scenario.Parse([]byte(args.Scenario), format)
	if err != nil {
		return game.Snapshot{}, err
	}
	return s.engine.BindScenario(ctx, args.SessionID, sc)
}

func (s *Server) handleMove(ctx context.Context, _ mcp.CallToolRequest, args MoveArgs) (domain.TurnResult, error) {
	res, err := s.engine.Move(ctx, args.SessionID, args.Location)
	return deref(res, err)
}

func (s *Server) handleTalk(ctx context.Context, _ mcp.CallToolRequest, args TalkArgs) (domain.TurnResult, error) {
	msg, err := s.sanitizer.Clean(args.Message)
	if err != nil {
		s.logger.WarnContext(ctx, "mcp talk: input rejected", "err", err, "size", len(args.Message))
		return domain.TurnResult{}, fmt.Errorf("input rejected: %w", err)
	}
	res, err := s.engine.Talk(ctx, args.SessionID, args.NPC, msg)
	return deref(res, err)
}

func (s *Server) handleInvestigate(ctx context.Context, _ mcp.CallToolRequest, args SessionArgs) (domain.TurnResult, error) {
	res, err := s.engine.Investigate(ctx, args.SessionID)
	return deref(res, err)
}

func (s *Server) handleWait(ctx context.Context, _ mcp.CallToolRequest, args SessionArgs) (domain.TurnResult, error) {
	res, err := s.engine.Wait(ctx, args.SessionID)
	return deref(res, err)
}

func (s *Server) handleAccuse(ctx context.Context, _ mcp.CallToolRequest, args AccuseArgs) (game.Result, error) {
	reasoning, err := s.sanitizer.Clean(args.Reasoning)
	if err != nil {
		return game.Result{}, fmt.Errorf("input rejected: %w", err)
	}
	res, err := s.engine.Accuse(ctx, args.SessionID, args.Suspect, reasoning)
	return deref(res, err)
}

func (s *Server) handleState(ctx context.Context, _ mcp.CallToolRequest, args SessionArgs) (game.Snapshot, error) {
	return s.engine.State(ctx, args.SessionID)
}

func (s *Server) handleList(_ context.Context, _ mcp.CallToolRequest, _ struct{}) (SessionList, error) {
	ids := s.engine.Sessions()
	if ids == nil {
		ids = []string{}
	}
	return SessionList{Sessions: ids}, nil
}

func (s *Server) handleCharacters(_ context.Context, _ mcp.CallToolRequest, _ struct{}) (CharacterList, error) {
	return CharacterList{Characters: characters.Summarize(s.roster)}, nil
}

func deref[T any](v *T, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, fmt.Errorf("engine returned no result")
	}
	return *v, nil
}
