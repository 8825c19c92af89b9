package runner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/aretw0/whodunit/internal/logging"
	"github.com/aretw0/whodunit/pkg/domain"
	"github.com/aretw0/whodunit/pkg/game"
)

// Game is the part of the engine the runner drives.
type Game interface {
	State(ctx context.Context, sessionID string) (game.Snapshot, error)
	Move(ctx context.Context, sessionID, location string) (*domain.TurnResult, error)
	Talk(ctx context.Context, sessionID, npc, message string) (*domain.TurnResult, error)
	Investigate(ctx context.Context, sessionID string) (*domain.TurnResult, error)
	Wait(ctx context.Context, sessionID string) (*domain.TurnResult, error)
	Accuse(ctx context.Context, sessionID, suspect, reasoning string) (*game.Result, error)
}

// ContentRenderer transforms markdown before it is written, e.g. to ANSI.
type ContentRenderer func(string) (string, error)

// Runner plays one session over a line-oriented reader and writer.
type Runner struct {
	Input     io.Reader
	Output    io.Writer
	Renderer  ContentRenderer
	Logger    *slog.Logger
	Prompt    string
	Sanitizer Sanitizer
}

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithInput sets where commands are read from.
func WithInput(in io.Reader) Option {
	return func(r *Runner) {
		r.Input = in
	}
}

// WithOutput sets where the game is written to.
func WithOutput(out io.Writer) Option {
	return func(r *Runner) {
		r.Output = out
	}
}

// WithRenderer configures the content renderer (e.g. TUI, Markdown).
func WithRenderer(renderer ContentRenderer) Option {
	return func(r *Runner) {
		r.Renderer = renderer
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.Logger = logger
	}
}

// WithSanitizer sets the input limits applied to every line.
func WithSanitizer(s Sanitizer) Option {
	return func(r *Runner) {
		r.Sanitizer = s
	}
}

// NewRunner creates a Runner on Stdin and Stdout.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		Input:  os.Stdin,
		Output: os.Stdout,
		Logger: logging.NewNop(),
		Prompt: "> ",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run plays sessionID until the game ends, the player quits or input runs
// out. The session must already be PLAYING.
func (r *Runner) Run(ctx context.Context, g Game, sessionID string) error {
	snap, err := g.State(ctx, sessionID)
	if err != nil {
		return err
	}
	if snap.Phase != domain.PhasePlaying {
		return fmt.Errorf("session %s is not in play (phase %s)", sessionID, snap.Phase)
	}

	r.write(intro(snap))
	r.write(look(snap))

	in := bufio.NewReader(r.Input)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(r.Output, r.Prompt)

		line, readErr := in.ReadString('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return fmt.Errorf("read input: %w", readErr)
		}

		if strings.TrimSpace(line) != "" {
			done, err := r.step(ctx, g, sessionID, line)
			if err != nil {
				return err
			}
			if done {
				return nil
			}
		}
		if errors.Is(readErr, io.EOF) {
			fmt.Fprintln(r.Output)
			return nil
		}
	}
}

// step executes one line. It reports whether the game is over.
func (r *Runner) step(ctx context.Context, g Game, sessionID, line string) (bool, error) {
	clean, err := r.Sanitizer.Clean(line)
	if err != nil {
		r.write("Input rejected: " + err.Error())
		return false, nil
	}

	snap, err := g.State(ctx, sessionID)
	if err != nil {
		return false, err
	}
	names := make([]string, 0, len(snap.NPCs))
	for _, npc := range snap.NPCs {
		names = append(names, npc.Name)
	}

	cmd, err := ParseCommand(clean, names)
	if err != nil {
		r.write(err.Error())
		return false, nil
	}
	r.Logger.DebugContext(ctx, "command", "session_id", sessionID, "verb", cmd.Verb, "target", cmd.Target)

	var res *domain.TurnResult
	switch cmd.Verb {
	case VerbLook:
		r.write(look(snap))
		return false, nil
	case VerbClues:
		r.write(cluesText(snap))
		return false, nil
	case VerbHelp:
		r.write(helpText)
		return false, nil
	case VerbQuit:
		r.write("You leave the case unsolved.")
		return true, nil
	case VerbAccuse:
		result, err := g.Accuse(ctx, sessionID, cmd.Target, cmd.Text)
		if err != nil {
			return false, r.report(err)
		}
		r.write(resultText(result))
		return true, nil
	case VerbMove:
		res, err = g.Move(ctx, sessionID, cmd.Target)
	case VerbTalk:
		res, err = g.Talk(ctx, sessionID, cmd.Target, cmd.Text)
	case VerbInvestigate:
		res, err = g.Investigate(ctx, sessionID)
	case VerbWait:
		res, err = g.Wait(ctx, sessionID)
	}
	if err != nil {
		return false, r.report(err)
	}
	r.write(res.Summary)

	after, err := g.State(ctx, sessionID)
	if err != nil {
		return false, err
	}
	if after.Result != nil {
		r.write(resultText(after.Result))
		return true, nil
	}
	return false, nil
}

// report shows a recoverable error to the player and returns the rest.
func (r *Runner) report(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	r.Logger.Debug("command failed", "err", err)
	r.write("Error: " + err.Error())
	return nil
}

func (r *Runner) write(markdown string) {
	out := markdown
	if r.Renderer != nil {
		if rendered, err := r.Renderer(markdown); err == nil {
			out = rendered
		}
	}
	fmt.Fprintln(r.Output, strings.TrimSpace(out))
}
