/*
Package runner drives a game session from a line-oriented terminal and
guards player free text at the transport boundary.

The Runner reads commands such as "move library" or "talk Graves Where were
you at ten?", submits them to a Game (usually *whodunit.Engine) and writes
the turn summaries back, optionally through a markdown renderer.

# Usage

	r := runner.NewRunner(
		runner.WithRenderer(tui.NewRenderer()),
		runner.WithLogger(logger),
	)
	if err := r.Run(ctx, engine, sessionID); err != nil {
		log.Fatal(err)
	}

SanitizeInput is shared with the HTTP and MCP adapters.
*/
package runner
