package turn

import (
	"fmt"
	"strings"

	"github.com/aretw0/whodunit/pkg/domain"
)

// compile turns agent actions into events and writes the summary.
// An event is visible when the player stands where it happened or, for a move,
// where the agent arrived. A.Location is where the agent stood when it acted,
// so the player sees an agent leave their room as well as enter it, and a
// departure is described by its destination ("A moves to The Hall.").
func (e *Engine) compile(result *domain.TurnResult, actions []domain.AgentAction, playerLoc string) {
	result.AgentActions = actions
	result.Events = make([]domain.TurnEvent, 0, len(actions))
	for _, a := range actions {
		involved := []string{a.Actor}
		if a.Type == domain.ActionTalk && a.Target != "" {
			involved = append(involved, a.Target)
		}
		result.Events = append(result.Events, domain.TurnEvent{
			Description:     e.describe(a),
			Location:        a.Location,
			Involved:        involved,
			VisibleToPlayer: playerLoc != "" && (a.Location == playerLoc || a.Destination == playerLoc),
		})
	}
	result.Summary = summarize(result)
}

func (e *Engine) describe(a domain.AgentAction) string {
	var parts []string
	if a.Dialogue != "" {
		parts = append(parts, fmt.Sprintf("%s: \"%s\"", a.Actor, a.Dialogue))
	}

	switch a.Type {
	case domain.ActionMove:
		parts = append(parts, fmt.Sprintf("%s moves to %s.", a.Actor, e.locationName(a.Destination)))
	case domain.ActionInvestigate:
		parts = append(parts, fmt.Sprintf("%s looks around carefully.", a.Actor))
	case domain.ActionTalk:
		if a.Dialogue == "" {
			if a.Target != "" {
				parts = append(parts, fmt.Sprintf("%s talks to %s.", a.Actor, a.Target))
			} else {
				parts = append(parts, fmt.Sprintf("%s mutters to no one in particular.", a.Actor))
			}
		}
	case domain.ActionWait, domain.ActionAccuse:
		if a.Dialogue == "" {
			parts = append(parts, fmt.Sprintf("%s waits.", a.Actor))
		}
	}
	return strings.Join(parts, " ")
}

func summarize(r *domain.TurnResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "--- Turn %d ---\n\n", r.Turn)
	fmt.Fprintf(&sb, "**Your action:** %s\n", r.PlayerResponse)

	if visible := r.VisibleEvents(); len(visible) > 0 {
		sb.WriteString("\n**What you observe:**\n")
		for _, ev := range visible {
			fmt.Fprintf(&sb, "- %s\n", ev.Description)
		}
	}
	if r.HasHiddenActivity() {
		fmt.Fprintf(&sb, "\n*%s*\n", domain.AmbientHint)
	}
	if n := len(r.CluesDiscovered); n > 0 {
		fmt.Fprintf(&sb, "\n**New clues found:** %d\n", n)
	}
	return strings.TrimSuffix(sb.String(), "\n")
}
