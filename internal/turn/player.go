package turn

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/aretw0/whodunit/pkg/domain"
	"github.com/aretw0/whodunit/pkg/ports"
)

// Player-facing messages.
const (
	msgCantReach      = "You can't reach that location from here."
	msgNowhere        = "You need to be at a location to investigate."
	msgNothingNew     = "*You search the area carefully but find nothing new.*"
	msgWait           = "*You wait and observe your surroundings.*"
	msgNoOneElseHere  = "There's no one else here."
	msgNoOneNamedFmt  = "There's no one named %s here."
	msgNotHereFmt     = "%s isn't here. They're somewhere else."
	msgBeyondFmt      = "%s is beyond answering questions now."
	msgNoAnswerFmt    = "%s doesn't seem to hear you."
	msgClueFoundFmt   = "**Clue discovered:** %s"
	msgSearchingFmt   = "You search **%s** carefully."
	msgMovedFmt       = "You move to **%s**."
	msgPresentHereFmt = "Present here: %s"
	msgApproachFmt    = "*%s approaches %s.*"
	msgGreeting       = "Hello."
)

func (e *Engine) resolvePlayer(ctx context.Context, turn int, action domain.PlayerAction, result *domain.TurnResult) string {
	switch action.Type {
	case domain.ActionMove:
		return e.playerMove(action.Target)
	case domain.ActionTalk:
		return e.playerTalk(ctx, turn, action.Target, action.Message, result)
	case domain.ActionInvestigate:
		return e.playerInvestigate(ctx, turn, result)
	case domain.ActionWait:
		return msgWait
	case domain.ActionAccuse:
		return ""
	default:
		return ""
	}
}

func (e *Engine) playerMove(target string) string {
	id, ok := e.world.Lookup(target)
	if !ok {
		return msgCantReach
	}
	from, _ := e.world.LocationOf(e.player.Name)
	if !e.world.Move(e.player.Name, id) {
		return msgCantReach
	}

	loc, _ := e.world.Location(id)
	present := others(loc.Occupants, e.player.Name)
	for _, npc := range present {
		e.knowledge.RecordWitnessedEvent(npc, fmt.Sprintf("%s arrived.", e.player.Name))
	}
	if from != "" && from != id {
		for _, npc := range others(e.world.Occupants(from), e.player.Name) {
			e.knowledge.RecordWitnessedEvent(npc, fmt.Sprintf("%s left toward %s.", e.player.Name, loc.Name))
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, msgMovedFmt, loc.Name)
	if loc.Description != "" {
		sb.WriteString("\n" + loc.Description)
	}
	sb.WriteString("\n")
	if len(present) == 0 {
		sb.WriteString(msgNoOneElseHere)
	} else {
		fmt.Fprintf(&sb, msgPresentHereFmt, strings.Join(present, ", "))
	}
	return sb.String()
}

func (e *Engine) playerTalk(ctx context.Context, turn int, target, message string, result *domain.TurnResult) string {
	npc, ok := e.character(target)
	if !ok {
		return fmt.Sprintf(msgNoOneNamedFmt, target)
	}
	if npc.Role == domain.RoleVictim {
		return fmt.Sprintf(msgBeyondFmt, npc.Name)
	}

	here, placed := e.world.LocationOf(e.player.Name)
	there, _ := e.world.LocationOf(npc.Name)
	if !placed || here != there {
		return fmt.Sprintf(msgNotHereFmt, npc.Name)
	}

	// A bare TALK opens the conversation with a greeting.
	prompt, said := message, message
	if strings.TrimSpace(message) == "" {
		prompt = fmt.Sprintf(msgApproachFmt, e.player.Name, npc.Name)
		said = msgGreeting
	}

	loc, _ := e.world.Location(here)
	history := e.History(npc.Name)
	req := ports.DialogueRequest{
		Character: npc,
		Knowledge: e.knowledge.Context(npc.Name),
		Location:  loc,
		CoPresent: others(loc.Occupants, npc.Name),
		Player:    e.player.Name,
		History:   history,
		Message:   prompt,
		Turn:      turn,
	}

	reply, err := e.converse(ctx, req)
	if err != nil {
		e.oracleFailed(ctx, turn, npc.Name, err)
		return fmt.Sprintf(msgNoAnswerFmt, npc.Name)
	}

	e.mu.Lock()
	e.histories[npc.Name] = append(e.histories[npc.Name],
		ports.Exchange{Role: ports.RolePlayer, Content: said},
		ports.Exchange{Role: ports.RoleNPC, Content: reply},
	)
	entries := len(e.histories[npc.Name])
	e.mu.Unlock()

	e.knowledge.RecordConversation(npc.Name, e.player.Name, fmt.Sprintf("%s said: %q", e.player.Name, said))
	for _, bystander := range others(loc.Occupants, npc.Name, e.player.Name) {
		e.knowledge.RecordWitnessedEvent(bystander, fmt.Sprintf("%s spoke with %s.", e.player.Name, npc.Name))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "**%s:** %s", npc.Name, reply)
	found := e.ledger.Discovered()
	for _, c := range e.ledger.FromNPC(npc.Name) {
		if !e.policy.OnTalk(c, entries, found) {
			continue
		}
		if got, ok := e.discover(ctx, turn, c.ID); ok {
			result.CluesDiscovered = append(result.CluesDiscovered, got.ID)
			sb.WriteString("\n\n" + fmt.Sprintf(msgClueFoundFmt, got.Description))
		}
	}
	return sb.String()
}

// converse calls the oracle with a bounded timeout and contains panics.
func (e *Engine) converse(ctx context.Context, req ports.DialogueRequest) (reply string, err error) {
	ctx, span := e.tracer.Start(ctx, "oracle.converse")
	span.SetAttributes(attribute.String("npc", req.Character.Name))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", domain.ErrOracleFailure, r)
		}
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	octx, cancel := e.oracleContext(ctx)
	defer cancel()

	reply, err = e.oracle.Converse(octx, req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrOracleFailure, err)
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return "", fmt.Errorf("%w: empty reply", domain.ErrOracleFailure)
	}
	return reply, nil
}

func (e *Engine) playerInvestigate(ctx context.Context, turn int, result *domain.TurnResult) string {
	here, ok := e.world.LocationOf(e.player.Name)
	if !ok {
		return msgNowhere
	}

	for _, npc := range others(e.world.Occupants(here), e.player.Name) {
		e.knowledge.RecordWitnessedEvent(npc, fmt.Sprintf("%s searched the room.", e.player.Name))
	}

	var lines []string
	for _, c := range e.ledger.AtLocation(here) {
		if !e.policy.OnInvestigate(c, e.ledger.Discovered()) {
			continue
		}
		if got, ok := e.discover(ctx, turn, c.ID); ok {
			result.CluesDiscovered = append(result.CluesDiscovered, got.ID)
			lines = append(lines, fmt.Sprintf(msgClueFoundFmt, got.Description))
		}
	}
	if len(lines) == 0 {
		return msgNothingNew
	}
	return fmt.Sprintf(msgSearchingFmt, e.locationName(here)) + "\n\n" + strings.Join(lines, "\n")
}
