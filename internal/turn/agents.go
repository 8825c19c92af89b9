package turn

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/aretw0/whodunit/internal/world"
	"github.com/aretw0/whodunit/pkg/domain"
	"github.com/aretw0/whodunit/pkg/ports"
)

var errMalformedDecision = errors.New("malformed decision")

// resolveGroups fans out one task per location group. Tasks never return errors:
// failures are contained per character, so Wait only joins.
func (e *Engine) resolveGroups(ctx context.Context, turn int, groups []world.Group) []domain.AgentAction {
	perGroup := make([][]domain.AgentAction, len(groups))

	var g errgroup.Group
	if e.maxParallel > 0 {
		g.SetLimit(e.maxParallel)
	}
	for i, grp := range groups {
		g.Go(func() error {
			perGroup[i] = e.resolveGroup(ctx, turn, grp)
			return nil
		})
	}
	_ = g.Wait()

	var out []domain.AgentAction
	for _, actions := range perGroup {
		out = append(out, actions...)
	}
	return out
}

// resolveGroup resolves the members of one location in order. Each member sees
// the events produced by the members before it.
func (e *Engine) resolveGroup(ctx context.Context, turn int, grp world.Group) []domain.AgentAction {
	ctx, span := e.tracer.Start(ctx, "turn.group", trace.WithAttributes(
		attribute.String("location", grp.Location),
		attribute.StringSlice("members", grp.Members),
	))
	defer span.End()

	var recent []string
	out := make([]domain.AgentAction, 0, len(grp.Members))
	for _, name := range grp.Members {
		start := time.Now()
		action, events := e.resolveCharacter(ctx, turn, grp.Location, name, recent)
		recent = append(recent, events...)
		out = append(out, action)

		if e.hooks.OnAgentResolved != nil {
			e.hooks.OnAgentResolved(ctx, &domain.AgentEvent{
				SessionID: e.sessionID,
				Turn:      turn,
				Action:    action,
				Duration:  time.Since(start),
			})
		}
	}
	return out
}

// resolveCharacter is the failure boundary of one character: any error or panic
// yields a WAIT with no dialogue and no events.
func (e *Engine) resolveCharacter(ctx context.Context, turn int, location, name string, recent []string) (action domain.AgentAction, events []string) {
	ctx, span := e.tracer.Start(ctx, "turn.agent", trace.WithAttributes(attribute.String("npc", name)))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%w: panic: %v", domain.ErrOracleFailure, r)
			span.SetStatus(codes.Error, err.Error())
			e.oracleFailed(ctx, turn, name, err)
			action, events = domain.Wait(name, location), nil
		}
	}()

	decision, err := e.decide(ctx, turn, location, name, recent)
	if err == nil {
		action, err = e.interpret(name, location, decision)
	}
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		e.oracleFailed(ctx, turn, name, err)
		return domain.Wait(name, location), nil
	}

	action, events = e.apply(action)
	span.SetAttributes(attribute.String("action", string(action.Type)))
	return action, events
}

func (e *Engine) decide(ctx context.Context, turn int, location, name string, recent []string) (ports.Decision, error) {
	character, ok := e.characters[name]
	if !ok {
		return ports.Decision{}, fmt.Errorf("character %q: %w", name, domain.ErrNotFound)
	}
	loc, ok := e.world.Location(location)
	if !ok {
		return ports.Decision{}, fmt.Errorf("location %q: %w", location, domain.ErrNotFound)
	}

	knowledgeBlock := e.knowledge.Context(name)
	if memories := e.knowledge.Recollect(ctx, name, loc.Name); len(memories) > 0 {
		knowledgeBlock += "\nYou remember: " + strings.Join(memories, "; ")
	}

	req := ports.DecisionRequest{
		Character:    character,
		Knowledge:    knowledgeBlock,
		Location:     loc,
		CoPresent:    others(loc.Occupants, name),
		RecentEvents: slices.Clone(recent),
		Adjacent:     e.world.Adjacent(location),
		Turn:         turn,
	}

	octx, cancel := e.oracleContext(ctx)
	defer cancel()

	decision, err := e.oracle.Decide(octx, req)
	if err != nil {
		return ports.Decision{}, fmt.Errorf("%w: %w", domain.ErrOracleFailure, err)
	}
	return decision, nil
}

// interpret validates the decision against the world. Actions an agent may not
// take, and moves to unknown locations, are rejected.
func (e *Engine) interpret(name, location string, d ports.Decision) (domain.AgentAction, error) {
	action := domain.AgentAction{
		Actor:           name,
		Type:            d.Action,
		Dialogue:        strings.TrimSpace(d.Dialogue),
		InternalThought: strings.TrimSpace(d.InternalThought),
		Location:        location,
	}

	switch d.Action {
	case domain.ActionMove:
		id, ok := e.world.Lookup(d.Target)
		if !ok {
			return domain.AgentAction{}, fmt.Errorf("%w: move to unknown location %q", errMalformedDecision, d.Target)
		}
		action.Target = id
	case domain.ActionTalk:
		if c, ok := e.character(d.Target); ok && c.Name != name {
			action.Target = c.Name
		} else if strings.EqualFold(strings.TrimSpace(d.Target), e.player.Name) {
			action.Target = e.player.Name
		}
	case domain.ActionInvestigate, domain.ActionWait:
	case domain.ActionAccuse:
		return domain.AgentAction{}, fmt.Errorf("%w: agents cannot accuse", errMalformedDecision)
	default:
		return domain.AgentAction{}, fmt.Errorf("%w: unknown action %q", errMalformedDecision, d.Action)
	}
	return action, nil
}

// apply commits the action to the shared managers and returns the events the
// rest of the group perceives.
func (e *Engine) apply(action domain.AgentAction) (domain.AgentAction, []string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var events []string
	if action.Dialogue != "" {
		events = append(events, fmt.Sprintf("%s said: \"%s\"", action.Actor, action.Dialogue))
	}

	switch action.Type {
	case domain.ActionMove:
		if action.Target == action.Location || !e.world.Move(action.Actor, action.Target) {
			action.Type = domain.ActionWait
			action.Target = ""
			action.Degraded = true
			break
		}
		action.Destination = action.Target
		name := e.locationName(action.Target)
		events = append(events, fmt.Sprintf("%s left toward %s.", action.Actor, name))
		for _, w := range others(e.world.Occupants(action.Target), action.Actor, e.player.Name) {
			e.knowledge.RecordWitnessedEvent(w, fmt.Sprintf("%s arrived from %s.", action.Actor, e.locationName(action.Location)))
		}
	case domain.ActionTalk:
		if action.Target != "" && action.Dialogue != "" {
			there, _ := e.world.LocationOf(action.Target)
			if there == action.Location {
				e.knowledge.RecordInformation(action.Target, fmt.Sprintf("%s told you: %s", action.Actor, action.Dialogue))
			}
		}
	case domain.ActionInvestigate:
		events = append(events, fmt.Sprintf("%s searched the room.", action.Actor))
	case domain.ActionWait, domain.ActionAccuse:
	}

	for _, w := range others(e.world.Occupants(action.Location), action.Actor, e.player.Name) {
		for _, ev := range events {
			e.knowledge.RecordWitnessedEvent(w, ev)
		}
	}
	return action, events
}
