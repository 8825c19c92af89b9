/*
Package domain contains the core types of the whodunit engine.

It defines the entities of a murder-mystery session: characters and their roles,
locations, clues, the actions the player and the agents take each turn, and the
compiled result of a turn. This package is kept pure and free of I/O, following
Hexagonal Architecture principles.

# Key Entities

  - Character: A named participant with a Role, optionally carrying a Profile.
  - Location: A node of the location graph with directed edges and occupants.
  - Clue: A piece of evidence bound to a location or an NPC, discovered at most once.
  - PlayerAction / AgentAction: What someone does in a turn (MOVE, TALK, INVESTIGATE, WAIT, ACCUSE).
  - TurnResult: The compiled outcome of one turn, with per-event visibility.
  - Phase / Outcome: The game state machine's states and terminal outcomes.
*/
package domain
