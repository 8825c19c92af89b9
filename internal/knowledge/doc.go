/*
Package knowledge implements the per-character knowledge partition.

Each NPC owns a State seeded from the scenario: a public alibi, its true
whereabouts, secrets, attitude and suspicions. During play a State only grows:
witnessed events, received information and conversations are appended, never
retracted. Context assembles the block an agent is allowed to reason over; it
never reads another character's State.
*/
package knowledge
