// Package clues implements the clue ledger and its difficulty-gated reveal policy.
//
// The Ledger is the sole authority for the discovered transition: a clue moves
// from undiscovered to discovered exactly once and never back. The RevealPolicy
// decides when a qualifying action makes a clue eligible; HARD clues are only
// revealed through an explicit HardRule supplied by the caller.
package clues
