/*
Package game implements the game state machine of a whodunit session.

A Session moves through SETUP, SCENARIO_GEN, PLAYING, ACCUSATION, RESULTS and
FINISHED. Turn-advancing calls are only accepted while PLAYING; anything else
fails with a *domain.PhaseError wrapping domain.ErrInvalidPhase. A session
processes one call at a time.

Binding a scenario happens exactly once. It assigns roles (reassigning the
killer to the player when the player plays the killer), places everyone on the
location graph and seeds the knowledge partition and the clue ledger.
*/
package game
