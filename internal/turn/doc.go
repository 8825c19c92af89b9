/*
Package turn implements the turn resolution engine.

A turn runs in four strict phases:

 1. The player action is resolved synchronously against the world, the clue
    ledger and the knowledge partition.
 2. Every other living character is grouped by its current location.
 3. Each location group is resolved as one concurrent unit. Inside a group,
    characters are resolved one after another and each decision sees the events
    produced earlier in the same group this turn. A failing character degrades
    to WAIT without affecting anyone else.
 4. The actions are compiled into events tagged with their visibility to the
    player, plus a narrative summary.

Mutations coming back from concurrent groups are applied under a single
session-wide lock.
*/
package turn
