/*
Package ports defines the driven ports (interfaces) for the whodunit engine.

These interfaces decouple the turn resolution core from its external collaborators,
allowing the engine to run against an LLM, a scripted oracle in tests, or a
pre-authored scenario file.

# Key Interfaces

  - DecisionOracle: Decides what an agent does each turn and voices NPC dialogue.
  - ScenarioGenerator: Produces the scenario bound to a session.
  - EndingNarrator: Optionally narrates the ending after an accusation.
  - Recall: Optional long-term memory queried when assembling an agent's context.
  - DistributedLocker: Coordinates single-turn-in-flight across replicas.
  - SnapshotStore: Publishes the latest player-visible snapshot of each session.
*/
package ports
