/*
Package scenario defines the static murder-mystery content bound once per session.

A Scenario is produced by a generator (an LLM adapter, or a pre-authored file) and
carries the murder facts, the locations with their directed edges, the clue
definitions and the private knowledge of every NPC. The engine treats a bound
scenario as already validated; Validate exists for generators and tooling.
*/
package scenario
