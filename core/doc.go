// Package core defines the shared data model and external seams of noteflow:
// conversation messages, reasoning run state (steps, actions, observations),
// dispatch selections, and the interfaces consumed by the orchestration
// layers (SubAgent, ToolExecutor, LLM-agnostic progress + retrieval seams).
//
// The package deliberately contains no behavior beyond invariant-preserving
// mutators on ReasoningContext; concrete engines, dispatchers and stores live
// in their own packages and depend on core, never the other way around.
package core
