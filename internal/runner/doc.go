// Package runner drives one agent run: it alternates planning and tool execution over a
// single conversation memory until the planner answers or the run is aborted.
//
// States:
//
//	Seeded -> Planning -> (Executing -> Planning)* -> Answered | Aborted
//
// Invariants:
//   - Every request of an Assistant turn is answered by exactly one ToolResult turn, in
//     request order, before the next planning call.
//   - At most maxIterations Executing phases and maxIterations Planning phases run. The
//     run aborts once the last Executing phase is done and another plan would be needed.
//     WithFinalizeWithoutTools adds a single tool-less Planning phase at that point.
//   - A Loop runs once; Answered and Aborted are final.
package runner
