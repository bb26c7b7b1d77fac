// Package memory holds the conversation log a single agent run submits to its planner.
//
// Invariants:
//   - Turns are append-only; nothing is removed or reordered.
//   - A tool result turn answers exactly one request of the most recent assistant turn,
//     and every request is answered at most once.
//   - A Memory has a single writer (the loop that owns it).
//
// Transcripts can be written to and read from disk (JSON or YAML) for inspection;
// the loop itself never reloads them.
package memory
