package runner

// State is a phase of the loop.
type State int

const (
	StateSeeded State = iota
	StatePlanning
	StateExecuting
	StateAnswered
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateSeeded:
		return "Seeded"
	case StatePlanning:
		return "Planning"
	case StateExecuting:
		return "Executing"
	case StateAnswered:
		return "Answered"
	case StateAborted:
		return "Aborted"
	}
	return "Unknown"
}

// Terminal reports whether s is Answered or Aborted.
func (s State) Terminal() bool { return s == StateAnswered || s == StateAborted }

// Reason explains an Aborted run.
type Reason int

const (
	ReasonNone Reason = iota
	// ReasonMaxIterationsExceeded: the planner still asked for tools after the last permitted round trip.
	ReasonMaxIterationsExceeded
	// ReasonPlannerUnavailable: the model call failed or timed out.
	ReasonPlannerUnavailable
	// ReasonCancelled: the caller's context was cancelled.
	ReasonCancelled
	// ReasonMemoryInvariant: a turn was rejected by memory.
	ReasonMemoryInvariant
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return ""
	case ReasonMaxIterationsExceeded:
		return "MaxIterationsExceeded"
	case ReasonPlannerUnavailable:
		return "PlannerUnavailable"
	case ReasonCancelled:
		return "Cancelled"
	case ReasonMemoryInvariant:
		return "MemoryInvariant"
	}
	return "Unknown"
}
