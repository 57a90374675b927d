package jobs

// State is the lifecycle of the runner's current run.
type State int

const (
	Idle State = iota
	Running
	Cancelling
	Cancelled
	Completed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Cancelling:
		return "cancelling"
	case Cancelled:
		return "cancelled"
	case Completed:
		return "completed"
	default:
		return "unknown"
	}
}

// Active reports whether a worker may still be emitting events.
func (s State) Active() bool {
	return s == Running || s == Cancelling
}
