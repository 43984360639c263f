package domain

// State is a dispatcher state.
type State int

const (
	StateIdle State = iota
	StateMatching
	StateSelecting
	StateExecuting
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateMatching:
		return "matching"
	case StateSelecting:
		return "selecting"
	case StateExecuting:
		return "executing"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}
