package domain

// PositionStatus represents the lifecycle status of a margin position.
type PositionStatus string

const (
	StatusOpen   PositionStatus = "Open"
	StatusClosed PositionStatus = "Closed"
)

// IsValid reports whether s is one of the known statuses.
func (s PositionStatus) IsValid() bool {
	return s == StatusOpen || s == StatusClosed
}

// IsTerminal reports whether no transition can leave s.
func (s PositionStatus) IsTerminal() bool {
	return s == StatusClosed
}

// CanTransitionTo validates lifecycle transitions.
// Open may stay open (updates) or close; Closed may only be re-persisted as Closed.
func (s PositionStatus) CanTransitionTo(next PositionStatus) bool {
	switch s {
	case StatusOpen:
		return next == StatusOpen || next == StatusClosed
	case StatusClosed:
		return next == StatusClosed
	default:
		return false
	}
}
