package checkout

// Status is the phase of a checkout attempt.
type Status int32

const (
	StatusIdle Status = iota
	StatusValidating
	StatusCommitting
	StatusCompleted
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusValidating:
		return "validating"
	case StatusCommitting:
		return "committing"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// InProgress reports whether an attempt is running.
func (s Status) InProgress() bool {
	return s == StatusValidating || s == StatusCommitting
}

// CanTransitionTo reports whether next may follow s. An attempt in progress
// only moves forward; it cannot be reset to Idle.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusIdle, StatusCompleted, StatusFailed:
		return next == StatusValidating || next == StatusIdle
	case StatusValidating:
		return next == StatusCommitting || next == StatusFailed
	case StatusCommitting:
		return next == StatusCompleted || next == StatusFailed
	default:
		return false
	}
}
