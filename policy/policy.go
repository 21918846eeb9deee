package policy

import "time"

// Status is the inactivity classification of a single member.
type Status int

const (
	// Active members are safely inside the inactivity threshold.
	Active Status = iota
	// WarnDue members entered the warning band and have not been warned yet.
	WarnDue
	// AwaitingRemoval members are in the warning band with a warning already sent.
	AwaitingRemoval
	// RemovalDue members crossed the full inactivity threshold.
	RemovalDue
)

func (s Status) String() string {
	switch s {
	case Active:
		return "active"
	case WarnDue:
		return "warn_due"
	case AwaitingRemoval:
		return "awaiting_removal"
	case RemovalDue:
		return "removal_due"
	default:
		return "unknown"
	}
}

// AgeDays returns the whole days elapsed between lastSeen and now.
func AgeDays(now, lastSeen time.Time) int {
	return int(now.Sub(lastSeen).Hours() / 24)
}

// Classify places a member into an inactivity band. Boundary hits count as
// crossed (>=), so a member never falls back into a lower band as time
// advances. warned dedupes the warning inside one inactivity episode.
func Classify(now, lastSeen time.Time, warned bool, thresholdDays, warningLeadDays int) Status {
	age := AgeDays(now, lastSeen)

	switch {
	case age >= thresholdDays:
		return RemovalDue
	case age >= thresholdDays-warningLeadDays:
		if warned {
			return AwaitingRemoval
		}
		return WarnDue
	default:
		return Active
	}
}
