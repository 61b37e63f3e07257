package catalog

import "time"

// EOLSchedule reports the end-of-life date for a Node.js major line.
// *manifest.Manifest satisfies it.
type EOLSchedule interface {
	EndOfLife(major int) (time.Time, bool)
}

// SupportState classifies a version against the release schedule.
type SupportState int

const (
	SupportUnknown SupportState = iota // schedule has no entry for the line
	SupportActive
	SupportEnding // inside the warning window before end-of-life
	SupportEnded
)

func (s SupportState) String() string {
	switch s {
	case SupportActive:
		return "active"
	case SupportEnding:
		return "ending"
	case SupportEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// EOLWarningWindow is how far ahead of end-of-life a line is flagged.
const EOLWarningWindow = 90 * 24 * time.Hour

// EOLStatus classifies the version's major line against the schedule. A nil
// or incomplete schedule degrades to SupportUnknown, never an error.
func EOLStatus(v NodeVersion, sched EOLSchedule, now time.Time) SupportState {
	if sched == nil {
		return SupportUnknown
	}
	end, ok := sched.EndOfLife(v.Major)
	if !ok {
		return SupportUnknown
	}
	switch {
	case !now.Before(end):
		return SupportEnded
	case now.Add(EOLWarningWindow).After(end):
		return SupportEnding
	default:
		return SupportActive
	}
}
