package logsync

import "github.com/Tiliavir/tempoit/internal/worklog"

// State is where an entry stands in the upload lifecycle.
type State int

const (
	// Pending entries are waiting to be uploaded.
	Pending State = iota
	// Logged entries have been uploaded and must never be uploaded again.
	Logged
)

// ScopeTag marks entries as belonging to the tracked organisation. It is
// required alongside the Pending tag and is never touched.
const ScopeTag = "oc"

// Tag returns the tracker tag that encodes s.
func (s State) Tag() string {
	switch s {
	case Logged:
		return "logged"
	default:
		return "log"
	}
}

func (s State) String() string {
	if s == Logged {
		return "logged"
	}
	return "pending"
}

// FilterPolicy selects entries in the Pending state.
func FilterPolicy() worklog.Policy {
	return worklog.Policy{
		Required: []string{ScopeTag, Pending.Tag()},
		Logged:   Logged.Tag(),
	}
}
