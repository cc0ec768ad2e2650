// Package worklog turns raw tracker entries into the worklog lines that get
// uploaded: it filters them by tag policy, extracts ticket keys from
// annotations and computes the batch total.
package worklog

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/Tiliavir/tempoit/internal/model"
)

// ticketPattern matches Jira issue keys such as "SE-3197".
var ticketPattern = regexp.MustCompile(`^[A-Z]+-[0-9]+$`)

// Reason explains why a tagged entry was not turned into a worklog.
type Reason string

const (
	ReasonOpen          Reason = "open"
	ReasonNoAnnotation  Reason = "no annotation"
	ReasonNoTicket      Reason = "no ticket key"
	ReasonEmptyDuration Reason = "non-positive duration"
	ReasonLogged        Reason = "already logged"
)

// Warning reports an entry that was tagged for logging but rejected.
type Warning struct {
	EntryID string
	Reason  Reason
	Detail  string
}

func (w Warning) String() string {
	if w.Detail == "" {
		return fmt.Sprintf("%s: %s", w.EntryID, w.Reason)
	}
	return fmt.Sprintf("%s: %s (%s)", w.EntryID, w.Reason, w.Detail)
}

// Policy selects which entries are addressed to us.
type Policy struct {
	// Required lists tags an entry must all carry to be considered.
	Required []string
	// Logged is the tag marking an entry as already uploaded.
	Logged string
}

// Parse filters entries by p and extracts a WorkUnit from every entry that
// qualifies. Entries missing a required tag are skipped silently; entries
// that carry the tags but cannot be logged are returned as warnings. The
// relative order of entries is preserved.
func Parse(entries []model.RawEntry, p Policy) ([]model.WorkUnit, []Warning) {
	var units []model.WorkUnit
	var warnings []Warning
	for _, e := range entries {
		if !p.addressed(e) {
			continue
		}
		u, w := parseEntry(e, p)
		if w != nil {
			warnings = append(warnings, *w)
			continue
		}
		units = append(units, u)
	}
	return units, warnings
}

func (p Policy) addressed(e model.RawEntry) bool {
	for _, tag := range p.Required {
		if !e.HasTag(tag) {
			return false
		}
	}
	return true
}

func parseEntry(e model.RawEntry, p Policy) (model.WorkUnit, *Warning) {
	reject := func(r Reason, detail string) (model.WorkUnit, *Warning) {
		return model.WorkUnit{}, &Warning{EntryID: e.ID, Reason: r, Detail: detail}
	}

	if p.Logged != "" && e.HasTag(p.Logged) {
		return reject(ReasonLogged, "remove the pending tag by hand")
	}
	if e.End == nil {
		return reject(ReasonOpen, "")
	}
	if e.Annotation == nil || strings.TrimSpace(*e.Annotation) == "" {
		return reject(ReasonNoAnnotation, "")
	}

	ticket, description := SplitAnnotation(*e.Annotation)
	if !ticketPattern.MatchString(ticket) {
		return reject(ReasonNoTicket, fmt.Sprintf("%q", ticket))
	}

	d := e.End.Sub(e.Start)
	if d <= 0 {
		return reject(ReasonEmptyDuration, d.String())
	}

	return model.WorkUnit{
		EntryID:     e.ID,
		Ticket:      ticket,
		Start:       e.Start,
		Duration:    d,
		Description: description,
	}, nil
}

// SplitAnnotation returns the first whitespace-delimited token of ann and the
// whitespace-trimmed remainder.
func SplitAnnotation(ann string) (token, rest string) {
	ann = strings.TrimLeftFunc(ann, unicode.IsSpace)
	i := strings.IndexFunc(ann, unicode.IsSpace)
	if i < 0 {
		return ann, ""
	}
	return ann[:i], strings.TrimSpace(ann[i:])
}
