package timew

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/Tiliavir/tempoit/internal/model"
)

// timeLayout is the UTC timestamp format used by `timew export`.
const timeLayout = "20060102T150405Z"

// interval mirrors one element of the `timew export` JSON array.
type interval struct {
	ID         int      `json:"id"`
	Start      string   `json:"start"`
	End        string   `json:"end"`
	Tags       []string `json:"tags"`
	Annotation *string  `json:"annotation"`
}

// ParseExport decodes the output of `timew export` into raw entries, in the
// order timew reported them.
func ParseExport(data []byte) ([]model.RawEntry, error) {
	var intervals []interval
	if err := json.Unmarshal(data, &intervals); err != nil {
		return nil, fmt.Errorf("decoding timew export: %w", err)
	}

	entries := make([]model.RawEntry, 0, len(intervals))
	for _, iv := range intervals {
		e, err := iv.toEntry()
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (iv interval) toEntry() (model.RawEntry, error) {
	if iv.ID <= 0 {
		return model.RawEntry{}, fmt.Errorf("timew export: interval starting %q has no id (timew 1.1 or newer is required)", iv.Start)
	}
	id := "@" + strconv.Itoa(iv.ID)

	start, err := time.Parse(timeLayout, iv.Start)
	if err != nil {
		return model.RawEntry{}, fmt.Errorf("timew export: %s: parsing start: %w", id, err)
	}

	e := model.RawEntry{
		ID:         id,
		Start:      start,
		Tags:       dedupe(iv.Tags),
		Annotation: iv.Annotation,
	}
	if iv.End != "" {
		end, err := time.Parse(timeLayout, iv.End)
		if err != nil {
			return model.RawEntry{}, fmt.Errorf("timew export: %s: parsing end: %w", id, err)
		}
		e.End = &end
	}
	return e, nil
}

func dedupe(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
