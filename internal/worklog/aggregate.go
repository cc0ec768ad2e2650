package worklog

import (
	"time"

	"github.com/Tiliavir/tempoit/internal/model"
)

// Batch is the ordered set of worklogs presented for a single run.
type Batch struct {
	Items []model.PendingUpload
	Total time.Duration
}

// Empty reports whether there is nothing to upload.
func (b Batch) Empty() bool {
	return len(b.Items) == 0
}

// Aggregate builds one PendingUpload per WorkUnit, keeping the input order.
// Units for the same ticket stay separate lines; they only add up in Total.
func Aggregate(units []model.WorkUnit) Batch {
	b := Batch{Items: make([]model.PendingUpload, 0, len(units))}
	for i, u := range units {
		b.Items = append(b.Items, model.PendingUpload{
			Ordinal:     i + 1,
			EntryID:     u.EntryID,
			Ticket:      u.Ticket,
			Start:       u.Start,
			Duration:    u.Duration,
			Description: u.Description,
		})
		b.Total += u.Duration
	}
	return b
}
