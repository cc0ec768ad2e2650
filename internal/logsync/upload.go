package logsync

import (
	"context"

	"github.com/Tiliavir/tempoit/internal/model"
	"github.com/Tiliavir/tempoit/internal/tempo"
)

// UploadHooks observe the progress of Upload. Both are optional.
type UploadHooks struct {
	// Before runs right before an item is submitted.
	Before func(model.PendingUpload)
	// After runs as soon as an item's result is known, before the next
	// item is submitted.
	After func(model.UploadResult)
}

// Upload submits every item to svc in order and returns one result per item.
// A failed item does not stop the remaining ones.
func Upload(ctx context.Context, svc tempo.Service, items []model.PendingUpload, hooks UploadHooks) []model.UploadResult {
	results := make([]model.UploadResult, 0, len(items))
	for _, item := range items {
		if hooks.Before != nil {
			hooks.Before(item)
		}
		id, err := svc.CreateWorklog(ctx, toWorklog(item))
		r := model.UploadResult{Upload: item, RemoteID: id, Err: err}
		if hooks.After != nil {
			hooks.After(r)
		}
		results = append(results, r)
	}
	return results
}

func toWorklog(u model.PendingUpload) tempo.Worklog {
	return tempo.Worklog{
		Ticket:      u.Ticket,
		Start:       u.Start,
		Duration:    u.Duration,
		Description: u.Description,
	}
}
