package logsync

import (
	"context"
	"fmt"

	"github.com/Tiliavir/tempoit/internal/model"
)

// Tagger edits the tag set of a single tracker entry.
type Tagger interface {
	Tag(ctx context.Context, id string, tags ...string) error
	Untag(ctx context.Context, id string, tags ...string) error
}

// MarkError records an upload that succeeded but whose entry could not be
// moved to the Logged state. Left alone, the entry is uploaded again on the
// next run.
type MarkError struct {
	Upload model.PendingUpload
	Err    error
}

func (e *MarkError) Error() string {
	return fmt.Sprintf("%s uploaded but %s not marked: %v", e.Upload.Ticket, e.Upload.EntryID, e.Err)
}

func (e *MarkError) Unwrap() error {
	return e.Err
}

// Mark moves the entry id from Pending to Logged. The Logged tag is added
// before the Pending tag is removed, so an interruption leaves an entry that
// the filter already treats as logged. Marking a logged entry again is a
// no-op.
func Mark(ctx context.Context, store Tagger, id string) error {
	if err := store.Tag(ctx, id, Logged.Tag()); err != nil {
		return fmt.Errorf("tagging %s %q: %w", id, Logged.Tag(), err)
	}
	if err := store.Untag(ctx, id, Pending.Tag()); err != nil {
		return fmt.Errorf("untagging %s %q: %w", id, Pending.Tag(), err)
	}
	return nil
}

// MarkResult marks the entry behind a successful upload. Failed uploads are
// left untouched and yield nil.
func MarkResult(ctx context.Context, store Tagger, r model.UploadResult) *MarkError {
	if !r.Succeeded() {
		return nil
	}
	if err := Mark(ctx, store, r.Upload.EntryID); err != nil {
		return &MarkError{Upload: r.Upload, Err: err}
	}
	return nil
}
