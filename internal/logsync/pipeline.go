// Package logsync runs the upload pipeline: it reads pending entries from the
// tracker, asks for confirmation, uploads one worklog per entry and marks
// every uploaded entry as logged.
package logsync

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/Tiliavir/tempoit/internal/display"
	"github.com/Tiliavir/tempoit/internal/logging"
	"github.com/Tiliavir/tempoit/internal/model"
	"github.com/Tiliavir/tempoit/internal/tempo"
	"github.com/Tiliavir/tempoit/internal/timecalc"
	"github.com/Tiliavir/tempoit/internal/worklog"
)

var (
	// ErrExport wraps failures to read entries from the tracker.
	ErrExport = errors.New("reading time entries")
	// ErrConnect wraps failures to reach the worklog service. No upload has
	// been attempted when it is returned.
	ErrConnect = errors.New("connecting to tempo")
)

// Store is the local time tracker.
type Store interface {
	Export(ctx context.Context, filter ...string) ([]model.RawEntry, error)
	Tagger
}

// Gate decides whether a batch gets uploaded.
type Gate interface {
	Confirm(b worklog.Batch) (bool, error)
}

// Connector opens the worklog service. It is only called once the batch has
// been confirmed, so declining never touches the network.
type Connector func(ctx context.Context) (tempo.Service, error)

// Pipeline wires the stages of a run together.
type Pipeline struct {
	Store   Store
	Gate    Gate
	Connect Connector
	Out     *display.Printer

	logger *logrus.Entry
}

// Report summarises a run.
type Report struct {
	Warnings  []worklog.Warning
	Batch     worklog.Batch
	Confirmed bool
	Uploaded  []model.UploadResult
	Failed    []model.UploadResult
	Unmarked  []*MarkError
}

// OK reports whether every confirmed worklog was uploaded and marked.
func (r Report) OK() bool {
	return len(r.Failed) == 0 && len(r.Unmarked) == 0
}

// Plan reads the tracker and builds the batch that would be uploaded. It
// never mutates anything.
func (p *Pipeline) Plan(ctx context.Context) (worklog.Batch, []worklog.Warning, error) {
	policy := FilterPolicy()
	entries, err := p.Store.Export(ctx, policy.Required...)
	if err != nil {
		return worklog.Batch{}, nil, fmt.Errorf("%w: %w", ErrExport, err)
	}
	units, warnings := worklog.Parse(entries, policy)
	p.log().WithFields(logrus.Fields{
		"entries":  len(entries),
		"accepted": len(units),
		"warnings": len(warnings),
	}).Debug("parsed entries")
	batch := worklog.Aggregate(units)
	p.log().WithField("total", timecalc.FormatDuration(batch.Total)).Debug("built batch")
	return batch, warnings, nil
}

// Run executes the whole pipeline. The returned error is non-nil only when
// the run stopped before uploading anything; per-entry failures are reported
// in the Report.
func (p *Pipeline) Run(ctx context.Context) (Report, error) {
	var report Report

	batch, warnings, err := p.Plan(ctx)
	if err != nil {
		return report, err
	}
	report.Batch = batch
	report.Warnings = warnings
	p.Out.Warnings(warnings)

	if batch.Empty() {
		p.Out.Batch(batch)
		return report, nil
	}
	ok, err := p.Gate.Confirm(batch)
	if err != nil {
		return report, fmt.Errorf("confirming upload: %w", err)
	}
	if !ok {
		p.Out.Printf("Canceled by user, aborting.")
		return report, nil
	}
	report.Confirmed = true

	svc, err := p.Connect(ctx)
	if err != nil {
		return report, fmt.Errorf("%w: %w", ErrConnect, err)
	}

	hooks := UploadHooks{
		Before: p.Out.Uploading,
		After: func(r model.UploadResult) {
			p.Out.Result(r)
			if !r.Succeeded() {
				p.log().WithError(r.Err).WithField("entry", r.Upload.EntryID).Debug("upload failed")
				return
			}
			if markErr := MarkResult(ctx, p.Store, r); markErr != nil {
				report.Unmarked = append(report.Unmarked, markErr)
				p.Out.MarkFailed(r.Upload, markErr.Err)
				return
			}
			p.log().WithFields(logrus.Fields{
				"entry":  r.Upload.EntryID,
				"remote": r.RemoteID,
			}).Debug("marked logged")
		},
	}
	for _, r := range Upload(ctx, svc, batch.Items, hooks) {
		if r.Succeeded() {
			report.Uploaded = append(report.Uploaded, r)
		} else {
			report.Failed = append(report.Failed, r)
		}
	}

	p.summarize(report)
	return report, nil
}

func (p *Pipeline) summarize(r Report) {
	p.Out.Printf("Uploaded %d of %d worklogs.", len(r.Uploaded), len(r.Batch.Items))
	if len(r.Failed) > 0 {
		p.Out.Printf("Some worklogs failed to upload. Please try again:")
		for _, f := range r.Failed {
			fmt.Fprintf(p.Out.Writer(), "   %s\n", display.Line(f.Upload))
			fmt.Fprintf(p.Out.Writer(), "      %v\n", f.Err)
		}
	}
	if len(r.Unmarked) > 0 {
		p.Out.Printf("Some uploaded worklogs could not be marked as logged:")
		for _, m := range r.Unmarked {
			fmt.Fprintf(p.Out.Writer(), "   %s\n", display.MarkFailedMessage(m.Upload))
		}
	}
	if len(r.Warnings) > 0 {
		p.Out.Printf("%d tagged entries were skipped, see above.", len(r.Warnings))
	}
}

func (p *Pipeline) log() *logrus.Entry {
	if p.logger == nil {
		p.logger = logging.NewLogger("sync")
	}
	return p.logger
}
