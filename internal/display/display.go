// Package display renders worklog batches and sync progress for humans.
package display

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/Tiliavir/tempoit/internal/model"
	"github.com/Tiliavir/tempoit/internal/timecalc"
	"github.com/Tiliavir/tempoit/internal/worklog"
)

// Printer writes ":: " prefixed progress lines to an output stream. Colors
// are only emitted when the stream is a terminal.
type Printer struct {
	w       io.Writer
	ok      lipgloss.Style
	fail    lipgloss.Style
	warn    lipgloss.Style
	heading lipgloss.Style
}

// NewPrinter returns a Printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{
		w:       w,
		ok:      r.NewStyle().Foreground(lipgloss.Color("2")),
		fail:    r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		warn:    r.NewStyle().Foreground(lipgloss.Color("3")),
		heading: r.NewStyle().Bold(true),
	}
}

// Writer exposes the underlying stream, e.g. for prompts.
func (p *Printer) Writer() io.Writer {
	return p.w
}

// Printf writes a formatted ":: " prefixed line.
func (p *Printer) Printf(format string, args ...any) {
	fmt.Fprintf(p.w, ":: "+format+"\n", args...)
}

// Line formats a pending upload the way it is listed for confirmation.
func Line(u model.PendingUpload) string {
	return fmt.Sprintf("%2d. %-5s %s %7s [%s] '%s'",
		u.Ordinal,
		u.EntryID,
		timecalc.LocalDate(u.Start),
		timecalc.FormatJira(u.Duration),
		u.Ticket,
		u.Description,
	)
}

// Batch lists every pending upload followed by the total.
func (p *Printer) Batch(b worklog.Batch) {
	if b.Empty() {
		p.Printf("No worklogs to upload.")
		return
	}
	p.Printf("%s", p.heading.Render("Ready to upload worklogs:"))
	for _, item := range b.Items {
		fmt.Fprintf(p.w, "   %s\n", Line(item))
	}
	p.Printf("Total time: %s (%d worklogs)", timecalc.FormatJira(b.Total), len(b.Items))
}

// Warnings lists entries that were tagged for logging but skipped.
func (p *Printer) Warnings(ws []worklog.Warning) {
	if len(ws) == 0 {
		return
	}
	p.Printf("%s", p.warn.Render(fmt.Sprintf("Skipped %d tagged entries:", len(ws))))
	for _, w := range ws {
		fmt.Fprintf(p.w, "   %s\n", w)
	}
}

// Uploading announces an upload and leaves the line open for its status.
func (p *Printer) Uploading(u model.PendingUpload) {
	fmt.Fprintf(p.w, ":: Uploading %s... ", Line(u))
}

// Result completes an Uploading line.
func (p *Printer) Result(r model.UploadResult) {
	if r.Succeeded() {
		fmt.Fprintln(p.w, p.ok.Render("SUCCESS"))
		return
	}
	fmt.Fprintln(p.w, p.fail.Render("FAIL"))
	fmt.Fprintf(p.w, "   %v\n", r.Err)
}

// MarkFailed reports an upload whose local entry could not be marked.
func (p *Printer) MarkFailed(u model.PendingUpload, err error) {
	p.Printf("%s", p.fail.Render(MarkFailedMessage(u)))
	fmt.Fprintf(p.w, "   %v\n", err)
}

// MarkFailedMessage explains the consequence of a failed mark.
func MarkFailedMessage(u model.PendingUpload) string {
	return fmt.Sprintf("%s uploaded but not marked: mark %s manually or it will be re-uploaded", u.Ticket, u.EntryID)
}
