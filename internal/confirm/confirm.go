// Package confirm implements the interactive checkpoints of a run: the
// yes/no gate before uploading and the password prompt.
package confirm

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/Tiliavir/tempoit/internal/display"
	"github.com/Tiliavir/tempoit/internal/worklog"
)

// ErrNoTerminal is returned when a secret must be read but stdin is not a
// terminal.
var ErrNoTerminal = errors.New("no terminal available for interactive prompt")

// Prompt asks the user on a line-oriented input stream.
type Prompt struct {
	in  *bufio.Reader
	out *display.Printer
}

// NewPrompt returns a Prompt reading answers from in and rendering to out.
func NewPrompt(in io.Reader, out *display.Printer) *Prompt {
	return &Prompt{in: bufio.NewReader(in), out: out}
}

// Confirm lists the batch and asks whether to upload it. The default answer
// is no; end of input counts as no.
func (p *Prompt) Confirm(b worklog.Batch) (bool, error) {
	p.out.Batch(b)

	fmt.Fprint(p.out.Writer(), ":: Confirm upload [y/N] ")
	answer, err := p.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("reading answer: %w", err)
	}
	if errors.Is(err, io.EOF) && answer == "" {
		fmt.Fprintln(p.out.Writer())
	}
	return Accepts(answer), nil
}

// Accepts reports whether answer is an explicit yes.
func Accepts(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}

// Password reads a secret from the terminal on stdin with echo disabled.
func Password(out io.Writer, label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", ErrNoTerminal
	}
	fmt.Fprintf(out, "%s: ", label)
	secret, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", strings.ToLower(label), err)
	}
	return string(secret), nil
}
