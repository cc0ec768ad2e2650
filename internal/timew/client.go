// Package timew adapts the timewarrior CLI into an entry store: it exports
// intervals and edits their tags by shelling out to the timew binary.
package timew

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Tiliavir/tempoit/internal/logging"
	"github.com/Tiliavir/tempoit/internal/model"
)

var (
	// ErrNotFound is returned when an id no longer refers to an interval.
	ErrNotFound = errors.New("timew: no such interval")
	// ErrStoreUnavailable is returned when the timew binary cannot be run.
	ErrStoreUnavailable = errors.New("timew: store unavailable")
)

// DefaultBinary is the command looked up on PATH when none is configured.
const DefaultBinary = "timew"

// CommandError describes a timew invocation that exited unsuccessfully.
type CommandError struct {
	Args     []string
	ExitCode int
	Stderr   string
}

func (e *CommandError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		msg = "no output"
	}
	return fmt.Sprintf("timew %s exited with %d: %s", strings.Join(e.Args, " "), e.ExitCode, msg)
}

// Runner executes bin with args and returns its standard output. A command
// that ran but failed must be reported as a *CommandError.
type Runner func(ctx context.Context, bin string, args ...string) ([]byte, error)

// Client talks to timewarrior through its command line.
type Client struct {
	bin    string
	run    Runner
	logger *logrus.Entry
}

// NewClient returns a Client invoking bin (DefaultBinary when empty).
func NewClient(bin string) *Client {
	return NewClientWithRunner(bin, execRunner)
}

// NewClientWithRunner returns a Client that executes commands through run.
func NewClientWithRunner(bin string, run Runner) *Client {
	if bin == "" {
		bin = DefaultBinary
	}
	return &Client{
		bin:    bin,
		run:    run,
		logger: logging.NewLogger("timew"),
	}
}

// Export returns all intervals matching the given tag filter, in the order
// timew reports them.
func (c *Client) Export(ctx context.Context, filter ...string) ([]model.RawEntry, error) {
	args := append([]string{"export"}, filter...)
	out, err := c.invoke(ctx, args...)
	if err != nil {
		return nil, err
	}
	entries, err := ParseExport(out)
	if err != nil {
		return nil, err
	}
	c.logger.WithField("count", len(entries)).Debug("exported intervals")
	return entries, nil
}

// Tag adds tags to the interval identified by id. Adding a tag the interval
// already carries is a no-op.
func (c *Client) Tag(ctx context.Context, id string, tags ...string) error {
	_, err := c.invoke(ctx, append([]string{"tag", id}, tags...)...)
	return err
}

// Untag removes tags from the interval identified by id. Removing a tag the
// interval does not carry is a no-op.
func (c *Client) Untag(ctx context.Context, id string, tags ...string) error {
	_, err := c.invoke(ctx, append([]string{"untag", id}, tags...)...)
	return err
}

func (c *Client) invoke(ctx context.Context, args ...string) ([]byte, error) {
	c.logger.WithField("args", args).Debug("running timew")
	out, err := c.run(ctx, c.bin, args...)
	if err == nil {
		return out, nil
	}

	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		if isNotFound(cmdErr.Stderr) {
			return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
		}
		return nil, err
	}
	return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}

// isNotFound matches timew's diagnostics for an id that does not exist.
func isNotFound(stderr string) bool {
	s := strings.ToLower(stderr)
	return strings.Contains(s, "does not correspond to any tracking") ||
		strings.Contains(s, "is not a valid id")
}

func execRunner(ctx context.Context, bin string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil, &CommandError{
			Args:     args,
			ExitCode: exitErr.ExitCode(),
			Stderr:   stderr.String(),
		}
	}
	if err != nil {
		return nil, err
	}
	return stdout.Bytes(), nil
}
