package timew_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/tempoit/internal/timew"
)

const sampleExport = `[
{"id":2,"start":"20190529T101500Z","end":"20190529T102300Z","tags":["log","oc"],"annotation":"SE-1 test description"},
{"id":1,"start":"20190529T110000Z","tags":["oc","log","log"]}
]`

func TestParseExport(t *testing.T) {
	entries, err := timew.ParseExport([]byte(sampleExport))
	require.NoError(t, err)
	require.Len(t, entries, 2)

	first := entries[0]
	assert.Equal(t, "@2", first.ID)
	assert.Equal(t, time.Date(2019, 5, 29, 10, 15, 0, 0, time.UTC), first.Start)
	require.NotNil(t, first.End)
	assert.Equal(t, 8*time.Minute, first.End.Sub(first.Start))
	require.NotNil(t, first.Annotation)
	assert.Equal(t, "SE-1 test description", *first.Annotation)

	second := entries[1]
	assert.Equal(t, "@1", second.ID)
	assert.Nil(t, second.End)
	assert.Nil(t, second.Annotation)
	assert.Equal(t, []string{"oc", "log"}, second.Tags)
}

func TestParseExportErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", "timew: command not found"},
		{"missing id", `[{"start":"20190529T101500Z"}]`},
		{"bad start", `[{"id":1,"start":"yesterday"}]`},
		{"bad end", `[{"id":1,"start":"20190529T101500Z","end":"later"}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := timew.ParseExport([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

type call struct {
	bin  string
	args []string
}

func recordingRunner(calls *[]call, out string, err error) timew.Runner {
	return func(_ context.Context, bin string, args ...string) ([]byte, error) {
		*calls = append(*calls, call{bin: bin, args: args})
		if err != nil {
			return nil, err
		}
		return []byte(out), nil
	}
}

func TestExportPassesFilter(t *testing.T) {
	var calls []call
	c := timew.NewClientWithRunner("", recordingRunner(&calls, sampleExport, nil))

	entries, err := c.Export(context.Background(), "oc", "log")
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	require.Len(t, calls, 1)
	assert.Equal(t, "timew", calls[0].bin)
	assert.Equal(t, []string{"export", "oc", "log"}, calls[0].args)
}

func TestTagAndUntag(t *testing.T) {
	var calls []call
	c := timew.NewClientWithRunner("/opt/bin/timew", recordingRunner(&calls, "", nil))

	require.NoError(t, c.Tag(context.Background(), "@3", "logged"))
	require.NoError(t, c.Untag(context.Background(), "@3", "log"))

	require.Len(t, calls, 2)
	assert.Equal(t, []string{"tag", "@3", "logged"}, calls[0].args)
	assert.Equal(t, []string{"untag", "@3", "log"}, calls[1].args)
	assert.Equal(t, "/opt/bin/timew", calls[1].bin)
}

func TestTagUnknownID(t *testing.T) {
	var calls []call
	cmdErr := &timew.CommandError{
		Args:     []string{"tag", "@42", "logged"},
		ExitCode: 255,
		Stderr:   "ID '@42' does not correspond to any tracking.\n",
	}
	c := timew.NewClientWithRunner("", recordingRunner(&calls, "", cmdErr))

	err := c.Tag(context.Background(), "@42", "logged")
	require.Error(t, err)
	assert.ErrorIs(t, err, timew.ErrNotFound)
	assert.Contains(t, err.Error(), "@42")
}

func TestOtherCommandFailure(t *testing.T) {
	var calls []call
	cmdErr := &timew.CommandError{Args: []string{"export"}, ExitCode: 1, Stderr: "Database is locked"}
	c := timew.NewClientWithRunner("", recordingRunner(&calls, "", cmdErr))

	_, err := c.Export(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, timew.ErrNotFound)
	assert.NotErrorIs(t, err, timew.ErrStoreUnavailable)
	assert.Contains(t, err.Error(), "Database is locked")
}

func TestMissingBinary(t *testing.T) {
	c := timew.NewClient(filepath.Join(t.TempDir(), "no-such-timew"))

	_, err := c.Export(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, timew.ErrStoreUnavailable)
}

func TestExecRunnerWithScript(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "timew")
	body := "#!/bin/sh\n" +
		"if [ \"$1\" = \"export\" ]; then\n" +
		"  cat <<'JSON'\n" + sampleExport + "\nJSON\n" +
		"  exit 0\n" +
		"fi\n" +
		"echo \"ID '$2' does not correspond to any tracking.\" >&2\n" +
		"exit 255\n"
	require.NoError(t, os.WriteFile(script, []byte(body), 0o755))

	c := timew.NewClient(script)
	entries, err := c.Export(context.Background(), "oc", "log")
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	err = c.Tag(context.Background(), "@9", "logged")
	require.Error(t, err)
	assert.ErrorIs(t, err, timew.ErrNotFound)
	assert.True(t, strings.Contains(err.Error(), "@9"))
}
