package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/tempoit/internal/display"
	"github.com/Tiliavir/tempoit/internal/logsync"
	"github.com/Tiliavir/tempoit/internal/timew"
)

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List the worklogs the next run would upload",
	Args:  cobra.NoArgs,
	RunE:  runPending,
}

func runPending(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return &exitError{code: 1, err: err}
	}

	out := display.NewPrinter(cmd.OutOrStdout())
	p := &logsync.Pipeline{
		Store: timew.NewClient(cfg.TimewBin),
		Out:   out,
	}
	batch, warnings, err := p.Plan(cmd.Context())
	if err != nil {
		if errors.Is(err, logsync.ErrExport) {
			return &exitError{code: 2, err: err}
		}
		return err
	}
	out.Warnings(warnings)
	out.Batch(batch)
	return nil
}
