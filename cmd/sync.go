package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/tempoit/internal/config"
	"github.com/Tiliavir/tempoit/internal/confirm"
	"github.com/Tiliavir/tempoit/internal/display"
	"github.com/Tiliavir/tempoit/internal/logsync"
	"github.com/Tiliavir/tempoit/internal/tempo"
	"github.com/Tiliavir/tempoit/internal/timew"
)

// readPassword is swapped out in tests.
var readPassword = confirm.Password

func runSync(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return &exitError{code: 1, err: err}
	}
	if err := cfg.Validate(); err != nil {
		return &exitError{code: 1, err: err}
	}

	out := display.NewPrinter(cmd.OutOrStdout())
	p := &logsync.Pipeline{
		Store:   timew.NewClient(cfg.TimewBin),
		Gate:    confirm.NewPrompt(cmd.InOrStdin(), out),
		Connect: connector(cfg, out.Writer()),
		Out:     out,
	}
	report, err := p.Run(cmd.Context())
	return runError(report, err)
}

// runError maps the outcome of a run to the process exit status.
func runError(report logsync.Report, err error) error {
	switch {
	case errors.Is(err, logsync.ErrExport):
		return &exitError{code: 2, err: err}
	case err != nil:
		return &exitError{code: 1, err: err}
	case !report.OK():
		return &exitError{code: 1, err: fmt.Errorf("%d worklogs failed to upload, %d uploaded but not marked",
			len(report.Failed), len(report.Unmarked))}
	}
	return nil
}

// connector picks the Tempo backend from cfg. The password prompt, if any,
// happens here so it only appears after the batch was confirmed.
func connector(cfg config.Config, prompt io.Writer) logsync.Connector {
	return func(ctx context.Context) (tempo.Service, error) {
		if cfg.UseCloud() {
			return tempo.NewCloudClient(ctx, cfg.CloudURL, cfg.APIToken, cfg.AccountID, cfg.Timeout()), nil
		}
		password := cfg.Password
		if password == "" {
			var err error
			password, err = readPassword(prompt, fmt.Sprintf("Password for %s", cfg.Username))
			if err != nil {
				return nil, err
			}
		}
		httpClient := &http.Client{Timeout: cfg.Timeout()}
		return tempo.Login(ctx, httpClient, cfg.BaseURL, cfg.Username, password)
	}
}
