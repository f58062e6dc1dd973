package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/naka-gawa/repo-year/internal/config"
	"github.com/naka-gawa/repo-year/internal/gateway"
	"github.com/naka-gawa/repo-year/internal/usecase"
)

// newLogger discards everything unless verbose is set.
func newLogger(verbose bool) *log.Logger {
	logger := log.New(io.Discard, "", log.LstdFlags) // Default: discard all logs.
	if verbose {
		logger.SetOutput(os.Stderr) // If verbose, log to standard error.
	}
	return logger
}

// addQueryFlags registers the flags selecting whose contributions to fetch.
func addQueryFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("user", "u", "", "GitHub login (default: the token's owner)")
	cmd.Flags().String("from", "", "Start date (YYYY/MM/DD, default: one year before --to)")
	cmd.Flags().String("to", "", "End date (YYYY/MM/DD, default: now)")
	cmd.Flags().String("backend", "", "Base URL of a backend serving /api/contributions for local repositories")
}

// newLoader wires the GitHub gateway and, if configured, the local backend.
func newLoader(ctx context.Context, cfg *config.Config, logger *log.Logger) (*usecase.Loader, error) {
	creds, err := cfg.Credentials()
	if err != nil {
		return nil, err
	}
	ts, err := gateway.NewTokenSource(ctx, creds)
	if err != nil {
		return nil, err
	}
	githubGateway, err := gateway.NewGitHubGateway(ts, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub gateway: %w", err)
	}
	local, err := newLocalSource(cfg, logger)
	if err != nil {
		return nil, err
	}
	return usecase.NewLoader(githubGateway, local, logger), nil
}

// newLocalSource returns nil when no backend is configured.
func newLocalSource(cfg *config.Config, logger *log.Logger) (gateway.LocalSource, error) {
	if cfg.Backend == "" {
		return nil, nil
	}
	backend, err := gateway.NewBackendGateway(cfg.Backend, nil, logger)
	if err != nil {
		return nil, err
	}
	return backend, nil
}
