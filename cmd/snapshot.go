package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/naka-gawa/repo-year/internal/config"
	"github.com/naka-gawa/repo-year/internal/gateway"
	"github.com/naka-gawa/repo-year/internal/snapshot"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Saves and checks contribution snapshots",
	Long: `A snapshot holds the raw contribution pages of one fetch, so a calendar can
be drawn again later without calling GitHub. It records a hash of the GraphQL
query it was fetched with and becomes stale when that query changes.`,
}

var snapshotSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Fetches contributions from GitHub and writes them to a snapshot",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		cfg, err := config.Load(cmd.Flags())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		logger := newLogger(cfg.Verbose)
		output, _ := cmd.Flags().GetString("output")

		if err := runSnapshotSave(ctx, cfg, logger, output); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

var snapshotCheckCmd = &cobra.Command{
	Use:   "check FILE",
	Short: "Reports whether a snapshot can still be replayed",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ok, err := runSnapshotCheck(args[0], os.Stdout, time.Now())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if !ok {
			os.Exit(1)
		}
	},
}

func runSnapshotSave(ctx context.Context, cfg *config.Config, logger *log.Logger, output string) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	q, err := cfg.Query()
	if err != nil {
		return err
	}
	loader, err := newLoader(ctx, cfg, logger)
	if err != nil {
		return err
	}
	result, err := loader.Load(ctx, q, loc)
	if err != nil {
		return fmt.Errorf("failed to load contributions: %w", err)
	}

	env := snapshot.New(gateway.QueryText(), result.Pages, time.Now())
	if output == "" || output == "-" {
		return snapshot.Write(os.Stdout, env)
	}
	file, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("failed to create snapshot: %w", err)
	}
	if err := snapshot.Write(file, env); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	logger.Printf("Wrote %d pages to %s.", len(result.Pages), output)
	return nil
}

// runSnapshotCheck reports whether the snapshot at path matches the current
// query. A file that is not a snapshot at all is an error.
func runSnapshotCheck(path string, w io.Writer, now time.Time) (bool, error) {
	file, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer file.Close()

	env, err := snapshot.Read(file)
	if err != nil {
		return false, err
	}
	age := humanize.RelTime(env.GeneratedAt, now, "ago", "from now")
	if !env.Valid(gateway.QueryText()) {
		fmt.Fprintf(w, "%s %s (schema v%d, generated %s)\n", color.YellowString("stale"), path, env.SchemaVersion, age)
		return false, nil
	}
	fmt.Fprintf(w, "%s %s (%d pages, generated %s)\n", color.GreenString("ok"), path, len(env.Contributions), age)
	return true, nil
}

func init() {
	rootCmd.AddCommand(snapshotCmd)
	snapshotCmd.AddCommand(snapshotSaveCmd)
	snapshotCmd.AddCommand(snapshotCheckCmd)
	addQueryFlags(snapshotSaveCmd)
	snapshotSaveCmd.Flags().StringP("output", "o", "-", "File to write the snapshot to (- for standard output)")
}
