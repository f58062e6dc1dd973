package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/naka-gawa/repo-year/internal/config"
	"github.com/naka-gawa/repo-year/internal/domain"
	"github.com/naka-gawa/repo-year/internal/gateway"
	"github.com/naka-gawa/repo-year/internal/render"
	"github.com/naka-gawa/repo-year/internal/snapshot"
	"github.com/naka-gawa/repo-year/internal/usecase"
)

// ErrStaleSnapshot is returned when a snapshot was written for another query
// or schema version.
var ErrStaleSnapshot = errors.New("snapshot is stale, save it again with `repo-year snapshot save`")

var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "Draws the contribution calendar colored by repository",
	Long: `Fetches a user's contributions for one year (GitHub's limit for a single
contributions collection) and draws them as a week-by-weekday grid, followed
by the repositories ranked by contributions.

With --snapshot the contributions are read from a file written by
"repo-year snapshot save" instead of GitHub. A bare JSON array of pages
is accepted too and is never considered stale.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		cfg, err := config.Load(cmd.Flags())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		logger := newLogger(cfg.Verbose)

		if err := runCalendar(ctx, cfg, logger, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func runCalendar(ctx context.Context, cfg *config.Config, logger *log.Logger, w io.Writer) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	var cal *domain.Calendar
	if cfg.Snapshot != "" {
		cal, err = calendarFromSnapshot(ctx, cfg, loc, logger)
	} else {
		cal, err = calendarFromGitHub(ctx, cfg, loc, logger)
	}
	if err != nil {
		return err
	}

	f := cfg.Filter()
	summary, err := usecase.Summarize(cal, f)
	if err != nil {
		return fmt.Errorf("failed to summarize calendar: %w", err)
	}
	if cfg.Format == config.FormatJSON {
		return render.JSON(w, cal, f, summary)
	}
	return render.Terminal(w, cal, f, summary)
}

func calendarFromGitHub(ctx context.Context, cfg *config.Config, loc *time.Location, logger *log.Logger) (*domain.Calendar, error) {
	q, err := cfg.Query()
	if err != nil {
		return nil, err
	}
	loader, err := newLoader(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	result, err := loader.Load(ctx, q, loc)
	if err != nil {
		return nil, fmt.Errorf("failed to load contributions: %w", err)
	}
	logger.Printf("Loaded %d pages with %d events.", len(result.Pages), result.Events)
	return result.Calendar, nil
}

func calendarFromSnapshot(ctx context.Context, cfg *config.Config, loc *time.Location, logger *log.Logger) (*domain.Calendar, error) {
	file, err := os.Open(cfg.Snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer file.Close()

	pages, err := readPages(bufio.NewReader(file), logger)
	if err != nil {
		return nil, err
	}

	cal, err := domain.FromContributions(loc, pages...)
	if err != nil {
		return nil, fmt.Errorf("failed to replay snapshot: %w", err)
	}
	if cal == nil {
		return nil, fmt.Errorf("%w: no contribution pages", snapshot.ErrInvalidSnapshot)
	}

	local, err := newLocalSource(cfg, logger)
	if err != nil || local == nil {
		return cal, err
	}
	byRepo, err := local.FetchLocal(ctx)
	if err != nil {
		return nil, err
	}
	days := cal.UpdateFromLocal(byRepo)
	logger.Printf("Merged local contributions on %d days.", days)
	return cal, nil
}

// readPages reads an envelope, refusing a stale one, or a fixture.
func readPages(r *bufio.Reader, logger *log.Logger) ([]*domain.Contributions, error) {
	fixture, err := snapshot.IsFixture(r)
	if err != nil {
		return nil, err
	}
	if fixture {
		pages, err := snapshot.ReadFixture(r)
		if err != nil {
			return nil, err
		}
		logger.Printf("Replaying %d pages from a fixture.", len(pages))
		return pages, nil
	}

	env, err := snapshot.Read(r)
	if err != nil {
		return nil, err
	}
	if !env.Valid(gateway.QueryText()) {
		return nil, ErrStaleSnapshot
	}
	logger.Printf("Replaying %d pages generated at %s.", len(env.Contributions), env.GeneratedAt.Format(time.RFC3339))
	return env.Contributions, nil
}

func init() {
	rootCmd.AddCommand(calendarCmd)
	addQueryFlags(calendarCmd)
	calendarCmd.Flags().String("snapshot", "", "Read contributions from a snapshot file instead of GitHub")
	calendarCmd.Flags().StringP("format", "f", config.FormatText, "Output format (text or json)")
	calendarCmd.Flags().StringSlice("only", nil, "Show only these repository URLs")
	calendarCmd.Flags().StringSlice("hide", nil, "Hide these repository URLs")
}
