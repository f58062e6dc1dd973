// Package usecase contains the business logic of the application.
package usecase

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/naka-gawa/repo-year/internal/domain"
	"github.com/naka-gawa/repo-year/internal/gateway"
)

// Loader is the use case for building a contribution calendar.
// It runs the page producers concurrently and folds their pages into the
// calendar one at a time on the calling goroutine.
type Loader struct {
	fetcher gateway.Fetcher
	local   gateway.LocalSource
	logger  *log.Logger
}

// NewLoader creates a new Loader instance. local may be nil.
func NewLoader(fetcher gateway.Fetcher, local gateway.LocalSource, logger *log.Logger) *Loader {
	return &Loader{
		fetcher: fetcher,
		local:   local,
		logger:  logger,
	}
}

// Result is a loaded calendar together with the pages it was built from,
// in arrival order, so they can be written to a snapshot.
type Result struct {
	Calendar *domain.Calendar
	Pages    []*domain.Contributions
	Events   int
}

// Load fetches every page for q and merges it into a new calendar whose
// dates are in loc. Local contributions, if a local source is configured,
// are merged once all pages are in, since they only fill dates the
// timeline already covers.
func (l *Loader) Load(ctx context.Context, q gateway.Query, loc *time.Location) (*Result, error) {
	l.logger.Println("Usecase: Starting calendar load...")

	login, err := l.fetcher.ResolveLogin(ctx, q.Login)
	if err != nil {
		return nil, err
	}
	q.Login = login

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pages := make(chan *domain.Contributions)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		defer close(pages)
		return l.fetcher.FetchContributions(egCtx, q, pages)
	})

	var local map[string][]time.Time
	if l.local != nil {
		eg.Go(func() error {
			var err error
			local, err = l.local.FetchLocal(egCtx)
			return err
		})
	}

	result := &Result{Calendar: domain.NewCalendar(login, loc)}
	var mergeErr error
	for page := range pages {
		if mergeErr != nil {
			continue
		}
		applied, err := result.Calendar.UpdateFromContributions(page)
		if err != nil {
			mergeErr = fmt.Errorf("failed to merge page %d: %w", len(result.Pages), err)
			cancel()
			continue
		}
		if len(result.Pages) == 0 && page.Name != "" {
			result.Calendar.Name = page.Name
		}
		result.Pages = append(result.Pages, page)
		result.Events += applied
		l.logger.Printf("Usecase: Merged page %d (%d of %d events).", len(result.Pages), applied, page.EventCount())
	}

	if err := eg.Wait(); err != nil && mergeErr == nil {
		return nil, err
	}
	if mergeErr != nil {
		return nil, mergeErr
	}

	if local != nil {
		days := result.Calendar.UpdateFromLocal(local)
		l.logger.Printf("Usecase: Merged local contributions on %d days.", days)
	}

	l.logger.Println("Usecase: Calendar load complete.")
	return result, nil
}
