package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/naka-gawa/repo-year/internal/domain"
	"github.com/naka-gawa/repo-year/internal/gateway"
)

// mockFetcher is a mock implementation of the gateway.Fetcher interface.
// It allows us to simulate the behavior of the GitHub gateway without making real API calls.
type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) ResolveLogin(ctx context.Context, login string) (string, error) {
	args := m.Called(ctx, login)
	return args.String(0), args.Error(1)
}

// FetchContributions sends the pages given to Return, then returns its error.
func (m *mockFetcher) FetchContributions(ctx context.Context, q gateway.Query, pages chan<- *domain.Contributions) error {
	args := m.Called(ctx, q)
	if out, ok := args.Get(0).([]*domain.Contributions); ok {
		for _, page := range out {
			select {
			case pages <- page:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return args.Error(1)
}

type mockLocal struct {
	mock.Mock
}

func (m *mockLocal) FetchLocal(ctx context.Context) (map[string][]time.Time, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string][]time.Time), args.Error(1)
}

const repoURL = "https://github.com/octo/a"

func summaryPage() *domain.Contributions {
	return &domain.Contributions{
		Name: "Octo Cat",
		Calendar: &domain.ContributionCalendar{Weeks: []domain.ContributionWeek{{
			ContributionDays: []domain.ContributionDay{
				{Date: "2025-01-05", ContributionCount: 2},
				{Date: "2025-01-06", ContributionCount: 5},
				{Date: "2025-01-07", ContributionCount: 0},
			},
		}}},
		Commits: []domain.CommitContributionsByRepository{{
			Repository: domain.RepositoryRef{URL: repoURL},
			Contributions: domain.CommitContributionsPage{Nodes: []domain.CommitContribution{
				{CommitCount: 3, OccurredAt: time.Date(2025, time.January, 6, 12, 0, 0, 0, time.UTC)},
			}},
		}},
	}
}

func issuesPage() *domain.Contributions {
	return &domain.Contributions{
		Name: "Octo Cat",
		Issues: []domain.IssueContribution{{
			OccurredAt: time.Date(2025, time.January, 6, 13, 0, 0, 0, time.UTC),
			Issue:      domain.Subject{URL: repoURL + "/issues/1", Repository: domain.RepositoryRef{URL: repoURL}},
		}},
	}
}

// TestLoader_Load uses a table-driven approach to test the loader.
func TestLoader_Load(t *testing.T) {
	testCases := []struct {
		name           string
		pages          []*domain.Contributions
		fetchErr       error
		local          map[string][]time.Time
		localErr       error
		withLocal      bool
		expectError    bool
		expectedEvents int
		expectedPages  int
		expectedRepos  []string
	}{
		{
			name:           "happy path - merges every page",
			pages:          []*domain.Contributions{summaryPage(), issuesPage()},
			expectedEvents: 2,
			expectedPages:  2,
			expectedRepos:  []string{repoURL},
		},
		{
			name:           "happy path - local contributions are merged",
			pages:          []*domain.Contributions{summaryPage()},
			withLocal:      true,
			local:          map[string][]time.Time{"notes": {time.Date(2025, time.January, 5, 12, 0, 0, 0, time.UTC)}},
			expectedEvents: 1,
			expectedPages:  1,
			expectedRepos:  []string{repoURL, "local:notes"},
		},
		{
			name:        "error case - fetch fails",
			pages:       []*domain.Contributions{summaryPage()},
			fetchErr:    errors.New("github api error"),
			expectError: true,
		},
		{
			name:        "error case - local backend fails",
			pages:       []*domain.Contributions{summaryPage()},
			withLocal:   true,
			localErr:    errors.New("backend down"),
			expectError: true,
		},
		{
			name:        "error case - malformed page",
			pages:       []*domain.Contributions{summaryPage(), {Issues: []domain.IssueContribution{{}}}, issuesPage()},
			expectError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// --- Arrange: Set up the test for this specific case ---
			ctx := context.Background()
			logger := log.New(io.Discard, "", 0)
			fetcher := new(mockFetcher)
			fetcher.On("ResolveLogin", mock.Anything, "").Return("octocat", nil)
			fetcher.On("FetchContributions", mock.Anything, gateway.Query{Login: "octocat"}).Return(tc.pages, tc.fetchErr)

			var local gateway.LocalSource
			if tc.withLocal {
				m := new(mockLocal)
				m.On("FetchLocal", mock.Anything).Return(tc.local, tc.localErr)
				local = m
			}

			loader := NewLoader(fetcher, local, logger)

			// --- Act: Execute the method we want to test ---
			result, err := loader.Load(ctx, gateway.Query{}, time.UTC)

			// --- Assert: Check the results ---
			if tc.expectError {
				assert.Error(t, err)
				assert.Nil(t, result)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Octo Cat", result.Calendar.Name)
			assert.Equal(t, tc.expectedEvents, result.Events)
			assert.Len(t, result.Pages, tc.expectedPages)
			assert.Equal(t, tc.expectedRepos, result.Calendar.RepoURLs())
			fetcher.AssertExpectations(t)
		})
	}
}

func TestLoader_LogsProgressWhenVerbose(t *testing.T) {
	var buf bytes.Buffer
	fetcher := new(mockFetcher)
	fetcher.On("ResolveLogin", mock.Anything, "octocat").Return("octocat", nil)
	fetcher.On("FetchContributions", mock.Anything, mock.Anything).Return([]*domain.Contributions{summaryPage(), issuesPage()}, nil)

	_, err := NewLoader(fetcher, nil, log.New(&buf, "", 0)).Load(context.Background(), gateway.Query{Login: "octocat"}, time.UTC)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Usecase: Merged page 1 (1 of 1 events).")
	assert.Contains(t, buf.String(), "Usecase: Merged page 2 (1 of 1 events).")
	assert.Contains(t, buf.String(), "Usecase: Calendar load complete.")
}

func TestLoader_MalformedPageNamesField(t *testing.T) {
	fetcher := new(mockFetcher)
	fetcher.On("ResolveLogin", mock.Anything, "octocat").Return("octocat", nil)
	bad := &domain.Contributions{PRs: []domain.PullRequestContribution{{OccurredAt: time.Now()}}}
	fetcher.On("FetchContributions", mock.Anything, mock.Anything).Return([]*domain.Contributions{bad}, nil)

	_, err := NewLoader(fetcher, nil, log.New(io.Discard, "", 0)).Load(context.Background(), gateway.Query{Login: "octocat"}, time.UTC)
	require.ErrorIs(t, err, domain.ErrMalformedPayload)
	assert.Contains(t, err.Error(), "prs[0].pullRequest.url")
}

func TestSummarize(t *testing.T) {
	cal, err := domain.FromContributions(time.UTC, summaryPage(), issuesPage())
	require.NoError(t, err)

	s, err := Summarize(cal, nil)
	require.NoError(t, err)
	assert.Equal(t, "Octo Cat", s.Name)
	assert.Equal(t, domain.NewDate(2025, time.January, 5), s.From)
	assert.Equal(t, domain.NewDate(2025, time.January, 11), s.To)
	// Jan 5: 2 unknown; Jan 6: 3 commits + 1 issue + 1 unknown.
	assert.Equal(t, 7, s.Total)
	assert.Equal(t, 2, s.ActiveDays)
	assert.Equal(t, 2, s.LongestStreak)
	assert.Equal(t, 5, s.MaxContributions)
	assert.InDelta(t, 3.5, s.MeanPerActiveDay, 1e-9)
	assert.InDelta(t, 3.5, s.MedianActiveDay, 1e-9)
	require.Len(t, s.Repositories, 1)
	assert.Equal(t, RepoSummary{URL: repoURL, Contributions: 4, Hue: 285}, s.Repositories[0])

	none, err := Summarize(cal, domain.NewFilter(false))
	require.NoError(t, err)
	assert.Equal(t, 3, none.Total)
	assert.Empty(t, none.Repositories)

	empty, err := Summarize(domain.NewCalendar("", time.UTC), nil)
	require.NoError(t, err)
	assert.Zero(t, empty.Total)
	assert.Zero(t, empty.MedianActiveDay)
}
