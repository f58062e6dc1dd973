package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	repoA = "https://github.com/octo/a"
	repoB = "https://github.com/octo/b"
)

func newTestDay(t *testing.T) (*Calendar, *Day) {
	t.Helper()
	c := NewCalendar("test", time.UTC)
	day, err := c.Day(NewDate(2025, time.January, 1))
	require.NoError(t, err)
	return c, day
}

func TestRepositoryDay_OverwriteAndSetSemantics(t *testing.T) {
	c, day := newTestDay(t)
	rd := day.repositoryDay(c.InternRepository(RepositoryRef{URL: repoA}))

	rd.SetCommits(3)
	rd.SetCommits(3)
	rd.SetCreate(1)
	rd.SetCreate(1)
	rd.AddIssue(repoA + "/issues/1")
	rd.AddIssue(repoA + "/issues/1")
	rd.AddPR(repoA + "/pull/2")
	rd.AddReview(repoA + "/pull/3#review-1")
	rd.AddReview(repoA + "/pull/3#review-1")

	assert.Equal(t, 3, rd.Commits())
	assert.Equal(t, 1, rd.Created())
	assert.Equal(t, []string{repoA + "/issues/1"}, rd.Issues())
	assert.Equal(t, []string{repoA + "/pull/2"}, rd.PRs())
	assert.Equal(t, []string{repoA + "/pull/3#review-1"}, rd.Reviews())
	assert.Equal(t, 7, rd.Count())
}

func TestDay_KnownVersusSummary(t *testing.T) {
	testCases := []struct {
		name            string
		reported        *int
		commits         int
		expectedUnknown int
		expectedAllOn   int
	}{
		{name: "summary above detail", reported: ptr(10), commits: 5, expectedUnknown: 5, expectedAllOn: 10},
		{name: "summary equals detail", reported: ptr(5), commits: 5, expectedUnknown: 0, expectedAllOn: 5},
		{name: "detail above summary", reported: ptr(2), commits: 5, expectedUnknown: -3, expectedAllOn: 5},
		{name: "no summary yet", reported: nil, commits: 5, expectedUnknown: 0, expectedAllOn: 5},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c, day := newTestDay(t)
			if tc.reported != nil {
				day.SetContributionCount(*tc.reported)
			}
			day.repositoryDay(c.InternRepository(RepositoryRef{URL: repoA})).SetCommits(tc.commits)

			assert.Equal(t, tc.commits, day.KnownContributionCount())
			assert.Equal(t, tc.expectedUnknown, day.UnknownCount())
			assert.Equal(t, tc.expectedAllOn, day.FilteredCount(AllOn()))
		})
	}
}

func TestDay_FilteredCounts(t *testing.T) {
	c, day := newTestDay(t)
	day.SetContributionCount(12)

	a := day.repositoryDay(c.InternRepository(RepositoryRef{URL: repoA}))
	a.SetCommits(2)
	a.AddIssue(repoA + "/issues/1")
	a.AddPR(repoA + "/pull/1")

	b := day.repositoryDay(c.InternRepository(RepositoryRef{URL: repoB}))
	b.SetCommits(4)
	b.AddReview(repoB + "/pull/9#r1")
	b.AddReview(repoB + "/pull/9#r2")

	onlyA := WithOnlyRepos(repoA)
	require.Len(t, day.FilteredRepos(onlyA), 1)
	assert.Equal(t, repoA, day.FilteredRepos(onlyA)[0].Repository().URL())

	// 4 known for a, 6 for b, 2 unknown.
	assert.Equal(t, 6, day.FilteredCount(onlyA))
	assert.Equal(t, 12, day.FilteredCount(nil))
	assert.Equal(t, 2, day.FilteredCount(NewFilter(false)))

	assert.Equal(t, 2, day.CommitCount(onlyA))
	assert.Equal(t, 1, day.IssueCount(onlyA))
	assert.Equal(t, 1, day.PRCount(onlyA))
	assert.Equal(t, 0, day.ReviewCount(onlyA))
	assert.Equal(t, 2, day.ReviewCount(AllOn()))
	assert.Equal(t, 6, day.CommitCount(AllOn()))

	all := day.RepositoryDays()
	require.Len(t, all, 2)
	assert.Equal(t, repoA, all[0].Repository().URL())
	assert.Equal(t, repoB, all[1].Repository().URL())
	assert.True(t, day.HasDetail())
}

func ptr(n int) *int { return &n }
