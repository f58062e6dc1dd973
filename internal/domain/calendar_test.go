package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertWeeksAligned checks that the timeline is made of whole, contiguous
// Sunday to Saturday weeks.
func assertWeeksAligned(t *testing.T, c *Calendar) {
	t.Helper()
	days := c.Days()
	require.Zero(t, len(days)%7, "length %d is not whole weeks", len(days))
	if len(days) == 0 {
		return
	}
	assert.Equal(t, time.Sunday, days[0].Date().Weekday())
	assert.Equal(t, time.Saturday, days[len(days)-1].Date().Weekday())
	for i := 1; i < len(days); i++ {
		assert.Equal(t, days[i-1].Date()+1, days[i].Date(), "gap at index %d", i)
	}
}

func counts(days []*Day) []*int {
	out := make([]*int, len(days))
	for i, d := range days {
		if n, ok := d.ContributionCount(); ok {
			out[i] = &n
		}
	}
	return out
}

func TestCalendar_DayOnEmpty(t *testing.T) {
	c := NewCalendar("test", time.UTC)
	wed := NewDate(2025, time.January, 1)

	day, err := c.Day(wed)
	require.NoError(t, err)
	assert.Equal(t, wed, day.Date())
	assert.Equal(t, 7, c.Len())
	first, ok := c.First()
	require.True(t, ok)
	assert.Equal(t, NewDate(2024, time.December, 29), first)
	assertWeeksAligned(t, c)

	again, err := c.Day(wed)
	require.NoError(t, err)
	assert.Same(t, day, again)
	assert.Equal(t, 7, c.Len())
}

func TestCalendar_DayExtendsForward(t *testing.T) {
	c := NewCalendar("test", time.UTC)
	_, err := c.Day(NewDate(2025, time.January, 1))
	require.NoError(t, err)
	original := c.Lookup(NewDate(2025, time.January, 2))

	day, err := c.Day(NewDate(2025, time.January, 20))
	require.NoError(t, err)
	assert.Equal(t, NewDate(2025, time.January, 20), day.Date())
	last, _ := c.Last()
	assert.Equal(t, NewDate(2025, time.January, 25), last)
	assert.Equal(t, 28, c.Len())
	assert.Same(t, original, c.Lookup(NewDate(2025, time.January, 2)))
	assertWeeksAligned(t, c)
}

func TestCalendar_PrependBeforeExistingRange(t *testing.T) {
	c := NewCalendar("test", time.UTC)
	require.NoError(t, c.UpdateSummary([]SummaryDay{{Date: NewDate(2025, time.January, 1), Count: 10}}))

	day, err := c.Day(NewDate(2024, time.December, 24))
	require.NoError(t, err)
	day.SetContributionCount(3)

	var weeks [][]*Day
	for week := range c.Weeks() {
		weeks = append(weeks, week)
	}
	require.Len(t, weeks, 2)
	assert.Equal(t, NewDate(2024, time.December, 22), weeks[0][0].Date())
	assert.Equal(t, NewDate(2024, time.December, 29), weeks[1][0].Date())

	three, ten := 3, 10
	assert.Equal(t, []*int{nil, nil, &three, nil, nil, nil, nil}, counts(weeks[0]))
	assert.Equal(t, []*int{nil, nil, nil, &ten, nil, nil, nil}, counts(weeks[1]))
	assertWeeksAligned(t, c)
}

func TestCalendar_RepeatedPrependReusesFrontRoom(t *testing.T) {
	c := NewCalendar("test", time.UTC)
	anchor := NewDate(2025, time.June, 4)
	day, err := c.Day(anchor)
	require.NoError(t, err)
	day.SetContributionCount(7)

	reallocs := 0
	for week := 1; week <= 60; week++ {
		before := &c.buf[0]
		_, err := c.Day(anchor.AddDays(-7 * week))
		require.NoError(t, err)
		if &c.buf[0] != before {
			reallocs++
		}
	}

	assert.Equal(t, 61*7, c.Len())
	assert.Same(t, day, c.Lookup(anchor))
	first, _ := c.First()
	assert.Equal(t, anchor.AddDays(-7*60).Sunday(), first)
	assert.LessOrEqual(t, reallocs, 8, "front room should grow geometrically")
	assertWeeksAligned(t, c)
}

func TestCalendar_DayAtUsesLocation(t *testing.T) {
	est := time.FixedZone("EST", -5*60*60)
	c := NewCalendar("test", est)

	day, err := c.DayAt(time.Date(2025, time.January, 1, 3, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, NewDate(2024, time.December, 31), day.Date())
	assert.Same(t, day, c.Lookup(NewDate(2024, time.December, 31)))
	assertWeeksAligned(t, c)
}

func TestCalendar_UpdateSummaryOutOfOrder(t *testing.T) {
	c := NewCalendar("test", time.UTC)
	err := c.UpdateSummary([]SummaryDay{
		{Date: NewDate(2025, time.January, 17), Count: 4},
		{Date: NewDate(2025, time.January, 1), Count: 1},
		{Date: NewDate(2025, time.January, 13), Count: 2},
	})
	require.NoError(t, err)

	assert.Equal(t, 21, c.Len())
	assertWeeksAligned(t, c)
	first, _ := c.First()
	assert.Equal(t, NewDate(2024, time.December, 29), first)

	for date, expected := range map[Date]int{
		NewDate(2025, time.January, 1):  1,
		NewDate(2025, time.January, 13): 2,
		NewDate(2025, time.January, 17): 4,
	} {
		n, ok := c.Lookup(date).ContributionCount()
		assert.True(t, ok, date.String())
		assert.Equal(t, expected, n, date.String())
	}
	_, ok := c.Lookup(NewDate(2025, time.January, 7)).ContributionCount()
	assert.False(t, ok, "gap day must not have a count")
}

func TestCalendar_UpdateSummaryPreservesDetail(t *testing.T) {
	c := NewCalendar("test", time.UTC)
	date := NewDate(2025, time.January, 8)
	day, err := c.Day(date)
	require.NoError(t, err)
	repo := c.InternRepository(RepositoryRef{URL: "https://github.com/a/b"})
	day.repositoryDay(repo).SetCommits(5)

	require.NoError(t, c.UpdateSummary([]SummaryDay{
		{Date: date, Count: 7},
		{Date: NewDate(2024, time.December, 2), Count: 1},
	}))

	assert.Same(t, day, c.Lookup(date))
	n, ok := day.ContributionCount()
	require.True(t, ok)
	assert.Equal(t, 7, n)
	assert.Equal(t, 5, day.RepositoryDay("https://github.com/a/b").Commits())
	assertWeeksAligned(t, c)
}

func TestCalendar_LookupDoesNotGrow(t *testing.T) {
	c := NewCalendar("test", time.UTC)
	assert.Nil(t, c.Lookup(NewDate(2025, time.January, 1)))
	assert.Zero(t, c.Len())

	_, err := c.Day(NewDate(2025, time.January, 1))
	require.NoError(t, err)
	assert.Nil(t, c.Lookup(NewDate(2026, time.January, 1)))
	assert.Equal(t, 7, c.Len())
}

func TestCalendar_DayOutOfRange(t *testing.T) {
	c := NewCalendar("test", time.UTC)
	_, err := c.Day(NewDate(2025, time.January, 1))
	require.NoError(t, err)

	_, err = c.Day(NewDate(1, time.January, 1))
	assert.ErrorIs(t, err, ErrDateOutOfRange)
	assert.Equal(t, 7, c.Len())
}

func TestCalendar_WeeksIsRestartable(t *testing.T) {
	c := NewCalendar("test", time.UTC)
	require.NoError(t, c.UpdateSummary([]SummaryDay{
		{Date: NewDate(2025, time.January, 1), Count: 1},
		{Date: NewDate(2025, time.January, 30), Count: 1},
	}))

	count := func() int {
		n := 0
		for week := range c.Weeks() {
			assert.Len(t, week, 7)
			n++
		}
		return n
	}
	assert.Equal(t, 5, count())
	assert.Equal(t, 5, count())

	for range c.Weeks() {
		break
	}
}

func TestCalendar_MaxContributions(t *testing.T) {
	c := NewCalendar("test", time.UTC)
	assert.Zero(t, c.MaxContributions())

	_, err := c.Day(NewDate(2025, time.January, 1))
	require.NoError(t, err)
	assert.Zero(t, c.MaxContributions())

	require.NoError(t, c.UpdateSummary([]SummaryDay{
		{Date: NewDate(2025, time.January, 2), Count: 4},
		{Date: NewDate(2025, time.January, 3), Count: 9},
	}))
	assert.Equal(t, 9, c.MaxContributions())
}

func TestCalendar_InternRepository(t *testing.T) {
	c := NewCalendar("test", time.UTC)
	first := c.InternRepository(RepositoryRef{URL: "https://github.com/a/b", IsFork: true})
	second := c.InternRepository(RepositoryRef{URL: "https://github.com/a/b", IsPrivate: true})

	assert.Same(t, first, second)
	assert.True(t, second.IsFork())
	assert.False(t, second.IsPrivate())
	assert.Equal(t, DefaultHue, first.Hue())
	assert.Zero(t, first.Contributions())
	assert.Equal(t, []string{"https://github.com/a/b"}, c.RepoURLs())
	assert.Same(t, first, c.Repository("https://github.com/a/b"))
	assert.Nil(t, c.Repository("https://github.com/a/c"))
}
