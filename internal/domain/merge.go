package domain

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
	"time"
)

// hueStep spaces the hues of repositories ranked next to each other.
const hueStep = 55

// LocalRepoPrefix prefixes the URL of repositories reported by a local
// backend rather than by GitHub.
const LocalRepoPrefix = "local:"

// FromContributions builds a calendar named after the first page and folds
// every page into it in order. It returns a nil calendar for no pages.
func FromContributions(loc *time.Location, pages ...*Contributions) (*Calendar, error) {
	if len(pages) == 0 {
		return nil, nil
	}
	if err := pages[0].Validate(); err != nil {
		return nil, fmt.Errorf("page 0: %w", err)
	}
	c := NewCalendar(pages[0].Name, loc)
	for i, page := range pages {
		if _, err := c.UpdateFromContributions(page); err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
	}
	return c, nil
}

// UpdateFromContributions folds one page into the calendar and returns the
// number of specific events applied. Applying the same page again leaves
// the calendar unchanged. The page is validated first; a malformed page
// changes nothing.
func (c *Calendar) UpdateFromContributions(page *Contributions) (int, error) {
	if err := page.Validate(); err != nil {
		return 0, err
	}
	if err := c.checkRange(page); err != nil {
		return 0, err
	}

	if page.Calendar != nil {
		var summary []SummaryDay
		for _, week := range page.Calendar.Weeks {
			for _, day := range week.ContributionDays {
				date, _ := ParseDate(day.Date)
				summary = append(summary, SummaryDay{Date: date, Count: day.ContributionCount})
			}
		}
		if err := c.UpdateSummary(summary); err != nil {
			return 0, err
		}
	}

	applied := 0
	for _, entry := range page.Commits {
		repo := c.InternRepository(entry.Repository)
		for _, node := range entry.Contributions.Nodes {
			c.repositoryDay(node.OccurredAt, repo).SetCommits(node.CommitCount)
			applied++
		}
	}
	for _, e := range page.Issues {
		c.repositoryDay(e.OccurredAt, c.InternRepository(e.Issue.Repository)).AddIssue(e.Issue.URL)
		applied++
	}
	for _, e := range page.PRs {
		c.repositoryDay(e.OccurredAt, c.InternRepository(e.PullRequest.Repository)).AddPR(e.PullRequest.URL)
		applied++
	}
	for _, e := range page.Reviews {
		c.repositoryDay(e.OccurredAt, c.InternRepository(e.PullRequestReview.Repository)).AddReview(e.PullRequestReview.URL)
		applied++
	}
	for _, e := range page.Repositories {
		c.repositoryDay(e.OccurredAt, c.InternRepository(e.Repository)).SetCreate(1)
		applied++
	}

	c.recompute()
	return applied, nil
}

// checkRange grows the timeline to cover every date in the page up front,
// so the merge itself cannot fail half way.
func (c *Calendar) checkRange(page *Contributions) error {
	var from, to Date
	seen := false
	see := func(d Date) {
		if !seen {
			from, to, seen = d, d, true
			return
		}
		from = min(from, d)
		to = max(to, d)
	}
	if page.Calendar != nil {
		for _, week := range page.Calendar.Weeks {
			for _, day := range week.ContributionDays {
				date, _ := ParseDate(day.Date)
				see(date)
			}
		}
	}
	for _, entry := range page.Commits {
		for _, node := range entry.Contributions.Nodes {
			see(DateOf(node.OccurredAt, c.loc))
		}
	}
	for _, e := range page.Issues {
		see(DateOf(e.OccurredAt, c.loc))
	}
	for _, e := range page.PRs {
		see(DateOf(e.OccurredAt, c.loc))
	}
	for _, e := range page.Reviews {
		see(DateOf(e.OccurredAt, c.loc))
	}
	for _, e := range page.Repositories {
		see(DateOf(e.OccurredAt, c.loc))
	}
	if !seen {
		return nil
	}
	return c.cover(from, to)
}

// repositoryDay must only be called for instants already covered by the
// timeline.
func (c *Calendar) repositoryDay(t time.Time, repo *Repository) *RepositoryDay {
	return c.days[DateOf(t, c.loc)-c.origin].repositoryDay(repo)
}

// SetRepoCommits overwrites the commit count of url on date. Dates outside
// the timeline are ignored and reported as false.
func (c *Calendar) SetRepoCommits(date Date, url string, commits int) bool {
	day := c.Lookup(date)
	if day == nil {
		return false
	}
	day.repositoryDay(c.InternRepository(RepositoryRef{URL: url})).SetCommits(commits)
	return true
}

// UpdateFromLocal records commits tracked outside GitHub, keyed by source
// name. Each source becomes the repository "local:<name>". Commits on dates
// outside the timeline are dropped. It returns the number of days updated.
func (c *Calendar) UpdateFromLocal(commitsByName map[string][]time.Time) int {
	names := slices.Sorted(maps.Keys(commitsByName))
	updated := 0
	for _, name := range names {
		perDay := make(map[Date]int)
		for _, t := range commitsByName[name] {
			perDay[DateOf(t, c.loc)]++
		}
		dates := make([]Date, 0, len(perDay))
		for date := range perDay {
			dates = append(dates, date)
		}
		slices.Sort(dates)
		for _, date := range dates {
			if c.SetRepoCommits(date, LocalRepoPrefix+name, perDay[date]) {
				updated++
			}
		}
	}

	c.recompute()
	return updated
}

func (c *Calendar) recompute() {
	c.updateRepoTotals()
	c.UpdateRepoColors()
}

// updateRepoTotals recounts every repository's total from the timeline.
func (c *Calendar) updateRepoTotals() {
	for _, repo := range c.repoOrder {
		repo.contributions = 0
	}
	for _, day := range c.days {
		for _, rd := range day.repositories {
			rd.repo.contributions += rd.Count()
		}
	}
}

// UpdateRepoColors ranks repositories by total contributions, most first,
// ties kept in registration order, and spaces their hues hueStep degrees
// apart starting at DefaultHue.
func (c *Calendar) UpdateRepoColors() {
	for rank, repo := range c.rankedRepos() {
		repo.hue = (DefaultHue + hueStep*rank) % 360
	}
}

func (c *Calendar) rankedRepos() []*Repository {
	ranked := slices.Clone(c.repoOrder)
	slices.SortStableFunc(ranked, func(a, b *Repository) int {
		return cmp.Compare(b.contributions, a.contributions)
	})
	return ranked
}

// MostUsedRepos returns the repositories passing f that have at least one
// contribution, most contributions first.
func (c *Calendar) MostUsedRepos(f *Filter) []*Repository {
	var out []*Repository
	for _, repo := range c.rankedRepos() {
		if repo.contributions > 0 && f.IsOn(repo.url) {
			out = append(out, repo)
		}
	}
	return out
}
