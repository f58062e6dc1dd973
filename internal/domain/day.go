package domain

import (
	"maps"
	"slices"
	"sort"
)

// RepositoryDay is the activity recorded for one repository on one day.
type RepositoryDay struct {
	repo    *Repository
	commits int
	created int
	issues  map[string]struct{}
	prs     map[string]struct{}
	reviews map[string]struct{}
}

func newRepositoryDay(repo *Repository) *RepositoryDay {
	return &RepositoryDay{
		repo:    repo,
		issues:  make(map[string]struct{}),
		prs:     make(map[string]struct{}),
		reviews: make(map[string]struct{}),
	}
}

func (rd *RepositoryDay) Repository() *Repository { return rd.repo }
func (rd *RepositoryDay) Commits() int            { return rd.commits }
func (rd *RepositoryDay) Created() int            { return rd.created }

// SetCommits overwrites the commit count. Upstream reports absolute counts
// per day and repository, so applying the same page twice must not add up.
func (rd *RepositoryDay) SetCommits(n int) { rd.commits = n }

// SetCreate overwrites the number of creation events.
func (rd *RepositoryDay) SetCreate(n int) { rd.created = n }

func (rd *RepositoryDay) AddIssue(url string)  { rd.issues[url] = struct{}{} }
func (rd *RepositoryDay) AddPR(url string)     { rd.prs[url] = struct{}{} }
func (rd *RepositoryDay) AddReview(url string) { rd.reviews[url] = struct{}{} }

func (rd *RepositoryDay) Issues() []string  { return sortedKeys(rd.issues) }
func (rd *RepositoryDay) PRs() []string     { return sortedKeys(rd.prs) }
func (rd *RepositoryDay) Reviews() []string { return sortedKeys(rd.reviews) }

// Count returns every contribution recorded for the repository that day.
func (rd *RepositoryDay) Count() int {
	return rd.created + rd.commits + len(rd.issues) + len(rd.prs) + len(rd.reviews)
}

func sortedKeys(set map[string]struct{}) []string {
	return slices.Sorted(maps.Keys(set))
}

// Day is one calendar date. The reported contribution count and the
// per-repository detail are filled independently: either may be absent.
type Day struct {
	date         Date
	count        int
	hasCount     bool
	repositories map[string]*RepositoryDay
}

func newDay(date Date) *Day {
	return &Day{date: date, repositories: make(map[string]*RepositoryDay)}
}

func (d *Day) Date() Date { return d.date }

// ContributionCount returns the externally reported total and whether one
// has been reported yet.
func (d *Day) ContributionCount() (int, bool) {
	return d.count, d.hasCount
}

// SetContributionCount records the externally reported total for the day.
func (d *Day) SetContributionCount(n int) {
	d.count = n
	d.hasCount = true
}

// HasDetail reports whether any repository activity is recorded for the day.
func (d *Day) HasDetail() bool {
	return len(d.repositories) > 0
}

// RepositoryDay returns the detail for url, or nil.
func (d *Day) RepositoryDay(url string) *RepositoryDay {
	return d.repositories[url]
}

// RepositoryDays returns the detail records ordered by repository URL.
func (d *Day) RepositoryDays() []*RepositoryDay {
	return d.FilteredRepos(nil)
}

func (d *Day) repositoryDay(repo *Repository) *RepositoryDay {
	rd, ok := d.repositories[repo.url]
	if !ok {
		rd = newRepositoryDay(repo)
		d.repositories[repo.url] = rd
	}
	return rd
}

// KnownContributionCount sums the counts of every repository that day.
func (d *Day) KnownContributionCount() int {
	n := 0
	for _, rd := range d.repositories {
		n += rd.Count()
	}
	return n
}

// UnknownCount is the reported total minus the known count. It is negative
// when more events are known than were reported, and zero when no total has
// been reported.
func (d *Day) UnknownCount() int {
	if !d.hasCount {
		return 0
	}
	return d.count - d.KnownContributionCount()
}

// FilteredRepos returns the detail records whose repository passes f,
// ordered by repository URL.
func (d *Day) FilteredRepos(f *Filter) []*RepositoryDay {
	out := make([]*RepositoryDay, 0, len(d.repositories))
	for url, rd := range d.repositories {
		if f.IsOn(url) {
			out = append(out, rd)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].repo.url < out[j].repo.url
	})
	return out
}

// FilteredCount sums the counts of the repositories passing f. Unknown
// contributions cannot be attributed to a repository, so they are always
// included.
func (d *Day) FilteredCount(f *Filter) int {
	n := max(d.UnknownCount(), 0)
	for url, rd := range d.repositories {
		if f.IsOn(url) {
			n += rd.Count()
		}
	}
	return n
}

func (d *Day) CommitCount(f *Filter) int {
	return d.sum(f, func(rd *RepositoryDay) int { return rd.commits })
}

func (d *Day) IssueCount(f *Filter) int {
	return d.sum(f, func(rd *RepositoryDay) int { return len(rd.issues) })
}

func (d *Day) PRCount(f *Filter) int {
	return d.sum(f, func(rd *RepositoryDay) int { return len(rd.prs) })
}

func (d *Day) ReviewCount(f *Filter) int {
	return d.sum(f, func(rd *RepositoryDay) int { return len(rd.reviews) })
}

func (d *Day) sum(f *Filter, field func(*RepositoryDay) int) int {
	n := 0
	for url, rd := range d.repositories {
		if f.IsOn(url) {
			n += field(rd)
		}
	}
	return n
}
