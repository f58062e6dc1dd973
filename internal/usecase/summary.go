package usecase

import (
	"github.com/montanaflynn/stats"

	"github.com/naka-gawa/repo-year/internal/domain"
)

// RepoSummary holds the totals of a single repository.
type RepoSummary struct {
	URL           string `json:"url"`
	Contributions int    `json:"contributions"`
	Hue           int    `json:"hue"`
	Fork          bool   `json:"fork"`
	Private       bool   `json:"private"`
}

// Summary describes a calendar as seen through a filter.
type Summary struct {
	Name             string        `json:"name"`
	From             domain.Date   `json:"from"`
	To               domain.Date   `json:"to"`
	Total            int           `json:"total"`
	ActiveDays       int           `json:"active_days"`
	MaxContributions int           `json:"max_contributions"`
	MeanPerActiveDay float64       `json:"mean_per_active_day"`
	MedianActiveDay  float64       `json:"median_per_active_day"`
	LongestStreak    int           `json:"longest_streak"`
	Repositories     []RepoSummary `json:"repositories"`
}

// Summarize computes totals, per-day statistics and streaks of the days
// visible through f.
func Summarize(cal *domain.Calendar, f *domain.Filter) (Summary, error) {
	s := Summary{
		Name:             cal.Name,
		MaxContributions: cal.MaxContributions(),
		Repositories:     []RepoSummary{},
	}
	s.From, _ = cal.First()
	s.To, _ = cal.Last()

	var active stats.Float64Data
	streak := 0
	for _, day := range cal.Days() {
		n := day.FilteredCount(f)
		s.Total += n
		if n == 0 {
			streak = 0
			continue
		}
		active = append(active, float64(n))
		streak++
		s.LongestStreak = max(s.LongestStreak, streak)
	}
	s.ActiveDays = len(active)

	if len(active) > 0 {
		var err error
		if s.MeanPerActiveDay, err = active.Mean(); err != nil {
			return Summary{}, err
		}
		if s.MedianActiveDay, err = active.Median(); err != nil {
			return Summary{}, err
		}
	}

	for _, repo := range cal.MostUsedRepos(f) {
		s.Repositories = append(s.Repositories, RepoSummary{
			URL:           repo.URL(),
			Contributions: repo.Contributions(),
			Hue:           repo.Hue(),
			Fork:          repo.IsFork(),
			Private:       repo.IsPrivate(),
		})
	}
	return s, nil
}
