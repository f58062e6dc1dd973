// Package render draws a contribution calendar for a terminal or as JSON.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/naka-gawa/repo-year/internal/domain"
	"github.com/naka-gawa/repo-year/internal/usecase"
)

const (
	cellEmpty = "·"
	cellFull  = "■"

	// unknownHue colors days whose contributions cannot be attributed to
	// any repository.
	unknownHue = 120
	saturation = 0.65
)

var weekdayLabels = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// Terminal renders the calendar grid, one column per week and one row per
// weekday, followed by a table of the most used repositories.
func Terminal(w io.Writer, cal *domain.Calendar, f *domain.Filter, summary usecase.Summary) error {
	intensity, err := NewIntensity(cal, f)
	if err != nil {
		return fmt.Errorf("failed to compute intensity: %w", err)
	}

	fmt.Fprintf(w, "%s: %s contributions from %s to %s\n\n",
		displayName(cal), humanize.Comma(int64(summary.Total)), summary.From, summary.To)

	var weeks [][]*domain.Day
	for week := range cal.Weeks() {
		weeks = append(weeks, week)
	}
	fmt.Fprintln(w, "    "+monthHeader(weeks))

	for weekday := range 7 {
		var row strings.Builder
		row.WriteString(weekdayLabels[weekday] + " ")
		for _, week := range weeks {
			row.WriteString(cell(week[weekday], f, intensity))
		}
		fmt.Fprintln(w, row.String())
	}

	fmt.Fprintf(w, "\nActive days: %d, longest streak: %d days, median %.1f per active day\n\n",
		summary.ActiveDays, summary.LongestStreak, summary.MedianActiveDay)
	fmt.Fprintln(w, repoTable(summary.Repositories))
	return nil
}

func displayName(cal *domain.Calendar) string {
	if cal.Name == "" {
		return "Contributions"
	}
	return cal.Name
}

// monthHeader labels the week each month starts in. Labels that would
// overlap the previous one are dropped.
func monthHeader(weeks [][]*domain.Day) string {
	header := []rune(strings.Repeat(" ", len(weeks)))
	free := 0
	for i, week := range weeks {
		label := ""
		for _, day := range week {
			if t := day.Date().Time(time.UTC); t.Day() == 1 {
				label = t.Month().String()[:3]
			}
		}
		if label == "" && i == 0 {
			label = week[0].Date().Time(time.UTC).Month().String()[:3]
		}
		if label == "" || i < free || i+len(label) > len(header) {
			continue
		}
		copy(header[i:], []rune(label))
		free = i + len(label) + 1
	}
	return string(header)
}

func cell(day *domain.Day, f *domain.Filter, intensity Intensity) string {
	count := day.FilteredCount(f)
	level := intensity.Level(count)
	if level == 0 {
		return color.New(color.FgHiBlack).Sprint(cellEmpty)
	}
	hue := unknownHue
	top := 0
	for _, rd := range day.FilteredRepos(f) {
		if n := rd.Count(); n > top {
			top = n
			hue = rd.Repository().Hue()
		}
	}
	lightness := 0.80 - 0.12*float64(level)
	r, g, b := hslToRGB(hue, saturation, lightness)
	return color.RGB(r, g, b).Sprint(cellFull)
}

func repoTable(repos []usecase.RepoSummary) string {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.DrawBorder = false
	tbl.Style().Options.SeparateColumns = false
	tbl.AppendHeader(table.Row{"#", "Repository", "Contributions", ""})
	for i, repo := range repos {
		r, g, b := hslToRGB(repo.Hue, saturation, 0.5)
		var flags []string
		if repo.Fork {
			flags = append(flags, "fork")
		}
		if repo.Private {
			flags = append(flags, "private")
		}
		tbl.AppendRow(table.Row{
			i + 1,
			color.RGB(r, g, b).Sprint(repo.URL),
			humanize.Comma(int64(repo.Contributions)),
			strings.Join(flags, ","),
		})
	}
	return tbl.Render()
}

// DayView is one day of the JSON output.
type DayView struct {
	Date         domain.Date    `json:"date"`
	Count        int            `json:"count"`
	Reported     *int           `json:"reported"`
	Unknown      int            `json:"unknown"`
	Repositories map[string]int `json:"repositories,omitempty"`
}

// View is the JSON output: the summary and every day of the timeline.
type View struct {
	Summary usecase.Summary `json:"summary"`
	Days    []DayView       `json:"days"`
}

// JSON writes the calendar as indented JSON.
func JSON(w io.Writer, cal *domain.Calendar, f *domain.Filter, summary usecase.Summary) error {
	view := View{Summary: summary, Days: []DayView{}}
	for _, day := range cal.Days() {
		dv := DayView{Date: day.Date(), Count: day.FilteredCount(f), Unknown: day.UnknownCount()}
		if n, ok := day.ContributionCount(); ok {
			dv.Reported = &n
		}
		for _, rd := range day.FilteredRepos(f) {
			if dv.Repositories == nil {
				dv.Repositories = make(map[string]int)
			}
			dv.Repositories[rd.Repository().URL()] = rd.Count()
		}
		view.Days = append(view.Days, dv)
	}

	jsonData, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal calendar to JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(jsonData))
	return err
}
