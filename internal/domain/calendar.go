package domain

import (
	"errors"
	"fmt"
	"iter"
	"time"
)

// maxSpanDays bounds how far the timeline may grow, so a corrupt timestamp
// cannot allocate centuries of days.
const maxSpanDays = 400 * 366

// ErrDateOutOfRange is returned when a lookup would grow the timeline past
// maxSpanDays.
var ErrDateOutOfRange = errors.New("date out of calendar range")

// Calendar is the contribution calendar of one user: a gap-free run of whole
// Sunday to Saturday weeks plus the registry of repositories seen in it.
//
// A Calendar is not safe for concurrent use.
type Calendar struct {
	Name string

	loc    *time.Location
	origin Date

	// days is buf[head:]. The head slots before it leave room to prepend
	// weeks without moving the whole timeline each time.
	buf  []*Day
	head int
	days []*Day

	repos     map[string]*Repository
	repoOrder []*Repository
}

// NewCalendar returns an empty calendar that projects instants to dates in
// loc. A nil loc means time.Local.
func NewCalendar(name string, loc *time.Location) *Calendar {
	if loc == nil {
		loc = time.Local
	}
	return &Calendar{
		Name:  name,
		loc:   loc,
		repos: make(map[string]*Repository),
	}
}

// Location returns the time zone used to project instants to dates.
func (c *Calendar) Location() *time.Location {
	return c.loc
}

// Len returns the number of days in the timeline, always a multiple of 7.
func (c *Calendar) Len() int {
	return len(c.days)
}

// Days returns the timeline. Callers must not modify the returned days.
func (c *Calendar) Days() []*Day {
	out := make([]*Day, len(c.days))
	copy(out, c.days)
	return out
}

// First returns the first date of the timeline, a Sunday.
func (c *Calendar) First() (Date, bool) {
	if len(c.days) == 0 {
		return 0, false
	}
	return c.origin, true
}

// Last returns the last date of the timeline, a Saturday.
func (c *Calendar) Last() (Date, bool) {
	if len(c.days) == 0 {
		return 0, false
	}
	return c.origin + Date(len(c.days)-1), true
}

// Lookup returns the day for date if it is inside the timeline, else nil.
// It never grows the timeline.
func (c *Calendar) Lookup(date Date) *Day {
	i := int64(date - c.origin)
	if i < 0 || i >= int64(len(c.days)) {
		return nil
	}
	return c.days[i]
}

// Day returns the day for date, growing the timeline by whole weeks in
// either direction if needed.
func (c *Calendar) Day(date Date) (*Day, error) {
	if err := c.cover(date, date); err != nil {
		return nil, err
	}
	return c.days[date-c.origin], nil
}

// DayAt is Day for the date an instant falls on in the calendar's location.
func (c *Calendar) DayAt(t time.Time) (*Day, error) {
	return c.Day(DateOf(t, c.loc))
}

// cover grows the timeline so that it spans [from, to].
func (c *Calendar) cover(from, to Date) error {
	first, last := from.Sunday(), to.Saturday()
	if len(c.days) > 0 {
		first = min(first, c.origin)
		last = max(last, c.origin+Date(len(c.days)-1))
	}
	if span := int64(last-first) + 1; span > maxSpanDays {
		return fmt.Errorf("%w: %s..%s spans %d days", ErrDateOutOfRange, first, last, span)
	}

	if len(c.days) == 0 {
		c.origin = first
		c.buf, c.head = makeDays(first, last), 0
		c.days = c.buf
		return nil
	}
	if first < c.origin {
		c.prepend(makeDays(first, c.origin-1))
		c.origin = first
	}
	if end := c.origin + Date(len(c.days)); last >= end {
		c.buf = append(c.buf, makeDays(end, last)...)
		c.days = c.buf[c.head:]
	}
	return nil
}

// prepend puts days in front of the timeline. When the free head slots run
// out, the buffer is reallocated with as much free room in front as the
// timeline it then holds.
func (c *Calendar) prepend(days []*Day) {
	if len(days) > c.head {
		size := len(days) + len(c.days)
		buf := make([]*Day, size+len(c.days), size+cap(c.buf)-c.head)
		copy(buf[size:], c.days)
		c.buf, c.head = buf, size
	}
	c.head -= len(days)
	copy(c.buf[c.head:], days)
	c.days = c.buf[c.head:]
}

func makeDays(from, to Date) []*Day {
	days := make([]*Day, 0, int(to-from)+1)
	for d := from; d <= to; d++ {
		days = append(days, newDay(d))
	}
	return days
}

// SummaryDay is a reported total for one date.
type SummaryDay struct {
	Date  Date
	Count int
}

// UpdateSummary merges reported totals into the timeline. Input may be in
// any order. Existing days keep their repository detail; only their count is
// replaced. Dates between the old and new ranges are filled with empty days.
func (c *Calendar) UpdateSummary(summary []SummaryDay) error {
	if len(summary) == 0 {
		return nil
	}
	from, to := summary[0].Date, summary[0].Date
	for _, s := range summary[1:] {
		from = min(from, s.Date)
		to = max(to, s.Date)
	}
	if err := c.cover(from, to); err != nil {
		return err
	}
	for _, s := range summary {
		c.days[s.Date-c.origin].SetContributionCount(s.Count)
	}
	return nil
}

// Weeks yields the timeline one Sunday to Saturday week at a time.
func (c *Calendar) Weeks() iter.Seq[[]*Day] {
	return func(yield func([]*Day) bool) {
		for i := 0; i+7 <= len(c.days); i += 7 {
			if !yield(c.days[i : i+7 : i+7]) {
				return
			}
		}
	}
}

// MaxContributions returns the largest reported total of any day, or 0 when
// no day has a reported total.
func (c *Calendar) MaxContributions() int {
	n := 0
	for _, day := range c.days {
		if count, ok := day.ContributionCount(); ok && count > n {
			n = count
		}
	}
	return n
}
