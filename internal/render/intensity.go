package render

import (
	"math"

	"github.com/montanaflynn/stats"

	"github.com/naka-gawa/repo-year/internal/domain"
)

// Levels is the number of non-zero intensity levels.
const Levels = 4

// Intensity maps a day's count to a level from 0 (no contributions) to
// Levels, using the quartiles of the non-zero counts of the calendar.
type Intensity struct {
	thresholds [Levels - 1]float64
}

// NewIntensity computes quartiles of the non-zero filtered counts of cal.
func NewIntensity(cal *domain.Calendar, f *domain.Filter) (Intensity, error) {
	var counts stats.Float64Data
	for _, day := range cal.Days() {
		if n := day.FilteredCount(f); n > 0 {
			counts = append(counts, float64(n))
		}
	}
	var in Intensity
	if len(counts) == 0 {
		return in, nil
	}
	for i := range in.thresholds {
		p, err := counts.PercentileNearestRank(float64(100 * (i + 1) / Levels))
		if err != nil {
			return Intensity{}, err
		}
		in.thresholds[i] = p
	}
	return in, nil
}

// Level returns the intensity level of count.
func (in Intensity) Level(count int) int {
	if count <= 0 {
		return 0
	}
	n := float64(count)
	for i, t := range in.thresholds {
		if n <= t {
			return i + 1
		}
	}
	return Levels
}

// hslToRGB converts a hue in degrees and saturation and lightness in [0, 1].
func hslToRGB(hue int, s, l float64) (int, int, int) {
	h := float64(((hue%360)+360)%360) / 60
	c := (1 - math.Abs(2*l-1)) * s
	x := c * (1 - math.Abs(math.Mod(h, 2)-1))
	var r, g, b float64
	switch {
	case h < 1:
		r, g, b = c, x, 0
	case h < 2:
		r, g, b = x, c, 0
	case h < 3:
		r, g, b = 0, c, x
	case h < 4:
		r, g, b = 0, x, c
	case h < 5:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	m := l - c/2
	to := func(v float64) int { return int(math.Round((v + m) * 255)) }
	return to(r), to(g), to(b)
}
