// Package fallback fills the aggregates of periods that had no contributing
// documents. Such a period takes the value of the immediately preceding
// period; a leading empty period takes 0. Charts built from the results
// therefore never see a gap.
package fallback

import "github.com/Adithya-Monish-Kumar-K/periodstats/internal/rank"

// Point is one resolved per-period value.
type Point struct {
	Value   float64 `json:"value"`
	Carried bool    `json:"carried,omitempty"`
}

// Resolve applies carry-forward to values. empty[i] marks period i as having
// no contributing documents; values[i] is then ignored. Both slices must have
// the same length.
func Resolve(values []float64, empty []bool) []Point {
	out := make([]Point, len(values))
	prev := 0.0
	for i, v := range values {
		if empty[i] {
			out[i] = Point{Value: prev, Carried: true}
			continue
		}
		out[i] = Point{Value: v}
		prev = v
	}
	return out
}

// Summaries applies carry-forward to the avg, max and min of a per-period
// summary series. Counts and ranked extracts of an empty period stay empty.
// It reports which periods were carried.
func Summaries(series []rank.Summary) ([]rank.Summary, []bool) {
	out := make([]rank.Summary, len(series))
	carried := make([]bool, len(series))
	var prev rank.Summary
	for i, s := range series {
		out[i] = s
		if s.Empty() {
			out[i].Avg, out[i].Max, out[i].Min = prev.Avg, prev.Max, prev.Min
			carried[i] = true
		}
		prev = out[i]
	}
	return out, carried
}
