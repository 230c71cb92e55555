// Package sentiment scores documents against a static polarity lexicon and
// aggregates the scores per period.
//
// Two statistics are produced from two different collections. The snippet
// collection (keyword-adjacent excerpts) gives a score list per period that
// is reduced like any TF-IDF list. The full-text collection gives one overall
// value per period, normalized by a fixed extract length instead of each
// document's own length.
package sentiment

import (
	"sort"

	"github.com/Adithya-Monish-Kumar-K/periodstats/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/periodstats/internal/period"
	"github.com/Adithya-Monish-Kumar-K/periodstats/internal/score"
)

// Aggregator collects per-document sentiment. It is used as a per-worker
// partial and combined with Merge.
type Aggregator struct {
	lex    Lexicon
	lists  [][]score.Scored
	sums   []float64
	counts []int
}

// NewAggregator returns an empty Aggregator for numPeriods periods.
func NewAggregator(lex Lexicon, numPeriods int) *Aggregator {
	return &Aggregator{
		lex:    lex,
		lists:  make([][]score.Scored, numPeriods),
		sums:   make([]float64, numPeriods),
		counts: make([]int, numPeriods),
	}
}

// Observe scores one admitted document.
func (a *Aggregator) Observe(p period.ID, doc corpus.Document) {
	s := a.lex.Score(doc.Tokens)
	a.lists[p] = append(a.lists[p], score.Scored{DocID: doc.ID, Seq: doc.Seq, Score: s})
	a.sums[p] += s
	a.counts[p]++
}

// Merge adds the partial other into a.
func (a *Aggregator) Merge(other *Aggregator) {
	for p := range a.lists {
		a.lists[p] = append(a.lists[p], other.lists[p]...)
		a.sums[p] += other.sums[p]
		a.counts[p] += other.counts[p]
	}
}

// Lists returns the per-period score lists in collection order.
func (a *Aggregator) Lists() [][]score.Scored {
	for _, list := range a.lists {
		sort.Slice(list, func(i, j int) bool { return list[i].Seq < list[j].Seq })
	}
	return a.lists
}

// Overall returns, per period, sum(document scores) / (documents *
// extractLength) together with a flag marking periods without documents.
func (a *Aggregator) Overall(extractLength int) ([]float64, []bool) {
	values := make([]float64, len(a.sums))
	empty := make([]bool, len(a.sums))
	for p := range a.sums {
		if a.counts[p] == 0 || extractLength <= 0 {
			empty[p] = a.counts[p] == 0
			continue
		}
		values[p] = a.sums[p] / float64(a.counts[p]*extractLength)
	}
	return values, empty
}

// Count is the number of documents scored in period p.
func (a *Aggregator) Count(p period.ID) int { return a.counts[p] }
