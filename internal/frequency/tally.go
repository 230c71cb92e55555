// Package frequency implements the tally pass: per-period document counts,
// keyword document frequencies and the period-wide word distributions.
package frequency

import (
	"github.com/Adithya-Monish-Kumar-K/periodstats/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/periodstats/internal/keyword"
	"github.com/Adithya-Monish-Kumar-K/periodstats/internal/period"
)

// Tally accumulates the first-pass counts. Every (period, keyword) key is
// present from construction; Observe never inserts new keys.
type Tally struct {
	set         *keyword.Set
	keywords    []keyword.Keyword
	docCount    []int
	gramTotal   []int
	tokenTotal  []int
	words       []map[string]int
	docFreq     map[keyword.Key]int
	occurrences map[keyword.Key]int
}

// New returns an empty Tally for numPeriods periods.
func New(set *keyword.Set, numPeriods int) *Tally {
	t := &Tally{
		set:         set,
		keywords:    set.Keywords(),
		docCount:    make([]int, numPeriods),
		gramTotal:   make([]int, numPeriods),
		tokenTotal:  make([]int, numPeriods),
		words:       make([]map[string]int, numPeriods),
		docFreq:     make(map[keyword.Key]int, numPeriods*set.Len()),
		occurrences: make(map[keyword.Key]int, numPeriods*set.Len()),
	}
	for i := range t.words {
		t.words[i] = make(map[string]int)
	}
	for _, k := range set.Keys(numPeriods) {
		t.docFreq[k] = 0
		t.occurrences[k] = 0
	}
	return t
}

// Observe counts one admitted document. A keyword raises the document
// frequency at most once per document, however many of its synonyms occur.
func (t *Tally) Observe(p period.ID, doc corpus.Document) {
	t.docCount[p]++
	t.tokenTotal[p] += len(doc.Tokens)
	words := t.words[p]
	for _, tok := range doc.Tokens {
		words[tok]++
	}

	counts := keyword.Count(doc.Tokens, t.set.N())
	t.gramTotal[p] += counts.Total()
	for _, kw := range t.keywords {
		key := keyword.Key{Period: p, Keyword: kw.ID}
		occ := counts.Occurrences(kw)
		if occ == 0 {
			continue
		}
		t.docFreq[key]++
		t.occurrences[key] += occ
	}
}

// Merge adds the counts of other into t. Both must have been created for the
// same keyword set and period count.
func (t *Tally) Merge(other *Tally) {
	for p := range t.docCount {
		t.docCount[p] += other.docCount[p]
		t.gramTotal[p] += other.gramTotal[p]
		t.tokenTotal[p] += other.tokenTotal[p]
		for w, n := range other.words[p] {
			t.words[p][w] += n
		}
	}
	for k, n := range other.docFreq {
		t.docFreq[k] += n
	}
	for k, n := range other.occurrences {
		t.occurrences[k] += n
	}
}

// Periods is the number of periods tallied.
func (t *Tally) Periods() int { return len(t.docCount) }

// DocCount is the number of admitted documents in period p.
func (t *Tally) DocCount(p period.ID) int { return t.docCount[p] }

// DocFreq is the number of documents in k.Period containing k.Keyword.
func (t *Tally) DocFreq(k keyword.Key) int { return t.docFreq[k] }

// Occurrences is the raw number of keyword grams in k.Period.
func (t *Tally) Occurrences(k keyword.Key) int { return t.occurrences[k] }

// GramTotal is the number of grams of the keyword length in period p.
func (t *Tally) GramTotal(p period.ID) int { return t.gramTotal[p] }

// TokenTotal is the number of tokens in period p.
func (t *Tally) TokenTotal(p period.ID) int { return t.tokenTotal[p] }

// Words is the token frequency distribution of period p. The map is owned by
// the Tally and must not be modified.
func (t *Tally) Words(p period.ID) map[string]int { return t.words[p] }

// Percentage is the keyword's share of all grams of period p, in percent.
// A period with no grams yields 0.
func (t *Tally) Percentage(k keyword.Key) float64 {
	total := t.gramTotal[k.Period]
	if total == 0 {
		return 0
	}
	return 100 * float64(t.occurrences[k]) / float64(total)
}
