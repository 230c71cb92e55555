// Package score implements the scoring pass. It derives the per-period IDF
// table from a completed tally and collects one TF-IDF score per admitted
// document and keyword.
package score

import (
	"math"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/periodstats/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/periodstats/internal/frequency"
	"github.com/Adithya-Monish-Kumar-K/periodstats/internal/keyword"
	"github.com/Adithya-Monish-Kumar-K/periodstats/internal/period"
)

// Scored is one document's score for one keyword. Seq is the document's
// position in collection order and fixes the tie-break order of equal
// scores.
type Scored struct {
	DocID string  `json:"docId"`
	Seq   int     `json:"seq"`
	Score float64 `json:"score"`
}

// IDF returns 1 + log10(docCount/docFreq), or 0 when the keyword occurs in
// no document of the period.
func IDF(docCount, docFreq int) float64 {
	if docFreq <= 0 || docCount <= 0 {
		return 0
	}
	return 1 + math.Log10(float64(docCount)/float64(docFreq))
}

// TF sums count(synonym)/max over the synonyms of kw, where max is the count
// of the document's most frequent gram. An empty document scores 0.
func TF(counts keyword.Counts, kw keyword.Keyword) float64 {
	max := counts.Max()
	if max == 0 {
		return 0
	}
	var tf float64
	for _, syn := range kw.Synonyms {
		tf += float64(counts.Of(syn)) / float64(max)
	}
	return tf
}

// Table is the IDF of every (period, keyword) pair.
type Table struct {
	idf map[keyword.Key]float64
}

// NewTable computes the IDF table from a completed tally.
func NewTable(set *keyword.Set, tally *frequency.Tally) *Table {
	keys := set.Keys(tally.Periods())
	t := &Table{idf: make(map[keyword.Key]float64, len(keys))}
	for _, k := range keys {
		t.idf[k] = IDF(tally.DocCount(k.Period), tally.DocFreq(k))
	}
	return t
}

// IDF returns the table entry for k.
func (t *Table) IDF(k keyword.Key) float64 { return t.idf[k] }

// Scorer collects score lists. One Scorer is used per worker and the
// partials are combined with Merge.
type Scorer struct {
	n        int
	keywords []keyword.Keyword
	table    *Table
	lists    map[keyword.Key][]Scored
}

// NewScorer returns an empty Scorer for numPeriods periods.
func NewScorer(set *keyword.Set, table *Table, numPeriods int) *Scorer {
	s := &Scorer{
		n:        set.N(),
		keywords: set.Keywords(),
		table:    table,
		lists:    make(map[keyword.Key][]Scored, numPeriods*set.Len()),
	}
	for _, k := range set.Keys(numPeriods) {
		s.lists[k] = nil
	}
	return s
}

// Observe scores one admitted document against every keyword.
func (s *Scorer) Observe(p period.ID, doc corpus.Document) {
	counts := keyword.Count(doc.Tokens, s.n)
	for _, kw := range s.keywords {
		key := keyword.Key{Period: p, Keyword: kw.ID}
		s.lists[key] = append(s.lists[key], Scored{
			DocID: doc.ID,
			Seq:   doc.Seq,
			Score: TF(counts, kw) * s.table.IDF(key),
		})
	}
}

// Merge appends the lists of other to s.
func (s *Scorer) Merge(other *Scorer) {
	for k, list := range other.lists {
		s.lists[k] = append(s.lists[k], list...)
	}
}

// Lists returns every score list in collection order. Call it once, after
// all partials have been merged.
func (s *Scorer) Lists() map[keyword.Key][]Scored {
	for _, list := range s.lists {
		sort.Slice(list, func(i, j int) bool { return list[i].Seq < list[j].Seq })
	}
	return s.lists
}
