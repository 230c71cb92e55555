// Package rank reduces score lists to summary statistics and ranked
// extracts, and ranks the words of a period by frequency.
package rank

import (
	"sort"

	"github.com/Adithya-Monish-Kumar-K/periodstats/internal/score"
)

// Summary is the reduction of one score list.
type Summary struct {
	Count  int            `json:"count"`
	Sum    float64        `json:"sum"`
	Avg    float64        `json:"avg"`
	Max    float64        `json:"max"`
	Min    float64        `json:"min"`
	Top    []score.Scored `json:"top"`
	Bottom []score.Scored `json:"bottom"`
}

// Empty reports whether no document contributed to the summary.
func (s Summary) Empty() bool { return s.Count == 0 }

// Sort returns a copy of list ordered by ascending score. Equal scores keep
// their order in list.
func Sort(list []score.Scored) []score.Scored {
	sorted := make([]score.Scored, len(list))
	copy(sorted, list)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Score < sorted[j].Score })
	return sorted
}

// Summarize sorts list and reduces it. An empty list yields zero values;
// substituting the previous period's values is left to the fallback step.
func Summarize(list []score.Scored, n int) Summary {
	sorted := Sort(list)
	s := Summary{Count: len(sorted)}
	if s.Count == 0 {
		return s
	}
	for _, e := range sorted {
		s.Sum += e.Score
	}
	s.Avg = s.Sum / float64(s.Count)
	s.Min = sorted[0].Score
	s.Max = sorted[len(sorted)-1].Score
	s.Top = TopN(sorted, n)
	s.Bottom = BottomN(sorted, n)
	return s
}

// TopN returns the n highest entries of an ascending list, highest first.
// When n exceeds the list length the whole list is returned; it is never
// padded.
func TopN(sorted []score.Scored, n int) []score.Scored {
	n = clamp(n, len(sorted))
	out := make([]score.Scored, 0, n)
	for i := len(sorted) - 1; i >= len(sorted)-n; i-- {
		out = append(out, sorted[i])
	}
	return out
}

// BottomN returns the n lowest entries of an ascending list, lowest first.
func BottomN(sorted []score.Scored, n int) []score.Scored {
	n = clamp(n, len(sorted))
	out := make([]score.Scored, n)
	copy(out, sorted[:n])
	return out
}

func clamp(n, length int) int {
	if n < 0 {
		return 0
	}
	if n > length {
		return length
	}
	return n
}

// Word is one entry of a period's top-word ranking.
type Word struct {
	Word  string  `json:"word"`
	Count int     `json:"count"`
	Share float64 `json:"share"`
}

// TopWords ranks the words of dist by descending count, breaking ties by
// ascending word, and returns at most n of them. Share is count/total, or 0
// when total is 0.
func TopWords(dist map[string]int, total, n int) []Word {
	words := make([]Word, 0, len(dist))
	for w, c := range dist {
		words = append(words, Word{Word: w, Count: c})
	}
	sort.Slice(words, func(i, j int) bool {
		if words[i].Count != words[j].Count {
			return words[i].Count > words[j].Count
		}
		return words[i].Word < words[j].Word
	})
	words = words[:clamp(n, len(words))]
	for i := range words {
		if total > 0 {
			words[i].Share = float64(words[i].Count) / float64(total)
		}
	}
	return words
}
