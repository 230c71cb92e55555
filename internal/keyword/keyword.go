// Package keyword parses keyword specifications and counts keyword grams in
// token sequences.
//
// A specification is a comma-separated list of groups. Slashes inside a
// group separate interchangeable synonyms and whitespace inside a synonym
// makes it a multi-token gram:
//
//	"miss, ship/boat, young lady/fair maid"
//
// Every synonym of every group in one Set must have the same length n.
package keyword

import (
	"strings"

	"github.com/Adithya-Monish-Kumar-K/periodstats/internal/period"
	apperrors "github.com/Adithya-Monish-Kumar-K/periodstats/pkg/errors"
)

// ID identifies a keyword group by its position in the Set.
type ID int

// Key addresses one per-period, per-keyword accumulator entry.
type Key struct {
	Period  period.ID
	Keyword ID
}

// Keyword is one group of synonyms scored as a single unit.
type Keyword struct {
	ID       ID
	Label    string
	Synonyms []string // each synonym is its n tokens joined by a single space
}

// Set is an immutable, ordered keyword list sharing a common gram length.
type Set struct {
	keywords []Keyword
	n        int
}

// Parse builds a Set from a specification string.
func Parse(spec string) (*Set, error) {
	groups := strings.Split(spec, ",")
	set := &Set{}
	for _, group := range groups {
		group = strings.TrimSpace(group)
		if group == "" {
			continue
		}
		kw := Keyword{ID: ID(len(set.keywords)), Label: group}
		seen := make(map[string]struct{})
		for _, syn := range strings.Split(group, "/") {
			tokens := strings.Fields(strings.ToLower(syn))
			if len(tokens) == 0 {
				return nil, apperrors.Configf("empty synonym in keyword group %q", group)
			}
			if set.n == 0 {
				set.n = len(tokens)
			} else if len(tokens) != set.n {
				return nil, apperrors.Configf("keyword %q has %d tokens, expected %d like the other keywords", syn, len(tokens), set.n)
			}
			joined := strings.Join(tokens, " ")
			if _, dup := seen[joined]; dup {
				continue
			}
			seen[joined] = struct{}{}
			kw.Synonyms = append(kw.Synonyms, joined)
		}
		set.keywords = append(set.keywords, kw)
	}
	if len(set.keywords) == 0 {
		return nil, apperrors.Configf("no keywords configured")
	}
	return set, nil
}

// N is the gram length shared by every keyword.
func (s *Set) N() int { return s.n }

// Len is the number of keyword groups.
func (s *Set) Len() int { return len(s.keywords) }

// Keywords returns the groups in declaration order.
func (s *Set) Keywords() []Keyword {
	out := make([]Keyword, len(s.keywords))
	copy(out, s.keywords)
	return out
}

// Get returns the keyword with the given id.
func (s *Set) Get(id ID) Keyword { return s.keywords[id] }

// Keys enumerates every (period, keyword) pair for numPeriods periods, in
// period-major order.
func (s *Set) Keys(numPeriods int) []Key {
	keys := make([]Key, 0, numPeriods*len(s.keywords))
	for p := 0; p < numPeriods; p++ {
		for _, kw := range s.keywords {
			keys = append(keys, Key{Period: period.ID(p), Keyword: kw.ID})
		}
	}
	return keys
}

// Grams turns a token sequence into its sequence of n-grams. For n == 1 the
// tokens are returned unchanged.
func Grams(tokens []string, n int) []string {
	if n <= 1 {
		return tokens
	}
	if len(tokens) < n {
		return nil
	}
	grams := make([]string, 0, len(tokens)-n+1)
	for i := 0; i+n <= len(tokens); i++ {
		grams = append(grams, strings.Join(tokens[i:i+n], " "))
	}
	return grams
}

// Counts is the gram frequency table of one document.
type Counts struct {
	freq  map[string]int
	max   int
	total int
}

// Count builds the gram frequency table of tokens for gram length n.
func Count(tokens []string, n int) Counts {
	grams := Grams(tokens, n)
	c := Counts{freq: make(map[string]int, len(grams)), total: len(grams)}
	for _, g := range grams {
		c.freq[g]++
		if c.freq[g] > c.max {
			c.max = c.freq[g]
		}
	}
	return c
}

// Of returns the count of one gram.
func (c Counts) Of(gram string) int { return c.freq[gram] }

// Max is the count of the document's most frequent gram.
func (c Counts) Max() int { return c.max }

// Total is the number of grams in the document.
func (c Counts) Total() int { return c.total }

// Occurrences sums the counts of every synonym of kw.
func (c Counts) Occurrences(kw Keyword) int {
	n := 0
	for _, syn := range kw.Synonyms {
		n += c.freq[syn]
	}
	return n
}

// Present reports whether any synonym of kw occurs.
func (c Counts) Present(kw Keyword) bool {
	for _, syn := range kw.Synonyms {
		if c.freq[syn] > 0 {
			return true
		}
	}
	return false
}
