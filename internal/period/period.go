// Package period builds and queries the ordered list of period boundaries
// that partition a document collection into historical buckets.
//
// An Index of n boundaries describes n-1 reporting periods, each the
// half-open span [b[i], b[i+1]). The last boundary closes the final period;
// BucketFor still maps any later year onto it so callers can treat it as an
// open-ended trailing bucket.
package period

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/periodstats/pkg/errors"
)

// ID identifies a reporting period by its position in the boundary list.
type ID int

// Span is one reporting period.
type Span struct {
	ID    ID  `json:"id"`
	Start int `json:"start"`
	End   int `json:"end"`
}

func (s Span) String() string {
	return fmt.Sprintf("[%d, %d)", s.Start, s.End)
}

// Index is an immutable, strictly increasing list of period boundaries.
type Index struct {
	bounds []int
	// admitEnd is the exclusive upper bound of admitted years. It equals the
	// last boundary unless Build appended a boundary past maxYear.
	admitEnd int
}

// Build creates boundaries minYear, minYear+increment, ... up to maxYear.
// When increment does not divide the range evenly, one extra increment is
// appended so the trailing remainder is kept. Years at or past maxYear are
// still rejected by Lookup.
func Build(minYear, maxYear, increment int) (*Index, error) {
	if increment <= 0 {
		return nil, apperrors.Configf("period increment must be positive, got %d", increment)
	}
	if maxYear <= minYear {
		return nil, apperrors.Configf("period range [%d, %d) is empty", minYear, maxYear)
	}
	steps := (maxYear - minYear) / increment
	if (maxYear-minYear)%increment != 0 {
		steps++
	}
	bounds := make([]int, 0, steps+1)
	for k := 0; k <= steps; k++ {
		bounds = append(bounds, minYear+k*increment)
	}
	return &Index{bounds: bounds, admitEnd: maxYear}, nil
}

// FromBoundaries accepts an explicit ascending list of arbitrary-width
// periods.
func FromBoundaries(bounds []int) (*Index, error) {
	if len(bounds) < 2 {
		return nil, apperrors.Configf("need at least two period boundaries, got %d", len(bounds))
	}
	for i := 1; i < len(bounds); i++ {
		if bounds[i] <= bounds[i-1] {
			return nil, apperrors.Configf("period boundaries must be strictly increasing: %d follows %d", bounds[i], bounds[i-1])
		}
	}
	cp := make([]int, len(bounds))
	copy(cp, bounds)
	return &Index{bounds: cp, admitEnd: cp[len(cp)-1]}, nil
}

// ParseBoundaries parses a whitespace-separated boundary list such as
// "1700 1720 1745 1800".
func ParseBoundaries(s string) (*Index, error) {
	fields := strings.Fields(s)
	bounds := make([]int, 0, len(fields))
	for _, f := range fields {
		year, err := strconv.Atoi(f)
		if err != nil {
			return nil, apperrors.Configf("invalid period boundary %q", f)
		}
		bounds = append(bounds, year)
	}
	return FromBoundaries(bounds)
}

// Boundaries returns a copy of the boundary list.
func (ix *Index) Boundaries() []int {
	cp := make([]int, len(ix.bounds))
	copy(cp, ix.bounds)
	return cp
}

// Len returns the number of reporting periods, len(boundaries)-1.
func (ix *Index) Len() int {
	return len(ix.bounds) - 1
}

// First returns the first boundary.
func (ix *Index) First() int { return ix.bounds[0] }

// Last returns the last boundary.
func (ix *Index) Last() int { return ix.bounds[len(ix.bounds)-1] }

// AdmitEnd returns the exclusive upper bound of years Lookup admits.
func (ix *Index) AdmitEnd() int { return ix.admitEnd }

// Spans lists the reporting periods in order.
func (ix *Index) Spans() []Span {
	spans := make([]Span, ix.Len())
	for i := range spans {
		spans[i] = Span{ID: ID(i), Start: ix.bounds[i], End: ix.bounds[i+1]}
	}
	return spans
}

// Span returns the reporting period with the given id.
func (ix *Index) Span(id ID) Span {
	return Span{ID: id, Start: ix.bounds[id], End: ix.bounds[id+1]}
}

// BucketFor returns the greatest boundary <= year, or the last boundary when
// year is at or beyond it. Years below the first boundary map to the first
// boundary; rejecting them is the caller's job.
func (ix *Index) BucketFor(year int) int {
	return ix.bounds[ix.position(year)]
}

// Lookup returns the reporting period containing year. ok is false when year
// lies outside [First, AdmitEnd).
func (ix *Index) Lookup(year int) (ID, bool) {
	if year < ix.First() || year >= ix.admitEnd {
		return 0, false
	}
	return ID(ix.position(year)), true
}

func (ix *Index) position(year int) int {
	// first boundary strictly greater than year
	i := sort.SearchInts(ix.bounds, year+1)
	if i == 0 {
		return 0
	}
	return i - 1
}
