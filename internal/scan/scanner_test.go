package scan

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Adithya-Monish-Kumar-K/periodstats/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/periodstats/internal/period"
	apperrors "github.com/Adithya-Monish-Kumar-K/periodstats/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/periodstats/pkg/metrics"
)

type collector struct {
	seen map[period.ID][]int
}

func (c *collector) Observe(p period.ID, doc corpus.Document) {
	c.seen[p] = append(c.seen[p], doc.Seq)
}

var fields = corpus.Fields{ID: "id", Year: "Year Published", YearFallback: "Date", Text: "filtered"}

func doc(year any) map[string]any {
	return map[string]any{"Year Published": year, "filtered": "miss bennet"}
}

func TestRunRoutesAndMerges(t *testing.T) {
	ix, _ := period.FromBoundaries([]int{1700, 1720, 1740, 1760})
	src := corpus.NewMemorySource(
		doc(1705), doc(1725), doc(1699), doc("unknown"), doc(1760), doc(1739), doc(1741),
	)
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegisterer(reg)

	for _, workers := range []int{1, 3} {
		s := New(src, ix, fields, workers, m)
		merged := map[period.ID][]int{}
		stats, err := s.Run(context.Background(), "tally",
			func() Aggregator { return &collector{seen: map[period.ID][]int{}} },
			func(a Aggregator) {
				for p, seqs := range a.(*collector).seen {
					merged[p] = append(merged[p], seqs...)
				}
			},
		)
		if err != nil {
			t.Fatalf("workers=%d: %v", workers, err)
		}
		want := Stats{Scanned: 7, Admitted: 4, OutOfRange: 2, Skipped: 1}
		if stats != want {
			t.Errorf("workers=%d: stats = %+v, want %+v", workers, stats, want)
		}
		for _, seqs := range merged {
			sort.Ints(seqs)
		}
		if got := merged[0]; len(got) != 1 || got[0] != 0 {
			t.Errorf("period 0 = %v", got)
		}
		if got := merged[1]; len(got) != 2 || got[0] != 1 || got[1] != 5 {
			t.Errorf("period 1 = %v", got)
		}
		if got := merged[2]; len(got) != 1 || got[0] != 6 {
			t.Errorf("period 2 = %v", got)
		}
	}

	if got := counterValue(t, reg, "periodstats_documents_total", "skipped"); got != 2 {
		t.Errorf("skipped metric = %v, want 2", got)
	}
}

func TestRunFatalOnMissingRoot(t *testing.T) {
	ix, _ := period.FromBoundaries([]int{1700, 1800})
	s := New(corpus.NewDirSource(filepath.Join(t.TempDir(), "nope")), ix, fields, 2, nil)
	merged := 0
	_, err := s.Run(context.Background(), "tally",
		func() Aggregator { return &collector{seen: map[period.ID][]int{}} },
		func(Aggregator) { merged++ },
	)
	if !errors.Is(err, apperrors.ErrCollectionAccess) {
		t.Errorf("err = %v, want collection access error", err)
	}
	if merged != 0 {
		t.Error("partials must not be merged after a failed pass")
	}
}

func TestRunCancelled(t *testing.T) {
	ix, _ := period.FromBoundaries([]int{1700, 1800})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := New(corpus.NewMemorySource(doc(1710), doc(1720)), ix, fields, 2, nil)
	_, err := s.Run(ctx, "score",
		func() Aggregator { return &collector{seen: map[period.ID][]int{}} },
		func(Aggregator) {},
	)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func counterValue(t *testing.T, reg *prometheus.Registry, name, outcome string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			for _, l := range metric.GetLabel() {
				if l.GetName() == "outcome" && l.GetValue() == outcome {
					return metric.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}
