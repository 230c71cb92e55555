// Package scan runs one pass over a document collection. Records are
// extracted and filtered by year, then fanned out to a fixed pool of
// workers. Each worker feeds its own partial aggregator; when the pass ends
// the partials are merged on the calling goroutine in worker order.
package scan

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/periodstats/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/periodstats/internal/period"
	apperrors "github.com/Adithya-Monish-Kumar-K/periodstats/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/periodstats/pkg/metrics"
)

// Aggregator receives the admitted documents of one worker. Implementations
// need no locking; a partial is only touched by its own worker.
type Aggregator interface {
	Observe(p period.ID, doc corpus.Document)
}

// Stats summarizes one pass.
type Stats struct {
	Scanned    int `json:"scanned"`
	Admitted   int `json:"admitted"`
	OutOfRange int `json:"outOfRange"`
	Skipped    int `json:"skipped"`
}

// Scanner is immutable after construction and may run any number of passes.
type Scanner struct {
	src     corpus.Source
	index   *period.Index
	fields  corpus.Fields
	workers int
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New creates a Scanner. m may be nil.
func New(src corpus.Source, index *period.Index, fields corpus.Fields, workers int, m *metrics.Metrics) *Scanner {
	if workers < 1 {
		workers = 1
	}
	return &Scanner{
		src:     src,
		index:   index,
		fields:  fields,
		workers: workers,
		metrics: m,
		logger:  slog.Default().With("component", "scanner"),
	}
}

type job struct {
	period period.ID
	doc    corpus.Document
}

// Run performs a pass named pass. newPartial is called once per worker;
// merge is then called with every partial, in worker order, after all
// workers have finished. Malformed records are skipped with a warning. The
// pass stops on cancellation or on a collection-access failure.
func (s *Scanner) Run(ctx context.Context, pass string, newPartial func() Aggregator, merge func(Aggregator)) (Stats, error) {
	start := time.Now()
	logger := s.logger.With("pass", pass)

	partials := make([]Aggregator, s.workers)
	for i := range partials {
		partials[i] = newPartial()
	}

	var stats Stats
	jobs := make(chan job, s.workers*64)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(jobs)
		return s.src.Walk(gctx, func(rec corpus.Record) error {
			stats.Scanned++
			doc, err := corpus.Extract(rec, s.fields)
			if err != nil {
				if apperrors.IsFatal(err) {
					return err
				}
				stats.Skipped++
				logger.Warn("skipping document", "origin", rec.Origin, "error", err)
				return nil
			}
			id, ok := s.index.Lookup(doc.Year)
			if !ok {
				stats.OutOfRange++
				return nil
			}
			stats.Admitted++
			select {
			case jobs <- job{period: id, doc: doc}:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	})

	for i := range partials {
		partial := partials[i]
		g.Go(func() error {
			for j := range jobs {
				if err := gctx.Err(); err != nil {
					return err
				}
				partial.Observe(j.period, j.doc)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			logger.Warn("pass cancelled", "scanned", stats.Scanned)
		}
		return stats, err
	}

	for _, partial := range partials {
		merge(partial)
	}

	s.record(pass, stats, time.Since(start))
	logger.Info("pass complete",
		"scanned", stats.Scanned,
		"admitted", stats.Admitted,
		"out_of_range", stats.OutOfRange,
		"skipped", stats.Skipped,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return stats, nil
}

func (s *Scanner) record(pass string, stats Stats, elapsed time.Duration) {
	if s.metrics == nil {
		return
	}
	s.metrics.PassDuration.WithLabelValues(pass).Observe(elapsed.Seconds())
	s.metrics.DocumentsTotal.WithLabelValues(pass, "admitted").Add(float64(stats.Admitted))
	s.metrics.DocumentsTotal.WithLabelValues(pass, "out_of_range").Add(float64(stats.OutOfRange))
	s.metrics.DocumentsTotal.WithLabelValues(pass, "skipped").Add(float64(stats.Skipped))
}
