// Package publisher streams the export of a finished run to Kafka, one
// message per series keyed by keyword, so downstream dashboards can
// consume statistics without reading files.
package publisher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/periodstats/internal/report"
	"github.com/Adithya-Monish-Kumar-K/periodstats/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/periodstats/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/periodstats/pkg/resilience"
)

// RunIDHeader is the Kafka header carrying the run id of every message.
const RunIDHeader = "run_id"

// Producer is satisfied by *kafka.Producer.
type Producer interface {
	PublishBatch(ctx context.Context, events []kafka.Event) error
}

// SeriesRecord is the message value: one export series together with the
// period labels it is aligned to.
type SeriesRecord struct {
	RunID          string               `json:"run_id"`
	Keyword        string               `json:"keyword"`
	Boundaries     []int                `json:"boundaries"`
	Periods        []string             `json:"periods"`
	Values         map[string][]float64 `json:"values"`
	Carried        []bool               `json:"carried"`
	OverallCarried []bool               `json:"overall_carried,omitempty"`
	PublishedAt    time.Time            `json:"published_at"`
}

// Publisher publishes exports with retry.
type Publisher struct {
	producer Producer
	retry    resilience.RetryConfig
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      func() time.Time
}

// New creates a Publisher. m may be nil.
func New(producer Producer, m *metrics.Metrics) *Publisher {
	return &Publisher{
		producer: producer,
		retry: resilience.RetryConfig{
			MaxAttempts:  3,
			InitialDelay: 200 * time.Millisecond,
			MaxDelay:     2 * time.Second,
			Retryable: func(err error) bool {
				return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
			},
		},
		metrics: m,
		logger:  slog.Default().With("component", "publisher"),
		now:     time.Now,
	}
}

// Publish verifies e and writes one message per series in a single batch.
// It returns the number of records published.
func (p *Publisher) Publish(ctx context.Context, e report.Export) (int, error) {
	if err := report.Verify(e); err != nil {
		return 0, err
	}
	events := Events(e, p.now().UTC())
	if len(events) == 0 {
		return 0, nil
	}

	err := resilience.Retry(ctx, "publish-export", p.retry, func() error {
		return p.producer.PublishBatch(ctx, events)
	})
	if err != nil {
		p.count("error", len(events))
		p.logger.Error("failed to publish export", "run_id", e.RunID, "records", len(events), "error", err)
		return 0, fmt.Errorf("publishing export %s: %w", e.RunID, err)
	}
	p.count("ok", len(events))
	p.logger.Info("export published", "run_id", e.RunID, "records", len(events))
	return len(events), nil
}

// Events converts an export into Kafka events, one per series.
func Events(e report.Export, at time.Time) []kafka.Event {
	events := make([]kafka.Event, 0, len(e.Series))
	for _, s := range e.Series {
		events = append(events, kafka.Event{
			Key: s.Keyword,
			Value: SeriesRecord{
				RunID:          e.RunID,
				Keyword:        s.Keyword,
				Boundaries:     e.Boundaries,
				Periods:        e.Periods,
				Values:         s.Values,
				Carried:        s.Carried,
				OverallCarried: s.OverallCarried,
				PublishedAt:    at,
			},
			Headers: map[string]string{RunIDHeader: e.RunID},
		})
	}
	return events
}

func (p *Publisher) count(status string, n int) {
	if p.metrics != nil {
		p.metrics.RecordsPublished.WithLabelValues(status).Add(float64(n))
	}
}
