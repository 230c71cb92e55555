package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/periodstats/internal/report"
	apperrors "github.com/Adithya-Monish-Kumar-K/periodstats/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/periodstats/pkg/kafka"
)

type fakeProducer struct {
	fails   int
	calls   int
	batches [][]kafka.Event
}

func (f *fakeProducer) PublishBatch(_ context.Context, events []kafka.Event) error {
	f.calls++
	if f.calls <= f.fails {
		return errors.New("broker unavailable")
	}
	f.batches = append(f.batches, events)
	return nil
}

func export() report.Export {
	return report.Export{
		RunID:      "r1",
		Boundaries: []int{1700, 1720, 1740},
		Periods:    []string{"1700-1720", "1720-1740"},
		Series: []report.Series{
			{Keyword: "miss", Values: map[string][]float64{"avg": {0, 1}}, Carried: []bool{true, false}},
			{Keyword: report.SentimentKey, Values: map[string][]float64{"avg": {0.5, 0.5}}, Carried: []bool{false, true}},
		},
	}
}

func TestPublish(t *testing.T) {
	prod := &fakeProducer{fails: 1}
	p := New(prod, nil)
	p.retry.InitialDelay = time.Millisecond
	p.retry.MaxDelay = time.Millisecond

	n, err := p.Publish(context.Background(), export())
	if err != nil || n != 2 {
		t.Fatalf("n = %d err = %v", n, err)
	}
	if prod.calls != 2 || len(prod.batches) != 1 {
		t.Fatalf("calls = %d batches = %d", prod.calls, len(prod.batches))
	}
	ev := prod.batches[0][0]
	if ev.Key != "miss" || ev.Headers[RunIDHeader] != "r1" {
		t.Errorf("event = %+v", ev)
	}
	raw, err := json.Marshal(ev.Value)
	if err != nil {
		t.Fatal(err)
	}
	var rec SeriesRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		t.Fatal(err)
	}
	if rec.RunID != "r1" || len(rec.Periods) != 2 || rec.Values["avg"][1] != 1 || !rec.Carried[0] {
		t.Errorf("record = %+v", rec)
	}
}

func TestPublishRejectsMisalignedExport(t *testing.T) {
	prod := &fakeProducer{}
	e := export()
	e.Series[0].Carried = []bool{true}
	if _, err := New(prod, nil).Publish(context.Background(), e); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Errorf("err = %v", err)
	}
	if prod.calls != 0 {
		t.Errorf("producer called %d times", prod.calls)
	}
}

func TestPublishGivesUp(t *testing.T) {
	prod := &fakeProducer{fails: 10}
	p := New(prod, nil)
	p.retry.InitialDelay = time.Millisecond
	p.retry.MaxDelay = time.Millisecond
	if _, err := p.Publish(context.Background(), export()); err == nil {
		t.Error("expected an error")
	}
	if prod.calls != 3 {
		t.Errorf("calls = %d, want 3", prod.calls)
	}
}
