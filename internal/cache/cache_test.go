package cache

import (
	"context"
	"errors"
	"path"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/periodstats/internal/report"
	"github.com/Adithya-Monish-Kumar-K/periodstats/pkg/config"
)

type memBackend struct {
	mu   sync.Mutex
	data map[string][]byte
	err  error
}

func newMemBackend() *memBackend {
	return &memBackend{data: make(map[string][]byte)}
}

func (b *memBackend) Get(_ context.Context, key string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return nil, b.err
	}
	v, ok := b.data[key]
	if !ok {
		return nil, ErrMiss
	}
	return v, nil
}

func (b *memBackend) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	b.data[key] = value
	return nil
}

func (b *memBackend) FlushByPattern(_ context.Context, pattern string) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var n int64
	for k := range b.data {
		if ok, _ := path.Match(pattern, k); ok {
			delete(b.data, k)
			n++
		}
	}
	return n, nil
}

func TestKey(t *testing.T) {
	cfg := config.Default()
	cfg.Keywords = "miss"
	a, err := Key(cfg, "fp1")
	if err != nil {
		t.Fatal(err)
	}
	b, _ := Key(cfg, "fp1")
	if a != b {
		t.Errorf("key not stable: %s vs %s", a, b)
	}
	if c, _ := Key(cfg, "fp2"); c == a {
		t.Error("fingerprint change did not change the key")
	}
	cfg.Server.Port = 1
	if d, _ := Key(cfg, "fp1"); d != a {
		t.Error("server settings changed the key")
	}
	cfg.Keywords = "lady"
	if e, _ := Key(cfg, "fp1"); e == a {
		t.Error("keyword change did not change the key")
	}
}

func TestGetOrCompute(t *testing.T) {
	c := New(newMemBackend(), time.Hour, nil)
	var calls atomic.Int32
	compute := func(context.Context) (*report.Report, error) {
		calls.Add(1)
		return &report.Report{RunID: "r1", Boundaries: []int{1700, 1800}}, nil
	}

	rep, hit, err := c.GetOrCompute(context.Background(), "report:k", compute)
	if err != nil || hit || rep.RunID != "r1" {
		t.Fatalf("first call: rep = %+v hit = %v err = %v", rep, hit, err)
	}
	rep, hit, err = c.GetOrCompute(context.Background(), "report:k", compute)
	if err != nil || !hit || rep.RunID != "r1" || len(rep.Boundaries) != 2 {
		t.Fatalf("second call: rep = %+v hit = %v err = %v", rep, hit, err)
	}
	if calls.Load() != 1 {
		t.Errorf("compute ran %d times", calls.Load())
	}

	n, err := c.Invalidate(context.Background())
	if err != nil || n != 1 {
		t.Errorf("invalidate: n = %d err = %v", n, err)
	}
	if _, ok := c.Get(context.Background(), "report:k"); ok {
		t.Error("report survived invalidation")
	}
}

func TestBackendFailureDoesNotFailRun(t *testing.T) {
	b := newMemBackend()
	b.err = errors.New("connection refused")
	c := New(b, time.Hour, nil)
	rep, hit, err := c.GetOrCompute(context.Background(), "report:k", func(context.Context) (*report.Report, error) {
		return &report.Report{RunID: "r2"}, nil
	})
	if err != nil || hit || rep.RunID != "r2" {
		t.Errorf("rep = %+v hit = %v err = %v", rep, hit, err)
	}
}

func TestComputeErrorIsReturned(t *testing.T) {
	c := New(newMemBackend(), time.Hour, nil)
	boom := errors.New("boom")
	_, _, err := c.GetOrCompute(context.Background(), "report:k", func(context.Context) (*report.Report, error) {
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("err = %v", err)
	}
}
