// Package cache stores finished reports in Redis, keyed by everything that
// determines a report: the statistics settings and the collection
// fingerprint. Cache failures are logged and never fail a run.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"
	"gopkg.in/yaml.v3"

	"github.com/Adithya-Monish-Kumar-K/periodstats/internal/report"
	"github.com/Adithya-Monish-Kumar-K/periodstats/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/periodstats/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/periodstats/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/periodstats/pkg/resilience"
)

const keyPrefix = "report:"

// ErrMiss may be returned by a Backend for a missing key. Redis nil replies
// are treated the same way.
var ErrMiss = errors.New("cache miss")

// Backend is the subset of pkg/redis.Client the cache needs.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

// ReportCache is a read-through report cache.
type ReportCache struct {
	backend Backend
	ttl     time.Duration
	breaker *resilience.CircuitBreaker
	group   singleflight.Group
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New creates a ReportCache over backend. m may be nil.
func New(backend Backend, ttl time.Duration, m *metrics.Metrics) *ReportCache {
	cbCfg := resilience.CircuitBreakerConfig{FailureThreshold: 3, ResetTimeout: 30 * time.Second}
	if m != nil {
		cbCfg.OnStateChange = func(name string, _, to resilience.State) {
			m.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
		}
	}
	return &ReportCache{
		backend: backend,
		ttl:     ttl,
		breaker: resilience.NewCircuitBreaker("report-cache", cbCfg),
		metrics: m,
		logger:  slog.Default().With("component", "report-cache"),
	}
}

// Key derives the cache key of a run from the settings that influence the
// report and the collection fingerprint. Service settings (ports, brokers,
// log level) are deliberately left out.
func Key(cfg *config.Config, fingerprint string) (string, error) {
	material := struct {
		Corpus      config.CorpusConfig    `yaml:"corpus"`
		Periods     config.PeriodsConfig   `yaml:"periods"`
		Keywords    string                 `yaml:"keywords"`
		TopN        int                    `yaml:"topN"`
		TopWords    int                    `yaml:"topWords"`
		Sentiment   config.SentimentConfig `yaml:"sentiment"`
		Fingerprint string                 `yaml:"fingerprint"`
	}{
		Corpus:      cfg.Corpus,
		Periods:     cfg.Periods,
		Keywords:    cfg.Keywords,
		TopN:        cfg.Engine.TopN,
		TopWords:    cfg.Engine.TopWords,
		Sentiment:   cfg.Sentiment,
		Fingerprint: fingerprint,
	}
	raw, err := yaml.Marshal(material)
	if err != nil {
		return "", fmt.Errorf("encoding cache key material: %w", err)
	}
	hash := sha256.Sum256(raw)
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16]), nil
}

// Get returns the cached report for key.
func (c *ReportCache) Get(ctx context.Context, key string) (*report.Report, bool) {
	var data []byte
	err := c.breaker.Execute(func() error {
		var err error
		data, err = c.backend.Get(ctx, key)
		if isMiss(err) {
			return nil
		}
		return err
	})
	if err != nil {
		c.logger.Warn("cache get failed", "key", key, "error", err)
		c.countMiss()
		return nil, false
	}
	if data == nil {
		c.countMiss()
		return nil, false
	}
	var rep report.Report
	if err := json.Unmarshal(data, &rep); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.countMiss()
		return nil, false
	}
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.Inc()
	}
	c.logger.Debug("cache hit", "key", key, "run_id", rep.RunID)
	return &rep, true
}

// Set stores rep under key.
func (c *ReportCache) Set(ctx context.Context, key string, rep *report.Report) {
	data, err := json.Marshal(rep)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	err = c.breaker.Execute(func() error {
		return c.backend.Set(ctx, key, data, c.ttl)
	})
	if err != nil {
		c.logger.Warn("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached report for key, or runs compute and caches
// its result. Concurrent callers for the same key share one computation. The
// boolean reports a cache hit.
func (c *ReportCache) GetOrCompute(ctx context.Context, key string, compute func(context.Context) (*report.Report, error)) (*report.Report, bool, error) {
	if rep, ok := c.Get(ctx, key); ok {
		return rep, true, nil
	}
	val, err, _ := c.group.Do(key, func() (any, error) {
		rep, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		c.Set(ctx, key, rep)
		return rep, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.(*report.Report), false, nil
}

// Invalidate removes every cached report.
func (c *ReportCache) Invalidate(ctx context.Context) (int64, error) {
	deleted, err := c.backend.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return deleted, fmt.Errorf("invalidating report cache: %w", err)
	}
	c.logger.Info("cache invalidated", "keys_deleted", deleted)
	return deleted, nil
}

func (c *ReportCache) countMiss() {
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
}

func isMiss(err error) bool {
	return err != nil && (errors.Is(err, ErrMiss) || pkgredis.IsNilError(err))
}
