// Package integration contains tests that run the report store and cache
// against real PostgreSQL and Redis instances. Each test skips itself when
// its dependency is unreachable.
//
// Run with:
//
//	go test -v ./test/integration/...
package integration

import (
	"context"
	"errors"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Adithya-Monish-Kumar-K/periodstats/internal/cache"
	"github.com/Adithya-Monish-Kumar-K/periodstats/internal/period"
	"github.com/Adithya-Monish-Kumar-K/periodstats/internal/report"
	"github.com/Adithya-Monish-Kumar-K/periodstats/internal/store"
	"github.com/Adithya-Monish-Kumar-K/periodstats/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/periodstats/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/periodstats/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/periodstats/pkg/redis"
)

// skipIfNoPostgres skips the test when PostgreSQL is unavailable.
func skipIfNoPostgres(t *testing.T) *postgres.Client {
	t.Helper()
	db, err := postgres.New(context.Background(), testPostgresConfig())
	if err != nil {
		t.Skipf("skipping integration test: postgres unavailable: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func skipIfNoRedis(t *testing.T) *pkgredis.Client {
	t.Helper()
	client, err := pkgredis.NewClient(context.Background(), config.RedisConfig{
		Addr:     envOrDefault("TEST_REDIS_ADDR", "localhost:6379"),
		PoolSize: 2,
	})
	if err != nil {
		t.Skipf("skipping integration test: redis unavailable: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func testPostgresConfig() config.PostgresConfig {
	return config.PostgresConfig{
		Host:            envOrDefault("TEST_POSTGRES_HOST", "localhost"),
		Port:            envOrDefaultInt("TEST_POSTGRES_PORT", 5432),
		Database:        envOrDefault("TEST_POSTGRES_DB", "periodstats_test"),
		User:            envOrDefault("TEST_POSTGRES_USER", "periodstats"),
		Password:        envOrDefault("TEST_POSTGRES_PASSWORD", "localdev"),
		SSLMode:         "disable",
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: 5 * time.Minute,
	}
}

func sampleReport() *report.Report {
	return &report.Report{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC().Truncate(time.Microsecond),
		Boundaries:  []int{1700, 1750, 1800},
		Periods:     []period.Span{{ID: 0, Start: 1700, End: 1750}, {ID: 1, Start: 1750, End: 1800}},
		Keywords:    []report.Keyword{{Label: "miss", Synonyms: []string{"miss"}}},
	}
}

func TestPostgresStore(t *testing.T) {
	db := skipIfNoPostgres(t)
	ctx := context.Background()
	s, err := store.NewPostgres(ctx, db)
	if err != nil {
		t.Fatalf("NewPostgres: %v", err)
	}

	rep := sampleReport()
	if err := s.Save(ctx, rep); err != nil {
		t.Fatalf("Save: %v", err)
	}
	t.Cleanup(func() {
		db.DB.Exec(`DELETE FROM period_reports WHERE run_id = $1`, rep.RunID)
	})

	got, err := s.Get(ctx, rep.RunID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.RunID != rep.RunID || len(got.Boundaries) != 3 || !got.GeneratedAt.Equal(rep.GeneratedAt) {
		t.Errorf("got %+v", got)
	}
	if _, err := s.Get(ctx, "no-such-run"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("missing run: err = %v", err)
	}
	entries, err := s.List(ctx, 100)
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, e := range entries {
		found = found || e.RunID == rep.RunID
	}
	if !found {
		t.Error("saved run not listed")
	}
}

func TestRedisReportCache(t *testing.T) {
	client := skipIfNoRedis(t)
	ctx := context.Background()
	c := cache.New(client, time.Minute, nil)
	key := "report:integration-" + uuid.NewString()

	computed := 0
	compute := func(context.Context) (*report.Report, error) {
		computed++
		return sampleReport(), nil
	}
	first, hit, err := c.GetOrCompute(ctx, key, compute)
	if err != nil || hit {
		t.Fatalf("first: hit = %v err = %v", hit, err)
	}
	second, hit, err := c.GetOrCompute(ctx, key, compute)
	if err != nil || !hit {
		t.Fatalf("second: hit = %v err = %v", hit, err)
	}
	if computed != 1 || second.RunID != first.RunID {
		t.Errorf("computed = %d, run ids %s / %s", computed, first.RunID, second.RunID)
	}
	if err := client.Del(ctx, key); err != nil {
		t.Errorf("cleanup: %v", err)
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
