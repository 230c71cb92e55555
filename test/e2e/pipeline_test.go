// Package e2e runs the whole pipeline on a collection written to disk: the
// scanner reads JSON and JSONL files, the runner saves the report to SQLite,
// and the stats API serves it back over a real HTTP listener.
//
// Run with:
//
//	go test -v -timeout=120s ./test/e2e/...
package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/periodstats/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/periodstats/internal/engine"
	"github.com/Adithya-Monish-Kumar-K/periodstats/internal/report"
	"github.com/Adithya-Monish-Kumar-K/periodstats/internal/runner"
	"github.com/Adithya-Monish-Kumar-K/periodstats/internal/statsapi"
	"github.com/Adithya-Monish-Kumar-K/periodstats/internal/store"
	"github.com/Adithya-Monish-Kumar-K/periodstats/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/periodstats/pkg/health"
)

func writeCollection(t *testing.T) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "corpus")
	if err := os.MkdirAll(filepath.Join(root, "vol2"), 0o755); err != nil {
		t.Fatal(err)
	}
	files := map[string]string{
		"vol1.json": `[
			{"id": "a", "Year Published": 1705, "filtered": "the miss walked to the ship"},
			{"id": "b", "Year Published": "1712", "filtered": "a lady and a miss"}
		]`,
		"vol2/more.jsonl": strings.Join([]string{
			`{"id": "c", "Date": "March 3, 1731", "filtered": "miss miss lady"}`,
			``,
			`{"id": "d", "Year Published": 1744, "filtered": "no keyword here"}`,
			`{"id": "broken", "Year Published": 1744`,
		}, "\n"),
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(root, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func TestPipeline(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	cfg := config.Default()
	cfg.Corpus.Root = writeCollection(t)
	cfg.Keywords = "miss, lady/woman"
	cfg.Periods.Boundaries = "1700 1720 1740 1760"
	cfg.Store.Driver = store.DriverSQLite
	cfg.SQLite.Path = filepath.Join(dir, "reports.db")

	ec, err := engine.NewConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	s, err := store.Open(ctx, cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	r := &runner.Runner{Config: cfg, Engine: ec, Source: corpus.NewDirSource(cfg.Corpus.Root), Store: s}
	res, err := r.Run(ctx, runner.Outputs{TextPath: filepath.Join(dir, "report.txt")})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !res.Saved {
		t.Fatal("report not saved")
	}
	tally := res.Report.Passes[engine.PassTally]
	if tally.Admitted != 4 || tally.Skipped != 1 {
		t.Errorf("tally = %+v", tally)
	}

	checker := health.NewChecker()
	checker.Register("store", health.PingCheck(s.Ping, true))
	srv := httptest.NewServer(statsapi.NewRouter(statsapi.NewHandler(s, nil), statsapi.RouterConfig{
		Checker:        checker,
		RequestTimeout: 5 * time.Second,
	}))
	defer srv.Close()

	resp, err := http.Get(fmt.Sprintf("%s/api/v1/reports/%s/export", srv.URL, res.Report.RunID))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("export status = %d", resp.StatusCode)
	}
	var e report.Export
	if err := json.NewDecoder(resp.Body).Decode(&e); err != nil {
		t.Fatal(err)
	}
	if err := report.Verify(e); err != nil {
		t.Errorf("served export: %v", err)
	}
	if len(e.Series) != 2 || e.Series[0].Keyword != "miss" {
		t.Errorf("series = %+v", e.Series)
	}
	// every period holds documents, so nothing is carried
	for _, carried := range e.Series[0].Carried {
		if carried {
			t.Errorf("unexpected carried value: %v", e.Series[0].Carried)
		}
	}

	resp, err = http.Get(srv.URL + "/health/ready")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("ready status = %d", resp.StatusCode)
	}
}
