// Package runner drives one statistics run end to end: it consults the
// report cache, runs the engine, writes the requested outputs and hands the
// report to the store and the publisher. Only the engine can fail a run;
// the backing services are best effort.
package runner

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/periodstats/internal/cache"
	"github.com/Adithya-Monish-Kumar-K/periodstats/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/periodstats/internal/engine"
	"github.com/Adithya-Monish-Kumar-K/periodstats/internal/publisher"
	"github.com/Adithya-Monish-Kumar-K/periodstats/internal/report"
	"github.com/Adithya-Monish-Kumar-K/periodstats/internal/store"
	"github.com/Adithya-Monish-Kumar-K/periodstats/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/periodstats/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/periodstats/pkg/resilience"
)

// Outputs names the files a run writes. An empty TextPath writes the text
// report to the runner's stdout; "-" suppresses it.
type Outputs struct {
	TextPath   string
	ExportPath string
	CSVPath    string
	YAMLPath   string
}

// OutputsFrom reads the output paths of cfg.
func OutputsFrom(cfg config.ReportConfig) Outputs {
	return Outputs{
		TextPath:   cfg.TextPath,
		ExportPath: cfg.ExportPath,
		CSVPath:    cfg.CSVPath,
		YAMLPath:   cfg.YAMLPath,
	}
}

// Runner owns the collaborators of a run. Cache, Store and Publisher may be
// nil.
type Runner struct {
	Config    *config.Config
	Engine    *engine.Config
	Source    corpus.Source
	Cache     *cache.ReportCache
	Store     store.Store
	Publisher *publisher.Publisher
	Metrics   *metrics.Metrics
	Stdout    io.Writer

	logger *slog.Logger
}

// Result describes what a run produced.
type Result struct {
	Report    *report.Report
	CacheHit  bool
	Saved     bool
	Published int
}

// Run executes the run and writes outs.
func (r *Runner) Run(ctx context.Context, outs Outputs) (*Result, error) {
	r.logger = slog.Default().With("component", "runner")
	compute := func(ctx context.Context) (*report.Report, error) {
		return engine.New(r.Engine, r.Source, r.Metrics).Run(ctx)
	}

	res := &Result{}
	var err error
	if key := r.cacheKey(); key != "" {
		res.Report, res.CacheHit, err = r.Cache.GetOrCompute(ctx, key, compute)
	} else {
		res.Report, err = compute(ctx)
	}
	if err != nil {
		return nil, err
	}
	if res.CacheHit {
		r.logger.Info("served report from cache", "run_id", res.Report.RunID)
	}

	export := report.BuildExport(res.Report)
	if err := report.Verify(export); err != nil {
		return nil, fmt.Errorf("building export: %w", err)
	}
	if err := r.write(outs, res.Report, export); err != nil {
		return nil, err
	}

	timeout := r.Config.Report.SinkTimeout
	if r.Store != nil && !res.CacheHit {
		err := resilience.WithTimeout(ctx, timeout, "store save", func(ctx context.Context) error {
			return r.Store.Save(ctx, res.Report)
		})
		if err != nil {
			r.logger.Error("report not saved", "run_id", res.Report.RunID, "error", err)
		} else {
			res.Saved = true
		}
	}
	if r.Publisher != nil {
		var n int
		err := resilience.WithTimeout(ctx, timeout, "publish", func(ctx context.Context) error {
			var err error
			n, err = r.Publisher.Publish(ctx, export)
			return err
		})
		if err != nil {
			r.logger.Error("export not published", "run_id", res.Report.RunID, "error", err)
		} else {
			res.Published = n
		}
	}
	return res, nil
}

func (r *Runner) cacheKey() string {
	if r.Cache == nil {
		return ""
	}
	fp, err := r.fingerprint()
	if err != nil {
		r.logger.Warn("input fingerprint failed, bypassing cache", "error", err)
		return ""
	}
	key, err := cache.Key(r.Config, fp)
	if err != nil {
		r.logger.Warn("cache key failed, bypassing cache", "error", err)
		return ""
	}
	return key
}

// fingerprint combines the fingerprints of every input a report depends on:
// the main collection and, when sentiment is configured, the snippet and
// full-text collections and the lexicon contents.
func (r *Runner) fingerprint() (string, error) {
	fp, err := r.Source.Fingerprint()
	if err != nil {
		return "", err
	}
	parts := []string{fp}
	if sc := r.Engine.Sentiment; sc != nil {
		for _, src := range []corpus.Source{sc.Snippets, sc.FullText} {
			sfp := "-"
			if src != nil {
				if sfp, err = src.Fingerprint(); err != nil {
					return "", err
				}
			}
			parts = append(parts, sfp)
		}
		parts = append(parts, sc.Lexicon.Fingerprint())
	}
	return strings.Join(parts, ":"), nil
}

func (r *Runner) write(outs Outputs, rep *report.Report, export report.Export) error {
	switch outs.TextPath {
	case "-":
	case "":
		if r.Stdout != nil {
			if err := report.WriteText(r.Stdout, rep); err != nil {
				return fmt.Errorf("writing text report: %w", err)
			}
		}
	default:
		if err := writeFile(outs.TextPath, func(w io.Writer) error { return report.WriteText(w, rep) }); err != nil {
			return err
		}
	}
	if outs.ExportPath != "" {
		if err := writeFile(outs.ExportPath, func(w io.Writer) error { return report.WriteJSON(w, export) }); err != nil {
			return err
		}
	}
	if outs.CSVPath != "" {
		err := writeFile(outs.CSVPath, func(w io.Writer) error {
			_, err := report.WriteCSV(w, export)
			return err
		})
		if err != nil {
			return err
		}
	}
	if outs.YAMLPath != "" {
		if err := writeFile(outs.YAMLPath, func(w io.Writer) error { return report.WriteYAML(w, rep) }); err != nil {
			return err
		}
	}
	return nil
}

// writeFile writes through a temporary file renamed into place, so readers
// never see a partial output.
func writeFile(path string, fill func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())
	if err := fill(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("renaming into %s: %w", path, err)
	}
	return nil
}
