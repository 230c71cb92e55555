package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/Adithya-Monish-Kumar-K/periodstats/internal/cache"
	"github.com/Adithya-Monish-Kumar-K/periodstats/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/periodstats/internal/engine"
	"github.com/Adithya-Monish-Kumar-K/periodstats/internal/keyword"
	"github.com/Adithya-Monish-Kumar-K/periodstats/internal/period"
	"github.com/Adithya-Monish-Kumar-K/periodstats/internal/publisher"
	"github.com/Adithya-Monish-Kumar-K/periodstats/internal/report"
	"github.com/Adithya-Monish-Kumar-K/periodstats/internal/runner"
	"github.com/Adithya-Monish-Kumar-K/periodstats/internal/store"
	"github.com/Adithya-Monish-Kumar-K/periodstats/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/periodstats/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/periodstats/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/periodstats/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/periodstats/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/periodstats/pkg/redis"
)

var runFlags = []cli.Flag{
	&cli.StringFlag{Name: "root", Usage: "collection directory (corpus.root)"},
	&cli.StringFlag{Name: "keywords", Aliases: []string{"k"}, Usage: `keyword groups, e.g. "miss, lady/woman"`},
	&cli.StringFlag{Name: "boundaries", Aliases: []string{"b"}, Usage: `explicit period boundaries, e.g. "1700 1750 1800"`},
	&cli.IntFlag{Name: "min", Usage: "first year (with --max and --increment)"},
	&cli.IntFlag{Name: "max", Usage: "last year"},
	&cli.IntFlag{Name: "increment", Usage: "period length in years"},
	&cli.StringFlag{Name: "text-field", Usage: "record field holding the document text"},
	&cli.IntFlag{Name: "workers", Aliases: []string{"w"}, Usage: "scanner workers"},
	&cli.IntFlag{Name: "top", Usage: "documents listed per top and bottom ranking"},
	&cli.BoolFlag{Name: "stopwords", Usage: "drop English stopwords before counting"},
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "scan the collection and write the report",
		Flags: append(append([]cli.Flag{}, runFlags...),
			&cli.StringFlag{Name: "text", Usage: `text report path ("-" for none, default stdout)`},
			&cli.StringFlag{Name: "json", Usage: "export JSON path"},
			&cli.StringFlag{Name: "csv", Usage: "export CSV path"},
			&cli.StringFlag{Name: "yaml", Usage: "full report YAML path"},
			&cli.StringFlag{Name: "store", Usage: "save the report: postgres or sqlite"},
			&cli.BoolFlag{Name: "publish", Usage: "publish the export to Kafka"},
			&cli.BoolFlag{Name: "cache", Usage: "use the Redis report cache"},
			&cli.BoolFlag{Name: "trace", Usage: "log per-pass timings"},
		),
		Action: runAction,
	}
}

func periodsCommand() *cli.Command {
	return &cli.Command{
		Name:   "periods",
		Usage:  "print the configured periods",
		Flags:  runFlags,
		Action: periodsAction,
	}
}

func keywordsCommand() *cli.Command {
	return &cli.Command{
		Name:   "keywords",
		Usage:  "print the parsed keyword groups",
		Flags:  runFlags,
		Action: keywordsAction,
	}
}

func verifyExportCommand() *cli.Command {
	return &cli.Command{
		Name:      "verify-export",
		Usage:     "check that an export JSON file is aligned with its periods",
		ArgsUsage: "<export.json>",
		Action:    verifyExportAction,
	}
}

func reportsCommand() *cli.Command {
	return &cli.Command{
		Name:  "reports",
		Usage: "list reports in the configured store",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "store", Usage: "postgres or sqlite"},
			&cli.IntFlag{Name: "limit", Value: 20, Usage: "number of reports"},
		},
		Action: reportsAction,
	}
}

func cacheClearCommand() *cli.Command {
	return &cli.Command{
		Name:   "cache-clear",
		Usage:  "delete every cached report from Redis",
		Action: cacheClearAction,
	}
}

// loadConfig reads the global --config file and applies command-line
// overrides on top of file and environment values.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, apperrors.Configf("%v", err)
	}
	if v := c.String("log-level"); v != "" {
		cfg.Logging.Level = v
	}
	if v := c.String("log-format"); v != "" {
		cfg.Logging.Format = v
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	if c.IsSet("root") {
		cfg.Corpus.Root = c.String("root")
	}
	if c.IsSet("keywords") {
		cfg.Keywords = c.String("keywords")
	}
	if c.IsSet("boundaries") {
		cfg.Periods.Boundaries = c.String("boundaries")
	}
	if c.IsSet("min") || c.IsSet("max") || c.IsSet("increment") {
		cfg.Periods.Boundaries = ""
		if c.IsSet("min") {
			cfg.Periods.Min = c.Int("min")
		}
		if c.IsSet("max") {
			cfg.Periods.Max = c.Int("max")
		}
		if c.IsSet("increment") {
			cfg.Periods.Increment = c.Int("increment")
		}
	}
	if c.IsSet("text-field") {
		cfg.Corpus.TextField = c.String("text-field")
	}
	if c.IsSet("workers") {
		cfg.Engine.Workers = c.Int("workers")
	}
	if c.IsSet("top") {
		cfg.Engine.TopN = c.Int("top")
	}
	if c.IsSet("stopwords") {
		cfg.Corpus.DropStopwords = c.Bool("stopwords")
	}
	if c.IsSet("store") {
		cfg.Store.Driver = c.String("store")
	}
	if c.IsSet("trace") {
		cfg.Tracing.Enabled = c.Bool("trace")
	}
	if c.IsSet("publish") {
		cfg.Report.Publish = c.Bool("publish")
	}
	if c.IsSet("cache") {
		cfg.Cache.Enabled = c.Bool("cache")
	}
	return cfg, nil
}

func runAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	ec, err := engine.NewConfig(cfg)
	if err != nil {
		return err
	}
	ctx := c.Context

	m := metrics.New()
	if cfg.Metrics.Enabled {
		shutdown, err := metrics.StartServer(cfg.Metrics.Port)
		if err != nil {
			slog.Warn("metrics server disabled", "error", err)
		} else {
			defer shutdownWithin(shutdown, 5*time.Second)
		}
	}

	r := &runner.Runner{
		Config:  cfg,
		Engine:  ec,
		Source:  corpus.NewDirSource(cfg.Corpus.Root),
		Metrics: m,
		Stdout:  c.App.Writer,
	}

	if cfg.Cache.Enabled {
		client, err := pkgredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			slog.Warn("report cache unavailable", "addr", cfg.Redis.Addr, "error", err)
		} else {
			defer client.Close()
			r.Cache = cache.New(client, cfg.Cache.TTL, m)
		}
	}
	if cfg.Store.Driver != "" {
		s, err := store.Open(ctx, cfg)
		if err != nil {
			slog.Warn("report store unavailable", "driver", cfg.Store.Driver, "error", err)
		} else {
			defer s.Close()
			r.Store = s
		}
	}
	if cfg.Report.Publish {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.PeriodStats)
		defer producer.Close()
		r.Publisher = publisher.New(producer, m)
	}

	outs := runner.OutputsFrom(cfg.Report)
	for flag, dst := range map[string]*string{
		"text": &outs.TextPath,
		"json": &outs.ExportPath,
		"csv":  &outs.CSVPath,
		"yaml": &outs.YAMLPath,
	} {
		if c.IsSet(flag) {
			*dst = c.String(flag)
		}
	}

	res, err := r.Run(ctx, outs)
	if err != nil {
		return err
	}
	slog.Info("run finished",
		"run_id", res.Report.RunID,
		"cache_hit", res.CacheHit,
		"saved", res.Saved,
		"published", res.Published,
	)
	return nil
}

func periodsAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	var ix *period.Index
	if cfg.Periods.Boundaries != "" {
		ix, err = period.ParseBoundaries(cfg.Periods.Boundaries)
	} else {
		ix, err = period.Build(cfg.Periods.Min, cfg.Periods.Max, cfg.Periods.Increment)
	}
	if err != nil {
		return err
	}
	w := c.App.Writer
	for _, span := range ix.Spans() {
		fmt.Fprintf(w, "%-4d %s\n", span.ID, span)
	}
	fmt.Fprintf(w, "\nTotal: %d periods, boundaries %v\n", ix.Len(), ix.Boundaries())
	return nil
}

func keywordsAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	set, err := keyword.Parse(cfg.Keywords)
	if err != nil {
		return err
	}
	w := c.App.Writer
	for _, kw := range set.Keywords() {
		fmt.Fprintf(w, "%-4d %-30s %s\n", kw.ID, kw.Label, strings.Join(kw.Synonyms, " | "))
	}
	fmt.Fprintf(w, "\nTotal: %d keywords, gram length %d\n", set.Len(), set.N())
	return nil
}

func verifyExportAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("verify-export needs exactly one export file", exitFailure)
	}
	path := c.Args().First()
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening export: %w", err)
	}
	defer f.Close()
	e, err := report.ReadJSON(f)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	fmt.Fprintf(c.App.Writer, "%s: ok (run %s, %d periods, %d series)\n", path, e.RunID, len(e.Periods), len(e.Series))
	return nil
}

func reportsAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if cfg.Store.Driver == "" {
		return apperrors.Configf("no report store configured (store.driver or --store)")
	}
	s, err := store.Open(c.Context, cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	entries, err := s.List(c.Context, c.Int("limit"))
	if err != nil {
		return err
	}
	w := c.App.Writer
	if len(entries) == 0 {
		fmt.Fprintln(w, "No reports found")
		return nil
	}
	fmt.Fprintf(w, "%-38s %-20s %-8s %-8s\n", "Run", "Generated", "Periods", "Keywords")
	fmt.Fprintln(w, strings.Repeat("-", 78))
	for _, e := range entries {
		fmt.Fprintf(w, "%-38s %-20s %-8d %-8d\n", e.RunID, e.GeneratedAt.Format("2006-01-02 15:04:05"), e.Periods, e.Keywords)
	}
	fmt.Fprintf(w, "\nTotal: %d reports\n", len(entries))
	return nil
}

func cacheClearAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	client, err := pkgredis.NewClient(c.Context, cfg.Redis)
	if err != nil {
		return err
	}
	defer client.Close()
	deleted, err := cache.New(client, cfg.Cache.TTL, nil).Invalidate(c.Context)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "deleted %d cached reports\n", deleted)
	return nil
}

func shutdownWithin(shutdown func(context.Context) error, d time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		slog.Warn("metrics server shutdown", "error", err)
	}
}
