// Package engine runs the statistics pipeline: a tally pass, a score pass
// that depends on the completed tally, the optional sentiment passes, and a
// final reduction into an immutable report.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Adithya-Monish-Kumar-K/periodstats/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/periodstats/internal/fallback"
	"github.com/Adithya-Monish-Kumar-K/periodstats/internal/frequency"
	"github.com/Adithya-Monish-Kumar-K/periodstats/internal/keyword"
	"github.com/Adithya-Monish-Kumar-K/periodstats/internal/period"
	"github.com/Adithya-Monish-Kumar-K/periodstats/internal/rank"
	"github.com/Adithya-Monish-Kumar-K/periodstats/internal/report"
	"github.com/Adithya-Monish-Kumar-K/periodstats/internal/scan"
	"github.com/Adithya-Monish-Kumar-K/periodstats/internal/score"
	"github.com/Adithya-Monish-Kumar-K/periodstats/internal/sentiment"
	"github.com/Adithya-Monish-Kumar-K/periodstats/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/periodstats/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/periodstats/pkg/tracing"
)

// Pass names, used in logs, metrics and Report.Passes.
const (
	PassTally     = "tally"
	PassScore     = "score"
	PassSentiment = "sentiment"
	PassOverall   = "overall"
)

// Engine runs statistics over one collection. It holds no per-run state and
// may run concurrently.
type Engine struct {
	cfg     *Config
	src     corpus.Source
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// New creates an Engine over src. m may be nil.
func New(cfg *Config, src corpus.Source, m *metrics.Metrics) *Engine {
	return &Engine{
		cfg:     cfg,
		src:     src,
		metrics: m,
		logger:  slog.Default().With("component", "engine"),
		now:     time.Now,
	}
}

// Config returns the engine's configuration.
func (e *Engine) Config() *Config { return e.cfg }

// run carries the state of one invocation between stages.
type run struct {
	id         string
	numPeriods int
	tally      *frequency.Tally
	table      *score.Table
	lists      map[keyword.Key][]score.Scored
	snippets   *sentiment.Aggregator
	fullText   *sentiment.Aggregator
	passes     map[string]scan.Stats
}

// Run executes every pass and returns the report. The run id is taken from
// ctx (logger.WithRunID) or generated.
func (e *Engine) Run(ctx context.Context) (*report.Report, error) {
	start := e.now()
	runID := logger.RunID(ctx)
	if runID == "" {
		runID = uuid.NewString()
		ctx = logger.WithRunID(ctx, runID)
	}
	log := e.logger.With("run_id", runID)
	ctx, root := tracing.StartSpan(ctx, "run", runID)

	r := &run{
		id:         runID,
		numPeriods: e.cfg.Index.Len(),
		passes:     make(map[string]scan.Stats),
	}
	log.Info("run started",
		"periods", r.numPeriods,
		"keywords", e.cfg.Keywords.Len(),
		"gram_length", e.cfg.Keywords.N(),
		"workers", e.cfg.Workers,
	)

	stages := []struct {
		name string
		fn   func(context.Context, *run) error
	}{
		{PassTally, e.tallyPass},
		{PassScore, e.scorePass},
		{PassSentiment, e.sentimentPass},
		{PassOverall, e.overallPass},
	}
	for _, stage := range stages {
		sctx, span := tracing.StartChildSpan(ctx, stage.name)
		err := stage.fn(sctx, r)
		if stats, ok := r.passes[stage.name]; ok {
			span.SetAttr("admitted", stats.Admitted)
			span.SetAttr("skipped", stats.Skipped)
		}
		span.End()
		if err != nil {
			e.countRun("error")
			log.Error("run failed", "stage", stage.name, "error", err)
			return nil, fmt.Errorf("%s pass: %w", stage.name, err)
		}
	}

	_, span := tracing.StartChildSpan(ctx, "reduce")
	rep := e.reduce(r)
	span.End()
	root.End()

	rep.GeneratedAt = start.UTC()
	root.Walk(func(depth int, s *tracing.Span) {
		if depth == 1 {
			rep.Timings = append(rep.Timings, report.Timing{Stage: s.Name, DurationMS: s.Duration.Milliseconds()})
		}
	})

	e.countRun("ok")
	if e.metrics != nil {
		e.metrics.RunDuration.Observe(root.Duration.Seconds())
		e.metrics.ReportPeriods.Set(float64(r.numPeriods))
	}
	if e.cfg.Trace {
		root.Log(log)
	}
	log.Info("run complete", "duration_ms", root.Duration.Milliseconds())
	return rep, nil
}

func (e *Engine) countRun(status string) {
	if e.metrics != nil {
		e.metrics.RunsTotal.WithLabelValues(status).Inc()
	}
}

func (e *Engine) scanner(src corpus.Source, fields corpus.Fields) *scan.Scanner {
	return scan.New(src, e.cfg.Index, fields, e.cfg.Workers, e.metrics)
}

func (e *Engine) tallyPass(ctx context.Context, r *run) error {
	set := e.cfg.Keywords
	r.tally = frequency.New(set, r.numPeriods)
	stats, err := e.scanner(e.src, e.cfg.Fields).Run(ctx, PassTally,
		func() scan.Aggregator { return frequency.New(set, r.numPeriods) },
		func(a scan.Aggregator) { r.tally.Merge(a.(*frequency.Tally)) },
	)
	r.passes[PassTally] = stats
	return err
}

func (e *Engine) scorePass(ctx context.Context, r *run) error {
	set := e.cfg.Keywords
	r.table = score.NewTable(set, r.tally)
	merged := score.NewScorer(set, r.table, r.numPeriods)
	stats, err := e.scanner(e.src, e.cfg.Fields).Run(ctx, PassScore,
		func() scan.Aggregator { return score.NewScorer(set, r.table, r.numPeriods) },
		func(a scan.Aggregator) { merged.Merge(a.(*score.Scorer)) },
	)
	r.passes[PassScore] = stats
	if err != nil {
		return err
	}
	r.lists = merged.Lists()
	return nil
}

func (e *Engine) sentimentPass(ctx context.Context, r *run) error {
	sc := e.cfg.Sentiment
	if sc == nil || sc.Snippets == nil {
		return nil
	}
	agg, stats, err := e.sentimentScan(ctx, r, sc.Snippets, PassSentiment)
	r.passes[PassSentiment] = stats
	r.snippets = agg
	return err
}

func (e *Engine) overallPass(ctx context.Context, r *run) error {
	sc := e.cfg.Sentiment
	if sc == nil || sc.FullText == nil {
		return nil
	}
	agg, stats, err := e.sentimentScan(ctx, r, sc.FullText, PassOverall)
	r.passes[PassOverall] = stats
	r.fullText = agg
	return err
}

func (e *Engine) sentimentScan(ctx context.Context, r *run, src corpus.Source, pass string) (*sentiment.Aggregator, scan.Stats, error) {
	sc := e.cfg.Sentiment
	merged := sentiment.NewAggregator(sc.Lexicon, r.numPeriods)
	stats, err := e.scanner(src, sc.Fields).Run(ctx, pass,
		func() scan.Aggregator { return sentiment.NewAggregator(sc.Lexicon, r.numPeriods) },
		func(a scan.Aggregator) { merged.Merge(a.(*sentiment.Aggregator)) },
	)
	return merged, stats, err
}

// reduce turns the accumulated structures into the report. It is pure: all
// carry-forward decisions are made here.
func (e *Engine) reduce(r *run) *report.Report {
	spans := e.cfg.Index.Spans()
	rep := &report.Report{
		RunID:      r.id,
		Boundaries: e.cfg.Index.Boundaries(),
		Periods:    spans,
		Passes:     r.passes,
	}

	empty := make([]bool, r.numPeriods)
	for p := range empty {
		empty[p] = r.tally.DocCount(period.ID(p)) == 0
	}

	for _, kw := range e.cfg.Keywords.Keywords() {
		summaries := make([]rank.Summary, r.numPeriods)
		idf := make([]float64, r.numPeriods)
		pct := make([]float64, r.numPeriods)
		for p := 0; p < r.numPeriods; p++ {
			key := keyword.Key{Period: period.ID(p), Keyword: kw.ID}
			summaries[p] = rank.Summarize(r.lists[key], e.cfg.TopN)
			idf[p] = r.table.IDF(key)
			pct[p] = r.tally.Percentage(key)
		}
		summaries, carried := fallback.Summaries(summaries)
		idfPoints := fallback.Resolve(idf, empty)
		pctPoints := fallback.Resolve(pct, empty)
		e.countFallbacks("score", carried)

		out := report.Keyword{Label: kw.Label, Synonyms: kw.Synonyms, Periods: make([]report.KeywordPeriod, r.numPeriods)}
		for p := 0; p < r.numPeriods; p++ {
			key := keyword.Key{Period: period.ID(p), Keyword: kw.ID}
			out.Periods[p] = report.KeywordPeriod{
				Period:      spans[p],
				Documents:   r.tally.DocCount(period.ID(p)),
				DocFreq:     r.tally.DocFreq(key),
				Occurrences: r.tally.Occurrences(key),
				IDF:         idfPoints[p].Value,
				Percentage:  pctPoints[p].Value,
				Scores:      summaries[p],
				Carried:     carried[p],
			}
		}
		rep.Keywords = append(rep.Keywords, out)
	}

	for p := 0; p < r.numPeriods; p++ {
		id := period.ID(p)
		rep.TopWords = append(rep.TopWords, report.PeriodWords{
			Period:      spans[p],
			TotalTokens: r.tally.TokenTotal(id),
			Words:       rank.TopWords(r.tally.Words(id), r.tally.TokenTotal(id), e.cfg.TopWords),
		})
	}

	if r.snippets != nil || r.fullText != nil {
		rep.Sentiment = e.reduceSentiment(r, spans)
	}
	return rep
}

func (e *Engine) reduceSentiment(r *run, spans []period.Span) *report.Sentiment {
	sc := e.cfg.Sentiment
	out := &report.Sentiment{ExtractLength: sc.ExtractLength, Periods: make([]report.SentimentPeriod, r.numPeriods)}

	summaries := make([]rank.Summary, r.numPeriods)
	carried := make([]bool, r.numPeriods)
	if r.snippets != nil {
		lists := r.snippets.Lists()
		for p := range summaries {
			summaries[p] = rank.Summarize(lists[p], e.cfg.TopN)
		}
		summaries, carried = fallback.Summaries(summaries)
		e.countFallbacks("sentiment", carried)
	}

	overall := make([]fallback.Point, r.numPeriods)
	if r.fullText != nil {
		values, empty := r.fullText.Overall(sc.ExtractLength)
		overall = fallback.Resolve(values, empty)
		flags := make([]bool, len(overall))
		for i, pt := range overall {
			flags[i] = pt.Carried
		}
		e.countFallbacks("overall_sentiment", flags)
	}

	for p := 0; p < r.numPeriods; p++ {
		sp := report.SentimentPeriod{
			Period:         spans[p],
			Scores:         summaries[p],
			Carried:        carried[p],
			Overall:        overall[p].Value,
			OverallCarried: overall[p].Carried,
		}
		if r.fullText != nil {
			sp.FullTextDocuments = r.fullText.Count(period.ID(p))
		}
		out.Periods[p] = sp
	}
	return out
}

func (e *Engine) countFallbacks(aggregate string, carried []bool) {
	n := 0
	for _, c := range carried {
		if c {
			n++
		}
	}
	if n == 0 {
		return
	}
	e.logger.Debug("carried aggregates forward", "aggregate", aggregate, "periods", n)
	if e.metrics != nil {
		e.metrics.FallbacksTotal.WithLabelValues(aggregate).Add(float64(n))
	}
}
