package engine

import (
	"github.com/Adithya-Monish-Kumar-K/periodstats/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/periodstats/internal/keyword"
	"github.com/Adithya-Monish-Kumar-K/periodstats/internal/period"
	"github.com/Adithya-Monish-Kumar-K/periodstats/internal/sentiment"
	"github.com/Adithya-Monish-Kumar-K/periodstats/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/periodstats/pkg/errors"
)

// Config is the validated, immutable configuration of a run. Components
// receive it (or parts of it) at construction and never consult globals.
type Config struct {
	Index    *period.Index
	Keywords *keyword.Set
	Fields   corpus.Fields
	Workers  int
	TopN     int
	TopWords int
	// Trace logs the per-stage span tree at the end of a run.
	Trace bool

	// Sentiment is nil when the sentiment passes are disabled.
	Sentiment *SentimentConfig
}

// SentimentConfig configures the two sentiment passes. Either source may be
// nil to skip that pass.
type SentimentConfig struct {
	Lexicon       sentiment.Lexicon
	Snippets      corpus.Source
	FullText      corpus.Source
	Fields        corpus.Fields
	ExtractLength int
}

// NewConfig validates cfg and builds the run configuration. Any problem is
// returned as a configuration error.
func NewConfig(cfg *config.Config) (*Config, error) {
	index, err := buildIndex(cfg.Periods)
	if err != nil {
		return nil, err
	}
	set, err := keyword.Parse(cfg.Keywords)
	if err != nil {
		return nil, err
	}
	if cfg.Engine.Workers < 1 {
		return nil, apperrors.Configf("engine.workers must be at least 1, got %d", cfg.Engine.Workers)
	}
	if cfg.Engine.TopN < 0 || cfg.Engine.TopWords < 0 {
		return nil, apperrors.Configf("engine.topN and engine.topWords must not be negative")
	}
	if cfg.Corpus.TextField == "" {
		return nil, apperrors.Configf("corpus.textField is required")
	}
	if cfg.Corpus.Fields.Year == "" && cfg.Corpus.Fields.YearFallback == "" {
		return nil, apperrors.Configf("corpus.fields.year is required")
	}

	fields := corpus.Fields{
		ID:            cfg.Corpus.Fields.ID,
		Year:          cfg.Corpus.Fields.Year,
		YearFallback:  cfg.Corpus.Fields.YearFallback,
		Text:          cfg.Corpus.TextField,
		DropStopwords: cfg.Corpus.DropStopwords,
	}
	out := &Config{
		Index:    index,
		Keywords: set,
		Fields:   fields,
		Workers:  cfg.Engine.Workers,
		TopN:     cfg.Engine.TopN,
		TopWords: cfg.Engine.TopWords,
		Trace:    cfg.Tracing.Enabled,
	}

	if cfg.Sentiment.Enabled {
		sc, err := buildSentiment(cfg.Sentiment, fields)
		if err != nil {
			return nil, err
		}
		out.Sentiment = sc
	}
	return out, nil
}

func buildIndex(p config.PeriodsConfig) (*period.Index, error) {
	if p.Boundaries != "" {
		return period.ParseBoundaries(p.Boundaries)
	}
	return period.Build(p.Min, p.Max, p.Increment)
}

func buildSentiment(s config.SentimentConfig, fields corpus.Fields) (*SentimentConfig, error) {
	if s.Lexicon == "" {
		return nil, apperrors.Configf("sentiment.lexicon is required when sentiment is enabled")
	}
	if s.SnippetRoot == "" && s.FullTextRoot == "" {
		return nil, apperrors.Configf("sentiment needs a snippetRoot or a fullTextRoot")
	}
	if s.ExtractLength <= 0 {
		return nil, apperrors.Configf("sentiment.extractLength must be positive, got %d", s.ExtractLength)
	}
	lex, err := sentiment.LoadLexicon(s.Lexicon)
	if err != nil {
		return nil, err
	}
	sf := fields
	if s.TextField != "" {
		sf.Text = s.TextField
	}
	sc := &SentimentConfig{Lexicon: lex, Fields: sf, ExtractLength: s.ExtractLength}
	if s.SnippetRoot != "" {
		sc.Snippets = corpus.NewDirSource(s.SnippetRoot)
	}
	if s.FullTextRoot != "" {
		sc.FullText = corpus.NewDirSource(s.FullTextRoot)
	}
	return sc, nil
}
