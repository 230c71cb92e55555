// Package report holds the immutable result of a statistics run and writes
// it in the supported output formats: a human-readable text report, a JSON
// or CSV export of per-period series, and a YAML dump of the full report.
package report

import (
	"time"

	"github.com/Adithya-Monish-Kumar-K/periodstats/internal/period"
	"github.com/Adithya-Monish-Kumar-K/periodstats/internal/rank"
	"github.com/Adithya-Monish-Kumar-K/periodstats/internal/scan"
)

// Report is the complete result of one run. It is built once by the engine
// and never mutated afterwards.
type Report struct {
	RunID       string                `json:"runId" yaml:"runId"`
	GeneratedAt time.Time             `json:"generatedAt" yaml:"generatedAt"`
	Boundaries  []int                 `json:"boundaries" yaml:"boundaries"`
	Periods     []period.Span         `json:"periods" yaml:"periods"`
	Keywords    []Keyword             `json:"keywords" yaml:"keywords"`
	TopWords    []PeriodWords         `json:"topWords" yaml:"topWords"`
	Sentiment   *Sentiment            `json:"sentiment,omitempty" yaml:"sentiment,omitempty"`
	Passes      map[string]scan.Stats `json:"passes" yaml:"passes"`
	Timings     []Timing              `json:"timings,omitempty" yaml:"timings,omitempty"`
}

// Keyword is the per-period statistics of one keyword group.
type Keyword struct {
	Label    string          `json:"label" yaml:"label"`
	Synonyms []string        `json:"synonyms" yaml:"synonyms"`
	Periods  []KeywordPeriod `json:"periods" yaml:"periods"`
}

// KeywordPeriod holds one keyword's statistics for one period. Carried is
// set when the period had no documents and the aggregates were taken from
// the previous period.
type KeywordPeriod struct {
	Period      period.Span  `json:"period" yaml:"period"`
	Documents   int          `json:"documents" yaml:"documents"`
	DocFreq     int          `json:"docFreq" yaml:"docFreq"`
	Occurrences int          `json:"occurrences" yaml:"occurrences"`
	IDF         float64      `json:"idf" yaml:"idf"`
	Percentage  float64      `json:"percentage" yaml:"percentage"`
	Scores      rank.Summary `json:"scores" yaml:"scores"`
	Carried     bool         `json:"carried,omitempty" yaml:"carried,omitempty"`
}

// PeriodWords is the top-word ranking of one period.
type PeriodWords struct {
	Period      period.Span `json:"period" yaml:"period"`
	TotalTokens int         `json:"totalTokens" yaml:"totalTokens"`
	Words       []rank.Word `json:"words" yaml:"words"`
}

// Sentiment holds the per-period sentiment statistics.
type Sentiment struct {
	ExtractLength int               `json:"extractLength" yaml:"extractLength"`
	Periods       []SentimentPeriod `json:"periods" yaml:"periods"`
}

// SentimentPeriod combines the snippet score summary and the overall
// full-text value of one period.
type SentimentPeriod struct {
	Period            period.Span  `json:"period" yaml:"period"`
	Scores            rank.Summary `json:"scores" yaml:"scores"`
	Carried           bool         `json:"carried,omitempty" yaml:"carried,omitempty"`
	FullTextDocuments int          `json:"fullTextDocuments" yaml:"fullTextDocuments"`
	Overall           float64      `json:"overall" yaml:"overall"`
	OverallCarried    bool         `json:"overallCarried,omitempty" yaml:"overallCarried,omitempty"`
}

// Timing is the wall time of one engine stage.
type Timing struct {
	Stage      string `json:"stage" yaml:"stage"`
	DurationMS int64  `json:"durationMs" yaml:"durationMs"`
}
