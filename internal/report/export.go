package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"gopkg.in/yaml.v3"

	apperrors "github.com/Adithya-Monish-Kumar-K/periodstats/pkg/errors"
)

// SentimentKey is the Series.Keyword value of the sentiment record.
const SentimentKey = "sentiment"

// Export is the structured, chart-ready form of a Report. Every value array
// is aligned index-for-index with Periods, which has len(Boundaries)-1
// entries.
type Export struct {
	RunID      string   `json:"runId"`
	Boundaries []int    `json:"boundaries"`
	Periods    []string `json:"periods"`
	Series     []Series `json:"series"`
}

// Series is one record of the export: the per-period values of one keyword,
// or of sentiment when Keyword is SentimentKey. The sentiment series flags
// the overall statistic in OverallCarried.
type Series struct {
	Keyword        string               `json:"keyword"`
	Values         map[string][]float64 `json:"values"`
	Carried        []bool               `json:"carried"`
	OverallCarried []bool               `json:"overallCarried,omitempty"`
}

// CarriedFor returns the carry flags that apply to stat.
func (s Series) CarriedFor(stat string) []bool {
	if stat == StatOverall && s.OverallCarried != nil {
		return s.OverallCarried
	}
	return s.Carried
}

// Statistic names used in Series.Values.
const (
	StatAvg        = "avg"
	StatMax        = "max"
	StatMin        = "min"
	StatIDF        = "idf"
	StatPercentage = "percentage"
	StatOverall    = "overall"
)

var keywordStats = []string{StatAvg, StatMax, StatMin, StatIDF, StatPercentage}
var sentimentStats = []string{StatAvg, StatMax, StatMin, StatOverall}

// BuildExport flattens r into parallel per-period arrays.
func BuildExport(r *Report) Export {
	e := Export{
		RunID:      r.RunID,
		Boundaries: append([]int(nil), r.Boundaries...),
		Periods:    make([]string, len(r.Periods)),
	}
	for i, span := range r.Periods {
		e.Periods[i] = span.String()
	}
	for _, kw := range r.Keywords {
		s := newSeries(kw.Label, keywordStats, len(kw.Periods))
		for i, kp := range kw.Periods {
			s.Values[StatAvg][i] = kp.Scores.Avg
			s.Values[StatMax][i] = kp.Scores.Max
			s.Values[StatMin][i] = kp.Scores.Min
			s.Values[StatIDF][i] = kp.IDF
			s.Values[StatPercentage][i] = kp.Percentage
			s.Carried[i] = kp.Carried
		}
		e.Series = append(e.Series, s)
	}
	if r.Sentiment != nil {
		s := newSeries(SentimentKey, sentimentStats, len(r.Sentiment.Periods))
		s.OverallCarried = make([]bool, len(r.Sentiment.Periods))
		for i, sp := range r.Sentiment.Periods {
			s.Values[StatAvg][i] = sp.Scores.Avg
			s.Values[StatMax][i] = sp.Scores.Max
			s.Values[StatMin][i] = sp.Scores.Min
			s.Values[StatOverall][i] = sp.Overall
			s.Carried[i] = sp.Carried
			s.OverallCarried[i] = sp.OverallCarried
		}
		e.Series = append(e.Series, s)
	}
	return e
}

func newSeries(key string, stats []string, n int) Series {
	s := Series{Keyword: key, Values: make(map[string][]float64, len(stats)), Carried: make([]bool, n)}
	for _, stat := range stats {
		s.Values[stat] = make([]float64, n)
	}
	return s
}

// Verify checks that every array of e has exactly len(Boundaries)-1 entries.
func Verify(e Export) error {
	want := len(e.Boundaries) - 1
	if want < 1 {
		return apperrors.Newf(apperrors.ErrInvalidInput, http.StatusBadRequest, "export has %d boundaries, need at least 2", len(e.Boundaries))
	}
	if len(e.Periods) != want {
		return apperrors.Newf(apperrors.ErrInvalidInput, http.StatusBadRequest, "export has %d period labels, want %d", len(e.Periods), want)
	}
	for _, s := range e.Series {
		if len(s.Carried) != want {
			return apperrors.Newf(apperrors.ErrInvalidInput, http.StatusBadRequest, "series %q: %d carried flags, want %d", s.Keyword, len(s.Carried), want)
		}
		if s.OverallCarried != nil && len(s.OverallCarried) != want {
			return apperrors.Newf(apperrors.ErrInvalidInput, http.StatusBadRequest, "series %q: %d overall carried flags, want %d", s.Keyword, len(s.OverallCarried), want)
		}
		for stat, values := range s.Values {
			if len(values) != want {
				return apperrors.Newf(apperrors.ErrInvalidInput, http.StatusBadRequest, "series %q %s: %d values, want %d", s.Keyword, stat, len(values), want)
			}
		}
	}
	return nil
}

// WriteJSON writes e as indented JSON.
func WriteJSON(w io.Writer, e Export) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(e)
}

// ReadJSON decodes an export written by WriteJSON and verifies its
// alignment.
func ReadJSON(r io.Reader) (Export, error) {
	var e Export
	if err := json.NewDecoder(r).Decode(&e); err != nil {
		return Export{}, apperrors.Newf(apperrors.ErrInvalidInput, http.StatusBadRequest, "decoding export: %v", err)
	}
	if err := Verify(e); err != nil {
		return Export{}, err
	}
	return e, nil
}

// WriteCSV writes e in long format, one row per (series, statistic, period).
// It returns the number of data rows written.
func WriteCSV(w io.Writer, e Export) (int, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"keyword", "statistic", "period", "start", "end", "value", "carried"}); err != nil {
		return 0, fmt.Errorf("writing csv header: %w", err)
	}
	rows := 0
	for _, s := range e.Series {
		stats := keywordStats
		if s.Keyword == SentimentKey {
			stats = sentimentStats
		}
		for _, stat := range stats {
			values, ok := s.Values[stat]
			if !ok {
				continue
			}
			carried := s.CarriedFor(stat)
			for i, v := range values {
				record := []string{
					s.Keyword,
					stat,
					e.Periods[i],
					strconv.Itoa(e.Boundaries[i]),
					strconv.Itoa(e.Boundaries[i+1]),
					strconv.FormatFloat(v, 'g', -1, 64),
					strconv.FormatBool(carried[i]),
				}
				if err := cw.Write(record); err != nil {
					return rows, fmt.Errorf("writing csv row: %w", err)
				}
				rows++
			}
		}
	}
	cw.Flush()
	return rows, cw.Error()
}

// WriteYAML dumps the full report as YAML.
func WriteYAML(w io.Writer, r *Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encoding report yaml: %w", err)
	}
	return enc.Close()
}
