// Package corpus defines the document records the statistics engine reads
// and the sources that enumerate them.
//
// A Record is a loosely typed JSON object as produced by the ingestion
// collaborator. Extract turns it into a Document: an id, a publication year
// and one selected token sequence.
package corpus

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/araddon/dateparse"

	"github.com/Adithya-Monish-Kumar-K/periodstats/internal/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/periodstats/pkg/errors"
)

// Record is one raw entry of a collection. Seq is its position in
// collection order. Err is set when the entry could not be read or decoded;
// such records are skipped by the scanner.
type Record struct {
	Seq    int
	Origin string
	Fields map[string]any
	Err    error
}

// Document is an admitted, normalized record.
type Document struct {
	ID     string
	Year   int
	Seq    int
	Tokens []string
}

// Fields names the record fields Extract reads.
type Fields struct {
	ID            string
	Year          string
	YearFallback  string
	Text          string
	DropStopwords bool
}

var yearPattern = regexp.MustCompile(`\d{4}`)

// Extract selects id, year and tokens from rec. Any problem is returned as a
// data error so the caller can skip the record.
func Extract(rec Record, f Fields) (Document, error) {
	if rec.Err != nil {
		return Document{}, rec.Err
	}
	year, err := readYear(rec.Fields, f.Year, f.YearFallback)
	if err != nil {
		return Document{}, err
	}
	raw, ok := rec.Fields[f.Text]
	if !ok || raw == nil {
		return Document{}, apperrors.Dataf("missing text field %q", f.Text)
	}
	tokens, err := readTokens(raw)
	if err != nil {
		return Document{}, apperrors.Dataf("text field %q: %v", f.Text, err)
	}
	if f.DropStopwords {
		tokens = tokenizer.RemoveStopwords(tokens)
	}
	return Document{
		ID:     readID(rec, f.ID),
		Year:   year,
		Seq:    rec.Seq,
		Tokens: tokens,
	}, nil
}

func readID(rec Record, field string) string {
	switch v := rec.Fields[field].(type) {
	case string:
		if v != "" {
			return v
		}
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return rec.Origin
}

// readYear tries the primary field first and the fallback when the primary
// is absent or unusable.
func readYear(fields map[string]any, primary, fallback string) (int, error) {
	var firstErr error
	for _, name := range []string{primary, fallback} {
		if name == "" {
			continue
		}
		v, ok := fields[name]
		if !ok || v == nil {
			continue
		}
		year, err := parseYear(v)
		if err == nil {
			return year, nil
		}
		if firstErr == nil {
			firstErr = fmt.Errorf("field %q: %w", name, err)
		}
	}
	if firstErr != nil {
		return 0, apperrors.Dataf("unparsable year: %v", firstErr)
	}
	return 0, apperrors.Dataf("missing year (%q, %q)", primary, fallback)
}

func parseYear(v any) (int, error) {
	switch val := v.(type) {
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return int(n), nil
		}
		f, err := val.Float64()
		if err != nil {
			return 0, err
		}
		return integral(f)
	case float64:
		return integral(val)
	case int:
		return val, nil
	case int64:
		return int(val), nil
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return 0, fmt.Errorf("empty")
		}
		if n, err := strconv.Atoi(s); err == nil {
			return n, nil
		}
		if t, err := dateparse.ParseAny(s); err == nil {
			return t.Year(), nil
		}
		if m := yearPattern.FindString(s); m != "" {
			return strconv.Atoi(m)
		}
		return 0, fmt.Errorf("no year in %q", s)
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}

func integral(f float64) (int, error) {
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, fmt.Errorf("non-integral year %v", f)
	}
	return int(f), nil
}

func readTokens(v any) ([]string, error) {
	switch val := v.(type) {
	case string:
		return tokenizer.Tokenize(val), nil
	case []string:
		return tokenizer.Normalize(val), nil
	case []any:
		tokens := make([]string, 0, len(val))
		for i, item := range val {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("token %d is %T, not a string", i, item)
			}
			tokens = append(tokens, s)
		}
		return tokenizer.Normalize(tokens), nil
	default:
		return nil, fmt.Errorf("unsupported type %T", v)
	}
}
