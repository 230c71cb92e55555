package sentiment

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/periodstats/pkg/errors"
)

// Lexicon maps lower-case terms to polarity scores.
type Lexicon map[string]float64

// Score sums the polarity of every token. Unknown tokens score 0.
func (l Lexicon) Score(tokens []string) float64 {
	var sum float64
	for _, tok := range tokens {
		sum += l[tok]
	}
	return sum
}

// Fingerprint hashes the terms and scores of l in term order. Two lexicons
// share a fingerprint exactly when they score every token alike.
func (l Lexicon) Fingerprint() string {
	terms := make([]string, 0, len(l))
	for term := range l {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	h := sha256.New()
	for _, term := range terms {
		fmt.Fprintf(h, "%s\x00%s\x00", term, strconv.FormatFloat(l[term], 'g', -1, 64))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// LoadLexicon reads a lexicon file. A .json file holds one object mapping
// terms to scores; anything else is read as "term<TAB>score" lines where
// blank lines and lines starting with '#' are ignored.
func LoadLexicon(path string) (Lexicon, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.Configf("opening lexicon %s: %v", path, err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".json") {
		raw := map[string]float64{}
		if err := json.NewDecoder(f).Decode(&raw); err != nil {
			return nil, apperrors.Configf("decoding lexicon %s: %v", path, err)
		}
		lex := make(Lexicon, len(raw))
		for term, score := range raw {
			lex[strings.ToLower(strings.TrimSpace(term))] = score
		}
		return lex, nil
	}

	lex, err := ParseLexicon(f)
	if err != nil {
		return nil, apperrors.Configf("reading lexicon %s: %v", path, err)
	}
	return lex, nil
}

// ParseLexicon parses tab-separated "term\tscore" lines. A line whose score
// is not a number is an error; a term may contain spaces.
func ParseLexicon(r io.Reader) (Lexicon, error) {
	lex := make(Lexicon, 256)
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || text[0] == '#' {
			continue
		}
		idx := strings.LastIndexAny(text, "\t ")
		if idx < 0 {
			return nil, fmt.Errorf("line %d: missing score", line)
		}
		term := strings.ToLower(strings.TrimSpace(text[:idx]))
		score, err := strconv.ParseFloat(strings.TrimSpace(text[idx+1:]), 64)
		if err != nil || term == "" {
			return nil, fmt.Errorf("line %d: malformed entry %q", line, text)
		}
		lex[term] = score
	}
	return lex, sc.Err()
}
