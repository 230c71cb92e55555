package sentiment

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/periodstats/internal/corpus"
	apperrors "github.com/Adithya-Monish-Kumar-K/periodstats/pkg/errors"
)

func TestParseLexicon(t *testing.T) {
	lex, err := ParseLexicon(strings.NewReader("# polarity\nGood\t2\n\nbad\t-1.5\nnot bad\t1\n"))
	if err != nil {
		t.Fatal(err)
	}
	if lex["good"] != 2 || lex["bad"] != -1.5 || lex["not bad"] != 1 {
		t.Errorf("lexicon = %v", lex)
	}
	if _, err := ParseLexicon(strings.NewReader("good\tvery\n")); err == nil {
		t.Error("expected error for non-numeric score")
	}
}

func TestLoadLexicon(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lex.json")
	if err := os.WriteFile(path, []byte(`{"Happy": 3, "sad": -2}`), 0o644); err != nil {
		t.Fatal(err)
	}
	lex, err := LoadLexicon(path)
	if err != nil {
		t.Fatal(err)
	}
	if lex["happy"] != 3 || lex["sad"] != -2 {
		t.Errorf("lexicon = %v", lex)
	}
	if _, err := LoadLexicon(filepath.Join(dir, "missing.tsv")); !errors.Is(err, apperrors.ErrConfiguration) {
		t.Errorf("err = %v, want configuration error", err)
	}
}

func TestScore(t *testing.T) {
	lex := Lexicon{"good": 2, "bad": -3}
	if got := lex.Score([]string{"good", "good", "bad", "ship"}); got != 1 {
		t.Errorf("score = %v, want 1", got)
	}
	if got := lex.Score(nil); got != 0 {
		t.Errorf("empty score = %v", got)
	}
}

func TestAggregatorOverall(t *testing.T) {
	lex := Lexicon{"good": 1, "bad": -1}
	a := NewAggregator(lex, 3)
	b := NewAggregator(lex, 3)
	a.Observe(1, corpus.Document{ID: "x", Seq: 2, Tokens: []string{"good", "good"}})
	b.Observe(1, corpus.Document{ID: "y", Seq: 0, Tokens: []string{"bad", "good", "good", "good"}})
	b.Observe(2, corpus.Document{ID: "z", Seq: 1, Tokens: []string{"bad"}})
	a.Merge(b)

	values, empty := a.Overall(10)
	// period 1: (2 + 2) / (2 docs * 10)
	if math.Abs(values[1]-0.2) > 1e-9 {
		t.Errorf("overall[1] = %v, want 0.2", values[1])
	}
	if math.Abs(values[2]+0.1) > 1e-9 {
		t.Errorf("overall[2] = %v, want -0.1", values[2])
	}
	if !empty[0] || empty[1] || empty[2] {
		t.Errorf("empty = %v", empty)
	}

	lists := a.Lists()
	if len(lists[1]) != 2 || lists[1][0].DocID != "y" {
		t.Errorf("period 1 list = %+v, want collection order", lists[1])
	}
}
