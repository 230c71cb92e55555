package keyword

import (
	"errors"
	"reflect"
	"testing"

	apperrors "github.com/Adithya-Monish-Kumar-K/periodstats/pkg/errors"
)

func TestParse(t *testing.T) {
	set, err := Parse("Miss, ship/boat/ship ,, sea")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if set.N() != 1 {
		t.Errorf("N = %d, want 1", set.N())
	}
	if set.Len() != 3 {
		t.Fatalf("Len = %d, want 3", set.Len())
	}
	kws := set.Keywords()
	if kws[0].Label != "Miss" || !reflect.DeepEqual(kws[0].Synonyms, []string{"miss"}) {
		t.Errorf("keyword 0 = %+v", kws[0])
	}
	if !reflect.DeepEqual(kws[1].Synonyms, []string{"ship", "boat"}) {
		t.Errorf("synonyms = %v, duplicates should collapse", kws[1].Synonyms)
	}
	if kws[2].ID != 2 {
		t.Errorf("ids must be dense, got %d", kws[2].ID)
	}
}

func TestParseNGrams(t *testing.T) {
	set, err := Parse("young lady/fair maid, old man")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if set.N() != 2 {
		t.Errorf("N = %d, want 2", set.N())
	}
	if got := set.Get(0).Synonyms; !reflect.DeepEqual(got, []string{"young lady", "fair maid"}) {
		t.Errorf("synonyms = %v", got)
	}
}

func TestParseErrors(t *testing.T) {
	for _, spec := range []string{"", " , ", "miss, old man", "ship/", "a/b c"} {
		if _, err := Parse(spec); !errors.Is(err, apperrors.ErrConfiguration) {
			t.Errorf("Parse(%q) err = %v, want configuration error", spec, err)
		}
	}
}

func TestKeys(t *testing.T) {
	set, _ := Parse("a, b")
	keys := set.Keys(2)
	want := []Key{{0, 0}, {0, 1}, {1, 0}, {1, 1}}
	if !reflect.DeepEqual(keys, want) {
		t.Errorf("Keys = %v, want %v", keys, want)
	}
}

func TestGrams(t *testing.T) {
	tokens := []string{"the", "young", "lady", "sang"}
	if got := Grams(tokens, 2); !reflect.DeepEqual(got, []string{"the young", "young lady", "lady sang"}) {
		t.Errorf("bigrams = %v", got)
	}
	if got := Grams(tokens[:1], 2); got != nil {
		t.Errorf("short input should give no grams, got %v", got)
	}
}

func TestCounts(t *testing.T) {
	c := Count([]string{"ship", "boat", "ship", "sea", "ship"}, 1)
	if c.Max() != 3 || c.Total() != 5 {
		t.Errorf("max=%d total=%d", c.Max(), c.Total())
	}
	kw := Keyword{Synonyms: []string{"ship", "boat"}}
	if c.Occurrences(kw) != 4 {
		t.Errorf("occurrences = %d, want 4", c.Occurrences(kw))
	}
	if !c.Present(kw) || c.Present(Keyword{Synonyms: []string{"oar"}}) {
		t.Error("presence mismatch")
	}
	empty := Count(nil, 1)
	if empty.Max() != 0 || empty.Total() != 0 {
		t.Errorf("empty counts = %+v", empty)
	}
}
