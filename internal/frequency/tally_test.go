package frequency

import (
	"math"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/periodstats/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/periodstats/internal/keyword"
)

func mustSet(t *testing.T, spec string) *keyword.Set {
	t.Helper()
	set, err := keyword.Parse(spec)
	if err != nil {
		t.Fatal(err)
	}
	return set
}

func TestObserveCountsPresenceOnce(t *testing.T) {
	set := mustSet(t, "miss, ship/boat")
	tally := New(set, 2)
	tally.Observe(0, corpus.Document{Tokens: []string{"miss", "miss", "ship", "boat", "sea"}})
	tally.Observe(0, corpus.Document{Tokens: []string{"boat"}})
	tally.Observe(1, corpus.Document{Tokens: nil})

	miss := keyword.Key{Period: 0, Keyword: 0}
	ship := keyword.Key{Period: 0, Keyword: 1}
	if got := tally.DocFreq(miss); got != 1 {
		t.Errorf("docFreq(miss) = %d, want 1", got)
	}
	if got := tally.DocFreq(ship); got != 2 {
		t.Errorf("docFreq(ship/boat) = %d, want 2", got)
	}
	if got := tally.Occurrences(ship); got != 3 {
		t.Errorf("occurrences(ship/boat) = %d, want 3", got)
	}
	if tally.DocCount(0) != 2 || tally.DocCount(1) != 1 {
		t.Errorf("docCount = %d, %d", tally.DocCount(0), tally.DocCount(1))
	}
	if got := tally.Percentage(ship); math.Abs(got-50) > 1e-9 {
		t.Errorf("percentage = %v, want 50", got)
	}
	if got := tally.Percentage(keyword.Key{Period: 1, Keyword: 0}); got != 0 {
		t.Errorf("empty period percentage = %v", got)
	}
	if tally.Words(0)["miss"] != 2 || tally.TokenTotal(0) != 6 {
		t.Errorf("words = %v total = %d", tally.Words(0), tally.TokenTotal(0))
	}
}

func TestKeysPrePopulated(t *testing.T) {
	set := mustSet(t, "a, b, c")
	tally := New(set, 4)
	if len(tally.docFreq) != 12 || len(tally.occurrences) != 12 {
		t.Errorf("accumulators hold %d/%d keys, want 12", len(tally.docFreq), len(tally.occurrences))
	}
	tally.Observe(3, corpus.Document{Tokens: []string{"a", "z"}})
	if len(tally.docFreq) != 12 {
		t.Error("Observe must not insert keys")
	}
}

func TestBigramPresence(t *testing.T) {
	set := mustSet(t, "young lady")
	tally := New(set, 1)
	tally.Observe(0, corpus.Document{Tokens: []string{"the", "young", "lady", "and", "young", "lady"}})
	key := keyword.Key{Period: 0, Keyword: 0}
	if tally.DocFreq(key) != 1 || tally.Occurrences(key) != 2 {
		t.Errorf("docFreq=%d occurrences=%d", tally.DocFreq(key), tally.Occurrences(key))
	}
	if tally.GramTotal(0) != 5 {
		t.Errorf("gram total = %d, want 5", tally.GramTotal(0))
	}
}

func TestMergeIsOrderIndependent(t *testing.T) {
	set := mustSet(t, "miss")
	docs := []corpus.Document{
		{Tokens: []string{"miss", "a"}},
		{Tokens: []string{"b"}},
		{Tokens: []string{"miss"}},
	}
	a, b := New(set, 1), New(set, 1)
	a.Observe(0, docs[0])
	b.Observe(0, docs[1])
	b.Observe(0, docs[2])

	ab := New(set, 1)
	ab.Merge(a)
	ab.Merge(b)
	ba := New(set, 1)
	ba.Merge(b)
	ba.Merge(a)

	key := keyword.Key{}
	if ab.DocFreq(key) != 2 || ba.DocFreq(key) != 2 {
		t.Errorf("docFreq = %d / %d", ab.DocFreq(key), ba.DocFreq(key))
	}
	if ab.DocCount(0) != 3 || ab.Words(0)["miss"] != ba.Words(0)["miss"] {
		t.Error("merged counts differ")
	}
}
