// Package benchmark contains Go benchmarks for the tokenizer, gram counting
// and the full statistics engine, measuring throughput and allocation
// behaviour.
package benchmark

import (
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/periodstats/internal/keyword"
	"github.com/Adithya-Monish-Kumar-K/periodstats/internal/tokenizer"
)

var sampleTexts = map[string]string{
	"short": "It is a truth universally acknowledged, that a single man in possession of a good fortune, must be in want of a wife.",
	"medium": `However little known the feelings or views of such a man may be on his
        first entering a neighbourhood, this truth is so well fixed in the minds of
        the surrounding families, that he is considered the rightful property of some
        one or other of their daughters. My dear Mr. Bennet, said his lady to him one
        day, have you heard that Netherfield Park is let at last?`,
	"long": strings.Repeat(`Miss Bingley's attention was quite as much engaged in watching
        Mr. Darcy's progress through his book, as in reading her own; and she was
        perpetually either making some inquiry, or looking at his page. She could not
        win him, however, to any conversation; he merely answered her question, and
        read on. At length, quite exhausted by the attempt to be amused with her own
        book, which she had only chosen because it was the second volume of his, she
        gave a great yawn and said, How pleasant it is to spend an evening in this way! `, 20),
}

func BenchmarkTokenize(b *testing.B) {
	for name, text := range sampleTexts {
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(text)))
			for i := 0; i < b.N; i++ {
				_ = tokenizer.Tokenize(text)
			}
		})
	}
}

func BenchmarkTokenizeParallel(b *testing.B) {
	text := sampleTexts["medium"]
	b.ReportAllocs()
	b.SetBytes(int64(len(text)))
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = tokenizer.Tokenize(text)
		}
	})
}

func BenchmarkCountGrams(b *testing.B) {
	tokens := tokenizer.Tokenize(sampleTexts["long"])
	for _, n := range []int{1, 2, 3} {
		b.Run(strings.Repeat("n", n), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_ = keyword.Count(tokens, n)
			}
		})
	}
}
