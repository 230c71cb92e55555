package report

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/periodstats/internal/score"
)

// WriteText writes the human-readable report: one block per period with the
// statistics and ranked documents of every keyword, the period's top words
// and its sentiment.
func WriteText(w io.Writer, r *Report) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "Run %s  generated %s\n", r.RunID, r.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(bw, "Periods: %s\n", joinInts(r.Boundaries))

	for i, span := range r.Periods {
		fmt.Fprintf(bw, "\n=== Period %s ===\n", span)
		for _, kw := range r.Keywords {
			kp := kw.Periods[i]
			carried := ""
			if kp.Carried {
				carried = "  (no documents; carried from previous period)"
			}
			fmt.Fprintf(bw, "\nKeyword %q [%s]%s\n", kw.Label, strings.Join(kw.Synonyms, " / "), carried)
			fmt.Fprintf(bw, "  documents %d  docFreq %d  occurrences %d\n", kp.Documents, kp.DocFreq, kp.Occurrences)
			fmt.Fprintf(bw, "  idf %.6f  avg %.6f  max %.6f  min %.6f  percentage %.4f%%\n",
				kp.IDF, kp.Scores.Avg, kp.Scores.Max, kp.Scores.Min, kp.Percentage)
			writeRanked(bw, "top", kp.Scores.Top)
			writeRanked(bw, "bottom", kp.Scores.Bottom)
		}
		if i < len(r.TopWords) {
			writeWords(bw, r.TopWords[i])
		}
		if r.Sentiment != nil && i < len(r.Sentiment.Periods) {
			sp := r.Sentiment.Periods[i]
			fmt.Fprintf(bw, "\nSentiment  documents %d  avg %.6f  max %.6f  min %.6f  overall %.6f\n",
				sp.Scores.Count, sp.Scores.Avg, sp.Scores.Max, sp.Scores.Min, sp.Overall)
			writeRanked(bw, "most positive", sp.Scores.Top)
			writeRanked(bw, "most negative", sp.Scores.Bottom)
		}
	}
	return bw.Flush()
}

func writeRanked(w io.Writer, label string, list []score.Scored) {
	fmt.Fprintf(w, "  %s %d:\n", label, len(list))
	for _, e := range list {
		fmt.Fprintf(w, "    %-40s %.6f\n", e.DocID, e.Score)
	}
}

func writeWords(w io.Writer, pw PeriodWords) {
	fmt.Fprintf(w, "\nTop words (%d tokens)\n", pw.TotalTokens)
	for i, word := range pw.Words {
		fmt.Fprintf(w, "  %3d. %-24s %8d  %.4f%%\n", i+1, word.Word, word.Count, 100*word.Share)
	}
}

func joinInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = fmt.Sprint(x)
	}
	return strings.Join(parts, " ")
}
