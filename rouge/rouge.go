// Package rouge scores generated text against reference text with the
// ROUGE family of metrics: unigram overlap (rouge1), bigram overlap
// (rouge2) and longest-common-subsequence overlap (rougeL). Tokens are
// lowercased and stemmed before matching, and per-pair scores are
// aggregated with bootstrap resampling.
package rouge

import (
	"strings"
	"unicode"

	"github.com/kljensen/snowball/english"
)

// Names lists the metrics a Scorer produces, in reporting order.
var Names = []string{"rouge1", "rouge2", "rougeL"}

// Score is a single precision/recall/F-measure triple. All values are
// in [0,1].
type Score struct {
	Precision float64
	Recall    float64
	F         float64
}

// Scorer computes rouge1/rouge2/rougeL for one (reference, output)
// pair at a time. A Scorer is stateless and safe for concurrent use.
type Scorer struct {
	stem bool
}

// NewScorer returns a Scorer with stemming enabled, matching the
// reference scorer configuration.
func NewScorer() *Scorer {
	return &Scorer{stem: true}
}

// Score computes all metrics for one aligned pair.
func (s *Scorer) Score(reference, output string) map[string]Score {
	ref := s.tokenize(reference)
	out := s.tokenize(output)

	return map[string]Score{
		"rouge1": ngramScore(ref, out, 1),
		"rouge2": ngramScore(ref, out, 2),
		"rougeL": lcsScore(ref, out),
	}
}

// tokenize lowercases, splits on non-alphanumeric runes and stems each
// token. Only tokens longer than three runes are stemmed; shorter ones
// gain nothing from it and the reference scorer skips them too.
func (s *Scorer) tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if !s.stem {
		return fields
	}
	for i, f := range fields {
		if len(f) > 3 {
			fields[i] = english.Stem(f, false)
		}
	}
	return fields
}

func ngramScore(ref, out []string, n int) Score {
	refGrams := countNgrams(ref, n)
	outGrams := countNgrams(out, n)
	refTotal := len(ref) - n + 1
	outTotal := len(out) - n + 1
	if refTotal <= 0 || outTotal <= 0 {
		return Score{}
	}

	matches := 0
	for gram, c := range outGrams {
		if rc, ok := refGrams[gram]; ok {
			matches += min(c, rc)
		}
	}

	return fmeasure(float64(matches)/float64(outTotal), float64(matches)/float64(refTotal))
}

func countNgrams(tokens []string, n int) map[string]int {
	grams := make(map[string]int, len(tokens))
	for i := 0; i+n <= len(tokens); i++ {
		grams[strings.Join(tokens[i:i+n], "\x1f")]++
	}
	return grams
}

func lcsScore(ref, out []string) Score {
	if len(ref) == 0 || len(out) == 0 {
		return Score{}
	}
	lcs := lcsLen(ref, out)
	return fmeasure(float64(lcs)/float64(len(out)), float64(lcs)/float64(len(ref)))
}

// lcsLen is the classic O(len(a)*len(b)) dynamic program, two rows.
func lcsLen(a, b []string) int {
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				cur[j] = prev[j-1] + 1
			} else {
				cur[j] = max(prev[j], cur[j-1])
			}
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

func fmeasure(precision, recall float64) Score {
	s := Score{Precision: precision, Recall: recall}
	if precision+recall > 0 {
		s.F = 2 * precision * recall / (precision + recall)
	}
	return s
}
