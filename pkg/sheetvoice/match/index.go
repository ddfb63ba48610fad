// Package match builds per-sheet fuzzy indexes over question text.
// Spoken or transcribed questions rarely equal the stored wording, so
// lookups rank every stored question by bigram similarity instead of
// requiring an exact hit.
package match

import (
	"strings"
	"unicode"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"

	"github.com/sheetvoice/sheetvoice/pkg/sheetvoice/sheet"
)

// DefaultThreshold is the maximum normalized distance (0-1, lower is
// stricter) a candidate may have and still count as a match.
const DefaultThreshold = 0.4

// Index holds the rows of one uploaded sheet plus the scoring state for
// fuzzy lookups on the Question column. It is rebuilt wholesale on upload
// and update, never patched in place.
type Index struct {
	rows      []sheet.Row
	questions []string
	threshold float64
	metric    *metrics.SorensenDice
}

// Build constructs an index over rows. Rows with a blank Question are
// skipped. A non-positive threshold falls back to DefaultThreshold.
func Build(rows []sheet.Row, threshold float64) *Index {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	ix := &Index{
		threshold: threshold,
		metric:    metrics.NewSorensenDice(),
	}
	for _, row := range rows {
		q := normalize(row[sheet.ColQuestion])
		if q == "" {
			continue
		}
		ix.rows = append(ix.rows, row)
		ix.questions = append(ix.questions, q)
	}
	return ix
}

// Query scores every stored question against text and returns the
// best-ranked row if it clears the threshold. Scanning is in row order and
// a candidate only replaces the best on a strictly higher score, so equal
// scores resolve to the earliest row.
func (ix *Index) Query(text string) (sheet.Row, bool) {
	q := normalize(text)
	if q == "" || len(ix.rows) == 0 {
		return nil, false
	}

	best := -1
	bestScore := 0.0
	for i, stored := range ix.questions {
		score := strutil.Similarity(q, stored, ix.metric)
		if score > bestScore {
			best = i
			bestScore = score
		}
	}
	if best < 0 || bestScore < 1-ix.threshold {
		return nil, false
	}
	return ix.rows[best], true
}

// Len returns the number of indexed rows.
func (ix *Index) Len() int { return len(ix.rows) }

// normalize lowercases text and strips punctuation so "What are your
// hours?" and "what are your hours" score as equals.
func normalize(s string) string {
	var b strings.Builder
	lastSpace := true
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		case unicode.IsSpace(r):
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}
