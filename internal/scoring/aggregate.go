// Package scoring turns per-question outcomes of a practice test into an
// overall tally and a per-chapter breakdown.
package scoring

import "strings"

// MixedChapter is used for outcomes without a chapter label.
const MixedChapter = "Mixed"

// Outcome is one answered (or skipped) question.
type Outcome struct {
	Number  int    `json:"number"`
	Chapter string `json:"chapter"`
	Status  Status `json:"status"`
}

// Aggregate is the summary of a whole test.
type Aggregate struct {
	Correct      int      `json:"correct"`
	Wrong        int      `json:"wrong"`
	NotAttempted int      `json:"notAttempted"`
	Score        int      `json:"score"`
	ByChapter    Chapters `json:"byChapter"`
}

// Total is the number of outcomes the aggregate was computed from.
func (a Aggregate) Total() int {
	return a.Correct + a.Wrong + a.NotAttempted
}

// Equal compares totals and chapter stats, ignoring chapter order.
func (a Aggregate) Equal(b Aggregate) bool {
	return a.Correct == b.Correct &&
		a.Wrong == b.Wrong &&
		a.NotAttempted == b.NotAttempted &&
		a.Score == b.Score &&
		a.ByChapter.Equal(&b.ByChapter)
}

// NormalizeChapter trims the label and falls back to MixedChapter.
func NormalizeChapter(label string) string {
	key := strings.TrimSpace(label)
	if key == "" {
		return MixedChapter
	}
	return key
}

// Compute aggregates outcomes in a single pass. Number is not read.
func Compute(outcomes []Outcome) Aggregate {
	var agg Aggregate
	for _, o := range outcomes {
		agg.Score += o.Status.Points()
		switch o.Status {
		case Correct:
			agg.Correct++
		case Wrong:
			agg.Wrong++
		default:
			agg.NotAttempted++
		}
		agg.ByChapter.record(NormalizeChapter(o.Chapter), o.Status)
	}
	return agg
}
