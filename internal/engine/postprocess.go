package engine

import (
	"log/slog"
	"sort"

	"github.com/meowai/catscan/internal/labels"
)

// MinConfidence is the floor below which a raw class score is treated as
// noise and dropped. The 10% value is carried over from the original
// product; treat it as a reasonable default rather than a verified
// requirement.
const MinConfidence float32 = 0.10

// MaxAlternatives caps how many runner-up breeds accompany the top match.
const MaxAlternatives = 3

// topScoresLogged is how many raw scores are logged before filtering.
const topScoresLogged = 5

// rankPredictions pairs each raw score with its label, drops scores
// strictly below minConfidence, and sorts the rest descending. The sort is
// stable, so equal scores keep their original index order: lower output
// index wins ties, every run. Ranks are assigned 1-based by sorted
// position. Indices past the label table degrade to placeholder labels
// rather than failing.
func rankPredictions(scores []float32, tbl *labels.Table, minConfidence float32) []Prediction {
	preds := make([]Prediction, 0, len(scores))
	for i, s := range scores {
		if s < minConfidence {
			continue
		}
		preds = append(preds, Prediction{Label: tbl.Name(i), Confidence: s})
	}
	sort.SliceStable(preds, func(a, b int) bool {
		return preds[a].Confidence > preds[b].Confidence
	})
	for i := range preds {
		preds[i].Rank = i + 1
	}
	return preds
}

// logTopScores emits the highest raw scores before filtering, for
// debugging prediction-quality issues in the field.
func logTopScores(scores []float32, tbl *labels.Table) {
	type scored struct {
		idx   int
		score float32
	}
	top := make([]scored, 0, len(scores))
	for i, s := range scores {
		top = append(top, scored{i, s})
	}
	sort.SliceStable(top, func(a, b int) bool { return top[a].score > top[b].score })
	if len(top) > topScoresLogged {
		top = top[:topScoresLogged]
	}
	args := make([]any, 0, 2*len(top))
	for _, t := range top {
		args = append(args, tbl.Name(t.idx), t.score)
	}
	slog.Debug("Raw top scores before filtering", args...)
}
