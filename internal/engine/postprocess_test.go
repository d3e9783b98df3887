package engine

import (
	"testing"

	"github.com/meowai/catscan/internal/labels"
	"github.com/stretchr/testify/require"
)

func tableOf(names ...string) *labels.Table {
	data := make([]byte, 0, 64)
	for _, n := range names {
		data = append(data, n...)
		data = append(data, '\n')
	}
	return labels.Parse(data)
}

func TestRankPredictions_ThresholdAndOrder(t *testing.T) {
	scores := []float32{0.05, 0.9, 0.3, 0.12}
	tbl := tableOf("A", "B", "C", "D")

	preds := rankPredictions(scores, tbl, MinConfidence)
	require.Equal(t, []Prediction{
		{Label: "B", Confidence: 0.9, Rank: 1},
		{Label: "C", Confidence: 0.3, Rank: 2},
		{Label: "D", Confidence: 0.12, Rank: 3},
	}, preds)
}

func TestRankPredictions_TieBreakLowerIndexWins(t *testing.T) {
	tbl := tableOf("X", "Y")
	for range 20 {
		preds := rankPredictions([]float32{0.5, 0.5}, tbl, MinConfidence)
		require.Equal(t, []Prediction{
			{Label: "X", Confidence: 0.5, Rank: 1},
			{Label: "Y", Confidence: 0.5, Rank: 2},
		}, preds)
	}
}

func TestRankPredictions_ExactFloorIncluded(t *testing.T) {
	// Only scores strictly below the floor are discarded.
	tbl := tableOf("A", "B")
	preds := rankPredictions([]float32{0.10, 0.0999}, tbl, MinConfidence)
	require.Len(t, preds, 1)
	require.Equal(t, "A", preds[0].Label)
}

func TestRankPredictions_AllBelowFloor(t *testing.T) {
	tbl := tableOf("A", "B", "C")
	preds := rankPredictions([]float32{0.01, 0.02, 0.05}, tbl, MinConfidence)
	require.Empty(t, preds)
}

func TestRankPredictions_PlaceholderForMissingLabels(t *testing.T) {
	// Scores beyond the label table map to synthetic placeholder labels
	// instead of failing.
	tbl := tableOf("A")
	preds := rankPredictions([]float32{0.2, 0.8}, tbl, MinConfidence)
	require.Equal(t, "breed_1", preds[0].Label)
	require.Equal(t, 1, preds[0].Rank)
	require.Equal(t, "A", preds[1].Label)
}

func TestRankPredictions_EmptyScores(t *testing.T) {
	require.Empty(t, rankPredictions(nil, tableOf("A"), MinConfidence))
}
