// Package confidence inspects the score distribution of a ranked result
// set and recommends how many results are worth returning inline, using
// the gaps between BM25 scores to decide when one candidate clearly
// dominates.
package confidence

import "fmt"

// Level is the confidence label attached to a recommendation.
type Level string

const (
	LevelHigh   Level = "high"
	LevelMedium Level = "medium"
	LevelLow    Level = "low"
)

const (
	// gapRatioThreshold is how much scores[0] must exceed scores[1] by to
	// be considered a decisive top result.
	gapRatioThreshold = 2.0

	// lowScoreFloor below which even a clear leader is labelled low
	// confidence rather than high — a big gap between two weak matches
	// still isn't a strong signal.
	lowScoreFloor = 0.15

	// defaultRecommendedCount is how many results to suggest inlining
	// when scores decay gently rather than showing one clear winner.
	defaultRecommendedCount = 10
)

// Assessment is the confidence assessment of a set of ranked scores.
type Assessment struct {
	RecommendedCount int
	Level            Level
	ScoreGap         float64
	TopScore         float64
	Insight          string
}

// Assess inspects scores (assumed already sorted descending) and
// produces a recommendation. An empty slice yields a low-confidence,
// zero-count assessment with a reformulation insight.
func Assess(scores []float64) *Assessment {
	if len(scores) == 0 {
		return &Assessment{
			Level:   LevelLow,
			Insight: "no results matched; consider a broader or different query",
		}
	}

	top := scores[0]

	if top < lowScoreFloor {
		return &Assessment{
			RecommendedCount: min(len(scores), defaultRecommendedCount),
			Level:            LevelLow,
			TopScore:         top,
			Insight:          "all scores are low; consider reformulating the query",
		}
	}

	if len(scores) == 1 {
		return &Assessment{
			RecommendedCount: 1,
			Level:            LevelHigh,
			TopScore:         top,
		}
	}

	second := scores[1]
	gap := top - second

	if second > 0 && top/second >= gapRatioThreshold {
		return &Assessment{
			RecommendedCount: 1,
			Level:            LevelHigh,
			ScoreGap:         gap,
			TopScore:         top,
			Insight:          fmt.Sprintf("top result scores %.1fx higher than the next", top/second),
		}
	}

	return &Assessment{
		RecommendedCount: min(len(scores), defaultRecommendedCount),
		Level:            LevelMedium,
		ScoreGap:         gap,
		TopScore:         top,
	}
}
