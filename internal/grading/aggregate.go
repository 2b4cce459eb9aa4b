// Package grading holds the side-effect free arithmetic behind final grades
// and the display bands used by reports.
package grading

// WeightedScore is one grade entry joined with its assessment type weight.
type WeightedScore struct {
	Score         float64
	WeightPercent float64
}

// FinalScore returns the arithmetic mean of score*weight/100 over entries.
//
// The result is not normalised by the sum of weights present: a lone entry
// under a 50% assessment type can never exceed 50. The bool is false when
// entries is empty, in which case no final grade should be written.
func FinalScore(entries []WeightedScore) (float64, bool) {
	if len(entries) == 0 {
		return 0, false
	}

	var sum float64
	for _, entry := range entries {
		sum += entry.Score * (entry.WeightPercent / 100)
	}

	return sum / float64(len(entries)), true
}

// ValidScore reports whether a raw score lies within 0..100.
func ValidScore(score float64) bool {
	return score >= MinScore && score <= MaxScore
}

// ValidWeight reports whether an assessment weight lies within (0, 100].
func ValidWeight(weight float64) bool {
	return weight > 0 && weight <= MaxScore
}

const (
	// MinScore is the lowest score a grader may record.
	MinScore = 0.0
	// MaxScore is the highest score a grader may record.
	MaxScore = 100.0
)
