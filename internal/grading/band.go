package grading

// Band classifies a score for report badges.
type Band string

const (
	BandPassed   Band = "Passed"
	BandRemedial Band = "Remedial"
	BandFailed   Band = "Failed"
)

const (
	passThreshold     = 75.0
	remedialThreshold = 60.0
)

// Classify maps a score to its band: >=75 passed, >=60 remedial, otherwise failed.
func Classify(score float64) Band {
	switch {
	case score >= passThreshold:
		return BandPassed
	case score >= remedialThreshold:
		return BandRemedial
	default:
		return BandFailed
	}
}

// Tone returns the badge colour the presentation layer uses for a band.
func (b Band) Tone() string {
	switch b {
	case BandPassed:
		return "success"
	case BandRemedial:
		return "warning"
	default:
		return "danger"
	}
}
