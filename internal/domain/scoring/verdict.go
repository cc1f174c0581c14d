package scoring

// Verdict is the qualitative band of a score.
type Verdict string

// Verdicts.
const (
	VerdictLow      Verdict = "Low"
	VerdictModerate Verdict = "Moderate"
	VerdictHigh     Verdict = "High"
)

// Band lower bounds, inclusive. Scores below ModerateBand are Low.
const (
	ModerateBand = 40.0
	HighBand     = 70.0
)

// VerdictFor maps a score in [0,100] to its band.
func VerdictFor(score float64) Verdict {
	switch {
	case score >= HighBand:
		return VerdictHigh
	case score >= ModerateBand:
		return VerdictModerate
	default:
		return VerdictLow
	}
}
