// Package types contains common types used across the application
package types

// Entry is one screened candidate in a job's shortlist.
type Entry struct {
	Rank          int     `json:"rank"`
	CandidateID   string  `json:"candidate_id"`
	Score         float64 `json:"score"`
	Eligible      bool    `json:"eligible"`
	Verdict       string  `json:"verdict"`
	ApplicationID string  `json:"application_id,omitempty"`
}

// Before reports whether e ranks ahead of o: eligible candidates first,
// then higher score, then candidate id ascending.
func (e Entry) Before(o Entry) bool {
	if e.Eligible != o.Eligible {
		return e.Eligible
	}
	if e.Score != o.Score {
		return e.Score > o.Score
	}
	return e.CandidateID < o.CandidateID
}
