package model

import "time"

// Application is a candidate applying to a job, screened asynchronously.
type Application struct {
	ApplicationID string    // unique id for idempotency
	CandidateID   string    // applicant
	JobID         string    // target posting
	TS            time.Time // submission time
}
