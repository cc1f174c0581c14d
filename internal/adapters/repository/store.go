// Package repository keeps per-job shortlists of screened candidates.
package repository

import (
	"context"

	"github.com/okian/placement/internal/domain/types"
)

// Store provides read/write access to job shortlists.
type Store interface {
	// Upsert places or moves a candidate on a job's shortlist. The latest
	// screening replaces any earlier one. Returns true if the candidate is new
	// to the shortlist.
	Upsert(ctx context.Context, jobID string, e types.Entry) (bool, error)

	// Rank returns the candidate's 1-based position on the job's shortlist.
	Rank(ctx context.Context, jobID, candidateID string) (types.Entry, error)

	// TopN returns up to n entries in shortlist order. eligibleOnly stops at
	// the first ineligible candidate.
	TopN(ctx context.Context, jobID string, n int, eligibleOnly bool) ([]types.Entry, error)

	// Count returns the number of candidates on the job's shortlist.
	Count(ctx context.Context, jobID string) int

	// Jobs returns the ids of jobs with a shortlist.
	Jobs(ctx context.Context) []string
}
