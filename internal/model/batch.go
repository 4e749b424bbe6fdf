package model

import "github.com/google/uuid"

// BatchRun groups the chapter jobs processed together by one call to the
// download manager.
//
// Attempt counts whole-batch passes starting at zero; the manager stops once
// Attempt reaches MaxRetries or a pass has no failures. Cancellation is
// carried by the context the run executes under, not by BatchRun itself.
type BatchRun struct {
	// ID identifies the run in logs.
	ID string

	// Jobs are the submitted chapters in submission order.
	Jobs []ChapterJob

	// MaxRetries is the number of whole-batch re-runs allowed after the first pass.
	MaxRetries int

	// Attempt is the zero-based index of the current pass.
	Attempt int

	// Failures is the failure count of the most recent pass.
	Failures int
}

// NewBatchRun creates a run for jobs with a fresh ID.
func NewBatchRun(jobs []ChapterJob, maxRetries int) *BatchRun {
	return &BatchRun{
		ID:         uuid.NewString(),
		Jobs:       jobs,
		MaxRetries: maxRetries,
	}
}

// CanRetry reports whether another whole-batch pass is allowed.
func (r *BatchRun) CanRetry() bool {
	return r.Failures > 0 && r.Attempt < r.MaxRetries
}

// TotalImages returns the number of page images across all jobs.
func (r *BatchRun) TotalImages() int {
	n := 0
	for _, j := range r.Jobs {
		n += len(j.ImageURLs)
	}
	return n
}
