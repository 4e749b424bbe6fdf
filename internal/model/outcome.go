package model

// FetchResult is the outcome of downloading a single page image.
//
// A FetchResult with an empty Path is an absence marker: the image could not
// be downloaded or failed the quality check, and Err explains why. Results
// may be produced in any order by concurrent fetches; Index is the position
// of the URL in ChapterJob.ImageURLs and is used to restore page order.
type FetchResult struct {
	// Index is the position of the source URL in the chapter's image list.
	Index int

	// URL is the source locator.
	URL string

	// Path is the validated local file. Empty means absent.
	Path string

	// Err is the reason the result is absent, nil on success.
	Err error
}

// Present reports whether the result holds a usable file.
func (r FetchResult) Present() bool {
	return r.Path != ""
}

// ChapterOutcome is the per-chapter result of a batch attempt.
//
// Success implies the document passed integrity verification and was moved
// to its final location, PDFPath. On failure PDFPath is empty and Reason
// describes the stage that failed.
type ChapterOutcome struct {
	ChapterID string `json:"chapter_id" yaml:"chapter_id"`
	WorkID    string `json:"work_id,omitempty" yaml:"work_id,omitempty"`
	Success   bool   `json:"success" yaml:"success"`
	PDFPath   string `json:"pdf_path,omitempty" yaml:"pdf_path,omitempty"`
	Pages     int    `json:"pages" yaml:"pages"`
	Reason    string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// Succeeded returns a successful outcome for job.
func Succeeded(job ChapterJob, pdfPath string, pages int) ChapterOutcome {
	return ChapterOutcome{
		ChapterID: job.ID,
		WorkID:    job.WorkID,
		Success:   true,
		PDFPath:   pdfPath,
		Pages:     pages,
	}
}

// Failed returns a failed outcome for job.
func Failed(job ChapterJob, reason string) ChapterOutcome {
	return ChapterOutcome{
		ChapterID: job.ID,
		WorkID:    job.WorkID,
		Reason:    reason,
	}
}

// CountFailures returns the number of unsuccessful outcomes.
func CountFailures(outcomes []ChapterOutcome) int {
	n := 0
	for _, o := range outcomes {
		if !o.Success {
			n++
		}
	}
	return n
}

// Summary aggregates the outcomes of a batch.
type Summary struct {
	Total     int              `json:"total" yaml:"total"`
	Succeeded int              `json:"succeeded" yaml:"succeeded"`
	Failed    int              `json:"failed" yaml:"failed"`
	Chapters  []ChapterOutcome `json:"chapters" yaml:"chapters"`
}

// Summarize counts outcomes by result.
func Summarize(outcomes []ChapterOutcome) Summary {
	failed := CountFailures(outcomes)
	return Summary{
		Total:     len(outcomes),
		Succeeded: len(outcomes) - failed,
		Failed:    failed,
		Chapters:  outcomes,
	}
}
