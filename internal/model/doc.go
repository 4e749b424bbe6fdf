// Package model defines the core data structures used throughout
// the manga-downloader application.
//
// # ChapterJob
//
// ChapterJob is the input descriptor for one chapter, as supplied by the
// catalog client:
//
//	job := model.ChapterJob{ID: "c1", Title: "Work", Number: "3", ImageURLs: urls}
//	fmt.Println(job.FileName()) // "Work_Chapter_3.pdf"
//
// # FetchResult
//
// FetchResult is the per-image outcome of a download. An empty Path is an
// absence marker; Index restores page order after concurrent fetches.
//
// # ChapterOutcome
//
// ChapterOutcome is returned to the caller once per job and batch attempt:
//
//	for _, o := range outcomes {
//	    if o.Success {
//	        fmt.Println(o.PDFPath)
//	    }
//	}
//
// # BatchRun
//
// BatchRun tracks whole-batch retry state for one ProcessBatch call.
package model
