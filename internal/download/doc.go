// Package download provides the batch orchestration logic for turning
// chapter jobs into verified PDF documents.
//
// # Manager
//
// The Manager processes chapters one after another. For each chapter it:
//
//  1. Creates a private temporary workspace
//  2. Downloads all page images concurrently (see package fetch)
//  3. Converts the downloaded pages to PNG, dropping unusable ones
//  4. Assembles the pages into a PDF with a timeout and retries
//  5. Verifies the document and moves it to the output directory
//  6. Removes the workspace
//
// # Basic Usage
//
//	manager := download.NewManager(settings, func(event download.ProgressEvent) {
//	    fmt.Printf("[%d/%d] %s\n", event.Completed, event.Total, event.Message)
//	}, download.WithLogger(logger))
//
//	outcomes, err := manager.ProcessBatch(ctx, jobs)
//	if err != nil {
//	    log.Fatal(err) // invalid settings or unusable output directory
//	}
//	for _, o := range outcomes {
//	    fmt.Println(o.ChapterID, o.Success, o.PDFPath)
//	}
//
// # Concurrency
//
// settings.MaxConcurrentDownloads bounds the page fetches in flight for a
// chapter. Document assembly runs on its own goroutine so that the
// PDF creation timeout can be enforced.
//
// # Retries
//
// Three layers of retry exist:
//   - Page fetches: settings.MaxRetries with exponential backoff
//   - Document assembly: settings.MaxPDFRetries with exponential backoff
//   - The whole batch: settings.MaxBatchRetries passes while failures remain
//
// A document that fails verification is not retried within the pass.
//
// # Cancellation
//
// Cancelling the context passed to ProcessBatch, or calling Cancel, stops
// the batch. No new chapter or fetch attempt starts and ProcessBatch returns
// an empty result.
package download
