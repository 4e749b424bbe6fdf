// Package fetch downloads chapter page images with bounded retries.
//
// A Fetcher wraps the HTTP client with exponential backoff and a quality
// check. It turns every failure into data: the result of each fetch is
// recorded in a Collector as either a validated file path or an absence
// marker, so one bad page never aborts a chapter.
//
// # Retries
//
// An attempt that fails is retried up to Options.MaxRetries times. The wait
// before retry k is BaseDelay * 2^(k-1). Any non-2xx status counts as a
// failure, client errors included. Cancellation of the context is observed
// before every attempt and during every wait.
//
//	f := fetch.NewFetcher(client, imageService, fetch.Options{
//	    MaxRetries: 3,
//	    BaseDelay:  time.Second,
//	    OnBackoff: func(attempt uint, d time.Duration, err error) {
//	        log.Printf("retry %d in %s: %v", attempt, d, err)
//	    },
//	}, logger)
//
// # Quality Check
//
// A downloaded file must decode completely as an image and be at least
// 10x10 pixels. A failed check is final for that page. Pages that pass are
// reported to Options.OnSaved with their size in bytes.
package fetch
