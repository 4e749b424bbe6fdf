// Package config provides configuration management for manga-downloader.
//
// This package handles:
//   - Default configuration values
//   - Loading settings from YAML, JSON, TOML or .env files
//   - MANGADL_* environment variable overrides
//   - Validation before a download run starts
//
// # Default Settings
//
// Use DefaultSettings() to get sensible defaults:
//
//	settings := config.DefaultSettings()
//	// PDFs go to ~/Manga
//	// 3 fetch retries, 10s request timeout, 2 concurrent fetches
//	// Letter pages, 60s PDF creation timeout
//
// # Loading from File and Environment
//
//	settings, err := config.Load("/path/to/manga-dl.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Environment variables win over the file:
//
//	MANGADL_MAX_CONCURRENT_DOWNLOADS=4 MANGADL_PDF_PAGE_SIZE=a4 manga-dl download jobs.yaml
//
// # Starter File
//
//	err := config.WriteDefaults(".env")
//
// # Configuration Options
//
// Settings includes options for:
//   - Output and temporary directories
//   - Fetch retries, request timeout and retry backoff
//   - Concurrent downloads per chapter
//   - PDF page size, raster resolution, creation timeout and retries
//   - Whole-batch retries
package config
