// Package manifest reads the chapter lists handed to the downloader.
//
// A manifest is a YAML (or JSON) document exported by the catalog client.
// It names each chapter's identifiers, labels, page image URLs and the
// metadata written into the resulting PDF.
package manifest
