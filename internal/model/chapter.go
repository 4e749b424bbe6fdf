package model

import (
	"fmt"
	"strings"
	"unicode/utf8"

	ioutils "github.com/handiism/manga-downloader/internal/io"
)

const (
	unknownTitle  = "Unknown Manga"
	unknownNumber = "Unknown"
)

// ChapterJob describes one chapter to download and assemble into a PDF.
//
// ChapterJob is produced by the catalog client ahead of time and handed to the
// download manager. It contains everything needed to fetch the pages and to
// annotate the resulting document:
//   - ID and WorkID to correlate the outcome with catalog records
//   - Title and Number for naming the document
//   - ImageURLs in reading order
//   - Authors and Tags for PDF metadata
//
// A ChapterJob must not be modified once submitted to the manager. The index
// of each URL in ImageURLs determines the page order of the output document.
//
// Example:
//
//	job := ChapterJob{
//	    ID:        "c0ffee",
//	    WorkID:    "a1b2c3",
//	    Title:     "Blue Period",
//	    Number:    "12",
//	    ImageURLs: []string{"https://cdn.example.com/data/h/1.jpg"},
//	    Authors:   []string{"Tsubasa Yamaguchi"},
//	    Tags:      []string{"Drama"},
//	}
//	job.FileName() // "Blue Period_Chapter_12.pdf"
type ChapterJob struct {
	// ID is the catalog identifier of the chapter.
	ID string `json:"id" yaml:"id"`

	// WorkID is the catalog identifier of the work the chapter belongs to.
	WorkID string `json:"work_id,omitempty" yaml:"work_id,omitempty"`

	// Title is the title of the owning work.
	Title string `json:"title" yaml:"title"`

	// Number is the chapter label as published ("12", "10.5", "Extra").
	Number string `json:"number" yaml:"number"`

	// ImageURLs are the page image locators in reading order.
	ImageURLs []string `json:"image_urls" yaml:"image_urls"`

	// Authors are written to the PDF Author field.
	Authors []string `json:"authors,omitempty" yaml:"authors,omitempty"`

	// Tags are appended to the PDF Keywords field.
	Tags []string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// FileName returns the deterministic document file name for the chapter.
//
// The name has the form "<title>_Chapter_<number>.pdf" with characters that
// are invalid on common file systems replaced by underscores.
func (j ChapterJob) FileName() string {
	name := fmt.Sprintf("%s_Chapter_%s", j.title(), j.number())
	name = ioutils.SanitizeFileName(name)

	// Leave room for the extension within common 255 byte name limits
	if len(name) > 250 {
		cut := 250
		for cut > 0 && !utf8.RuneStart(name[cut]) {
			cut--
		}
		name = name[:cut]
	}

	return name + ".pdf"
}

// DocumentTitle returns the PDF Title field, e.g. "Blue Period - Chapter 12".
func (j ChapterJob) DocumentTitle() string {
	return fmt.Sprintf("%s - Chapter %s", j.title(), j.number())
}

// Subject returns the PDF Subject field, e.g. "Chapter 12".
func (j ChapterJob) Subject() string {
	return fmt.Sprintf("Chapter %s", j.number())
}

// Author returns the PDF Author field as a comma separated list.
func (j ChapterJob) Author() string {
	return strings.Join(j.Authors, ", ")
}

// Keywords returns the PDF Keywords field: "Manga", the work title and the
// chapter tags, in that order.
func (j ChapterJob) Keywords() string {
	parts := make([]string, 0, len(j.Tags)+2)
	parts = append(parts, "Manga", j.title())
	return strings.Join(append(parts, j.Tags...), ", ")
}

// Label returns a short human readable description used in progress messages.
func (j ChapterJob) Label() string {
	return fmt.Sprintf("%s chapter %s", j.title(), j.number())
}

func (j ChapterJob) title() string {
	if strings.TrimSpace(j.Title) == "" {
		return unknownTitle
	}
	return j.Title
}

func (j ChapterJob) number() string {
	if strings.TrimSpace(j.Number) == "" {
		return unknownNumber
	}
	return j.Number
}
