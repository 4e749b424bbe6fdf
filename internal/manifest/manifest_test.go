package manifest

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/handiism/manga-downloader/internal/model"
)

const sample = `
title: Blue Period
work_id: w-1
authors: [Tsubasa Yamaguchi]
tags: [Drama]
chapters:
  - id: c-12
    number: "12"
    image_urls:
      - https://cdn.example.com/data/h/1.jpg
      - https://cdn.example.com/data/h/2.png
  - id: c-13
    number: "13"
    title: Blue Period Extra
    tags: [Art, School]
    image_urls:
      - https://cdn.example.com/data/i/1.jpg
`

func TestParse(t *testing.T) {
	jobs, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	assert.Equal(t, "c-12", jobs[0].ID)
	assert.Equal(t, "Blue Period", jobs[0].Title)
	assert.Equal(t, "w-1", jobs[0].WorkID)
	assert.Equal(t, []string{"Tsubasa Yamaguchi"}, jobs[0].Authors)
	assert.Equal(t, []string{"Drama"}, jobs[0].Tags)
	assert.Len(t, jobs[0].ImageURLs, 2)

	assert.Equal(t, "Blue Period Extra", jobs[1].Title)
	assert.Equal(t, []string{"Art", "School"}, jobs[1].Tags)
}

func TestParse_JSON(t *testing.T) {
	doc := `{"chapters": [{"id": "a", "title": "T", "number": "1", "image_urls": ["http://x.test/1.jpg"]}]}`
	jobs, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "T_Chapter_1.pdf", jobs[0].FileName())
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"empty", "", "empty manifest"},
		{"no chapters", "title: X\nchapters: []\n", "no chapters"},
		{"missing id", "chapters:\n  - title: X\n", "id is required"},
		{"missing title", "chapters:\n  - id: a\n", "title is required"},
		{"duplicate id", "title: X\nchapters:\n  - id: a\n  - id: a\n", "duplicate id"},
		{"duplicate file name", "title: X\nchapters:\n  - id: a\n    number: \"1\"\n  - id: b\n    number: \"1\"\n", `file name "X_Chapter_1.pdf" already used by chapter 1`},
		{"bad url", "title: X\nchapters:\n  - id: a\n    image_urls: [ftp://x/1.jpg]\n", "invalid URL"},
		{"unknown key", "title: X\nchapterz: []\n", "chapterz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0644))

	jobs, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, jobs, 2)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestWrite_RoundTrip(t *testing.T) {
	jobs := []model.ChapterJob{{
		ID:        "x",
		Title:     "Work",
		Number:    "10.5",
		ImageURLs: []string{"https://cdn.example.com/1.jpg"},
	}}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, jobs))

	got, err := Parse(&buf)
	require.NoError(t, err)
	assert.Equal(t, jobs, got)
}
