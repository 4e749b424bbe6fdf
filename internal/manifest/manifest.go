package manifest

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/handiism/manga-downloader/internal/model"
)

// Manifest is the on-disk list of chapters to download.
//
// Title, WorkID, Authors and Tags at the top level apply to every chapter
// that does not set its own.
type Manifest struct {
	Title    string             `yaml:"title,omitempty"`
	WorkID   string             `yaml:"work_id,omitempty"`
	Authors  []string           `yaml:"authors,omitempty"`
	Tags     []string           `yaml:"tags,omitempty"`
	Chapters []model.ChapterJob `yaml:"chapters"`
}

// Load reads a manifest file and returns its chapter jobs in file order.
//
// Both YAML and JSON manifests are accepted.
//
// Example manifest:
//
//	title: Blue Period
//	authors: [Tsubasa Yamaguchi]
//	chapters:
//	  - id: c0ffee
//	    number: "12"
//	    image_urls:
//	      - https://cdn.example.com/data/h/1.jpg
//	      - https://cdn.example.com/data/h/2.jpg
func Load(path string) ([]model.ChapterJob, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	jobs, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	return jobs, nil
}

// Parse decodes a manifest from r. Unknown keys are rejected.
func Parse(r io.Reader) ([]model.ChapterJob, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var m Manifest
	if err := dec.Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty manifest")
		}
		return nil, err
	}

	jobs := m.jobs()
	if err := validate(jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// Write encodes jobs as a YAML manifest.
func Write(w io.Writer, jobs []model.ChapterJob) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(Manifest{Chapters: jobs}); err != nil {
		return err
	}
	return enc.Close()
}

func (m Manifest) jobs() []model.ChapterJob {
	jobs := make([]model.ChapterJob, len(m.Chapters))
	for i, c := range m.Chapters {
		if c.Title == "" {
			c.Title = m.Title
		}
		if c.WorkID == "" {
			c.WorkID = m.WorkID
		}
		if len(c.Authors) == 0 {
			c.Authors = m.Authors
		}
		if len(c.Tags) == 0 {
			c.Tags = m.Tags
		}
		jobs[i] = c
	}
	return jobs
}

func validate(jobs []model.ChapterJob) error {
	if len(jobs) == 0 {
		return errors.New("no chapters")
	}

	var errs []error
	seen := make(map[string]bool, len(jobs))
	files := make(map[string]int, len(jobs))
	for i, j := range jobs {
		switch {
		case j.ID == "":
			errs = append(errs, fmt.Errorf("chapter %d: id is required", i+1))
		case seen[j.ID]:
			errs = append(errs, fmt.Errorf("chapter %d: duplicate id %q", i+1, j.ID))
		}
		seen[j.ID] = true

		// Chapters sharing a file name would overwrite each other's document
		name := j.FileName()
		if prev, ok := files[name]; ok {
			errs = append(errs, fmt.Errorf("chapter %d: file name %q already used by chapter %d", i+1, name, prev))
		} else {
			files[name] = i + 1
		}

		if j.Title == "" {
			errs = append(errs, fmt.Errorf("chapter %d: title is required", i+1))
		}

		for k, raw := range j.ImageURLs {
			u, err := url.Parse(raw)
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
				errs = append(errs, fmt.Errorf("chapter %d: image %d: invalid URL %q", i+1, k+1, raw))
			}
		}
	}
	return errors.Join(errs...)
}
