package output

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/handiism/manga-downloader/internal/model"
)

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)

	f, err = ParseFormat("JSON")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	_, err = ParseFormat("xml")
	assert.Error(t, err)
}

func TestWrite(t *testing.T) {
	outcome := model.ChapterOutcome{ChapterID: "c1", Success: true, PDFPath: "/m/a.pdf", Pages: 3}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatJSON, outcome))
	var fromJSON map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &fromJSON))
	assert.Equal(t, "c1", fromJSON["chapter_id"])
	assert.NotContains(t, fromJSON, "reason")

	buf.Reset()
	require.NoError(t, Write(&buf, FormatYAML, outcome))
	var fromYAML map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &fromYAML))
	assert.Equal(t, "/m/a.pdf", fromYAML["pdf_path"])
	assert.Equal(t, 3, fromYAML["pages"])

	assert.Error(t, Write(&buf, Format("xml"), outcome))
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.yaml")
	require.NoError(t, WriteFile(context.Background(), path, FormatYAML, map[string]int{"failed": 1}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "failed: 1\n", string(data))
}
