package output

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	ioutils "github.com/handiism/manga-downloader/internal/io"
)

// Format defines the encoding of structured command output.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ParseFormat returns the Format named by s. The empty string selects YAML.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case "", FormatYAML:
		return FormatYAML, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown output format: %s", s)
	}
}

// Write encodes data to w in the given format.
func Write(w io.Writer, format Format, data any) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(data)
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
}

// WriteFile encodes data into the file at path, replacing it if it exists.
func WriteFile(ctx context.Context, path string, format Format, data any) error {
	var b strings.Builder
	if err := Write(&b, format, data); err != nil {
		return err
	}
	return ioutils.WriteFile(ctx, path, []byte(b.String()))
}

// Print encodes data to stdout.
func Print(format Format, data any) error {
	return Write(os.Stdout, format, data)
}
