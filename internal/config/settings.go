package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable override,
// e.g. MANGADL_MAX_RETRIES.
const EnvPrefix = "MANGADL"

// PageSize is a supported PDF page preset.
type PageSize string

const (
	// PageSizeLetter is US Letter, 8.5 x 11 in.
	PageSizeLetter PageSize = "letter"

	// PageSizeA4 is ISO A4, 210 x 297 mm.
	PageSizeA4 PageSize = "a4"
)

// Dimensions returns the page width and height in PDF points (1/72 in).
//
// Unknown presets fall back to Letter, matching the default.
func (p PageSize) Dimensions() (width, height float64) {
	switch p {
	case PageSizeA4:
		return 595.276, 841.89
	default:
		return 612, 792
	}
}

// Valid reports whether p is a supported preset.
func (p PageSize) Valid() bool {
	return p == PageSizeLetter || p == PageSizeA4
}

// Settings holds all configuration options.
//
// Settings is constructed once by the caller and passed by reference to the
// download manager and its components. Durations are stored in seconds so
// that files and environment variables can use plain numbers.
type Settings struct {
	// Output settings
	OutputPath string `json:"output_path" yaml:"output_path" mapstructure:"output_path"`
	TempDir    string `json:"temp_dir" yaml:"temp_dir" mapstructure:"temp_dir"`

	// Fetch settings
	MaxRetries             int     `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
	HTTPTimeout            float64 `json:"http_timeout" yaml:"http_timeout" mapstructure:"http_timeout"`
	RetryBaseDelay         float64 `json:"retry_base_delay" yaml:"retry_base_delay" mapstructure:"retry_base_delay"`
	MaxConcurrentDownloads int     `json:"max_concurrent_downloads" yaml:"max_concurrent_downloads" mapstructure:"max_concurrent_downloads"`
	UserAgent              string  `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// PDF settings
	PageSize           PageSize `json:"pdf_page_size" yaml:"pdf_page_size" mapstructure:"pdf_page_size"`
	PageDPI            int      `json:"pdf_page_dpi" yaml:"pdf_page_dpi" mapstructure:"pdf_page_dpi"`
	PDFCreationTimeout float64  `json:"pdf_creation_timeout" yaml:"pdf_creation_timeout" mapstructure:"pdf_creation_timeout"`
	MaxPDFRetries      int      `json:"max_pdf_retries" yaml:"max_pdf_retries" mapstructure:"max_pdf_retries"`
	Producer           string   `json:"producer" yaml:"producer" mapstructure:"producer"`

	// Batch settings
	MaxBatchRetries int  `json:"max_batch_retries" yaml:"max_batch_retries" mapstructure:"max_batch_retries"`
	RetryFailedOnly bool `json:"retry_failed_only" yaml:"retry_failed_only" mapstructure:"retry_failed_only"`
}

// DefaultSettings returns settings with default values.
func DefaultSettings() *Settings {
	homeDir, _ := os.UserHomeDir()
	return &Settings{
		OutputPath: filepath.Join(homeDir, "Manga"),
		TempDir:    "",

		MaxRetries:             3,
		HTTPTimeout:            10,
		RetryBaseDelay:         1,
		MaxConcurrentDownloads: 2,
		UserAgent:              "MangaDownloader",

		PageSize:           PageSizeLetter,
		PageDPI:            144,
		PDFCreationTimeout: 60,
		MaxPDFRetries:      2,
		Producer:           "MangaDownloader",

		MaxBatchRetries: 2,
		RetryFailedOnly: false,
	}
}

// Load reads settings from an optional file and the environment.
//
// Precedence, lowest first: DefaultSettings, the file at path, MANGADL_*
// environment variables. The file format follows its extension (.yaml, .yml,
// .json, .toml or .env). An empty path or a missing file is not an error.
//
// Example:
//
//	settings, err := config.Load("manga-dl.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
func Load(path string) (*Settings, error) {
	v := newViper()

	if path != "" {
		v.SetConfigFile(path)
		if isDotEnv(path) {
			v.SetConfigType("env")
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	settings.PageSize = PageSize(strings.ToLower(string(settings.PageSize)))

	return settings, nil
}

// WriteDefaults writes a starter config file with default values to path.
//
// Existing files are never overwritten; an error is returned instead.
func WriteDefaults(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file %s already exists", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	v := newViper()
	if isDotEnv(path) {
		v.SetConfigType("env")
	}
	return v.WriteConfigAs(path)
}

// Validate checks that the settings can drive a download run.
func (s *Settings) Validate() error {
	var errs []error
	if s.OutputPath == "" {
		errs = append(errs, errors.New("output_path must be set"))
	}
	if s.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("max_retries must be >= 0, got %d", s.MaxRetries))
	}
	if s.HTTPTimeout <= 0 {
		errs = append(errs, fmt.Errorf("http_timeout must be > 0, got %v", s.HTTPTimeout))
	}
	if s.RetryBaseDelay < 0 {
		errs = append(errs, fmt.Errorf("retry_base_delay must be >= 0, got %v", s.RetryBaseDelay))
	}
	if s.MaxConcurrentDownloads < 1 {
		errs = append(errs, fmt.Errorf("max_concurrent_downloads must be >= 1, got %d", s.MaxConcurrentDownloads))
	}
	if !s.PageSize.Valid() {
		errs = append(errs, fmt.Errorf("pdf_page_size must be %q or %q, got %q", PageSizeLetter, PageSizeA4, s.PageSize))
	}
	if s.PageDPI < 18 || s.PageDPI > 600 {
		errs = append(errs, fmt.Errorf("pdf_page_dpi must be between 18 and 600, got %d", s.PageDPI))
	}
	if s.PDFCreationTimeout <= 0 {
		errs = append(errs, fmt.Errorf("pdf_creation_timeout must be > 0, got %v", s.PDFCreationTimeout))
	}
	if s.MaxPDFRetries < 0 {
		errs = append(errs, fmt.Errorf("max_pdf_retries must be >= 0, got %d", s.MaxPDFRetries))
	}
	if s.MaxBatchRetries < 0 {
		errs = append(errs, fmt.Errorf("max_batch_retries must be >= 0, got %d", s.MaxBatchRetries))
	}
	return errors.Join(errs...)
}

// RequestTimeout returns HTTPTimeout as a duration.
func (s *Settings) RequestTimeout() time.Duration {
	return seconds(s.HTTPTimeout)
}

// BackoffBase returns RetryBaseDelay as a duration.
func (s *Settings) BackoffBase() time.Duration {
	return seconds(s.RetryBaseDelay)
}

// PDFTimeout returns PDFCreationTimeout as a duration.
func (s *Settings) PDFTimeout() time.Duration {
	return seconds(s.PDFCreationTimeout)
}

// newViper returns a private viper instance seeded with defaults and
// environment bindings.
func newViper() *viper.Viper {
	d := DefaultSettings()

	v := viper.New()
	v.SetDefault("output_path", d.OutputPath)
	v.SetDefault("temp_dir", d.TempDir)
	v.SetDefault("max_retries", d.MaxRetries)
	v.SetDefault("http_timeout", d.HTTPTimeout)
	v.SetDefault("retry_base_delay", d.RetryBaseDelay)
	v.SetDefault("max_concurrent_downloads", d.MaxConcurrentDownloads)
	v.SetDefault("user_agent", d.UserAgent)
	v.SetDefault("pdf_page_size", string(d.PageSize))
	v.SetDefault("pdf_page_dpi", d.PageDPI)
	v.SetDefault("pdf_creation_timeout", d.PDFCreationTimeout)
	v.SetDefault("max_pdf_retries", d.MaxPDFRetries)
	v.SetDefault("producer", d.Producer)
	v.SetDefault("max_batch_retries", d.MaxBatchRetries)
	v.SetDefault("retry_failed_only", d.RetryFailedOnly)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	return v
}

func isDotEnv(path string) bool {
	base := strings.ToLower(filepath.Base(path))
	return base == ".env" || strings.HasSuffix(base, ".env")
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
