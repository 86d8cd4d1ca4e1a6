package spectra

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tsawler/spectra/parser"
	"github.com/tsawler/spectra/render"
	"github.com/tsawler/spectra/sandbox"
)

// Config holds engine-wide settings. Zero values mean the defaults from
// DefaultConfig.
type Config struct {
	// MaxInputSize is the admission ceiling in bytes for any input or
	// archive member.
	MaxInputSize int64

	// Workers bounds concurrent sandboxed parses.
	Workers int

	// Limits are the fallback sandbox limits when a parser declares none.
	Limits sandbox.Limits

	// ParseOptions are handed to every parser invocation.
	ParseOptions parser.Options

	// NestingDepth is how many archive levels are parsed into nested
	// documents. Members below the deepest level stay raw attachments.
	NestingDepth int

	// OCR enables text recognition on image inputs. It only takes effect
	// in binaries built with the ocr tag.
	OCR bool

	// OCRLanguage selects OCR languages, "+"-separated. Empty means the
	// engine default.
	OCRLanguage string

	// Logger receives pipeline stage logging. Defaults to slog.Default().
	Logger *slog.Logger

	// ExtraParsers are registered after the built-ins, so built-ins win
	// ties for shared formats.
	ExtraParsers []parser.Parser

	// ExtraRenderers are registered alongside the built-in targets.
	ExtraRenderers []render.Renderer
}

// DefaultConfig returns the settings New starts from.
func DefaultConfig() Config {
	return Config{
		MaxInputSize: 128 << 20,
		Workers:      4,
		Limits: sandbox.Limits{
			MaxMemory: 512 << 20,
			Timeout:   60 * time.Second,
		},
		ParseOptions: parser.DefaultOptions(),
		NestingDepth: 2,
	}
}

// fileConfig is the YAML shape of a config file. Durations are strings in
// time.ParseDuration form.
type fileConfig struct {
	MaxInputSize int64 `yaml:"max_input_size"`
	Workers      int   `yaml:"workers"`
	Limits       struct {
		MaxMemory int64  `yaml:"max_memory"`
		Timeout   string `yaml:"timeout"`
	} `yaml:"limits"`
	Parse struct {
		ExtractImages    *bool `yaml:"extract_images"`
		ExtractStructure *bool `yaml:"extract_structure"`
	} `yaml:"parse"`
	NestingDepth *int `yaml:"nesting_depth"`
	OCR          struct {
		Enabled  bool   `yaml:"enabled"`
		Language string `yaml:"language"`
	} `yaml:"ocr"`
}

// LoadConfig reads a YAML config file and overlays it on DefaultConfig.
// Absent keys keep their defaults.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig overlays YAML bytes on DefaultConfig.
func ParseConfig(data []byte) (Config, error) {
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}

	cfg := DefaultConfig()
	if fc.MaxInputSize > 0 {
		cfg.MaxInputSize = fc.MaxInputSize
	}
	if fc.Workers > 0 {
		cfg.Workers = fc.Workers
	}
	if fc.Limits.MaxMemory > 0 {
		cfg.Limits.MaxMemory = fc.Limits.MaxMemory
	}
	if fc.Limits.Timeout != "" {
		d, err := time.ParseDuration(fc.Limits.Timeout)
		if err != nil {
			return Config{}, fmt.Errorf("parsing config: limits.timeout: %w", err)
		}
		cfg.Limits.Timeout = d
	}
	if fc.Parse.ExtractImages != nil {
		cfg.ParseOptions.ExtractImages = *fc.Parse.ExtractImages
	}
	if fc.Parse.ExtractStructure != nil {
		cfg.ParseOptions.ExtractStructure = *fc.Parse.ExtractStructure
	}
	if fc.NestingDepth != nil && *fc.NestingDepth >= 0 {
		cfg.NestingDepth = *fc.NestingDepth
	}
	if fc.OCR.Enabled {
		cfg.OCR = true
		cfg.OCRLanguage = fc.OCR.Language
	}
	return cfg, nil
}
