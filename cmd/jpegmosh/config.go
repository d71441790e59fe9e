package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tailscale/hujson"

	"github.com/gen2brain/jpegmosh"
)

// ConfigFileName is the default config file name, looked up in the working directory.
const ConfigFileName = ".jpegmosh.json"

// defaultRetries matches the number of attempts made when validation rejects a result.
const defaultRetries = 10

var (
	errConfigFileNotFound = errors.New("config file not found")
	errConfigFileRead     = errors.New("cannot read config file")
	errConfigInvalid      = errors.New("invalid config file")
	errRetriesInvalid     = errors.New("retries must be at least 1")
)

// fileConfig is the on-disk JSONC layout. Pointers tell unset fields from zero values.
type fileConfig struct {
	CorruptQT     string `json:"corrupt_qt,omitempty"` //nolint:tagliatelle // snake_case for config file
	CorruptIM     string `json:"corrupt_im,omitempty"` //nolint:tagliatelle // snake_case for config file
	Validate      *bool  `json:"validate,omitempty"`
	DecodeCheck   *bool  `json:"decode_check,omitempty"`   //nolint:tagliatelle // snake_case for config file
	Retries       *int   `json:"retries,omitempty"`
	StripMetadata *bool  `json:"strip_metadata,omitempty"` //nolint:tagliatelle // snake_case for config file
}

// Config holds the resolved corruption settings.
type Config struct {
	QT            jpegmosh.Spec
	IM            jpegmosh.Spec
	Validate      bool
	DecodeCheck   bool
	Retries       int
	StripMetadata bool
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		QT:      jpegmosh.DefaultQuantizationSpec,
		IM:      jpegmosh.DefaultImageSpec,
		Retries: defaultRetries,
	}
}

// Validation maps the boolean switches to a validation level.
func (c Config) Validation() jpegmosh.Validation {
	switch {
	case c.DecodeCheck:
		return jpegmosh.ValidateDecode
	case c.Validate:
		return jpegmosh.ValidateStructure
	default:
		return jpegmosh.ValidateNone
	}
}

// LoadConfig loads configuration with the following precedence (highest wins):
// 1. Defaults
// 2. Project config file at default location (.jpegmosh.json, if exists)
// 3. Explicit config file via configPath (replaces 2, must exist)
// Flag overrides are applied by the caller.
func LoadConfig(workDir, configPath string) (Config, string, error) {
	cfg := DefaultConfig()

	var cfgFile string

	var mustExist bool

	if configPath != "" {
		cfgFile = configPath
		if !filepath.IsAbs(cfgFile) {
			cfgFile = filepath.Join(workDir, cfgFile)
		}

		mustExist = true

		if _, statErr := os.Stat(cfgFile); statErr != nil {
			return Config{}, "", fmt.Errorf("%w: %s", errConfigFileNotFound, configPath)
		}
	} else {
		cfgFile = filepath.Join(workDir, ConfigFileName)
	}

	data, err := os.ReadFile(cfgFile) //nolint:gosec // path is intentionally user-controlled
	if err != nil {
		if os.IsNotExist(err) && !mustExist {
			return cfg, "", nil
		}

		return Config{}, "", fmt.Errorf("%w: %s", errConfigFileRead, cfgFile)
	}

	fc, err := parseConfig(data)
	if err != nil {
		return Config{}, "", fmt.Errorf("%w %s: %w", errConfigInvalid, cfgFile, err)
	}

	cfg, err = mergeConfig(cfg, fc)
	if err != nil {
		return Config{}, "", fmt.Errorf("%w %s: %w", errConfigInvalid, cfgFile, err)
	}

	return cfg, cfgFile, nil
}

func parseConfig(data []byte) (fileConfig, error) {
	// Standardize JSONC to JSON
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return fileConfig{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	var fc fileConfig

	if err := json.Unmarshal(standardized, &fc); err != nil {
		return fileConfig{}, fmt.Errorf("invalid JSON: %w", err)
	}

	return fc, nil
}

func mergeConfig(base Config, overlay fileConfig) (Config, error) {
	if overlay.CorruptQT != "" {
		spec, err := jpegmosh.ParseSpec(overlay.CorruptQT)
		if err != nil {
			return Config{}, fmt.Errorf("corrupt_qt: %w", err)
		}

		base.QT = spec
	}

	if overlay.CorruptIM != "" {
		spec, err := jpegmosh.ParseSpec(overlay.CorruptIM)
		if err != nil {
			return Config{}, fmt.Errorf("corrupt_im: %w", err)
		}

		base.IM = spec
	}

	if overlay.Validate != nil {
		base.Validate = *overlay.Validate
	}

	if overlay.DecodeCheck != nil {
		base.DecodeCheck = *overlay.DecodeCheck
	}

	if overlay.Retries != nil {
		base.Retries = *overlay.Retries
	}

	if overlay.StripMetadata != nil {
		base.StripMetadata = *overlay.StripMetadata
	}

	return base, validateConfig(base)
}

func validateConfig(cfg Config) error {
	if cfg.Retries < 1 {
		return errRetriesInvalid
	}

	return nil
}
