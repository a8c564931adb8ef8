// =============================================================================
// QDX Converter - Configuration Module
// =============================================================================
//
// This module loads the converter's YAML configuration. Every setting has a
// default, so an empty (or missing) file yields a working setup:
//
//   input_dir: ./input            # where *.qdx logs are picked up
//   output_dir: ./output          # where exported tickets are written
//   parser:
//     loyalty_card_required: true
//     coupons_enabled: false
//     opcodes:                    # optional dispatch overrides
//       "08": coupon
//       "60/1B": clubcard
//   output:
//     format: csv                 # csv | xlsx | xml
//     delimiter: "|"
//
// ARCHITECTURE:
//   LoadMainConfig starts from DefaultMainConfig, unmarshals the file over it,
//   fills any values the file blanked out, validates, and creates missing
//   directories.
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/qdx-converter/internal/export"
	"github.com/ginjaninja78/qdx-converter/internal/parser"
	"github.com/ginjaninja78/qdx-converter/internal/qdx"
	"github.com/ginjaninja78/qdx-converter/pkg/utils"
)

// DefaultConfigPath is used when --config is not given.
const DefaultConfigPath = "config.yaml"

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
type MainConfig struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// InputDir is scanned for QDX logs matching InputPatterns.
	// Default: "./input"
	InputDir string `yaml:"input_dir"`

	// OutputDir receives the exported ticket files.
	// Default: "./output"
	OutputDir string `yaml:"output_dir"`

	// InputArchiveDir receives QDX logs after they are processed successfully.
	// Default: "./input_archive"
	InputArchiveDir string `yaml:"input_archive_dir"`

	// OutputArchiveDir holds the processing summary logs.
	// Default: "./output_archive"
	OutputArchiveDir string `yaml:"output_archive_dir"`

	// InputPatterns are glob patterns matched against file names in InputDir.
	// Default: ["*.qdx", "*.QDX"]
	InputPatterns []string `yaml:"input_patterns"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// LogMode selects the encoder: "dev" for console output, "prod" for JSON.
	// Default: "dev"
	LogMode string `yaml:"log_mode"`

	// LogFile, if set, receives log output in addition to stderr.
	LogFile string `yaml:"log_file"`

	// =========================================================================
	// PROCESSING SETTINGS
	// =========================================================================

	// MaxConcurrency is the maximum number of files processed at once. Each
	// file is still scanned sequentially.
	// Default: 4
	MaxConcurrency int `yaml:"max_concurrency"`

	// ContinueOnError keeps processing other files when one fails.
	// Default: true
	ContinueOnError bool `yaml:"continue_on_error"`

	// ArchiveInputs moves each successfully processed log to InputArchiveDir.
	// Default: true
	ArchiveInputs bool `yaml:"archive_inputs"`

	// Parser holds the stream scanner settings.
	Parser ParserSettings `yaml:"parser"`

	// Output holds the export settings.
	Output OutputSettings `yaml:"output"`
}

// =============================================================================
// PARSER SETTINGS
// =============================================================================

// ParserSettings configures ticket extraction.
type ParserSettings struct {
	// LoyaltyCardRequired drops tickets without a club card.
	// Default: true
	LoyaltyCardRequired bool `yaml:"loyalty_card_required"`

	// Debug retains every raw slot for inspection after the run.
	Debug bool `yaml:"debug"`

	// CouponsEnabled routes opcode 0x08 to the coupon handler.
	// Default: false
	CouponsEnabled bool `yaml:"coupons_enabled"`

	// Opcodes overrides the dispatch table. Keys are a hex primary opcode
	// ("05") or opcode/sub-opcode pair ("60/1B"); values are handler names
	// (line_item, discount, payment, total, clubcard, location, coupon, none).
	//
	// CUSTOMIZATION: Use "none" to silence an opcode without removing code.
	Opcodes map[string]string `yaml:"opcodes"`
}

// Table builds the dispatch table these settings describe.
func (p ParserSettings) Table() (*qdx.Table, error) {
	t := qdx.DefaultTable()
	if p.CouponsEnabled {
		t.EnableCoupons()
	}
	if err := t.Apply(p.Opcodes); err != nil {
		return nil, fmt.Errorf("invalid parser.opcodes: %w", err)
	}
	return t, nil
}

// Options converts the settings into scanner options. The logger is left for
// the caller to set.
func (p ParserSettings) Options() (parser.Options, error) {
	table, err := p.Table()
	if err != nil {
		return parser.Options{}, err
	}
	opts := parser.DefaultOptions()
	opts.LoyaltyCardRequired = p.LoyaltyCardRequired
	opts.Debug = p.Debug
	opts.Table = table
	return opts, nil
}

// =============================================================================
// OUTPUT SETTINGS
// =============================================================================

// OutputSettings configures exported files.
type OutputSettings struct {
	// Format is one of "csv", "xlsx" or "xml".
	// Default: "csv"
	Format string `yaml:"format"`

	// Delimiter is the single-character CSV field separator.
	// Default: "|"
	Delimiter string `yaml:"delimiter"`

	// DecimalAmounts renders minor-unit amounts as "12.34" instead of "1234".
	DecimalAmounts bool `yaml:"decimal_amounts"`

	// TimeLayout is a Go time layout for dates.
	// Default: RFC 3339
	TimeLayout string `yaml:"time_layout"`

	// FileNameFormat names output files, without extension.
	// Placeholders:
	//   {original}  - input file name without extension
	//   {uuid}      - a random UUID
	//   {timestamp} - current time (YYYYMMDD_HHMMSS)
	//   {date}      - current date (YYYYMMDD)
	//
	// Default: "{original}"
	FileNameFormat string `yaml:"file_name_format"`
}

// ExportOptions converts the settings into writer options.
func (o OutputSettings) ExportOptions() (export.Options, error) {
	if utf8.RuneCountInString(o.Delimiter) != 1 {
		return export.Options{}, fmt.Errorf("output.delimiter must be a single character, got %q", o.Delimiter)
	}
	d, _ := utf8.DecodeRuneInString(o.Delimiter)
	return export.Options{
		Delimiter:      d,
		DecimalAmounts: o.DecimalAmounts,
		TimeLayout:     o.TimeLayout,
	}, nil
}

// Writer returns the export writer for these settings.
func (o OutputSettings) Writer() (export.Writer, error) {
	opts, err := o.ExportOptions()
	if err != nil {
		return nil, err
	}
	return export.New(o.Format, opts)
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// DefaultMainConfig returns the configuration used when no file is present.
func DefaultMainConfig() *MainConfig {
	return &MainConfig{
		InputDir:         "./input",
		OutputDir:        "./output",
		InputArchiveDir:  "./input_archive",
		OutputArchiveDir: "./output_archive",
		InputPatterns:    []string{"*.qdx", "*.QDX"},
		LogLevel:         "info",
		LogMode:          "dev",
		MaxConcurrency:   4,
		ContinueOnError:  true,
		ArchiveInputs:    true,
		Parser: ParserSettings{
			LoyaltyCardRequired: true,
		},
		Output: OutputSettings{
			Format:         "csv",
			Delimiter:      "|",
			FileNameFormat: "{original}",
		},
	}
}

// LoadMainConfig loads the main configuration from a YAML file.
//
// PARAMETERS:
//   - configPath: The path to the main configuration file.
//
// RETURNS:
//   - A pointer to the MainConfig struct.
//   - An error if the file cannot be read or parsed, or fails validation.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return ParseMainConfig(data)
}

// LoadMainConfigOrDefault behaves like LoadMainConfig but falls back to the
// defaults when the file does not exist.
func LoadMainConfigOrDefault(configPath string) (*MainConfig, error) {
	cfg, err := LoadMainConfig(configPath)
	if errors.Is(err, os.ErrNotExist) {
		cfg = DefaultMainConfig()
		if err := validateMainConfig(cfg); err != nil {
			return nil, fmt.Errorf("invalid configuration: %w", err)
		}
		return cfg, nil
	}
	return cfg, err
}

// ParseMainConfig parses YAML over the defaults and validates the result.
func ParseMainConfig(data []byte) (*MainConfig, error) {
	config := DefaultMainConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyMainConfigDefaults(config)

	if err := validateMainConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

// applyMainConfigDefaults refills values a file explicitly blanked out.
func applyMainConfigDefaults(config *MainConfig) {
	defaults := DefaultMainConfig()

	if config.InputDir == "" {
		config.InputDir = defaults.InputDir
	}
	if config.OutputDir == "" {
		config.OutputDir = defaults.OutputDir
	}
	if config.InputArchiveDir == "" {
		config.InputArchiveDir = defaults.InputArchiveDir
	}
	if config.OutputArchiveDir == "" {
		config.OutputArchiveDir = defaults.OutputArchiveDir
	}
	if len(config.InputPatterns) == 0 {
		config.InputPatterns = defaults.InputPatterns
	}
	if config.LogLevel == "" {
		config.LogLevel = defaults.LogLevel
	}
	if config.LogMode == "" {
		config.LogMode = defaults.LogMode
	}
	if config.MaxConcurrency == 0 {
		config.MaxConcurrency = defaults.MaxConcurrency
	}
	if config.Output.Format == "" {
		config.Output.Format = defaults.Output.Format
	}
	if config.Output.Delimiter == "" {
		config.Output.Delimiter = defaults.Output.Delimiter
	}
	if config.Output.FileNameFormat == "" {
		config.Output.FileNameFormat = defaults.Output.FileNameFormat
	}
	config.Output.Format = strings.ToLower(config.Output.Format)
}

// validateMainConfig checks settings that would otherwise fail mid-run and
// creates any missing directories.
func validateMainConfig(config *MainConfig) error {
	if config.MaxConcurrency < 1 {
		return fmt.Errorf("max_concurrency must be at least 1, got %d", config.MaxConcurrency)
	}
	if _, err := config.Parser.Table(); err != nil {
		return err
	}
	if _, err := config.Output.Writer(); err != nil {
		return err
	}

	fm := utils.NewFileManager(config.InputDir, config.OutputDir,
		config.InputArchiveDir, config.OutputArchiveDir)
	if err := fm.EnsureDirectories(); err != nil {
		return err
	}

	return nil
}
