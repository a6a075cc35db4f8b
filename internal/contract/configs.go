package contract

import (
	"fmt"
	"strings"
	"time"

	"github.com/cqscope/cqscope/schema"
)

// Default values for configuration.
const (
	DefaultWindow        = 5
	DefaultMinPopulation = 5
	MaxWindow            = 365
	DefaultPrecision     = 3
	DefaultResultLimit   = 25
	MaxResultLimit       = 1000
)

// DateTimeFormat is the default date time representation.
var DateTimeFormat = time.RFC3339

// DefaultTimeFormats are tried in order when loading tables without an
// explicit --time-format.
var DefaultTimeFormats = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ConfidenceRawInput holds the confidence weight overrides from the YAML
// config file. Use float64 pointers so absent fields keep their defaults.
type ConfidenceRawInput struct {
	Base    *float64 `mapstructure:"base"`
	Strong  *float64 `mapstructure:"strong"`
	Support *float64 `mapstructure:"support"`
	Penalty *float64 `mapstructure:"penalty"`
}

// ColumnsRawInput holds the input column name overrides from the YAML
// config file.
type ColumnsRawInput struct {
	Site *string `mapstructure:"site"`
	Time *string `mapstructure:"time"`
	Q    *string `mapstructure:"q"`
	C    *string `mapstructure:"c"`
}

// Config holds the runtime configuration for a run.
// This struct remains the "final, validated" config.
type Config struct {
	InputPath  string // CSV file or directory of CSV files (positional arg)
	SiteFilter string // restrict processing to one site ID
	StartTime  time.Time
	EndTime    time.Time

	SiteColumn string
	TimeColumn string
	QColumn    string
	CColumn    string
	TimeFormat string // empty means try DefaultTimeFormats in order

	Window        int
	MinPopulation int
	Precision     int
	ResultLimit   int
	Width         int // Terminal width override (0 = auto-detect)

	Output     schema.OutputFormat
	OutputFile string

	RunsBackend   schema.DatabaseBackend
	RunsDBConnect string // Please use env var as this is plaintext

	// Confidence weights for the phase classifier, defaults overridable
	// from the config file.
	ConfidenceBase    float64
	ConfidenceStrong  float64
	ConfidenceSupport float64
	ConfidencePenalty float64

	UseColors bool // Enable colored labels in table output
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	InputPathStr string

	// --- Fields from rootCmd.PersistentFlags() ---
	Site          string `mapstructure:"site"`
	Start         string `mapstructure:"start"`
	End           string `mapstructure:"end"`
	Window        int    `mapstructure:"window"`
	MinPopulation int    `mapstructure:"min-population"`
	Precision     int    `mapstructure:"precision"`
	Output        string `mapstructure:"output"`
	OutputFile    string `mapstructure:"output-file"`
	TimeFormat    string `mapstructure:"time-format"`
	RunsBackend   string `mapstructure:"runs-backend"`
	RunsDBConnect string `mapstructure:"runs-db-connect"`
	Color         string `mapstructure:"color"`
	Width         int    `mapstructure:"width"`

	// --- Fields from runsCmd.Flags() ---
	Limit int `mapstructure:"limit"`

	// --- Column names from config file ---
	Columns ColumnsRawInput `mapstructure:"columns"`

	// --- Confidence weights from config file ---
	Confidence ConfidenceRawInput `mapstructure:"confidence"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// ProcessAndValidate performs all complex parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processTimeRange(cfg, input); err != nil {
		return err
	}
	if err := processColumns(cfg, input); err != nil {
		return err
	}
	if err := processConfidenceWeights(cfg, input); err != nil {
		return err
	}
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection
// strings for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("runs-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("runs-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateSimpleInputs processes and validates all non-time related fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	// --- 0. Transfer simple non-validated fields from input -> cfg ---
	cfg.InputPath = input.InputPathStr
	cfg.SiteFilter = strings.TrimSpace(input.Site)
	cfg.OutputFile = input.OutputFile
	cfg.TimeFormat = strings.TrimSpace(input.TimeFormat)
	cfg.Width = input.Width

	// Parse color flag
	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	// --- 1. Window Validation ---
	if input.Window < 2 || input.Window > MaxWindow {
		return fmt.Errorf("window must be between 2 and %d (received %d)", MaxWindow, input.Window)
	}
	cfg.Window = input.Window

	// --- 2. MinPopulation Validation ---
	if input.MinPopulation < 2 {
		return fmt.Errorf("min-population must be at least 2 (received %d)", input.MinPopulation)
	}
	cfg.MinPopulation = input.MinPopulation

	// --- 3. Precision and Output Validation ---
	if input.Precision < 1 || input.Precision > 6 {
		return fmt.Errorf("precision must be between 1 and 6 (received %d)", input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputFormat(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputFormats[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet", input.Output)
	}
	if cfg.Output == schema.ParquetOut && cfg.OutputFile == "" {
		return fmt.Errorf("parquet output requires --output-file")
	}

	// --- 4. Result Limit Validation ---
	if input.Limit <= 0 || input.Limit > MaxResultLimit {
		return fmt.Errorf("limit must be greater than 0 and cannot exceed %d (received %d)", MaxResultLimit, input.Limit)
	}
	cfg.ResultLimit = input.Limit

	// --- 5. Backend Validation ---
	cfg.RunsBackend = schema.DatabaseBackend(strings.ToLower(input.RunsBackend))
	if _, ok := schema.ValidDatabaseBackends[cfg.RunsBackend]; !ok {
		return fmt.Errorf("invalid runs backend '%s'. must be sqlite, mysql, postgresql, none", input.RunsBackend)
	}
	cfg.RunsDBConnect = input.RunsDBConnect
	if err := ValidateDatabaseConnectionString(cfg.RunsBackend, cfg.RunsDBConnect); err != nil {
		return err
	}

	return nil
}

// processTimeRange handles date parsing and time range validation. Both
// bounds are optional row filters; zero values mean unbounded.
func processTimeRange(cfg *Config, input *ConfigRawInput) error {
	now := time.Now()

	parseBound := func(s string) (time.Time, error) {
		if t, err := time.Parse(DateTimeFormat, s); err == nil {
			return t, nil
		}
		if t, err := time.Parse("2006-01-02", s); err == nil {
			return t, nil
		}
		t, err := ParseRelativeTime(s, now)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid date format for '%s'. Expected absolute ISO8601, YYYY-MM-DD or 'N [units] ago'", s)
		}
		return t, nil
	}

	if input.Start != "" {
		t, err := parseBound(input.Start)
		if err != nil {
			return err
		}
		cfg.StartTime = t
	}
	if input.End != "" {
		t, err := parseBound(input.End)
		if err != nil {
			return err
		}
		cfg.EndTime = t
	}

	if !cfg.StartTime.IsZero() && !cfg.EndTime.IsZero() && cfg.StartTime.After(cfg.EndTime) {
		return fmt.Errorf("start time (%s) cannot be after end time (%s)",
			cfg.StartTime.Format(DateTimeFormat), cfg.EndTime.Format(DateTimeFormat))
	}

	return nil
}

// processColumns applies the config-file column overrides on top of the
// conventional defaults.
func processColumns(cfg *Config, input *ConfigRawInput) error {
	cfg.SiteColumn = "site_id"
	cfg.TimeColumn = "date"
	cfg.QColumn = "Q"
	cfg.CColumn = "C"

	apply := func(dst *string, src *string, name string) error {
		if src == nil {
			return nil
		}
		v := strings.TrimSpace(*src)
		if v == "" {
			return fmt.Errorf("columns.%s cannot be empty", name)
		}
		*dst = v
		return nil
	}

	if err := apply(&cfg.SiteColumn, input.Columns.Site, "site"); err != nil {
		return err
	}
	if err := apply(&cfg.TimeColumn, input.Columns.Time, "time"); err != nil {
		return err
	}
	if err := apply(&cfg.QColumn, input.Columns.Q, "q"); err != nil {
		return err
	}
	return apply(&cfg.CColumn, input.Columns.C, "c")
}

// processConfidenceWeights applies the config-file overrides on top of the
// published calibration and validates the effect directions.
func processConfidenceWeights(cfg *Config, input *ConfigRawInput) error {
	cfg.ConfidenceBase = schema.ConfidenceBase
	cfg.ConfidenceStrong = schema.ConfidenceStrong
	cfg.ConfidenceSupport = schema.ConfidenceSupport
	cfg.ConfidencePenalty = schema.ConfidencePenalty

	if input.Confidence.Base != nil {
		cfg.ConfidenceBase = *input.Confidence.Base
	}
	if input.Confidence.Strong != nil {
		cfg.ConfidenceStrong = *input.Confidence.Strong
	}
	if input.Confidence.Support != nil {
		cfg.ConfidenceSupport = *input.Confidence.Support
	}
	if input.Confidence.Penalty != nil {
		cfg.ConfidencePenalty = *input.Confidence.Penalty
	}

	if cfg.ConfidenceBase < 0 || cfg.ConfidenceBase > 1 {
		return fmt.Errorf("confidence.base must be between 0.0 and 1.0 (received %.2f)", cfg.ConfidenceBase)
	}
	if cfg.ConfidenceStrong < 0 || cfg.ConfidenceSupport < 0 {
		return fmt.Errorf("confidence.strong and confidence.support must be non-negative")
	}
	if cfg.ConfidencePenalty > 0 {
		return fmt.Errorf("confidence.penalty must be zero or negative (received %.2f)", cfg.ConfidencePenalty)
	}
	return nil
}
