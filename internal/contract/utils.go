package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
)

// Confidence label constants.
const (
	StrongValue    = "Strong"    // confidence >= 0.8
	FirmValue      = "Firm"      // confidence >= 0.65
	TentativeValue = "Tentative" // confidence >= 0.45
	WeakValue      = "Weak"      // everything below
)

// Color variables for console output.
var (
	StrongColor    = color.New(color.FgGreen, color.Bold) // clear, corroborated call
	FirmColor      = color.New(color.FgCyan)              // solid but not fully corroborated
	TentativeColor = color.New(color.FgYellow)            // standard caution, not bold
	WeakColor      = color.New(color.FgRed)               // degraded or conflicting inputs
)

// GetPlainLabel returns a plain text label for a confidence score. This is
// the core logic used for CSV, JSON, and table printing.
func GetPlainLabel(confidence float64) string {
	switch {
	case confidence >= 0.8:
		return StrongValue
	case confidence >= 0.65:
		return FirmValue
	case confidence >= 0.45:
		return TentativeValue
	default:
		return WeakValue
	}
}

// GetColorLabel returns a colored text label for console output (table).
// It uses GetPlainLabel to determine the string, and then applies the
// appropriate color.
func GetColorLabel(confidence float64) string {
	text := GetPlainLabel(confidence)

	switch text {
	case StrongValue:
		return StrongColor.Sprint(text)
	case FirmValue:
		return FirmColor.Sprint(text)
	case TentativeValue:
		return TentativeColor.Sprint(text)
	default: // "Weak"
		return WeakColor.Sprint(text)
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on
// the provided file path. It returns os.Stdout for an empty path.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// LogInfo logs an informational message to stderr so it never mixes with
// piped CSV or JSON output on stdout.
func LogInfo(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
}

// GetRunDBFilePath returns the path to the SQLite DB file for run storage.
func GetRunDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".cqscope_runs.db"
	}
	return filepath.Join(homeDir, ".cqscope_runs.db")
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
