package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/huangsam/runlens/schema"
)

// Color variables for console output.
var (
	CriticalColor = color.New(color.FgRed, color.Bold)     // CriticalColor represents standard danger.
	HighColor     = color.New(color.FgMagenta, color.Bold) // HighColor represents strong, distinct warning.
	ModerateColor = color.New(color.FgYellow)              // ModerateColor represents standard caution, not bold.
	LowColor      = color.New(color.FgCyan)                // LowColor represents informational / low-priority signal.
	GoodColor     = color.New(color.FgGreen)               // GoodColor represents healthy state.
)

// GetColorLabel returns a colored text label for console output (table).
// Tier and trend labels get the color of their severity, anything else is returned as-is.
func GetColorLabel(label string) string {
	switch label {
	case schema.CriticalTier, schema.PoorTier, schema.DecliningTrend, schema.DegradingTrend:
		return CriticalColor.Sprint(label)
	case schema.HighTier, schema.FairTier:
		return HighColor.Sprint(label)
	case schema.MediumTier:
		return ModerateColor.Sprint(label)
	case schema.LowTier:
		return LowColor.Sprint(label)
	case schema.ExcellentTier, schema.GoodTier, schema.ImprovingTrend:
		return GoodColor.Sprint(label)
	default:
		return label
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. It falls back to os.Stdout when no path is given.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	zap.L().Error(msg, zap.Error(err))
	_ = zap.L().Sync()
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message.
func LogWarn(msg string, err error) {
	zap.L().Warn(msg, zap.Error(err))
}

// GetCatalogDBFilePath returns the path to the default SQLite catalog file.
func GetCatalogDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".runlens_catalog.db"
	}
	return filepath.Join(homeDir, ".runlens_catalog.db")
}

// Truncate shortens s to at most maxRunes runes.
func Truncate(s string, maxRunes int) string {
	runes := []rune(s)
	if maxRunes >= 0 && len(runes) > maxRunes {
		return string(runes[:maxRunes])
	}
	return s
}

// TruncateLabel truncates a label to a maximum width with an ellipsis suffix.
// Requires maxWidth > 3 so there is room for the ellipsis and at least one character.
func TruncateLabel(label string, maxWidth int) string {
	runes := []rune(label)
	if len(runes) > maxWidth && maxWidth > 3 {
		return string(runes[:maxWidth-3]) + "..."
	}
	return label
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0", "":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
