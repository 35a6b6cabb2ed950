package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/fatih/color"
	"github.com/huangsam/boardline/schema"
)

// Side and marker label constants.
const (
	AboveValue = "Above" // Above the anchor line
	BelowValue = "Below" // Below the anchor line
	MovedValue = "Moved" // Item carries a user delta
)

// Color variables for console output.
var (
	AboveColor = color.New(color.FgCyan)              // AboveColor marks items above the line.
	BelowColor = color.New(color.FgMagenta)           // BelowColor marks items below the line.
	MovedColor = color.New(color.FgYellow, color.Bold) // MovedColor marks user-adjusted items.
	EdgeColor  = color.New(color.FgRed, color.Bold)   // EdgeColor marks window edges.
	DataColor  = color.New(color.FgGreen)             // DataColor marks data-derived markers.
	ScaleColor = color.New(color.Faint)               // ScaleColor marks generated scale ticks.
)

var verbose atomic.Bool

// GetPlainSideLabel returns a plain text label for the side an item sits on.
func GetPlainSideLabel(side schema.Side) string {
	if side == schema.SideAbove {
		return AboveValue
	}
	return BelowValue
}

// GetColorSideLabel returns a colored side label for console output (table).
func GetColorSideLabel(side schema.Side) string {
	text := GetPlainSideLabel(side)
	if side == schema.SideAbove {
		return AboveColor.Sprint(text)
	}
	return BelowColor.Sprint(text)
}

// GetColorMovedLabel returns the colored moved marker, or an empty string.
func GetColorMovedLabel(moved bool) string {
	if !moved {
		return ""
	}
	return MovedColor.Sprint(MovedValue)
}

// GetColorKindLabel returns a colored label for a marker kind.
func GetColorKindLabel(kind schema.MarkerKind) string {
	text := string(kind)
	switch kind {
	case schema.EdgeMarker:
		return EdgeColor.Sprint(text)
	case schema.DataMarker:
		return DataColor.Sprint(text)
	default:
		return ScaleColor.Sprint(text)
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. An empty path selects os.Stdout.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// SetVerbose enables or disables debug logging.
func SetVerbose(v bool) {
	verbose.Store(v)
}

// Verbose reports whether debug logging is enabled.
func Verbose() bool {
	return verbose.Load()
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

// LogDebug logs a debug message to stderr when verbose output is enabled.
func LogDebug(format string, args ...any) {
	if !verbose.Load() {
		return
	}
	_, _ = fmt.Fprintf(os.Stderr, "Debug "+format+"\n", args...)
}

// GetStateDBFilePath returns the path to the SQLite DB file for board state.
func GetStateDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".boardline_state.db"
	}
	return filepath.Join(homeDir, ".boardline_state.db")
}

// GetHistoryDBFilePath returns the path to the SQLite DB file for layout history.
func GetHistoryDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".boardline_history.db"
	}
	return filepath.Join(homeDir, ".boardline_history.db")
}

// TruncateLabel truncates a label to a maximum width with an ellipsis suffix.
// Requires maxWidth > 3 so there is room for the "..." and at least one character.
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
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
