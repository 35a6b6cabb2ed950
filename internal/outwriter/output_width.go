package outwriter

import (
	"os"

	"github.com/huangsam/boardline/internal/contract"
	"golang.org/x/term"
)

// getTerminalWidth returns the width override, the detected terminal width,
// or a conservative 80 columns.
func getTerminalWidth(cfg *contract.Config) int {
	if cfg.Width > 0 {
		return cfg.Width
	}
	detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || detectedWidth <= 0 {
		return 80 // Conservative default for narrow terminals and CI
	}
	return detectedWidth
}

// GetMaxTableLabelWidth calculates the maximum width for item labels in table output
// based on terminal width and the fixed layout columns.
func GetMaxTableLabelWidth(cfg *contract.Config) int {
	termWidth := getTerminalWidth(cfg)

	// Index + Date + Pos + Side + Slot + Y + Delta + Moved with borders/padding
	baseWidth := 75

	// Group column
	if cfg.Settings.ShowLegend {
		baseWidth += 14
	}

	available := termWidth - baseWidth
	if available < 15 {
		return 15
	}
	if available > 60 {
		return 60
	}
	return available
}
