// Package util provides small string helpers shared across packages.
package util

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// Truncate truncates a string to maxLen runes, adding "..." if
// truncated. It does not account for ANSI escape codes; for styled
// terminal output use TruncateANSI.
func Truncate(s string, maxLen int) string {
	if maxLen <= 3 {
		return "..."
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}

// TruncateANSI truncates a string to maxWidth visual columns, adding
// "..." if truncated. Handles ANSI escape codes and wide characters,
// so it is safe for styled agent names and summaries.
func TruncateANSI(s string, maxWidth int) string {
	if maxWidth <= 3 {
		return "..."
	}
	if lipgloss.Width(s) <= maxWidth {
		return s
	}
	// ansi.Truncate includes the tail in the final width
	return ansi.Truncate(s, maxWidth, "...")
}

// Preview collapses a multi-line response into a single truncated line,
// for log entries and session listings.
func Preview(s string, maxLen int) string {
	collapsed := strings.Join(strings.Fields(s), " ")
	return Truncate(collapsed, maxLen)
}
