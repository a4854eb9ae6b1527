// Package display renders terminal output for the debate: speaker
// labels, session banners, and the token budget bar. It only formats
// strings; callers decide where they go.
package display

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/lhartley/sparring/internal/budget"
	"github.com/lhartley/sparring/internal/util"
)

var (
	speakerAStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	speakerBStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Bold(true)
	systemStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
	bannerStyle   = lipgloss.NewStyle().
			Foreground(lipgloss.Color("15")).
			Bold(true).
			Border(lipgloss.RoundedBorder()).
			Padding(0, 2)
	endStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)

	greenBar  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	yellowBar = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	redBar    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// progressCells is the width of the token budget bar.
const progressCells = 30

// speakerWidth caps the rendered speaker label so a long agent name
// cannot push the turn header off the line.
const speakerWidth = 24

// Banner renders the session-start banner.
func Banner(topic, agentA, agentB string) string {
	return bannerStyle.Render(fmt.Sprintf("sparring: %s\n%s vs %s", topic, agentA, agentB))
}

// SpeakerLabel renders an agent name for a turn header. The first
// agent and the second agent get distinct colors.
func SpeakerLabel(name string, first bool) string {
	if first {
		return speakerAStyle.Render(name)
	}
	return speakerBStyle.Render(name)
}

// TurnHeader renders the line printed before a streamed response. The
// styled label is truncated ANSI-aware, so the escape codes survive.
func TurnHeader(turn int, name string, first bool) string {
	label := util.TruncateANSI(SpeakerLabel(name, first), speakerWidth)
	return fmt.Sprintf("\n[turn %d] %s:", turn, label)
}

// System renders an engine-side notice (search injected, trim, etc).
func System(msg string) string {
	return systemStyle.Render("· " + msg)
}

// EndProposed renders the end-proposal notice.
func EndProposed(agent string, graceTurns int) string {
	if graceTurns == 0 {
		return endStyle.Render(fmt.Sprintf("%s proposed ending the debate.", agent))
	}
	return endStyle.Render(fmt.Sprintf("%s proposed ending the debate (%d more turns to wrap up).", agent, graceTurns))
}

// TokenProgress renders the token budget as a fixed-width bar with a
// percentage, colored green below 80%, yellow below 95%, red above.
func TokenProgress(total, max int) string {
	if max <= 0 {
		return ""
	}
	ratio := float64(total) / float64(max)
	if ratio > 1 {
		ratio = 1
	}

	filled := int(ratio * progressCells)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", progressCells-filled)

	var style lipgloss.Style
	switch {
	case ratio < 0.8:
		style = greenBar
	case ratio < 0.95:
		style = yellowBar
	default:
		style = redBar
	}

	return fmt.Sprintf("%s %d/%d (%.0f%%)", style.Render(bar), total, max, ratio*100)
}

// BudgetStatus renders a short status word for the tracker state.
func BudgetStatus(s budget.Status) string {
	switch s {
	case budget.StatusGreen:
		return greenBar.Render(string(s))
	case budget.StatusYellow:
		return yellowBar.Render(string(s))
	default:
		return redBar.Render(string(s))
	}
}

// Summary renders the closing summary block.
func Summary(text string) string {
	return bannerStyle.Render("Summary") + "\n" + text
}
