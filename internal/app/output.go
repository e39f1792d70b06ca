package app

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/five82/splashwatch/internal/journal"
	"github.com/five82/splashwatch/internal/software"
	"github.com/five82/splashwatch/internal/state"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	dangerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// colorEnabled reports whether w is a terminal and NO_COLOR is unset.
func colorEnabled(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

func colorize(enabled bool, style lipgloss.Style, text string) string {
	if !enabled {
		return text
	}
	return style.Render(text)
}

func statusStyle(status string) lipgloss.Style {
	switch status {
	case software.StatusSuccess.String():
		return successStyle
	case software.StatusFailed.String():
		return dangerStyle
	case software.StatusInstalling.String():
		return warningStyle
	default:
		return mutedStyle
	}
}

// renderSnapshot renders source health followed by one row per package in
// registry order.
func renderSnapshot(snap state.Snapshot, color bool) string {
	var sb strings.Builder

	for _, name := range snap.SourceNames() {
		h := snap.Sources[name]
		line := fmt.Sprintf("%-6s %-14s %s", name, h.State, h.Path)
		if h.State != state.SourceWatching {
			line = colorize(color, dangerStyle, line)
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	if len(snap.Sources) > 0 {
		sb.WriteString("\n")
	}

	if len(snap.Records) == 0 {
		sb.WriteString("No packages found.\n")
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf("%-30s %-16s %-6s %-10s\n", "Package", "Version", "Source", "Status"))
	sb.WriteString(strings.Repeat("─", 65))
	sb.WriteString("\n")
	for _, r := range snap.Records {
		status := r.Status.String()
		sb.WriteString(fmt.Sprintf("%-30s %-16s %-6s %s\n",
			truncate(r.Identity.Name, 30),
			truncate(r.Identity.Version, 16),
			r.Source,
			colorize(color, statusStyle(status), status)))
	}

	installing, success, failed := snap.Counts()
	sb.WriteString(fmt.Sprintf("\n%d packages: %d installed, %d failed, %d installing\n",
		len(snap.Records), success, failed, installing))
	return sb.String()
}

// renderHistory renders journal entries in the order given.
func renderHistory(entries []journal.Entry, color bool) string {
	if len(entries) == 0 {
		return "No transitions recorded.\n"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-19s %-8s %-6s %-30s %-16s %-10s\n",
		"Time", "Session", "Source", "Package", "Version", "Status"))
	sb.WriteString(strings.Repeat("─", 95))
	sb.WriteString("\n")
	for _, e := range entries {
		sb.WriteString(fmt.Sprintf("%-19s %-8s %-6s %-30s %-16s %s\n",
			e.OccurredAt.Local().Format("2006-01-02 15:04:05"),
			truncate(e.Session, 8),
			e.Source,
			truncate(e.Name, 30),
			truncate(e.Version, 16),
			colorize(color, statusStyle(e.Status), e.Status)))
	}
	return sb.String()
}

// truncate shortens s to maxLen runes, marking the cut with "...".
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
