package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/splashwatch/internal/software"
	"github.com/five82/splashwatch/internal/state"
)

// Lines used by the header, progress, status and footer rows.
const chromeHeight = 5

func (m Model) renderMain() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderProgress())
	b.WriteString("\n")
	b.WriteString(m.renderStatusLine())
	b.WriteString("\n")
	b.WriteString(m.list.View())
	if m.rawPaneHeight() > 0 {
		b.WriteString("\n")
		b.WriteString(m.renderRawPane())
	}
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	installing, success, failed := m.snapshot.Counts()

	title := styles.Title.Render("splashwatch")
	counts := fmt.Sprintf("%s %d  %s %d  %s %d",
		styles.WarningText.Render("installing"), installing,
		styles.SuccessText.Render("installed"), success,
		styles.DangerText.Render("failed"), failed)
	updated := "waiting"
	if !m.snapshot.LastUpdated.IsZero() {
		updated = "updated " + humanizeDuration(time.Since(m.snapshot.LastUpdated))
	}
	line1 := title + "  " + counts + "  " + styles.FaintText.Render(updated)

	var chips []string
	for _, name := range m.snapshot.SourceNames() {
		chips = append(chips, m.renderSourceChip(name, m.snapshot.Sources[name]))
	}
	line2 := styles.MutedText.Render("no sources configured")
	if len(chips) > 0 {
		line2 = strings.Join(chips, "   ")
	}

	return styles.Header.Width(m.width).Render(line1 + "\n" + line2)
}

func (m Model) renderSourceChip(name string, h state.SourceHealth) string {
	styles := m.theme.Styles()
	var stateText string
	switch h.State {
	case state.SourceWatching:
		stateText = styles.SuccessText.Render(h.State.String())
	case state.SourceInert, state.SourceRulesDisabled:
		stateText = styles.DangerText.Render(h.State.String())
	default:
		stateText = styles.MutedText.Render(h.State.String())
	}
	chip := styles.AccentText.Render(name) + " " + stateText
	if m.width >= LayoutWideWidth && h.Path != "" {
		chip += " " + styles.FaintText.Render(truncateMiddle(h.Path, 40))
	}
	return chip
}

func (m Model) renderProgress() string {
	total := len(m.snapshot.Records)
	installing, _, _ := m.snapshot.Counts()
	finished := total - installing

	pct := 0.0
	if total > 0 {
		pct = float64(finished) / float64(total)
	}
	label := fmt.Sprintf(" %d/%d", finished, total)
	return " " + m.progress.ViewAs(pct) + m.theme.Styles().MutedText.Render(label)
}

func (m Model) renderStatusLine() string {
	styles := m.theme.Styles()
	total := len(m.snapshot.Records)
	installing, _, failed := m.snapshot.Counts()

	switch {
	case total == 0:
		return " " + styles.MutedText.Render("Waiting for deployment activity...")
	case m.snapshot.Done() && failed > 0:
		msg := fmt.Sprintf("%d of %d packages failed. Press enter to continue.", failed, total)
		return " " + styles.FailBanner.Render(msg)
	case m.snapshot.Done():
		msg := fmt.Sprintf("All %d packages installed. Press enter to continue.", total)
		return " " + styles.Banner.Render(msg)
	default:
		msg := fmt.Sprintf("Installing %d of %d packages", installing, total)
		return " " + m.spinner.View() + " " + styles.WarningText.Render(msg)
	}
}

func (m Model) renderRawPane() string {
	styles := m.theme.Styles()
	source := m.currentSource()
	title := styles.Title.Render("raw log")
	if source != "" {
		title += " " + styles.AccentText.Render(source) + " " +
			styles.FaintText.Render(truncateMiddle(m.logPaths[source], max(m.width-30, 10)))
	}
	return styles.Panel.Width(max(m.width-2, 1)).Render(title + "\n" + m.raw.View())
}

func (m Model) renderFooter() string {
	h := m.help
	h.Width = m.width
	return m.theme.Styles().Footer.Render(h.ShortHelpView(m.keys.ShortHelp()))
}

func (m Model) renderHelp() string {
	h := m.help
	h.Width = m.width
	h.ShowAll = true
	styles := m.theme.Styles()
	body := styles.Title.Render("Keys") + "\n\n" + h.FullHelpView(m.keys.FullHelp()) +
		"\n\n" + styles.FaintText.Render("Press any key to close")
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
		styles.Panel.Render(body))
}

// resize recomputes viewport sizes after a window or layout change.
func (m *Model) resize() {
	if !m.ready {
		return
	}
	bodyHeight := max(m.height-chromeHeight, 1)
	rawHeight := m.rawPaneHeight()

	m.list.Width = m.width
	m.list.Height = max(bodyHeight-rawHeight, 1)
	m.progress.Width = max(m.width-12, 10)

	if rawHeight > 0 {
		// Border takes two rows and the pane title one more.
		m.raw.Width = max(m.width-6, 1)
		m.raw.Height = rawHeight - 3
	}
	m.refreshList()
	m.refreshRaw()
}

// rawPaneHeight returns the rows given to the raw log pane, or zero when
// the pane is hidden or the terminal is too short for it.
func (m Model) rawPaneHeight() int {
	if !m.showRawLog || !m.ready {
		return 0
	}
	bodyHeight := m.height - chromeHeight
	h := bodyHeight / 3
	if h-3 < RawLogMinHeight {
		return 0
	}
	return h
}

func (m *Model) refreshList() {
	records := m.visibleRecords()
	if len(records) == 0 {
		msg := "No packages seen yet."
		if len(m.snapshot.Records) > 0 {
			msg = "All packages finished. Press c to show completed."
		}
		m.list.SetContent(m.theme.Styles().MutedText.Render(" " + msg))
		return
	}

	now := time.Now()
	rows := make([]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, m.renderRow(r, now))
	}
	m.list.SetContent(strings.Join(rows, "\n"))
}

func (m *Model) refreshRaw() {
	styles := m.theme.Styles()
	switch {
	case m.currentSource() == "":
		m.raw.SetContent(styles.MutedText.Render("no log sources"))
	case m.rawErr != nil:
		m.raw.SetContent(styles.DangerText.Render(m.rawErr.Error()))
	case len(m.rawLines) == 0:
		m.raw.SetContent(styles.MutedText.Render("log is empty or missing"))
	default:
		lines := make([]string, len(m.rawLines))
		for i, line := range m.rawLines {
			lines[i] = truncateMiddle(line, max(m.raw.Width, 1))
		}
		m.raw.SetContent(styles.Text.Render(strings.Join(lines, "\n")))
	}
}

func (m Model) visibleRecords() []software.Record {
	if !m.hideCompleted {
		return m.snapshot.Records
	}
	out := make([]software.Record, 0, len(m.snapshot.Records))
	for _, r := range m.snapshot.Records {
		if !r.Status.Terminal() {
			out = append(out, r)
		}
	}
	return out
}

func (m Model) renderRow(r software.Record, now time.Time) string {
	styles := m.theme.Styles()
	statusStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.StatusColor(r.Status)))
	icon := m.statusIcon(r.Status)
	status := statusStyle.Render(padRight(r.Status.String(), 10))

	if m.width < LayoutCompactWidth {
		nameWidth := max(m.width-16, 8)
		return " " + icon + " " + styles.Text.Render(padRight(r.Identity.String(), nameWidth)) + " " + status
	}

	ageWidth := 0
	if m.width >= LayoutWideWidth {
		ageWidth = 8
	}
	versionWidth := 16
	sourceWidth := 7
	nameWidth := max(m.width-versionWidth-sourceWidth-10-ageWidth-8, 8)

	row := " " + icon + " " +
		styles.Text.Render(padRight(r.Identity.Name, nameWidth)) + " " +
		styles.MutedText.Render(padRight(r.Identity.Version, versionWidth)) + " " +
		styles.FaintText.Render(padRight(r.Source, sourceWidth)) + " " +
		status
	if ageWidth > 0 && !r.UpdatedAt.IsZero() {
		row += " " + styles.FaintText.Render(padRight(humanizeDuration(now.Sub(r.UpdatedAt)), ageWidth))
	}
	return row
}

func (m Model) statusIcon(status software.Status) string {
	styles := m.theme.Styles()
	switch status {
	case software.StatusInstalling:
		return m.spinner.View()
	case software.StatusSuccess:
		return styles.SuccessText.Render("✓")
	case software.StatusFailed:
		return styles.DangerText.Render("✗")
	default:
		return " "
	}
}
