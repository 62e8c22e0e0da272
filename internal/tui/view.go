package tui

import (
	"strings"
)

// panelWidth is the total outer width of the main panel.
// borderStyle has: border (1+1) = 2, padding (2+2) = 4, total chrome = 6.
// Width() in lipgloss sets width including padding but excluding border.
// So we pass panelWidth - 2 (border) to Width(), and the actual text area
// is panelWidth - 6 (border + padding).
const panelWidth = 80
const panelWidthForStyle = panelWidth - 2 // passed to borderStyle.Width()
const panelContentWidth = panelWidth - 6  // actual usable text area

// View renders the TUI.
func (m Model) View() string {
	var b strings.Builder

	titleText := "  KEYRS  "
	barTotal := panelContentWidth - len(titleText)
	barLeft := barTotal / 2
	barRight := barTotal - barLeft
	title := strings.Repeat("▓", barLeft) + titleText + strings.Repeat("▓", barRight)
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n\n")

	b.WriteString(labelStyle.Render("Status:  "))
	b.WriteString(m.renderBadge())
	b.WriteString("\n\n")

	b.WriteString(labelStyle.Render("Active keymaps:"))
	b.WriteString("\n")
	b.WriteString(m.renderKeymaps())
	b.WriteString("\n\n")

	b.WriteString(labelStyle.Render("Devices:"))
	b.WriteString("\n")
	b.WriteString(m.renderDevices())
	b.WriteString("\n\n")

	b.WriteString(labelStyle.Render("Recent events:"))
	b.WriteString("\n")
	b.WriteString(m.renderEvents())
	b.WriteString("\n\n")

	b.WriteString(quitStyle.Render("Press t to cycle theme, q to quit"))

	if len(m.DebugEntries) > 0 {
		b.WriteString("\n\n")
		b.WriteString(m.renderDebugPanel())
	}

	return borderStyle.Width(panelWidthForStyle).Render(b.String())
}

func (m Model) renderBadge() string {
	if m.Suspended {
		return suspendedBadge.Render("● Suspended")
	}
	return runningBadge.Render("● Running")
}

func (m Model) renderKeymaps() string {
	if len(m.ActiveKeymaps) == 0 {
		return bodyStyle.Render("(none)")
	}
	names := make([]string, len(m.ActiveKeymaps))
	for i, n := range m.ActiveKeymaps {
		names[i] = keymapBadge.Render(n)
	}
	return strings.Join(names, bodyStyle.Render(" › "))
}

func (m Model) renderDevices() string {
	if len(m.Devices) == 0 {
		return bodyStyle.Render("(none grabbed)")
	}
	var lines []string
	for _, d := range m.Devices {
		lines = append(lines, deviceStyle.Render("- "+d))
	}
	return strings.Join(lines, "\n")
}

const (
	colDeviceWidth = 16
	colKeyWidth    = 14
	colActionWidth = 8
	colResultWidth = panelContentWidth - colDeviceWidth - colKeyWidth - colActionWidth - 6
)

func (m Model) renderEvents() string {
	if len(m.Events) == 0 {
		return bodyStyle.Render("(none yet)")
	}
	sep := debugSepStyle.Render(" │ ")
	var eb strings.Builder
	eb.WriteString(
		debugHeaderStyle.Width(colDeviceWidth).Render("DEVICE") +
			sep +
			debugHeaderStyle.Width(colKeyWidth).Render("KEY") +
			sep +
			debugHeaderStyle.Width(colActionWidth).Render("ACTION") +
			sep +
			debugHeaderStyle.Width(colResultWidth).Render("RESULT"))
	for _, ev := range m.Events {
		eb.WriteString("\n")
		eb.WriteString(
			bodyStyle.Width(colDeviceWidth).Render(truncate(ev.Device, colDeviceWidth)) +
				sep +
				bodyStyle.Width(colKeyWidth).Render(truncate(ev.Key, colKeyWidth)) +
				sep +
				bodyStyle.Width(colActionWidth).Render(truncate(ev.Action, colActionWidth)) +
				sep +
				bodyStyle.Width(colResultWidth).Render(truncate(ev.Result, colResultWidth)))
	}
	return eb.String()
}

func truncate(s string, width int) string {
	if len(s) <= width {
		return s
	}
	if width <= 3 {
		return s[:width]
	}
	return s[:width-3] + "..."
}

const debugPanelMaxLines = 5

const (
	colTimeWidth     = 15
	colCategoryWidth = 10
	colSepWidth      = 3 // " │ "
	colMsgWidth      = panelContentWidth - colTimeWidth - colCategoryWidth - colSepWidth*2
)

func (m Model) renderDebugPanel() string {
	sep := debugSepStyle.Render(" │ ")
	rule := debugRuleStyle.Render(strings.Repeat("─", panelContentWidth))

	var db strings.Builder
	db.WriteString(debugTitleStyle.Render("Debug"))
	db.WriteString("\n")
	db.WriteString(rule)
	db.WriteString("\n")

	db.WriteString(
		debugHeaderStyle.Width(colTimeWidth).Render("TIME") +
			sep +
			debugHeaderStyle.Width(colCategoryWidth).Render("TYPE") +
			sep +
			debugHeaderStyle.Width(colMsgWidth).Render("MESSAGE"))
	db.WriteString("\n")
	db.WriteString(rule)

	entries := m.DebugEntries
	if len(entries) > debugPanelMaxLines {
		entries = entries[len(entries)-debugPanelMaxLines:]
	}
	for _, entry := range entries {
		db.WriteString("\n")
		db.WriteString(
			debugTimeStyle.Width(colTimeWidth).Render(truncate(entry.Time, colTimeWidth)) +
				sep +
				debugCategoryStyle.Width(colCategoryWidth).Render(truncate(entry.Category, colCategoryWidth)) +
				sep +
				debugMsgStyle.Width(colMsgWidth).Render(truncate(entry.Message, colMsgWidth)))
	}

	return db.String()
}
