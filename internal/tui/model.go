// Package tui implements the `--watch` live status view: an
// engine-status panel showing the active nested-keymap stack, suspend
// state, recent events, and the grabbed device list.
package tui

import (
	"log"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// EventEntry is one line of the recent-events table.
type EventEntry struct {
	Time   string
	Device string
	Key    string
	Action string
	Result string
}

// StatusMsg carries a suspend/nested-keymap-stack snapshot into the TUI.
type StatusMsg struct {
	Suspended     bool
	ActiveKeymaps []string
}

// EventMsg carries one processed event into the recent-events table.
type EventMsg struct {
	Entry EventEntry
}

// DeviceListMsg carries the grabbed device names.
type DeviceListMsg struct {
	Devices []string
}

// DebugEntry is a structured debug log entry, parsed from a log line.
type DebugEntry struct {
	Time     string
	Category string
	Message  string
}

// DebugLogMsg carries a structured debug log entry into the TUI.
type DebugLogMsg struct {
	Entry DebugEntry
}

const maxEventLines = 10
const maxDebugLines = 50

// Model is the Bubble Tea model for the keyrs status TUI.
type Model struct {
	Suspended     bool
	ActiveKeymaps []string
	Devices       []string
	Events        []EventEntry
	DebugEntries  []DebugEntry
	Logger        *log.Logger
	themeName     string

	// OnQuit is invoked once, synchronously, when the user requests exit
	// via q/ctrl+c, before tea.Quit unwinds the program; the driver uses
	// it to trigger its own clean-shutdown path (release-all, ungrab).
	OnQuit func()
}

// NewModel creates a new status-view model.
func NewModel(devices []string, logger *log.Logger) Model {
	applyTheme(LoadTheme(themeOrder[0]))
	return Model{
		Devices:   devices,
		Logger:    logger,
		themeName: themeOrder[0],
	}
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if m.OnQuit != nil {
				m.OnQuit()
			}
			return m, tea.Quit
		case "t":
			next := NextTheme(m.themeName)
			applyTheme(next)
			m.themeName = strings.ToLower(next.Name)
		}

	case StatusMsg:
		m.Suspended = msg.Suspended
		m.ActiveKeymaps = msg.ActiveKeymaps

	case EventMsg:
		m.Events = append(m.Events, msg.Entry)
		if len(m.Events) > maxEventLines {
			m.Events = m.Events[len(m.Events)-maxEventLines:]
		}

	case DeviceListMsg:
		m.Devices = msg.Devices

	case DebugLogMsg:
		m.DebugEntries = append(m.DebugEntries, msg.Entry)
		if len(m.DebugEntries) > maxDebugLines {
			m.DebugEntries = m.DebugEntries[len(m.DebugEntries)-maxDebugLines:]
		}
	}
	return m, nil
}
