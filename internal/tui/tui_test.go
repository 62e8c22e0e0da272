package tui

import (
	"io"
	"log"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

// testKeyMsg creates a tea.KeyMsg for single-rune keys like "q", "t".
func testKeyMsg(key string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
}

func newTestModel() Model {
	return NewModel([]string{"dev0 (AT Translated Set 2 keyboard)"}, log.New(io.Discard, "", 0))
}

func TestInitialState(t *testing.T) {
	m := newTestModel()
	if m.Suspended {
		t.Error("expected a fresh model to start not suspended")
	}
	if len(m.ActiveKeymaps) != 0 {
		t.Error("expected no active keymaps initially")
	}
	if len(m.Devices) != 1 {
		t.Errorf("expected 1 seeded device, got %d", len(m.Devices))
	}
}

func TestStatusMsgUpdatesSuspendAndKeymaps(t *testing.T) {
	m := newTestModel()
	updated, _ := m.Update(StatusMsg{Suspended: true, ActiveKeymaps: []string{"nav"}})
	model := updated.(Model)
	if !model.Suspended {
		t.Error("expected Suspended true")
	}
	if len(model.ActiveKeymaps) != 1 || model.ActiveKeymaps[0] != "nav" {
		t.Errorf("expected ActiveKeymaps [nav], got %v", model.ActiveKeymaps)
	}
}

func TestEventMsgAppendsAndTruncates(t *testing.T) {
	m := newTestModel()
	for i := 0; i < maxEventLines+5; i++ {
		updated, _ := m.Update(EventMsg{Entry: EventEntry{Device: "dev0", Key: "KEY_A", Action: "press"}})
		m = updated.(Model)
	}
	if len(m.Events) != maxEventLines {
		t.Errorf("expected %d events, got %d", maxEventLines, len(m.Events))
	}
}

func TestDeviceListMsgReplacesDevices(t *testing.T) {
	m := newTestModel()
	updated, _ := m.Update(DeviceListMsg{Devices: []string{"dev1", "dev2"}})
	model := updated.(Model)
	if len(model.Devices) != 2 {
		t.Fatalf("expected 2 devices, got %d", len(model.Devices))
	}
}

func TestDebugLogMsgAddsEntry(t *testing.T) {
	m := newTestModel()
	entry := DebugEntry{Time: "11:00:00", Category: "engine", Message: "hello"}
	updated, _ := m.Update(DebugLogMsg{Entry: entry})
	model := updated.(Model)
	if len(model.DebugEntries) != 1 {
		t.Fatalf("expected 1 debug entry, got %d", len(model.DebugEntries))
	}
	if model.DebugEntries[0].Message != "hello" {
		t.Errorf("expected 'hello', got %q", model.DebugEntries[0].Message)
	}
}

func TestDebugLogTruncatesToMax(t *testing.T) {
	m := newTestModel()
	for i := 0; i < maxDebugLines+10; i++ {
		entry := DebugEntry{Time: "11:00:00", Category: "debug", Message: "line"}
		updated, _ := m.Update(DebugLogMsg{Entry: entry})
		m = updated.(Model)
	}
	if len(m.DebugEntries) != maxDebugLines {
		t.Errorf("expected %d debug entries, got %d", maxDebugLines, len(m.DebugEntries))
	}
}

func TestViewContainsTitle(t *testing.T) {
	m := newTestModel()
	view := m.View()
	if !contains(view, "KEYRS") {
		t.Error("expected view to contain 'KEYRS'")
	}
}

func TestViewShowsRunningBadgeByDefault(t *testing.T) {
	m := newTestModel()
	view := m.View()
	if !contains(view, "Running") {
		t.Error("expected view to contain 'Running'")
	}
}

func TestViewShowsSuspendedBadge(t *testing.T) {
	m := newTestModel()
	updated, _ := m.Update(StatusMsg{Suspended: true})
	model := updated.(Model)
	view := model.View()
	if !contains(view, "Suspended") {
		t.Error("expected view to contain 'Suspended'")
	}
}

func TestViewShowsDeviceList(t *testing.T) {
	m := newTestModel()
	view := m.View()
	if !contains(view, "dev0") {
		t.Error("expected view to contain the seeded device name")
	}
}

func TestViewShowsDebugPanelOnlyWhenPopulated(t *testing.T) {
	m := newTestModel()
	if contains(m.View(), "Debug") {
		t.Error("expected view to NOT contain 'Debug' panel when no debug lines")
	}
	updated, _ := m.Update(DebugLogMsg{Entry: DebugEntry{Time: "11:00:00", Category: "engine", Message: "test message"}})
	model := updated.(Model)
	view := model.View()
	if !contains(view, "Debug") {
		t.Error("expected view to contain 'Debug' panel title")
	}
	if !contains(view, "test message") {
		t.Error("expected view to contain debug message")
	}
}

func TestParseLineStructured(t *testing.T) {
	entry := parseLine("[keyrs] 11:27:53.777842 grabbed devices: [dev0]")
	if entry.Time != "11:27:53.777842" {
		t.Errorf("expected time '11:27:53.777842', got %q", entry.Time)
	}
	if entry.Category != "device" {
		t.Errorf("expected category 'device', got %q", entry.Category)
	}
}

func TestQuitInvokesOnQuit(t *testing.T) {
	m := newTestModel()
	called := false
	m.OnQuit = func() { called = true }
	_, cmd := m.Update(testKeyMsg("q"))
	if !called {
		t.Error("expected OnQuit to be invoked on q")
	}
	if cmd == nil {
		t.Error("expected tea.Quit command")
	}
}

func TestThemeCycleKeyT(t *testing.T) {
	m := newTestModel()
	orig := m.themeName
	updated, _ := m.Update(testKeyMsg("t"))
	model := updated.(Model)
	if model.themeName == orig {
		t.Error("expected theme name to change after cycling")
	}
}

func contains(s, substr string) bool {
	return strings.Contains(s, substr)
}
