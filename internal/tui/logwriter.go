package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// LogWriter is an io.Writer that sends each written line as a DebugLogMsg
// to a Bubble Tea program. Use it as the output for a log.Logger.
type LogWriter struct {
	program *tea.Program
}

// NewLogWriter creates a LogWriter that sends debug lines to the given program.
func NewLogWriter(p *tea.Program) *LogWriter {
	return &LogWriter{program: p}
}

// Write implements io.Writer. Each call parses the log line into structured
// fields and sends a DebugLogMsg. The send is done in a goroutine to avoid
// deadlocking when called from inside a Bubble Tea command function.
func (w *LogWriter) Write(b []byte) (int, error) {
	line := strings.TrimRight(string(b), "\n")
	entry := parseLine(line)
	go w.program.Send(DebugLogMsg{Entry: entry})
	return len(b), nil
}

// parseLine extracts time, category, and message from a log line.
// Expected format: "[keyrs] HH:MM:SS.micros message text"
// Category is inferred from the first word of the message (e.g. "engine",
// "device", "multipurpose", "deadkey", "suspend", "emitter").
func parseLine(line string) DebugEntry {
	entry := DebugEntry{
		Time:     "",
		Category: "debug",
		Message:  line,
	}

	msg := strings.TrimPrefix(line, "[keyrs] ")

	// Extract timestamp (HH:MM:SS.micros or HH:MM:SS)
	if len(msg) >= 8 && msg[2] == ':' && msg[5] == ':' {
		spaceIdx := strings.IndexByte(msg, ' ')
		if spaceIdx > 0 {
			entry.Time = msg[:spaceIdx]
			msg = msg[spaceIdx+1:]
		}
	}

	entry.Category, entry.Message = inferCategory(msg)

	return entry
}

// inferCategory determines the log category from the message content.
func inferCategory(msg string) (category, message string) {
	lower := strings.ToLower(msg)

	switch {
	case strings.HasPrefix(lower, "grabbed"), strings.HasPrefix(lower, "device"), strings.HasPrefix(lower, "list"):
		return "device", msg
	case strings.HasPrefix(lower, "event:"):
		return "engine", msg
	case strings.HasPrefix(lower, "emit"):
		return "emitter", msg
	case strings.HasPrefix(lower, "multipurpose"):
		return "multipurpose", msg
	case strings.HasPrefix(lower, "deadkey"), strings.HasPrefix(lower, "dead key"):
		return "deadkey", msg
	case strings.HasPrefix(lower, "suspend"):
		return "suspend", msg
	case strings.HasPrefix(lower, "settings reload"), strings.HasPrefix(lower, "window-context"):
		return "config", msg
	case strings.HasPrefix(lower, "panic"), strings.HasPrefix(lower, "emergency eject"), strings.HasPrefix(lower, "diagnostics"):
		return "control", msg
	default:
		return "debug", msg
	}
}
