package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/kavita/internal/logtail"
)

// loadLogsCmd reads and formats the tail of the client log.
func loadLogsCmd(path string) tea.Cmd {
	return func() tea.Msg {
		if path == "" {
			return logsLoadedMsg{err: fmt.Errorf("no log file configured")}
		}
		raw, err := logtail.Read(path, LogTailLines)
		if err != nil {
			return logsLoadedMsg{err: err}
		}
		return logsLoadedMsg{lines: logtail.FormatLines(raw)}
	}
}

func (m *Model) resizeLogViewport() {
	// Box height is contentHeight; inner drops the two borders.
	w, h := m.width-4, m.contentHeight()-2
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	if m.logViewport.Width == 0 {
		m.logViewport = viewport.New(w, h)
		return
	}
	m.logViewport.Width = w
	m.logViewport.Height = h
}

// updateLogViewport colours the loaded lines by level and jumps to the end.
func (m *Model) updateLogViewport() {
	m.resizeLogViewport()
	styles := m.theme.Styles().WithBackground(m.theme.FocusBg)
	m.logViewport.Style = lipgloss.NewStyle().Background(lipgloss.Color(m.theme.FocusBg))

	if m.logErr != nil {
		m.logViewport.SetContent(styles.DangerText.Render("Could not read log: " + m.logErr.Error()))
		return
	}
	if len(m.logLines) == 0 {
		m.logViewport.SetContent(styles.MutedText.Render("Log is empty."))
		return
	}

	rendered := make([]string, len(m.logLines))
	level := ""
	for i, line := range m.logLines {
		if l := logtail.LevelOf(line); l != "" {
			level = l
		}
		rendered[i] = logLineStyle(styles, level, line).Render(line)
	}
	m.logViewport.SetContent(strings.Join(rendered, "\n"))
	m.logViewport.GotoBottom()
}

// logLineStyle picks a colour by level; field lines inherit their entry's.
func logLineStyle(styles Styles, level, line string) lipgloss.Style {
	if strings.HasPrefix(line, "    ") {
		return styles.FaintText
	}
	switch level {
	case "ERROR", "FATAL", "PANIC", "DPANIC":
		return styles.DangerText
	case "WARN":
		return styles.WarningText
	case "DEBUG":
		return styles.MutedText
	default:
		return styles.Text
	}
}

func (m Model) handleLogsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.currentView = ViewReader
	case key.Matches(msg, m.keys.Refresh):
		return m, loadLogsCmd(m.logPath)
	case key.Matches(msg, m.keys.Top):
		m.logViewport.GotoTop()
	case key.Matches(msg, m.keys.Bottom):
		m.logViewport.GotoBottom()
	case key.Matches(msg, m.keys.Down):
		m.logViewport.LineDown(1)
	case key.Matches(msg, m.keys.Up):
		m.logViewport.LineUp(1)
	case key.Matches(msg, m.keys.HalfPageDown):
		m.logViewport.HalfViewDown()
	case key.Matches(msg, m.keys.HalfPageUp):
		m.logViewport.HalfViewUp()
	}
	return m, nil
}

// renderLogs renders the log view.
func (m Model) renderLogs() string {
	title := "Log"
	if m.logPath != "" {
		title = "Log · " + truncateMiddle(m.logPath, m.width/2)
	}
	if len(m.logLines) > 0 {
		title += fmt.Sprintf(" (%d lines)", len(m.logLines))
	}
	return m.renderTitledBox(title, m.logViewport.View(), m.width, m.contentHeight(), true)
}
