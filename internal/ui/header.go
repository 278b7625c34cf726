package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/kavita/internal/state"
)

// renderHeader renders the status bar: logo, class, mode and narration.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	sep := bg.Spaces(2)

	parts := []string{bg.Render(logoText, styles.Logo)}

	if m.machine == nil || m.machine.SelectedClass() == nil {
		parts = append(parts, bg.Render("No classes available", styles.WarningText.Bold(true)))
		return styles.Header.Width(m.width).Render(bg.Join(parts, "  "))
	}

	cls := m.machine.SelectedClass()
	parts = append(parts,
		bg.Render("Class:", styles.MutedText)+bg.Space()+bg.Render(cls.Name, styles.Text))

	progress := m.machine.Progress()
	parts = append(parts,
		bg.Render("Done:", styles.MutedText)+bg.Space()+
			bg.Render(fmt.Sprintf("%d/%d", progress.Completed, progress.Total), styles.SuccessText))

	switch mode := m.machine.Mode().(type) {
	case state.ChapterMode:
		name := mode.Chapter.Name
		if m.width < LayoutCompactWidth {
			name = truncate(name, 24)
		}
		parts = append(parts, bg.Render(name, styles.AccentText))
	case state.FlashcardsMode:
		parts = append(parts, bg.Render("Flashcards", styles.InfoText))
	}

	if reading := m.machine.Reading(); reading.Kind != state.ReadingInactive {
		label := "● Reading"
		if reading.Kind == state.ReadingWholePoem {
			label = "● Reading poem"
		}
		if reading.Pending {
			label = "◌ Loading audio"
		}
		parts = append(parts, bg.Render(label, styles.WarningText.Bold(true)))
	}

	if m.results != nil && m.dash.snap.IsOffline() {
		parts = append(parts, bg.Render("Results offline", styles.DangerText))
	}

	return styles.Header.Width(m.width).Render(strings.Join(parts, sep))
}

// renderCommandBar renders the command hints for the current view.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	type cmd struct{ key, desc string }
	var commands []cmd

	switch m.currentView {
	case ViewQuiz:
		commands = []cmd{
			{"enter", "Confirm"},
			{"j/k", "Choose"},
			{"1-9", "Answer"},
			{"esc", "Leave quiz"},
		}
	case ViewDashboard:
		commands = []cmd{
			{"c", "Class"},
			{"s", "Student"},
			{"n", "Chapter"},
			{"0", "Clear"},
			{"e", "Export"},
			{"esc", "Reader"},
			{"?", "More"},
		}
	case ViewLogs:
		commands = []cmd{
			{"r", "Reload"},
			{"j/k", "Scroll"},
			{"G", "Bottom"},
			{"esc", "Reader"},
			{"?", "More"},
		}
	default:
		if _, ok := m.machine.CurrentChapter(); ok {
			commands = []cmd{
				{"space", "Read line"},
				{"p", "Poem"},
				{"[/]", "Prev/Next"},
				{"t", "Quiz"},
				{"esc", "Close"},
			}
		} else {
			commands = []cmd{
				{"c/C", "Class"},
				{"enter", "Open"},
				{"j/k", "Navigate"},
			}
		}
		commands = append(commands,
			cmd{".", "Sidebar"},
			cmd{"D", "Dashboard"},
			cmd{"L", "Logs"},
			cmd{"?", "More"},
		)
	}

	if m.width < LayoutCompactWidth && len(commands) > 5 {
		commands = commands[:5]
	}

	colon := bg.Sep(":")
	segments := make([]string, 0, len(commands)+1)
	for _, c := range commands {
		segments = append(segments,
			bg.Render(c.key, styles.AccentText)+colon+bg.Render(c.desc, styles.MutedText))
	}
	segments = append(segments,
		bg.Render("T", styles.AccentText)+colon+bg.Render(m.theme.Name, styles.FaintText))

	return styles.Header.Width(m.width).Render(strings.Join(segments, bg.Spaces(2)))
}

// renderStatusLine shows the latest notice, if any.
func (m Model) renderStatusLine() string {
	style := lipgloss.NewStyle().
		Background(lipgloss.Color(m.theme.Background)).
		Foreground(lipgloss.Color(m.theme.Warning)).
		Width(m.width).
		Padding(0, 1)
	return style.Render(truncate(m.notice, m.width-2))
}
