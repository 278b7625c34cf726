package ui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/kavita/internal/dashboard"
	"github.com/five82/kavita/internal/results"
)

const heatmapColumnWidth = 9

// dashState holds the teacher dashboard view state.
type dashState struct {
	snap   dashboard.Snapshot
	filter dashboard.Filter
	offset int
}

func (m Model) names() dashboard.Names {
	if m.machine == nil {
		return dashboard.Names{}
	}
	return dashboard.Names{Catalog: m.machine.Catalog()}
}

func (m Model) handleDashboardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	opts := dashboard.Options(m.dash.snap.Records)
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.currentView = ViewReader
	case key.Matches(msg, m.keys.FilterClass):
		m.dash.filter.ClassID = cycleValue(opts.Classes, m.dash.filter.ClassID)
		m.dash.offset = 0
	case key.Matches(msg, m.keys.FilterStudent):
		m.dash.filter.Student = cycleValue(opts.Students, m.dash.filter.Student)
		m.dash.offset = 0
	case key.Matches(msg, m.keys.FilterChapter):
		m.dash.filter.ChapterID = cycleValue(opts.Chapters, m.dash.filter.ChapterID)
		m.dash.offset = 0
	case key.Matches(msg, m.keys.ClearFilters):
		m.dash.filter = dashboard.Filter{}
		m.dash.offset = 0
	case key.Matches(msg, m.keys.Down):
		if m.dash.offset < len(m.dash.filter.Apply(m.dash.snap.Records))-1 {
			m.dash.offset++
		}
	case key.Matches(msg, m.keys.Up):
		if m.dash.offset > 0 {
			m.dash.offset--
		}
	case key.Matches(msg, m.keys.Export):
		records := m.dash.filter.Apply(m.dash.snap.Records)
		return m, exportCSVCmd(filepath.Join(m.exportDir, dashboard.ExportFilename), records, m.names())
	}
	return m, nil
}

// cycleValue steps through "" (all) followed by each value.
func cycleValue(values []string, current string) string {
	if len(values) == 0 {
		return ""
	}
	if current == "" {
		return values[0]
	}
	for i, v := range values {
		if v == current {
			if i+1 < len(values) {
				return values[i+1]
			}
			return ""
		}
	}
	return ""
}

func exportCSVCmd(path string, records []results.Record, names dashboard.Names) tea.Cmd {
	return func() tea.Msg {
		f, err := os.Create(path)
		if err != nil {
			return csvExportedMsg{path: path, err: fmt.Errorf("create %s: %w", path, err)}
		}
		if err := dashboard.WriteCSV(f, records, names); err != nil {
			_ = f.Close()
			return csvExportedMsg{path: path, err: err}
		}
		if err := f.Close(); err != nil {
			return csvExportedMsg{path: path, err: fmt.Errorf("close %s: %w", path, err)}
		}
		return csvExportedMsg{path: path, count: len(records)}
	}
}

// renderDashboard renders filters, summary, heatmap and the attempt list.
func (m Model) renderDashboard() string {
	height := m.contentHeight()
	styles := m.theme.Styles().WithBackground(m.theme.FocusBg)
	names := m.names()
	snap := m.dash.snap
	inner := m.width - 4

	var out []string
	switch {
	case m.results == nil:
		out = append(out, " "+styles.MutedText.Render("No results source configured."))
		return m.renderTitledBox("Teacher Dashboard", strings.Join(out, "\n"), m.width, height, true)
	case !snap.HasRecords && snap.LastError != nil:
		out = append(out, " "+styles.DangerText.Render("Could not load results: "+snap.LastError.Error()))
		return m.renderTitledBox("Teacher Dashboard", strings.Join(out, "\n"), m.width, height, true)
	case !snap.HasRecords:
		out = append(out, " "+styles.WarningText.Render("Loading results…"))
		return m.renderTitledBox("Teacher Dashboard", strings.Join(out, "\n"), m.width, height, true)
	}

	if snap.IsOffline() {
		out = append(out, " "+styles.DangerText.Render(
			fmt.Sprintf("Results server offline, showing cached results (last attempt %s)", snap.LastUpdated.Format("15:04:05"))))
	}

	filtered := m.dash.filter.Apply(snap.Records)
	out = append(out, " "+m.renderFilterLine(styles, names))

	summary := dashboard.Summarize(filtered, names)
	out = append(out, "", " "+styles.AccentText.Bold(true).Render("Summary"))
	if summary.Count == 0 {
		out = append(out, " "+styles.MutedText.Render("No results match these filters."))
	} else {
		out = append(out, " "+styles.Text.Render(
			fmt.Sprintf("Attempts: %d   Average: %.1f%%", summary.Count, summary.Average)))
		if summary.Strongest != nil {
			out = append(out, " "+styles.SuccessText.Render(
				fmt.Sprintf("Strongest: %s (%.1f%%)", summary.Strongest.Name, summary.Strongest.Average)))
		}
		if summary.Weakest != nil {
			out = append(out, " "+styles.DangerText.Render(
				fmt.Sprintf("Weakest:   %s (%.1f%%)", summary.Weakest.Name, summary.Weakest.Average)))
		}
	}

	out = append(out, "", " "+styles.AccentText.Bold(true).Render("Class × chapter"))
	out = append(out, m.renderHeatmap(dashboard.Heatmap(snap.Records, names), styles, inner)...)

	out = append(out, "", " "+styles.AccentText.Bold(true).Render("Attempts"))
	room := height - 2 - len(out) - 1
	out = append(out, m.renderAttempts(filtered, names, styles, inner, room)...)

	return m.renderTitledBox("Teacher Dashboard", strings.Join(out, "\n"), m.width, height, true)
}

func (m Model) renderFilterLine(styles Styles, names dashboard.Names) string {
	f := m.dash.filter
	class, student, chapter := "All", "All", "All"
	if f.ClassID != "" {
		class = names.Class(f.ClassID, f.ClassID)
	}
	if f.Student != "" {
		name, roll := dashboard.SplitStudentKey(f.Student)
		student = fmt.Sprintf("%s (%s)", name, roll)
	}
	if f.ChapterID != "" {
		chapter = names.Chapter(f.ClassID, f.ChapterID, "")
	}
	return styles.MutedText.Render("Class: ") + styles.Text.Render(class) +
		styles.MutedText.Render("   Student: ") + styles.Text.Render(student) +
		styles.MutedText.Render("   Chapter: ") + styles.Text.Render(chapter)
}

func (m Model) renderHeatmap(grid dashboard.Grid, styles Styles, width int) []string {
	if len(grid.Classes) == 0 {
		return []string{" " + styles.MutedText.Render("No data yet.")}
	}
	labelWidth := 12
	cols := (width - labelWidth - 2) / heatmapColumnWidth
	if cols < 1 {
		cols = 1
	}
	if cols > len(grid.Chapters) {
		cols = len(grid.Chapters)
	}

	var lines []string
	header := " " + styles.FaintText.Render(padRight("", labelWidth))
	for j := 0; j < cols; j++ {
		header += styles.FaintText.Render(padRight(truncate(grid.ChapterNames[j], heatmapColumnWidth-1), heatmapColumnWidth))
	}
	lines = append(lines, header)

	for i := range grid.Classes {
		row := " " + styles.Text.Render(padRight(truncate(grid.ClassNames[i], labelWidth-1), labelWidth))
		for j := 0; j < cols; j++ {
			cell := grid.Cells[i][j]
			if cell.Empty() {
				row += styles.FaintText.Render(padRight("   –", heatmapColumnWidth))
				continue
			}
			badge := styles.BadgeStyle(cell.Band.String()).Render(fmt.Sprintf("%3.0f%%", cell.Average))
			row += badge + styles.Text.Render(strings.Repeat(" ", heatmapColumnWidth-6))
		}
		lines = append(lines, row)
	}
	if cols < len(grid.Chapters) {
		lines = append(lines, " "+styles.FaintText.Render(
			fmt.Sprintf("%d more chapters not shown", len(grid.Chapters)-cols)))
	}
	return lines
}

func (m Model) renderAttempts(records []results.Record, names dashboard.Names, styles Styles, width, room int) []string {
	if len(records) == 0 || room <= 1 {
		return nil
	}
	header := fmt.Sprintf("%-18s %-6s %-10s %-22s %7s %6s %6s", "Student", "Roll", "Class", "Chapter", "Score", "%", "Time")
	lines := []string{" " + styles.FaintText.Render(truncate(header, width))}

	start := m.dash.offset
	if start > len(records)-1 {
		start = len(records) - 1
	}
	for i := start; i < len(records) && len(lines) < room; i++ {
		r := records[i]
		row := fmt.Sprintf("%-18s %-6s %-10s %-22s %7s %5.1f%% %5ds",
			truncate(r.StudentName, 18),
			truncate(string(r.StudentRoll), 6),
			truncate(names.Class(r.ClassID, r.ClassName), 10),
			truncate(names.Chapter(r.ClassID, r.ChapterID, r.ChapterName), 22),
			fmt.Sprintf("%d/%d", r.Score, r.TotalQuestions),
			r.Percent(),
			r.TotalTimeSeconds,
		)
		lines = append(lines, " "+styles.Text.Render(truncate(row, width)))
	}
	return lines
}

func padRight(s string, width int) string {
	n := len([]rune(s))
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}
