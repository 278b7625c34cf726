package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/five82/kavita/internal/state"
)

func newProgressBar(t Theme) progress.Model {
	return progress.New(
		progress.WithSolidFill(t.Success),
		progress.WithoutPercentage(),
		progress.WithFillCharacters('█', '░'),
	)
}

// handleReaderKey handles keys for the sidebar and the main reading panel.
func (m Model) handleReaderKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.machine == nil {
		return m, nil
	}
	_, chapterOpen := m.machine.CurrentChapter()

	switch {
	case key.Matches(msg, m.keys.Tab):
		if m.sidebarVisible() && m.focus == paneMain {
			m.focus = paneSidebar
		} else {
			m.focus = paneMain
		}
		return m, nil

	case key.Matches(msg, m.keys.Escape):
		if chapterOpen {
			m.machine.CloseChapter()
			m.lineCursor = 0
			m.focus = paneSidebar
		}
		return m, nil

	case key.Matches(msg, m.keys.NextClass):
		m.cycleClass(1)
		return m, nil

	case key.Matches(msg, m.keys.PrevClass):
		m.cycleClass(-1)
		return m, nil

	case key.Matches(msg, m.keys.TakeQuiz):
		return m.launchQuiz()

	case key.Matches(msg, m.keys.PrevChapter):
		m.navigate(-1)
		return m, nil

	case key.Matches(msg, m.keys.NextChapter):
		m.navigate(1)
		return m, nil

	case key.Matches(msg, m.keys.ReadPoem):
		return m, m.togglePoemCmd()
	}

	if m.focus == paneSidebar && m.sidebarVisible() {
		return m.handleSidebarKey(msg)
	}
	if !chapterOpen {
		if key.Matches(msg, m.keys.Open) {
			return m.openChapterAtCursor()
		}
		return m, nil
	}

	lines := m.currentLines()
	switch {
	case key.Matches(msg, m.keys.Down):
		if m.lineCursor < len(lines)-1 {
			m.lineCursor++
		}
	case key.Matches(msg, m.keys.Up):
		if m.lineCursor > 0 {
			m.lineCursor--
		}
	case key.Matches(msg, m.keys.Top):
		m.lineCursor = 0
	case key.Matches(msg, m.keys.Bottom):
		m.lineCursor = max(len(lines)-1, 0)
	case key.Matches(msg, m.keys.Open), key.Matches(msg, m.keys.ReadLine):
		return m, m.speakLineCmd()
	}
	return m, nil
}

func (m Model) handleSidebarKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	rows := m.machine.ChapterRows()
	switch {
	case key.Matches(msg, m.keys.Down):
		if m.chapterCursor < len(rows)-1 {
			m.chapterCursor++
		}
	case key.Matches(msg, m.keys.Up):
		if m.chapterCursor > 0 {
			m.chapterCursor--
		}
	case key.Matches(msg, m.keys.Top):
		m.chapterCursor = 0
	case key.Matches(msg, m.keys.Bottom):
		m.chapterCursor = max(len(rows)-1, 0)
	case key.Matches(msg, m.keys.Open):
		return m.openChapterAtCursor()
	}
	return m, nil
}

func (m Model) openChapterAtCursor() (tea.Model, tea.Cmd) {
	rows := m.machine.ChapterRows()
	if m.chapterCursor < 0 || m.chapterCursor >= len(rows) {
		return m, nil
	}
	if err := m.machine.OpenChapter(rows[m.chapterCursor].Chapter.ID); err != nil {
		m.log.Debug("open chapter refused", zap.Error(err))
		return m, nil
	}
	m.lineCursor = 0
	m.focus = paneMain
	return m, nil
}

func (m *Model) cycleClass(step int) {
	classes := m.machine.Catalog().Classes()
	if len(classes) == 0 {
		return
	}
	idx := 0
	if sel := m.machine.SelectedClass(); sel != nil {
		for i, cls := range classes {
			if cls.ID == sel.ID {
				idx = i
				break
			}
		}
	}
	next := classes[(idx+step+len(classes))%len(classes)]
	if err := m.machine.SelectClass(next.ID); err != nil {
		m.log.Debug("select class refused", zap.Error(err))
		return
	}
	m.chapterCursor = 0
	m.lineCursor = 0
	m.focus = paneSidebar
}

func (m *Model) navigate(step int) {
	if !m.machine.CanNavigate(step) {
		return
	}
	if err := m.machine.NavigateSibling(step); err != nil {
		m.log.Debug("navigate refused", zap.Error(err))
		return
	}
	m.lineCursor = 0
	for i, row := range m.machine.ChapterRows() {
		if row.Open {
			m.chapterCursor = i
			break
		}
	}
}

func (m Model) currentLines() []string {
	ch, ok := m.machine.CurrentChapter()
	if !ok {
		return nil
	}
	return ch.Lines()
}

// speakLineCmd reads the line under the cursor. Blank stanza breaks are
// skipped.
func (m Model) speakLineCmd() tea.Cmd {
	if m.narrator == nil {
		return nil
	}
	lines := m.currentLines()
	if m.lineCursor < 0 || m.lineCursor >= len(lines) {
		return nil
	}
	text := lines[m.lineCursor]
	if strings.TrimSpace(text) == "" {
		return nil
	}
	ctx, n, idx := m.ctx, m.narrator, m.lineCursor
	tok := n.Reserve()
	return func() tea.Msg {
		return narrationDoneMsg{err: n.SpeakLineFor(ctx, tok, idx, text)}
	}
}

func (m Model) togglePoemCmd() tea.Cmd {
	if m.narrator == nil {
		return nil
	}
	ch, ok := m.machine.CurrentChapter()
	if !ok {
		return nil
	}
	ctx, n, poem := m.ctx, m.narrator, ch.Poem
	tok := n.Reserve()
	return func() tea.Msg {
		return narrationDoneMsg{err: n.ToggleWholePoemFor(ctx, tok, poem)}
	}
}

// renderReader lays out the sidebar next to the reading panel.
func (m Model) renderReader() string {
	height := m.contentHeight()
	if !m.sidebarVisible() {
		return m.renderMainPanel(m.width, height)
	}
	sidebar := m.renderSidebar(SidebarWidth, height)
	main := m.renderMainPanel(m.width-SidebarWidth, height)
	return lipgloss.JoinHorizontal(lipgloss.Top, sidebar, main)
}

func (m Model) renderSidebar(width, height int) string {
	focused := m.focus == paneSidebar
	bgColor := m.theme.SurfaceAlt
	if focused {
		bgColor = m.theme.FocusBg
	}
	styles := m.theme.Styles().WithBackground(bgColor)
	inner := width - 2

	cls := m.machine.SelectedClass()
	if cls == nil {
		return m.renderTitledBox("Chapters", styles.MutedText.Render(" No classes"), width, height, focused)
	}

	var lines []string
	status := m.machine.Progress()
	bar := m.progress
	bar.Width = inner - 7
	lines = append(lines,
		" "+bar.ViewAs(float64(status.Percentage)/100)+styles.Text.Render(fmt.Sprintf(" %3d%%", status.Percentage)),
		styles.MutedText.Render(fmt.Sprintf(" %d of %d chapters done", status.Completed, status.Total)),
		"",
	)

	rows := m.machine.ChapterRows()
	if len(rows) == 0 {
		lines = append(lines, styles.FaintText.Render(" No chapters yet"))
	}

	visible := height - 2 - len(lines)
	start := 0
	if visible > 0 && m.chapterCursor >= visible {
		start = m.chapterCursor - visible + 1
	}
	for i := start; i < len(rows) && (visible <= 0 || i < start+visible); i++ {
		lines = append(lines, m.renderChapterRow(rows[i], i == m.chapterCursor && focused, inner, styles))
	}

	return m.renderTitledBox(cls.Name, strings.Join(lines, "\n"), width, height, focused)
}

func (m Model) renderChapterRow(row state.ChapterRow, selected bool, width int, styles Styles) string {
	badge := styles.BadgeStyle(row.Label).Render(row.Label)
	marker := "  "
	if row.Open {
		marker = " ●"
	}
	nameWidth := width - lipgloss.Width(badge) - lipgloss.Width(marker) - 2
	name := truncate(row.Chapter.Name, nameWidth)
	gap := width - lipgloss.Width(marker) - lipgloss.Width(name) - lipgloss.Width(badge) - 1
	if gap < 1 {
		gap = 1
	}
	if selected {
		text := m.theme.Styles().Selected.Render(marker + " " + name + strings.Repeat(" ", gap-1))
		return text + badge
	}
	nameStyle := styles.Text
	if row.Open {
		nameStyle = styles.AccentText
	}
	return nameStyle.Render(marker+" "+name) + styles.Text.Render(strings.Repeat(" ", gap-1)) + badge
}

func (m Model) renderMainPanel(width, height int) string {
	focused := m.focus == paneMain || !m.sidebarVisible()
	switch mode := m.machine.Mode().(type) {
	case state.ChapterMode:
		return m.renderPoem(mode, width, height, focused)
	case state.FlashcardsMode:
		return m.renderFlashcard(width, height, focused)
	default:
		return m.renderEmptyPanel(width, height, focused)
	}
}

func (m Model) renderPoem(mode state.ChapterMode, width, height int, focused bool) string {
	bgColor := m.theme.SurfaceAlt
	if focused {
		bgColor = m.theme.FocusBg
	}
	styles := m.theme.Styles().WithBackground(bgColor)
	inner := width - 4
	reading := m.machine.Reading()

	lines := mode.Chapter.Lines()
	body := height - 4
	if body < 1 {
		body = 1
	}
	offset := 0
	if m.lineCursor >= body {
		offset = m.lineCursor - body + 1
	}

	var out []string
	if len(lines) == 0 {
		out = append(out, styles.MutedText.Render(" This chapter has no text yet."))
	}
	for i := offset; i < len(lines) && i < offset+body; i++ {
		text := truncate(lines[i], inner)
		prefix := "  "
		if i == m.lineCursor && focused {
			prefix = "› "
		}
		switch {
		case reading.Kind == state.ReadingLine && reading.Line == i:
			out = append(out, styles.AccentText.Render(prefix)+styles.Reading.Render(text))
		case reading.Kind == state.ReadingWholePoem && text != "":
			out = append(out, styles.AccentText.Render(prefix)+styles.WarningText.Render(text))
		case i == m.lineCursor && focused:
			out = append(out, styles.AccentText.Render(prefix)+styles.Text.Bold(true).Render(text))
		default:
			out = append(out, styles.Text.Render(prefix+text))
		}
	}

	for len(out) < body {
		out = append(out, "")
	}
	out = append(out, m.poemFooter(mode, styles))

	return m.renderTitledBox(mode.Chapter.Name, strings.Join(out, "\n"), width, height, focused)
}

func (m Model) poemFooter(mode state.ChapterMode, styles Styles) string {
	n := len(mode.Chapter.QuizQuestions)
	var parts []string
	if n == 0 {
		parts = append(parts, styles.FaintText.Render("Quiz coming soon"))
	} else {
		parts = append(parts, styles.InfoText.Render(fmt.Sprintf("Quiz: %d questions (t)", n)))
	}
	if m.machine.CanNavigate(-1) {
		parts = append(parts, styles.MutedText.Render("[ previous"))
	}
	if m.machine.CanNavigate(1) {
		parts = append(parts, styles.MutedText.Render("next ]"))
	}
	return " " + strings.Join(parts, styles.FaintText.Render("  ·  "))
}

func (m Model) renderFlashcard(width, height int, focused bool) string {
	bgColor := m.theme.SurfaceAlt
	if focused {
		bgColor = m.theme.FocusBg
	}
	styles := m.theme.Styles().WithBackground(bgColor)
	title := "Flashcards"
	if cls := m.machine.SelectedClass(); cls != nil {
		title += " · " + cls.Name
	}
	if m.deck == nil {
		return m.renderEmptyPanel(width, height, focused)
	}
	card, index, total, ok := m.deck.Current()
	if !ok {
		return m.renderEmptyPanel(width, height, focused)
	}

	inner := width - 6
	var out []string
	out = append(out, "", " "+styles.AccentText.Bold(true).Render(truncate(card.ChapterName, inner)), "")
	for _, line := range wrap(card.Text, inner) {
		out = append(out, " "+styles.Text.Render(line))
	}
	out = append(out, "")

	dots := make([]string, total)
	for i := range dots {
		if i == index {
			dots[i] = styles.AccentText.Render("●")
		} else {
			dots[i] = styles.FaintText.Render("○")
		}
	}
	out = append(out,
		" "+strings.Join(dots, " "),
		" "+styles.FaintText.Render(fmt.Sprintf("Card %d of %d", index+1, total)),
	)
	return m.renderTitledBox(title, strings.Join(out, "\n"), width, height, focused)
}

func (m Model) renderEmptyPanel(width, height int, focused bool) string {
	bgColor := m.theme.SurfaceAlt
	if focused {
		bgColor = m.theme.FocusBg
	}
	styles := m.theme.Styles().WithBackground(bgColor)

	var out []string
	out = append(out, "")
	for _, line := range strings.Split(banner(), "\n") {
		out = append(out, " "+styles.Logo.Render(line))
	}
	out = append(out, "",
		" "+styles.MutedText.Render("Pick a chapter from the list to start reading."),
	)
	return m.renderTitledBox("Welcome", strings.Join(out, "\n"), width, height, focused)
}
