package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/five82/kavita/internal/dashboard"
	"github.com/five82/kavita/internal/flashcards"
	"github.com/five82/kavita/internal/narration"
	"github.com/five82/kavita/internal/results"
	"github.com/five82/kavita/internal/session"
	"github.com/five82/kavita/internal/state"
)

// View represents the current active view.
type View int

const (
	ViewReader View = iota
	ViewQuiz
	ViewDashboard
	ViewLogs
)

type pane int

const (
	paneSidebar pane = iota
	paneMain
)

// Narrator is the narration controller as driven by key presses.
// Requests take their token in Update so that a chapter change handled
// before the command runs cancels them.
type Narrator interface {
	Reserve() narration.Token
	SpeakLineFor(ctx context.Context, tok narration.Token, index int, text string) error
	ToggleWholePoemFor(ctx context.Context, tok narration.Token, poem string) error
	Snapshot() narration.Snapshot
}

// Deck exposes the card the carousel is showing.
type Deck interface {
	Current() (card flashcards.Card, index, total int, ok bool)
}

// ResultSaver submits finished quiz attempts.
type ResultSaver interface {
	SaveResult(ctx context.Context, rec results.Record) error
}

// Options configures the UI.
type Options struct {
	Context  context.Context
	Machine  *state.Machine
	Narrator Narrator
	Deck     Deck
	Session  session.Store
	Saver    ResultSaver
	Results  *dashboard.Store

	// Ticks carries carousel generations; Changes fires when the
	// narration session changes. Either may be nil.
	Ticks   <-chan uint64
	Changes <-chan struct{}

	LogPath      string
	ExportDir    string
	ThemeName    string
	RefreshEvery time.Duration
	Logger       *zap.Logger
	Now          func() time.Time
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx          context.Context
	machine      *state.Machine
	narrator     Narrator
	deck         Deck
	session      session.Store
	saver        ResultSaver
	results      *dashboard.Store
	ticks        <-chan uint64
	changes      <-chan struct{}
	logPath      string
	exportDir    string
	refreshEvery time.Duration
	log          *zap.Logger
	now          func() time.Time

	// UI state
	theme         Theme
	keys          keyMap
	help          help.Model
	progress      progress.Model
	currentView   View
	focus         pane
	width         int
	height        int
	ready         bool
	sidebarHidden bool
	showHelp      bool

	// Reader state
	chapterCursor int
	lineCursor    int

	notice   string
	noticeAt time.Time

	quiz quizState
	dash dashState

	logViewport viewport.Model
	logLines    []string
	logErr      error
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	refresh := opts.RefreshEvery
	if refresh <= 0 {
		refresh = DefaultUIInterval
	}
	store := opts.Session
	if store == nil {
		store = session.NewMemory()
	}

	themeName := opts.ThemeName
	if saved, ok := store.Get(session.KeyTheme); ok && saved != "" {
		themeName = saved
	}
	theme := GetTheme(themeName)

	exportDir := opts.ExportDir
	if exportDir == "" {
		exportDir = "."
	}

	return Model{
		ctx:          ctx,
		machine:      opts.Machine,
		narrator:     opts.Narrator,
		deck:         opts.Deck,
		session:      store,
		saver:        opts.Saver,
		results:      opts.Results,
		ticks:        opts.Ticks,
		changes:      opts.Changes,
		logPath:      opts.LogPath,
		exportDir:    exportDir,
		refreshEvery: refresh,
		log:          logger,
		now:          now,
		theme:        theme,
		keys:         DefaultKeyMap(),
		help:         help.New(),
		progress:     newProgressBar(theme),
		currentView:  ViewReader,
		focus:        paneSidebar,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tickCmd(m.refreshEvery),
		waitForTick(m.ticks),
		waitForChange(m.changes),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resizeLogViewport()
		return m, nil

	case tickMsg:
		return m.handleTick(time.Time(msg))

	case flashcardTickMsg:
		if m.machine != nil {
			m.machine.FlashcardTick(msg.gen)
		}
		return m, waitForTick(m.ticks)

	case narrationChangedMsg:
		return m, waitForChange(m.changes)

	case narrationDoneMsg:
		m.handleNarrationDone(msg.err)
		return m, nil

	case resultSavedMsg:
		m.handleResultSaved(msg.err)
		return m, nil

	case logsLoadedMsg:
		m.logLines = msg.lines
		m.logErr = msg.err
		m.updateLogViewport()
		return m, nil

	case csvExportedMsg:
		if msg.err != nil {
			m.log.Warn("csv export failed", zap.Error(msg.err))
			m.setNotice("Export failed: " + msg.err.Error())
		} else {
			m.log.Info("csv exported", zap.String("path", msg.path), zap.Int("records", msg.count))
			m.setNotice(fmt.Sprintf("Exported %d results to %s", msg.count, msg.path))
		}
		return m, nil
	}

	if m.currentView == ViewQuiz && m.quiz.stage == stageIdentity {
		return m.updateIdentityInputs(msg)
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	return m.renderMain()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	// The quiz owns the keyboard while open so its text inputs see
	// every key.
	if m.currentView == ViewQuiz {
		return m.handleQuizKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.currentView != ViewReader {
			m.currentView = ViewReader
			return m, nil
		}
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.progress = newProgressBar(m.theme)
		if err := m.session.Set(session.KeyTheme, m.theme.Name); err != nil {
			m.log.Warn("persist theme failed", zap.Error(err))
		}
		return m, nil

	case key.Matches(msg, m.keys.ToggleSidebar):
		m.sidebarHidden = !m.sidebarHidden
		if m.sidebarHidden {
			m.focus = paneMain
		}
		return m, nil

	case key.Matches(msg, m.keys.ViewDashboard):
		m.currentView = ViewDashboard
		m.refreshDashboard()
		return m, nil

	case key.Matches(msg, m.keys.ViewLogs):
		m.currentView = ViewLogs
		return m, loadLogsCmd(m.logPath)
	}

	switch m.currentView {
	case ViewDashboard:
		return m.handleDashboardKey(msg)
	case ViewLogs:
		return m.handleLogsKey(msg)
	default:
		return m.handleReaderKey(msg)
	}
}

// handleTick processes the UI refresh tick.
func (m Model) handleTick(now time.Time) (tea.Model, tea.Cmd) {
	m.refreshDashboard()
	if m.notice != "" && now.Sub(m.noticeAt) > NoticeLifetime {
		m.notice = ""
	}
	return m, tickCmd(m.refreshEvery)
}

func (m *Model) handleNarrationDone(err error) {
	if err == nil || errors.Is(err, narration.ErrSuperseded) || errors.Is(err, context.Canceled) {
		return
	}
	m.log.Warn("narration failed", zap.Error(err))
	if errors.Is(err, narration.ErrEmptyText) {
		return
	}
	m.setNotice("Could not read aloud: " + err.Error())
}

func (m *Model) setNotice(text string) {
	m.notice = text
	m.noticeAt = m.now()
}

func (m *Model) refreshDashboard() {
	if m.results == nil {
		return
	}
	m.dash.snap = m.results.Snapshot()
}

// sidebarVisible reports whether the sidebar takes up room this frame.
func (m Model) sidebarVisible() bool {
	return !m.sidebarHidden && m.width >= LayoutSidebarMinWidth && m.currentView == ViewReader
}

// renderMain renders the full UI.
func (m Model) renderMain() string {
	var b strings.Builder

	// Header line 1: logo + status
	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	// Header line 2: command bar
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")

	b.WriteString(m.renderContent())
	b.WriteString("\n")

	b.WriteString(m.renderStatusLine())
	return b.String()
}

// renderContent renders the main content area based on current view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewQuiz:
		return m.renderQuiz()
	case ViewDashboard:
		return m.renderDashboard()
	case ViewLogs:
		return m.renderLogs()
	default:
		return m.renderReader()
	}
}

// contentHeight is the height left below the two header lines and above
// the status line.
func (m Model) contentHeight() int {
	h := m.height - 3
	if h < 3 {
		h = 3
	}
	return h
}

// Messages

type tickMsg time.Time

type flashcardTickMsg struct{ gen uint64 }

type narrationChangedMsg struct{}

type narrationDoneMsg struct{ err error }

type resultSavedMsg struct{ err error }

type logsLoadedMsg struct {
	lines []string
	err   error
}

type csvExportedMsg struct {
	path  string
	count int
	err   error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func waitForTick(ch <-chan uint64) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		gen, ok := <-ch
		if !ok {
			return nil
		}
		return flashcardTickMsg{gen: gen}
	}
}

func waitForChange(ch <-chan struct{}) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return narrationChangedMsg{}
	}
}

// Run starts the Bubble Tea program and blocks until it exits or ctx is
// cancelled.
func Run(ctx context.Context, opts Options) error {
	if opts.Machine == nil {
		return fmt.Errorf("ui requires a state machine")
	}
	if opts.Context == nil {
		opts.Context = ctx
	}
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
