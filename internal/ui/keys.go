package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit          key.Binding
	Help          key.Binding
	CycleTheme    key.Binding
	ToggleSidebar key.Binding
	Tab           key.Binding
	Escape        key.Binding

	// View switching
	ViewDashboard key.Binding
	ViewLogs      key.Binding

	// Navigation
	Up           key.Binding
	Down         key.Binding
	Top          key.Binding
	Bottom       key.Binding
	HalfPageUp   key.Binding
	HalfPageDown key.Binding

	// Reader
	NextClass   key.Binding
	PrevClass   key.Binding
	Open        key.Binding
	ReadLine    key.Binding
	ReadPoem    key.Binding
	PrevChapter key.Binding
	NextChapter key.Binding
	TakeQuiz    key.Binding

	// Dashboard
	FilterClass   key.Binding
	FilterStudent key.Binding
	FilterChapter key.Binding
	ClearFilters  key.Binding
	Export        key.Binding

	// Logs
	Refresh key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		ToggleSidebar: key.NewBinding(
			key.WithKeys("."),
			key.WithHelp(".", "Toggle sidebar"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "Switch focus"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Back"),
		),

		ViewDashboard: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "Teacher dashboard"),
		),
		ViewLogs: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "Log view"),
		),

		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Move down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "Go to top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "Go to bottom"),
		),
		HalfPageUp: key.NewBinding(
			key.WithKeys("ctrl+u"),
			key.WithHelp("ctrl+u", "Half page up"),
		),
		HalfPageDown: key.NewBinding(
			key.WithKeys("ctrl+d"),
			key.WithHelp("ctrl+d", "Half page down"),
		),

		NextClass: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "Next class"),
		),
		PrevClass: key.NewBinding(
			key.WithKeys("C"),
			key.WithHelp("C", "Previous class"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Open chapter / read line"),
		),
		ReadLine: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "Read line aloud"),
		),
		ReadPoem: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "Read whole poem / stop"),
		),
		PrevChapter: key.NewBinding(
			key.WithKeys("[", "left"),
			key.WithHelp("[", "Previous chapter"),
		),
		NextChapter: key.NewBinding(
			key.WithKeys("]", "right"),
			key.WithHelp("]", "Next chapter"),
		),
		TakeQuiz: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "Take quiz"),
		),

		FilterClass: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "Cycle class filter"),
		),
		FilterStudent: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "Cycle student filter"),
		),
		FilterChapter: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "Cycle chapter filter"),
		),
		ClearFilters: key.NewBinding(
			key.WithKeys("0"),
			key.WithHelp("0", "Clear filters"),
		),
		Export: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "Export CSV"),
		),

		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Reload log"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.Escape, k.ToggleSidebar, k.ViewDashboard, k.ViewLogs},
		{k.Up, k.Down, k.Top, k.Bottom, k.HalfPageDown, k.HalfPageUp},
		{k.NextClass, k.PrevClass, k.Open, k.ReadLine, k.ReadPoem, k.PrevChapter, k.NextChapter, k.TakeQuiz},
		{k.FilterClass, k.FilterStudent, k.FilterChapter, k.ClearFilters, k.Export},
		{k.Refresh, k.CycleTheme, k.Help, k.Quit},
	}
}
