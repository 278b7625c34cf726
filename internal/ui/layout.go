package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which the command bar
	// drops to short labels.
	LayoutCompactWidth = 100

	// LayoutSidebarMinWidth is the narrowest terminal that shows the
	// sidebar; below it the sidebar is hidden regardless of the toggle.
	LayoutSidebarMinWidth = 70

	// SidebarWidth is the sidebar's fixed width including borders.
	SidebarWidth = 34
)

// Log view limits.
const (
	// LogTailLines is how many lines of the client log are loaded.
	LogTailLines = 500
)

// Timing constants.
const (
	// DefaultUIInterval is how often the dashboard snapshot is re-read.
	DefaultUIInterval = time.Second

	// NoticeLifetime is how long a notice stays in the status line.
	NoticeLifetime = 6 * time.Second

	// SaveTimeout bounds the result upload after a quiz.
	SaveTimeout = 10 * time.Second
)
