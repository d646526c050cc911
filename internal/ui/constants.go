package ui

// UI-wide constants to avoid magic numbers/strings scattered across the codebase.

// Icons (emojis/symbols)
const (
	IconDone    = "✔"
	IconError   = "❌"
	IconCaption = "💬"
	IconArrow   = "›"
)

// Text fragments
const (
	MiddleDotSeparator  = " · "
	DashPlaceholder     = "—"
	ProgressLabelFormat = "%d%%"
	SummaryHeader       = "Summary"
)

// Progress rendering
const (
	ProgressBarWidth = 40

	// Non-interactive output prints progress in steps of this many percent
	PlainProgressStep = 10
)

// Colors (ANSI 256)
const (
	ColorAccent = "211"
	ColorMuted  = "241"
	ColorError  = "196"
	ColorOK     = "42"
)
