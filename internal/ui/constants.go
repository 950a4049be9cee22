package ui

// Window sizing
const (
	WindowWidth  float32 = 760
	WindowHeight float32 = 820
	URLBoxRows           = 5
	LogMinHeight float32 = 200
)

// Log view limits
const (
	// MaxLogLines caps the log view; older lines are dropped first.
	MaxLogLines = 2000
)

// Text fragments
const (
	PercentFormat   = "%.1f%%"
	DashPlaceholder = "-"
)
