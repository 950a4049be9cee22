package ui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

// CompactTheme tightens the default theme so the whole form fits above the
// log without scrolling.
type CompactTheme struct {
	fyne.Theme
}

// NewCompactTheme wraps the default theme.
func NewCompactTheme() fyne.Theme {
	return &CompactTheme{Theme: theme.DefaultTheme()}
}

// Color overrides the accent colors used by the Start button and the
// progress bar.
func (t *CompactTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	switch name {
	case theme.ColorNamePrimary:
		return color.RGBA{R: 204, G: 0, B: 0, A: 255}
	case theme.ColorNameError:
		return color.RGBA{R: 183, G: 28, B: 28, A: 255}
	case theme.ColorNameSuccess:
		return color.RGBA{R: 46, G: 160, B: 67, A: 255}
	}
	return t.Theme.Color(name, variant)
}

// Size returns reduced paddings and text sizes.
func (t *CompactTheme) Size(name fyne.ThemeSizeName) float32 {
	switch name {
	case theme.SizeNamePadding:
		return 3
	case theme.SizeNameInnerPadding:
		return 6
	case theme.SizeNameLineSpacing:
		return 2
	case theme.SizeNameText:
		return 13
	case theme.SizeNameHeadingText:
		return 16
	case theme.SizeNameSubHeadingText:
		return 13
	case theme.SizeNameCaptionText:
		return 10
	case theme.SizeNameInputRadius:
		return 3
	}
	return t.Theme.Size(name)
}
