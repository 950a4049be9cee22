package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
)

// URLEntry is the multi-line URL box. It calls OnActivate whenever it gains
// focus or is clicked, which the form uses to pull a URL off the clipboard.
type URLEntry struct {
	widget.Entry
	OnActivate func()
}

// NewURLEntry creates the URL box with rows visible lines.
func NewURLEntry(rows int, onActivate func()) *URLEntry {
	e := &URLEntry{OnActivate: onActivate}
	e.MultiLine = true
	e.Wrapping = fyne.TextWrapOff
	e.ExtendBaseWidget(e)
	e.SetMinRowsVisible(rows)
	return e
}

// FocusGained implements fyne.Focusable.
func (e *URLEntry) FocusGained() {
	e.Entry.FocusGained()
	e.activate()
}

// MouseDown implements desktop.Mouseable. A click on an already focused box
// does not refocus it, so it is handled separately.
func (e *URLEntry) MouseDown(m *desktop.MouseEvent) {
	e.Entry.MouseDown(m)
	if m.Button == desktop.MouseButtonPrimary {
		e.activate()
	}
}

func (e *URLEntry) activate() {
	if e.OnActivate != nil {
		e.OnActivate()
	}
}
