// Package ui contains the Fyne desktop form: the URL box, the download
// options, the Start/Stop controls and the log view. Every field change is
// persisted through config.Store and all text comes from the locale
// catalog via Localization.
package ui
