// Package download resolves the form state into yt-dlp options and runs a
// batch of URLs one after another on a background worker, on top of
// github.com/lrstanley/go-ytdlp. Progress and results are reported as
// Events for the log view and as task snapshots.
package download
