// Package model defines the per-URL task state shared between the download
// worker and the UI, with explicit status transitions.
package model
