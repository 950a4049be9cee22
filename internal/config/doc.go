// Package config persists the downloader preferences as a flat JSON file that
// is loaded at startup and rewritten whenever a form field changes.
package config
