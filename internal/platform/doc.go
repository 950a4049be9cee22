// Package platform contains OS/platform integration and external tooling glue:
// filesystem helpers, clipboard URL handling, playlist expansion via the ytdlp
// library, and opening folders in the system file manager.
package platform
