package platform

import "strings"

// URL scheme prefixes accepted from the clipboard.
const (
	HTTPPrefix  = "http://"
	HTTPSPrefix = "https://"
)

// ClipboardURL returns the trimmed clipboard text when it is an http(s) URL,
// otherwise "".
func ClipboardURL(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, HTTPPrefix) || strings.HasPrefix(text, HTTPSPrefix) {
		return text
	}
	return ""
}

// MergeURL appends url to the URL box contents unless it is already there.
// The second result reports whether current was changed.
func MergeURL(current, url string) (string, bool) {
	if url == "" {
		return current, false
	}
	trimmed := strings.TrimSpace(current)
	if strings.Contains(trimmed, url) {
		return current, false
	}
	if trimmed == "" {
		return url, true
	}
	return trimmed + "\n" + url, true
}

// SplitURLs returns the non-blank, trimmed lines of text.
func SplitURLs(text string) []string {
	var urls []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			urls = append(urls, line)
		}
	}
	return urls
}
