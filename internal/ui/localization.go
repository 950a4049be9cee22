package ui

import (
	"sync"

	"github.com/ytget/yt-batch/internal/locale"
)

// Text keys for localization
const (
	KeyWindowTitle         = "window_title"
	KeyLanguageLabel       = "language_label"
	KeyURLLabel            = "url_label"
	KeyPathLabel           = "path_label"
	KeyBrowse              = "browse_button"
	KeyOpenFolder          = "open_folder_button"
	KeyPrefixLabel         = "prefix_label"
	KeyPrefixPlaceholder   = "prefix_placeholder"
	KeyDownloadTypeLabel   = "download_type_label"
	KeyFileFormatLabel     = "file_format_label"
	KeyVideoQualityLabel   = "video_quality_label"
	KeyAudioQualityLabel   = "audio_quality_label"
	KeyVideoQualityHint    = "video_quality_placeholder"
	KeyAudioQualityHint    = "audio_quality_placeholder"
	KeyProxyLabel          = "proxy_label"
	KeyFFmpegLabel         = "ffmpeg_label"
	KeyFFmpegPlaceholder   = "ffmpeg_placeholder"
	KeyExtraParamsLabel    = "extra_params_label"
	KeyExtraParamsHint     = "extra_params_placeholder"
	KeyExpandPlaylists     = "expand_playlists_label"
	KeyDownload            = "download_button"
	KeyStop                = "stop_button"
	KeyExit                = "exit_button"
	KeyLogTitle            = "log_group_title"
	KeyNoFormat            = "no_format"
	KeyErrorNoURLPath      = "error_no_url_path"
	KeyErrorAlreadyRunning = "error_already_running"
	KeyErrorOpenFolder     = "error_open_folder"
	KeyErrorSaveConfig     = "error_save_config"
	KeyDownloadStart       = "download_start"
	KeyDownloadStopped     = "download_stopped"
	KeyDownloadStartSingle = "download_start_single"
	KeyDownloadProgress    = "download_progress"
	KeyDownloadCompleted   = "download_completed"
	KeyDownloadAllFinished = "download_all_finished"
	KeyExtraParamsApplied  = "extra_params_applied"
	KeyExtraParamsError    = "extra_params_error"
	KeyDownloadError       = "download_error"
	KeyDownloadTypes       = locale.KeyDownloadTypes
	KeyVideoQualities      = "video_qualities"
	KeyAudioQualities      = "audio_qualities"
)

// Localization resolves UI text for the current language. The catalog can
// be swapped when the locale directory changes on disk.
type Localization struct {
	mu              sync.RWMutex
	catalog         *locale.Catalog
	currentLanguage string
}

// NewLocalization creates a localization manager. An unknown lang falls
// back to English.
func NewLocalization(catalog *locale.Catalog, lang string) *Localization {
	if catalog == nil {
		catalog = locale.Builtin()
	}
	l := &Localization{catalog: catalog, currentLanguage: locale.DefaultLanguage}
	l.SetLanguage(lang)
	return l
}

// SetCatalog replaces the catalog. The current language is kept when the
// new catalog still has it.
func (l *Localization) SetCatalog(catalog *locale.Catalog) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.catalog = catalog
	if !catalog.Has(l.currentLanguage) {
		l.currentLanguage = locale.DefaultLanguage
	}
}

// SetLanguage switches to lang and reports whether it is loaded.
func (l *Localization) SetLanguage(lang string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.catalog.Has(lang) {
		return false
	}
	l.currentLanguage = lang
	return true
}

// GetCurrentLanguage returns the current language code
func (l *Localization) GetCurrentLanguage() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.currentLanguage
}

// GetText returns localized text for key with {name} placeholders filled
// from args.
func (l *Localization) GetText(key string, args map[string]any) string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.catalog.Text(l.currentLanguage, key, args)
}

// GetList returns the localized list for key padded or cut to len(canonical);
// missing entries use the canonical value.
func (l *Localization) GetList(key string, canonical []string) []string {
	l.mu.RLock()
	list := l.catalog.List(l.currentLanguage, key)
	l.mu.RUnlock()

	out := make([]string, len(canonical))
	for i := range canonical {
		if i < len(list) && list[i] != "" {
			out[i] = list[i]
		} else {
			out[i] = canonical[i]
		}
	}
	return out
}

// GetAvailableLanguages returns the loaded languages sorted by display name
func (l *Localization) GetAvailableLanguages() []locale.Language {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.catalog.Languages()
}
