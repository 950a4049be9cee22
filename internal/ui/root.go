package ui

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"

	"github.com/ytget/yt-batch/internal/config"
	"github.com/ytget/yt-batch/internal/download"
	"github.com/ytget/yt-batch/internal/locale"
	"github.com/ytget/yt-batch/internal/model"
	"github.com/ytget/yt-batch/internal/params"
	"github.com/ytget/yt-batch/internal/platform"
)

// RootUI is the main window: the batch form on top and the log below.
type RootUI struct {
	app         fyne.App
	window      fyne.Window
	store       *config.Store
	downloadSvc download.Downloader
	loc         *Localization
	logger      *zap.Logger

	// openFolder is replaced in tests.
	openFolder func(string) error

	// loading suppresses persistence while widgets are filled in code.
	loading   bool
	languages []locale.Language
	logLines  []string

	languageLabel     *widget.Label
	languageSelect    *widget.Select
	urlLabel          *widget.Label
	urlEntry          *URLEntry
	pathLabel         *widget.Label
	pathEntry         *widget.Entry
	browseBtn         *widget.Button
	openBtn           *widget.Button
	prefixLabel       *widget.Label
	prefixEntry       *widget.Entry
	typeLabel         *widget.Label
	typeSelect        *widget.Select
	formatLabel       *widget.Label
	formatSelect      *widget.Select
	videoQualityLabel *widget.Label
	videoQuality      *widget.SelectEntry
	audioQualityLabel *widget.Label
	audioQuality      *widget.SelectEntry
	proxyLabel        *widget.Label
	proxyEntry        *widget.Entry
	ffmpegLabel       *widget.Label
	ffmpegEntry       *widget.Entry
	extraLabel        *widget.Label
	extraEntry        *widget.Entry
	expandCheck       *widget.Check
	startBtn          *widget.Button
	stopBtn           *widget.Button
	exitBtn           *widget.Button
	progress          *widget.ProgressBar
	progressText      string
	logCard           *widget.Card
	logLabel          *widget.Label
	logScroll         *container.Scroll
}

// NewRootUI builds the form into window and fills it from store.
func NewRootUI(app fyne.App, window fyne.Window, store *config.Store, downloadSvc download.Downloader, loc *Localization, logger *zap.Logger) *RootUI {
	if logger == nil {
		logger = zap.NewNop()
	}
	ui := &RootUI{
		app:         app,
		window:      window,
		store:       store,
		downloadSvc: downloadSvc,
		loc:         loc,
		logger:      logger,
		openFolder:  platform.OpenFolder,
	}

	downloadSvc.SetEventCallback(ui.onEvent)
	downloadSvc.SetUpdateCallback(ui.onTaskUpdate)

	ui.setupUI()
	ui.loadFromConfig()
	return ui
}

// setupUI creates and arranges all UI components
func (ui *RootUI) setupUI() {
	ui.languageLabel = widget.NewLabel("")
	ui.languageSelect = widget.NewSelect(nil, ui.onLanguageSelected)

	ui.urlLabel = widget.NewLabel("")
	ui.urlEntry = NewURLEntry(URLBoxRows, ui.CheckClipboard)

	ui.pathLabel = widget.NewLabel("")
	ui.pathEntry = widget.NewEntry()
	ui.pathEntry.OnChanged = func(s string) {
		ui.update(func(c *config.Config) { c.Path = strings.TrimSpace(s) })
	}
	ui.browseBtn = widget.NewButtonWithIcon("", theme.FolderOpenIcon(), ui.onBrowse)
	ui.openBtn = widget.NewButtonWithIcon("", theme.FolderIcon(), ui.onOpenFolder)

	ui.prefixLabel = widget.NewLabel("")
	ui.prefixEntry = widget.NewEntry()
	ui.prefixEntry.OnChanged = func(s string) {
		ui.update(func(c *config.Config) { c.Prefix = s })
	}

	ui.typeLabel = widget.NewLabel("")
	ui.typeSelect = widget.NewSelect(nil, ui.onTypeSelected)
	ui.formatLabel = widget.NewLabel("")
	ui.formatSelect = widget.NewSelect(nil, ui.onFormatSelected)

	ui.videoQualityLabel = widget.NewLabel("")
	ui.videoQuality = widget.NewSelectEntry(nil)
	ui.videoQuality.OnChanged = func(s string) {
		preset, custom := ui.qualityValue(s, KeyVideoQualities, download.VideoQualities)
		ui.update(func(c *config.Config) {
			if custom == "" {
				c.VideoQuality = preset
			}
			c.VideoQualityCustom = custom
		})
	}
	ui.audioQualityLabel = widget.NewLabel("")
	ui.audioQuality = widget.NewSelectEntry(nil)
	ui.audioQuality.OnChanged = func(s string) {
		preset, custom := ui.qualityValue(s, KeyAudioQualities, download.AudioQualities)
		ui.update(func(c *config.Config) {
			if custom == "" {
				c.AudioQuality = preset
			}
			c.AudioQualityCustom = custom
		})
	}

	ui.proxyLabel = widget.NewLabel("")
	ui.proxyEntry = widget.NewEntry()
	ui.proxyEntry.OnChanged = func(s string) {
		ui.update(func(c *config.Config) { c.Proxy = strings.TrimSpace(s) })
	}
	ui.ffmpegLabel = widget.NewLabel("")
	ui.ffmpegEntry = widget.NewEntry()
	ui.ffmpegEntry.OnChanged = func(s string) {
		ui.update(func(c *config.Config) { c.FFmpegPath = strings.TrimSpace(s) })
	}
	ui.extraLabel = widget.NewLabel("")
	ui.extraEntry = widget.NewEntry()
	ui.extraEntry.OnChanged = func(s string) {
		ui.update(func(c *config.Config) { c.ExtraParams = s })
	}
	ui.expandCheck = widget.NewCheck("", func(on bool) {
		ui.update(func(c *config.Config) { c.ExpandPlaylists = on })
	})

	ui.startBtn = widget.NewButtonWithIcon("", theme.DownloadIcon(), ui.onStart)
	ui.startBtn.Importance = widget.HighImportance
	ui.stopBtn = widget.NewButtonWithIcon("", theme.MediaStopIcon(), ui.onStop)
	ui.stopBtn.Disable()
	ui.exitBtn = widget.NewButtonWithIcon("", theme.LogoutIcon(), ui.onExit)
	ui.progress = widget.NewProgressBar()
	ui.progress.TextFormatter = func() string { return ui.progressText }
	ui.progress.Hide()

	ui.logLabel = widget.NewLabel("")
	ui.logLabel.Wrapping = fyne.TextWrapWord
	ui.logScroll = container.NewVScroll(ui.logLabel)
	ui.logScroll.SetMinSize(fyne.NewSize(0, LogMinHeight))
	ui.logCard = widget.NewCard("", "", ui.logScroll)

	pathRow := container.NewBorder(nil, nil, nil, container.NewHBox(ui.browseBtn, ui.openBtn), ui.pathEntry)
	options := container.NewGridWithColumns(2,
		container.NewVBox(ui.typeLabel, ui.typeSelect),
		container.NewVBox(ui.formatLabel, ui.formatSelect),
		container.NewVBox(ui.videoQualityLabel, ui.videoQuality),
		container.NewVBox(ui.audioQualityLabel, ui.audioQuality),
	)
	top := container.NewVBox(
		container.NewBorder(nil, nil, ui.languageLabel, nil, ui.languageSelect),
		ui.urlLabel, ui.urlEntry,
		ui.pathLabel, pathRow,
		ui.prefixLabel, ui.prefixEntry,
		options,
		ui.proxyLabel, ui.proxyEntry,
		ui.ffmpegLabel, ui.ffmpegEntry,
		ui.extraLabel, ui.extraEntry,
		ui.expandCheck,
		container.NewHBox(layout.NewSpacer(), ui.startBtn, ui.stopBtn, ui.exitBtn),
		ui.progress,
	)

	ui.window.SetContent(container.NewBorder(top, nil, nil, nil, ui.logCard))
	ui.window.Resize(fyne.NewSize(WindowWidth, WindowHeight))
	ui.window.SetCloseIntercept(ui.onExit)
}

// loadFromConfig fills every widget from the stored preferences.
func (ui *RootUI) loadFromConfig() {
	cfg := ui.store.Get()
	ui.loc.SetLanguage(cfg.Language)

	ui.loading = true
	ui.pathEntry.SetText(cfg.Path)
	ui.prefixEntry.SetText(cfg.Prefix)
	ui.proxyEntry.SetText(cfg.Proxy)
	ui.ffmpegEntry.SetText(cfg.FFmpegPath)
	ui.extraEntry.SetText(cfg.ExtraParams)
	ui.expandCheck.SetChecked(cfg.ExpandPlaylists)
	ui.loading = false

	ui.refreshLanguages()
	ui.refreshUITexts()
}

// refreshLanguages rebuilds the language selector from the catalog.
func (ui *RootUI) refreshLanguages() {
	ui.languages = ui.loc.GetAvailableLanguages()
	names := make([]string, len(ui.languages))
	current := ""
	for i, l := range ui.languages {
		names[i] = l.Name
		if l.Code == ui.loc.GetCurrentLanguage() {
			current = l.Name
		}
	}

	ui.loading = true
	defer func() { ui.loading = false }()
	ui.languageSelect.Options = names
	ui.languageSelect.SetSelected(current)
	ui.languageSelect.Refresh()
}

// refreshUITexts relabels every widget in the current language
func (ui *RootUI) refreshUITexts() {
	t := func(key string) string { return ui.loc.GetText(key, nil) }
	cfg := ui.store.Get()

	ui.window.SetTitle(t(KeyWindowTitle))
	ui.languageLabel.SetText(t(KeyLanguageLabel))
	ui.urlLabel.SetText(t(KeyURLLabel))
	ui.pathLabel.SetText(t(KeyPathLabel))
	ui.browseBtn.SetText(t(KeyBrowse))
	ui.openBtn.SetText(t(KeyOpenFolder))
	ui.prefixLabel.SetText(t(KeyPrefixLabel))
	ui.prefixEntry.SetPlaceHolder(t(KeyPrefixPlaceholder))
	ui.typeLabel.SetText(t(KeyDownloadTypeLabel))
	ui.formatLabel.SetText(t(KeyFileFormatLabel))
	ui.videoQualityLabel.SetText(t(KeyVideoQualityLabel))
	ui.videoQuality.SetPlaceHolder(t(KeyVideoQualityHint))
	ui.audioQualityLabel.SetText(t(KeyAudioQualityLabel))
	ui.audioQuality.SetPlaceHolder(t(KeyAudioQualityHint))
	ui.proxyLabel.SetText(t(KeyProxyLabel))
	ui.ffmpegLabel.SetText(t(KeyFFmpegLabel))
	ui.ffmpegEntry.SetPlaceHolder(t(KeyFFmpegPlaceholder))
	ui.extraLabel.SetText(t(KeyExtraParamsLabel))
	ui.extraEntry.SetPlaceHolder(t(KeyExtraParamsHint))
	ui.expandCheck.Text = t(KeyExpandPlaylists)
	ui.expandCheck.Refresh()
	ui.startBtn.SetText(t(KeyDownload))
	ui.stopBtn.SetText(t(KeyStop))
	ui.exitBtn.SetText(t(KeyExit))
	ui.logCard.SetTitle(t(KeyLogTitle))

	ui.loading = true
	defer func() { ui.loading = false }()

	types := ui.loc.GetList(KeyDownloadTypes, modeNames())
	ui.typeSelect.Options = types
	ui.typeSelect.SetSelectedIndex(modeIndex(ui.currentMode()))
	ui.typeSelect.Refresh()

	videoLabels := ui.loc.GetList(KeyVideoQualities, download.VideoQualities)
	ui.videoQuality.SetOptions(videoLabels)
	ui.videoQuality.SetText(qualityText(cfg.VideoQuality, cfg.VideoQualityCustom, videoLabels, download.VideoQualities))

	audioLabels := ui.loc.GetList(KeyAudioQualities, download.AudioQualities)
	ui.audioQuality.SetOptions(audioLabels)
	ui.audioQuality.SetText(qualityText(cfg.AudioQuality, cfg.AudioQualityCustom, audioLabels, download.AudioQualities))

	ui.refreshModeWidgets()
}

// refreshModeWidgets shows the containers of the current mode and enables
// the quality selectors that apply to it. Callers hold ui.loading.
func (ui *RootUI) refreshModeWidgets() {
	cfg := ui.store.Get()
	mode := ui.currentMode()

	formats := mode.Formats()
	if len(formats) == 0 {
		none := ui.loc.GetText(KeyNoFormat, nil)
		ui.formatSelect.Options = []string{none}
		ui.formatSelect.SetSelected(none)
		ui.formatSelect.Disable()
	} else {
		selected := cfg.VideoFormat
		if mode == download.ModeAudio {
			selected = cfg.AudioFormat
		}
		if !slices.Contains(formats, selected) {
			selected = formats[0]
		}
		ui.formatSelect.Options = formats
		ui.formatSelect.SetSelected(selected)
		ui.formatSelect.Enable()
	}
	ui.formatSelect.Refresh()

	setEnabled(ui.videoQuality, mode.UsesVideoQuality())
	setEnabled(ui.audioQuality, mode.UsesAudioQuality())
}

func (ui *RootUI) currentMode() download.Mode {
	mode, err := download.ParseMode(ui.store.Get().DownloadType)
	if err != nil {
		return download.ModeCombined
	}
	return mode
}

// update persists a preference change unless the form is being filled in
// code.
func (ui *RootUI) update(fn func(*config.Config)) {
	if ui.loading {
		return
	}
	if err := ui.store.Update(fn); err != nil {
		ui.logger.Error("failed to save settings", zap.Error(err))
		ui.appendLog(ui.loc.GetText(KeyErrorSaveConfig, map[string]any{"error": err}))
	}
}

func (ui *RootUI) onLanguageSelected(name string) {
	if ui.loading {
		return
	}
	for _, l := range ui.languages {
		if l.Name != name {
			continue
		}
		if !ui.loc.SetLanguage(l.Code) {
			return
		}
		ui.update(func(c *config.Config) { c.Language = l.Code })
		ui.refreshUITexts()
		return
	}
}

func (ui *RootUI) onTypeSelected(string) {
	if ui.loading {
		return
	}
	idx := ui.typeSelect.SelectedIndex()
	if idx < 0 || idx >= len(download.Modes) {
		return
	}
	ui.update(func(c *config.Config) { c.DownloadType = string(download.Modes[idx]) })

	ui.loading = true
	defer func() { ui.loading = false }()
	ui.refreshModeWidgets()
}

func (ui *RootUI) onFormatSelected(format string) {
	mode := ui.currentMode()
	if !slices.Contains(mode.Formats(), format) {
		return
	}
	ui.update(func(c *config.Config) {
		if mode == download.ModeAudio {
			c.AudioFormat = format
		} else {
			c.VideoFormat = format
		}
	})
}

// qualityValue maps the text of a quality selector to a canonical preset
// or, when it matches none, to custom text.
func (ui *RootUI) qualityValue(text, key string, canonical []string) (preset, custom string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return canonical[0], ""
	}
	labels := ui.loc.GetList(key, canonical)
	if i := slices.Index(labels, text); i >= 0 {
		return canonical[i], ""
	}
	if slices.Contains(canonical, text) {
		return text, ""
	}
	return "", text
}

// qualityText is the selector text for a stored preset/custom pair.
func qualityText(preset, custom string, labels, canonical []string) string {
	if custom != "" {
		return custom
	}
	if i := slices.Index(canonical, preset); i >= 0 && i < len(labels) {
		return labels[i]
	}
	if preset == "" {
		return labels[0]
	}
	return preset
}

func (ui *RootUI) onBrowse() {
	dialog.ShowFolderOpen(func(uri fyne.ListableURI, err error) {
		if err != nil {
			ui.logger.Warn("folder dialog failed", zap.Error(err))
			return
		}
		if uri == nil {
			return
		}
		ui.pathEntry.SetText(uri.Path())
	}, ui.window)
}

func (ui *RootUI) onOpenFolder() {
	dir := strings.TrimSpace(ui.pathEntry.Text)
	if err := ui.openFolder(dir); err != nil {
		ui.logger.Warn("failed to open folder", zap.String("dir", dir), zap.Error(err))
		ui.appendLog(ui.loc.GetText(KeyErrorOpenFolder, map[string]any{"error": err}))
	}
}

// CheckClipboard adds an http(s) URL found on the clipboard to the URL box.
func (ui *RootUI) CheckClipboard() {
	clip := ui.app.Clipboard()
	if clip == nil {
		return
	}
	u := platform.ClipboardURL(clip.Content())
	if merged, changed := platform.MergeURL(ui.urlEntry.Text, u); changed {
		ui.urlEntry.SetText(merged)
	}
}

func (ui *RootUI) onStart() {
	ui.clearLog()
	urls := platform.SplitURLs(ui.urlEntry.Text)
	opts := download.OptionsFromConfig(ui.store.Get())

	err := ui.downloadSvc.Start(opts, urls)
	switch {
	case err == nil:
		ui.logger.Info("batch submitted", zap.Int("urls", len(urls)))
		ui.setRunning(true)
	case errors.Is(err, download.ErrNoURLs), errors.Is(err, download.ErrNoOutputDir):
		ui.appendLog(ui.loc.GetText(KeyErrorNoURLPath, nil))
	case errors.Is(err, download.ErrAlreadyRunning):
		ui.appendLog(ui.loc.GetText(KeyErrorAlreadyRunning, nil))
	default:
		ui.logger.Error("failed to start batch", zap.Error(err))
		ui.appendLog(ui.loc.GetText(KeyDownloadError, map[string]any{"error": err}))
	}
}

func (ui *RootUI) onStop() {
	ui.stopBtn.Disable()
	go ui.downloadSvc.Stop()
}

func (ui *RootUI) onExit() {
	ui.window.Hide()
	go func() {
		ui.downloadSvc.Stop()
		if err := ui.store.Flush(); err != nil {
			ui.logger.Error("failed to save settings on exit", zap.Error(err))
		}
		fyne.Do(ui.app.Quit)
	}()
}

func (ui *RootUI) setRunning(running bool) {
	if running {
		ui.startBtn.Disable()
		ui.stopBtn.Enable()
		ui.progressText = ""
		ui.progress.SetValue(0)
		ui.progress.Show()
		return
	}
	ui.startBtn.Enable()
	ui.stopBtn.Disable()
	ui.progress.Hide()
}

// onEvent runs on the download worker.
func (ui *RootUI) onEvent(ev download.Event) {
	line := formatEvent(ui.loc, ev)
	fyne.Do(func() {
		ui.appendLog(line)
		if ev.Kind == download.EventQueueFinished {
			ui.setRunning(false)
		}
	})
}

// onTaskUpdate runs on the download worker.
func (ui *RootUI) onTaskUpdate(task *model.DownloadTask) {
	value := task.Percent / 100
	text := progressLabel(task)
	fyne.Do(func() {
		ui.progressText = text
		ui.progress.SetValue(value)
	})
}

// progressLabel renders "title  12.3%  mm:ss" for the progress bar.
func progressLabel(task *model.DownloadTask) string {
	text := fmt.Sprintf("%s  "+PercentFormat, task.GetDisplayTitle(), task.Percent)
	if task.Status.IsActive() {
		text += "  " + task.GetETAString()
	}
	return text
}

// SetCatalog swaps in a reloaded locale catalog. Safe from any goroutine.
func (ui *RootUI) SetCatalog(catalog *locale.Catalog) {
	fyne.Do(func() {
		ui.loc.SetCatalog(catalog)
		ui.refreshLanguages()
		ui.refreshUITexts()
	})
}

// formatEvent renders ev as one localized log line.
func formatEvent(loc *Localization, ev download.Event) string {
	switch ev.Kind {
	case download.EventQueueStarted:
		return loc.GetText(KeyDownloadStart, map[string]any{"count": ev.Count})
	case download.EventItemStarted:
		return loc.GetText(KeyDownloadStartSingle, map[string]any{"index": ev.Index, "url": ev.URL})
	case download.EventProgress:
		speed := ev.Progress.Speed
		if speed == "" {
			speed = DashPlaceholder
		}
		return loc.GetText(KeyDownloadProgress, map[string]any{
			"percent": fmt.Sprintf(PercentFormat, ev.Progress.Percent),
			"speed":   speed,
			"eta":     download.FormatETA(ev.Progress.ETA),
		})
	case download.EventItemCompleted:
		name := ev.Filename
		if name == "" {
			name = ev.URL
		}
		return loc.GetText(KeyDownloadCompleted, map[string]any{"filename": name})
	case download.EventExtraApplied:
		return loc.GetText(KeyExtraParamsApplied, map[string]any{"params": strings.Join(params.Args(ev.Params), " ")})
	case download.EventExtraError:
		return loc.GetText(KeyExtraParamsError, map[string]any{"error": ev.Err})
	case download.EventItemFailed:
		return loc.GetText(KeyDownloadError, map[string]any{"error": ev.Err})
	case download.EventStopped:
		return loc.GetText(KeyDownloadStopped, nil)
	case download.EventQueueFinished:
		return loc.GetText(KeyDownloadAllFinished, map[string]any{"completed": ev.Completed, "failed": ev.Failed})
	}
	return ev.Kind.String()
}

func (ui *RootUI) appendLog(line string) {
	ui.logLines = append(ui.logLines, line)
	if over := len(ui.logLines) - MaxLogLines; over > 0 {
		ui.logLines = slices.Delete(ui.logLines, 0, over)
	}
	ui.logLabel.SetText(strings.Join(ui.logLines, "\n"))
	ui.logScroll.ScrollToBottom()
}

func (ui *RootUI) clearLog() {
	ui.logLines = nil
	ui.logLabel.SetText("")
}

func modeNames() []string {
	names := make([]string, len(download.Modes))
	for i, m := range download.Modes {
		names[i] = string(m)
	}
	return names
}

func modeIndex(m download.Mode) int {
	if i := slices.Index(download.Modes, m); i >= 0 {
		return i
	}
	return 0
}

type disableable interface {
	Enable()
	Disable()
}

func setEnabled(w disableable, on bool) {
	if on {
		w.Enable()
	} else {
		w.Disable()
	}
}
