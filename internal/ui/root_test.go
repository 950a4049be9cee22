package ui

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ytget/yt-batch/internal/config"
	"github.com/ytget/yt-batch/internal/download"
	"github.com/ytget/yt-batch/internal/locale"
	"github.com/ytget/yt-batch/internal/model"
)

type fakeDownloader struct {
	mu       sync.Mutex
	startErr error
	opts     download.Options
	urls     []string
	stopped  int
	onEvent  func(download.Event)
	onUpdate func(*model.DownloadTask)
}

func (f *fakeDownloader) Start(opts download.Options, urls []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opts, f.urls = opts, urls
	return f.startErr
}

func (f *fakeDownloader) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped++
}

func (f *fakeDownloader) Running() bool                            { return false }
func (f *fakeDownloader) Tasks() []*model.DownloadTask             { return nil }
func (f *fakeDownloader) SetEventCallback(fn func(download.Event)) { f.onEvent = fn }
func (f *fakeDownloader) SetUpdateCallback(fn func(*model.DownloadTask)) {
	f.onUpdate = fn
}

const frenchLocale = `{
    "language_name": "Français",
    "language_simple": "fr",
    "download_button": "Démarrer",
    "download_types": ["Vidéo + audio", "Vidéo seule", "Audio seul", "Sous-titres"],
    "video_qualities": ["Automatique"],
    "error_no_url_path": "URL et chemin requis"
}`

func newTestUI(t *testing.T, cfg config.Config) (*RootUI, *fakeDownloader, *config.Store) {
	t.Helper()
	a := test.NewApp()
	t.Cleanup(a.Quit)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "language_fr.json"), []byte(frenchLocale), 0o644))
	catalog, err := locale.LoadDir(dir)
	require.NoError(t, err)

	store := config.NewStore(filepath.Join(t.TempDir(), "config.json"), cfg)
	fake := &fakeDownloader{}
	w := a.NewWindow("")
	ui := NewRootUI(a, w, store, fake, NewLocalization(catalog, cfg.Language), nil)
	return ui, fake, store
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Path = "/media/videos"
	return cfg
}

func TestNewRootUILoadsConfig(t *testing.T) {
	cfg := testConfig()
	cfg.DownloadType = config.DownloadAudio
	cfg.AudioFormat = "opus"
	cfg.AudioQualityCustom = "5"
	cfg.Prefix = "pre_"
	cfg.ExpandPlaylists = true

	ui, fake, _ := newTestUI(t, cfg)

	assert.Equal(t, "/media/videos", ui.pathEntry.Text)
	assert.Equal(t, "pre_", ui.prefixEntry.Text)
	assert.True(t, ui.expandCheck.Checked)
	assert.Equal(t, "Audio Only", ui.typeSelect.Selected)
	assert.Equal(t, "opus", ui.formatSelect.Selected)
	assert.Equal(t, "5", ui.audioQuality.Text)
	assert.True(t, ui.videoQuality.Disabled())
	assert.False(t, ui.audioQuality.Disabled())
	assert.Equal(t, "English", ui.languageSelect.Selected)
	assert.Equal(t, "YT-DLP Visual Batch Downloader", ui.window.Title())
	assert.NotNil(t, fake.onEvent)
	assert.NotNil(t, fake.onUpdate)
}

func TestFieldChangesArePersisted(t *testing.T) {
	ui, _, store := newTestUI(t, testConfig())

	ui.pathEntry.SetText(" /srv/out ")
	ui.proxyEntry.SetText("http://127.0.0.1:7890")
	ui.extraEntry.SetText("--no-playlist")
	ui.expandCheck.SetChecked(true)

	got := store.Get()
	assert.Equal(t, "/srv/out", got.Path)
	assert.Equal(t, "http://127.0.0.1:7890", got.Proxy)
	assert.Equal(t, "--no-playlist", got.ExtraParams)
	assert.True(t, got.ExpandPlaylists)

	onDisk, err := config.Load(store.Path())
	require.NoError(t, err)
	assert.Equal(t, got, onDisk)
}

func TestTypeChangeSwitchesFormats(t *testing.T) {
	ui, _, store := newTestUI(t, testConfig())

	ui.typeSelect.SetSelectedIndex(3)
	assert.Equal(t, config.DownloadSubtitles, store.Get().DownloadType)
	assert.True(t, ui.formatSelect.Disabled())
	assert.Equal(t, "None", ui.formatSelect.Selected)
	assert.True(t, ui.videoQuality.Disabled())
	assert.True(t, ui.audioQuality.Disabled())

	ui.typeSelect.SetSelectedIndex(1)
	assert.Equal(t, config.DownloadVideo, store.Get().DownloadType)
	assert.False(t, ui.formatSelect.Disabled())
	assert.Equal(t, download.VideoFormats, ui.formatSelect.Options)

	ui.formatSelect.SetSelected("flv")
	assert.Equal(t, "flv", store.Get().VideoFormat)

	ui.typeSelect.SetSelectedIndex(0)
	assert.Equal(t, "mp4", ui.formatSelect.Selected, "flv is not a combined container")
}

func TestQualitySelectors(t *testing.T) {
	ui, _, store := newTestUI(t, testConfig())

	ui.videoQuality.SetText("1080p")
	assert.Equal(t, "1080p", store.Get().VideoQuality)
	assert.Empty(t, store.Get().VideoQualityCustom)

	ui.videoQuality.SetText("bv*[height<=1440]")
	assert.Equal(t, "1080p", store.Get().VideoQuality)
	assert.Equal(t, "bv*[height<=1440]", store.Get().VideoQualityCustom)

	ui.audioQuality.SetText("256 kbps")
	assert.Equal(t, "256 kbps", store.Get().AudioQuality)

	opts := download.OptionsFromConfig(store.Get())
	assert.Equal(t, "bv*[height<=1440]", opts.VideoQuality)
}

func TestLanguageSwitchRelabels(t *testing.T) {
	cfg := testConfig()
	cfg.VideoQuality = "Auto"
	ui, _, store := newTestUI(t, cfg)

	ui.languageSelect.SetSelected("Français")

	assert.Equal(t, "fr", store.Get().Language)
	assert.Equal(t, "Démarrer", ui.startBtn.Text)
	assert.Equal(t, "Browse", ui.browseBtn.Text, "missing keys fall back to English")
	assert.Equal(t, "Vidéo + audio", ui.typeSelect.Selected)
	assert.Equal(t, "Automatique", ui.videoQuality.Text)
	assert.Equal(t, "8K", ui.loc.GetList(KeyVideoQualities, download.VideoQualities)[1], "short localized lists are padded")

	ui.videoQuality.SetText("Automatique")
	assert.Equal(t, "Auto", store.Get().VideoQuality)
	assert.Empty(t, store.Get().VideoQualityCustom)
}

func TestSetCatalogKeepsOrResetsLanguage(t *testing.T) {
	cfg := testConfig()
	cfg.Language = "fr"
	ui, _, _ := newTestUI(t, cfg)
	require.Equal(t, "Démarrer", ui.startBtn.Text)

	ui.loc.SetCatalog(locale.Builtin())
	ui.refreshLanguages()
	ui.refreshUITexts()

	assert.Equal(t, "en", ui.loc.GetCurrentLanguage())
	assert.Equal(t, "Start Download", ui.startBtn.Text)
	assert.Equal(t, []string{"English"}, ui.languageSelect.Options)
}

func TestStartReportsValidationErrors(t *testing.T) {
	ui, fake, _ := newTestUI(t, testConfig())

	fake.startErr = download.ErrNoURLs
	ui.onStart()
	assert.Equal(t, []string{"❗ Please provide URL and save path."}, ui.logLines)

	fake.startErr = download.ErrAlreadyRunning
	ui.onStart()
	assert.Equal(t, []string{"❗ A download batch is already running."}, ui.logLines, "the log is cleared on every start")

	fake.startErr = errors.New("disk full")
	ui.onStart()
	assert.Equal(t, []string{"❌ Download error: disk full"}, ui.logLines)
	assert.False(t, ui.startBtn.Disabled())
}

func TestStartSubmitsBatch(t *testing.T) {
	cfg := testConfig()
	cfg.DownloadType = config.DownloadVideo
	cfg.VideoFormat = "webm"
	ui, fake, _ := newTestUI(t, cfg)

	ui.urlEntry.SetText("https://a\n\n  https://b  \n")
	ui.onStart()

	assert.Equal(t, []string{"https://a", "https://b"}, fake.urls)
	assert.Equal(t, download.ModeVideo, fake.opts.Mode)
	assert.Equal(t, "webm", fake.opts.Format)
	assert.Equal(t, "/media/videos", fake.opts.OutputDir)
	assert.True(t, ui.startBtn.Disabled())
	assert.False(t, ui.stopBtn.Disabled())

	ui.setRunning(false)
	assert.False(t, ui.startBtn.Disabled())
	assert.True(t, ui.stopBtn.Disabled())
}

func TestStopDelegatesToService(t *testing.T) {
	ui, fake, _ := newTestUI(t, testConfig())
	ui.setRunning(true)
	ui.onStop()
	assert.True(t, ui.stopBtn.Disabled())
	assert.Eventually(t, func() bool {
		fake.mu.Lock()
		defer fake.mu.Unlock()
		return fake.stopped == 1
	}, time.Second, 10*time.Millisecond)
}

func TestCheckClipboard(t *testing.T) {
	ui, _, _ := newTestUI(t, testConfig())

	ui.app.Clipboard().SetContent("not a url")
	ui.CheckClipboard()
	assert.Empty(t, ui.urlEntry.Text)

	ui.app.Clipboard().SetContent(" https://youtu.be/abc ")
	ui.CheckClipboard()
	ui.CheckClipboard()
	assert.Equal(t, "https://youtu.be/abc", ui.urlEntry.Text)

	ui.app.Clipboard().SetContent("https://youtu.be/def")
	ui.CheckClipboard()
	assert.Equal(t, "https://youtu.be/abc\nhttps://youtu.be/def", ui.urlEntry.Text)
}

func TestURLBoxPullsClipboardOnActivation(t *testing.T) {
	ui, _, _ := newTestUI(t, testConfig())
	test.WidgetRenderer(ui.urlEntry)

	ui.app.Clipboard().SetContent("https://youtu.be/abc")
	ui.urlEntry.FocusGained()
	assert.Equal(t, "https://youtu.be/abc", ui.urlEntry.Text)

	ui.app.Clipboard().SetContent("https://youtu.be/def")
	ui.urlEntry.MouseDown(&desktop.MouseEvent{Button: desktop.MouseButtonPrimary})
	assert.Equal(t, "https://youtu.be/abc\nhttps://youtu.be/def", ui.urlEntry.Text)
}

func TestOpenFolderFailureIsLogged(t *testing.T) {
	ui, _, _ := newTestUI(t, testConfig())
	var opened string
	ui.openFolder = func(dir string) error {
		opened = dir
		return errors.New("no file manager")
	}
	ui.onOpenFolder()
	assert.Equal(t, "/media/videos", opened)
	assert.Equal(t, []string{"❌ Could not open folder: no file manager"}, ui.logLines)
}

func TestFormatEvent(t *testing.T) {
	loc := NewLocalization(locale.Builtin(), "en")
	tests := []struct {
		ev   download.Event
		want string
	}{
		{download.Event{Kind: download.EventQueueStarted, Count: 3}, "🚀 Starting download of 3 videos..."},
		{download.Event{Kind: download.EventItemStarted, Index: 2, URL: "https://x"}, "[2] Starting download: https://x"},
		{
			download.Event{Kind: download.EventProgress, Progress: download.Progress{Percent: 42.25, Speed: "1.2 MB/s", ETA: 75 * time.Second}},
			"⬇ Downloading: 42.2% Speed: 1.2 MB/s ETA: 01:15",
		},
		{download.Event{Kind: download.EventProgress}, "⬇ Downloading: 0.0% Speed: - ETA: -"},
		{download.Event{Kind: download.EventItemCompleted, Filename: "/out/a.mp4"}, "✅ Download completed: /out/a.mp4"},
		{download.Event{Kind: download.EventItemCompleted, URL: "https://x"}, "✅ Download completed: https://x"},
		{
			download.Event{Kind: download.EventExtraApplied, Params: map[string]string{"no-playlist": "", "f": "best"}},
			"Applied extra parameters: -f best --no-playlist",
		},
		{download.Event{Kind: download.EventExtraError, Err: errors.New("bad")}, "❌ Error parsing extra parameters: bad"},
		{download.Event{Kind: download.EventItemFailed, Err: errors.New("403")}, "❌ Download error: 403"},
		{download.Event{Kind: download.EventStopped}, "🛑 Download stopped"},
		{download.Event{Kind: download.EventQueueFinished, Completed: 2, Failed: 1}, "🏁 Finished: 2 completed, 1 failed"},
	}
	for _, tt := range tests {
		t.Run(tt.ev.Kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, formatEvent(loc, tt.ev))
		})
	}
}

func TestAppendLogIsCapped(t *testing.T) {
	ui, _, _ := newTestUI(t, testConfig())
	for i := 0; i < MaxLogLines+5; i++ {
		ui.appendLog("line")
	}
	ui.appendLog("last")
	assert.Len(t, ui.logLines, MaxLogLines)
	assert.True(t, strings.HasSuffix(ui.logLabel.Text, "\nlast"))
}

func TestProgressLabel(t *testing.T) {
	task := model.NewDownloadTask(1, "https://example.com/watch?v=1")
	task.Status = model.TaskStatusDownloading
	task.Percent = 42.5
	task.ETASec = 65
	assert.Equal(t, "https://example.com/watch?v=1  42.5%  01:05", progressLabel(task))

	task.OutputPath = filepath.Join("out", "clip.mp4")
	task.Status = model.TaskStatusCompleted
	task.Percent = 100
	assert.Equal(t, "clip  100.0%", progressLabel(task))
}
