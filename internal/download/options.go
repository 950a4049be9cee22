package download

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"github.com/ytget/yt-batch/internal/config"
	"github.com/ytget/yt-batch/internal/params"
)

// Mode selects what yt-dlp fetches for a URL.
type Mode string

const (
	ModeCombined  Mode = config.DownloadCombined
	ModeVideo     Mode = config.DownloadVideo
	ModeAudio     Mode = config.DownloadAudio
	ModeSubtitles Mode = config.DownloadSubtitles
)

// Modes lists every mode in the order the UI presents them.
var Modes = []Mode{ModeCombined, ModeVideo, ModeAudio, ModeSubtitles}

// Output containers per mode.
var (
	CombinedFormats = []string{"mp4", "mkv", "webm"}
	VideoFormats    = []string{"mp4", "webm", "mkv", "flv"}
	AudioFormats    = []string{"mp3", "wav", "aac", "flac", "opus"}
)

// Quality presets. Anything else typed by the user is used verbatim.
var (
	VideoQualities = []string{"Auto", "8K", "4K", "1080p", "720p", "480p", "360p", "240p"}
	AudioQualities = []string{"Auto", "320 kbps", "256 kbps", "192 kbps", "128 kbps", "96 kbps"}
)

const (
	defaultVideoSelector = "bestvideo"
	defaultAudioSelector = "bestaudio"
	defaultAudioQuality  = "192"
	titleTemplate        = "%(title)s"
	extTemplate          = "%(ext)s"
)

var videoHeights = map[string]int{
	"8K": 4320, "4K": 2160, "1080p": 1080, "720p": 720,
	"480p": 480, "360p": 360, "240p": 240,
}

var (
	// ErrUnknownMode is returned for a download type outside Modes.
	ErrUnknownMode = errors.New("unknown download mode")
	// ErrExtraParams marks a problem with the extra parameters. The request
	// returned alongside it is still usable.
	ErrExtraParams = errors.New("invalid extra parameters")
)

// ParseMode converts a persisted download type into a Mode.
func ParseMode(s string) (Mode, error) {
	for _, m := range Modes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Formats returns the containers offered for m. Subtitles have none.
func (m Mode) Formats() []string {
	switch m {
	case ModeCombined:
		return CombinedFormats
	case ModeVideo:
		return VideoFormats
	case ModeAudio:
		return AudioFormats
	}
	return nil
}

// UsesVideoQuality reports whether the video quality selector applies to m.
func (m Mode) UsesVideoQuality() bool {
	return m == ModeCombined || m == ModeVideo
}

// UsesAudioQuality reports whether the audio quality selector applies to m.
func (m Mode) UsesAudioQuality() bool {
	return m == ModeCombined || m == ModeAudio
}

// Options is the form state for one batch.
type Options struct {
	OutputDir    string
	Prefix       string
	Mode         Mode
	Format       string // container; ignored for subtitles
	VideoQuality string // preset or raw format selector
	AudioQuality string // preset or raw quality
	Proxy        string
	FFmpegPath   string
	ExtraParams  string

	// ExpandPlaylists replaces playlist URLs with their videos before the
	// batch starts.
	ExpandPlaylists bool
}

// OptionsFromConfig maps persisted preferences onto Options. Custom quality
// text wins over the preset selection.
func OptionsFromConfig(cfg config.Config) Options {
	mode, err := ParseMode(cfg.DownloadType)
	if err != nil {
		mode = ModeCombined
	}
	opts := Options{
		OutputDir:    cfg.Path,
		Prefix:       cfg.Prefix,
		Mode:         mode,
		VideoQuality: firstNonEmpty(cfg.VideoQualityCustom, cfg.VideoQuality),
		AudioQuality: firstNonEmpty(cfg.AudioQualityCustom, cfg.AudioQuality),
		Proxy:        cfg.Proxy,
		FFmpegPath:   cfg.FFmpegPath,
		ExtraParams:  cfg.ExtraParams,

		ExpandPlaylists: cfg.ExpandPlaylists,
	}
	if mode == ModeAudio {
		opts.Format = cfg.AudioFormat
	} else if mode != ModeSubtitles {
		opts.Format = cfg.VideoFormat
	}
	return opts
}

// Request is the resolved set of yt-dlp options for one URL.
type Request struct {
	URL            string
	Output         string
	Format         string
	MergeFormat    string
	ExtractAudio   bool
	AudioFormat    string
	AudioQuality   string
	SkipDownload   bool
	WriteSubs      bool
	SubLangs       string
	Proxy          string
	FFmpegLocation string
	// Extras holds the extra parameters that were applied, as parsed.
	Extras map[string]string
	// Passthrough are extra flags with no Request field, handed to yt-dlp as-is.
	Passthrough []string
}

// BuildRequest resolves opts for url. Problems with the extra parameters
// are reported with ErrExtraParams while the rest of the request stays valid.
func BuildRequest(opts Options, url string) (Request, error) {
	mode := opts.Mode
	if mode == "" {
		mode = ModeCombined
	}
	if _, err := ParseMode(string(mode)); err != nil {
		return Request{}, err
	}

	req := Request{
		URL:            url,
		Proxy:          strings.TrimSpace(opts.Proxy),
		FFmpegLocation: strings.TrimSpace(opts.FFmpegPath),
	}
	name := opts.Prefix + titleTemplate

	switch mode {
	case ModeAudio:
		codec := orDefault(opts.Format, AudioFormats[0])
		req.Format = defaultAudioSelector + "/best"
		req.ExtractAudio = true
		req.AudioFormat = codec
		req.AudioQuality = audioQuality(opts.AudioQuality)
		req.Output = filepath.Join(opts.OutputDir, name+"."+codec)
	case ModeVideo:
		container := orDefault(opts.Format, VideoFormats[0])
		req.Format = videoSelector(opts.VideoQuality)
		req.MergeFormat = container
		req.Output = filepath.Join(opts.OutputDir, name+"."+container)
	case ModeCombined:
		req.Format = videoSelector(opts.VideoQuality) + "+" + audioSelector(opts.AudioQuality) + "/best"
		req.MergeFormat = orDefault(opts.Format, CombinedFormats[0])
		req.Output = filepath.Join(opts.OutputDir, name+"."+extTemplate)
	case ModeSubtitles:
		req.SkipDownload = true
		req.WriteSubs = true
		req.SubLangs = "all"
		req.Output = filepath.Join(opts.OutputDir, name+"."+extTemplate)
	}

	if strings.TrimSpace(opts.ExtraParams) == "" {
		return req, nil
	}
	if err := applyExtras(&req, opts.ExtraParams); err != nil {
		return req, err
	}
	return req, nil
}

// applyExtras overlays the extra parameters onto req. Flags that map to a
// Request field are bound; the rest go to Passthrough. Text without any flag
// is ignored.
func applyExtras(req *Request, raw string) error {
	extras := params.Parse(raw)
	if len(extras) == 0 {
		return nil
	}

	fs := pflag.NewFlagSet("extra", pflag.ContinueOnError)
	fs.StringVarP(&req.Format, "format", "f", req.Format, "")
	fs.StringVarP(&req.Output, "output", "o", req.Output, "")
	fs.StringVar(&req.MergeFormat, "merge-output-format", req.MergeFormat, "")
	fs.BoolVarP(&req.ExtractAudio, "extract-audio", "x", req.ExtractAudio, "")
	fs.StringVar(&req.AudioFormat, "audio-format", req.AudioFormat, "")
	fs.StringVar(&req.AudioQuality, "audio-quality", req.AudioQuality, "")
	fs.BoolVar(&req.SkipDownload, "skip-download", req.SkipDownload, "")
	fs.BoolVar(&req.WriteSubs, "write-subs", req.WriteSubs, "")
	fs.StringVar(&req.SubLangs, "sub-langs", req.SubLangs, "")
	fs.StringVar(&req.Proxy, "proxy", req.Proxy, "")
	fs.StringVar(&req.FFmpegLocation, "ffmpeg-location", req.FFmpegLocation, "")

	rest, err := params.Bind(fs, extras)
	req.Extras = extras
	req.Passthrough = params.Args(rest)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExtraParams, err)
	}
	return nil
}

func videoSelector(quality string) string {
	q := strings.TrimSpace(quality)
	if q == "" || q == VideoQualities[0] {
		return defaultVideoSelector
	}
	if h, ok := videoHeights[q]; ok {
		return fmt.Sprintf("%s[height<=%d]", defaultVideoSelector, h)
	}
	return q
}

func audioSelector(quality string) string {
	q := strings.TrimSpace(quality)
	if q == "" || q == AudioQualities[0] {
		return defaultAudioSelector
	}
	if kbps, ok := presetKbps(q); ok {
		return fmt.Sprintf("%s[abr<=%d]", defaultAudioSelector, kbps)
	}
	return q
}

// audioQuality is the post-processor quality: kbps for presets, raw text
// otherwise, 192 when unset.
func audioQuality(quality string) string {
	q := strings.TrimSpace(quality)
	if q == "" || q == AudioQualities[0] {
		return defaultAudioQuality
	}
	if kbps, ok := presetKbps(q); ok {
		return strconv.Itoa(kbps)
	}
	return q
}

func presetKbps(q string) (int, bool) {
	num, ok := strings.CutSuffix(q, " kbps")
	if !ok {
		return 0, false
	}
	kbps, err := strconv.Atoi(num)
	if err != nil || kbps <= 0 {
		return 0, false
	}
	return kbps, true
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return def
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
