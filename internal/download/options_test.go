package download

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ytget/yt-batch/internal/config"
)

const testURL = "https://www.youtube.com/watch?v=dQw4w9WgXcQ"

func TestBuildRequestModes(t *testing.T) {
	dir := filepath.Join("srv", "media")
	tests := []struct {
		name string
		opts Options
		want Request
	}{
		{
			name: "combined auto",
			opts: Options{OutputDir: dir, Mode: ModeCombined, Format: "mkv", VideoQuality: "Auto", AudioQuality: "Auto"},
			want: Request{
				Format:      "bestvideo+bestaudio/best",
				MergeFormat: "mkv",
				Output:      filepath.Join(dir, "%(title)s.%(ext)s"),
			},
		},
		{
			name: "combined presets",
			opts: Options{OutputDir: dir, Mode: ModeCombined, VideoQuality: "1080p", AudioQuality: "128 kbps"},
			want: Request{
				Format:      "bestvideo[height<=1080]+bestaudio[abr<=128]/best",
				MergeFormat: "mp4",
				Output:      filepath.Join(dir, "%(title)s.%(ext)s"),
			},
		},
		{
			name: "video only custom selector",
			opts: Options{OutputDir: dir, Prefix: "2024_", Mode: ModeVideo, Format: "webm", VideoQuality: "bv*[vcodec^=vp9]"},
			want: Request{
				Format:      "bv*[vcodec^=vp9]",
				MergeFormat: "webm",
				Output:      filepath.Join(dir, "2024_%(title)s.webm"),
			},
		},
		{
			name: "video only default",
			opts: Options{OutputDir: dir, Mode: ModeVideo},
			want: Request{
				Format:      "bestvideo",
				MergeFormat: "mp4",
				Output:      filepath.Join(dir, "%(title)s.mp4"),
			},
		},
		{
			name: "audio only",
			opts: Options{OutputDir: dir, Mode: ModeAudio, Format: "flac", AudioQuality: "320 kbps"},
			want: Request{
				Format:       "bestaudio/best",
				ExtractAudio: true,
				AudioFormat:  "flac",
				AudioQuality: "320",
				Output:       filepath.Join(dir, "%(title)s.flac"),
			},
		},
		{
			name: "audio only default quality",
			opts: Options{OutputDir: dir, Mode: ModeAudio, Format: "mp3"},
			want: Request{
				Format:       "bestaudio/best",
				ExtractAudio: true,
				AudioFormat:  "mp3",
				AudioQuality: "192",
				Output:       filepath.Join(dir, "%(title)s.mp3"),
			},
		},
		{
			name: "subtitles",
			opts: Options{OutputDir: dir, Mode: ModeSubtitles, Format: "ignored"},
			want: Request{
				SkipDownload: true,
				WriteSubs:    true,
				SubLangs:     "all",
				Output:       filepath.Join(dir, "%(title)s.%(ext)s"),
			},
		},
		{
			name: "proxy and ffmpeg",
			opts: Options{OutputDir: dir, Mode: ModeVideo, Proxy: " socks5://127.0.0.1:1080 ", FFmpegPath: "/usr/bin/ffmpeg"},
			want: Request{
				Format:         "bestvideo",
				MergeFormat:    "mp4",
				Output:         filepath.Join(dir, "%(title)s.mp4"),
				Proxy:          "socks5://127.0.0.1:1080",
				FFmpegLocation: "/usr/bin/ffmpeg",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildRequest(tt.opts, testURL)
			require.NoError(t, err)
			tt.want.URL = testURL
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildRequestUnknownMode(t *testing.T) {
	_, err := BuildRequest(Options{Mode: "karaoke"}, testURL)
	assert.ErrorIs(t, err, ErrUnknownMode)
}

func TestBuildRequestExtraParams(t *testing.T) {
	opts := Options{
		OutputDir:   "out",
		Mode:        ModeCombined,
		ExtraParams: "--no-playlist  --embed-subs\t-f best --proxy=http://h:3128 --retries 5",
	}
	req, err := BuildRequest(opts, testURL)
	require.NoError(t, err)

	assert.Equal(t, "best", req.Format)
	assert.Equal(t, "http://h:3128", req.Proxy)
	assert.Equal(t, []string{"--embed-subs", "--no-playlist", "--retries", "5"}, req.Passthrough)
	assert.Equal(t, map[string]string{
		"no-playlist": "", "embed-subs": "", "f": "best", "proxy": "http://h:3128", "retries": "5",
	}, req.Extras)
}

func TestBuildRequestExtraParamsSwitchesOverride(t *testing.T) {
	req, err := BuildRequest(Options{OutputDir: "out", Mode: ModeVideo, ExtraParams: "-x --audio-format opus"}, testURL)
	require.NoError(t, err)
	assert.True(t, req.ExtractAudio)
	assert.Equal(t, "opus", req.AudioFormat)
	assert.Empty(t, req.Passthrough)
}

func TestBuildRequestMalformedExtraParamsIgnored(t *testing.T) {
	req, err := BuildRequest(Options{OutputDir: "out", Mode: ModeVideo, ExtraParams: "just some words"}, testURL)
	require.NoError(t, err)
	assert.Empty(t, req.Extras)
	assert.Empty(t, req.Passthrough)
	assert.Equal(t, "bestvideo", req.Format)
}

func TestBuildRequestBadExtraValue(t *testing.T) {
	req, err := BuildRequest(Options{OutputDir: "out", Mode: ModeVideo, ExtraParams: "--skip-download=maybe --sub-langs en"}, testURL)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrExtraParams))
	assert.Equal(t, "en", req.SubLangs, "valid extras are still applied")
	assert.Equal(t, "bestvideo", req.Format)
}

func TestBuildRequestBadExtraValueKeepsModeSettings(t *testing.T) {
	tests := []struct {
		name  string
		mode  Mode
		extra string
		check func(t *testing.T, req Request)
	}{
		{"subtitles skip download", ModeSubtitles, "--skip-download=nope", func(t *testing.T, req Request) {
			assert.True(t, req.SkipDownload)
			assert.True(t, req.WriteSubs)
		}},
		{"audio extraction", ModeAudio, "--extract-audio=yes", func(t *testing.T, req Request) {
			assert.True(t, req.ExtractAudio)
			assert.Equal(t, "mp3", req.AudioFormat)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := BuildRequest(Options{OutputDir: "out", Mode: tt.mode, ExtraParams: tt.extra}, testURL)
			require.ErrorIs(t, err, ErrExtraParams)
			tt.check(t, req)
		})
	}
}

func TestModeFormats(t *testing.T) {
	assert.Equal(t, []string{"mp4", "mkv", "webm"}, ModeCombined.Formats())
	assert.Equal(t, []string{"mp4", "webm", "mkv", "flv"}, ModeVideo.Formats())
	assert.Equal(t, []string{"mp3", "wav", "aac", "flac", "opus"}, ModeAudio.Formats())
	assert.Empty(t, ModeSubtitles.Formats())

	assert.True(t, ModeCombined.UsesVideoQuality())
	assert.True(t, ModeCombined.UsesAudioQuality())
	assert.False(t, ModeAudio.UsesVideoQuality())
	assert.False(t, ModeVideo.UsesAudioQuality())
	assert.False(t, ModeSubtitles.UsesAudioQuality())
}

func TestParseMode(t *testing.T) {
	for _, m := range Modes {
		got, err := ParseMode(string(m))
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
	_, err := ParseMode("Video + Audio")
	assert.ErrorIs(t, err, ErrUnknownMode)
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.Config{
		Path:               "/dl",
		Prefix:             "p_",
		DownloadType:       config.DownloadAudio,
		VideoFormat:        "mkv",
		AudioFormat:        "opus",
		VideoQuality:       "720p",
		AudioQuality:       "Auto",
		AudioQualityCustom: "5",
		Proxy:              "http://proxy",
		FFmpegPath:         "ffmpeg",
		ExtraParams:        "--no-playlist",
		ExpandPlaylists:    true,
	}
	opts := OptionsFromConfig(cfg)
	assert.Equal(t, Options{
		OutputDir:       "/dl",
		Prefix:          "p_",
		Mode:            ModeAudio,
		Format:          "opus",
		VideoQuality:    "720p",
		AudioQuality:    "5",
		Proxy:           "http://proxy",
		FFmpegPath:      "ffmpeg",
		ExtraParams:     "--no-playlist",
		ExpandPlaylists: true,
	}, opts)

	cfg.DownloadType = "bogus"
	opts = OptionsFromConfig(cfg)
	assert.Equal(t, ModeCombined, opts.Mode)
	assert.Equal(t, "mkv", opts.Format)

	cfg.DownloadType = config.DownloadSubtitles
	assert.Empty(t, OptionsFromConfig(cfg).Format)
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "-", FormatSpeed(0))
	assert.Equal(t, "1.5 MB/s", FormatSpeed(1_500_000))
	assert.Equal(t, "-", FormatETA(0))
	assert.Equal(t, "01:05", FormatETA(65*time.Second))
	assert.Equal(t, "01:00:01", FormatETA(time.Hour+time.Second))
}
