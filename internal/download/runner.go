package download

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/lrstanley/go-ytdlp"
	"go.uber.org/zap"
)

// ProgressInterval is how often yt-dlp progress is reported.
const ProgressInterval = 500 * time.Millisecond

// Progress is one progress report for the running URL.
type Progress struct {
	Percent  float64 // 0 to 100, 0 when the size is unknown
	Speed    string
	ETA      time.Duration // 0 when unknown
	Filename string
	Finished bool
}

// Result describes a finished download.
type Result struct {
	Filename string
}

// Runner executes one resolved request. onProgress may be called from
// another goroutine while Run is blocked.
type Runner interface {
	Run(ctx context.Context, req Request, onProgress func(Progress)) (Result, error)
}

// YTDLPRunner runs requests through the yt-dlp binary via go-ytdlp.
type YTDLPRunner struct {
	logger *zap.Logger

	// AutoInstall downloads yt-dlp into the cache when it is not on PATH.
	AutoInstall bool

	installOnce sync.Once
	installErr  error
}

// NewYTDLPRunner creates a runner that installs yt-dlp on first use.
func NewYTDLPRunner(logger *zap.Logger) *YTDLPRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &YTDLPRunner{logger: logger, AutoInstall: true}
}

func (r *YTDLPRunner) ensureInstalled(ctx context.Context) error {
	if !r.AutoInstall {
		return nil
	}
	r.installOnce.Do(func() {
		if _, err := ytdlp.Install(ctx, nil); err != nil {
			r.installErr = fmt.Errorf("install yt-dlp: %w", err)
		}
	})
	return r.installErr
}

// Run implements Runner.
func (r *YTDLPRunner) Run(ctx context.Context, req Request, onProgress func(Progress)) (Result, error) {
	if err := r.ensureInstalled(ctx); err != nil {
		return Result{}, err
	}

	dl := command(req)

	var (
		mu       sync.Mutex
		filename string
	)
	dl.ProgressFunc(ProgressInterval, func(update ytdlp.ProgressUpdate) {
		p := progressFrom(update)
		if p.Filename != "" {
			mu.Lock()
			filename = p.Filename
			mu.Unlock()
		}
		if onProgress != nil {
			onProgress(p)
		}
	})

	args := append(append([]string(nil), req.Passthrough...), req.URL)
	r.logger.Debug("running yt-dlp", zap.String("url", req.URL), zap.Strings("extra", req.Passthrough))

	res, err := dl.Run(ctx, args...)
	if err != nil {
		return Result{}, err
	}

	out := Result{}
	mu.Lock()
	out.Filename = filename
	mu.Unlock()
	if res != nil {
		if info, err := res.GetExtractedInfo(); err == nil && len(info) > 0 && info[0].Filename != nil {
			out.Filename = *info[0].Filename
		}
	}
	return out, nil
}

// command maps the request fields onto the go-ytdlp builder. Every non-empty
// field is passed on, so options supplied through extra parameters reach
// yt-dlp whatever the mode.
func command(req Request) *ytdlp.Command {
	dl := ytdlp.New().Output(req.Output)
	if req.Format != "" {
		dl = dl.Format(req.Format)
	}
	if req.MergeFormat != "" {
		dl = dl.MergeOutputFormat(req.MergeFormat)
	}
	if req.ExtractAudio {
		dl = dl.ExtractAudio()
	}
	if req.AudioFormat != "" {
		dl = dl.AudioFormat(req.AudioFormat)
	}
	if req.AudioQuality != "" {
		dl = dl.AudioQuality(req.AudioQuality)
	}
	if req.SkipDownload {
		dl = dl.SkipDownload()
	}
	if req.WriteSubs {
		dl = dl.WriteSubs()
	}
	if req.SubLangs != "" {
		dl = dl.SubLangs(req.SubLangs)
	}
	if req.Proxy != "" {
		dl = dl.Proxy(req.Proxy)
	}
	if req.FFmpegLocation != "" {
		dl = dl.FFmpegLocation(req.FFmpegLocation)
	}
	return dl
}

func progressFrom(update ytdlp.ProgressUpdate) Progress {
	p := Progress{
		Filename: update.Filename,
		Finished: update.Status == ytdlp.ProgressStatusFinished,
		ETA:      update.ETA(),
	}
	if update.TotalBytes > 0 {
		p.Percent = float64(update.DownloadedBytes) / float64(update.TotalBytes) * 100
	}
	if !update.Started.IsZero() {
		if elapsed := time.Since(update.Started).Seconds(); elapsed > 0 {
			p.Speed = FormatSpeed(float64(update.DownloadedBytes) / elapsed)
		}
	}
	if p.Finished {
		p.Percent = 100
	}
	return p
}

// FormatSpeed renders bytes per second, e.g. "1.2 MB/s".
func FormatSpeed(bytesPerSecond float64) string {
	if bytesPerSecond <= 0 {
		return "-"
	}
	return humanize.Bytes(uint64(bytesPerSecond)) + "/s"
}

// FormatETA renders d as mm:ss or hh:mm:ss, "-" when unknown.
func FormatETA(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	s := int(d.Round(time.Second).Seconds())
	if h := s / 3600; h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, (s%3600)/60, s%60)
	}
	return fmt.Sprintf("%02d:%02d", s/60, s%60)
}
