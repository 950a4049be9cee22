package platform

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ytget/ytdlp/v2"
	"go.uber.org/zap"
)

// Timeout constants
const (
	DefaultParseTimeout = 60 * time.Second
)

// URL parameters and separators
const (
	PlaylistParam  = "list="
	ParamSeparator = "&"
)

// URL templates
const (
	YouTubeVideoURLTemplate = "https://www.youtube.com/watch?v=%s"
)

// PlaylistEntry is one video of a playlist.
type PlaylistEntry struct {
	VideoID string
	Title   string
}

// URL returns the watch URL of the entry.
func (e PlaylistEntry) URL() string {
	return fmt.Sprintf(YouTubeVideoURLTemplate, e.VideoID)
}

// PlaylistLister fetches the entries of a playlist by ID.
type PlaylistLister interface {
	ListPlaylist(ctx context.Context, playlistID string) ([]PlaylistEntry, error)
}

// YTDLPLister lists playlists through the ytdlp library.
type YTDLPLister struct{}

// ListPlaylist implements PlaylistLister.
func (YTDLPLister) ListPlaylist(ctx context.Context, playlistID string) ([]PlaylistEntry, error) {
	d := ytdlp.New()
	items, err := d.GetPlaylistItemsAll(ctx, playlistID, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to get playlist items: %w", err)
	}
	entries := make([]PlaylistEntry, 0, len(items))
	for _, it := range items {
		if it.VideoID == "" {
			continue
		}
		entries = append(entries, PlaylistEntry{VideoID: it.VideoID, Title: it.Title})
	}
	return entries, nil
}

// PlaylistExpander replaces playlist URLs in a batch with their video URLs.
type PlaylistExpander struct {
	lister  PlaylistLister
	timeout time.Duration
	logger  *zap.Logger
}

// NewPlaylistExpander creates an expander. A nil lister uses YTDLPLister.
func NewPlaylistExpander(lister PlaylistLister, logger *zap.Logger) *PlaylistExpander {
	if lister == nil {
		lister = YTDLPLister{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PlaylistExpander{
		lister:  lister,
		timeout: DefaultParseTimeout,
		logger:  logger,
	}
}

// SetTimeout sets the per-playlist listing timeout
func (p *PlaylistExpander) SetTimeout(timeout time.Duration) {
	p.timeout = timeout
}

// Expand returns urls with every playlist URL replaced by its videos, order
// preserved. A playlist that cannot be listed stays as-is so the downloader
// can still handle it.
func (p *PlaylistExpander) Expand(ctx context.Context, urls []string) []string {
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		id := ExtractPlaylistID(u)
		if id == "" {
			out = append(out, u)
			continue
		}

		listCtx, cancel := context.WithTimeout(ctx, p.timeout)
		entries, err := p.lister.ListPlaylist(listCtx, id)
		cancel()
		if err != nil || len(entries) == 0 {
			p.logger.Warn("playlist expansion failed, keeping URL",
				zap.String("url", u), zap.String("playlist", id), zap.Error(err))
			out = append(out, u)
			continue
		}

		p.logger.Debug("expanded playlist", zap.String("playlist", id), zap.Int("videos", len(entries)))
		for _, e := range entries {
			out = append(out, e.URL())
		}
	}
	return out
}

// IsPlaylistURL checks if the URL carries a playlist parameter
func IsPlaylistURL(url string) bool {
	return ExtractPlaylistID(url) != ""
}

// ExtractPlaylistID extracts the playlist ID from various URL formats
func ExtractPlaylistID(url string) string {
	if !strings.Contains(url, PlaylistParam) {
		return ""
	}
	parts := strings.SplitN(url, PlaylistParam, 2)
	playlistPart := parts[1]
	if i := strings.Index(playlistPart, ParamSeparator); i >= 0 {
		playlistPart = playlistPart[:i]
	}
	return playlistPart
}
