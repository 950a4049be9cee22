package download

import (
	"context"

	"github.com/ytget/yt-batch/internal/model"
)

// Downloader is the batch download service used by the UI.
type Downloader interface {
	// Start validates the batch and runs it in the background.
	Start(opts Options, urls []string) error
	// Stop cancels the running batch and waits for the worker to exit.
	Stop()
	Running() bool
	Tasks() []*model.DownloadTask
	SetEventCallback(func(Event))
	SetUpdateCallback(func(*model.DownloadTask))
}

// Expander rewrites the URL list before a batch starts.
type Expander interface {
	Expand(ctx context.Context, urls []string) []string
}
