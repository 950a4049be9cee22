package download

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ytget/yt-batch/internal/model"
	"github.com/ytget/yt-batch/internal/platform"
)

var (
	// ErrAlreadyRunning is returned by Start while a batch is in progress.
	ErrAlreadyRunning = errors.New("a download batch is already running")
	// ErrNoURLs is returned by Start when no URL was given.
	ErrNoURLs = errors.New("no URLs to download")
	// ErrNoOutputDir is returned by Start when the save path is empty.
	ErrNoOutputDir = errors.New("no save path")
)

// Service runs one batch at a time on a single background worker. URLs are
// processed in order; a failed URL is logged and the worker moves on.
type Service struct {
	runner   Runner
	expander Expander
	logger   *zap.Logger

	mu       sync.RWMutex
	tasks    []*model.DownloadTask
	cancel   context.CancelFunc
	done     chan struct{}
	onEvent  func(Event)
	onUpdate func(*model.DownloadTask) // callback for UI updates

	now func() time.Time
}

// NewService creates a service that downloads through runner.
func NewService(runner Runner, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		runner: runner,
		logger: logger,
		now:    time.Now,
	}
}

// SetExpander sets the playlist expander used when Options.ExpandPlaylists
// is set.
func (s *Service) SetExpander(e Expander) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expander = e
}

// SetEventCallback sets the callback receiving log events. It is called from
// the worker goroutine.
func (s *Service) SetEventCallback(callback func(Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onEvent = callback
}

// SetUpdateCallback sets the callback receiving task snapshots.
func (s *Service) SetUpdateCallback(callback func(*model.DownloadTask)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onUpdate = callback
}

// Running reports whether a batch is in progress.
func (s *Service) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.runningLocked()
}

func (s *Service) runningLocked() bool {
	if s.done == nil {
		return false
	}
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}

// Tasks returns snapshots of the current batch in order.
func (s *Service) Tasks() []*model.DownloadTask {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.DownloadTask, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, t.Clone())
	}
	return out
}

// Start validates the batch and starts the worker. Blank URLs are dropped.
func (s *Service) Start(opts Options, urls []string) error {
	cleaned := make([]string, 0, len(urls))
	for _, u := range urls {
		if u = strings.TrimSpace(u); u != "" {
			cleaned = append(cleaned, u)
		}
	}
	if len(cleaned) == 0 {
		return ErrNoURLs
	}
	if strings.TrimSpace(opts.OutputDir) == "" {
		return ErrNoOutputDir
	}
	if opts.Mode == "" {
		opts.Mode = ModeCombined
	}
	if _, err := ParseMode(string(opts.Mode)); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.runningLocked() {
		return ErrAlreadyRunning
	}
	if err := platform.CreateDirectoryIfNotExists(opts.OutputDir); err != nil {
		return fmt.Errorf("create save path: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	s.tasks = nil

	go s.run(ctx, opts, cleaned, s.done)
	return nil
}

// Stop cancels the running batch and waits for the worker to exit. The
// yt-dlp process of the current URL is killed. Stop must not be called from
// inside a callback.
func (s *Service) Stop() {
	s.mu.RLock()
	cancel, done := s.cancel, s.done
	s.mu.RUnlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (s *Service) run(ctx context.Context, opts Options, urls []string, done chan struct{}) {
	defer close(done)

	s.mu.RLock()
	expander := s.expander
	s.mu.RUnlock()
	if opts.ExpandPlaylists && expander != nil {
		urls = expander.Expand(ctx, urls)
	}

	s.mu.Lock()
	for i, u := range urls {
		s.tasks = append(s.tasks, model.NewDownloadTask(i+1, u))
	}
	tasks := s.tasks
	s.mu.Unlock()

	s.logger.Info("download batch started", zap.Int("count", len(urls)), zap.String("mode", string(opts.Mode)))
	s.emit(Event{Kind: EventQueueStarted, Count: len(urls)})

	completed, failed := 0, 0
loop:
	for _, task := range tasks {
		status := model.TaskStatusStopped
		if ctx.Err() == nil {
			status = s.runItem(ctx, opts, task)
		}
		switch status {
		case model.TaskStatusCompleted:
			completed++
		case model.TaskStatusError:
			failed++
		case model.TaskStatusStopped:
			s.stopRemaining(tasks)
			s.logger.Info("download batch stopped")
			s.emit(Event{Kind: EventStopped})
			break loop
		}
	}

	s.logger.Info("download batch finished", zap.Int("completed", completed), zap.Int("failed", failed))
	s.emit(Event{Kind: EventQueueFinished, Completed: completed, Failed: failed})
}

// runItem downloads one URL and returns the final task status.
func (s *Service) runItem(ctx context.Context, opts Options, task *model.DownloadTask) model.TaskStatus {
	s.setStatus(task, model.TaskStatusStarting, nil)
	s.emit(Event{Kind: EventItemStarted, Index: task.Index, URL: task.URL})

	req, err := BuildRequest(opts, task.URL)
	switch {
	case errors.Is(err, ErrExtraParams):
		s.emit(Event{Kind: EventExtraError, Index: task.Index, URL: task.URL, Err: err})
	case err != nil:
		return s.fail(task, err)
	case len(req.Extras) > 0:
		s.emit(Event{Kind: EventExtraApplied, Index: task.Index, URL: task.URL, Params: req.Extras})
	}

	s.setStatus(task, model.TaskStatusDownloading, nil)

	res, err := s.runner.Run(ctx, req, func(p Progress) {
		if ctx.Err() != nil {
			return
		}
		s.setStatus(task, "", func(t *model.DownloadTask) {
			t.Percent = p.Percent
			t.Speed = p.Speed
			t.ETASec = -1
			if p.ETA > 0 {
				t.ETASec = int(p.ETA.Seconds())
			}
			if p.Filename != "" {
				t.OutputPath = p.Filename
			}
		})
		s.emit(Event{Kind: EventProgress, Index: task.Index, URL: task.URL, Progress: p})
	})

	if ctx.Err() != nil {
		s.setStatus(task, model.TaskStatusStopping, nil)
		s.setStatus(task, model.TaskStatusStopped, nil)
		s.logger.Info("download stopped", zap.String("url", task.URL))
		return model.TaskStatusStopped
	}
	if err != nil {
		return s.fail(task, err)
	}

	var filename string
	s.setStatus(task, model.TaskStatusCompleted, func(t *model.DownloadTask) {
		if res.Filename != "" {
			t.OutputPath = res.Filename
		}
		filename = t.OutputPath
	})
	s.logger.Info("download completed", zap.String("url", task.URL), zap.String("file", filename))
	s.emit(Event{Kind: EventItemCompleted, Index: task.Index, URL: task.URL, Filename: filename})
	return model.TaskStatusCompleted
}

func (s *Service) fail(task *model.DownloadTask, err error) model.TaskStatus {
	s.setStatus(task, model.TaskStatusError, func(t *model.DownloadTask) {
		t.LastError = err.Error()
	})
	s.logger.Warn("download failed", zap.String("url", task.URL), zap.Error(err))
	s.emit(Event{Kind: EventItemFailed, Index: task.Index, URL: task.URL, Err: err})
	return model.TaskStatusError
}

// stopRemaining marks every task that never ran as stopped.
func (s *Service) stopRemaining(tasks []*model.DownloadTask) {
	for _, t := range tasks {
		s.mu.RLock()
		pending := t.Status == model.TaskStatusPending
		s.mu.RUnlock()
		if pending {
			s.setStatus(t, model.TaskStatusStopped, nil)
		}
	}
}

// setStatus applies next (when non-empty) and mutate under the lock, then
// publishes a snapshot. Disallowed transitions are ignored.
func (s *Service) setStatus(task *model.DownloadTask, next model.TaskStatus, mutate func(*model.DownloadTask)) {
	s.mu.Lock()
	if next != "" && !task.SetStatus(next, s.now()) {
		s.mu.Unlock()
		return
	}
	if mutate != nil {
		mutate(task)
	}
	snapshot := task.Clone()
	callback := s.onUpdate
	s.mu.Unlock()

	if callback != nil {
		callback(snapshot)
	}
}

func (s *Service) emit(ev Event) {
	s.mu.RLock()
	callback := s.onEvent
	s.mu.RUnlock()
	if callback != nil {
		callback(ev)
	}
}
