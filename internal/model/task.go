package model

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TaskIDPrefix prefixes every generated task ID.
const TaskIDPrefix = "task-"

// DownloadTask is the state of one URL in a batch.
type DownloadTask struct {
	ID         string
	Index      int // 1-based position in the batch
	URL        string
	Status     TaskStatus
	Percent    float64 // 0 to 100
	Speed      string  // human readable speed (e.g., "1.2 MB/s")
	ETASec     int     // ETA in seconds, -1 if unknown
	LastError  string
	OutputPath string
	StartedAt  time.Time
	FinishedAt time.Time
}

// NewDownloadTask creates a pending task for url at position index.
func NewDownloadTask(index int, url string) *DownloadTask {
	return &DownloadTask{
		ID:     GenerateTaskID(),
		Index:  index,
		URL:    url,
		Status: TaskStatusPending,
		ETASec: -1,
	}
}

// GenerateTaskID returns "task-" followed by a random UUID.
func GenerateTaskID() string {
	return TaskIDPrefix + uuid.NewString()
}

// SetStatus moves the task to next when the transition is allowed and
// stamps start/finish times. It reports whether the status changed.
func (dt *DownloadTask) SetStatus(next TaskStatus, now time.Time) bool {
	if !dt.Status.CanTransition(next) {
		return false
	}
	if next == TaskStatusStarting {
		dt.StartedAt = now
	}
	if next.IsFinished() {
		dt.FinishedAt = now
		if next == TaskStatusCompleted {
			dt.Percent = 100
			dt.ETASec = -1
		}
	}
	dt.Status = next
	return true
}

// Clone returns a copy safe to hand to other goroutines.
func (dt *DownloadTask) Clone() *DownloadTask {
	c := *dt
	return &c
}

// GetETAString returns ETA formatted as hh:mm:ss, or "-" if unknown
func (dt *DownloadTask) GetETAString() string {
	if dt.ETASec <= 0 {
		return "-"
	}

	hours := dt.ETASec / 3600
	minutes := (dt.ETASec % 3600) / 60
	seconds := dt.ETASec % 60

	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

// GetDisplayTitle returns the output file name without extension, or the URL.
func (dt *DownloadTask) GetDisplayTitle() string {
	if dt.OutputPath != "" {
		name := filepath.Base(strings.ReplaceAll(dt.OutputPath, "\\", "/"))
		if ext := filepath.Ext(name); ext != "" && len(name) > len(ext) {
			name = strings.TrimSuffix(name, ext)
		}
		return name
	}
	return dt.URL
}
