package model

// TaskStatus is the lifecycle state of one URL in a download batch.
type TaskStatus string

const (
	// TaskStatusPending means the URL is queued behind earlier ones
	TaskStatusPending TaskStatus = "Pending"

	// TaskStatusStarting means options are being built for the URL
	TaskStatusStarting TaskStatus = "Starting"

	// TaskStatusDownloading means the downloader is running
	TaskStatusDownloading TaskStatus = "Downloading"

	// TaskStatusStopping means a stop was requested while running
	TaskStatusStopping TaskStatus = "Stopping"

	// TaskStatusStopped means the user stopped the batch before this URL finished
	TaskStatusStopped TaskStatus = "Stopped"

	// TaskStatusCompleted means the downloader returned successfully
	TaskStatusCompleted TaskStatus = "Completed"

	// TaskStatusError means the downloader failed; the batch moved on
	TaskStatusError TaskStatus = "Error"
)

// String returns the string representation of TaskStatus
func (ts TaskStatus) String() string {
	return string(ts)
}

// IsActive reports whether the downloader currently owns the task.
func (ts TaskStatus) IsActive() bool {
	switch ts {
	case TaskStatusStarting, TaskStatusDownloading, TaskStatusStopping:
		return true
	}
	return false
}

// IsFinished reports whether the task reached a terminal state.
func (ts TaskStatus) IsFinished() bool {
	switch ts {
	case TaskStatusCompleted, TaskStatusStopped, TaskStatusError:
		return true
	}
	return false
}

// CanTransition reports whether moving from ts to next is allowed.
// Terminal states never change; pending tasks may be stopped without running.
func (ts TaskStatus) CanTransition(next TaskStatus) bool {
	if ts.IsFinished() || ts == next {
		return false
	}
	switch ts {
	case TaskStatusPending:
		return next == TaskStatusStarting || next == TaskStatusStopped
	case TaskStatusStarting:
		return next == TaskStatusDownloading || next == TaskStatusStopping || next.IsFinished()
	case TaskStatusDownloading:
		return next == TaskStatusStopping || next.IsFinished()
	case TaskStatusStopping:
		return next == TaskStatusStopped || next == TaskStatusCompleted || next == TaskStatusError
	}
	return false
}
