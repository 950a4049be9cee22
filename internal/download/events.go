package download

// EventKind identifies a batch log event.
type EventKind int

const (
	EventQueueStarted EventKind = iota
	EventItemStarted
	EventProgress
	EventItemCompleted
	EventExtraApplied
	EventExtraError
	EventItemFailed
	EventStopped
	EventQueueFinished
)

var eventKindNames = [...]string{
	"queue_started",
	"item_started",
	"progress",
	"item_completed",
	"extra_applied",
	"extra_error",
	"item_failed",
	"stopped",
	"queue_finished",
}

func (k EventKind) String() string {
	if k < 0 || int(k) >= len(eventKindNames) {
		return "unknown"
	}
	return eventKindNames[k]
}

// Event is emitted by the worker for the log view. Only the fields relevant
// to Kind are set.
type Event struct {
	Kind EventKind

	Count int    // QueueStarted
	Index int    // 1-based, item events
	URL   string // item events

	Progress Progress          // Progress
	Filename string            // ItemCompleted
	Params   map[string]string // ExtraApplied
	Err      error             // ExtraError, ItemFailed

	Completed int // QueueFinished
	Failed    int // QueueFinished
}
