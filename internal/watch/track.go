package watch

import "time"

// State is the lifecycle of one watched file.
type State int

const (
	// StateDiscovered: the file has been seen but not yet sized.
	StateDiscovered State = iota

	// StateStabilizing: the file exists and its size is being watched for
	// changes; a file still being copied in stays here.
	StateStabilizing

	// StateReady: the size has held steady long enough to process.
	StateReady

	// StateProcessing: the handler is running on the file.
	StateProcessing

	// StateDone: the handler succeeded; the file is never revisited.
	StateDone

	// StateFailed: the handler failed; the file is never retried.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateDiscovered:
		return "discovered"
	case StateStabilizing:
		return "stabilizing"
	case StateReady:
		return "ready"
	case StateProcessing:
		return "processing"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// tracker advances one file through discovery and stabilization. Processing
// transitions are driven by the watcher, not by size observations.
type tracker struct {
	state State
	size  int64
	since time.Time // when the current size was first observed
}

func newTracker() *tracker {
	return &tracker{state: StateDiscovered}
}

// observe records the file's current size. The file becomes Ready once its
// size has not changed for stableAfter. A size change at any point before
// processing restarts stabilization.
func (t *tracker) observe(size int64, now time.Time, stableAfter time.Duration) State {
	switch t.state {
	case StateDiscovered:
		t.size = size
		t.since = now
		t.state = StateStabilizing

	case StateStabilizing, StateReady:
		if size != t.size {
			t.size = size
			t.since = now
			t.state = StateStabilizing

			break
		}
		if now.Sub(t.since) >= stableAfter {
			t.state = StateReady
		}
	}

	return t.state
}

// begin marks the file as being processed. Only valid from Ready.
func (t *tracker) begin() {
	t.state = StateProcessing
}

// finish records the handler outcome.
func (t *tracker) finish(err error) {
	if err != nil {
		t.state = StateFailed

		return
	}

	t.state = StateDone
}
