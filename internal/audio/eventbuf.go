package audio

import "sync"

const defaultPendingLimit = 1 << 20

// eventBuffer collects bytes delivered by a native callback or reader and
// raises a data-ready event, the way an OS event handle would. Clients embed
// it to satisfy Ready and ReadAvailable.
type eventBuffer struct {
	mu         sync.Mutex
	pending    []byte
	limit      int
	overflowed int // samples trimmed since the last takeOverflow
	err        error
	ready      chan struct{}
}

func newEventBuffer(limit int) *eventBuffer {
	if limit <= 0 {
		limit = defaultPendingLimit
	}
	return &eventBuffer{
		limit: limit,
		ready: make(chan struct{}, 1),
	}
}

// write copies p and raises the event. If the reader falls far behind, the
// oldest whole samples are dropped and counted for takeOverflow.
func (e *eventBuffer) write(p []byte) {
	if len(p) == 0 {
		return
	}
	e.mu.Lock()
	e.pending = append(e.pending, p...)
	if over := len(e.pending) - e.limit; over > 0 {
		over = min((over+bytesPerSample-1)&^(bytesPerSample-1), len(e.pending))
		e.pending = append(e.pending[:0], e.pending[over:]...)
		e.overflowed += over / bytesPerSample
	}
	e.mu.Unlock()
	e.signal()
}

// fail records an error returned by the next ReadAvailable that finds no data.
func (e *eventBuffer) fail(err error) {
	e.mu.Lock()
	e.err = err
	e.mu.Unlock()
	e.signal()
}

func (e *eventBuffer) signal() {
	select {
	case e.ready <- struct{}{}:
	default:
	}
}

func (e *eventBuffer) Ready() <-chan struct{} {
	return e.ready
}

func (e *eventBuffer) ReadAvailable(dst []byte) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.pending) == 0 && e.err != nil {
		err := e.err
		e.err = nil
		return dst, err
	}
	dst = append(dst, e.pending...)
	e.pending = e.pending[:0]
	return dst, nil
}

// takeOverflow returns how many samples write has trimmed since the last
// call and resets the count.
func (e *eventBuffer) takeOverflow() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := e.overflowed
	e.overflowed = 0
	return n
}
