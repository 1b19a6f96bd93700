package audio

import "sync"

// Waker resumes a consumer that was told to wait. It may be called from the
// capture thread and must not block.
type Waker func()

// wakeState coordinates the capture thread and the consumer. Its mutex is
// never held together with the sampleQueue mutex, and a waker is always
// invoked after the mutex is released.
type wakeState struct {
	mu       sync.Mutex
	waker    Waker
	hasData  bool
	shutdown bool // consumer closed the stream
	finished bool // capture thread exited on its own
	reason   error
}

func (w *wakeState) isShutdown() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.shutdown
}

type registration int

const (
	registered registration = iota
	registerShutdown
	registerFinished
)

// register stores wake for the next delivery unless the consumer closed the
// stream or the capture thread has already finished.
func (w *wakeState) register(wake Waker) registration {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.shutdown {
		return registerShutdown
	}
	if w.finished {
		return registerFinished
	}
	w.hasData = false
	w.waker = wake
	return registered
}

// notify is called by the capture thread after appending samples.
func (w *wakeState) notify() {
	w.mu.Lock()
	if w.hasData {
		w.mu.Unlock()
		return
	}
	w.hasData = true
	wake := w.waker
	w.waker = nil
	w.mu.Unlock()

	if wake != nil {
		wake()
	}
}

// requestShutdown marks the stream closed and reports whether this call was
// the one that closed it.
func (w *wakeState) requestShutdown() bool {
	w.mu.Lock()
	if w.shutdown {
		w.mu.Unlock()
		return false
	}
	w.shutdown = true
	wake := w.waker
	w.waker = nil
	w.mu.Unlock()

	if wake != nil {
		wake()
	}
	return true
}

// finish records why the capture thread exited and resumes a waiting
// consumer so it can observe the end of the stream.
func (w *wakeState) finish(reason error) {
	w.mu.Lock()
	w.finished = true
	w.reason = reason
	wake := w.waker
	w.waker = nil
	w.mu.Unlock()

	if wake != nil {
		wake()
	}
}

// endReason is why the capture thread exited, or nil while it runs.
func (w *wakeState) endReason() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.reason
}
