package audio

import "sync"

// sampleQueue is a bounded FIFO shared by the capture thread and the
// consumer. When full, new samples evict the oldest ones.
type sampleQueue struct {
	mu   sync.Mutex
	buf  []float32
	head int
	size int
}

func newSampleQueue(capacity int) *sampleQueue {
	if capacity <= 0 {
		capacity = DefaultBufferCapacity
	}
	return &sampleQueue{buf: make([]float32, capacity)}
}

// push appends samples and returns how many old samples were evicted.
func (q *sampleQueue) push(samples []float32) (dropped int) {
	q.mu.Lock()
	defer q.mu.Unlock()

	capacity := len(q.buf)
	if len(samples) >= capacity {
		dropped = q.size + len(samples) - capacity
		copy(q.buf, samples[len(samples)-capacity:])
		q.head, q.size = 0, capacity
		return dropped
	}

	if over := q.size + len(samples) - capacity; over > 0 {
		q.head = (q.head + over) % capacity
		q.size -= over
		dropped = over
	}

	tail := (q.head + q.size) % capacity
	n := copy(q.buf[tail:], samples)
	copy(q.buf, samples[n:])
	q.size += len(samples)
	return dropped
}

func (q *sampleQueue) pop() (float32, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.size == 0 {
		return 0, false
	}
	v := q.buf[q.head]
	q.head = (q.head + 1) % len(q.buf)
	q.size--
	return v, true
}

// popInto moves up to len(dst) samples into dst.
func (q *sampleQueue) popInto(dst []float32) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := min(len(dst), q.size)
	first := copy(dst[:n], q.buf[q.head:min(q.head+n, len(q.buf))])
	copy(dst[first:n], q.buf)
	q.head = (q.head + n) % len(q.buf)
	q.size -= n
	return n
}

func (q *sampleQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}

func (q *sampleQueue) capacity() int {
	return len(q.buf)
}
