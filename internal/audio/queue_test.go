package audio

import "testing"

func drain(q *sampleQueue) []float32 {
	var out []float32
	for {
		v, ok := q.pop()
		if !ok {
			return out
		}
		out = append(out, v)
	}
}

func TestSampleQueueFIFO(t *testing.T) {
	q := newSampleQueue(8)
	q.push([]float32{1, 2, 3})
	q.push([]float32{4, 5})

	got := drain(q)
	want := []float32{1, 2, 3, 4, 5}
	if len(got) != len(want) {
		t.Fatalf("expected %d samples, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sample %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestSampleQueueEvictsOldest(t *testing.T) {
	q := newSampleQueue(4)
	if dropped := q.push([]float32{1, 2, 3}); dropped != 0 {
		t.Fatalf("expected no eviction, got %d", dropped)
	}
	if dropped := q.push([]float32{4, 5, 6}); dropped != 2 {
		t.Fatalf("expected 2 evicted, got %d", dropped)
	}

	got := drain(q)
	want := []float32{3, 4, 5, 6}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sample %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestSampleQueueBatchLargerThanCapacity(t *testing.T) {
	q := newSampleQueue(3)
	q.push([]float32{1})
	dropped := q.push([]float32{2, 3, 4, 5, 6})
	if dropped != 3 {
		t.Fatalf("expected 3 evicted, got %d", dropped)
	}
	got := drain(q)
	want := []float32{4, 5, 6}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestSampleQueueNeverExceedsCapacity(t *testing.T) {
	q := newSampleQueue(DefaultBufferCapacity)
	batch := make([]float32, 1000)
	next := float32(0)
	total := 0

	for round := 0; round < 200; round++ {
		for i := range batch {
			batch[i] = next
			next++
		}
		before := q.len()
		dropped := q.push(batch)
		total += len(batch)

		if q.len() > DefaultBufferCapacity {
			t.Fatalf("round %d: length %d exceeds capacity", round, q.len())
		}
		// At capacity each new sample evicts exactly one old one.
		if want := max(0, before+len(batch)-DefaultBufferCapacity); dropped != want {
			t.Fatalf("round %d: expected %d evicted, got %d", round, want, dropped)
		}
	}

	// The survivors are the newest samples, still in order.
	first, _ := q.pop()
	if want := float32(total - DefaultBufferCapacity); first != want {
		t.Fatalf("expected oldest surviving sample %v, got %v", want, first)
	}
	prev := first
	for {
		v, ok := q.pop()
		if !ok {
			break
		}
		if v != prev+1 {
			t.Fatalf("out of order: %v after %v", v, prev)
		}
		prev = v
	}
}

func TestSampleQueuePopIntoWraps(t *testing.T) {
	q := newSampleQueue(5)
	q.push([]float32{1, 2, 3, 4})
	q.pop()
	q.pop()
	q.push([]float32{5, 6, 7}) // wraps around the ring

	dst := make([]float32, 10)
	n := q.popInto(dst)
	want := []float32{3, 4, 5, 6, 7}
	if n != len(want) {
		t.Fatalf("expected %d samples, got %d", len(want), n)
	}
	for i := range want {
		if dst[i] != want[i] {
			t.Fatalf("sample %d: expected %v, got %v", i, want[i], dst[i])
		}
	}
	if q.len() != 0 {
		t.Fatalf("expected empty queue, got %d", q.len())
	}
}
