package audio

import "testing"

func TestWakeStateWakesOncePerRegistration(t *testing.T) {
	var w wakeState
	calls := 0
	if got := w.register(func() { calls++ }); got != registered {
		t.Fatalf("expected registered, got %v", got)
	}

	w.notify()
	w.notify()
	if calls != 1 {
		t.Fatalf("expected 1 wake, got %d", calls)
	}
}

func TestWakeStateNotifyWithoutWaker(t *testing.T) {
	var w wakeState
	w.notify()

	// Registering resets hasData so the next delivery wakes again.
	woke := false
	w.register(func() { woke = true })
	w.notify()
	if !woke {
		t.Fatal("expected wake after re-registration")
	}
}

func TestWakeStateInvokesWakerUnlocked(t *testing.T) {
	var w wakeState
	// A waker that re-enters the wake state would deadlock if called with
	// the mutex held.
	w.register(func() { w.isShutdown() })
	w.notify()

	w.register(func() { w.isShutdown() })
	w.finish(nil)

	var closing wakeState
	closing.register(func() { closing.isShutdown() })
	closing.requestShutdown()
}

func TestWakeStateRegisterAfterEnd(t *testing.T) {
	var w wakeState
	w.finish(ErrEventTimeout)
	if got := w.register(func() {}); got != registerFinished {
		t.Fatalf("expected registerFinished, got %v", got)
	}
	if reason := w.endReason(); reason != ErrEventTimeout {
		t.Fatalf("expected timeout reason, got %v", reason)
	}

	if !w.requestShutdown() {
		t.Fatal("expected first shutdown request to report true")
	}
	if w.requestShutdown() {
		t.Fatal("expected second shutdown request to report false")
	}
	if got := w.register(func() {}); got != registerShutdown {
		t.Fatalf("expected registerShutdown, got %v", got)
	}
}
