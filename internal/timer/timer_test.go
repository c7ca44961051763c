package timer

import (
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu       sync.Mutex
	ticks    []int
	warnings []int
	expires  int
	expired  chan struct{}
}

func newRecorder() *recorder {
	return &recorder{expired: make(chan struct{})}
}

func (r *recorder) callbacks() Callbacks {
	return Callbacks{
		OnTick: func(remaining int) {
			r.mu.Lock()
			r.ticks = append(r.ticks, remaining)
			r.mu.Unlock()
		},
		OnWarning: func(remaining int) {
			r.mu.Lock()
			r.warnings = append(r.warnings, remaining)
			r.mu.Unlock()
		},
		OnExpire: func() {
			r.mu.Lock()
			r.expires++
			r.mu.Unlock()
			close(r.expired)
		},
	}
}

func (r *recorder) snapshot() (ticks, warnings []int, expires int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.ticks...), append([]int(nil), r.warnings...), r.expires
}

func waitExpired(t *testing.T, r *recorder) {
	t.Helper()
	select {
	case <-r.expired:
	case <-time.After(5 * time.Second):
		t.Fatal("timer did not expire")
	}
}

func TestCountdownSequence(t *testing.T) {
	rec := newRecorder()
	tm := New(WithInterval(5 * time.Millisecond))
	tm.Start(30, rec.callbacks())
	waitExpired(t, rec)

	ticks, warnings, expires := rec.snapshot()
	if len(ticks) != 30 {
		t.Fatalf("expected 30 ticks, got %d", len(ticks))
	}
	for i, remaining := range ticks {
		if remaining != 29-i {
			t.Fatalf("tick %d: expected remaining %d, got %d", i, 29-i, remaining)
		}
	}
	if len(ticks) >= 25 && ticks[24] != 5 {
		t.Fatalf("expected remaining 5 after 25 ticks, got %d", ticks[24])
	}
	wantWarnings := []int{5, 4, 3, 2, 1}
	if len(warnings) != len(wantWarnings) {
		t.Fatalf("expected warnings %v, got %v", wantWarnings, warnings)
	}
	for i, w := range warnings {
		if w != wantWarnings[i] {
			t.Fatalf("expected warnings %v, got %v", wantWarnings, warnings)
		}
	}
	if expires != 1 {
		t.Fatalf("expected exactly one expire, got %d", expires)
	}

	// Expiry self-cancels; no further ticks may arrive.
	time.Sleep(30 * time.Millisecond)
	after, _, _ := rec.snapshot()
	if len(after) != 30 {
		t.Fatalf("expected no ticks after expiry, got %d total", len(after))
	}
}

func TestCancelStopsTicks(t *testing.T) {
	rec := newRecorder()
	tm := New(WithInterval(5 * time.Millisecond))
	tm.Start(100, rec.callbacks())
	time.Sleep(30 * time.Millisecond)
	tm.Cancel()
	tm.Cancel() // idempotent

	ticks, _, expires := rec.snapshot()
	time.Sleep(30 * time.Millisecond)
	after, _, afterExpires := rec.snapshot()
	if len(after) != len(ticks) {
		t.Fatalf("ticks continued after cancel: %d -> %d", len(ticks), len(after))
	}
	if expires != 0 || afterExpires != 0 {
		t.Fatal("expire fired after cancel")
	}
}

func TestStartCancelsPreviousRun(t *testing.T) {
	old := newRecorder()
	tm := New(WithInterval(5 * time.Millisecond))
	tm.Start(100, old.callbacks())
	time.Sleep(20 * time.Millisecond)

	fresh := newRecorder()
	tm.Start(3, fresh.callbacks())
	waitExpired(t, fresh)

	oldTicks, _, oldExpires := old.snapshot()
	time.Sleep(30 * time.Millisecond)
	oldAfter, _, _ := old.snapshot()
	if len(oldAfter) != len(oldTicks) {
		t.Fatalf("old run kept ticking after restart: %d -> %d", len(oldTicks), len(oldAfter))
	}
	if oldExpires != 0 {
		t.Fatal("old run expired after restart")
	}

	ticks, _, expires := fresh.snapshot()
	if len(ticks) != 3 || expires != 1 {
		t.Fatalf("expected 3 ticks and one expire, got %d ticks, %d expires", len(ticks), expires)
	}
}
