// Package timer implements the per-question countdown.
package timer

import (
	"sync"
	"time"
)

// WarningWindow is the number of final seconds that count as the warning zone.
const WarningWindow = 5

// Callbacks receive countdown events. All callbacks are invoked from the
// timer goroutine; nil callbacks are skipped.
type Callbacks struct {
	OnTick    func(remaining int)
	OnWarning func(remaining int)
	OnExpire  func()
}

// Timer counts a round down one tick at a time. At most one countdown runs
// at a time; starting a new one cancels the previous run.
type Timer struct {
	mu       sync.Mutex
	interval time.Duration
	stop     chan struct{}
}

// Option configures a Timer.
type Option func(*Timer)

// WithInterval overrides the tick interval. The default is one second.
func WithInterval(interval time.Duration) Option {
	return func(t *Timer) {
		t.interval = interval
	}
}

// New returns a stopped Timer.
func New(opts ...Option) *Timer {
	t := &Timer{interval: time.Second}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start begins a countdown from seconds down to zero. Any countdown already
// running is cancelled first.
func (t *Timer) Start(seconds int, cb Callbacks) {
	t.mu.Lock()
	if t.stop != nil {
		close(t.stop)
	}
	stop := make(chan struct{})
	t.stop = stop
	t.mu.Unlock()

	go t.run(seconds, cb, stop)
}

// Cancel stops the current countdown. It is idempotent. Cancel does not
// wait for the timer goroutine, so a tick that already passed its stop
// check may still deliver callbacks after Cancel returns; callers must
// decide staleness by their own state, not by Cancel having returned.
func (t *Timer) Cancel() {
	t.mu.Lock()
	if t.stop != nil {
		close(t.stop)
		t.stop = nil
	}
	t.mu.Unlock()
}

func (t *Timer) run(seconds int, cb Callbacks, stop chan struct{}) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	remaining := seconds
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			// A cancel racing the ticker must win.
			select {
			case <-stop:
				return
			default:
			}
			remaining--
			if cb.OnTick != nil {
				cb.OnTick(remaining)
			}
			if remaining > 0 && remaining <= WarningWindow && cb.OnWarning != nil {
				cb.OnWarning(remaining)
			}
			if remaining <= 0 {
				t.selfCancel(stop)
				if cb.OnExpire != nil {
					cb.OnExpire()
				}
				return
			}
		}
	}
}

func (t *Timer) selfCancel(stop chan struct{}) {
	t.mu.Lock()
	if t.stop == stop {
		close(t.stop)
		t.stop = nil
	}
	t.mu.Unlock()
}
