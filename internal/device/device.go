package device

import (
	"sync"
	"time"
)

// DefaultStopTimeout bounds how long Stop waits for a loop goroutine to
// exit before giving up.
const DefaultStopTimeout = 5 * time.Second

// loopFunc is a device loop body. It must return promptly once stop is
// closed; the channel belongs to a single run and is never reused.
type loopFunc func(stop <-chan struct{})

// lifecycle is the shared runtime embedded by Sensor and Actuator.
//
// It owns the running flag and the per-run stop/done channels. A device
// may be restarted after Stop returns; each run gets fresh channels, so a
// loop that outlives its bounded join (and is still winding down) keeps
// watching its own stop channel and cannot be revived by a later Start.
type lifecycle struct {
	id          string
	name        string
	enabled     bool
	stopTimeout time.Duration
	log         Logger

	mu      sync.Mutex
	running bool
	stopC   chan struct{}
	done    chan struct{}
}

// start launches loop in its own goroutine.
//
// Disabled and already-running devices are left untouched; both cases are
// logged and otherwise a no-op.
func (l *lifecycle) start(loop loopFunc) {
	if !l.enabled {
		l.log.Warn("device disabled, not starting", "device_id", l.id, "name", l.name)
		return
	}

	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		l.log.Warn("device already running", "device_id", l.id, "name", l.name)
		return
	}
	l.running = true
	l.stopC = make(chan struct{})
	l.done = make(chan struct{})
	stop, done := l.stopC, l.done
	l.mu.Unlock()

	go func() {
		defer close(done)
		loop(stop)
	}()

	l.log.Info("device started", "device_id", l.id, "name", l.name)
}

// Stop flips the running flag, signals the loop and waits for it to exit.
//
// The join is bounded by the stop timeout; on expiry a warning is logged
// and Stop returns anyway. Stopping a device that is not running is a
// logged no-op.
func (l *lifecycle) Stop() {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		l.log.Warn("device not running", "device_id", l.id, "name", l.name)
		return
	}
	l.running = false
	close(l.stopC)
	done := l.done
	l.mu.Unlock()

	select {
	case <-done:
		l.log.Info("device stopped", "device_id", l.id, "name", l.name)
	case <-time.After(l.stopTimeout):
		l.log.Warn("device loop did not exit before timeout",
			"device_id", l.id, "name", l.name, "timeout", l.stopTimeout)
	}
}

// IsRunning reports whether the device loop is active.
func (l *lifecycle) IsRunning() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

// ID returns the device identifier.
func (l *lifecycle) ID() string { return l.id }

// Name returns the human-readable device name.
func (l *lifecycle) Name() string { return l.name }

// Enabled reports whether the device is allowed to start.
func (l *lifecycle) Enabled() bool { return l.enabled }

// newLifecycle fills in defaults for the embedded runtime.
func newLifecycle(id, name string, enabled bool, stopTimeout time.Duration, log Logger) lifecycle {
	if stopTimeout <= 0 {
		stopTimeout = DefaultStopTimeout
	}
	if log == nil {
		log = noopLogger{}
	}
	return lifecycle{
		id:          id,
		name:        name,
		enabled:     enabled,
		stopTimeout: stopTimeout,
		log:         log,
	}
}
