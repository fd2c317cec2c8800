package shelter

import (
	"sync"
	"time"
)

// Renderer is the display surface overlays are installed into. The host
// editor provides it. Implementations must install spans as
// non-destructive, positionally-replacing overlays, support clearing a
// buffer's overlays on demand, and tolerate repeated identical installs.
type Renderer interface {
	SetOverlays(buffer string, spans []OverlaySpan)
	ClearOverlays(buffer string)
}

// Applier installs overlays through a Renderer, either immediately or on
// a deferred tick. Both paths clear-then-set, and deferred applications
// are generation-numbered per buffer: a stale deferred apply scheduled
// before a newer one installs nothing, so the last writer always wins.
type Applier struct {
	renderer Renderer
	sched    *Debouncer

	mu  sync.Mutex
	gen map[string]uint64
}

// NewApplier creates an applier over the given renderer.
func NewApplier(renderer Renderer) *Applier {
	return &Applier{
		renderer: renderer,
		sched:    NewDebouncer(),
		gen:      make(map[string]uint64),
	}
}

// Apply installs spans into buffer immediately. Used when a protective,
// race-free update is required (e.g. right after a paste, before the user
// can observe unmasked text).
func (a *Applier) Apply(buffer string, spans []OverlaySpan) {
	a.mu.Lock()
	a.gen[buffer]++
	a.mu.Unlock()

	a.install(buffer, spans)
}

// ApplyDeferred schedules the install onto a later tick, batching multiple
// overlay updates into a single pass. A newer Apply or ApplyDeferred for
// the same buffer supersedes it.
func (a *Applier) ApplyDeferred(buffer string, spans []OverlaySpan, delay time.Duration) {
	a.mu.Lock()
	a.gen[buffer]++
	scheduled := a.gen[buffer]
	a.mu.Unlock()

	a.sched.Start(buffer, delay, func() {
		a.mu.Lock()
		stale := a.gen[buffer] != scheduled
		a.mu.Unlock()

		if stale {
			return
		}

		a.install(buffer, spans)
	})
}

// Cancel drops any pending deferred apply for buffer.
func (a *Applier) Cancel(buffer string) {
	a.sched.Cancel(buffer)
}

// Close releases all pending timers.
func (a *Applier) Close() {
	a.sched.CancelAll()
}

func (a *Applier) install(buffer string, spans []OverlaySpan) {
	a.renderer.ClearOverlays(buffer)
	a.renderer.SetOverlays(buffer, spans)
}

// Debouncer owns cancel-and-restart timers keyed by a target identifier.
// Starting a timer for a key cancels any outstanding one, guaranteeing at
// most one pending callback per key. Cancellation releases the timer
// handle; repeated cancellation never leaks.
type Debouncer struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
}

// NewDebouncer creates an empty debouncer.
func NewDebouncer() *Debouncer {
	return &Debouncer{timers: make(map[string]*time.Timer)}
}

// Start schedules fn after delay, cancelling any pending timer for key.
func (d *Debouncer) Start(key string, delay time.Duration, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if timer, ok := d.timers[key]; ok {
		timer.Stop()
	}

	var timer *time.Timer

	timer = time.AfterFunc(delay, func() {
		d.mu.Lock()
		if d.timers[key] == timer {
			delete(d.timers, key)
		}
		d.mu.Unlock()

		fn()
	})

	d.timers[key] = timer
}

// Cancel stops the pending timer for key and releases its handle.
// Returns true if a timer was pending.
func (d *Debouncer) Cancel(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	timer, ok := d.timers[key]
	if !ok {
		return false
	}

	timer.Stop()
	delete(d.timers, key)

	return true
}

// CancelAll stops and releases every pending timer.
func (d *Debouncer) CancelAll() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for key, timer := range d.timers {
		timer.Stop()
		delete(d.timers, key)
	}
}

// Pending returns the number of outstanding timers.
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.timers)
}
