package shelter_test

import (
	"sync"
	"testing"
	"time"

	"github.com/shelterhq/shelter/pkg/shelter"
)

// recordingRenderer captures overlay calls for assertions.
type recordingRenderer struct {
	mu     sync.Mutex
	ops    []string
	latest map[string][]shelter.OverlaySpan
}

func newRecordingRenderer() *recordingRenderer {
	return &recordingRenderer{latest: make(map[string][]shelter.OverlaySpan)}
}

func (r *recordingRenderer) SetOverlays(buffer string, spans []shelter.OverlaySpan) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.ops = append(r.ops, "set:"+buffer)
	r.latest[buffer] = spans
}

func (r *recordingRenderer) ClearOverlays(buffer string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.ops = append(r.ops, "clear:"+buffer)
}

func (r *recordingRenderer) sets(buffer string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, op := range r.ops {
		if op == "set:"+buffer {
			n++
		}
	}

	return n
}

func (r *recordingRenderer) spansFor(buffer string) []shelter.OverlaySpan {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.latest[buffer]
}

// waitUntil polls cond until it holds or the deadline passes.
func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}

		time.Sleep(5 * time.Millisecond)
	}

	t.Fatal("condition not met before deadline")
}

func spanAt(line int) []shelter.OverlaySpan {
	return []shelter.OverlaySpan{{Line: line, StartCol: 0, EndCol: 1, DisplayText: "*"}}
}

func Test_Apply_Clears_Before_Setting_When_Installing(t *testing.T) {
	t.Parallel()

	renderer := newRecordingRenderer()
	applier := shelter.NewApplier(renderer)

	defer applier.Close()

	applier.Apply("buf", spanAt(1))

	renderer.mu.Lock()
	defer renderer.mu.Unlock()

	want := []string{"clear:buf", "set:buf"}
	if len(renderer.ops) != 2 || renderer.ops[0] != want[0] || renderer.ops[1] != want[1] {
		t.Fatalf("ops = %v, want %v", renderer.ops, want)
	}
}

func Test_ApplyDeferred_Installs_Last_Payload_When_Calls_Coalesce(t *testing.T) {
	t.Parallel()

	renderer := newRecordingRenderer()
	applier := shelter.NewApplier(renderer)

	defer applier.Close()

	applier.ApplyDeferred("buf", spanAt(1), 50*time.Millisecond)
	applier.ApplyDeferred("buf", spanAt(2), 20*time.Millisecond)

	waitUntil(t, func() bool { return renderer.sets("buf") > 0 })

	// Give the superseded timer time to fire if it incorrectly installs.
	time.Sleep(100 * time.Millisecond)

	if got := renderer.sets("buf"); got != 1 {
		t.Fatalf("sets = %d, want exactly 1", got)
	}

	spans := renderer.spansFor("buf")
	if len(spans) != 1 || spans[0].Line != 2 {
		t.Fatalf("installed spans = %+v, want the later payload (line 2)", spans)
	}
}

func Test_ApplyDeferred_Installs_Nothing_When_Superseded_By_Apply(t *testing.T) {
	t.Parallel()

	renderer := newRecordingRenderer()
	applier := shelter.NewApplier(renderer)

	defer applier.Close()

	applier.ApplyDeferred("buf", spanAt(1), 30*time.Millisecond)
	applier.Apply("buf", spanAt(2))

	time.Sleep(100 * time.Millisecond)

	if got := renderer.sets("buf"); got != 1 {
		t.Fatalf("sets = %d, want 1 (stale deferred must not install)", got)
	}

	spans := renderer.spansFor("buf")
	if len(spans) != 1 || spans[0].Line != 2 {
		t.Fatalf("installed spans = %+v, want the immediate payload (line 2)", spans)
	}
}

func Test_Cancel_Prevents_Install_When_Deferred_Pending(t *testing.T) {
	t.Parallel()

	renderer := newRecordingRenderer()
	applier := shelter.NewApplier(renderer)

	defer applier.Close()

	applier.ApplyDeferred("buf", spanAt(1), 30*time.Millisecond)
	applier.Cancel("buf")

	time.Sleep(100 * time.Millisecond)

	if got := renderer.sets("buf"); got != 0 {
		t.Fatalf("sets = %d, want 0 after cancel", got)
	}
}

func Test_ApplyDeferred_Tracks_Buffers_Independently_When_Interleaved(t *testing.T) {
	t.Parallel()

	renderer := newRecordingRenderer()
	applier := shelter.NewApplier(renderer)

	defer applier.Close()

	applier.ApplyDeferred("one", spanAt(1), 10*time.Millisecond)
	applier.ApplyDeferred("two", spanAt(2), 10*time.Millisecond)

	waitUntil(t, func() bool {
		return renderer.sets("one") == 1 && renderer.sets("two") == 1
	})
}

func Test_Debouncer_Runs_Only_Last_Callback_When_Restarted(t *testing.T) {
	t.Parallel()

	d := shelter.NewDebouncer()
	defer d.CancelAll()

	var (
		mu   sync.Mutex
		runs []int
	)

	record := func(n int) func() {
		return func() {
			mu.Lock()
			runs = append(runs, n)
			mu.Unlock()
		}
	}

	d.Start("k", 50*time.Millisecond, record(1))
	d.Start("k", 20*time.Millisecond, record(2))

	waitUntil(t, func() bool {
		mu.Lock()
		defer mu.Unlock()

		return len(runs) > 0
	})

	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()

	if len(runs) != 1 || runs[0] != 2 {
		t.Fatalf("runs = %v, want only the restarted callback", runs)
	}
}

func Test_Debouncer_Cancel_Reports_Presence_When_Called_Twice(t *testing.T) {
	t.Parallel()

	d := shelter.NewDebouncer()
	defer d.CancelAll()

	d.Start("k", time.Hour, func() {})

	if !d.Cancel("k") {
		t.Fatal("first cancel returned false")
	}

	if d.Cancel("k") {
		t.Fatal("second cancel returned true")
	}
}

func Test_Debouncer_Pending_Counts_Timers_When_Scheduled(t *testing.T) {
	t.Parallel()

	d := shelter.NewDebouncer()
	defer d.CancelAll()

	d.Start("a", time.Hour, func() {})
	d.Start("b", time.Hour, func() {})
	d.Start("a", time.Hour, func() {}) // restart, not a new key

	if got := d.Pending(); got != 2 {
		t.Fatalf("pending = %d, want 2", got)
	}

	d.CancelAll()

	if got := d.Pending(); got != 0 {
		t.Fatalf("pending = %d, want 0 after CancelAll", got)
	}
}

func Test_Debouncer_Releases_Timer_When_Callback_Fires(t *testing.T) {
	t.Parallel()

	d := shelter.NewDebouncer()
	defer d.CancelAll()

	done := make(chan struct{})
	d.Start("k", 5*time.Millisecond, func() { close(done) })

	<-done

	waitUntil(t, func() bool { return d.Pending() == 0 })
}
