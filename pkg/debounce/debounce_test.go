package debounce

import (
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu     sync.Mutex
	values []int
	done   chan struct{}
}

func newRecorder() *recorder {
	return &recorder{done: make(chan struct{}, 16)}
}

func (r *recorder) record(v int) {
	r.mu.Lock()
	r.values = append(r.values, v)
	r.mu.Unlock()
	r.done <- struct{}{}
}

func (r *recorder) snapshot() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.values...)
}

// TestDebounceDeliversLatest tests that only the last value in a window fires.
func TestDebounceDeliversLatest(t *testing.T) {
	rec := newRecorder()
	d := New(rec.record, 20*time.Millisecond)

	d.Change(1)
	d.Change(2)

	select {
	case <-rec.done:
	case <-time.After(time.Second):
		t.Fatal("callback never fired")
	}

	// Give a stale timer a chance to misfire.
	time.Sleep(60 * time.Millisecond)

	got := rec.snapshot()
	if len(got) != 1 || got[0] != 2 {
		t.Errorf("Delivered values: got %v, want [2]", got)
	}
	if d.Pending() {
		t.Error("Pending should be false after delivery")
	}
}

// TestDebounceSeparateWindows tests that quiet gaps produce separate calls.
func TestDebounceSeparateWindows(t *testing.T) {
	rec := newRecorder()
	d := New(rec.record, 10*time.Millisecond)

	d.Change(1)
	<-rec.done
	d.Change(2)
	<-rec.done

	got := rec.snapshot()
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("Delivered values: got %v, want [1 2]", got)
	}
}

func TestDebounceFlush(t *testing.T) {
	rec := newRecorder()
	d := New(rec.record, time.Hour)

	if d.Flush() {
		t.Error("Flush with nothing pending should report false")
	}

	d.Change(7)
	if !d.Pending() {
		t.Error("Pending should be true after Change")
	}
	if !d.Flush() {
		t.Error("Flush should report true")
	}

	got := rec.snapshot()
	if len(got) != 1 || got[0] != 7 {
		t.Errorf("Delivered values: got %v, want [7]", got)
	}
}

func TestDebounceStop(t *testing.T) {
	rec := newRecorder()
	d := New(rec.record, 10*time.Millisecond)

	d.Change(1)
	d.Stop()
	time.Sleep(40 * time.Millisecond)

	if got := rec.snapshot(); len(got) != 0 {
		t.Errorf("Delivered values after Stop: got %v, want none", got)
	}
}

func TestDebounceDefaultDelay(t *testing.T) {
	d := New(func(int) {}, 0)
	if d.Delay() != DefaultDelay {
		t.Errorf("Delay: got %v, want %v", d.Delay(), DefaultDelay)
	}
}
