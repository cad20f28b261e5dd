package taskreg

import (
	"context"
	"testing"
	"time"
)

// startTask simulates one registered task run: a goroutine that exits when
// its context is cancelled.
func startTask(r *Registry, name string) (*Handle, context.Context) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	h := r.Swap(name, cancel, done)
	go func() {
		defer close(done)
		<-ctx.Done()
	}()
	return h, ctx
}

func TestSwapStopsPreviousRun(t *testing.T) {
	r := NewRegistry()

	_, oldCtx := startTask(r, "poll")

	// The second Swap must cancel and await the first run before returning.
	newHandle, _ := startTask(r, "poll")

	select {
	case <-oldCtx.Done():
	default:
		t.Fatal("previous run was not cancelled by Swap")
	}

	newHandle.Stop()
}

func TestSwapDistinctNamesAreIndependent(t *testing.T) {
	r := NewRegistry()

	_, pollCtx := startTask(r, "poll")
	newsHandle, _ := startTask(r, "news")

	select {
	case <-pollCtx.Done():
		t.Fatal("swapping a different name cancelled an unrelated task")
	default:
	}

	newsHandle.Stop()
	if h, ok := r.tasks["poll"]; !ok || h == nil {
		t.Fatal("poll task lost its registry entry")
	}
	r.tasks["poll"].Stop()
}

func TestClearOnlyRemovesMatchingHandle(t *testing.T) {
	r := NewRegistry()

	first, _ := startTask(r, "poll")
	second, _ := startTask(r, "poll")

	// The stale handle must not evict its replacement.
	if r.Clear("poll", first) {
		t.Error("Clear removed the entry using a superseded handle")
	}
	if r.tasks["poll"] != second {
		t.Fatal("current handle missing after stale Clear")
	}

	second.Stop()
	if !r.Clear("poll", second) {
		t.Error("Clear refused the current handle")
	}
	if _, ok := r.tasks["poll"]; ok {
		t.Error("entry still present after Clear")
	}
}

func TestHandleStopWaitsForExit(t *testing.T) {
	r := NewRegistry()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	h := r.Swap("poll", cancel, done)

	exited := make(chan struct{})
	go func() {
		<-ctx.Done()
		time.Sleep(10 * time.Millisecond)
		close(done)
		close(exited)
	}()

	h.Stop()
	select {
	case <-exited:
	default:
		t.Fatal("Stop returned before the task finished")
	}
}
