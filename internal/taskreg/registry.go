// Package taskreg tracks named background tasks so a logical task never
// runs twice in one process, e.g. across a bot reload.
package taskreg

import (
	"context"
	"sync"
)

// Handle refers to one registered task run.
type Handle struct {
	cancel context.CancelFunc
	done   <-chan struct{}
}

// Stop cancels the task and waits for it to finish.
func (h *Handle) Stop() {
	h.cancel()
	<-h.done
}

// Registry maps task names to their currently running handle.
type Registry struct {
	mu    sync.Mutex
	tasks map[string]*Handle
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tasks: make(map[string]*Handle)}
}

// Default is the process-wide registry.
var Default = NewRegistry()

// Swap registers a new run of the named task. Any previously registered run
// is cancelled and awaited first, so two runs of the same task never overlap.
// done must be closed by the caller when the task returns.
func (r *Registry) Swap(name string, cancel context.CancelFunc, done <-chan struct{}) *Handle {
	r.mu.Lock()
	old := r.tasks[name]
	r.mu.Unlock()

	if old != nil {
		old.Stop()
	}

	h := &Handle{cancel: cancel, done: done}
	r.mu.Lock()
	r.tasks[name] = h
	r.mu.Unlock()
	return h
}

// Clear removes the named entry only if it still refers to h, so a handle
// from a superseded run cannot evict its replacement. Reports whether the
// entry was removed.
func (r *Registry) Clear(name string, h *Handle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.tasks[name] != h {
		return false
	}
	delete(r.tasks, name)
	return true
}
