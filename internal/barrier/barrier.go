package barrier

import (
	"context"
	"sync"
	"time"

	"github.com/microparty/microparty/internal/dependencies/clock"
	"github.com/microparty/microparty/internal/model"
)

// Registry tracks the readiness barrier for every session. At most one
// waiter may be outstanding per session: the phase loop is strictly
// sequential, so a second Arm for the same session is a programming error.
type Registry struct {
	mu      sync.Mutex
	clock   clock.Clock
	waiters map[model.SessionID]chan struct{}
}

// NewRegistry creates an empty barrier registry
func NewRegistry(clk clock.Clock) *Registry {
	return &Registry{
		clock:   clk,
		waiters: make(map[model.SessionID]chan struct{}),
	}
}

// Arm registers a one-shot waiter for the session and returns the handle
// the phase loop blocks on. Returns ErrBarrierArmed if a waiter is already
// outstanding for this session.
func (r *Registry) Arm(id model.SessionID) (*Wait, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.waiters[id]; ok {
		return nil, model.ErrBarrierArmed
	}

	ch := make(chan struct{})
	r.waiters[id] = ch
	return &Wait{reg: r, id: id, ch: ch}, nil
}

// Resolve satisfies the session's outstanding waiter, if any. The waiter is
// deregistered and closed under the registry lock, so resolution happens
// exactly once; without an outstanding waiter this is a no-op. Returns
// whether a waiter was resolved.
func (r *Registry) Resolve(id model.SessionID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch, ok := r.waiters[id]
	if !ok {
		return false
	}
	delete(r.waiters, id)
	close(ch)
	return true
}

// Armed reports whether the session currently has an outstanding waiter
func (r *Registry) Armed(id model.SessionID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.waiters[id]
	return ok
}

// Wait is a one-shot barrier handle scoped to a single phase of a single
// session.
type Wait struct {
	reg *Registry
	id  model.SessionID
	ch  chan struct{}
}

// Await blocks until the waiter is resolved, the timeout elapses, or the
// context is cancelled, whichever comes first. The losing paths are
// disarmed so a late resolution or a late timer fire acts on nothing.
//
// allReady is re-checked once on entry: a ready burst can land in the
// window between the readiness reset and this call, when Resolve finds no
// registered waiter yet. Await deliberately does not report which path won;
// callers re-read session state afterwards.
func (w *Wait) Await(ctx context.Context, timeout time.Duration, allReady func() bool) {
	if allReady != nil && allReady() {
		w.disarm()
		return
	}

	select {
	case <-w.ch:
		// Resolved; Resolve already deregistered the waiter
	case <-w.reg.clock.After(timeout):
		w.disarm()
	case <-ctx.Done():
		w.disarm()
	}
}

// disarm removes the waiter unless Resolve already took it
func (w *Wait) disarm() {
	w.reg.mu.Lock()
	defer w.reg.mu.Unlock()

	if ch, ok := w.reg.waiters[w.id]; ok && ch == w.ch {
		delete(w.reg.waiters, w.id)
	}
}
