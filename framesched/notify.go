package framesched

import "sync"

// notifyInt32 is a small futex-style primitive: an int32 that can be
// atomically modified and whose modifications wake any goroutine parked
// waiting for the value to change away from a specific number. Go's
// standard library exposes no public wait/notify for an arbitrary
// integer (the atomic package only added this for runtime-internal use),
// so the quiescence protocol in §4.7 is built directly on sync.Cond, the
// same primitive the dependency survey's DAG schedulers reach for when
// they need worker goroutines to block until graph state changes.
type notifyInt32 struct {
	mu   sync.Mutex
	cond *sync.Cond
	v    int32
}

func newNotifyInt32(initial int32) *notifyInt32 {
	n := &notifyInt32{v: initial}
	n.cond = sync.NewCond(&n.mu)
	return n
}

// Load returns the current value.
func (n *notifyInt32) Load() int32 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.v
}

// Store sets the value and wakes every waiter.
func (n *notifyInt32) Store(v int32) {
	n.mu.Lock()
	n.v = v
	n.mu.Unlock()
	n.cond.Broadcast()
}

// Add adds delta to the value, wakes every waiter, and returns the new
// value.
func (n *notifyInt32) Add(delta int32) int32 {
	n.mu.Lock()
	n.v += delta
	nv := n.v
	n.mu.Unlock()
	n.cond.Broadcast()
	return nv
}

// WaitWhile blocks until the value is no longer equal to expected. If it
// is already different when called, returns immediately without
// blocking.
func (n *notifyInt32) WaitWhile(expected int32) {
	n.mu.Lock()
	for n.v == expected {
		n.cond.Wait()
	}
	n.mu.Unlock()
}
