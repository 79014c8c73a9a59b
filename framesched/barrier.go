package framesched

import "sync"

// barrier is a cyclic rendezvous point for a fixed number of goroutines:
// every call to Wait blocks until parties goroutines have called it, then
// releases all of them together and immediately resets so the same
// barrier can be used again on the next run. Go's sync package has no
// such primitive (sync.WaitGroup is one-shot and cannot be safely reused
// while a previous Wait might still be releasing waiters), so this is
// built directly on sync.Cond, generalizing the one-shot WaitGroup
// rendezvous pattern into something cyclic.
type barrier struct {
	mu      sync.Mutex
	cond    *sync.Cond
	parties int
	count   int
	gen     uint64
}

// newBarrier returns a barrier that releases once parties goroutines have
// called Wait.
func newBarrier(parties int) *barrier {
	b := &barrier{parties: parties}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Wait blocks the calling goroutine until parties goroutines (across the
// whole barrier) have called Wait for the current generation, then
// returns in all of them together.
func (b *barrier) Wait() {
	b.mu.Lock()
	gen := b.gen
	b.count++
	if b.count == b.parties {
		b.count = 0
		b.gen++
		b.cond.Broadcast()
		b.mu.Unlock()
		return
	}
	for gen == b.gen {
		b.cond.Wait()
	}
	b.mu.Unlock()
}
