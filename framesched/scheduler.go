package framesched

import (
	"fmt"
	"io"
	"math/rand"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/arborworks/framesched/stats"
)

const (
	stateWait int32 = iota
	stateWork
	stateQuit
)

// worker bundles everything one scheduler worker needs that must never be
// touched by any other worker while a run is in flight: its own deque, its
// own bump allocator, its own steal-target PRNG, and its own statistics.
type worker struct {
	index     uint32
	allocator *WorkerAllocator
	queue     *Deque
	rng       *rand.Rand
	stats     *stats.Worker
}

// stealTarget picks a worker index to attempt a steal from. The
// distribution's range is offset by the thief's own index (mirroring the
// original scheduler's per-worker distribution) so that different workers
// don't all race for the same victim on their very first steal attempt;
// it does not bother excluding the thief itself, since stealing from an
// empty queue (including, rarely, one's own) just costs a failed attempt.
func (w *worker) stealTarget(workerAmount uint32) uint32 {
	lo := 1 + w.index
	hi := workerAmount - 1
	if hi < 1 {
		hi = 1
	}
	hi += w.index
	span := int(hi-lo) + 1
	target := lo + uint32(w.rng.Intn(span))
	return target % workerAmount
}

// Scheduler owns a fixed pool of workers and runs Graphs across them using
// work-stealing. A Scheduler is long-lived: construct one, call Run as many
// times as needed (optionally against different Graphs via SetJobGraph),
// then Close it to stop its background goroutines.
type Scheduler struct {
	workerAmount   uint32
	workers        []*worker
	chunkAllocator *ChunkAllocator
	graph          *Graph

	// syncPoint rendezvouses every worker at the start and end of each run.
	syncPoint *barrier

	// state drives the background workers' thread_loop-equivalent: Wait
	// while idle between runs, Work while Run is in flight, Quit to shut
	// down for good.
	state *notifyInt32

	// stealerAmount and activeAmount implement the two-counter quiescence
	// protocol described in SPEC_FULL.md §4.7: stealerAmount counts
	// workers currently attempting a steal, activeAmount double-checks
	// that every worker agrees work is actually exhausted before anyone
	// is released from the run.
	stealerAmount *notifyInt32
	activeAmount  atomic.Int32

	wg sync.WaitGroup
}

// NewScheduler constructs a Scheduler with desiredWorkerAmount workers (at
// least 1; the calling goroutine of Run always participates as worker 0,
// and desiredWorkerAmount-1 further goroutines are spawned now, each
// pinned to its own OS thread via runtime.LockOSThread so that work
// scheduling is never at the mercy of the Go runtime's own goroutine
// migration). desiredAllocationChunkAmount is rounded up to at least
// desiredWorkerAmount, since every worker needs at least one chunk to make
// any progress at all.
func NewScheduler(desiredWorkerAmount, desiredAllocationChunkAmount uint32) *Scheduler {
	workerAmount := desiredWorkerAmount
	if workerAmount < 1 {
		workerAmount = 1
	}
	chunkAmount := desiredAllocationChunkAmount
	if chunkAmount < workerAmount {
		chunkAmount = workerAmount
	}

	s := &Scheduler{
		workerAmount:   workerAmount,
		workers:        make([]*worker, workerAmount),
		chunkAllocator: NewChunkAllocator(chunkAmount),
		syncPoint:      newBarrier(int(workerAmount)),
		state:          newNotifyInt32(stateWait),
		stealerAmount:  newNotifyInt32(0),
	}

	s.createWorker(0)
	s.wg.Add(int(workerAmount) - 1)
	for i := uint32(1); i < workerAmount; i++ {
		go s.threadLoop(i)
	}
	return s
}

// WorkerAmount returns the number of workers this Scheduler was built with.
func (s *Scheduler) WorkerAmount() uint32 { return s.workerAmount }

// SetJobGraph changes the Graph the next call to Run will execute. Safe to
// call between runs; never call it while Run is in flight.
func (s *Scheduler) SetJobGraph(g *Graph) {
	s.graph = g
}

// Close stops every background worker goroutine spawned by NewScheduler and
// waits for them to exit. Never call Run after Close.
func (s *Scheduler) Close() {
	s.state.Store(stateQuit)
	s.wg.Wait()
}

func (s *Scheduler) createWorker(index uint32) {
	s.workers[index] = &worker{
		index:     index,
		allocator: NewWorkerAllocator(s.chunkAllocator),
		queue:     &Deque{},
		rng:       rand.New(rand.NewSource(0xbabe + int64(index))),
		stats:     stats.New(index),
	}
}

func (s *Scheduler) threadLoop(index uint32) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer s.wg.Done()

	s.createWorker(index)
	for {
		s.state.WaitWhile(stateWait)
		if s.state.Load() == stateQuit {
			return
		}
		s.runWorker(index)
	}
}

// Run executes the currently-set Graph to completion, using the calling
// goroutine as worker 0. It blocks until every job in the graph (roots,
// successors, and every sub-job spawned along the way) has run exactly
// once. The graph may be run again immediately afterward: every Node
// restores its own counters as it completes, and the chunk allocator is
// reset here, after every worker has returned.
func (s *Scheduler) Run() {
	if s.graph == nil {
		panic("framesched: Run called with no job graph set")
	}
	s.state.Store(stateWork)
	s.stealerAmount.Store(0)
	s.activeAmount.Store(int32(s.workerAmount))

	s.runWorker(0)

	s.chunkAllocator.Reset()
}

func (s *Scheduler) runWorker(index uint32) {
	s.syncPoint.Wait()
	w := s.workers[index]
	timer := stats.NewTimer()

	for i := index; ; i += s.workerAmount {
		rootJob := s.graph.RootJobAt(int(i))
		if rootJob == nil {
			break
		}
		rootJob.run(w.allocator, w.queue, w.stats.Info)
		w.stats.AddOwnJob()
	}
	w.stats.AddWorkTiming(timer)

	s.workLoop(w)

	if index == 0 {
		// Safe to flip the state between the two barrier crossings: every
		// other worker is either still inside workLoop or already
		// blocked on the second syncPoint.Wait below.
		s.state.Store(stateWait)
	}
	w.stats.AddTotalTiming(timer)
	s.syncPoint.Wait()
	w.queue.Reset()
	w.allocator.Reset()
}

func (s *Scheduler) workLoop(w *worker) {
	for {
		func() {
			timer := stats.NewTimer()
			for {
				job := w.queue.Pop()
				if job == nil {
					break
				}
				job.run(w.allocator, w.queue, w.stats.Info)
				w.stats.AddOwnJob()
			}
			w.stats.AddWorkTiming(timer)
		}()

		s.stealerAmount.Add(1)
		for {
			target := w.stealTarget(s.workerAmount)
			if stolen := s.workers[target].queue.Steal(); stolen != nil {
				s.stealerAmount.Add(-1)
				timer := stats.NewTimer()
				stolen.run(w.allocator, w.queue, w.stats.Info)
				w.stats.AddStolenJob()
				w.stats.AddWorkTiming(timer)
				break
			}
			w.stats.AddFailedSteal()

			if s.stealerAmount.Load() >= int32(s.workerAmount) {
				if s.activeAmount.Add(-1) == 0 {
					// Last worker to agree everyone is stealing: declare
					// the run quiescent and wake everyone parked below.
					s.stealerAmount.Store(int32(s.workerAmount) + 1)
				}

				s.stealerAmount.WaitWhile(int32(s.workerAmount))
				if s.stealerAmount.Load() > int32(s.workerAmount) {
					return
				}

				// Someone else produced more work (stole successfully and
				// decremented stealerAmount) before quiescence could be
				// confirmed; rejoin as an active worker.
				w.stats.AddFalseWait()
				s.activeAmount.Add(1)
			}

			runtime.Gosched()
		}
	}
}

// WriteStatistics renders a human-readable statistics report for every
// worker to out, in worker-index order.
func (s *Scheduler) WriteStatistics(out io.Writer) error {
	for _, w := range s.workers {
		if err := w.stats.Write(out); err != nil {
			return fmt.Errorf("framesched: writing worker statistics: %w", err)
		}
	}
	return nil
}

// ResetStatistics zeroes every worker's accumulated statistics without
// affecting scheduling behavior.
func (s *Scheduler) ResetStatistics() {
	for _, w := range s.workers {
		w.stats.Reset()
	}
}

// Stats returns the accumulated statistics for the worker at index, mainly
// for tests that verify individual counters.
func (s *Scheduler) Stats(index uint32) *stats.Worker {
	return s.workers[index].stats
}
