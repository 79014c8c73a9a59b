package framesched

import "sync/atomic"

// AllocationChunkSize is the number of Jobs handed out together whenever a
// WorkerAllocator needs to fetch a fresh chunk from the shared
// ChunkAllocator. Most allocations are a single thread-local bump; only
// one atomic fetch-add is paid per AllocationChunkSize Jobs.
const AllocationChunkSize = 2048

// jobChunk is the unit of storage the ChunkAllocator hands out. Its
// backing array is never touched by a destructor; Jobs are trivially
// copyable payloads and need none.
type jobChunk struct {
	slots [AllocationChunkSize]Job
}

// ChunkAllocator is a lock-free linear allocator of jobChunks, shared by
// every worker's WorkerAllocator. Allocation is a single atomic fetch-add
// into a pre-sized slice; once exhausted it always returns nil, which the
// caller treats as a sizing bug rather than something to recover from.
type ChunkAllocator struct {
	chunks   []*jobChunk
	nextIdx  atomic.Uint32
}

// NewChunkAllocator pre-allocates amount chunks of AllocationChunkSize
// Jobs each.
func NewChunkAllocator(amount uint32) *ChunkAllocator {
	chunks := make([]*jobChunk, amount)
	for i := range chunks {
		chunks[i] = &jobChunk{}
	}
	return &ChunkAllocator{chunks: chunks}
}

// allocate hands out the next unused chunk, or nil if every pre-allocated
// chunk has already been claimed this run.
func (c *ChunkAllocator) allocate() *jobChunk {
	idx := c.nextIdx.Add(1) - 1
	if idx >= uint32(len(c.chunks)) {
		return nil
	}
	return c.chunks[idx]
}

// Reset reclaims every chunk for the next run. Only valid once every
// WorkerAllocator has crossed the scheduler's exit barrier.
func (c *ChunkAllocator) Reset() {
	c.nextIdx.Store(0)
}

// WorkerAllocator is a thread-local bump allocator of Jobs, carving one
// jobChunk at a time out of a shared ChunkAllocator. Never share a
// WorkerAllocator between workers.
type WorkerAllocator struct {
	chunkAllocator *ChunkAllocator
	chunk          *jobChunk
	nextIdx        uint32
}

// NewWorkerAllocator constructs a WorkerAllocator drawing chunks from
// chunkAllocator.
func NewWorkerAllocator(chunkAllocator *ChunkAllocator) *WorkerAllocator {
	return &WorkerAllocator{chunkAllocator: chunkAllocator}
}

// Allocate returns a pointer to an unused Job slot, fetching a new chunk
// from the shared allocator on a chunk-boundary crossing. Slots are not
// cleared: once the allocators have been reset, a slot still holds what
// the previous run wrote into it until the caller overwrites it. Returns
// nil only if the ChunkAllocator itself is exhausted, which the scheduler
// treats as an unrecoverable sizing error.
func (a *WorkerAllocator) Allocate() *Job {
	if a.chunk == nil {
		a.chunk = a.chunkAllocator.allocate()
		if a.chunk == nil {
			return nil
		}
		a.nextIdx = 0
	}
	job := &a.chunk.slots[a.nextIdx]
	a.nextIdx++
	if a.nextIdx == AllocationChunkSize {
		a.chunk = nil
	}
	return job
}

// Reset forgets the currently held chunk. The chunk's storage itself is
// reclaimed by the shared ChunkAllocator's own Reset.
func (a *WorkerAllocator) Reset() {
	a.chunk = nil
}
