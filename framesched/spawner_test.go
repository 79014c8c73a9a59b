package framesched

import (
	"testing"

	"github.com/arborworks/framesched/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpawner_FreeJobHasNoNode(t *testing.T) {
	wa := NewWorkerAllocator(NewChunkAllocator(1))
	var queue Deque
	spawner := &Spawner{allocator: wa, queue: &queue, node: nil}

	fn := func(p *smallParams, s *Spawner, i *stats.WorkerInfo) {}
	Spawn(spawner, fn, smallParams{}, false)

	job := queue.Pop()
	require.NotNil(t, job)
	assert.Nil(t, job.node)
}

func TestSpawner_SubJobInheritsSpawningNode(t *testing.T) {
	g := NewGraph()
	node := AddNode(g, func(p *smallParams, s *Spawner, i *stats.WorkerInfo) {}, smallParams{})

	wa := NewWorkerAllocator(NewChunkAllocator(1))
	var queue Deque
	spawner := &Spawner{allocator: wa, queue: &queue, node: node}

	fn := func(p *smallParams, s *Spawner, i *stats.WorkerInfo) {}
	Spawn(spawner, fn, smallParams{}, true)

	job := queue.Pop()
	require.NotNil(t, job)
	assert.Same(t, node, job.node)
	// jobAdded incremented unfinishedAmount from 1 (the node's own root) to 2.
	assert.Equal(t, int32(2), node.unfinishedAmount.Load())
}

func TestSpawner_SubJobWithoutOwningNodePanics(t *testing.T) {
	wa := NewWorkerAllocator(NewChunkAllocator(1))
	var queue Deque
	spawner := &Spawner{allocator: wa, queue: &queue, node: nil}

	fn := func(p *smallParams, s *Spawner, i *stats.WorkerInfo) {}
	assert.Panics(t, func() {
		Spawn(spawner, fn, smallParams{}, true)
	})
}

func TestSpawner_SpawnPanicsWhenQueueFull(t *testing.T) {
	// Sized generously so the allocator never runs out before the queue
	// does; this test is about Deque.Push's overflow panic, not
	// allocator exhaustion.
	wa := NewWorkerAllocator(NewChunkAllocator((QueueCapacity / AllocationChunkSize) + 2))
	var queue Deque
	spawner := &Spawner{allocator: wa, queue: &queue, node: nil}
	fn := func(p *smallParams, s *Spawner, i *stats.WorkerInfo) {}

	for i := 0; i < QueueCapacity; i++ {
		Spawn(spawner, fn, smallParams{}, false)
	}
	assert.Panics(t, func() {
		Spawn(spawner, fn, smallParams{}, false)
	})
}
