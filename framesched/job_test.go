package framesched

import (
	"testing"
	"unsafe"

	"github.com/arborworks/framesched/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobSize_IsWholeNumberOfCacheLines(t *testing.T) {
	assert.Equal(t, uintptr(0), unsafe.Sizeof(Job{})%CacheLineSize)
}

func TestJobSize_ParamBufferMeetsMinimumGuarantee(t *testing.T) {
	assert.GreaterOrEqual(t, ParamBufferSize, uintptr(MinParamBufferSize))
}

type smallParams struct {
	a, b int64
}

func TestJob_RunInvokesFunctionWithCopiedParams(t *testing.T) {
	chunkAllocator := NewChunkAllocator(1)
	wa := NewWorkerAllocator(chunkAllocator)
	var queue Deque
	info := stats.NewWorkerInfo(0)

	var observed smallParams
	var ranCount int
	fn := func(p *smallParams, s *Spawner, i *stats.WorkerInfo) {
		observed = *p
		ranCount++
	}

	spawner := &Spawner{allocator: wa, queue: &queue, node: nil}
	Spawn(spawner, fn, smallParams{a: 7, b: 9}, false)

	job := queue.Pop()
	require.NotNil(t, job)
	job.run(wa, &queue, info)

	assert.Equal(t, 1, ranCount)
	assert.Equal(t, smallParams{a: 7, b: 9}, observed)
}

func TestJob_RunPanicsWithoutFunction(t *testing.T) {
	var j Job
	wa := NewWorkerAllocator(NewChunkAllocator(1))
	var queue Deque
	assert.Panics(t, func() {
		j.run(wa, &queue, stats.NewWorkerInfo(0))
	})
}

type oversizedParams struct {
	data [ParamBufferSize + 8]byte
}

func TestSpawn_PanicsWhenParamsTooLarge(t *testing.T) {
	wa := NewWorkerAllocator(NewChunkAllocator(1))
	var queue Deque
	spawner := &Spawner{allocator: wa, queue: &queue, node: nil}

	fn := func(p *oversizedParams, s *Spawner, i *stats.WorkerInfo) {}
	assert.Panics(t, func() {
		Spawn(spawner, fn, oversizedParams{}, false)
	})
}
