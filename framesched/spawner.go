package framesched

import "unsafe"

// Spawner is the capability a running Job's function receives so it can
// push further work without touching the scheduler's internals directly.
// It closes over the spawning worker's allocator and deque, and over the
// node (if any) the currently-running job belongs to.
//
// The node recorded here is always the node of the currently-executing
// root lineage: when a sub-job spawns a further sub-job, the new Spawner
// built for it inherits the same node, never the identity of whichever
// job happens to be running. That invariant is what makes recursively
// spawned sub-jobs account correctly against the original node (see the
// "Open question — resolved" note in SPEC_FULL.md §9).
type Spawner struct {
	allocator *WorkerAllocator
	queue     *Deque
	node      *Node
}

// spawn is the untyped implementation behind the generic Spawn helper in
// job.go. params must point at paramsSize bytes that fit within
// ParamBufferSize; that bound is checked by the caller.
func (s *Spawner) spawn(fn Func, params unsafe.Pointer, paramsSize uintptr, isSubJob bool) {
	job := s.allocator.Allocate()
	if job == nil {
		panic("framesched: job allocator exhausted; increase the chunk amount")
	}
	dst := unsafe.Slice((*byte)(unsafe.Pointer(&job.params[0])), ParamBufferSize)
	src := unsafe.Slice((*byte)(params), paramsSize)
	copy(dst, src)
	job.fn = fn
	if isSubJob {
		if s.node == nil {
			panic("framesched: cannot spawn a sub-job from a context with no owning node (free jobs cannot have sub-jobs)")
		}
		job.node = s.node
		s.node.jobAdded()
	} else {
		job.node = nil
	}
	if !s.queue.Push(job) {
		panic("framesched: deque overflow on spawn; increase QueueCapacity")
	}
}
