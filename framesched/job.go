package framesched

import (
	"fmt"
	"unsafe"

	"github.com/arborworks/framesched/stats"
)

// CacheLineSize is the assumed cache line size used to round Job's size up
// to a whole number of cache lines. Only the size is rounded; nothing
// places a Job's address on a cache-line boundary. Override by editing this constant for a target
// platform with a different line size; it is compile-time configuration,
// not a runtime flag, matching §6 of the design.
const CacheLineSize = 64

// MinParamBufferSize is the minimum guaranteed size, in bytes, available
// to a job's inline parameter blob before rounding Job up to a multiple
// of CacheLineSize.
const MinParamBufferSize = 32

// jobCoreSize accounts for the two pointer-sized fields every Job carries
// besides its parameter blob: the function value and the owning node
// back-pointer.
const jobCoreSize = unsafe.Sizeof(uintptr(0)) + unsafe.Sizeof(uintptr(0))

// minJobSize and jobSize mirror the original layout computation: round the
// minimum required size up to a whole number of cache lines.
const minJobSize = MinParamBufferSize + jobCoreSize
const jobSize = ((minJobSize + CacheLineSize - 1) / CacheLineSize) * CacheLineSize

// ParamBufferSize is the actual number of bytes available to a Job's
// inline parameter blob once the record has been rounded up to a whole
// number of cache lines.
const ParamBufferSize = jobSize - jobCoreSize

// WorkerInfo identifies the worker currently running a job and tracks
// that job's user-work timing. It is a type alias for stats.WorkerInfo so
// that job bodies never need to import the stats package directly.
type WorkerInfo = stats.WorkerInfo

// Func is the signature every job body must implement. It receives a
// pointer to its own (copied) parameter blob, a Spawner capability for
// pushing further work, and the WorkerInfo of the worker currently
// running it. Using a plain function value instead of an interface avoids
// a vtable-style indirect call and keeps Job trivially copyable.
type Func func(params unsafe.Pointer, spawner *Spawner, info *stats.WorkerInfo)

// Job is a cache-line-sized unit of work: an inline, trivially-copyable
// parameter blob, a function value, and an optional back-pointer to the
// graph node it belongs to (nil for free jobs). Its size is a whole
// number of cache lines; its address is not forced onto a cache-line
// boundary. A node's root Job is embedded in its Node; every spawned Job
// lives inside a jobChunk handed out to a WorkerAllocator. Each Job is
// invoked exactly once per run.
type Job struct {
	params [ParamBufferSize]byte
	fn     Func
	node   *Node
}

// run invokes the job's function and, if it belongs to a graph node,
// reports completion so the node's bookkeeping can unblock successors.
// It is called exactly once per Job, from the worker that popped or
// stole it, or, for the root job of a node with no predecessors, from the
// worker whose stride covers that root.
func (j *Job) run(allocator *WorkerAllocator, queue *Deque, info *stats.WorkerInfo) {
	if j.fn == nil {
		panic("framesched: job has no function; allocator returned a zeroed slot")
	}
	spawner := &Spawner{allocator: allocator, queue: queue, node: j.node}
	j.fn(unsafe.Pointer(&j.params[0]), spawner, info)
	if j.node != nil {
		j.node.jobCompleted(queue)
	}
}

// Spawn allocates a new Job via s, copies params into its inline blob,
// and wires it up as described by isSubJob, before pushing it onto the
// spawning worker's own deque. P must fit within ParamBufferSize; this is
// checked at runtime since Go generics offer no compile-time analogue of
// a C++ static_assert against an arbitrary type parameter's size.
//
// Spawn is a free function rather than a method so that job authors get
// static type-checking on params against fn's expected parameter type.
func Spawn[P any](s *Spawner, fn func(params *P, spawner *Spawner, info *stats.WorkerInfo), params P, isSubJob bool) {
	if size := unsafe.Sizeof(params); size > ParamBufferSize {
		panic(fmt.Sprintf("framesched: params of size %d do not fit in the %d-byte job payload", size, ParamBufferSize))
	}
	thunk := func(raw unsafe.Pointer, spawner *Spawner, info *stats.WorkerInfo) {
		fn((*P)(raw), spawner, info)
	}
	s.spawn(thunk, unsafe.Pointer(&params), unsafe.Sizeof(params), isSubJob)
}
