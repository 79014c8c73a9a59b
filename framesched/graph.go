package framesched

import (
	"fmt"
	"sync/atomic"
	"unsafe"
)

// Node is a vertex in a Graph. It embeds a single root Job that begins
// running once every predecessor node has fully completed, and tracks, via
// two atomic counters, both how many predecessors remain and how much work
// (the root plus any sub-jobs it spawns) is still outstanding. A Node
// restores both counters to their starting values the instant it finishes,
// which is what lets the same Graph be run repeatedly without being
// rebuilt.
type Node struct {
	root Job

	// initialPredecessorAmount is the snapshot predecessorAmount is
	// restored to on completion; set once, during construction, and
	// read-only afterwards.
	initialPredecessorAmount int32
	predecessorAmount        atomic.Int32
	unfinishedAmount         atomic.Int32

	successors []*Node
	owner      *Graph
}

func newNode[P any](owner *Graph, fn func(params *P, spawner *Spawner, info *WorkerInfo), params P) *Node {
	if size := unsafe.Sizeof(params); size > ParamBufferSize {
		panic(fmt.Sprintf("framesched: params of size %d do not fit in the %d-byte job payload", size, ParamBufferSize))
	}
	n := &Node{owner: owner}
	n.unfinishedAmount.Store(1)
	thunk := func(raw unsafe.Pointer, spawner *Spawner, info *WorkerInfo) {
		fn((*P)(raw), spawner, info)
	}
	n.root.fn = thunk
	n.root.node = n
	*(*P)(unsafe.Pointer(&n.root.params[0])) = params
	return n
}

// jobAdded is called by a Spawner whenever a sub-job is spawned into this
// node. It must be incremented before the sub-job is visible to any other
// worker (i.e. before it is pushed), or a racing completion could observe
// unfinishedAmount == 1, decrement to zero, and fire successors before the
// sub-job is accounted for.
func (n *Node) jobAdded() {
	n.unfinishedAmount.Add(1)
}

// jobCompleted is invoked once per Job (root or sub-job) belonging to this
// node, after that Job's function returns. Only the thread that observes
// unfinishedAmount transition to zero owns the node's completion, and
// exactly one thread ever will.
func (n *Node) jobCompleted(queue *Deque) {
	old := n.unfinishedAmount.Add(-1)
	if old < 0 {
		panic("framesched: node unfinishedAmount underflowed")
	}
	if old > 0 {
		return
	}
	for _, successor := range n.successors {
		oldPred := successor.predecessorAmount.Add(-1)
		if oldPred < 0 {
			panic("framesched: node predecessorAmount underflowed")
		}
		if oldPred == 0 {
			if !queue.Push(&successor.root) {
				panic("framesched: deque overflow pushing successor root job; increase QueueCapacity")
			}
		}
	}
	n.unfinishedAmount.Store(1)
	n.predecessorAmount.Store(n.initialPredecessorAmount)
}

// addSuccessor records that n must complete before successor can become
// runnable.
func (n *Node) addSuccessor(successor *Node) {
	n.successors = append(n.successors, successor)
	successor.initialPredecessorAmount++
	successor.predecessorAmount.Store(successor.initialPredecessorAmount)
}

// isAncestorOf reports whether descendant is reachable from n by
// following successor edges. Used only at construction time, to elide
// redundant predecessor edges.
func (n *Node) isAncestorOf(descendant *Node) bool {
	for _, s := range n.successors {
		if s == descendant {
			return true
		}
	}
	for _, s := range n.successors {
		if s.isAncestorOf(descendant) {
			return true
		}
	}
	return false
}

// rootJob returns the Job embedded in this node, for the scheduler's
// internal use when distributing root jobs across workers.
func (n *Node) rootJob() *Job { return &n.root }

// Graph owns a set of Nodes and tracks which of them have no predecessors
// (the roots the scheduler starts from). A Graph is built up front, single
// threaded, and is immutable for the lifetime of every Run it drives;
// reusability across runs comes entirely from each Node restoring its own
// counters (see Node.jobCompleted), not from rebuilding the Graph.
type Graph struct {
	nodes     []*Node
	rootNodes []*Node
}

// NewGraph returns an empty Graph.
func NewGraph() *Graph {
	return &Graph{}
}

// AddNode creates a node with no declared predecessors; its root job runs
// as soon as the scheduler starts a run. fn is the node's root job body;
// params is copied into the job's inline blob and must fit within
// ParamBufferSize.
func AddNode[P any](g *Graph, fn func(params *P, spawner *Spawner, info *WorkerInfo), params P) *Node {
	n := newNode(g, fn, params)
	g.nodes = append(g.nodes, n)
	g.rootNodes = append(g.rootNodes, n)
	return n
}

// AddNodeAfter creates a node that depends on every node in predecessors.
// All predecessors are declared in a single call, which is what makes
// cycles structurally impossible: a node can only ever point at nodes that
// already existed (and so already had no way to point back at it) before
// it was created. Redundant edges — a predecessor that is already a
// transitive ancestor of another declared predecessor — are silently
// elided, matching the original scheduler's behavior (see S4 in
// SPEC_FULL.md).
func AddNodeAfter[P any](g *Graph, fn func(params *P, spawner *Spawner, info *WorkerInfo), params P, predecessors []*Node) *Node {
	n := newNode(g, fn, params)
	g.nodes = append(g.nodes, n)
	for _, predecessor := range predecessors {
		if predecessor.owner != g {
			panic("framesched: predecessor belongs to a different graph")
		}
		redundant := false
		for _, other := range predecessors {
			if other != predecessor && predecessor.isAncestorOf(other) {
				redundant = true
				break
			}
		}
		if !redundant {
			predecessor.addSuccessor(n)
		}
	}
	return n
}

// RootJobAt returns the root job of the index-th root node, or nil if
// index is out of bounds. Used by the scheduler to stride-distribute root
// jobs across workers without allocating a slice copy per run.
func (g *Graph) RootJobAt(index int) *Job {
	if index < 0 || index >= len(g.rootNodes) {
		return nil
	}
	return g.rootNodes[index].rootJob()
}

// NodeCount returns the total number of nodes in the graph, for
// diagnostics and tests.
func (g *Graph) NodeCount() int { return len(g.nodes) }
