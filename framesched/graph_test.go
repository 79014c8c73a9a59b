package framesched

import (
	"testing"

	"github.com/arborworks/framesched/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopParams struct{}

func noop(p *noopParams, s *Spawner, i *stats.WorkerInfo) {}

func TestGraph_AddNodeHasNoPredecessors(t *testing.T) {
	g := NewGraph()
	n := AddNode(g, noop, noopParams{})
	assert.Equal(t, int32(0), n.predecessorAmount.Load())
	assert.Equal(t, int32(0), n.initialPredecessorAmount)
}

func TestGraph_AddNodeAfterTracksPredecessorCount(t *testing.T) {
	g := NewGraph()
	a := AddNode(g, noop, noopParams{})
	b := AddNodeAfter(g, noop, noopParams{}, []*Node{a})
	assert.Equal(t, int32(1), b.predecessorAmount.Load())
}

// TestGraph_RedundantPredecessorIsElided builds A, B (pred A), C (preds A,
// B) and checks that C's predecessor count is 1, not 2, since the A->C
// edge is redundant given the transitive A->B->C path.
func TestGraph_RedundantPredecessorIsElided(t *testing.T) {
	g := NewGraph()
	a := AddNode(g, noop, noopParams{})
	b := AddNodeAfter(g, noop, noopParams{}, []*Node{a})
	c := AddNodeAfter(g, noop, noopParams{}, []*Node{a, b})

	assert.Equal(t, int32(1), c.predecessorAmount.Load())
	require.Len(t, a.successors, 1)
	assert.Same(t, b, a.successors[0])
}

func TestNode_JobCompletedPushesSuccessorOnceUnblocked(t *testing.T) {
	g := NewGraph()
	a := AddNode(g, noop, noopParams{})
	b := AddNodeAfter(g, noop, noopParams{}, []*Node{a})

	var queue Deque
	a.jobCompleted(&queue)

	job := queue.Pop()
	require.NotNil(t, job)
	assert.Same(t, &b.root, job)
}

func TestNode_JobCompletedWaitsForAllPredecessors(t *testing.T) {
	g := NewGraph()
	a := AddNode(g, noop, noopParams{})
	b := AddNode(g, noop, noopParams{})
	c := AddNodeAfter(g, noop, noopParams{}, []*Node{a, b})

	var queue Deque
	a.jobCompleted(&queue)
	assert.Nil(t, queue.Pop(), "c must not run until b also completes")

	b.jobCompleted(&queue)
	job := queue.Pop()
	require.NotNil(t, job)
	assert.Same(t, &c.root, job)
}

func TestNode_JobCompletedRestoresCountersForReuse(t *testing.T) {
	g := NewGraph()
	a := AddNode(g, noop, noopParams{})
	b := AddNodeAfter(g, noop, noopParams{}, []*Node{a})

	var queue Deque
	a.jobCompleted(&queue)
	require.NotNil(t, queue.Pop())

	assert.Equal(t, int32(1), a.unfinishedAmount.Load())
	assert.Equal(t, int32(1), b.predecessorAmount.Load())

	// Running again must behave identically.
	a.jobCompleted(&queue)
	job := queue.Pop()
	require.NotNil(t, job)
	assert.Same(t, &b.root, job)
}

func TestNode_JobAddedDelaysCompletion(t *testing.T) {
	g := NewGraph()
	a := AddNode(g, noop, noopParams{})
	b := AddNodeAfter(g, noop, noopParams{}, []*Node{a})

	a.jobAdded() // simulate a sub-job spawned from a's root
	var queue Deque
	a.jobCompleted(&queue) // the root itself finishing
	assert.Nil(t, queue.Pop(), "a is not done until its sub-job also completes")

	a.jobCompleted(&queue) // the sub-job finishing
	job := queue.Pop()
	require.NotNil(t, job)
	assert.Same(t, &b.root, job)
}

func TestGraph_RootJobAtIsNilPastTheLastRoot(t *testing.T) {
	g := NewGraph()
	AddNode(g, noop, noopParams{})
	assert.NotNil(t, g.RootJobAt(0))
	assert.Nil(t, g.RootJobAt(1))
	assert.Nil(t, g.RootJobAt(-1))
}

func TestAddNodeAfter_PanicsOnForeignGraphPredecessor(t *testing.T) {
	g1 := NewGraph()
	g2 := NewGraph()
	a := AddNode(g1, noop, noopParams{})
	assert.Panics(t, func() {
		AddNodeAfter(g2, noop, noopParams{}, []*Node{a})
	})
}
