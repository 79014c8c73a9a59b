package bench

import (
	"github.com/arborworks/framesched/framesched"
	"github.com/arborworks/framesched/stats"
)

// DiamondWorkload is the shared output buffer for the diamond demo graph:
// index 0 is node A's output, 1 is B's, 2 is C's, 3 is D's. Every slot is
// only ever written by the one node that owns it, and only ever read by a
// node that has it as a (possibly transitive) predecessor, so plain reads
// and writes need no synchronization of their own: the scheduler's
// completion protocol is the synchronization.
type DiamondWorkload struct {
	Output [4]int32
}

type diamondParams struct {
	w   *DiamondWorkload
	idx int
}

func diamondStep(p *diamondParams, s *framesched.Spawner, info *stats.WorkerInfo) {
	p.w.Output[p.idx] = 1
}

// BuildDiamond adds the classic A -> {B, C} -> D graph to g: B and C each
// depend only on A, D depends on both B and C.
func BuildDiamond(g *framesched.Graph) *DiamondWorkload {
	w := &DiamondWorkload{}
	a := framesched.AddNode(g, diamondStep, diamondParams{w, 0})
	b := framesched.AddNodeAfter(g, diamondStep, diamondParams{w, 1}, []*framesched.Node{a})
	c := framesched.AddNodeAfter(g, diamondStep, diamondParams{w, 2}, []*framesched.Node{a})
	framesched.AddNodeAfter(g, diamondStep, diamondParams{w, 3}, []*framesched.Node{b, c})
	return w
}
