// Package bench builds the demo workloads the benchmark harness runs
// against a framesched.Scheduler: a trivial four-node diamond, and the
// larger parallel-generate-then-reduce workload used for the harness's
// single-threaded parity check.
package bench

import (
	"github.com/arborworks/framesched/framesched"
	"github.com/arborworks/framesched/stats"
)

// ParallelSumLeafSize is the largest range the generate stage will fill
// directly, rather than splitting further into two sub-jobs.
const ParallelSumLeafSize = 1024

// ParallelSumWorkload holds every buffer the parallel-sum graph's three
// stages read and write. All three nodes share one *ParallelSumWorkload
// by pointer rather than copying slices into each job's params blob,
// since a slice header alone (24 bytes) plus bookkeeping fields would
// overflow the fixed per-job parameter budget once a second slice is
// added.
type ParallelSumWorkload struct {
	Data      []int64
	Partials  []int64
	batchSize int
	Result    int64
}

type rangeParams struct {
	w      *ParallelSumWorkload
	lo, hi int
}

// generateRange is declared as a package-level variable holding a
// self-referencing closure so it can recursively spawn itself as further
// sub-jobs; Go has no way to pass a not-yet-finished function literal to
// itself by name otherwise.
var generateRange func(p *rangeParams, s *framesched.Spawner, info *stats.WorkerInfo)

func init() {
	generateRange = func(p *rangeParams, s *framesched.Spawner, info *stats.WorkerInfo) {
		if p.hi-p.lo <= ParallelSumLeafSize {
			for i := p.lo; i < p.hi; i++ {
				p.w.Data[i] = int64(i) + 1
			}
			return
		}
		mid := p.lo + (p.hi-p.lo)/2
		framesched.Spawn(s, generateRange, rangeParams{p.w, p.lo, mid}, true)
		framesched.Spawn(s, generateRange, rangeParams{p.w, mid, p.hi}, true)
	}
}

type batchSumParams struct {
	w           *ParallelSumWorkload
	batchAmount int
	batchSize   int
}

type batchIndexParams struct {
	w     *ParallelSumWorkload
	index int
}

func sumBatch(p *batchIndexParams, s *framesched.Spawner, info *stats.WorkerInfo) {
	logger := stats.NewUserJobLogger(info)
	defer logger.Close()

	lo := p.index * p.w.batchSize
	hi := lo + p.w.batchSize
	var sum int64
	for i := lo; i < hi; i++ {
		sum += p.w.Data[i]
	}
	p.w.Partials[p.index] = sum
}

func sumBatches(p *batchSumParams, s *framesched.Spawner, info *stats.WorkerInfo) {
	p.w.Partials = make([]int64, p.batchAmount)
	p.w.batchSize = p.batchSize
	for i := 0; i < p.batchAmount; i++ {
		framesched.Spawn(s, sumBatch, batchIndexParams{p.w, i}, true)
	}
}

type finalSumParams struct {
	w *ParallelSumWorkload
}

func sumFinal(p *finalSumParams, s *framesched.Spawner, info *stats.WorkerInfo) {
	logger := stats.NewUserJobLogger(info)
	defer logger.Close()

	var sum int64
	for _, partial := range p.w.Partials {
		sum += partial
	}
	p.w.Result = sum
}

// BuildParallelSum adds the generate, batch-sum, and final-sum nodes to g,
// wired as generate -> batchSum -> finalSum, and returns the shared
// workload the caller should inspect once the scheduler run completes.
func BuildParallelSum(g *framesched.Graph, valueAmount, batchAmount int) *ParallelSumWorkload {
	w := &ParallelSumWorkload{Data: make([]int64, valueAmount)}

	generate := framesched.AddNode(g, generateRange, rangeParams{w, 0, valueAmount})
	batchSum := framesched.AddNodeAfter(g, sumBatches, batchSumParams{w, batchAmount, valueAmount / batchAmount}, []*framesched.Node{generate})
	framesched.AddNodeAfter(g, sumFinal, finalSumParams{w}, []*framesched.Node{batchSum})

	return w
}

// SequentialSum computes the same result as BuildParallelSum's graph
// would, without any concurrency, for the harness's parity check.
func SequentialSum(valueAmount int) int64 {
	var sum int64
	for i := 0; i < valueAmount; i++ {
		sum += int64(i) + 1
	}
	return sum
}
