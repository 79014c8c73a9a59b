// Package stats holds the per-worker counters and timing helpers the
// scheduler accumulates while running a graph. Nothing here is on the
// allocation hot path; all writes happen either once per job or once per
// run boundary.
package stats

import (
	"fmt"
	"io"
	"time"
)

// WorkerInfo is handed to every running job function. It identifies the
// worker the job is currently executing on and accumulates the "user job"
// timing that only the job function itself knows how to attribute (as
// opposed to scheduling overhead, which the run loop tracks on its own).
type WorkerInfo struct {
	index           uint32
	userJobAmount   uint32
	userJobDuration time.Duration
}

// NewWorkerInfo constructs a WorkerInfo for the given worker index.
func NewWorkerInfo(index uint32) *WorkerInfo {
	return &WorkerInfo{index: index}
}

// Index returns the owning worker's index.
func (w *WorkerInfo) Index() uint32 { return w.index }

// Timer is a trivial stopwatch, started at construction.
type Timer struct {
	start time.Time
}

// NewTimer starts a new Timer.
func NewTimer() Timer { return Timer{start: time.Now()} }

// Elapsed returns the duration since the Timer was started.
func (t Timer) Elapsed() time.Duration { return time.Since(t.start) }

// UserJobLogger is an RAII-style helper a job function constructs at the
// top of its user-work section and lets fall out of scope (via defer) when
// that work is done. It folds the elapsed time into the owning WorkerInfo.
type UserJobLogger struct {
	info  *WorkerInfo
	timer Timer
}

// NewUserJobLogger starts timing a user-work section on behalf of info.
// Callers are expected to `defer logger.Close()`.
func NewUserJobLogger(info *WorkerInfo) UserJobLogger {
	return UserJobLogger{info: info, timer: NewTimer()}
}

// Close folds the elapsed time into the WorkerInfo. Safe to call exactly
// once; typically invoked via defer.
func (l UserJobLogger) Close() {
	l.info.userJobAmount++
	l.info.userJobDuration += l.timer.Elapsed()
}

// Worker holds the counters for a single worker, plus the WorkerInfo passed
// to that worker's job functions. Every field here is written only by the
// owning worker; reads from other goroutines only happen between runs, once
// the scheduler's exit barrier has been crossed.
type Worker struct {
	Info *WorkerInfo

	ownJobAmount    uint32
	stolenJobAmount uint32
	failedSteals    uint64
	falseWaits      uint64
	totalDuration   time.Duration
	workDuration    time.Duration
}

// New constructs a Worker statistics block for the given worker index.
func New(index uint32) *Worker {
	return &Worker{Info: NewWorkerInfo(index)}
}

func (w *Worker) AddOwnJob()            { w.ownJobAmount++ }
func (w *Worker) AddStolenJob()         { w.stolenJobAmount++ }
func (w *Worker) AddFailedSteal()       { w.failedSteals++ }
func (w *Worker) AddFalseWait()         { w.falseWaits++ }
func (w *Worker) AddTotalTiming(t Timer) { w.totalDuration += t.Elapsed() }
func (w *Worker) AddWorkTiming(t Timer)  { w.workDuration += t.Elapsed() }

// OwnJobAmount and StolenJobAmount are exposed primarily for tests that
// verify invariant 4 of the testable-properties list: own+stolen must equal
// total jobs executed on a worker.
func (w *Worker) OwnJobAmount() uint32    { return w.ownJobAmount }
func (w *Worker) StolenJobAmount() uint32 { return w.stolenJobAmount }
func (w *Worker) FailedSteals() uint64    { return w.failedSteals }
func (w *Worker) FalseWaits() uint64      { return w.falseWaits }

// Write renders a free-form, human-readable report for this worker to
// out, in the same shape as the original scheduler's statistics dump.
func (w *Worker) Write(out io.Writer) error {
	total := w.ownJobAmount + w.stolenJobAmount
	adminJobs := total - w.Info.userJobAmount
	_, err := fmt.Fprintf(out,
		"Worker %d\n"+
			"\tExecuted %d jobs\n"+
			"\t\t* %d own, %d stolen\n"+
			"\t\t* %d user jobs, %d admin jobs\n"+
			"\tFailed to steal %d times\n"+
			"\tFalsely waited %d times (due to incorrectly seeing all workers being done)\n"+
			"\tSpent %s in total,\n"+
			"\tof which %s working,\n"+
			"\tof which %s on user jobs\n",
		w.Info.index, total,
		w.ownJobAmount, w.stolenJobAmount,
		w.Info.userJobAmount, adminJobs,
		w.failedSteals,
		w.falseWaits,
		w.totalDuration, w.workDuration, w.Info.userJobDuration,
	)
	return err
}

// Reset zeroes all counters, ready for another measurement window without
// affecting scheduling behavior.
func (w *Worker) Reset() {
	w.ownJobAmount = 0
	w.stolenJobAmount = 0
	w.failedSteals = 0
	w.falseWaits = 0
	w.totalDuration = 0
	w.workDuration = 0
	w.Info.userJobAmount = 0
	w.Info.userJobDuration = 0
}
