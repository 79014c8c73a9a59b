package stats

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorker_CountersAccumulate(t *testing.T) {
	w := New(0)
	w.AddOwnJob()
	w.AddOwnJob()
	w.AddStolenJob()
	w.AddFailedSteal()
	w.AddFalseWait()

	assert.Equal(t, uint32(2), w.OwnJobAmount())
	assert.Equal(t, uint32(1), w.StolenJobAmount())
	assert.Equal(t, uint64(1), w.FailedSteals())
	assert.Equal(t, uint64(1), w.FalseWaits())
}

func TestWorker_ResetZeroesEverything(t *testing.T) {
	w := New(1)
	w.AddOwnJob()
	w.AddStolenJob()
	w.AddFailedSteal()
	w.AddFalseWait()

	w.Reset()

	assert.Equal(t, uint32(0), w.OwnJobAmount())
	assert.Equal(t, uint32(0), w.StolenJobAmount())
	assert.Equal(t, uint64(0), w.FailedSteals())
	assert.Equal(t, uint64(0), w.FalseWaits())
}

func TestWorker_WriteIncludesWorkerIndexAndCounts(t *testing.T) {
	w := New(3)
	w.AddOwnJob()
	w.AddStolenJob()

	var buf strings.Builder
	require.NoError(t, w.Write(&buf))

	out := buf.String()
	assert.Contains(t, out, "Worker 3")
	assert.Contains(t, out, "Executed 2 jobs")
}

func TestUserJobLogger_AccumulatesIntoWorkerInfo(t *testing.T) {
	info := NewWorkerInfo(0)
	logger := NewUserJobLogger(info)
	logger.Close()

	assert.Equal(t, uint32(1), info.userJobAmount)
}
