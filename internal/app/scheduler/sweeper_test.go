package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSweeper struct {
	calls atomic.Int32
	err   error
}

func (c *countingSweeper) SweepExpiredCycles(context.Context) (int, error) {
	c.calls.Add(1)
	return 1, c.err
}

func TestSweeperRunsRepeatedly(t *testing.T) {
	cycles := &countingSweeper{}
	sweeper := NewSweeper(cycles, 20*time.Millisecond, zerolog.Nop())
	require.NoError(t, sweeper.Start())
	defer sweeper.Stop()

	assert.Eventually(t, func() bool { return cycles.calls.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)
}

func TestSweeperKeepsRunningAfterFailure(t *testing.T) {
	cycles := &countingSweeper{err: errors.New("database unavailable")}
	sweeper := NewSweeper(cycles, 20*time.Millisecond, zerolog.Nop())
	require.NoError(t, sweeper.Start())
	defer sweeper.Stop()

	assert.Eventually(t, func() bool { return cycles.calls.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)
}

func TestSweeperStopHaltsRuns(t *testing.T) {
	cycles := &countingSweeper{}
	sweeper := NewSweeper(cycles, 20*time.Millisecond, zerolog.Nop())
	require.NoError(t, sweeper.Start())
	require.Eventually(t, func() bool { return cycles.calls.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)

	sweeper.Stop()
	stopped := cycles.calls.Load()
	time.Sleep(100 * time.Millisecond)
	// a run already dispatched before Stop may still land
	assert.LessOrEqual(t, cycles.calls.Load(), stopped+1)
}

func TestSweeperRejectsNonPositiveInterval(t *testing.T) {
	sweeper := NewSweeper(&countingSweeper{}, 0, zerolog.Nop())
	assert.Error(t, sweeper.Start())
}
