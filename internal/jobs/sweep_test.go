package jobs

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type mockSweeper struct {
	calls atomic.Int64
	count int64
	err   error
}

func (m *mockSweeper) Sweep(ctx context.Context) (int64, error) {
	m.calls.Add(1)
	return m.count, m.err
}

func TestSweepJob(t *testing.T) {
	t.Run("creates job with correct interval", func(t *testing.T) {
		job := NewSweepJob(&mockSweeper{}, time.Minute)

		assert.NotNil(t, job)
		assert.Equal(t, time.Minute, job.interval)
	})

	t.Run("runs sweeps on the configured interval", func(t *testing.T) {
		sweeper := &mockSweeper{count: 2}
		job := NewSweepJob(sweeper, 10*time.Millisecond)

		job.Start()
		time.Sleep(55 * time.Millisecond)
		job.Stop()

		assert.GreaterOrEqual(t, sweeper.calls.Load(), int64(2))
	})

	t.Run("a failing pass does not stop future passes", func(t *testing.T) {
		sweeper := &mockSweeper{err: assert.AnError}
		job := NewSweepJob(sweeper, 10*time.Millisecond)

		job.Start()
		time.Sleep(55 * time.Millisecond)
		job.Stop()

		assert.GreaterOrEqual(t, sweeper.calls.Load(), int64(2))
	})

	t.Run("starts and stops without panic", func(t *testing.T) {
		job := NewSweepJob(&mockSweeper{}, 100*time.Millisecond)
		job.Start()
		time.Sleep(20 * time.Millisecond)
		job.Stop()
	})
}
