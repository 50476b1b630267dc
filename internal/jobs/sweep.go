package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// SessionSweeper deletes expired sessions and reports how many went away.
type SessionSweeper interface {
	Sweep(ctx context.Context) (int64, error)
}

// SweepJob deletes expired sessions on a fixed interval. A failed pass is
// logged and the next pass runs regardless.
type SweepJob struct {
	sessions SessionSweeper
	interval time.Duration
	done     chan struct{}
}

func NewSweepJob(sessions SessionSweeper, interval time.Duration) *SweepJob {
	return &SweepJob{
		sessions: sessions,
		interval: interval,
		done:     make(chan struct{}),
	}
}

func (j *SweepJob) Start() {
	go j.run()
	log.Info().Dur("interval", j.interval).Msg("session sweep job started")
}

func (j *SweepJob) Stop() {
	close(j.done)
	log.Info().Msg("session sweep job stopped")
}

func (j *SweepJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.sweep()
		}
	}
}

func (j *SweepJob) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	count, err := j.sessions.Sweep(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to sweep expired sessions")
	} else if count > 0 {
		log.Info().Int64("count", count).Msg("cleaned up expired sessions")
	}
}
