package jobs

import (
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
)

// TempCleanupJob removes stale files from the upload scratch directory:
// anything older than maxAge goes, and emptied subdirectories are pruned. It
// runs once at start and then on a fixed interval.
type TempCleanupJob struct {
	dir      string
	maxAge   time.Duration
	interval time.Duration
	done     chan struct{}
}

func NewTempCleanupJob(dir string, maxAge, interval time.Duration) *TempCleanupJob {
	return &TempCleanupJob{
		dir:      dir,
		maxAge:   maxAge,
		interval: interval,
		done:     make(chan struct{}),
	}
}

func (j *TempCleanupJob) Start() {
	go j.run()
	log.Info().Str("dir", j.dir).Dur("interval", j.interval).Msg("temp cleanup job started")
}

func (j *TempCleanupJob) Stop() {
	close(j.done)
	log.Info().Msg("temp cleanup job stopped")
}

func (j *TempCleanupJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.Sweep()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.Sweep()
		}
	}
}

// Sweep performs one cleanup pass. Per-entry failures are logged and skipped
// so one bad path never stops the rest of the pass.
func (j *TempCleanupJob) Sweep() {
	cutoff := time.Now().Add(-j.maxAge)
	removed := j.cleanDir(j.dir, cutoff)
	if removed > 0 {
		log.Info().Int("count", removed).Str("dir", j.dir).Msg("cleaned up stale temp files")
	}
}

func (j *TempCleanupJob) cleanDir(dir string, cutoff time.Time) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Error().Err(err).Str("dir", dir).Msg("temp cleanup: read dir failed")
		}
		return 0
	}

	removed := 0
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())

		if entry.IsDir() {
			removed += j.cleanDir(path, cutoff)
			if rest, err := os.ReadDir(path); err == nil && len(rest) == 0 {
				if err := os.Remove(path); err != nil {
					log.Warn().Err(err).Str("dir", path).Msg("temp cleanup: remove empty dir failed")
				}
			}
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(path); err != nil {
				log.Warn().Err(err).Str("file", path).Msg("temp cleanup: remove failed")
				continue
			}
			removed++
		}
	}
	return removed
}
