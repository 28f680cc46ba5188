package session

import (
	"github.com/robfig/cron"
	"go.uber.org/zap"
)

const sweepSchedule = "@every 1m"

// StartSweeper schedules periodic removal of expired sessions from store.
// The returned cron must be stopped on shutdown.
func StartSweeper(store *MemoryStore, log *zap.Logger) (*cron.Cron, error) {
	c := cron.New()
	err := c.AddFunc(sweepSchedule, func() {
		if removed := store.Sweep(); removed > 0 {
			log.Debug("expired sessions removed", zap.Int("count", removed))
		}
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}
