package pipeline

import (
	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
)

// StartStatsResetJob schedules a periodic reset of the shared cascade
// layout predictor's accumulated statistics so a long-running deployment's
// speedup/path-percentage numbers reflect recent traffic rather than an
// ever-growing lifetime average. cronExpr is a six-field (with-seconds)
// cron expression; an empty string disables the job. Returns nil, nil if
// disabled. The caller owns the returned *cron.Cron and should Stop it on
// shutdown.
func StartStatsResetJob(cronExpr string, logger arbor.ILogger) (*cron.Cron, error) {
	if cronExpr == "" {
		return nil, nil
	}

	c := cron.New(cron.WithSeconds())
	_, err := c.AddFunc(cronExpr, func() {
		predictorMu.Lock()
		p := sharedPredictor
		predictorMu.Unlock()
		if p == nil {
			return
		}
		p.ResetStats()
		logger.Info().Msg("cascade layout predictor statistics reset")
	})
	if err != nil {
		return nil, err
	}

	c.Start()
	return c, nil
}
