package app

import (
	"context"
	"time"

	"github.com/bobmcallan/dhandash/internal/common"
	"github.com/bobmcallan/dhandash/internal/interfaces"
)

// snapshotTimeout bounds one poll so a hung broker cannot stall the loop
const snapshotTimeout = time.Minute

// startEquityPoller observes equity on a fixed interval until ctx is cancelled.
func startEquityPoller(ctx context.Context, equityService interfaces.EquityService, logger *common.Logger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info().Dur("interval", interval).Msg("Equity poller: started")

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Equity poller: stopped")
			return
		case <-ticker.C:
			pollEquity(ctx, equityService, logger)
		}
	}
}

func pollEquity(ctx context.Context, equityService interfaces.EquityService, logger *common.Logger) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, snapshotTimeout)
	defer cancel()

	snap := equityService.Observe(ctx)

	logger.Debug().
		Str("source", string(snap.Source)).
		Float64("equity", snap.Equity).
		Dur("elapsed", time.Since(start)).
		Msg("Equity poll: complete")
}
