package sync

import (
	"context"
	"log/slog"
	"time"
)

// syncTimeout bounds one scheduled run. A hung mail server must never stall
// the poller loop past its next tick.
const syncTimeout = 2 * time.Minute

// Poller runs the sync pipeline on a fixed interval for a single configured
// user, so tickets keep flowing in without anyone hitting the HTTP trigger.
type Poller struct {
	orchestrator *Orchestrator
	logger       *slog.Logger
	userID       string
	interval     time.Duration
}

// NewPoller creates a background poller for the given user. A non-positive
// interval falls back to five minutes.
func NewPoller(o *Orchestrator, logger *slog.Logger, userID string, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Poller{
		orchestrator: o,
		logger:       logger,
		userID:       userID,
		interval:     interval,
	}
}

// Run polls until ctx is cancelled. Sync failures are logged and the next
// tick proceeds; a misconfigured mailbox should not crash the service.
func (p *Poller) Run(ctx context.Context) {
	p.logger.Info("mailbox poller started",
		"user", p.userID, "interval", p.interval.String())

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("mailbox poller stopped")
			return
		case <-ticker.C:
			runCtx, cancel := context.WithTimeout(ctx, syncTimeout)
			result, err := p.orchestrator.Sync(runCtx, p.userID, nil)
			cancel()
			if err != nil {
				p.logger.Warn("scheduled sync failed", "user", p.userID, "error", err)
				continue
			}
			if result.Count > 0 {
				p.logger.Info("scheduled sync created tickets",
					"user", p.userID, "created", result.Count)
			}
		}
	}
}
