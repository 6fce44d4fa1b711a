package workflow

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Poller periodically refreshes running tasks.
type Poller struct {
	svc      *Service
	interval time.Duration
	log      *zap.Logger
}

func NewPoller(svc *Service, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Poller{svc: svc, interval: interval, log: svc.log}
}

// Run polls every interval until ctx is canceled.
func (p *Poller) Run(ctx context.Context) {
	t := time.NewTicker(p.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			p.Tick(ctx)
		}
	}
}

// Tick refreshes every pending task once and returns how many finished.
// Errors are logged per task.
func (p *Poller) Tick(ctx context.Context) int {
	pending, err := p.svc.store.PendingTasks(ctx)
	if err != nil {
		p.log.Warn("workflow: list pending", zap.Error(err))
		return 0
	}
	finished := 0
	for _, t := range pending {
		if ctx.Err() != nil {
			break
		}
		res, err := p.svc.client.Status(ctx, t.ExecutionID)
		if err != nil {
			p.log.Warn("workflow: poll", zap.String("task", t.ID), zap.Error(err))
			continue
		}
		done, err := p.svc.Apply(ctx, t, res)
		if err != nil {
			p.log.Warn("workflow: apply", zap.String("task", t.ID), zap.Error(err))
			continue
		}
		if done.Status.Done() {
			finished++
		}
	}
	return finished
}
