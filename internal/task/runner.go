// Package task contains the background jobs the server runs alongside the
// HTTP surface. The only job today is the periodic plan rebuild, which
// rolls the review queue over day boundaries without waiting for a client
// request.
package task

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/kioku-srs/kioku-api/internal/service/planner"
)

// PlanRebuildRunner periodically rebuilds the daily plan.
type PlanRebuildRunner struct {
	planService planner.PlanService
	interval    time.Duration
	ctx         context.Context
	cancelFunc  context.CancelFunc
	wg          sync.WaitGroup
	logger      *slog.Logger
}

// NewPlanRebuildRunner creates a runner that rebuilds the plan on the
// given interval. A zero interval disables the runner.
func NewPlanRebuildRunner(
	planService planner.PlanService,
	interval time.Duration,
	logger *slog.Logger,
) *PlanRebuildRunner {
	if planService == nil {
		panic("planService cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &PlanRebuildRunner{
		planService: planService,
		interval:    interval,
		ctx:         ctx,
		cancelFunc:  cancel,
		logger:      logger.With(slog.String("component", "plan_rebuild_runner")),
	}
}

// Start begins the rebuild loop. The first rebuild runs immediately so a
// freshly started server has a plan before the first tick.
func (r *PlanRebuildRunner) Start() {
	if r.interval <= 0 {
		r.logger.Info("plan rebuild runner disabled")
		return
	}

	r.wg.Add(1)
	go r.run()

	r.logger.Info("plan rebuild runner started",
		slog.Duration("interval", r.interval))
}

// Stop signals the loop to exit and waits for it to finish.
func (r *PlanRebuildRunner) Stop() {
	r.cancelFunc()
	r.wg.Wait()
	r.logger.Info("plan rebuild runner stopped")
}

func (r *PlanRebuildRunner) run() {
	defer r.wg.Done()

	r.rebuild()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			r.rebuild()
		}
	}
}

// rebuild runs one plan rebuild. Failures are logged and the loop keeps
// going; the next tick retries.
func (r *PlanRebuildRunner) rebuild() {
	counts, err := r.planService.BuildToday(r.ctx, nil)
	if err != nil {
		if r.ctx.Err() != nil {
			return
		}
		r.logger.Error("scheduled plan rebuild failed",
			slog.String("error", err.Error()))
		return
	}

	r.logger.Debug("scheduled plan rebuild completed",
		slog.Time("plan_date", r.planService.Today()),
		slog.Int("pending", counts.Pending),
		slog.Int("total", counts.Total))
}
