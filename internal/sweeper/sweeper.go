package sweeper

import (
	"auction-house/internal/clock"
	"auction-house/internal/lifecycle"
	"auction-house/utils"
	"fmt"

	"github.com/robfig/cron/v3"
)

// Sweeper periodically asks the lifecycle Manager to close every overdue
// auction. It is a pure trigger: cadence lives here, closing semantics live
// in the Manager and behave identically for every trigger.
type Sweeper struct {
	cron      *cron.Cron
	lifecycle *lifecycle.Manager
	clk       clock.Clock
}

// New creates a Sweeper driving the given lifecycle Manager.
func New(lc *lifecycle.Manager, clk clock.Clock) *Sweeper {
	return &Sweeper{
		cron:      cron.New(),
		lifecycle: lc,
		clk:       clk,
	}
}

// Start registers the sweep on the given cron schedule (e.g. "@every 1m")
// and starts the scheduler in its own goroutine.
func (s *Sweeper) Start(schedule string) error {
	if _, err := s.cron.AddFunc(schedule, s.RunOnce); err != nil {
		return fmt.Errorf("sweeper: invalid schedule %q: %w", schedule, err)
	}
	s.cron.Start()

	utils.Info("sweeper started", map[string]any{"schedule": schedule})
	return nil
}

// RunOnce performs a single sweep. Exposed so wiring code can force an
// immediate pass on startup.
func (s *Sweeper) RunOnce() {
	now := s.clk.Now()
	closed, failures, err := s.lifecycle.SweepExpired(now)
	if err != nil {
		utils.Error("sweep failed", map[string]any{"error": err.Error()})
		return
	}

	if closed > 0 || len(failures) > 0 {
		utils.Info("sweep completed", map[string]any{
			"closed":   closed,
			"failures": len(failures),
		})
	}
}

// Stop shuts the scheduler down, waiting for a running sweep to finish.
func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	utils.Info("sweeper stopped", nil)
}
