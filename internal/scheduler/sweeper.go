package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"auction-service/utils"
)

// Resolver is the lifecycle surface the sweeper drives on every tick.
type Resolver interface {
	ActivateDueAuctions() (int, error)
	ProcessExpiredAuctions() (int, error)
}

// Sweeper periodically activates due auctions and resolves expired ones.
// Resolution is idempotent at the service layer, so a tick that overlaps a
// manual resolution or a second instance is harmless.
type Sweeper struct {
	resolver Resolver
	cron     *cron.Cron
	interval time.Duration
}

// NewSweeper creates a sweeper that ticks at the given interval.
func NewSweeper(resolver Resolver, interval time.Duration) *Sweeper {
	return &Sweeper{
		resolver: resolver,
		cron:     cron.New(),
		interval: interval,
	}
}

// Start schedules the sweep and begins ticking.
func (s *Sweeper) Start() error {
	spec := fmt.Sprintf("@every %s", s.interval)
	if _, err := s.cron.AddFunc(spec, s.RunOnce); err != nil {
		return fmt.Errorf("scheduler: failed to schedule sweep: %w", err)
	}

	s.cron.Start()
	utils.Info("auction sweeper started", map[string]any{"interval": s.interval.String()})
	return nil
}

// Stop halts ticking and waits for an in-flight sweep to finish.
func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	utils.Info("auction sweeper stopped", nil)
}

// RunOnce performs a single sweep: activation first, so an auction whose
// window opened and closed between ticks still gets resolved eventually.
func (s *Sweeper) RunOnce() {
	activated, err := s.resolver.ActivateDueAuctions()
	if err != nil {
		utils.Error("sweep: failed to activate due auctions", map[string]any{"error": err.Error()})
	}

	resolved, err := s.resolver.ProcessExpiredAuctions()
	if err != nil {
		utils.Error("sweep: failed to process expired auctions", map[string]any{"error": err.Error()})
	}

	if activated > 0 || resolved > 0 {
		utils.Info("sweep finished", map[string]any{"activated": activated, "resolved": resolved})
	}
}
