package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/adamspd/patentehub/utils"
	"github.com/robfig/cron/v3"
)

// SweepFunc deletes expired sessions and reports how many went away.
type SweepFunc func(ctx context.Context) (int, error)

// Sweeper runs a SweepFunc on a cron schedule.
type Sweeper struct {
	cron    *cron.Cron
	sweep   SweepFunc
	timeout time.Duration
}

func NewSweeper(schedule string, sweep SweepFunc) (*Sweeper, error) {
	s := &Sweeper{
		cron:    cron.New(),
		sweep:   sweep,
		timeout: time.Minute,
	}
	if _, err := s.cron.AddFunc(schedule, s.Run); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Run performs one sweep immediately.
func (s *Sweeper) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	n, err := s.sweep(ctx)
	if err != nil {
		utils.LogError("Token sweep failed: %v", err)
		return
	}
	utils.LogJob("Swept %d expired token(s) in %v", n, time.Since(start))
}

func (s *Sweeper) Start() {
	utils.LogStartup("Starting token sweeper...")
	s.cron.Start()
}

// Stop waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	utils.LogShutdown("Stopping token sweeper...")
	<-s.cron.Stop().Done()
}
