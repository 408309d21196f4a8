package monitoring

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// CodeSweeper evicts expired one-time codes.
type CodeSweeper interface {
	Sweep() int
}

// Scheduler runs the expired-code sweep on a cron schedule.
type Scheduler struct {
	sweeper CodeSweeper
	cron    *cron.Cron
}

// NewScheduler creates a scheduler that sweeps on spec, e.g. "@every 1m" or "*/5 * * * *".
func NewScheduler(sweeper CodeSweeper, spec string) (*Scheduler, error) {
	s := &Scheduler{sweeper: sweeper, cron: cron.New()}
	if _, err := s.cron.AddFunc(spec, s.sweep); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", spec, err)
	}
	return s, nil
}

// Run starts the scheduler. It returns immediately.
func (s *Scheduler) Run() {
	log.Info().Msg("Starting reset code sweeper...")
	s.cron.Start()
}

// Stop halts the scheduler and waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Info().Msg("Stopped reset code sweeper.")
}

func (s *Scheduler) sweep() {
	if n := s.sweeper.Sweep(); n > 0 {
		log.Debug().Int("evicted", n).Msg("Sweeper: removed expired reset codes")
	}
}
