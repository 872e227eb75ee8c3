package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"hostel-allocation-backend/config"
	"hostel-allocation-backend/internal/store"
)

// Repairer is the subset of store.Store the reconciler needs.
type Repairer interface {
	ReconcileOccupancy(ctx context.Context) ([]store.OccupancyRepair, error)
}

// Observer receives the number of rooms corrected per run.
type Observer interface {
	ObserveRepairs(n int)
}

// Service periodically recomputes room occupancy from the allocation
// ledger and corrects any drift.
type Service struct {
	cfg      config.ReconcileConfig
	store    Repairer
	observer Observer
	schedule cron.Schedule
}

// NewService parses the configured schedule. The observer may be nil.
func NewService(cfg config.ReconcileConfig, s Repairer, observer Observer) (*Service, error) {
	schedule, err := cron.ParseStandard(cfg.Schedule)
	if err != nil {
		return nil, fmt.Errorf("invalid reconcile schedule %q: %w", cfg.Schedule, err)
	}
	return &Service{
		cfg:      cfg,
		store:    s,
		observer: observer,
		schedule: schedule,
	}, nil
}

// Run reconciles once immediately, then on every tick of the schedule
// until ctx is cancelled.
func (s *Service) Run(ctx context.Context) {
	if !s.cfg.Enabled {
		log.Info().Msg("occupancy reconciler is disabled; not starting")
		return
	}
	log.Info().Str("schedule", s.cfg.Schedule).Msg("starting occupancy reconciler")

	s.ReconcileOnce(ctx)

	timer := time.NewTimer(s.untilNext())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("occupancy reconciler shutting down")
			return
		case <-timer.C:
			s.ReconcileOnce(ctx)
			timer.Reset(s.untilNext())
		}
	}
}

// ReconcileOnce performs a single pass and returns the rooms it touched.
func (s *Service) ReconcileOnce(ctx context.Context) []store.OccupancyRepair {
	repairs, err := s.store.ReconcileOccupancy(ctx)
	if err != nil {
		log.Error().Err(err).Msg("occupancy reconcile failed")
		return nil
	}

	fixed := 0
	for _, r := range repairs {
		if r.Fixed {
			fixed++
		}
	}
	if s.observer != nil && fixed > 0 {
		s.observer.ObserveRepairs(fixed)
	}

	if len(repairs) == 0 {
		log.Debug().Msg("occupancy reconcile finished: no drift")
	} else {
		log.Info().Int("drifted", len(repairs)).Int("fixed", fixed).Msg("occupancy reconcile finished")
	}
	return repairs
}

func (s *Service) untilNext() time.Duration {
	now := time.Now()
	return s.schedule.Next(now).Sub(now)
}
