package sweeper

import (
	"context"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"

	"turnolibre/pkg/config"
	"turnolibre/pkg/logger"
)

// HoldExpirer bulk-expires overdue pending holds. Wired to the holds service.
type HoldExpirer interface {
	ExpireStale(ctx context.Context) (int64, error)
}

// FeaturedExpirer clears finished club promotions. Wired to the clubs service.
type FeaturedExpirer interface {
	ExpireFeatured(ctx context.Context) (int64, error)
}

// Sweeper runs the periodic expiry jobs. All expiry goes through the domain
// services so the sweeps apply the same rules as the request path.
type Sweeper struct {
	scheduler gocron.Scheduler
	holds     HoldExpirer
	clubs     FeaturedExpirer
	cfg       *config.Config
	log       *logger.Logger
}

func New(holds HoldExpirer, clubs FeaturedExpirer, cfg *config.Config) (*Sweeper, error) {
	scheduler, err := gocron.NewScheduler(
		gocron.WithGlobalJobOptions(
			gocron.WithEventListeners(
				gocron.AfterJobRunsWithPanic(func(jobID uuid.UUID, jobName string, recoverData any) {
					cfg.Log.Error("Sweep job panicked",
						"job_id", jobID.String(),
						"job_name", jobName,
						"panic", recoverData,
					)
				}),
			),
		),
	)
	if err != nil {
		return nil, err
	}

	return &Sweeper{
		scheduler: scheduler,
		holds:     holds,
		clubs:     clubs,
		cfg:       cfg,
		log:       cfg.Log,
	}, nil
}

// Start registers the jobs and begins the schedule.
func (s *Sweeper) Start() error {
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(s.cfg.HoldSweepInterval),
		gocron.NewTask(s.sweepHolds),
		gocron.WithName("expire-holds"),
	)
	if err != nil {
		return err
	}

	_, err = s.scheduler.NewJob(
		gocron.DurationJob(s.cfg.FeaturedSweepInterval),
		gocron.NewTask(s.sweepFeatured),
		gocron.WithName("expire-featured"),
	)
	if err != nil {
		return err
	}

	s.scheduler.Start()
	s.log.Info("Sweeper started",
		"hold_interval", s.cfg.HoldSweepInterval,
		"featured_interval", s.cfg.FeaturedSweepInterval,
	)
	return nil
}

// Stop shuts the scheduler down, waiting for running jobs to finish.
func (s *Sweeper) Stop() error {
	s.log.Info("Sweeper stopping")
	return s.scheduler.Shutdown()
}

func (s *Sweeper) sweepHolds() {
	count, err := s.holds.ExpireStale(context.Background())
	if err != nil {
		s.log.Error("Hold sweep failed", "error", err)
		return
	}
	if count > 0 {
		s.log.Info("Hold sweep expired stale holds", "count", count)
	}
}

func (s *Sweeper) sweepFeatured() {
	count, err := s.clubs.ExpireFeatured(context.Background())
	if err != nil {
		s.log.Error("Featured sweep failed", "error", err)
		return
	}
	if count > 0 {
		s.log.Info("Featured sweep cleared promotions", "count", count)
	}
}
