package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/nook/nook/internal/digest"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const runTimeout = 30 * time.Minute

// Runner is implemented by the digest service
type Runner interface {
	Run(ctx context.Context) error
}

// Service handles scheduling of collection runs
type Service struct {
	schedule string
	runner   Runner
	cron     *cron.Cron
}

// NewService creates a new scheduler service. schedule is a cron
// expression with a leading seconds field.
func NewService(schedule string, location *time.Location, runner Runner) *Service {
	if location == nil {
		location = time.Local
	}

	return &Service{
		schedule: schedule,
		runner:   runner,
		cron:     cron.New(cron.WithSeconds(), cron.WithLocation(location)),
	}
}

// Start registers the collection job and starts the scheduler
func (s *Service) Start() error {
	_, err := s.cron.AddFunc(s.schedule, s.runOnce)
	if err != nil {
		return err
	}

	s.cron.Start()
	logrus.Infof("Scheduler started with schedule %q", s.schedule)
	return nil
}

func (s *Service) runOnce() {
	logrus.Info("Starting scheduled digest run")

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	err := s.runner.Run(ctx)
	if errors.Is(err, digest.ErrRunInProgress) {
		logrus.Info("Skipping scheduled digest run, a run is already in progress")
		return
	}
	if err != nil {
		logrus.Errorf("Scheduled digest run failed: %v", err)
	}
}

// Stop stops the scheduler and waits for a running job to finish
func (s *Service) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
		logrus.Info("Scheduler stopped")
	}
}
