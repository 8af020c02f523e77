package jobs

import (
	"context"

	"github.com/robfig/cron/v3"

	"label-cabinet/backstage/internal/logging"
)

// Job is a unit of scheduled work.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Scheduler runs jobs on cron specs. A run is skipped while the previous run
// of the same job is still going.
type Scheduler struct {
	cron *cron.Cron
	ctx  context.Context
}

func NewScheduler(ctx context.Context) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithChain(cron.Recover(cronLogger{}))),
		ctx:  ctx,
	}
}

// Add registers job on spec, e.g. "@every 1m".
func (s *Scheduler) Add(spec string, job Job) error {
	wrapped := cron.NewChain(cron.SkipIfStillRunning(cronLogger{})).Then(cron.FuncJob(func() {
		if err := job.Run(s.ctx); err != nil && s.ctx.Err() == nil {
			logging.Error("Scheduled job failed", "job", job.Name(), "error", err)
		}
	}))
	if _, err := s.cron.AddJob(spec, wrapped); err != nil {
		return err
	}
	logging.Info("Scheduled job", "job", job.Name(), "spec", spec)
	return nil
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop prevents new runs and returns a context done when running jobs finish.
func (s *Scheduler) Stop() context.Context { return s.cron.Stop() }

// InitializeJobs schedules every background job and starts the scheduler.
func InitializeJobs(ctx context.Context, news DuePublisher) (*Scheduler, error) {
	s := NewScheduler(ctx)

	if err := s.Add("@every 1m", NewNewsPublishJob(news)); err != nil {
		return nil, err
	}

	s.Start()
	return s, nil
}

// cronLogger adapts the zap helpers to cron.Logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logging.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logging.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
