package jobs

import (
	"context"
	"time"

	"label-cabinet/backstage/internal/logging"
	"label-cabinet/backstage/internal/metrics"
)

// DuePublisher publishes scheduled news whose time has come.
type DuePublisher interface {
	PublishDue(ctx context.Context) (int, error)
}

// NewsPublishJob flips scheduled news to published.
type NewsPublishJob struct {
	news    DuePublisher
	metrics *metrics.MetricsRegistry
	timeout time.Duration
}

func NewNewsPublishJob(news DuePublisher) *NewsPublishJob {
	return &NewsPublishJob{
		news:    news,
		metrics: metrics.NewMetricsRegistry(),
		timeout: 30 * time.Second,
	}
}

func (j *NewsPublishJob) Name() string { return "news_publish" }

// Run executes one pass.
func (j *NewsPublishJob) Run(ctx context.Context) error {
	start := time.Now()
	defer func() {
		j.metrics.JobDuration.WithLabelValues(j.Name()).Observe(time.Since(start).Seconds())
	}()

	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	published, err := j.news.PublishDue(ctx)
	if err != nil {
		return err
	}
	if published > 0 {
		logging.Info("Published scheduled news", "count", published, "duration_ms", time.Since(start).Milliseconds())
	}
	return nil
}
