package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/kanungos/fundgrid/internal/pipeline"
)

// Publisher receives the result of a completed refresh cycle.
type Publisher interface {
	Publish(result *pipeline.RunResult)
}

// RefreshJob runs one pipeline cycle and publishes the result.
type RefreshJob struct {
	pipeline *pipeline.Pipeline
	sink     Publisher
	timeout  time.Duration
	log      zerolog.Logger
}

// NewRefreshJob creates the daily refresh job. timeout bounds one full
// cycle including all fetches.
func NewRefreshJob(p *pipeline.Pipeline, sink Publisher, timeout time.Duration, log zerolog.Logger) *RefreshJob {
	return &RefreshJob{
		pipeline: p,
		sink:     sink,
		timeout:  timeout,
		log:      log.With().Str("job", "refresh").Logger(),
	}
}

// Name implements Job.
func (j *RefreshJob) Name() string { return "nav-refresh" }

// Run implements Job.
func (j *RefreshJob) Run() error {
	ctx := context.Background()
	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}

	result, err := j.pipeline.Run(ctx)
	if err != nil {
		return err
	}

	j.sink.Publish(result)
	return nil
}
