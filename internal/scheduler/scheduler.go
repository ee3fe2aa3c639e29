// Package scheduler drives the recurring refresh cycle on cron schedules.
package scheduler

import (
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job is a runnable unit of background work.
type Job interface {
	Run() error
	Name() string
}

// Scheduler owns the cron runner and tracks per-job run counts so an
// operator can tell whether the daily refresh actually fires.
type Scheduler struct {
	cron *cron.Cron
	log  zerolog.Logger

	mu   sync.Mutex
	runs map[string]int
}

// New creates a scheduler. Schedules use six-field cron syntax with a
// leading seconds field, e.g. "0 30 8 * * *" for 08:30 daily.
func New(log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithSeconds()),
		log:  log.With().Str("component", "scheduler").Logger(),
		runs: make(map[string]int),
	}
}

// AddJob registers a job on a cron schedule.
func (s *Scheduler) AddJob(schedule string, job Job) error {
	entryID, err := s.cron.AddFunc(schedule, func() {
		_ = s.execute(job)
	})
	if err != nil {
		return err
	}

	s.log.Info().
		Str("job", job.Name()).
		Str("schedule", schedule).
		Int("entry", int(entryID)).
		Msg("Job registered")
	return nil
}

// Start begins dispatching schedules.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("Scheduler started")
}

// Stop halts dispatch and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info().Msg("Scheduler stopped")
}

// RunNow executes a job immediately, outside its schedule. Used for the
// refresh-on-start cycle.
func (s *Scheduler) RunNow(job Job) error {
	return s.execute(job)
}

// RunCount reports how many times a job has executed, scheduled or not.
func (s *Scheduler) RunCount(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs[name]
}

func (s *Scheduler) execute(job Job) error {
	s.mu.Lock()
	s.runs[job.Name()]++
	s.mu.Unlock()

	started := time.Now()
	if err := job.Run(); err != nil {
		s.log.Error().
			Err(err).
			Str("job", job.Name()).
			Dur("duration", time.Since(started)).
			Msg("Job failed")
		return err
	}

	s.log.Info().
		Str("job", job.Name()).
		Dur("duration", time.Since(started)).
		Msg("Job completed")
	return nil
}
