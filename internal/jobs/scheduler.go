// Package jobs runs the server's periodic maintenance work.
package jobs

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron"
	"github.com/rs/zerolog/log"
)

// Scheduler runs named jobs on cron schedules. A job never overlaps with itself:
// a tick that arrives while the previous run is still going is skipped.
type Scheduler struct {
	cron *cron.Cron

	mu    sync.Mutex
	names []string
}

func NewScheduler() *Scheduler {
	return &Scheduler{cron: cron.New()}
}

// Add registers fn under name. spec accepts six-field cron expressions and
// descriptors such as "@every 10m" or "@hourly".
func (s *Scheduler) Add(name, spec string, fn func() error) error {
	job := &namedJob{name: name, fn: fn}
	if err := s.cron.AddJob(spec, job); err != nil {
		return fmt.Errorf("invalid schedule %q for job %s: %w", spec, name, err)
	}

	s.mu.Lock()
	s.names = append(s.names, name)
	s.mu.Unlock()

	log.Debug().Str("job", name).Str("schedule", spec).Msg("Scheduled job")
	return nil
}

// Jobs returns the registered job names in registration order.
func (s *Scheduler) Jobs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.names...)
}

// Start runs the scheduler in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	log.Info().Strs("jobs", s.Jobs()).Msg("Job scheduler started")
}

// Stop halts future runs. Runs already in progress are not interrupted.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Info().Msg("Job scheduler stopped")
}

type namedJob struct {
	name    string
	fn      func() error
	running sync.Mutex
}

func (j *namedJob) Run() {
	if !j.running.TryLock() {
		log.Warn().Str("job", j.name).Msg("Previous run still in progress, skipping")
		return
	}
	defer j.running.Unlock()

	start := time.Now()
	if err := j.fn(); err != nil {
		log.Error().Err(err).Str("job", j.name).Dur("took", time.Since(start)).Msg("Job failed")
		return
	}
	log.Debug().Str("job", j.name).Dur("took", time.Since(start)).Msg("Job finished")
}
