package task

import (
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
)

// Schedule runs named jobs on cron expressions through a Runner. A job whose
// previous tick is still running skips the new tick.
type Schedule struct {
	runner *Runner

	mu      sync.Mutex
	cron    *cron.Cron
	names   map[string]struct{}
	started bool
}

// NewSchedule creates a schedule feeding runner. Expressions use the standard
// five fields plus descriptors such as "@every 1h".
func NewSchedule(runner *Runner) *Schedule {
	return &Schedule{
		runner: runner,
		cron:   cron.New(),
		names:  make(map[string]struct{}),
	}
}

// Add registers job under name.
func (s *Schedule) Add(name, spec string, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.names[name]; ok {
		return fmt.Errorf("schedule: duplicate job name %q", name)
	}

	var running sync.Mutex
	_, err := s.cron.AddFunc(spec, func() {
		if !running.TryLock() {
			s.runner.logger.Warn("Scheduled job still running, skipping tick", "job", name)
			return
		}
		defer running.Unlock()
		s.runner.run(name, job)
	})
	if err != nil {
		return fmt.Errorf("schedule: invalid spec %q for job %q: %w", spec, name, err)
	}
	s.names[name] = struct{}{}
	return nil
}

// Start begins firing jobs.
func (s *Schedule) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	s.cron.Start()
	s.runner.logger.Info("Scheduler started", "jobs", len(s.names))
}

// Stop halts the schedule and waits for running jobs.
func (s *Schedule) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	s.started = false
	<-s.cron.Stop().Done()
}
