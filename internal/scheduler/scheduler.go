// Package scheduler runs the navigator's maintenance jobs on cron schedules
// and remembers how each one last went.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// DefaultJobTimeout bounds a single job run.
const DefaultJobTimeout = 2 * time.Minute

// Job is a unit of maintenance work.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// JobStatus is the observable state of a registered job.
type JobStatus struct {
	Name         string    `json:"name"`
	Schedule     string    `json:"schedule"`
	Runs         int       `json:"runs"`
	Failures     int       `json:"failures"`
	LastRun      time.Time `json:"last_run"`
	LastDuration string    `json:"last_duration,omitempty"`
	LastError    string    `json:"last_error,omitempty"`
	NextRun      time.Time `json:"next_run"`
}

type entry struct {
	id     cron.EntryID
	job    Job
	status JobStatus
}

// Scheduler wraps a seconds-resolution cron runner.
type Scheduler struct {
	cron    *cron.Cron
	timeout time.Duration
	now     func() time.Time
	log     zerolog.Logger

	mu      sync.Mutex
	entries map[string]*entry
}

// New creates a scheduler. A zero timeout means DefaultJobTimeout.
func New(log zerolog.Logger, timeout time.Duration) *Scheduler {
	if timeout <= 0 {
		timeout = DefaultJobTimeout
	}
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		timeout: timeout,
		now:     time.Now,
		log:     log.With().Str("component", "scheduler").Logger(),
		entries: make(map[string]*entry),
	}
}

// AddJob registers job under a six-field cron expression or a descriptor
// such as "@hourly" or "@every 30s". Job names must be unique.
func (s *Scheduler) AddJob(schedule string, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := job.Name()
	if _, dup := s.entries[name]; dup {
		return fmt.Errorf("job %s already registered", name)
	}

	id, err := s.cron.AddFunc(schedule, func() { s.run(job) })
	if err != nil {
		return fmt.Errorf("invalid schedule %q for %s: %w", schedule, name, err)
	}
	s.entries[name] = &entry{id: id, job: job, status: JobStatus{Name: name, Schedule: schedule}}

	s.log.Info().Str("job", name).Str("schedule", schedule).Msg("Job registered")
	return nil
}

// Start begins firing jobs.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Int("jobs", len(s.cron.Entries())).Msg("Scheduler started")
}

// Stop halts the cron runner and waits for in-flight jobs.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info().Msg("Scheduler stopped")
}

// RunNow runs a registered job outside its schedule and returns its error.
func (s *Scheduler) RunNow(name string) error {
	s.mu.Lock()
	e, ok := s.entries[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("job %s not registered", name)
	}
	return s.run(e.job)
}

// Status lists registered jobs sorted by name.
func (s *Scheduler) Status() []JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]JobStatus, 0, len(s.entries))
	for _, e := range s.entries {
		st := e.status
		st.NextRun = s.cron.Entry(e.id).Next
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *Scheduler) run(job Job) (err error) {
	name := job.Name()
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	started := s.now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", name, r)
		}
		s.record(name, started, err)
	}()

	s.log.Debug().Str("job", name).Msg("Running job")
	return job.Run(ctx)
}

func (s *Scheduler) record(name string, started time.Time, err error) {
	elapsed := s.now().Sub(started)

	s.mu.Lock()
	if e, ok := s.entries[name]; ok {
		e.status.Runs++
		e.status.LastRun = started
		e.status.LastDuration = elapsed.String()
		e.status.LastError = ""
		if err != nil {
			e.status.Failures++
			e.status.LastError = err.Error()
		}
	}
	s.mu.Unlock()

	if err != nil {
		s.log.Error().Err(err).Str("job", name).Dur("elapsed", elapsed).Msg("Job failed")
		return
	}
	s.log.Debug().Str("job", name).Dur("elapsed", elapsed).Msg("Job completed")
}
