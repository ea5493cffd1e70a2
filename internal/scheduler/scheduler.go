// Package scheduler runs the panel's periodic maintenance jobs on cron
// schedules.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/edvin/wppanel/internal/metrics"
)

// JobFunc is the body of a scheduled job.
type JobFunc func(ctx context.Context) error

// Job is a named JobFunc bound to a cron schedule. Each run gets its own
// context limited by Timeout.
type Job struct {
	Name     string
	Schedule string
	Timeout  time.Duration
	Fn       JobFunc

	parent context.Context
	logger zerolog.Logger
}

// Run implements cron.Job.
func (j *Job) Run() {
	ctx := j.parent
	if j.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.Timeout)
		defer cancel()
	}

	start := time.Now()
	var err error
	defer metrics.ObserveWorkflow("job_"+j.Name, start, &err)

	j.logger.Debug().Msg("job started")
	err = j.Fn(ctx)
	if err != nil {
		j.logger.Error().Err(err).Dur("duration", time.Since(start)).Msg("job failed")
		return
	}
	j.logger.Info().Dur("duration", time.Since(start)).Msg("job finished")
}

// Scheduler owns the cron runner and the jobs registered on it.
type Scheduler struct {
	cron    *cron.Cron
	logger  zerolog.Logger
	timeout time.Duration
	ctx     context.Context
	cancel  context.CancelFunc
	jobs    map[string]cron.EntryID
}

// New creates a Scheduler whose jobs run with the given timeout. Runs of
// the same job never overlap.
func New(logger zerolog.Logger, timeout time.Duration) *Scheduler {
	logger = logger.With().Str("component", "scheduler").Logger()
	cl := cronLogger{logger: logger}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:    cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		logger:  logger,
		timeout: timeout,
		ctx:     ctx,
		cancel:  cancel,
		jobs:    map[string]cron.EntryID{},
	}
}

// Add registers fn under name on a standard five-field cron schedule.
func (s *Scheduler) Add(name, schedule string, fn JobFunc) (*Job, error) {
	if _, ok := s.jobs[name]; ok {
		return nil, fmt.Errorf("job %s already registered", name)
	}
	j := &Job{
		Name:     name,
		Schedule: schedule,
		Timeout:  s.timeout,
		Fn:       fn,
		parent:   s.ctx,
		logger:   s.logger.With().Str("job", name).Logger(),
	}
	id, err := s.cron.AddJob(schedule, j)
	if err != nil {
		return nil, fmt.Errorf("schedule job %s (%q): %w", name, schedule, err)
	}
	s.jobs[name] = id
	s.logger.Info().Str("job", name).Str("schedule", schedule).Msg("job scheduled")
	return j, nil
}

// Entry describes a scheduled job and its next run.
type Entry struct {
	Name     string    `json:"name"`
	Schedule string    `json:"schedule"`
	Next     time.Time `json:"next"`
	Prev     time.Time `json:"prev"`
}

// Entries lists the registered jobs in the order they will next run.
func (s *Scheduler) Entries() []Entry {
	out := make([]Entry, 0, len(s.jobs))
	for _, e := range s.cron.Entries() {
		j, ok := e.Job.(*Job)
		if !ok {
			continue
		}
		out = append(out, Entry{Name: j.Name, Schedule: j.Schedule, Next: e.Next, Prev: e.Prev})
	}
	return out
}

// Start begins running jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info().Int("jobs", len(s.jobs)).Msg("scheduler started")
}

// Stop stops scheduling new runs, cancels running jobs once ctx is done
// and waits for them to return.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.cancel()
		<-done.Done()
	}
	s.cancel()
	s.logger.Info().Msg("scheduler stopped")
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
