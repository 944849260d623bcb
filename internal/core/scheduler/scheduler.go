// Package scheduler provides a single-goroutine cooperative ticker for the
// recurring per-session jobs (extraction, summarization, liveness polling).
package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Job is a handle to one recurring job. Cancelling a handle is idempotent.
type Job struct {
	name      string
	interval  time.Duration
	nextRun   time.Time
	fn        func()
	cancelled atomic.Bool
}

// Name returns the job name
func (j *Job) Name() string { return j.name }

// Scheduler runs registered jobs from one goroutine. Due jobs execute
// sequentially in registration order, so two jobs registered for the same
// session never overlap; job execution is non-reentrant and a tick that is
// still running causes the next tick to be skipped rather than queued.
type Scheduler struct {
	mu     sync.Mutex
	jobs   []*Job
	tick   time.Duration
	busy   atomic.Bool
	logger *zap.Logger
}

// New creates a scheduler with a 1s tick resolution
func New(logger *zap.Logger) *Scheduler {
	return &Scheduler{
		tick:   time.Second,
		logger: logger,
	}
}

// Every registers fn to run every interval, starting one interval from now
func (s *Scheduler) Every(interval time.Duration, name string, fn func()) *Job {
	job := &Job{
		name:     name,
		interval: interval,
		nextRun:  time.Now().Add(interval),
		fn:       fn,
	}
	s.mu.Lock()
	s.jobs = append(s.jobs, job)
	s.mu.Unlock()
	return job
}

// Cancel marks the given jobs cancelled and drops them from the job list
func (s *Scheduler) Cancel(jobs ...*Job) {
	for _, j := range jobs {
		if j != nil {
			j.cancelled.Store(true)
		}
	}

	s.mu.Lock()
	kept := s.jobs[:0]
	for _, j := range s.jobs {
		if !j.cancelled.Load() {
			kept = append(kept, j)
		}
	}
	s.jobs = kept
	s.mu.Unlock()
}

// Run drives the tick loop until ctx is cancelled
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.RunPending(now)
		}
	}
}

// RunPending runs all due jobs sequentially in registration order. If a
// previous invocation is still in flight the call returns immediately.
func (s *Scheduler) RunPending(now time.Time) {
	if !s.busy.CompareAndSwap(false, true) {
		return
	}
	defer s.busy.Store(false)

	s.mu.Lock()
	due := make([]*Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		if !now.Before(j.nextRun) {
			j.nextRun = now.Add(j.interval)
			due = append(due, j)
		}
	}
	s.mu.Unlock()

	for _, j := range due {
		// A job earlier in this batch may have torn a session down and
		// cancelled its siblings.
		if j.cancelled.Load() {
			continue
		}
		s.runJob(j)
	}
}

func (s *Scheduler) runJob(j *Job) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scheduled job panicked",
				zap.String("job", j.name),
				zap.Any("panic", r),
			)
		}
	}()
	j.fn()
}

// Len returns the number of live jobs
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}
