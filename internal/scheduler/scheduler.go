// Package scheduler runs the periodic sweeps. Each job gets its own goroutine
// and each run gets a wall-clock budget, so a large batch can time out and
// resume on the next tick instead of running unbounded.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Job is one periodic unit of work. Every run must be idempotent: a run cut
// short by the budget is simply retried in full on the next tick.
type Job struct {
	Name         string
	Interval     time.Duration
	InitialDelay time.Duration
	Timeout      time.Duration
	Run          func(ctx context.Context) error
}

// Scheduler drives a set of jobs until its context is cancelled.
type Scheduler struct {
	jobs []Job
}

// New creates an empty scheduler.
func New() *Scheduler {
	return &Scheduler{}
}

// Add registers a job. Not safe to call after Run.
func (s *Scheduler) Add(job Job) {
	s.jobs = append(s.jobs, job)
}

// Run starts every job and blocks until ctx is cancelled and all in-flight
// runs have finished.
func (s *Scheduler) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, job := range s.jobs {
		wg.Add(1)
		go func(job Job) {
			defer wg.Done()
			s.runJob(ctx, job)
		}(job)
	}
	wg.Wait()
}

func (s *Scheduler) runJob(ctx context.Context, job Job) {
	if job.InitialDelay > 0 {
		select {
		case <-time.After(job.InitialDelay):
		case <-ctx.Done():
			return
		}
	}

	s.runOnce(ctx, job)

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runOnce(ctx, job)
		case <-ctx.Done():
			slog.Info("Job shutting down", "job", job.Name)
			return
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, job Job) {
	runCtx := ctx
	if job.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, job.Timeout)
		defer cancel()
	}

	start := time.Now()
	if err := job.Run(runCtx); err != nil {
		slog.Error("Job run failed", "job", job.Name, "err", err, "took", time.Since(start))
		return
	}
	slog.Info("Job run finished", "job", job.Name, "took", time.Since(start))
}
