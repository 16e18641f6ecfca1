package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/asookemart/asooke-backend/pkg/logger"
	"github.com/asookemart/asooke-backend/pkg/metrics"
)

const defaultInterval = 24 * time.Hour

// Job is one housekeeping task. Names double as metric labels.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

type ServiceParams struct {
	Logger   *logger.Logger
	Jobs     []Job
	Lock     Lock
	Metrics  *metrics.HousekeepingMetrics
	Interval time.Duration
}

// Service runs the housekeeping jobs on a fixed cadence. The lock keeps a
// cycle to one worker across the fleet.
type Service struct {
	logg     *logger.Logger
	jobs     []Job
	lock     Lock
	metrics  *metrics.HousekeepingMetrics
	interval time.Duration
}

// Report summarises one cycle.
type Report struct {
	Skipped bool
	Ran     []string
	Failed  []string
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Lock == nil {
		return nil, fmt.Errorf("lock required")
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Service{
		logg:     params.Logger,
		jobs:     uniqueJobs(params.Jobs),
		lock:     params.Lock,
		metrics:  params.Metrics,
		interval: interval,
	}, nil
}

// uniqueJobs drops nils and lets a later job replace an earlier one with the
// same name, keeping the first position.
func uniqueJobs(jobs []Job) []Job {
	out := make([]Job, 0, len(jobs))
	seen := make(map[string]int, len(jobs))
	for _, job := range jobs {
		if job == nil {
			continue
		}
		if i, ok := seen[job.Name()]; ok {
			out[i] = job
			continue
		}
		seen[job.Name()] = len(out)
		out = append(out, job)
	}
	return out
}

// Jobs lists the scheduled job names in run order.
func (s *Service) Jobs() []string {
	names := make([]string, len(s.jobs))
	for i, job := range s.jobs {
		names[i] = job.Name()
	}
	return names
}

// RunOnce performs a single cycle. A failing job does not stop the others;
// their errors come back combined.
func (s *Service) RunOnce(ctx context.Context) (Report, error) {
	locked, err := s.lock.Acquire(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("lock acquire: %w", err)
	}
	if !locked {
		s.metrics.CycleFinished(true)
		s.logg.Info(ctx, "cron.cycle skipped, lock held elsewhere")
		return Report{Skipped: true}, nil
	}
	defer func() {
		if err := s.lock.Release(ctx); err != nil {
			s.logg.Error(ctx, "cron.lock release failed", err)
		}
	}()

	var (
		report Report
		errs   error
	)
	for _, job := range s.jobs {
		if err := s.runJob(ctx, job); err != nil {
			report.Failed = append(report.Failed, job.Name())
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", job.Name(), err))
			continue
		}
		report.Ran = append(report.Ran, job.Name())
	}
	s.metrics.CycleFinished(false)

	summary := s.logg.WithFields(ctx, map[string]any{"ran": len(report.Ran), "failed": len(report.Failed)})
	s.logg.Info(summary, "cron.cycle complete")
	return report, errs
}

// Run cycles until ctx is canceled, starting immediately so a fresh deploy
// does not sit idle for a whole interval.
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		if _, err := s.RunOnce(ctx); err != nil {
			s.logg.Error(ctx, "cron.cycle failed", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *Service) runJob(ctx context.Context, job Job) error {
	ctx = s.logg.WithField(ctx, "job", job.Name())
	started := time.Now()
	err := job.Run(ctx)
	elapsed := time.Since(started)
	s.metrics.JobFinished(job.Name(), elapsed, err)

	ctx = s.logg.WithField(ctx, "duration_ms", elapsed.Milliseconds())
	if err != nil {
		s.logg.Error(ctx, "cron.job failed", err)
		return err
	}
	s.logg.Info(ctx, "cron.job done")
	return nil
}
