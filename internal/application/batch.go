package application

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/devbush/vid2slides/internal/domain"
)

// MaxConcurrencyLimit caps the number of jobs a batch may run at once
const MaxConcurrencyLimit = 16

// Messages framing every job's lifecycle on the status stream
const (
	StatusStarted   = "Started"
	statusCompleted = "Completed: "
	statusFailed    = "Failed: "
)

// JobFinished reports whether event is a job's last status event and
// whether that job failed
func JobFinished(event domain.StatusEvent) (finished, failed bool) {
	switch {
	case strings.HasPrefix(event.Message, statusFailed):
		return true, true
	case strings.HasPrefix(event.Message, statusCompleted):
		return true, false
	}
	return false, false
}

// JobRunner executes one extraction job to completion
type JobRunner interface {
	Run(ctx context.Context, job domain.ExtractionJob, status StatusPublisher) domain.JobOutcome
}

// BatchOptions controls how a batch is scheduled
type BatchOptions struct {
	Parallel       bool
	MaxConcurrency int
}

// Validate rejects an unusable concurrency setting
func (o BatchOptions) Validate() error {
	if o.Parallel && (o.MaxConcurrency < 1 || o.MaxConcurrency > MaxConcurrencyLimit) {
		return fmt.Errorf("%w: max concurrency must be within [1, %d], got %d",
			domain.ErrConfiguration, MaxConcurrencyLimit, o.MaxConcurrency)
	}
	return nil
}

// Coordinator runs a batch of jobs under a bounded pool
type Coordinator struct {
	runner JobRunner
	logger *slog.Logger
}

// NewCoordinator creates a batch coordinator
func NewCoordinator(runner JobRunner, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Coordinator{runner: runner, logger: logger}
}

// Run executes every job and returns once all of them are terminal.
//
// Each job's OutputDir is treated as the batch output root: the job writes
// into a video_<id> directory below it, made unique within the batch. Jobs
// and options are validated before anything starts; a configuration error
// returns without running any job. With Parallel unset jobs run one after
// another, otherwise at most MaxConcurrency run at once and jobs are
// admitted in submission order. A failed job never stops its siblings.
func (c *Coordinator) Run(ctx context.Context, jobs []domain.ExtractionJob, opts BatchOptions, status StatusPublisher) (*domain.BatchResult, error) {
	if status == nil {
		status = discardStatus{}
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	planned, err := planJobs(jobs)
	if err != nil {
		return nil, err
	}

	result := domain.NewBatchResult()
	logger := c.logger.With("batch", result.ID.String())
	logger.Info("batch started", "jobs", len(planned), "parallel", opts.Parallel, "max_concurrency", opts.MaxConcurrency)

	var mu sync.Mutex
	record := func(outcome domain.JobOutcome) {
		mu.Lock()
		result.Outcomes[outcome.Source] = outcome
		mu.Unlock()
	}

	if opts.Parallel {
		sem := semaphore.NewWeighted(int64(opts.MaxConcurrency))
		var wg sync.WaitGroup

		for _, job := range planned {
			if err := sem.Acquire(ctx, 1); err != nil {
				record(c.cancelled(job, err, status))
				continue
			}

			wg.Add(1)
			go func(job domain.ExtractionJob) {
				defer wg.Done()
				defer sem.Release(1)

				record(c.runOne(ctx, job, status, logger))
			}(job)
		}

		wg.Wait()
	} else {
		for _, job := range planned {
			if err := ctx.Err(); err != nil {
				record(c.cancelled(job, err, status))
				continue
			}
			record(c.runOne(ctx, job, status, logger))
		}
	}

	logger.Info("batch finished", "slides", result.TotalSlides(), "failed", len(result.Failed()))
	return result, nil
}

func (c *Coordinator) runOne(ctx context.Context, job domain.ExtractionJob, status StatusPublisher, logger *slog.Logger) domain.JobOutcome {
	status.Publish(domain.NewStatusEvent(job.ID(), StatusStarted))
	logger.Debug("job started", "job", job.ID(), "dir", job.OutputDir)

	outcome := c.runner.Run(ctx, job, status)
	outcome.Source = job.Source
	outcome.OutputDir = job.OutputDir
	if outcome.Err != nil {
		outcome.SlideCount = 0
		status.Publish(domain.NewStatusEvent(job.ID(), statusFailed+outcome.Err.Error()))
	} else {
		status.Publish(domain.NewStatusEvent(job.ID(), fmt.Sprintf("%s%d slides", statusCompleted, outcome.SlideCount)))
	}
	return outcome
}

func (c *Coordinator) cancelled(job domain.ExtractionJob, err error, status StatusPublisher) domain.JobOutcome {
	err = fmt.Errorf("job not started: %w", err)
	status.Publish(domain.NewStatusEvent(job.ID(), statusFailed+err.Error()))
	return domain.JobOutcome{
		Source:    job.Source,
		OutputDir: job.OutputDir,
		Err:       err,
	}
}

// planJobs validates the jobs and assigns each a unique output directory
func planJobs(jobs []domain.ExtractionJob) ([]domain.ExtractionJob, error) {
	planned := make([]domain.ExtractionJob, 0, len(jobs))
	seenSources := make(map[string]bool, len(jobs))
	usedDirs := make(map[string]bool, len(jobs))

	for _, job := range jobs {
		if err := job.Validate(); err != nil {
			return nil, fmt.Errorf("job %q: %w", job.Source, err)
		}
		if seenSources[job.Source] {
			return nil, fmt.Errorf("%w: duplicate source %q", domain.ErrConfiguration, job.Source)
		}
		seenSources[job.Source] = true

		src, err := domain.ParseSourceInput(job.Source)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
		}

		dir := filepath.Join(job.OutputDir, src.OutputDirName())
		for n := 2; usedDirs[dir]; n++ {
			dir = filepath.Join(job.OutputDir, src.OutputDirName()+"-"+strconv.Itoa(n))
		}
		usedDirs[dir] = true

		job.OutputDir = dir
		planned = append(planned, job)
	}
	return planned, nil
}
