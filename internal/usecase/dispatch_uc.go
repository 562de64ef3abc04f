package usecase

import (
	"context"
	"fmt"
	"time"

	"faceswapd/internal/domain"
	"faceswapd/internal/domain/model"
	"faceswapd/internal/domain/ports/repository"
	"faceswapd/internal/infra/metrics"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
)

// Compile-time check
var _ DispatchUseCase = (*dispatchUC)(nil)

type DispatchUseCase interface {
	// Submit validates the request, creates a queued job record, enqueues a
	// task and returns the job id. Validation failure has no side effect.
	Submit(ctx context.Context, swapRef, targetRef string, opts model.Options) (string, error)
}

type dispatchUC struct {
	jobs    repository.JobRepository
	queue   repository.TaskQueue
	uploads repository.ArtifactStore
	log     *zerolog.Logger
	now     func() time.Time
}

func NewDispatchUseCase(
	jobs repository.JobRepository,
	queue repository.TaskQueue,
	uploads repository.ArtifactStore,
	logger *zerolog.Logger,
) *dispatchUC {
	return &dispatchUC{jobs: jobs, queue: queue, uploads: uploads, log: logger, now: time.Now}
}

func (d *dispatchUC) Submit(ctx context.Context, swapRef, targetRef string, opts model.Options) (string, error) {
	// Every input must resolve before any record exists; an invalid request
	// leaves no trace.
	for _, ref := range []string{swapRef, targetRef} {
		if ref == "" {
			return "", fmt.Errorf("%w: missing input ref", domain.ErrInvalidRequest)
		}
		if err := d.uploads.Stat(ctx, ref); err != nil {
			return "", fmt.Errorf("%w: input %q not found", domain.ErrInvalidRequest, ref)
		}
	}

	now := d.now()
	job := model.NewJob(ulid.Make().String(), []string{swapRef, targetRef}, opts, now)
	if err := d.jobs.Create(ctx, job); err != nil {
		return "", fmt.Errorf("create job: %w", err)
	}

	task := &model.Task{
		JobID:     job.ID,
		SwapRef:   swapRef,
		TargetRef: targetRef,
		Options:   opts,
	}
	if err := d.queue.Enqueue(ctx, task); err != nil {
		// The record exists but no worker will ever see it; fail it rather
		// than leaving a permanently queued zombie.
		jobErr := model.JobError{Class: model.FailureEnqueue, Detail: err.Error()}
		if mErr := d.jobs.MarkFailed(ctx, job.ID, jobErr, d.now()); mErr != nil {
			d.log.Error().Err(mErr).Str("job_id", job.ID).Msg("failed to mark job after enqueue error")
		}
		return "", fmt.Errorf("%w: %v", domain.ErrQueueUnavailable, err)
	}

	metrics.IncJobSubmitted()
	d.log.Info().Str("job_id", job.ID).Str("swap", swapRef).Str("target", targetRef).Msg("job queued")
	return job.ID, nil
}
