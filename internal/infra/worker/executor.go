package worker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"faceswapd/internal/domain"
	"faceswapd/internal/domain/model"
	"faceswapd/internal/domain/ports/adapter"
	"faceswapd/internal/domain/ports/repository"
	"faceswapd/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// Executor pulls one task at a time, invokes the external transformer and
// records the outcome. A single executor processes one task fully before
// requesting the next: the transformer monopolizes the GPU/CPU it runs on,
// so intra-worker parallelism would only thrash it.
type Executor struct {
	queue      repository.TaskQueue
	jobs       repository.JobRepository
	uploads    repository.ArtifactStore
	outputs    repository.ArtifactStore
	tf         adapter.Transformer
	stagingDir string
	log        *zerolog.Logger
	now        func() time.Time
}

func NewExecutor(
	queue repository.TaskQueue,
	jobs repository.JobRepository,
	uploads repository.ArtifactStore,
	outputs repository.ArtifactStore,
	tf adapter.Transformer,
	stagingDir string,
	logger *zerolog.Logger,
) (*Executor, error) {
	if err := os.MkdirAll(stagingDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure staging dir: %w", err)
	}
	return &Executor{
		queue:      queue,
		jobs:       jobs,
		uploads:    uploads,
		outputs:    outputs,
		tf:         tf,
		stagingDir: stagingDir,
		log:        logger,
		now:        time.Now,
	}, nil
}

// Run blocks on the queue until ctx is cancelled.
func (e *Executor) Run(ctx context.Context) error {
	e.log.Info().Msg("worker executor started")
	for {
		task, err := e.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				e.log.Info().Msg("worker executor stopping")
				return ctx.Err()
			}
			e.log.Error().Err(err).Msg("dequeue failed")
			continue
		}
		e.Process(ctx, task)
	}
}

// Process executes one task to its terminal state. Exported so tests and the
// redelivery path can drive a single delivery directly.
func (e *Executor) Process(ctx context.Context, task *model.Task) {
	log := e.log.With().Str("job_id", task.JobID).Logger()

	if err := e.jobs.Claim(ctx, task.JobID, e.now()); err != nil {
		switch {
		case errors.Is(err, domain.ErrJobTerminal):
			// Redelivered after another worker already finished it.
			log.Debug().Msg("task redelivered for terminal job, skipping")
		case errors.Is(err, domain.ErrNotFound):
			log.Warn().Msg("task references a reaped job, skipping")
		default:
			log.Error().Err(err).Msg("claim failed")
		}
		return
	}

	log.Info().Str("swap", task.SwapRef).Str("target", task.TargetRef).Msg("processing job")
	start := e.now()

	resultRef, jobErr := e.execute(ctx, task)
	elapsed := e.now().Sub(start)

	// Record the terminal state even when the worker itself is shutting
	// down; the work is done either way.
	finishCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if jobErr == nil {
		if err := e.jobs.MarkSucceeded(finishCtx, task.JobID, resultRef, e.now()); err != nil {
			if errors.Is(err, domain.ErrJobTerminal) {
				log.Debug().Msg("job already finished by another worker")
				return
			}
			log.Error().Err(err).Msg("failed to record success")
			return
		}
		metrics.ObserveJob(string(model.JobStateSucceeded), elapsed.Seconds())
		log.Info().Str("result", resultRef).Dur("duration", elapsed).Msg("job succeeded")
		return
	}

	if err := e.jobs.MarkFailed(finishCtx, task.JobID, *jobErr, e.now()); err != nil {
		if errors.Is(err, domain.ErrJobTerminal) {
			log.Debug().Msg("job already finished by another worker")
			return
		}
		log.Error().Err(err).Msg("failed to record failure")
		return
	}
	metrics.ObserveJob(string(model.JobStateFailed), elapsed.Seconds())
	log.Error().Str("class", string(jobErr.Class)).Str("detail", jobErr.Detail).
		Dur("duration", elapsed).Msg("job failed")
}

// execute runs the transformer and ingests its output. A nil JobError means
// success and resultRef is set.
func (e *Executor) execute(ctx context.Context, task *model.Task) (string, *model.JobError) {
	srcPath, err := e.uploads.Path(task.SwapRef)
	if err != nil {
		return "", &model.JobError{Class: model.FailureTransformer, Detail: err.Error()}
	}
	tgtPath, err := e.uploads.Path(task.TargetRef)
	if err != nil {
		return "", &model.JobError{Class: model.FailureTransformer, Detail: err.Error()}
	}

	// The output format follows the target: swapping onto a gif yields a
	// gif, onto an mp4 an mp4.
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(task.TargetRef)), ".")
	animated := ext == "gif"
	outputPath := filepath.Join(e.stagingDir, task.JobID+"."+ext)
	defer os.Remove(outputPath)

	spec := adapter.Spec{
		SourcePath:   srcPath,
		TargetPath:   tgtPath,
		OutputPath:   outputPath,
		ManyFaces:    task.Options.ManyFaces,
		FaceEnhancer: task.Options.Enhancer,
		KeepFPS:      animated,
		SkipAudio:    animated,
		KeepFrames:   animated,
	}

	outcome, runErr := e.tf.Run(ctx, spec)
	if runErr != nil {
		if outcome.TimedOut {
			return "", &model.JobError{Class: model.FailureTimeout, Detail: outcome.Diagnostic}
		}
		detail := fmt.Sprintf("exit %d", outcome.ExitCode)
		if outcome.Diagnostic != "" {
			detail += ": " + outcome.Diagnostic
		}
		return "", &model.JobError{Class: model.FailureTransformer, Detail: detail}
	}

	data, err := os.ReadFile(outputPath)
	if err != nil || len(data) == 0 {
		return "", &model.JobError{
			Class:  model.FailureBadOutput,
			Detail: "transformer exited 0 but produced no output file",
		}
	}

	resultRef, err := e.outputs.Put(ctx, data, ext)
	if err != nil {
		return "", &model.JobError{
			Class:  model.FailureBadOutput,
			Detail: fmt.Sprintf("persist result: %v", err),
		}
	}
	return resultRef, nil
}
