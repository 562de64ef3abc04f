package usecase

import (
	"context"
	"errors"
	"testing"

	"faceswapd/internal/domain"
	"faceswapd/internal/domain/model"

	"github.com/rs/zerolog"
)

func testLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func TestSubmitCreatesQueuedJobAndTask(t *testing.T) {
	jobs := newMemJobRepo()
	queue := &memQueue{}
	uploads := newMemArtifacts("2024-01-01/swap.png", "2024-01-01/target.jpg")
	uc := NewDispatchUseCase(jobs, queue, uploads, testLogger())

	opts := model.Options{ManyFaces: false, Enhancer: false}
	id, err := uc.Submit(context.Background(), "2024-01-01/swap.png", "2024-01-01/target.jpg", opts)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if id == "" {
		t.Fatal("expected a job id")
	}

	// Status immediately after submit must be queued, never not-found.
	job, err := jobs.Find(context.Background(), id)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if job.State != model.JobStateQueued {
		t.Fatalf("state = %q, want queued", job.State)
	}
	if job.CreatedAt.IsZero() {
		t.Fatal("created_at not set")
	}
	if job.Options != opts {
		t.Fatalf("options = %+v, want %+v", job.Options, opts)
	}

	if queue.len() != 1 {
		t.Fatalf("queue length = %d, want 1", queue.len())
	}
	task := queue.tasks[0]
	if task.JobID != id || task.SwapRef != "2024-01-01/swap.png" || task.TargetRef != "2024-01-01/target.jpg" {
		t.Fatalf("unexpected task: %+v", task)
	}
}

func TestSubmitUnknownInputRefHasNoSideEffect(t *testing.T) {
	jobs := newMemJobRepo()
	queue := &memQueue{}
	uploads := newMemArtifacts("2024-01-01/swap.png")
	uc := NewDispatchUseCase(jobs, queue, uploads, testLogger())

	_, err := uc.Submit(context.Background(), "2024-01-01/swap.png", "2024-01-01/missing.jpg", model.Options{})
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("err = %v, want ErrInvalidRequest", err)
	}
	if jobs.size() != 0 {
		t.Fatalf("job records created = %d, want 0", jobs.size())
	}
	if queue.len() != 0 {
		t.Fatalf("tasks enqueued = %d, want 0", queue.len())
	}
}

func TestSubmitEmptyRefRejected(t *testing.T) {
	jobs := newMemJobRepo()
	uc := NewDispatchUseCase(jobs, &memQueue{}, newMemArtifacts(), testLogger())

	_, err := uc.Submit(context.Background(), "", "2024-01-01/target.jpg", model.Options{})
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("err = %v, want ErrInvalidRequest", err)
	}
	if jobs.size() != 0 {
		t.Fatal("record created for invalid request")
	}
}

func TestSubmitEnqueueFailureMarksJobFailed(t *testing.T) {
	jobs := newMemJobRepo()
	queue := &memQueue{enqueueErr: errors.New("broker down")}
	uploads := newMemArtifacts("2024-01-01/swap.png", "2024-01-01/target.jpg")
	uc := NewDispatchUseCase(jobs, queue, uploads, testLogger())

	_, err := uc.Submit(context.Background(), "2024-01-01/swap.png", "2024-01-01/target.jpg", model.Options{})
	if !errors.Is(err, domain.ErrQueueUnavailable) {
		t.Fatalf("err = %v, want ErrQueueUnavailable", err)
	}

	// The record must not be left as a permanently queued zombie.
	if jobs.size() != 1 {
		t.Fatalf("job records = %d, want 1", jobs.size())
	}
	for id := range jobs.store {
		job, _ := jobs.Find(context.Background(), id)
		if job.State != model.JobStateFailed {
			t.Fatalf("state = %q, want failed", job.State)
		}
		if job.Error == nil || job.Error.Class != model.FailureEnqueue {
			t.Fatalf("error = %+v, want class EnqueueError", job.Error)
		}
	}
}
