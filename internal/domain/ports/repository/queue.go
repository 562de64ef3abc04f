package repository

import (
	"context"

	"faceswapd/internal/domain/model"
)

// TaskQueue carries job descriptors from the dispatcher to workers. The
// broker guarantees at-most-one concurrent consumer per message; redelivery
// after a consumer crash is at-least-once, which JobRepository.Claim is
// built to tolerate.
type TaskQueue interface {
	Enqueue(ctx context.Context, task *model.Task) error

	// Dequeue blocks until a task is available or ctx is cancelled.
	Dequeue(ctx context.Context) (*model.Task, error)
}
