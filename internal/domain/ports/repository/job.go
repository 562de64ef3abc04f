package repository

import (
	"context"
	"time"

	"faceswapd/internal/domain/model"
)

// JobRepository is the result store: one record per job, read by the status
// path and mutated only through the atomic transition operations below. All
// coordination between dispatcher, workers and the status path goes through
// this port; there is no shared in-process state.
type JobRepository interface {
	// Create persists a new record in state queued. Fails with
	// domain.ErrAlreadyExists if the id is taken.
	Create(ctx context.Context, job *model.Job) error

	Find(ctx context.Context, id string) (*model.Job, error)

	// Claim transitions queued -> running and records startedAt. A record
	// already in running is claimed again (redelivery after a worker crash
	// overwrites the dead worker's claim); a terminal record is refused with
	// domain.ErrJobTerminal.
	Claim(ctx context.Context, id string, startedAt time.Time) error

	// MarkSucceeded atomically sets the terminal succeeded state together
	// with resultRef and finishedAt. The first terminal transition wins;
	// a second attempt returns domain.ErrJobTerminal.
	MarkSucceeded(ctx context.Context, id, resultRef string, finishedAt time.Time) error

	// MarkFailed atomically sets the terminal failed state with the error
	// class and diagnostic detail. Same first-writer-wins contract.
	MarkFailed(ctx context.Context, id string, jobErr model.JobError, finishedAt time.Time) error

	// IDsCreatedOn lists job ids whose created_at falls on the given UTC day,
	// for the retention sweeper.
	IDsCreatedOn(ctx context.Context, day string) ([]string, error)

	// Delete removes a record and its day-index entry. Missing records are
	// not an error.
	Delete(ctx context.Context, id string) error
}
