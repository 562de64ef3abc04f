package usecase

import (
	"context"

	"faceswapd/internal/domain/model"
	"faceswapd/internal/domain/ports/repository"
)

// Compile-time check
var _ StatusUseCase = (*statusUC)(nil)

type StatusUseCase interface {
	// Status is a pure read against the result store. It never touches the
	// queue, so polling stays cheap under load. Unknown and already-reaped
	// ids both surface as domain.ErrNotFound.
	Status(ctx context.Context, jobID string) (*model.Job, error)
}

type statusUC struct {
	jobs repository.JobRepository
}

func NewStatusUseCase(jobs repository.JobRepository) *statusUC {
	return &statusUC{jobs: jobs}
}

func (s *statusUC) Status(ctx context.Context, jobID string) (*model.Job, error) {
	return s.jobs.Find(ctx, jobID)
}
