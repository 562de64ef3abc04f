package usecase

import (
	"context"
	"sync"
	"time"

	"faceswapd/internal/domain"
	"faceswapd/internal/domain/model"
)

// memJobRepo is a small in-memory result store used by unit tests. It mirrors
// the transition contract of the Redis implementation: claim re-claims a
// running record but refuses terminal ones, and terminal writes are
// first-writer-wins.
type memJobRepo struct {
	mu    sync.RWMutex
	store map[string]*model.Job
}

func newMemJobRepo() *memJobRepo {
	return &memJobRepo{store: make(map[string]*model.Job)}
}

func (m *memJobRepo) Create(ctx context.Context, job *model.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[job.ID]; ok {
		return domain.ErrAlreadyExists
	}
	cp := *job
	m.store[job.ID] = &cp
	return nil
}

func (m *memJobRepo) Find(ctx context.Context, id string) (*model.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	j, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *j
	return &cp, nil
}

func (m *memJobRepo) Claim(ctx context.Context, id string, startedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	if j.State.Terminal() {
		return domain.ErrJobTerminal
	}
	j.State = model.JobStateRunning
	j.StartedAt = startedAt
	return nil
}

func (m *memJobRepo) MarkSucceeded(ctx context.Context, id, resultRef string, finishedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	if j.State.Terminal() {
		return domain.ErrJobTerminal
	}
	j.State = model.JobStateSucceeded
	j.ResultRef = resultRef
	j.FinishedAt = finishedAt
	return nil
}

func (m *memJobRepo) MarkFailed(ctx context.Context, id string, jobErr model.JobError, finishedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	if j.State.Terminal() {
		return domain.ErrJobTerminal
	}
	j.State = model.JobStateFailed
	j.Error = &jobErr
	j.FinishedAt = finishedAt
	return nil
}

func (m *memJobRepo) IDsCreatedOn(ctx context.Context, day string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var ids []string
	for id, j := range m.store {
		if j.CreatedAt.UTC().Format("2006-01-02") == day {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (m *memJobRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.store, id)
	return nil
}

func (m *memJobRepo) size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.store)
}

// memQueue collects enqueued tasks; enqueueErr simulates a broker outage.
type memQueue struct {
	mu         sync.Mutex
	tasks      []*model.Task
	enqueueErr error
}

func (q *memQueue) Enqueue(ctx context.Context, task *model.Task) error {
	if q.enqueueErr != nil {
		return q.enqueueErr
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	cp := *task
	q.tasks = append(q.tasks, &cp)
	return nil
}

func (q *memQueue) Dequeue(ctx context.Context) (*model.Task, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.tasks) == 0 {
		return nil, context.Canceled
	}
	t := q.tasks[0]
	q.tasks = q.tasks[1:]
	return t, nil
}

func (q *memQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// memArtifacts tracks refs only; content does not matter at dispatch time.
type memArtifacts struct {
	refs map[string]struct{}
}

func newMemArtifacts(refs ...string) *memArtifacts {
	m := &memArtifacts{refs: make(map[string]struct{})}
	for _, r := range refs {
		m.refs[r] = struct{}{}
	}
	return m
}

func (m *memArtifacts) Put(ctx context.Context, data []byte, ext string) (string, error) {
	ref := "2024-01-01/generated." + ext
	m.refs[ref] = struct{}{}
	return ref, nil
}

func (m *memArtifacts) Get(ctx context.Context, ref string) ([]byte, error) {
	if _, ok := m.refs[ref]; !ok {
		return nil, domain.ErrNotFound
	}
	return []byte("bytes"), nil
}

func (m *memArtifacts) Stat(ctx context.Context, ref string) error {
	if _, ok := m.refs[ref]; !ok {
		return domain.ErrNotFound
	}
	return nil
}

func (m *memArtifacts) Delete(ctx context.Context, ref string) error {
	if _, ok := m.refs[ref]; !ok {
		return domain.ErrNotFound
	}
	delete(m.refs, ref)
	return nil
}

func (m *memArtifacts) Path(ref string) (string, error) { return "/artifacts/" + ref, nil }

func (m *memArtifacts) Partitions() ([]string, error) { return nil, nil }

func (m *memArtifacts) RemovePartition(day string) error { return nil }
