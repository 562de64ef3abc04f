package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"faceswapd/internal/domain"
	"faceswapd/internal/domain/model"
	"faceswapd/internal/domain/ports/repository"

	"github.com/go-redis/redis/v8"
)

var _ repository.JobRepository = (*JobRepo)(nil)

// JobRepo is the result store: one hash per job record plus a per-day id set
// used by the retention sweeper. All state transitions run as Lua scripts so
// concurrent workers can never double-claim a terminal state.
type JobRepo struct {
	client *Client
}

func NewJobRepo(client *Client) *JobRepo {
	return &JobRepo{client: client}
}

func jobKey(id string) string { return "swapjob:" + id }

func dayKey(day string) string { return "swapjobs:day:" + day }

var luaCreate = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
	return 0
end
redis.call("HSET", KEYS[1],
	"state", ARGV[1],
	"input_refs", ARGV[2],
	"options", ARGV[3],
	"created_at", ARGV[4])
redis.call("SADD", KEYS[2], ARGV[5])
return 1`)

// luaClaim moves queued|running -> running. Re-claiming a running record is
// deliberate: after a worker crash the broker redelivers the task and the new
// worker overwrites the dead worker's claim. Terminal records are refused.
var luaClaim = redis.NewScript(`
local s = redis.call("HGET", KEYS[1], "state")
if not s then
	return -1
end
if s == "succeeded" or s == "failed" then
	return 0
end
redis.call("HSET", KEYS[1], "state", "running", "started_at", ARGV[1])
return 1`)

// luaFinish sets a terminal state exactly once; the first writer wins.
var luaFinish = redis.NewScript(`
local s = redis.call("HGET", KEYS[1], "state")
if not s then
	return -1
end
if s == "succeeded" or s == "failed" then
	return 0
end
redis.call("HSET", KEYS[1], "state", ARGV[1], "finished_at", ARGV[2])
if ARGV[1] == "succeeded" then
	redis.call("HSET", KEYS[1], "result_ref", ARGV[3])
else
	redis.call("HSET", KEYS[1], "error_class", ARGV[3], "error_detail", ARGV[4])
end
return 1`)

func (r *JobRepo) Create(ctx context.Context, job *model.Job) error {
	refs, err := json.Marshal(job.InputRefs)
	if err != nil {
		return fmt.Errorf("marshal input refs: %w", err)
	}
	opts, err := json.Marshal(job.Options)
	if err != nil {
		return fmt.Errorf("marshal options: %w", err)
	}
	day := job.CreatedAt.UTC().Format("2006-01-02")
	n, err := luaCreate.Run(ctx, r.client.cli,
		[]string{jobKey(job.ID), dayKey(day)},
		string(model.JobStateQueued), string(refs), string(opts),
		job.CreatedAt.UTC().Format(time.RFC3339Nano), job.ID,
	).Int()
	if err != nil {
		return fmt.Errorf("create job record: %w", err)
	}
	if n == 0 {
		return domain.ErrAlreadyExists
	}
	return nil
}

func (r *JobRepo) Find(ctx context.Context, id string) (*model.Job, error) {
	fields, err := r.client.cli.HGetAll(ctx, jobKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("read job record: %w", err)
	}
	if len(fields) == 0 {
		return nil, domain.ErrNotFound
	}
	job := &model.Job{
		ID:        id,
		State:     model.JobState(fields["state"]),
		ResultRef: fields["result_ref"],
	}
	if v := fields["input_refs"]; v != "" {
		if err := json.Unmarshal([]byte(v), &job.InputRefs); err != nil {
			return nil, fmt.Errorf("decode input refs: %w", err)
		}
	}
	if v := fields["options"]; v != "" {
		if err := json.Unmarshal([]byte(v), &job.Options); err != nil {
			return nil, fmt.Errorf("decode options: %w", err)
		}
	}
	if v := fields["error_class"]; v != "" {
		job.Error = &model.JobError{
			Class:  model.FailureClass(v),
			Detail: fields["error_detail"],
		}
	}
	job.CreatedAt = parseTime(fields["created_at"])
	job.StartedAt = parseTime(fields["started_at"])
	job.FinishedAt = parseTime(fields["finished_at"])
	return job, nil
}

func (r *JobRepo) Claim(ctx context.Context, id string, startedAt time.Time) error {
	n, err := luaClaim.Run(ctx, r.client.cli, []string{jobKey(id)},
		startedAt.UTC().Format(time.RFC3339Nano)).Int()
	if err != nil {
		return fmt.Errorf("claim job: %w", err)
	}
	switch n {
	case -1:
		return domain.ErrNotFound
	case 0:
		return domain.ErrJobTerminal
	}
	return nil
}

func (r *JobRepo) MarkSucceeded(ctx context.Context, id, resultRef string, finishedAt time.Time) error {
	return r.finish(ctx, id, model.JobStateSucceeded, finishedAt, resultRef, "")
}

func (r *JobRepo) MarkFailed(ctx context.Context, id string, jobErr model.JobError, finishedAt time.Time) error {
	return r.finish(ctx, id, model.JobStateFailed, finishedAt, string(jobErr.Class), jobErr.Detail)
}

func (r *JobRepo) finish(ctx context.Context, id string, state model.JobState, finishedAt time.Time, arg3, arg4 string) error {
	n, err := luaFinish.Run(ctx, r.client.cli, []string{jobKey(id)},
		string(state), finishedAt.UTC().Format(time.RFC3339Nano), arg3, arg4).Int()
	if err != nil {
		return fmt.Errorf("finish job: %w", err)
	}
	switch n {
	case -1:
		return domain.ErrNotFound
	case 0:
		return domain.ErrJobTerminal
	}
	return nil
}

func (r *JobRepo) IDsCreatedOn(ctx context.Context, day string) ([]string, error) {
	ids, err := r.client.cli.SMembers(ctx, dayKey(day)).Result()
	if err != nil {
		return nil, fmt.Errorf("list day index: %w", err)
	}
	return ids, nil
}

func (r *JobRepo) Delete(ctx context.Context, id string) error {
	createdAt, err := r.client.cli.HGet(ctx, jobKey(id), "created_at").Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read job record: %w", err)
	}
	day := parseTime(createdAt).UTC().Format("2006-01-02")
	if err := r.client.cli.Del(ctx, jobKey(id)).Err(); err != nil {
		return fmt.Errorf("delete job record: %w", err)
	}
	if err := r.client.cli.SRem(ctx, dayKey(day), id).Err(); err != nil {
		return fmt.Errorf("unindex job record: %w", err)
	}
	return nil
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}
