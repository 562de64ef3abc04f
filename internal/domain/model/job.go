package model

import "time"

type JobState string

const (
	JobStateQueued    JobState = "queued"
	JobStateRunning   JobState = "running"
	JobStateSucceeded JobState = "succeeded"
	JobStateFailed    JobState = "failed"
)

// Terminal reports whether no further transitions are allowed from s.
func (s JobState) Terminal() bool {
	return s == JobStateSucceeded || s == JobStateFailed
}

// FailureClass is the stable error-class string stored on a failed job and
// surfaced verbatim to polling clients.
type FailureClass string

const (
	FailureEnqueue     FailureClass = "EnqueueError"
	FailureTimeout     FailureClass = "Timeout"
	FailureTransformer FailureClass = "TransformerError"
	FailureBadOutput   FailureClass = "BadOutput"
)

// Options is the configuration snapshot frozen at submission time. Later
// changes to process config must not affect in-flight jobs, so everything a
// worker needs travels with the task.
type Options struct {
	ManyFaces bool `json:"many_faces"`
	Enhancer  bool `json:"enhancer"`
}

// JobError describes why a job reached the failed state.
type JobError struct {
	Class  FailureClass `json:"class"`
	Detail string       `json:"detail,omitempty"`
}

// Job is the record describing one requested transformation and its
// lifecycle. State moves queued -> running -> succeeded|failed and never
// regresses; ResultRef is set iff the job succeeded.
type Job struct {
	ID         string
	State      JobState
	InputRefs  []string
	Options    Options
	ResultRef  string
	Error      *JobError
	CreatedAt  time.Time
	StartedAt  time.Time
	FinishedAt time.Time
}

func NewJob(id string, inputRefs []string, opts Options, now time.Time) *Job {
	refs := make([]string, len(inputRefs))
	copy(refs, inputRefs)
	return &Job{
		ID:        id,
		State:     JobStateQueued,
		InputRefs: refs,
		Options:   opts,
		CreatedAt: now.UTC(),
	}
}

// Task is the queue message: the minimal projection of a Job a worker needs
// to execute without re-reading shared state. SwapRef is the face source,
// TargetRef the image or video the face is applied to.
type Task struct {
	JobID     string  `json:"job_id"`
	SwapRef   string  `json:"swap_ref"`
	TargetRef string  `json:"target_ref"`
	Options   Options `json:"options"`
}
