package domain

import "time"

// JobState enumerates the remote job lifecycle. Transitions only move
// forward: waiting -> success | fail.
type JobState string

const (
	JobStateWaiting JobState = "waiting"
	JobStateSuccess JobState = "success"
	JobStateFail    JobState = "fail"
)

// GenerationJob tracks one remote provider task for the lifetime of a request.
type GenerationJob struct {
	TaskID      string
	State       JobState
	Resolution  Resolution
	SubmittedAt time.Time
}

// NewGenerationJob records a freshly submitted provider task.
func NewGenerationJob(taskID string, res Resolution) GenerationJob {
	return GenerationJob{
		TaskID:      taskID,
		State:       JobStateWaiting,
		Resolution:  res,
		SubmittedAt: time.Now(),
	}
}

// Finish settles the job. A job that already reached a terminal state keeps
// it; only waiting jobs transition.
func (j *GenerationJob) Finish(success bool) {
	if j.State != JobStateWaiting {
		return
	}
	if success {
		j.State = JobStateSuccess
		return
	}
	j.State = JobStateFail
}

// GenerationResult is what a completed orchestration hands back to the caller.
type GenerationResult struct {
	ImageURL  string
	TaskID    string
	Watermark bool
}
