package domain

import "time"

// JobStatus represents the client-side lifecycle state of a colorization job.
type JobStatus string

const (
	StatusSubmitted JobStatus = "SUBMITTED"
	StatusPolling   JobStatus = "POLLING"
	StatusCompleted JobStatus = "COMPLETED"
	StatusFailed    JobStatus = "FAILED"
	StatusTimedOut  JobStatus = "TIMED_OUT"
)

// IsTerminal returns true if the status represents a final state.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusTimedOut:
		return true
	}
	return false
}

// Job is a single submitted colorization request and its tracked lifecycle.
//
// Fields are exported for serialization only. State changes go through the
// methods below, which refuse to move a job out of a terminal state.
type Job struct {
	ID                string    `json:"id"`
	Status            JobStatus `json:"status"`
	Progress          int       `json:"progress"`
	InputRef          string    `json:"input_ref"`
	OutputRef         string    `json:"output_ref,omitempty"`
	ExpectedOutputRef string    `json:"expected_output_ref,omitempty"`
	Reason            string    `json:"reason,omitempty"`
	Attempt           int       `json:"attempt"`
	MaxAttempts       int       `json:"max_attempts"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// NewJob creates a job in the SUBMITTED state. expectedOutputRef is the
// provisional locator handed out at submission; it only becomes OutputRef
// once the remote reports completion.
func NewJob(id, inputRef, expectedOutputRef string, now time.Time) *Job {
	return &Job{
		ID:                id,
		Status:            StatusSubmitted,
		InputRef:          inputRef,
		ExpectedOutputRef: expectedOutputRef,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// StartPolling moves a submitted job into POLLING with a fresh attempt budget.
func (j *Job) StartPolling(maxAttempts int, now time.Time) error {
	switch {
	case j.Status.IsTerminal():
		return ErrJobFinalized
	case j.Status == StatusPolling:
		return ErrPollInProgress
	}
	j.Status = StatusPolling
	j.Attempt = 0
	j.MaxAttempts = maxAttempts
	j.UpdatedAt = now
	return nil
}

// RecordAttempt counts one status query against the attempt budget.
func (j *Job) RecordAttempt(now time.Time) error {
	if err := j.requirePolling(); err != nil {
		return err
	}
	if j.Attempt >= j.MaxAttempts {
		return ErrAttemptBudgetExhausted
	}
	j.Attempt++
	j.UpdatedAt = now
	return nil
}

// UpdateProgress records remote progress. Values are clamped to 0..100 and
// regressions are ignored.
func (j *Job) UpdateProgress(progress int, now time.Time) error {
	if err := j.requirePolling(); err != nil {
		return err
	}
	progress = min(max(progress, 0), 100)
	if progress > j.Progress {
		j.Progress = progress
		j.UpdatedAt = now
	}
	return nil
}

// Complete finalizes the job as COMPLETED. An empty outputRef falls back to
// the provisional locator from submission; with neither available the job is
// left unchanged and ErrNoOutputLocator is returned.
func (j *Job) Complete(outputRef string, now time.Time) error {
	if err := j.requirePolling(); err != nil {
		return err
	}
	if outputRef == "" {
		outputRef = j.ExpectedOutputRef
	}
	if outputRef == "" {
		return ErrNoOutputLocator
	}
	j.Status = StatusCompleted
	j.OutputRef = outputRef
	j.Progress = 100
	j.UpdatedAt = now
	return nil
}

// Fail finalizes the job as FAILED with the remote-supplied reason.
func (j *Job) Fail(reason string, now time.Time) error {
	if err := j.requirePolling(); err != nil {
		return err
	}
	j.Status = StatusFailed
	j.Reason = reason
	j.UpdatedAt = now
	return nil
}

// TimeOut finalizes the job as TIMED_OUT.
func (j *Job) TimeOut(now time.Time) error {
	if err := j.requirePolling(); err != nil {
		return err
	}
	j.Status = StatusTimedOut
	j.UpdatedAt = now
	return nil
}

// Snapshot returns a copy of the job that is safe to hand to other goroutines.
func (j *Job) Snapshot() Job {
	return *j
}

func (j *Job) requirePolling() error {
	if j.Status.IsTerminal() {
		return ErrJobFinalized
	}
	if j.Status != StatusPolling {
		return ErrNotPolling
	}
	return nil
}

// FileMeta describes an upload. Validation happens before submission.
type FileMeta struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// ResolvedResult holds fully-qualified locators for a completed job.
type ResolvedResult struct {
	JobID       string `json:"job_id"`
	InputURL    string `json:"input_url"`
	OutputURL   string `json:"output_url"`
	DownloadURL string `json:"download_url"`
}
