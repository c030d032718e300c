package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrJobNotFound is returned when a job cannot be found by ID.
	ErrJobNotFound = errors.New("job not found")

	// ErrJobFinalized is returned when a terminal job is asked to change state.
	ErrJobFinalized = errors.New("job already reached a terminal state")

	// ErrPollInProgress is returned when a second polling loop is started for a job.
	ErrPollInProgress = errors.New("job is already being polled")

	// ErrNotPolling is returned when a polling-only transition is applied outside POLLING.
	ErrNotPolling = errors.New("job is not being polled")

	// ErrAttemptBudgetExhausted is returned when an attempt would exceed MaxAttempts.
	ErrAttemptBudgetExhausted = errors.New("attempt budget exhausted")

	// ErrNotCompleted is returned when a result is requested for an unfinished job.
	ErrNotCompleted = errors.New("job has not completed")

	// ErrNoOutputLocator is returned when a job would complete without any
	// output locator to resolve.
	ErrNoOutputLocator = errors.New("completed without output locator")

	// ErrQueueFull is returned when the polling pool cannot accept more jobs.
	ErrQueueFull = errors.New("job queue is full, try again later")

	// ErrPoolStopped is returned when a job is handed to a pool that is shutting down.
	ErrPoolStopped = errors.New("job pool is stopped")

	// ErrValidation is the parent of every upload validation failure.
	ErrValidation = errors.New("invalid upload")

	// ErrEmptyFile is returned when the uploaded file has no content.
	ErrEmptyFile = fmt.Errorf("%w: file is empty", ErrValidation)

	// ErrNotAnImage is returned when the upload content type is not image/*.
	ErrNotAnImage = fmt.Errorf("%w: file must be an image", ErrValidation)

	// ErrPayloadTooLarge is returned when the upload exceeds the size limit.
	ErrPayloadTooLarge = fmt.Errorf("%w: file size too large", ErrValidation)

	// ErrUnsupportedExtension is returned when the file extension is not allowed.
	ErrUnsupportedExtension = fmt.Errorf("%w: unsupported file extension", ErrValidation)
)

// ErrorKind tags a failure with a stable category for notification sinks.
type ErrorKind string

const (
	KindValidation    ErrorKind = "ValidationError"
	KindSubmit        ErrorKind = "SubmitError"
	KindNetwork       ErrorKind = "NetworkError"
	KindRemoteFailure ErrorKind = "RemoteFailure"
	KindTimeout       ErrorKind = "TimeoutError"
	KindDownload      ErrorKind = "DownloadError"
)

// ErrorKinds lists the closed taxonomy in a stable order.
var ErrorKinds = []ErrorKind{
	KindValidation, KindSubmit, KindNetwork, KindRemoteFailure, KindTimeout, KindDownload,
}

// IsValid checks that k belongs to the taxonomy.
func (k ErrorKind) IsValid() bool {
	for _, known := range ErrorKinds {
		if k == known {
			return true
		}
	}
	return false
}

// JobError is a classified failure of one job. Reason is the human-facing
// explanation (for RemoteFailure, the remote text verbatim); Err is the cause.
type JobError struct {
	Kind   ErrorKind
	JobID  string
	Reason string
	Err    error
}

// NewJobError builds a JobError. jobID may be empty when the remote never
// assigned one.
func NewJobError(kind ErrorKind, jobID, reason string, err error) *JobError {
	return &JobError{Kind: kind, JobID: jobID, Reason: reason, Err: err}
}

func (e *JobError) Error() string {
	msg := string(e.Kind)
	if e.JobID != "" {
		msg += " (job " + e.JobID + ")"
	}
	switch {
	case e.Reason != "":
		return msg + ": " + e.Reason
	case e.Err != nil:
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *JobError) Unwrap() error {
	return e.Err
}
