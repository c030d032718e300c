package domain

import (
	"context"
	"errors"
)

// Classify maps a raw error onto the closed ErrorKind taxonomy.
// A nil error has no kind. Unrecognized errors are treated as transient
// network failures.
func Classify(err error) ErrorKind {
	if err == nil {
		return ""
	}

	var jobErr *JobError
	if errors.As(err, &jobErr) && jobErr.Kind.IsValid() {
		return jobErr.Kind
	}

	switch {
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return KindTimeout
	}
	return KindNetwork
}
