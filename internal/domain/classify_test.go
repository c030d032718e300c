package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"nil", nil, ""},
		{"validation sentinel", ErrPayloadTooLarge, KindValidation},
		{"wrapped validation", fmt.Errorf("upload: %w", ErrNotAnImage), KindValidation},
		{"submit", NewJobError(KindSubmit, "", "status 503", nil), KindSubmit},
		{"remote failure", NewJobError(KindRemoteFailure, "abc", "out of memory", nil), KindRemoteFailure},
		{"wrapped timeout", fmt.Errorf("poll: %w", NewJobError(KindTimeout, "abc", "", nil)), KindTimeout},
		{"download", NewJobError(KindDownload, "abc", "", errors.New("eof")), KindDownload},
		{"deadline", context.DeadlineExceeded, KindTimeout},
		{"unknown", errors.New("connection reset by peer"), KindNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestJobError_Message(t *testing.T) {
	err := NewJobError(KindRemoteFailure, "abc", "CUDA out of memory", nil)
	if got := err.Error(); got != "RemoteFailure (job abc): CUDA out of memory" {
		t.Errorf("unexpected message %q", got)
	}

	cause := errors.New("dial tcp: refused")
	err = NewJobError(KindSubmit, "", "", cause)
	if got := err.Error(); got != "SubmitError: dial tcp: refused" {
		t.Errorf("unexpected message %q", got)
	}
	if !errors.Is(err, cause) {
		t.Error("expected JobError to unwrap to its cause")
	}
}

func TestErrorKindsAreClosed(t *testing.T) {
	if len(ErrorKinds) != 6 {
		t.Errorf("expected 6 error kinds, got %d", len(ErrorKinds))
	}
	for _, k := range ErrorKinds {
		if !k.IsValid() {
			t.Errorf("%s should be valid", k)
		}
	}
	if ErrorKind("Other").IsValid() {
		t.Error("unknown kind must not be valid")
	}
}
