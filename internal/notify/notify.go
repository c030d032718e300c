package notify

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Harsh-BH/chroma/internal/domain"
	"github.com/Harsh-BH/chroma/internal/metrics"
)

// Event is one classified failure delivered to a sink.
type Event struct {
	ID         uuid.UUID        `json:"id"`
	Kind       domain.ErrorKind `json:"kind"`
	JobID      string           `json:"job_id,omitempty"`
	Reason     string           `json:"reason,omitempty"`
	Message    string           `json:"message"`
	OccurredAt time.Time        `json:"occurred_at"`
}

// Sink receives error events. Presentation is the sink's concern.
type Sink interface {
	Notify(ctx context.Context, event Event) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, event Event) error

func (f SinkFunc) Notify(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Multi fans an event out to every sink and joins their errors.
func Multi(sinks ...Sink) Sink {
	return SinkFunc(func(ctx context.Context, event Event) error {
		var errs []error
		for _, s := range sinks {
			if err := s.Notify(ctx, event); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
}

// Reporter classifies errors and forwards them to a sink.
type Reporter struct {
	sink   Sink
	logger *zap.Logger
	now    func() time.Time
}

// NewReporter creates a new Reporter.
func NewReporter(sink Sink, logger *zap.Logger) *Reporter {
	return &Reporter{
		sink:   sink,
		logger: logger,
		now:    time.Now,
	}
}

// Report classifies err and emits exactly one event for it. jobID overrides
// the ID carried by the error when set. A nil error reports nothing.
func (r *Reporter) Report(ctx context.Context, jobID string, err error) domain.ErrorKind {
	kind := domain.Classify(err)
	if kind == "" {
		return kind
	}

	event := Event{
		Kind:       kind,
		JobID:      jobID,
		Message:    err.Error(),
		OccurredAt: r.now().UTC(),
	}
	if id, idErr := uuid.NewV7(); idErr == nil {
		event.ID = id
	}
	var jobErr *domain.JobError
	if errors.As(err, &jobErr) {
		event.Reason = jobErr.Reason
		if event.JobID == "" {
			event.JobID = jobErr.JobID
		}
	}

	metrics.ErrorEventsTotal.WithLabelValues(string(kind)).Inc()

	// Delivered even when ctx is already cancelled.
	if notifyErr := r.sink.Notify(context.WithoutCancel(ctx), event); notifyErr != nil {
		r.logger.Warn("Failed to deliver error event",
			zap.String("kind", string(kind)),
			zap.String("job_id", event.JobID),
			zap.Error(notifyErr),
		)
	}
	return kind
}
