package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Harsh-BH/chroma/internal/domain"
	"github.com/Harsh-BH/chroma/internal/notify"
	notifymock "github.com/Harsh-BH/chroma/internal/notify/mock"
	remotemock "github.com/Harsh-BH/chroma/internal/remote/mock"
	"github.com/Harsh-BH/chroma/internal/repository/memory"
)

const testBaseURL = "http://colorizer.local:8000"

// recordingDelay is a zero-delay scheduler that remembers every suspension.
type recordingDelay struct {
	mu    sync.Mutex
	calls []time.Duration
}

func (r *recordingDelay) Delay(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	r.calls = append(r.calls, d)
	r.mu.Unlock()
	return nil
}

func (r *recordingDelay) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func (r *recordingDelay) Total() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	var total time.Duration
	for _, d := range r.calls {
		total += d
	}
	return total
}

func newSubmittedJob(id string) *domain.Job {
	return domain.NewJob(id, "/uploads/"+id+"_input.jpg", "/outputs/"+id+"_output.jpg", time.Now().UTC())
}

func newTestPoller(svc *remotemock.Service, delay *recordingDelay) *PollJobUsecase {
	return NewPollJobUsecase(svc, memory.NewPollLock(), delay.Delay, zap.NewNop())
}

type pipeline struct {
	svc      *remotemock.Service
	sink     *notifymock.Sink
	delay    *recordingDelay
	colorize *ColorizeUsecase
	download *DownloadUsecase
}

func newTestPipeline(t *testing.T, svc *remotemock.Service) *pipeline {
	t.Helper()
	logger := zap.NewNop()
	sink := &notifymock.Sink{}
	delay := &recordingDelay{}
	reporter := notify.NewReporter(sink, logger)

	return &pipeline{
		svc:   svc,
		sink:  sink,
		delay: delay,
		colorize: NewColorizeUsecase(
			NewSubmitJobUsecase(svc, logger),
			NewPollJobUsecase(svc, memory.NewPollLock(), delay.Delay, logger),
			reporter,
			testBaseURL,
			logger,
		),
		download: NewDownloadUsecase(svc, reporter, logger),
	}
}

var testFile = []byte("\xff\xd8\xff\xe0grayscale")

var testMeta = domain.FileMeta{Filename: "photo.jpg", ContentType: "image/jpeg", Size: int64(len(testFile))}

func nopLogger() *zap.Logger {
	return zap.NewNop()
}
