package mock

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/Harsh-BH/chroma/internal/domain"
	"github.com/Harsh-BH/chroma/internal/remote"
)

// Ensure Service implements remote.Service.
var _ remote.Service = (*Service)(nil)

// ErrTransient is a stand-in for a network hiccup.
var ErrTransient = errors.New("connection reset by peer")

// Service is a test double for remote.Service.
type Service struct {
	mu sync.Mutex

	SubmitFn   func(ctx context.Context, file []byte, meta domain.FileMeta) (*domain.SubmitResponse, error)
	ProgressFn func(ctx context.Context, fileID string) (*domain.ProgressResponse, error)
	DownloadFn func(ctx context.Context, fileID string) (*remote.Artifact, error)
	HealthFn   func(ctx context.Context) (*domain.HealthResponse, error)
	ModelsFn   func(ctx context.Context) (*domain.ModelsResponse, error)

	// Recorded calls for assertions.
	SubmitCalls   []domain.FileMeta
	ProgressCalls []string
	DownloadCalls []string
}

func (m *Service) Submit(ctx context.Context, file []byte, meta domain.FileMeta) (*domain.SubmitResponse, error) {
	m.mu.Lock()
	m.SubmitCalls = append(m.SubmitCalls, meta)
	m.mu.Unlock()
	if m.SubmitFn != nil {
		return m.SubmitFn(ctx, file, meta)
	}
	return &domain.SubmitResponse{
		FileID:    "abc123",
		Status:    "processing",
		InputURL:  "/uploads/abc123_input.jpg",
		OutputURL: "/outputs/abc123_output.jpg",
	}, nil
}

func (m *Service) Progress(ctx context.Context, fileID string) (*domain.ProgressResponse, error) {
	m.mu.Lock()
	m.ProgressCalls = append(m.ProgressCalls, fileID)
	m.mu.Unlock()
	if m.ProgressFn != nil {
		return m.ProgressFn(ctx, fileID)
	}
	return &domain.ProgressResponse{FileID: fileID, Status: domain.RemoteCompleted, Progress: 100}, nil
}

func (m *Service) Download(ctx context.Context, fileID string) (*remote.Artifact, error) {
	m.mu.Lock()
	m.DownloadCalls = append(m.DownloadCalls, fileID)
	m.mu.Unlock()
	if m.DownloadFn != nil {
		return m.DownloadFn(ctx, fileID)
	}
	return &remote.Artifact{
		Body:          io.NopCloser(strings.NewReader("colorized")),
		ContentType:   "image/jpeg",
		ContentLength: int64(len("colorized")),
		Filename:      remote.ArtifactFilename(fileID),
	}, nil
}

func (m *Service) Health(ctx context.Context) (*domain.HealthResponse, error) {
	if m.HealthFn != nil {
		return m.HealthFn(ctx)
	}
	return &domain.HealthResponse{Status: "healthy", ModelLoaded: true}, nil
}

func (m *Service) Models(ctx context.Context) (*domain.ModelsResponse, error) {
	if m.ModelsFn != nil {
		return m.ModelsFn(ctx)
	}
	return &domain.ModelsResponse{Models: []domain.ModelInfo{{Name: "U-Net Colorizer", Status: "loaded"}}}, nil
}

// ProgressCount returns how many status queries were issued.
func (m *Service) ProgressCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.ProgressCalls)
}

// Script returns a ProgressFn that replays steps in order, one per call.
// A step with a non-nil Err is returned as a query failure. Calls beyond the
// script repeat the last step.
func Script(steps ...Step) func(ctx context.Context, fileID string) (*domain.ProgressResponse, error) {
	var mu sync.Mutex
	i := 0
	return func(ctx context.Context, fileID string) (*domain.ProgressResponse, error) {
		mu.Lock()
		step := steps[min(i, len(steps)-1)]
		i++
		mu.Unlock()
		if step.Err != nil {
			return nil, step.Err
		}
		resp := step.Response
		resp.FileID = fileID
		return &resp, nil
	}
}

// Step is one scripted progress answer.
type Step struct {
	Response domain.ProgressResponse
	Err      error
}

// Processing is a non-terminal step at the given progress.
func Processing(progress int) Step {
	return Step{Response: domain.ProgressResponse{Status: domain.RemoteProcessing, Progress: progress}}
}

// Completed is a terminal success step.
func Completed(outputURL string) Step {
	return Step{Response: domain.ProgressResponse{Status: domain.RemoteCompleted, Progress: 100, OutputURL: outputURL}}
}

// Failed is a terminal failure step.
func Failed(progress int, reason string) Step {
	return Step{Response: domain.ProgressResponse{Status: domain.RemoteFailed, Progress: progress, Error: reason}}
}

// Transient is a query failure step.
func Transient() Step {
	return Step{Err: ErrTransient}
}
