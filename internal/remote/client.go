package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Harsh-BH/chroma/internal/domain"
)

const (
	fileField       = "file"
	maxErrorBodyLen = 4 << 10 // 4 KB
)

// Service is the HTTP contract of the remote colorization service.
// Implementations must be safe for concurrent use.
type Service interface {
	// Submit uploads one file and returns the remote job identifiers.
	Submit(ctx context.Context, file []byte, meta domain.FileMeta) (*domain.SubmitResponse, error)

	// Progress queries the remote status of a job.
	Progress(ctx context.Context, fileID string) (*domain.ProgressResponse, error)

	// Download opens the final artifact stream. The caller closes Body.
	Download(ctx context.Context, fileID string) (*Artifact, error)

	// Health reports whether the service is up and its model is loaded.
	Health(ctx context.Context) (*domain.HealthResponse, error)

	// Models lists the models the service exposes.
	Models(ctx context.Context) (*domain.ModelsResponse, error)
}

// Artifact is an open download of a colorized image.
type Artifact struct {
	Body          io.ReadCloser
	ContentType   string
	ContentLength int64
	Filename      string
}

// StatusError is returned when the service answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("remote: unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("remote: status %d: %s", e.StatusCode, e.Detail)
}

// Client talks to the colorization service over HTTP.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	logger  *zap.Logger
}

var _ Service = (*Client)(nil)

// NewClient creates a client for the service rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("remote: parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("remote: base url %q must be http or https", baseURL)
	}
	return &Client{
		baseURL: u,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}, nil
}

// BaseURL returns the configured service root.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

func (c *Client) Submit(ctx context.Context, file []byte, meta domain.FileMeta) (*domain.SubmitResponse, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, fileField, meta.Filename))
	contentType := meta.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)

	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("remote: create multipart part: %w", err)
	}
	if _, err := part.Write(file); err != nil {
		return nil, fmt.Errorf("remote: write multipart body: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("remote: close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("api", "colorize"), &body)
	if err != nil {
		return nil, fmt.Errorf("remote: build submit request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var resp domain.SubmitResponse
	if err := c.doJSON(req, &resp); err != nil {
		return nil, err
	}
	if resp.FileID == "" {
		return nil, fmt.Errorf("remote: submit response has no file_id")
	}

	c.logger.Debug("Uploaded file to colorization service",
		zap.String("file_id", resp.FileID),
		zap.String("filename", meta.Filename),
		zap.Int("bytes", len(file)),
	)
	return &resp, nil
}

func (c *Client) Progress(ctx context.Context, fileID string) (*domain.ProgressResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("api", "progress", fileID), nil)
	if err != nil {
		return nil, fmt.Errorf("remote: build progress request: %w", err)
	}

	var resp domain.ProgressResponse
	if err := c.doJSON(req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Download(ctx context.Context, fileID string) (*Artifact, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("api", "download", fileID), nil)
	if err != nil {
		return nil, fmt.Errorf("remote: build download request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remote: download: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, readStatusError(resp)
	}

	return &Artifact{
		Body:          resp.Body,
		ContentType:   resp.Header.Get("Content-Type"),
		ContentLength: resp.ContentLength,
		Filename:      ArtifactFilename(fileID),
	}, nil
}

func (c *Client) Health(ctx context.Context) (*domain.HealthResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("api", "health"), nil)
	if err != nil {
		return nil, fmt.Errorf("remote: build health request: %w", err)
	}

	var resp domain.HealthResponse
	if err := c.doJSON(req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Models(ctx context.Context) (*domain.ModelsResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("api", "models"), nil)
	if err != nil {
		return nil, fmt.Errorf("remote: build models request: %w", err)
	}

	var resp domain.ModelsResponse
	if err := c.doJSON(req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ArtifactFilename is the suggested download name for a job's result.
func ArtifactFilename(fileID string) string {
	return "colorized_" + fileID + ".jpg"
}

func (c *Client) endpoint(segments ...string) string {
	return c.baseURL.JoinPath(segments...).String()
}

func (c *Client) doJSON(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("remote: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return readStatusError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("remote: decode %s response: %w", req.URL.Path, err)
	}
	return nil
}

// readStatusError extracts FastAPI's {"detail": "..."} when present.
func readStatusError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyLen))

	var body struct {
		Detail any `json:"detail"`
	}
	detail := strings.TrimSpace(string(raw))
	if err := json.Unmarshal(raw, &body); err == nil && body.Detail != nil {
		if s, ok := body.Detail.(string); ok {
			detail = s
		} else if b, err := json.Marshal(body.Detail); err == nil {
			detail = string(b)
		}
	}
	return &StatusError{StatusCode: resp.StatusCode, Detail: detail}
}
