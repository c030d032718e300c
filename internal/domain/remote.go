package domain

// RemoteStatus is the job status as reported by the colorization service.
type RemoteStatus string

const (
	RemoteQueued     RemoteStatus = "queued"
	RemoteProcessing RemoteStatus = "processing"
	RemoteCompleted  RemoteStatus = "completed"
	RemoteFailed     RemoteStatus = "failed"
)

// SubmitResponse is the body of POST /api/colorize.
type SubmitResponse struct {
	Message     string `json:"message,omitempty"`
	FileID      string `json:"file_id"`
	Status      string `json:"status,omitempty"`
	InputURL    string `json:"input_url"`
	OutputURL   string `json:"output_url"`
	ProgressURL string `json:"progress_url,omitempty"`
}

// ProgressResponse is the body of GET /api/progress/{file_id}.
type ProgressResponse struct {
	FileID    string       `json:"file_id,omitempty"`
	Status    RemoteStatus `json:"status"`
	Progress  int          `json:"progress"`
	OutputURL string       `json:"output_url,omitempty"`
	Error     string       `json:"error,omitempty"`
}

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
	Timestamp   string `json:"timestamp,omitempty"`
}

// ModelInfo describes one model exposed by GET /api/models.
type ModelInfo struct {
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	Architecture string `json:"architecture,omitempty"`
	InputFormat  string `json:"input_format,omitempty"`
	OutputFormat string `json:"output_format,omitempty"`
	Status       string `json:"status,omitempty"`
}

// ModelsResponse is the body of GET /api/models.
type ModelsResponse struct {
	Models []ModelInfo `json:"models"`
}
