package http

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Harsh-BH/chroma/internal/domain"
	"github.com/Harsh-BH/chroma/internal/notify"
	"github.com/Harsh-BH/chroma/internal/repository"
	"github.com/Harsh-BH/chroma/internal/usecase"
)

// JobQueue accepts submitted jobs for background tracking.
type JobQueue interface {
	Enqueue(job *domain.Job) error
}

// JobHandler handles upload, lookup and download of colorization jobs.
type JobHandler struct {
	colorizeUC *usecase.ColorizeUsecase
	getJobUC   *usecase.GetJobUsecase
	downloadUC *usecase.DownloadUsecase
	repo       repository.JobRepository
	queue      JobQueue
	reporter   *notify.Reporter
	policy     usecase.UploadPolicy
	logger     *zap.Logger
}

// NewJobHandler creates a new JobHandler.
func NewJobHandler(
	colorizeUC *usecase.ColorizeUsecase,
	getJobUC *usecase.GetJobUsecase,
	downloadUC *usecase.DownloadUsecase,
	repo repository.JobRepository,
	queue JobQueue,
	reporter *notify.Reporter,
	policy usecase.UploadPolicy,
	logger *zap.Logger,
) *JobHandler {
	return &JobHandler{
		colorizeUC: colorizeUC,
		getJobUC:   getJobUC,
		downloadUC: downloadUC,
		repo:       repo,
		queue:      queue,
		reporter:   reporter,
		policy:     policy,
		logger:     logger,
	}
}

// Submit handles POST /api/v1/jobs
func (h *JobHandler) Submit(c *gin.Context) {
	ctx := c.Request.Context()

	header, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			err = domain.ErrPayloadTooLarge
		} else {
			err = domain.ErrEmptyFile
		}
		h.rejectUpload(c, err)
		return
	}

	meta := domain.FileMeta{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
	}
	if err := h.policy.Validate(meta); err != nil {
		h.rejectUpload(c, err)
		return
	}

	file, err := readFormFile(header)
	if err != nil {
		h.logger.Error("Failed to read upload", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	job, err := h.colorizeUC.Submit(ctx, file, meta)
	if err != nil {
		c.JSON(http.StatusBadGateway, errorBody(err))
		return
	}

	snapshot := job.Snapshot()
	if err := h.repo.Save(ctx, snapshot); err != nil {
		h.logger.Error("Failed to store submitted job", zap.String("job_id", job.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := h.queue.Enqueue(job); err != nil {
		h.logger.Warn("Job submitted but not queued for tracking",
			zap.String("job_id", job.ID),
			zap.Error(err),
		)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":  "Service busy, try again later",
			"job_id": job.ID,
		})
		return
	}

	c.JSON(http.StatusAccepted, snapshot)
}

// GetByID handles GET /api/v1/jobs/:id
func (h *JobHandler) GetByID(c *gin.Context) {
	id := c.Param("id")

	view, err := h.getJobUC.Execute(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
			return
		}
		h.logger.Error("Get job failed", zap.Error(err), zap.String("job_id", id))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, view)
}

// Download handles GET /api/v1/jobs/:id/download
func (h *JobHandler) Download(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	view, err := h.getJobUC.Execute(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
			return
		}
		h.logger.Error("Get job failed", zap.Error(err), zap.String("job_id", id))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	art, err := h.downloadUC.Open(ctx, view.Job)
	if err != nil {
		if errors.Is(err, domain.ErrNotCompleted) {
			c.JSON(http.StatusConflict, gin.H{
				"error":  "Job has not completed",
				"status": view.Status,
			})
			return
		}
		c.JSON(http.StatusBadGateway, errorBody(err))
		return
	}
	defer art.Body.Close()

	contentType := art.ContentType
	if contentType == "" {
		contentType = "image/jpeg"
	}
	c.Header("Content-Type", contentType)
	c.Header("Content-Disposition", `attachment; filename="`+art.Filename+`"`)
	if art.ContentLength >= 0 {
		c.Header("Content-Length", strconv.FormatInt(art.ContentLength, 10))
	}
	c.Status(http.StatusOK)
	c.Writer.WriteHeaderNow()

	// The status is already sent, so a broken stream can only be cut short.
	if _, err := h.downloadUC.Copy(ctx, view.Job.ID, c.Writer, art); err != nil {
		c.Abort()
	}
}

func (h *JobHandler) rejectUpload(c *gin.Context, err error) {
	h.reporter.Report(c.Request.Context(), "", err)

	status := http.StatusBadRequest
	if errors.Is(err, domain.ErrPayloadTooLarge) {
		status = http.StatusRequestEntityTooLarge
	}
	c.JSON(status, errorBody(err))
}

func errorBody(err error) gin.H {
	body := gin.H{
		"error": err.Error(),
		"kind":  domain.Classify(err),
	}
	var jobErr *domain.JobError
	if errors.As(err, &jobErr) && jobErr.JobID != "" {
		body["job_id"] = jobErr.JobID
	}
	return body
}

func readFormFile(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
