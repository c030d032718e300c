package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/Harsh-BH/chroma/internal/config"
	"github.com/Harsh-BH/chroma/internal/domain"
	"github.com/Harsh-BH/chroma/internal/notify"
	"github.com/Harsh-BH/chroma/internal/remote"
	"github.com/Harsh-BH/chroma/internal/repository/memory"
	"github.com/Harsh-BH/chroma/internal/usecase"
)

// session is the wiring shared by every command.
type session struct {
	cfg      *config.Config
	client   *remote.Client
	reporter *notify.Reporter
	logger   *zap.Logger
	out      io.Writer
}

func newSession(cmd *cli.Command) (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if u := cmd.String("base-url"); u != "" {
		cfg.Colorizer.BaseURL = u
	}

	logger, err := newLogger(cmd.Bool("verbose"))
	if err != nil {
		return nil, err
	}

	client, err := remote.NewClient(cfg.Colorizer.BaseURL, cfg.Colorizer.HTTPTimeout, logger)
	if err != nil {
		return nil, err
	}

	return &session{
		cfg:      cfg,
		client:   client,
		reporter: notify.NewReporter(notify.NewLogSink(logger), logger),
		logger:   logger,
		out:      cmd.Root().Writer,
	}, nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	if verbose {
		zcfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return zcfg.Build()
}

func runAction(ctx context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return fmt.Errorf("missing <image> argument")
	}

	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.logger.Sync()

	file, meta, err := readImage(path)
	if err != nil {
		return err
	}

	policy := usecase.UploadPolicy{MaxBytes: s.cfg.Upload.MaxBytes, AllowedExtensions: s.cfg.Upload.AllowedExtensions}
	if err := policy.Validate(meta); err != nil {
		s.reporter.Report(ctx, "", err)
		return err
	}

	opts := usecase.PollOptions{
		MaxAttempts: s.cfg.Poll.MaxAttempts,
		Interval:    s.cfg.Poll.Interval,
		OnUpdate: func(job domain.Job) {
			fmt.Fprintf(s.out, "%s %-9s %3d%%  (attempt %d/%d)\n", job.ID, job.Status, job.Progress, job.Attempt, job.MaxAttempts)
		},
	}
	if n := cmd.Int("max-attempts"); n > 0 {
		opts.MaxAttempts = n
	}
	if d := cmd.Duration("interval"); d > 0 {
		opts.Interval = d
	}

	colorizeUC := usecase.NewColorizeUsecase(
		usecase.NewSubmitJobUsecase(s.client, s.logger),
		usecase.NewPollJobUsecase(s.client, memory.NewPollLock(), usecase.SleepContext, s.logger),
		s.reporter,
		s.client.BaseURL(),
		s.logger,
	)

	job, result, err := colorizeUC.Execute(ctx, file, meta, opts)
	if err != nil {
		return err
	}

	fmt.Fprintf(s.out, "input:    %s\noutput:   %s\ndownload: %s\n", result.InputURL, result.OutputURL, result.DownloadURL)
	if cmd.Bool("no-download") {
		return nil
	}

	target := cmd.String("out")
	if target == "" {
		target = remote.ArtifactFilename(job.ID)
	}
	return saveArtifact(ctx, usecase.NewDownloadUsecase(s.client, s.reporter, s.logger), job.Snapshot(), target, s.out)
}

func saveArtifact(ctx context.Context, uc *usecase.DownloadUsecase, job domain.Job, target string, out io.Writer) error {
	f, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("create %s: %w", target, err)
	}

	n, err := uc.SaveTo(ctx, job, f)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(target)
		return err
	}

	fmt.Fprintf(out, "saved:    %s (%d bytes)\n", target, n)
	return nil
}

// imageTypes covers every extension the upload policy accepts, so the
// content type does not depend on the host's mime tables.
var imageTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".bmp":  "image/bmp",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
}

func readImage(path string) ([]byte, domain.FileMeta, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.FileMeta{}, fmt.Errorf("read image: %w", err)
	}

	contentType, ok := imageTypes[strings.ToLower(filepath.Ext(path))]
	if !ok {
		contentType = http.DetectContentType(file)
	}

	return file, domain.FileMeta{
		Filename:    filepath.Base(path),
		ContentType: contentType,
		Size:        int64(len(file)),
	}, nil
}

func healthAction(ctx context.Context, cmd *cli.Command) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.logger.Sync()

	health, err := usecase.NewServiceInfoUsecase(s.client, s.logger).Health(ctx)
	if err != nil {
		return err
	}
	if err := printJSON(s.out, health); err != nil {
		return err
	}
	if !health.ModelLoaded {
		return errors.New("model not loaded")
	}
	return nil
}

func modelsAction(ctx context.Context, cmd *cli.Command) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.logger.Sync()

	models, err := usecase.NewServiceInfoUsecase(s.client, s.logger).Models(ctx)
	if err != nil {
		return err
	}
	return printJSON(s.out, models)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
