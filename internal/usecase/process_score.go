package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/macaquedev/score-video-scraper/internal/dedup"
	"github.com/macaquedev/score-video-scraper/internal/domain/entity"
	"github.com/macaquedev/score-video-scraper/internal/domain/port"
	"github.com/macaquedev/score-video-scraper/internal/infra/frames"
	"github.com/macaquedev/score-video-scraper/internal/infra/metrics"
	"github.com/macaquedev/score-video-scraper/internal/infra/pdf"
	"github.com/macaquedev/score-video-scraper/internal/layout"
)

type ProcessScoreUseCase struct {
	repo      port.JobRepository
	storage   port.VideoStorage
	opener    port.FrameOpener
	renderer  *pdf.Renderer
	archiver  port.Archiver
	publisher port.StatusPublisher
	dlq       port.DLQPublisher
	notifier  port.FailureNotifier
	logger    *zap.Logger
	tempDir   string
	maxRetry  int
	spacing   float64
	defaults  entity.ProcessingOptions
}

type ProcessScoreConfig struct {
	TempDir     string
	MaxRetries  int
	PageSpacing float64
	Defaults    entity.ProcessingOptions
}

func NewProcessScoreUseCase(
	repo port.JobRepository,
	storage port.VideoStorage,
	opener port.FrameOpener,
	renderer *pdf.Renderer,
	archiver port.Archiver,
	publisher port.StatusPublisher,
	dlq port.DLQPublisher,
	notifier port.FailureNotifier,
	logger *zap.Logger,
	cfg ProcessScoreConfig,
) *ProcessScoreUseCase {
	return &ProcessScoreUseCase{
		repo:      repo,
		storage:   storage,
		opener:    opener,
		renderer:  renderer,
		archiver:  archiver,
		publisher: publisher,
		dlq:       dlq,
		notifier:  notifier,
		logger:    logger,
		tempDir:   cfg.TempDir,
		maxRetry:  cfg.MaxRetries,
		spacing:   cfg.PageSpacing,
		defaults:  cfg.Defaults,
	}
}

func (uc *ProcessScoreUseCase) Execute(ctx context.Context, rawMsg []byte) error {
	tracer := otel.Tracer("usecase")
	ctx, span := tracer.Start(ctx, "ProcessScoreUseCase.Execute")
	defer span.End()

	totalTimer := time.Now()

	var msg entity.ScoreProcessingMessage
	if err := json.Unmarshal(rawMsg, &msg); err != nil {
		uc.logger.Error("failed to unmarshal message", zap.Error(err), zap.ByteString("body", rawMsg))
		_ = uc.dlq.PublishToDLQ(ctx, rawMsg, "unmarshal_error: "+err.Error())
		return nil
	}

	span.SetAttributes(
		attribute.String("job.id", msg.JobID.String()),
		attribute.String("job.video_key", msg.VideoKey),
	)

	log := uc.logger.With(zap.String("job_id", msg.JobID.String()), zap.String("video_key", msg.VideoKey))

	job, err := uc.repo.FindByID(ctx, msg.JobID)
	if err != nil {
		job = entity.NewJob(msg.UserID, msg.VideoKey, msg.FileSize, uc.maxRetry)
		job.ID = msg.JobID
		if err := uc.repo.Create(ctx, job); err != nil {
			log.Error("failed to create job record", zap.Error(err))
			return fmt.Errorf("create job: %w", err)
		}
	}

	if !job.CanRetry() {
		log.Warn("job exhausted retries, sending to DLQ")
		_ = uc.handlePermanentFailure(ctx, job, msg, rawMsg, "max retries exceeded")
		return nil
	}

	job.MarkProcessing()
	if err := uc.repo.Update(ctx, job); err != nil {
		log.Error("failed to update job to PROCESSING", zap.Error(err))
		return fmt.Errorf("update job: %w", err)
	}

	metrics.ActiveWorkers.Inc()
	defer metrics.ActiveWorkers.Dec()

	if err := uc.processPipeline(ctx, job, msg, rawMsg, log); err != nil {
		return err
	}

	metrics.JobsProcessedTotal.WithLabelValues("completed").Inc()
	metrics.JobProcessingDuration.WithLabelValues("total").Observe(time.Since(totalTimer).Seconds())

	return nil
}

func (uc *ProcessScoreUseCase) processPipeline(
	ctx context.Context,
	job *entity.Job,
	msg entity.ScoreProcessingMessage,
	rawMsg []byte,
	log *zap.Logger,
) error {
	tracer := otel.Tracer("usecase")

	opts := uc.resolveOptions(msg.Options)
	if !opts.Orientation.Valid() {
		return uc.handlePermanentFailure(ctx, job, msg, rawMsg,
			fmt.Sprintf("invalid orientation %q", opts.Orientation))
	}

	workDir := filepath.Join(uc.tempDir, job.ID.String())
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return fmt.Errorf("create workdir: %w", err)
	}
	defer os.RemoveAll(workDir)

	// Fetch the source video
	dlStart := time.Now()
	ctx2, spanDl := tracer.Start(ctx, "download_video")
	videoPath := filepath.Join(workDir, "input.mp4")
	if err := uc.storage.DownloadVideo(ctx2, msg.VideoKey, videoPath); err != nil {
		spanDl.End()
		log.Error("failed to download video", zap.Error(err))
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "download_video: "+err.Error(), log)
	}
	spanDl.End()
	metrics.JobProcessingDuration.WithLabelValues("download").Observe(time.Since(dlStart).Seconds())

	// Deduplicate frames
	ddStart := time.Now()
	ctx3, spanDd := tracer.Start(ctx, "dedup_frames")
	store, err := frames.NewStore(filepath.Join(workDir, "frames"))
	if err != nil {
		spanDd.End()
		return fmt.Errorf("create frame store: %w", err)
	}
	result, err := uc.runDedup(ctx3, videoPath, opts, store)
	spanDd.End()
	if err != nil {
		log.Error("deduplication failed", zap.Error(err))
		if isInputError(err) {
			return uc.handlePermanentFailure(ctx, job, msg, rawMsg, "dedup_frames: "+err.Error())
		}
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "dedup_frames: "+err.Error(), log)
	}
	metrics.JobProcessingDuration.WithLabelValues("dedup").Observe(time.Since(ddStart).Seconds())
	metrics.CandidateFramesTotal.Add(float64(result.Candidates))
	metrics.KeptFramesTotal.Add(float64(result.Kept))

	if result.Kept == 0 {
		log.Warn("no frames survived deduplication, nothing to lay out")
		return uc.handlePermanentFailure(ctx, job, msg, rawMsg, entity.ErrEmptyInput.Error())
	}

	// Lay out and render the PDF
	rdStart := time.Now()
	ctx4, spanRd := tracer.Start(ctx, "render_pdf")
	pdfPath := filepath.Join(workDir, "score.pdf")
	pageCount, err := uc.renderDocument(ctx4, store, opts, pdfPath)
	spanRd.End()
	if err != nil {
		log.Error("layout/render failed", zap.Error(err))
		if isInputError(err) {
			return uc.handlePermanentFailure(ctx, job, msg, rawMsg, "render_pdf: "+err.Error())
		}
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "render_pdf: "+err.Error(), log)
	}
	metrics.JobProcessingDuration.WithLabelValues("render").Observe(time.Since(rdStart).Seconds())
	metrics.PagesRenderedTotal.Add(float64(pageCount))

	// Zip kept frames and upload both artifacts
	upStart := time.Now()
	ctx5, spanUp := tracer.Start(ctx, "upload_artifacts")
	pdfKey := fmt.Sprintf("%s/score_%s.pdf", msg.UserID, job.ID.String())
	framesKey := fmt.Sprintf("%s/frames_%s.zip", msg.UserID, job.ID.String())
	err = uc.uploadArtifacts(ctx5, store, workDir, pdfPath, pdfKey, framesKey)
	spanUp.End()
	if err != nil {
		log.Error("artifact upload failed", zap.Error(err))
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "upload_artifacts: "+err.Error(), log)
	}
	metrics.JobProcessingDuration.WithLabelValues("upload").Observe(time.Since(upStart).Seconds())

	job.MarkCompleted(entity.JobResult{
		PDFKey:         pdfKey,
		FramesKey:      framesKey,
		CandidateCount: result.Candidates,
		KeptCount:      result.Kept,
		PageCount:      pageCount,
		VideoDuration:  result.Duration,
	})
	if err := uc.repo.Update(ctx, job); err != nil {
		log.Error("failed to update job to COMPLETED", zap.Error(err))
		return fmt.Errorf("update job completed: %w", err)
	}

	uc.publishStatus(ctx, job, log)

	log.Info("job completed successfully",
		zap.Int("candidates", result.Candidates),
		zap.Int("kept", result.Kept),
		zap.Int("pages", pageCount),
		zap.String("pdf_key", pdfKey),
	)

	return nil
}

type dedupOutcome struct {
	Candidates int
	Kept       int
	Duration   float64
}

// runDedup opens the frame source over the requested window and streams it
// through the pipeline into the store. The source is released on every exit
// path.
func (uc *ProcessScoreUseCase) runDedup(
	ctx context.Context,
	videoPath string,
	opts entity.ProcessingOptions,
	store *frames.Store,
) (dedupOutcome, error) {
	src, err := uc.opener.Open(ctx, videoPath, opts.Window, opts.SampleInterval)
	if err != nil {
		return dedupOutcome{}, err
	}
	defer src.Close()

	pipeline := dedup.New(dedup.Config{
		SimilarityThreshold: opts.SimilarityThreshold,
		SampleInterval:      opts.SampleInterval,
		CropThreshold:       opts.CropThreshold,
		CropMargins:         opts.CropMargins,
	}, uc.logger)

	res, err := pipeline.Run(ctx, src, store)
	if err != nil {
		return dedupOutcome{}, err
	}

	return dedupOutcome{Candidates: res.Candidates, Kept: res.Kept, Duration: src.Duration()}, nil
}

func (uc *ProcessScoreUseCase) renderDocument(
	ctx context.Context,
	store *frames.Store,
	opts entity.ProcessingOptions,
	pdfPath string,
) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	infos, err := store.List()
	if err != nil {
		return 0, err
	}

	w, h := pdf.PageSize(opts.Orientation)
	spec := layout.PageSpec{Width: w, Height: h, Spacing: uc.spacing}

	pages, err := layout.Paginate(infos, opts.PageBreaks, spec)
	if err != nil {
		return 0, err
	}
	if err := uc.renderer.Render(pages, spec, pdfPath); err != nil {
		return 0, err
	}
	return len(pages), nil
}

func (uc *ProcessScoreUseCase) uploadArtifacts(
	ctx context.Context,
	store *frames.Store,
	workDir, pdfPath, pdfKey, framesKey string,
) error {
	infos, err := store.List()
	if err != nil {
		return err
	}
	paths := make([]string, len(infos))
	for i, fi := range infos {
		paths[i] = fi.Path
	}

	zipPath := filepath.Join(workDir, "frames.zip")
	if err := uc.archiver.CreateZip(ctx, paths, zipPath); err != nil {
		return fmt.Errorf("zip frames: %w", err)
	}

	if err := uc.uploadFile(ctx, zipPath, framesKey, "application/zip"); err != nil {
		return err
	}
	return uc.uploadFile(ctx, pdfPath, pdfKey, "application/pdf")
}

func (uc *ProcessScoreUseCase) uploadFile(ctx context.Context, path, key, contentType string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	stat, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	return uc.storage.UploadArtifact(ctx, key, f, stat.Size(), contentType)
}

// resolveOptions fills unset per-job options from the service defaults.
func (uc *ProcessScoreUseCase) resolveOptions(opts entity.ProcessingOptions) entity.ProcessingOptions {
	if opts.SimilarityThreshold == 0 {
		opts.SimilarityThreshold = uc.defaults.SimilarityThreshold
	}
	if opts.SampleInterval == 0 {
		opts.SampleInterval = uc.defaults.SampleInterval
	}
	if opts.CropThreshold == 0 {
		opts.CropThreshold = uc.defaults.CropThreshold
	}
	if opts.Orientation == "" {
		opts.Orientation = uc.defaults.Orientation
	}
	return opts
}

// isInputError reports whether err is deterministic for this job's input, in
// which case requeueing can never succeed.
func isInputError(err error) bool {
	var decodeErr *entity.DecodeError
	var breakErr *entity.InvalidBreakError
	return errors.As(err, &decodeErr) ||
		errors.As(err, &breakErr) ||
		errors.Is(err, entity.ErrEmptyInput)
}

func (uc *ProcessScoreUseCase) handleRetryableFailure(
	ctx context.Context,
	job *entity.Job,
	msg entity.ScoreProcessingMessage,
	rawMsg []byte,
	errMsg string,
	log *zap.Logger,
) error {
	job.MarkFailed(errMsg)
	_ = uc.repo.Update(ctx, job)

	if !job.CanRetry() {
		return uc.handlePermanentFailure(ctx, job, msg, rawMsg, errMsg)
	}

	metrics.RetryTotal.WithLabelValues(strconv.Itoa(job.Attempt)).Inc()
	uc.publishStatus(ctx, job, log)

	return fmt.Errorf("retryable failure (attempt %d/%d): %s", job.Attempt, job.MaxAttempts, errMsg)
}

func (uc *ProcessScoreUseCase) handlePermanentFailure(
	ctx context.Context,
	job *entity.Job,
	msg entity.ScoreProcessingMessage,
	rawMsg []byte,
	errMsg string,
) error {
	job.MarkFailed(errMsg)
	_ = uc.repo.Update(ctx, job)

	_ = uc.dlq.PublishToDLQ(ctx, rawMsg, errMsg)

	uc.publishStatus(ctx, job, uc.logger)

	metrics.JobsProcessedTotal.WithLabelValues("dlq").Inc()

	if msg.UserEmail != "" {
		_ = uc.notifier.NotifyFailure(ctx, msg.UserEmail, job.ID.String(), msg.VideoKey, errMsg)
	}

	return nil
}

func (uc *ProcessScoreUseCase) publishStatus(ctx context.Context, job *entity.Job, log *zap.Logger) {
	statusMsg := entity.ScoreStatusMessage{
		JobID:          job.ID,
		UserID:         job.UserID,
		Status:         job.Status,
		VideoKey:       job.VideoKey,
		PDFKey:         job.PDFKey,
		FramesKey:      job.FramesKey,
		CandidateCount: job.CandidateCount,
		KeptCount:      job.KeptCount,
		PageCount:      job.PageCount,
		Duration:       job.VideoDuration,
		ErrorMessage:   job.ErrorMessage,
		Attempt:        job.Attempt,
		MaxAttempts:    job.MaxAttempts,
	}
	data, _ := json.Marshal(statusMsg)
	if err := uc.publisher.PublishStatus(ctx, data); err != nil {
		log.Error("failed to publish status", zap.Error(err))
	}
}
