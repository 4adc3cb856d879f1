package integration

import (
	"archive/zip"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcminio "github.com/testcontainers/testcontainers-go/modules/minio"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcrabbitmq "github.com/testcontainers/testcontainers-go/modules/rabbitmq"

	"github.com/macaquedev/score-video-scraper/internal/domain/entity"
	"github.com/macaquedev/score-video-scraper/internal/infra/archive"
	"github.com/macaquedev/score-video-scraper/internal/infra/email"
	"github.com/macaquedev/score-video-scraper/internal/infra/ffmpeg"
	miniostorage "github.com/macaquedev/score-video-scraper/internal/infra/minio"
	"github.com/macaquedev/score-video-scraper/internal/infra/pdf"
	"github.com/macaquedev/score-video-scraper/internal/infra/postgres"
	"github.com/macaquedev/score-video-scraper/internal/infra/rabbitmq"
	"github.com/macaquedev/score-video-scraper/internal/usecase"
	"github.com/macaquedev/score-video-scraper/pkg/logger"
)

type stack struct {
	pgConnStr     string
	rmqURL        string
	minioEndpoint string
	pool          *pgxpool.Pool
	storage       *miniostorage.Storage
	rmqConn       *amqp.Connection
	uc            *usecase.ProcessScoreUseCase
	consumer      *rabbitmq.Consumer
}

// startStack brings up postgres, rabbitmq and minio containers and wires the
// full worker on top of them.
func startStack(t *testing.T, ctx context.Context) *stack {
	t.Helper()
	s := &stack{}

	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:15-alpine",
		tcpostgres.WithDatabase("jobs"),
		tcpostgres.WithUsername("job_user"),
		tcpostgres.WithPassword("job_pass"),
		tcpostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { pgContainer.Terminate(ctx) })

	s.pgConnStr, err = pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rmqContainer, err := tcrabbitmq.Run(ctx,
		"rabbitmq:3.12-management-alpine",
	)
	require.NoError(t, err)
	t.Cleanup(func() { rmqContainer.Terminate(ctx) })

	s.rmqURL, err = rmqContainer.AmqpURL(ctx)
	require.NoError(t, err)

	minioContainer, err := tcminio.Run(ctx,
		"minio/minio:latest",
		tcminio.WithUsername("minioadmin"),
		tcminio.WithPassword("minioadmin"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { minioContainer.Terminate(ctx) })

	s.minioEndpoint, err = minioContainer.ConnectionString(ctx)
	require.NoError(t, err)

	s.pool, err = pgxpool.New(ctx, s.pgConnStr)
	require.NoError(t, err)
	t.Cleanup(s.pool.Close)

	require.NoError(t, postgres.RunMigrations(ctx, s.pool))

	s.storage, err = miniostorage.NewStorage(miniostorage.StorageConfig{
		Endpoint:       s.minioEndpoint,
		AccessKey:      "minioadmin",
		SecretKey:      "minioadmin",
		UseSSL:         false,
		UploadBucket:   "uploads",
		ArtifactBucket: "artifacts",
	})
	require.NoError(t, err)
	require.NoError(t, s.storage.EnsureBuckets(ctx))

	s.rmqConn, err = amqp.Dial(s.rmqURL)
	require.NoError(t, err)
	t.Cleanup(func() { s.rmqConn.Close() })

	pub, err := rabbitmq.NewPublisher(s.rmqConn, "scorescraper.video")
	require.NoError(t, err)

	statusPub := rabbitmq.NewStatusPublisher(pub, "score.status")
	dlqPub := rabbitmq.NewDLQPublisher(pub, "score.processing.dlq")

	log, _ := logger.New("debug")
	repo := postgres.NewJobRepository(s.pool)
	opener := ffmpeg.NewOpener(t.TempDir(), log)
	notifier := email.NewSMTPNotifier("localhost", 1025, "noreply@scorescraper.local", log)

	s.uc = usecase.NewProcessScoreUseCase(
		repo, s.storage, opener,
		pdf.NewRenderer(log), archive.NewZipCreator(),
		statusPub, dlqPub, notifier,
		log,
		usecase.ProcessScoreConfig{
			TempDir:     t.TempDir(),
			MaxRetries:  3,
			PageSpacing: 10,
			Defaults: entity.ProcessingOptions{
				SimilarityThreshold: 0.95,
				SampleInterval:      1,
				CropThreshold:       30,
				Orientation:         entity.OrientationPortrait,
			},
		},
	)

	s.consumer, err = rabbitmq.NewConsumer(rabbitmq.ConsumerConfig{
		URL:         s.rmqURL,
		Queue:       "score.processing",
		Exchange:    "scorescraper.video",
		DLQ:         "score.processing.dlq",
		StatusQueue: "score.status",
		ProcessKey:  "score.processing",
		StatusKey:   "score.status",
		Prefetch:    1,
		WorkerCount: 1,
		BaseDelayMs: 100,
	}, s.uc.Execute, log)
	require.NoError(t, err)
	t.Cleanup(func() { s.consumer.Close() })

	return s
}

func (s *stack) publish(t *testing.T, ctx context.Context, body []byte) {
	t.Helper()
	ch, err := s.rmqConn.Channel()
	require.NoError(t, err)
	defer ch.Close()
	err = ch.PublishWithContext(ctx,
		"scorescraper.video",
		"score.processing",
		false, false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
	require.NoError(t, err)
}

func TestProcessScoreEndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	testVideoPath := filepath.Join("..", "testdata", "test.mp4")
	if _, err := os.Stat(testVideoPath); os.IsNotExist(err) {
		t.Skip("test video not found at tests/testdata/test.mp4 - generate it with: ffmpeg -f lavfi -i testsrc=duration=4:size=320x240:rate=2 -c:v libx264 -pix_fmt yuv420p tests/testdata/test.mp4")
	}

	s := startStack(t, ctx)

	minioClient, err := miniogo.New(s.minioEndpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
		Secure: false,
	})
	require.NoError(t, err)

	videoKey := "testuser/test.mp4"
	_, err = minioClient.FPutObject(ctx, "uploads", videoKey, testVideoPath, miniogo.PutObjectOptions{
		ContentType: "video/mp4",
	})
	require.NoError(t, err)

	consumerCtx, consumerCancel := context.WithCancel(ctx)
	defer consumerCancel()
	go func() {
		s.consumer.Start(consumerCtx)
	}()
	time.Sleep(500 * time.Millisecond)

	jobID := uuid.New()
	videoInfo, err := os.Stat(testVideoPath)
	require.NoError(t, err)
	msg := entity.ScoreProcessingMessage{
		JobID:    jobID,
		UserID:   "testuser",
		VideoKey: videoKey,
		FileSize: videoInfo.Size(),
	}
	body, err := json.Marshal(msg)
	require.NoError(t, err)
	s.publish(t, ctx, body)

	statusCh, err := s.rmqConn.Channel()
	require.NoError(t, err)
	defer statusCh.Close()

	statusMsgs, err := statusCh.Consume("score.status", "", true, false, false, false, nil)
	require.NoError(t, err)

	var status entity.ScoreStatusMessage
	select {
	case delivery := <-statusMsgs:
		require.NoError(t, json.Unmarshal(delivery.Body, &status))
	case <-time.After(2 * time.Minute):
		t.Fatal("timeout waiting for status message")
	}

	assert.Equal(t, jobID, status.JobID)
	assert.Equal(t, entity.JobStatusCompleted, status.Status)
	assert.Greater(t, status.KeptCount, 0)
	assert.Greater(t, status.PageCount, 0)
	assert.NotEmpty(t, status.PDFKey)
	assert.NotEmpty(t, status.FramesKey)

	// The PDF artifact must exist and be a PDF.
	pdfObj, err := minioClient.GetObject(ctx, "artifacts", status.PDFKey, miniogo.GetObjectOptions{})
	require.NoError(t, err)
	head := make([]byte, 4)
	_, err = io.ReadFull(pdfObj, head)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(head))

	// The frames zip must contain exactly the kept frames.
	tmpZip := filepath.Join(t.TempDir(), "frames.zip")
	require.NoError(t, minioClient.FGetObject(ctx, "artifacts", status.FramesKey, tmpZip, miniogo.GetObjectOptions{}))

	zipReader, err := zip.OpenReader(tmpZip)
	require.NoError(t, err)
	defer zipReader.Close()

	pngCount := 0
	for _, f := range zipReader.File {
		if strings.HasSuffix(f.Name, ".png") {
			pngCount++
		}
	}
	assert.Equal(t, status.KeptCount, pngCount)

	// The job record reflects the same counters.
	var dbStatus string
	var dbKept, dbPages int
	err = s.pool.QueryRow(ctx,
		"SELECT status, kept_count, page_count FROM score_jobs WHERE id=$1", jobID,
	).Scan(&dbStatus, &dbKept, &dbPages)
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", dbStatus)
	assert.Equal(t, status.KeptCount, dbKept)
	assert.Equal(t, status.PageCount, dbPages)

	consumerCancel()
	t.Logf("processed %d kept frames into %d pages, pdf at %s", status.KeptCount, status.PageCount, status.PDFKey)
}

func TestProcessScoreMalformedMessage(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	s := startStack(t, ctx)

	consumerCtx, consumerCancel := context.WithCancel(ctx)
	defer consumerCancel()
	go func() {
		s.consumer.Start(consumerCtx)
	}()
	time.Sleep(500 * time.Millisecond)

	s.publish(t, ctx, []byte(`{invalid json`))

	time.Sleep(2 * time.Second)

	dlqCh, err := s.rmqConn.Channel()
	require.NoError(t, err)
	defer dlqCh.Close()

	dlqMsg, ok, err := dlqCh.Get("score.processing.dlq", true)
	require.NoError(t, err)
	assert.True(t, ok, "malformed message should be in DLQ")
	assert.Equal(t, `{invalid json`, string(dlqMsg.Body))

	consumerCancel()
}

func TestProcessScoreMissingVideoFails(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	s := startStack(t, ctx)

	consumerCtx, consumerCancel := context.WithCancel(ctx)
	defer consumerCancel()
	go func() {
		s.consumer.Start(consumerCtx)
	}()
	time.Sleep(500 * time.Millisecond)

	jobID := uuid.New()
	msg := entity.ScoreProcessingMessage{
		JobID:    jobID,
		UserID:   "testuser",
		VideoKey: "testuser/does-not-exist.mp4",
		FileSize: 1,
	}
	body, err := json.Marshal(msg)
	require.NoError(t, err)
	s.publish(t, ctx, body)

	statusCh, err := s.rmqConn.Channel()
	require.NoError(t, err)
	defer statusCh.Close()

	statusMsgs, err := statusCh.Consume("score.status", "", true, false, false, false, nil)
	require.NoError(t, err)

	// The download fails on every attempt; the job exhausts its retries
	// and the final status is FAILED.
	deadline := time.After(2 * time.Minute)
	for {
		select {
		case delivery := <-statusMsgs:
			var status entity.ScoreStatusMessage
			require.NoError(t, json.Unmarshal(delivery.Body, &status))
			require.Equal(t, entity.JobStatusFailed, status.Status)
			if status.Attempt >= status.MaxAttempts {
				consumerCancel()
				return
			}
		case <-deadline:
			t.Fatal("timeout waiting for terminal failure status")
		}
	}
}
