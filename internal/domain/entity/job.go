package entity

import (
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	JobStatusPending    JobStatus = "PENDING"
	JobStatusProcessing JobStatus = "PROCESSING"
	JobStatusCompleted  JobStatus = "COMPLETED"
	JobStatusFailed     JobStatus = "FAILED"
)

type Job struct {
	ID             uuid.UUID
	UserID         string
	VideoKey       string
	PDFKey         string
	FramesKey      string
	Status         JobStatus
	CandidateCount int
	KeptCount      int
	PageCount      int
	FileSize       int64
	VideoDuration  float64
	Attempt        int
	MaxAttempts    int
	ErrorMessage   string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	CompletedAt    *time.Time
}

func NewJob(userID, videoKey string, fileSize int64, maxAttempts int) *Job {
	now := time.Now().UTC()
	return &Job{
		ID:          uuid.New(),
		UserID:      userID,
		VideoKey:    videoKey,
		FileSize:    fileSize,
		Status:      JobStatusPending,
		Attempt:     0,
		MaxAttempts: maxAttempts,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// JobResult carries the artifact keys and pipeline counters of a finished run.
type JobResult struct {
	PDFKey         string
	FramesKey      string
	CandidateCount int
	KeptCount      int
	PageCount      int
	VideoDuration  float64
}

func (j *Job) MarkProcessing() {
	j.Status = JobStatusProcessing
	j.Attempt++
	j.UpdatedAt = time.Now().UTC()
}

func (j *Job) MarkCompleted(res JobResult) {
	now := time.Now().UTC()
	j.Status = JobStatusCompleted
	j.PDFKey = res.PDFKey
	j.FramesKey = res.FramesKey
	j.CandidateCount = res.CandidateCount
	j.KeptCount = res.KeptCount
	j.PageCount = res.PageCount
	j.VideoDuration = res.VideoDuration
	j.UpdatedAt = now
	j.CompletedAt = &now
}

func (j *Job) MarkFailed(errMsg string) {
	j.Status = JobStatusFailed
	j.ErrorMessage = errMsg
	j.UpdatedAt = time.Now().UTC()
}

func (j *Job) CanRetry() bool {
	return j.Attempt < j.MaxAttempts
}
