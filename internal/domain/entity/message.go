package entity

import "github.com/google/uuid"

// ScoreProcessingMessage is the inbound message from the score.processing queue.
type ScoreProcessingMessage struct {
	JobID     uuid.UUID         `json:"job_id"`
	UserID    string            `json:"user_id"`
	VideoKey  string            `json:"video_key"`
	FileSize  int64             `json:"file_size"`
	UserEmail string            `json:"user_email"`
	Options   ProcessingOptions `json:"options"`
}

// ScoreStatusMessage is the outbound message published to the score.status queue.
type ScoreStatusMessage struct {
	JobID          uuid.UUID `json:"job_id"`
	UserID         string    `json:"user_id"`
	Status         JobStatus `json:"status"`
	VideoKey       string    `json:"video_key"`
	PDFKey         string    `json:"pdf_key,omitempty"`
	FramesKey      string    `json:"frames_key,omitempty"`
	CandidateCount int       `json:"candidate_count,omitempty"`
	KeptCount      int       `json:"kept_count,omitempty"`
	PageCount      int       `json:"page_count,omitempty"`
	Duration       float64   `json:"duration_seconds,omitempty"`
	ErrorMessage   string    `json:"error_message,omitempty"`
	Attempt        int       `json:"attempt"`
	MaxAttempts    int       `json:"max_attempts"`
}
