package port

import "context"

// FailureNotifier tells the submitting user their score job has permanently
// failed. Best effort; a notification failure never fails the job handling.
type FailureNotifier interface {
	NotifyFailure(ctx context.Context, userEmail string, jobID string, videoKey string, errorMsg string) error
}
