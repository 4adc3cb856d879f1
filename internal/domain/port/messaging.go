package port

import "context"

// StatusPublisher emits job lifecycle updates to the score status queue.
type StatusPublisher interface {
	PublishStatus(ctx context.Context, msg []byte) error
}

// DLQPublisher parks a message that can never be processed successfully,
// tagged with the reason it was rejected.
type DLQPublisher interface {
	PublishToDLQ(ctx context.Context, msg []byte, reason string) error
}
