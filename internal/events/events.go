package events

import "context"

// Event types
const (
	EventVerificationCompleted = "verification_completed"
	EventVerificationFailed    = "verification_failed"
)

// StreamVerification — канал pub/sub для результатов верификации.
const StreamVerification = "events:verification"

type Event struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

type Publisher interface {
	Publish(ctx context.Context, stream string, event Event) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, stream string, handler func(Event)) error
}
