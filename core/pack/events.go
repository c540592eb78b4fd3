package pack

import (
	"context"
	"time"
)

// PackEventType defines the possible event types for pipeline operations.
type PackEventType string

const (
	CompileStart     PackEventType = "compile:start"
	CompileSuccess   PackEventType = "compile:success"
	CompileFailed    PackEventType = "compile:failed"
	ExtractStart     PackEventType = "extract:start"
	ExtractSuccess   PackEventType = "extract:success"
	ExtractFailed    PackEventType = "extract:failed"
	EntryPacked      PackEventType = "entry:packed"
	EntryUnpacked    PackEventType = "entry:unpacked"
	EntryDiscarded   PackEventType = "entry:discarded"
	SubscribeEvent   PackEventType = "subscription:register"
	UnsubscribeEvent PackEventType = "subscription:unregister"
)

// PackEvent represents events emitted during compile and extract runs.
type PackEvent struct {
	Type      PackEventType `json:"type"`               // The type of event (e.g. 'compile:start').
	Timestamp int64         `json:"timestamp"`          // Timestamp when the event occurred (Unix milliseconds).
	Operation string        `json:"operation"`          // The operation being performed ('compile' or 'extract').
	Run       string        `json:"run"`                // Identifier of the pipeline run the event belongs to.
	Key       *string       `json:"key,omitempty"`      // Composite key of the affected entry (if applicable).
	Path      *string       `json:"path,omitempty"`     // Source or destination path of the affected entry (if applicable).
	Error     *string       `json:"error,omitempty"`    // Error message if the operation failed.
	Duration  *int64        `json:"duration,omitempty"` // Duration of the operation in milliseconds.
}

// EventCallbackFunction is the signature of subscription callbacks.
type EventCallbackFunction func(ctx context.Context, event PackEvent) error

// RegisterSubscriptionOptions defines options for registering a subscription.
type RegisterSubscriptionOptions struct {
	Event       PackEventType `json:"event"`
	Label       *string       `json:"label,omitempty"`
	Description *string       `json:"description,omitempty"`
	Callback    EventCallbackFunction
}

// SubscriptionInfo describes one active event subscription.
type SubscriptionInfo struct {
	ID          string        `json:"id"`
	Event       PackEventType `json:"event"`
	Label       *string       `json:"label,omitempty"`
	Description *string       `json:"description,omitempty"`
	Unsubscribe func()        `json:"-"`
}

func createEvent(
	eventType PackEventType,
	operation string,
	run string,
	key *string,
	path *string,
	err *string,
	startTime time.Time,
) PackEvent {
	var duration *int64
	if !startTime.IsZero() {
		d := time.Since(startTime).Milliseconds()
		duration = &d
	}

	return PackEvent{
		Type:      eventType,
		Timestamp: time.Now().UnixMilli(),
		Operation: operation,
		Run:       run,
		Key:       key,
		Path:      path,
		Error:     err,
		Duration:  duration,
	}
}
