package client

import (
	"time"

	"github.com/spetersoncode/gemkit"
)

// EventType identifies the kind of event occurring during client operations.
type EventType string

const (
	// EventRequestStart fires before an API request begins.
	EventRequestStart EventType = "request_start"

	// EventRequestComplete fires after an API request completes successfully.
	EventRequestComplete EventType = "request_complete"

	// EventRequestError fires when an API request fails.
	EventRequestError EventType = "request_error"
)

// Operation names carried by events.
const (
	OpGenerateContent       = "generate_content"
	OpGenerateContentStream = "generate_content_stream"
	OpListModels            = "list_models"
	OpGetModel              = "get_model"
	OpUploadFile            = "upload_file"
	OpGetFile               = "get_file"
	OpDownloadFile          = "download_file"
	OpDeleteFile            = "delete_file"
	OpGetOperation          = "get_operation"
	OpWaitOperation         = "wait_operation"
	OpLiveConnect           = "live_connect"
)

// Event represents an observable occurrence during client operations.
type Event struct {
	// Type identifies the kind of event.
	Type EventType

	// Operation identifies the API operation (see the Op constants).
	Operation string

	// Backend identifies which personality served the call.
	Backend gemkit.Backend

	// Model is the model name being used (if known).
	Model string

	// Duration is the elapsed time for completed requests.
	Duration time.Duration

	// Usage contains token usage for generation calls.
	Usage *UsageMetadata

	// Error contains the error for EventRequestError.
	Error error

	// Timestamp is when the event occurred.
	Timestamp time.Time
}

// emit sends an event with timestamp to the channel without blocking.
func emit(ch chan<- Event, event Event) {
	if ch == nil {
		return
	}
	event.Timestamp = time.Now()
	select {
	case ch <- event:
	default:
		// Channel full - don't block
	}
}

// track emits the start event of op and returns a function that emits its
// completion or error.
func (c *Client) track(op, model string) func(err error, usage *UsageMetadata) {
	emit(c.events, Event{Type: EventRequestStart, Operation: op, Backend: c.backend, Model: model})
	start := time.Now()
	return func(err error, usage *UsageMetadata) {
		if err != nil {
			emit(c.events, Event{
				Type:      EventRequestError,
				Operation: op,
				Backend:   c.backend,
				Model:     model,
				Duration:  time.Since(start),
				Error:     err,
			})
			return
		}
		emit(c.events, Event{
			Type:      EventRequestComplete,
			Operation: op,
			Backend:   c.backend,
			Model:     model,
			Duration:  time.Since(start),
			Usage:     usage,
		})
	}
}
