package events

import "time"

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "VOICE_SESSION_STARTED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent helps embed common logic if needed,
// strictly creating valid implementations is preferred though.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

func NewVoiceSessionStarted(sessionID, kbID string) Event {
	return BaseEvent{
		Type: "VOICE_SESSION_STARTED",
		Data: map[string]interface{}{
			"session_id": sessionID,
			"kb_id":      kbID,
		},
		OccurredAt: time.Now(),
	}
}

func NewVoiceSessionEnded(sessionID, kbID string, transcriptLen int) Event {
	return BaseEvent{
		Type: "VOICE_SESSION_ENDED",
		Data: map[string]interface{}{
			"session_id":      sessionID,
			"kb_id":           kbID,
			"transcript_size": transcriptLen,
		},
		OccurredAt: time.Now(),
	}
}

func NewFileIngested(kbID, fileName string, chunkCount int) Event {
	return BaseEvent{
		Type: "KB_FILE_INGESTED",
		Data: map[string]interface{}{
			"kb_id":       kbID,
			"file_name":   fileName,
			"chunk_count": chunkCount,
		},
		OccurredAt: time.Now(),
	}
}
