package models

import "time"

// Session event types.
const (
	EventSessionStart    = "SESSION_START"
	EventTestStarted     = "TEST_STARTED"
	EventManualStarted   = "MANUAL_STARTED"
	EventTestAborted     = "TEST_ABORTED"
	EventTestCompleted   = "TEST_COMPLETED"
	EventTestConfirmed   = "TEST_CONFIRMED"
	EventDirectionChange = "DIRECTION_CHANGE"
	EventSettingsChange  = "SETTINGS_CHANGE"
)

// SessionEvent is a single entry of the test session log.
type SessionEvent struct {
	EventID     string    `json:"event_id"`
	SessionID   string    `json:"session_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`        // one of the Event* constants
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}
