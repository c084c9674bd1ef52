package domain

import "time"

// CallStatus models the call lifecycle. Forward transitions only:
// initiating -> ringing -> in_progress -> completed, with failed reachable
// from any non-terminal state. A backend snapshot may still overwrite the
// whole record with any status; the backend is ground truth.
type CallStatus string

const (
	CallStatusInitiating CallStatus = "initiating"
	CallStatusRinging    CallStatus = "ringing"
	CallStatusInProgress CallStatus = "in_progress"
	CallStatusCompleted  CallStatus = "completed"
	CallStatusFailed     CallStatus = "failed"
)

// Terminal reports whether no further forward transition is defined.
func (s CallStatus) Terminal() bool {
	return s == CallStatusCompleted || s == CallStatusFailed
}

// Known reports whether the status is part of the defined lifecycle.
func (s CallStatus) Known() bool {
	switch s {
	case CallStatusInitiating, CallStatusRinging, CallStatusInProgress, CallStatusCompleted, CallStatusFailed:
		return true
	default:
		return false
	}
}

// Speaker identifies who produced an utterance.
type Speaker string

const (
	SpeakerUser Speaker = "user"
	SpeakerAI   Speaker = "ai"
)

// Call is one outbound phone call record, mirrored from the backend.
type Call struct {
	ID              string     `json:"id"`
	PhoneNumber     string     `json:"phoneNumber"`
	CallerID        string     `json:"callerId,omitempty"`
	Direction       string     `json:"direction,omitempty"`
	Status          CallStatus `json:"status"`
	AIPersona       string     `json:"aiPersona,omitempty"`
	StartedAt       *time.Time `json:"startedAt,omitempty"`
	EndedAt         *time.Time `json:"endedAt,omitempty"`
	DurationSeconds int        `json:"durationSeconds,omitempty"`
	RecordingURL    string     `json:"recordingUrl,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// TranscriptEntry is one utterance. Entries are never mutated after
// creation, only appended or wholesale replaced.
type TranscriptEntry struct {
	ID         string    `json:"id"`
	CallID     string    `json:"callId"`
	Speaker    Speaker   `json:"speaker"`
	Text       string    `json:"text"`
	Timestamp  time.Time `json:"timestamp"`
	Confidence float64   `json:"confidence,omitempty"`
}

// CallRequest describes an outbound call initiation.
type CallRequest struct {
	PhoneNumber string `json:"phoneNumber"`
	CallerID    string `json:"callerId,omitempty"`
	AIPersona   string `json:"aiPersona,omitempty"`
}

// InitiatedCall is the backend's answer to a call initiation.
type InitiatedCall struct {
	CallID       string     `json:"callId"`
	Status       CallStatus `json:"status"`
	PhoneNumber  string     `json:"phoneNumber"`
	CreatedAt    time.Time  `json:"createdAt"`
	WebsocketURL string     `json:"websocketUrl"`
}

// HistoryPage is one page of past calls plus pagination metadata.
type HistoryPage struct {
	Items    []Call `json:"items"`
	Total    int    `json:"total"`
	Page     int    `json:"page"`
	PageSize int    `json:"pageSize"`
	Pages    int    `json:"pages"`
}

// ViewState summarizes the store for an initial UI render.
type ViewState struct {
	ActiveCallID string     `json:"activeCallId,omitempty"`
	Status       CallStatus `json:"status,omitempty"`
	Live         bool       `json:"live"`
	Loading      bool       `json:"loading"`
	Error        string     `json:"error,omitempty"`
}
