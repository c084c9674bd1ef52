package rest

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"dialdesk/internal/domain"
)

// Wire shapes follow the backend's JSON contract.

// apiTime accepts RFC 3339 timestamps as well as the zone-less isoformat
// strings the backend emits for naive datetimes.
type apiTime struct {
	time.Time
}

func (t *apiTime) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		t.Time = time.Time{}
		return nil
	}
	if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		t.Time = ts
		return nil
	}
	ts, err := time.ParseInLocation("2006-01-02T15:04:05.999999999", raw, time.Local)
	if err != nil {
		return err
	}
	t.Time = ts
	return nil
}

func timeValue(t *apiTime) *time.Time {
	if t == nil {
		return nil
	}
	ts := t.Time
	return &ts
}

type initiateRequest struct {
	PhoneNumber string `json:"phone_number"`
	CallerID    string `json:"caller_id,omitempty"`
	AIPersona   string `json:"ai_persona,omitempty"`
}

type initiateResponse struct {
	CallID       string  `json:"call_id"`
	Status       string  `json:"status"`
	PhoneNumber  string  `json:"phone_number"`
	CreatedAt    apiTime `json:"created_at"`
	WebsocketURL string  `json:"websocket_url"`
}

type callResponse struct {
	ID           string   `json:"id"`
	PhoneNumber  string   `json:"phone_number"`
	Status       string   `json:"status"`
	CallerID     string   `json:"caller_id"`
	Direction    string   `json:"direction"`
	StartedAt    *apiTime `json:"started_at"`
	EndedAt      *apiTime `json:"ended_at"`
	Duration     int      `json:"duration"`
	RecordingURL string   `json:"recording_url"`
	AIPersona    string   `json:"ai_persona"`
	CreatedAt    apiTime  `json:"created_at"`
	UpdatedAt    apiTime  `json:"updated_at"`
}

func (r callResponse) toDomain() domain.Call {
	return domain.Call{
		ID:              r.ID,
		PhoneNumber:     r.PhoneNumber,
		CallerID:        r.CallerID,
		Direction:       r.Direction,
		Status:          domain.CallStatus(r.Status),
		AIPersona:       r.AIPersona,
		StartedAt:       timeValue(r.StartedAt),
		EndedAt:         timeValue(r.EndedAt),
		DurationSeconds: r.Duration,
		RecordingURL:    r.RecordingURL,
		CreatedAt:       r.CreatedAt.Time,
		UpdatedAt:       r.UpdatedAt.Time,
	}
}

type listResponse struct {
	Items    []callResponse `json:"items"`
	Total    int            `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
	Pages    int            `json:"pages"`
}

type transcriptResponse struct {
	ID         string  `json:"id"`
	CallID     string  `json:"call_id"`
	Speaker    string  `json:"speaker"`
	Text       string  `json:"text"`
	Timestamp  apiTime `json:"timestamp"`
	Confidence float64 `json:"confidence"`
}

func (r transcriptResponse) toDomain() domain.TranscriptEntry {
	id := r.ID
	if id == "" {
		id = uuid.NewString()
	}
	return domain.TranscriptEntry{
		ID:         id,
		CallID:     r.CallID,
		Speaker:    domain.Speaker(r.Speaker),
		Text:       r.Text,
		Timestamp:  r.Timestamp.Time,
		Confidence: r.Confidence,
	}
}

type transcriptListResponse struct {
	CallID      string               `json:"call_id"`
	Transcripts []transcriptResponse `json:"transcripts"`
}
