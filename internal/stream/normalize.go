package stream

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"dialdesk/internal/domain"
)

type wireMessage struct {
	Type       string  `json:"type"`
	Speaker    string  `json:"speaker"`
	Text       string  `json:"text"`
	Timestamp  string  `json:"timestamp"`
	Confidence float64 `json:"confidence"`
	Status     string  `json:"status"`
}

// normalize turns a raw inbound payload into a typed stream event. It never
// panics; malformed payloads and unknown message types yield ok=false so
// one bad message cannot kill the session. The backend's handshake chatter
// (connected/subscribed/pong) lands here as unknown types and is dropped.
func normalize(raw []byte, callID string) (domain.StreamEvent, bool) {
	var msg wireMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return domain.StreamEvent{}, false
	}

	switch msg.Type {
	case "transcript":
		speaker := domain.Speaker(msg.Speaker)
		if speaker != domain.SpeakerUser && speaker != domain.SpeakerAI {
			return domain.StreamEvent{}, false
		}
		text := strings.TrimSpace(msg.Text)
		if text == "" {
			return domain.StreamEvent{}, false
		}
		return domain.StreamEvent{
			Kind:   domain.StreamEventTranscript,
			CallID: callID,
			Entry: domain.TranscriptEntry{
				ID:         uuid.NewString(),
				CallID:     callID,
				Speaker:    speaker,
				Text:       text,
				Timestamp:  parseEventTime(msg.Timestamp),
				Confidence: msg.Confidence,
			},
		}, true

	case "status_update":
		status := domain.CallStatus(msg.Status)
		if !status.Known() {
			return domain.StreamEvent{}, false
		}
		return domain.StreamEvent{
			Kind:   domain.StreamEventStatus,
			CallID: callID,
			Status: status,
		}, true

	default:
		return domain.StreamEvent{}, false
	}
}

// parseEventTime accepts RFC 3339 timestamps as well as the zone-less
// isoformat strings the backend emits on live events. Unparseable values
// fall back to the receive time so arrival order is preserved.
func parseEventTime(value string) time.Time {
	value = strings.TrimSpace(value)
	if value != "" {
		if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
			return ts
		}
		if ts, err := time.ParseInLocation("2006-01-02T15:04:05.999999999", value, time.Local); err == nil {
			return ts
		}
	}
	return time.Now()
}
