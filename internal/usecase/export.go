package usecase

import (
	"strings"

	"dialdesk/internal/domain"
)

// formatTranscript renders the ordered log as share-ready plain text, one
// utterance per line.
func formatTranscript(entries []domain.TranscriptEntry) string {
	var b strings.Builder
	for _, entry := range entries {
		b.WriteString(entry.Timestamp.Local().Format("15:04:05"))
		b.WriteString(" ")
		b.WriteString(speakerLabel(entry.Speaker))
		b.WriteString(": ")
		b.WriteString(entry.Text)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func speakerLabel(speaker domain.Speaker) string {
	switch speaker {
	case domain.SpeakerAI:
		return "agent"
	case domain.SpeakerUser:
		return "caller"
	default:
		return string(speaker)
	}
}
