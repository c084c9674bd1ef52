package ports

import (
	"context"

	"dialdesk/internal/domain"
)

// CallAPI is the REST boundary of the call backend.
type CallAPI interface {
	Initiate(ctx context.Context, req domain.CallRequest) (domain.InitiatedCall, error)
	Call(ctx context.Context, callID string) (domain.Call, error)
	List(ctx context.Context, page int, pageSize int, status domain.CallStatus) (domain.HistoryPage, error)
	End(ctx context.Context, callID string) error
	Transcripts(ctx context.Context, callID string) ([]domain.TranscriptEntry, error)
	RecordingURL(callID string) string
}

// StreamChannel is one live push-stream connection for a single call.
// Events are delivered in connection order; the channel reconnects on its
// own until Close is called. After Close, Events is closed and no further
// reconnect happens.
type StreamChannel interface {
	Events() <-chan domain.StreamEvent
	Close() error
}

// StreamDialer opens push-stream channels.
type StreamDialer interface {
	Open(ctx context.Context, callID string) (StreamChannel, error)
}

// EventSink pushes state changes to the UI. No polling; every mutation of
// the visible call state goes through exactly one of these.
type EventSink interface {
	CallChanged(call domain.Call)
	CallCleared()
	TranscriptAppended(entry domain.TranscriptEntry)
	TranscriptReplaced(entries []domain.TranscriptEntry)
	HistoryChanged(page domain.HistoryPage)
	SessionError(code domain.ErrorCode, detail string)
}

// Clipboard writes text into the system clipboard.
type Clipboard interface {
	SetText(ctx context.Context, text string) error
}

// PlaybackSession is one running external-player invocation.
type PlaybackSession interface {
	Stop() error
	Done() <-chan struct{}
}

// RecordingPlayer plays call recordings through an external player.
type RecordingPlayer interface {
	Play(ctx context.Context, url string) (PlaybackSession, error)
}

// HistoryCache persists recently seen call records so the history view can
// render before (or without) the backend. Advisory only; implementations
// must tolerate a nil receiver.
type HistoryCache interface {
	Upsert(calls []domain.Call) error
	Recent(limit int) ([]domain.Call, error)
	Close() error
}
