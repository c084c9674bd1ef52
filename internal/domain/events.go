package domain

// StreamEventKind discriminates normalized push-stream events.
type StreamEventKind string

const (
	StreamEventTranscript StreamEventKind = "transcript"
	StreamEventStatus     StreamEventKind = "status_update"
)

// StreamEvent is one normalized inbound push message. Exactly one of the
// payload fields is meaningful, selected by Kind: Entry for transcript
// events, Status for status updates. CallID is the call the originating
// channel is subscribed to.
type StreamEvent struct {
	Kind   StreamEventKind
	CallID string
	Entry  TranscriptEntry
	Status CallStatus
}

// ErrorCode identifies operation failures surfaced to the UI.
type ErrorCode string

const (
	ErrorCodeStartup        ErrorCode = "startup"
	ErrorCodeInitiation     ErrorCode = "initiation"
	ErrorCodeTermination    ErrorCode = "termination"
	ErrorCodeFetch          ErrorCode = "fetch"
	ErrorCodeTransport      ErrorCode = "transport"
	ErrorCodeMalformedEvent ErrorCode = "malformed_event"
	ErrorCodePlayback       ErrorCode = "playback"
	ErrorCodeClipboard      ErrorCode = "clipboard"
)
