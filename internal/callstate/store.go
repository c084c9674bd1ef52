// Package callstate holds the authoritative in-memory view of "the call as
// of now". Two producers write into it: REST completions apply wholesale
// snapshots, stream events apply partial merges. A snapshot always wins and
// overwrites the whole record, so a stale or out-of-order push can never
// permanently corrupt the displayed state; the next snapshot resynchronizes
// it.
package callstate

import (
	"sync"

	"dialdesk/internal/domain"
)

// Store is the single mutable resource shared by the REST and stream
// writers. Every operation is one atomic merge under the mutex; no lock is
// held across I/O.
type Store struct {
	mu          sync.Mutex
	active      *domain.Call
	transcripts []domain.TranscriptEntry
	history     domain.HistoryPage
	loading     bool
	lastError   string
}

func NewStore() *Store {
	return &Store{}
}

// ApplySnapshot replaces the active call record and its transcript log
// wholesale. Historical transcript order is whatever the backend returned;
// the log is not re-sorted afterwards.
func (s *Store) ApplySnapshot(call domain.Call, transcripts []domain.TranscriptEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := call
	s.active = &copied
	s.transcripts = append([]domain.TranscriptEntry(nil), transcripts...)
}

// ApplyStatusEvent updates the active call's status. A mismatched callID is
// a no-op; it guards against stale events from a previous session's channel
// that has not fully torn down yet. Returns whether the visible state
// changed.
func (s *Store) ApplyStatusEvent(callID string, status domain.CallStatus) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil || s.active.ID != callID {
		return false
	}
	if s.active.Status == status {
		return false
	}
	s.active.Status = status
	return true
}

// AppendTranscript appends to the visible end of the log. No dedup by id:
// duplicate delivery across a reconnect produces a visible duplicate entry,
// matching the backend's replay behavior.
func (s *Store) AppendTranscript(entry domain.TranscriptEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcripts = append(s.transcripts, entry)
}

// MarkEnded optimistically moves the active call to completed, ahead of any
// corroborating stream event. Returns whether the visible state changed.
func (s *Store) MarkEnded(callID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil || s.active.ID != callID {
		return false
	}
	if s.active.Status == domain.CallStatusCompleted {
		return false
	}
	s.active.Status = domain.CallStatusCompleted
	return true
}

// Clear drops the active call and its transcript log. History-page data is
// untouched.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = nil
	s.transcripts = nil
}

// SetHistory replaces the history list and its pagination metadata
// atomically.
func (s *Store) SetHistory(page domain.HistoryPage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	page.Items = append([]domain.Call(nil), page.Items...)
	s.history = page
}

func (s *Store) SetLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = loading
}

func (s *Store) SetError(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastError = message
	s.loading = false
}

func (s *Store) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastError = ""
}

// ActiveCall returns a copy of the tracked call, if any.
func (s *Store) ActiveCall() (domain.Call, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return domain.Call{}, false
	}
	return *s.active, true
}

// Transcripts returns a copy of the ordered log.
func (s *Store) Transcripts() []domain.TranscriptEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.TranscriptEntry(nil), s.transcripts...)
}

func (s *Store) History() domain.HistoryPage {
	s.mu.Lock()
	defer s.mu.Unlock()
	page := s.history
	page.Items = append([]domain.Call(nil), s.history.Items...)
	return page
}

func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

func (s *Store) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}

// ViewState summarizes the store for an initial render.
func (s *Store) ViewState(live bool) domain.ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := domain.ViewState{
		Live:    live,
		Loading: s.loading,
		Error:   s.lastError,
	}
	if s.active != nil {
		state.ActiveCallID = s.active.ID
		state.Status = s.active.Status
	}
	return state
}
