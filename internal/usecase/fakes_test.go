package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"dialdesk/internal/domain"
	"dialdesk/internal/ports"
)

type listRequest struct {
	page     int
	pageSize int
	status   domain.CallStatus
}

type fakeAPI struct {
	mu sync.Mutex

	initiated   domain.InitiatedCall
	initiations map[string]domain.InitiatedCall
	initiateErr error
	calls       map[string]domain.Call
	callErr     error
	transcripts map[string][]domain.TranscriptEntry
	history     domain.HistoryPage
	listErr     error
	endErr      error

	initiateRequests []domain.CallRequest
	listRequests     []listRequest
	ended            []string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		calls:       map[string]domain.Call{},
		initiations: map[string]domain.InitiatedCall{},
		transcripts: map[string][]domain.TranscriptEntry{},
	}
}

func (f *fakeAPI) Initiate(_ context.Context, req domain.CallRequest) (domain.InitiatedCall, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.initiateRequests = append(f.initiateRequests, req)
	if f.initiateErr != nil {
		return domain.InitiatedCall{}, f.initiateErr
	}
	if initiated, ok := f.initiations[req.PhoneNumber]; ok {
		return initiated, nil
	}
	return f.initiated, nil
}

func (f *fakeAPI) Call(_ context.Context, callID string) (domain.Call, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.callErr != nil {
		return domain.Call{}, f.callErr
	}
	call, ok := f.calls[callID]
	if !ok {
		return domain.Call{}, fmt.Errorf("no such call %s", callID)
	}
	return call, nil
}

func (f *fakeAPI) List(_ context.Context, page, pageSize int, status domain.CallStatus) (domain.HistoryPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listRequests = append(f.listRequests, listRequest{page: page, pageSize: pageSize, status: status})
	if f.listErr != nil {
		return domain.HistoryPage{}, f.listErr
	}
	return f.history, nil
}

func (f *fakeAPI) End(_ context.Context, callID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.endErr != nil {
		return f.endErr
	}
	f.ended = append(f.ended, callID)
	return nil
}

func (f *fakeAPI) Transcripts(_ context.Context, callID string) ([]domain.TranscriptEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.transcripts[callID], nil
}

func (f *fakeAPI) RecordingURL(callID string) string {
	return "http://fake/recordings/" + callID
}

func (f *fakeAPI) endedCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.ended...)
}

type fakeStreamChannel struct {
	events    chan domain.StreamEvent
	closeOnce sync.Once

	mu     sync.Mutex
	closed bool
}

func newFakeStreamChannel() *fakeStreamChannel {
	return &fakeStreamChannel{events: make(chan domain.StreamEvent, 16)}
}

func (f *fakeStreamChannel) Events() <-chan domain.StreamEvent { return f.events }

func (f *fakeStreamChannel) Close() error {
	f.closeOnce.Do(func() {
		f.mu.Lock()
		f.closed = true
		f.mu.Unlock()
		close(f.events)
	})
	return nil
}

func (f *fakeStreamChannel) push(evt domain.StreamEvent) {
	f.events <- evt
}

func (f *fakeStreamChannel) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

type fakeDialer struct {
	mu       sync.Mutex
	err      error
	opened   []string
	channels []*fakeStreamChannel
}

func (f *fakeDialer) Open(_ context.Context, callID string) (ports.StreamChannel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	ch := newFakeStreamChannel()
	f.opened = append(f.opened, callID)
	f.channels = append(f.channels, ch)
	return ch, nil
}

func (f *fakeDialer) openedCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.opened...)
}

func (f *fakeDialer) channel(i int) *fakeStreamChannel {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.channels[i]
}

type sinkError struct {
	code   domain.ErrorCode
	detail string
}

type fakeSink struct {
	mu       sync.Mutex
	changed  []domain.Call
	cleared  int
	appended []domain.TranscriptEntry
	replaced [][]domain.TranscriptEntry
	history  []domain.HistoryPage
	errors   []sinkError
}

func (f *fakeSink) CallChanged(call domain.Call) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.changed = append(f.changed, call)
}

func (f *fakeSink) CallCleared() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared++
}

func (f *fakeSink) TranscriptAppended(entry domain.TranscriptEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appended = append(f.appended, entry)
}

func (f *fakeSink) TranscriptReplaced(entries []domain.TranscriptEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replaced = append(f.replaced, entries)
}

func (f *fakeSink) HistoryChanged(page domain.HistoryPage) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.history = append(f.history, page)
}

func (f *fakeSink) SessionError(code domain.ErrorCode, detail string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errors = append(f.errors, sinkError{code: code, detail: detail})
}

func (f *fakeSink) callChanges() []domain.Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Call(nil), f.changed...)
}

func (f *fakeSink) clearedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cleared
}

func (f *fakeSink) appendedEntries() []domain.TranscriptEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.TranscriptEntry(nil), f.appended...)
}

func (f *fakeSink) lastErrorCode() domain.ErrorCode {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.errors) == 0 {
		return ""
	}
	return f.errors[len(f.errors)-1].code
}

type fakeCache struct {
	mu        sync.Mutex
	upserts   [][]domain.Call
	recent    []domain.Call
	recentErr error
}

func (f *fakeCache) Upsert(calls []domain.Call) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts = append(f.upserts, append([]domain.Call(nil), calls...))
	return nil
}

func (f *fakeCache) Recent(limit int) ([]domain.Call, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.recentErr != nil {
		return nil, f.recentErr
	}
	if limit < len(f.recent) {
		return f.recent[:limit], nil
	}
	return f.recent, nil
}

func (f *fakeCache) Close() error { return nil }

type fakePlaybackSession struct {
	mu      sync.Mutex
	stopped bool
	done    chan struct{}
}

func (f *fakePlaybackSession) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.stopped {
		f.stopped = true
		close(f.done)
	}
	return nil
}

func (f *fakePlaybackSession) Done() <-chan struct{} { return f.done }

func (f *fakePlaybackSession) wasStopped() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopped
}

type fakePlayer struct {
	mu       sync.Mutex
	err      error
	urls     []string
	sessions []*fakePlaybackSession
}

func (f *fakePlayer) Play(_ context.Context, url string) (ports.PlaybackSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	session := &fakePlaybackSession{done: make(chan struct{})}
	f.urls = append(f.urls, url)
	f.sessions = append(f.sessions, session)
	return session, nil
}

func (f *fakePlayer) session(i int) *fakePlaybackSession {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sessions[i]
}

type fakeClipboard struct {
	err      error
	lastText string
}

func (f *fakeClipboard) SetText(_ context.Context, text string) error {
	if f.err != nil {
		return errors.New("clipboard unavailable")
	}
	f.lastText = text
	return nil
}
