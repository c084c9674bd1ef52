package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"dialdesk/internal/callstate"
	"dialdesk/internal/domain"
	"dialdesk/internal/ports"
)

var (
	ErrNoTranscript = errors.New("no transcript to copy")

	// ErrSuperseded reports that the call view changed while a request was
	// in flight; the response was dropped instead of applied.
	ErrSuperseded = errors.New("call view changed while request was in flight")
)

// Config controls facade behavior.
type Config struct {
	DefaultPageSize int
	DefaultPersona  string
	WarmLimit       int
}

// CallController orchestrates call initiation, live transcript
// synchronization, and history browsing. It is the only writer of the
// store besides the stream consumer it spawns.
type CallController struct {
	api       ports.CallAPI
	dialer    ports.StreamDialer
	store     *callstate.Store
	cache     ports.HistoryCache
	player    ports.RecordingPlayer
	clipboard ports.Clipboard
	events    ports.EventSink
	log       *slog.Logger
	cfg       Config

	mu       sync.Mutex
	current  *activeSession
	playback ports.PlaybackSession
}

func NewCallController(
	api ports.CallAPI,
	dialer ports.StreamDialer,
	store *callstate.Store,
	cache ports.HistoryCache,
	player ports.RecordingPlayer,
	clipboard ports.Clipboard,
	events ports.EventSink,
	log *slog.Logger,
	cfg Config,
) *CallController {
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = 20
	}
	if cfg.WarmLimit <= 0 {
		cfg.WarmLimit = 50
	}
	if log == nil {
		log = slog.Default()
	}
	return &CallController{
		api:       api,
		dialer:    dialer,
		store:     store,
		cache:     cache,
		player:    player,
		clipboard: clipboard,
		events:    events,
		log:       log,
		cfg:       cfg,
	}
}

// StartCall initiates an outbound call, applies the backend's snapshot of
// the fresh record, and opens the live stream session. On failure no
// partial state is applied.
func (c *CallController) StartCall(ctx context.Context, req domain.CallRequest) (domain.Call, error) {
	req.PhoneNumber = strings.TrimSpace(req.PhoneNumber)
	if !strings.HasPrefix(req.PhoneNumber, "+") {
		err := errors.New("phone number must be in E.164 format (starting with +)")
		c.fail(domain.ErrorCodeInitiation, err)
		return domain.Call{}, err
	}
	if req.AIPersona == "" {
		req.AIPersona = c.cfg.DefaultPersona
	}

	c.store.ClearError()
	c.store.SetLoading(true)

	initiated, err := c.api.Initiate(ctx, req)
	if err != nil {
		c.fail(domain.ErrorCodeInitiation, err)
		return domain.Call{}, fmt.Errorf("initiate call: %w", err)
	}

	call, err := c.api.Call(ctx, initiated.CallID)
	if err != nil {
		c.fail(domain.ErrorCodeInitiation, err)
		return domain.Call{}, fmt.Errorf("fetch initiated call: %w", err)
	}

	c.teardownCurrent()
	session := c.beginSession(ctx, call.ID)

	if !c.applyIfCurrent(session, call, nil) {
		return domain.Call{}, ErrSuperseded
	}
	c.events.CallChanged(call)
	c.events.TranscriptReplaced(nil)

	c.openStream(session)
	return call, nil
}

// StopCall asks the backend to end the call, then optimistically marks it
// completed. On failure the local call state is left unchanged.
func (c *CallController) StopCall(ctx context.Context, callID string) error {
	if err := c.api.End(ctx, callID); err != nil {
		c.fail(domain.ErrorCodeTermination, err)
		return fmt.Errorf("end call %s: %w", callID, err)
	}

	if c.store.MarkEnded(callID) {
		if call, ok := c.store.ActiveCall(); ok {
			c.events.CallChanged(call)
		}
	}
	return nil
}

// WatchCall attaches the call view to an existing call: it applies a fresh
// snapshot and opens the live stream session.
func (c *CallController) WatchCall(ctx context.Context, callID string) (domain.Call, error) {
	c.store.ClearError()
	c.store.SetLoading(true)

	c.teardownCurrent()
	session := c.beginSession(ctx, callID)

	call, entries, err := c.fetchSnapshot(ctx, callID)
	if err != nil {
		c.fail(domain.ErrorCodeFetch, err)
		c.endSession(session)
		return domain.Call{}, fmt.Errorf("watch call %s: %w", callID, err)
	}
	if !c.applyIfCurrent(session, call, entries) {
		return domain.Call{}, ErrSuperseded
	}
	c.events.CallChanged(call)
	c.events.TranscriptReplaced(entries)

	c.openStream(session)
	return call, nil
}

// LoadCallDetails fetches one call plus its full historical transcript list
// and applies it as a snapshot, unless the call view moved on while the
// fetch was in flight.
func (c *CallController) LoadCallDetails(ctx context.Context, callID string) (domain.Call, error) {
	c.store.ClearError()
	c.store.SetLoading(true)

	call, entries, err := c.fetchSnapshot(ctx, callID)
	if err != nil {
		c.fail(domain.ErrorCodeFetch, err)
		return domain.Call{}, fmt.Errorf("load call details %s: %w", callID, err)
	}

	if cur := c.currentCallID(); cur != "" && cur != callID {
		c.store.SetLoading(false)
		c.log.Debug("dropped stale call details",
			slog.String("call_id", callID),
			slog.String("active_call_id", cur),
		)
		return call, ErrSuperseded
	}

	c.store.ApplySnapshot(call, entries)
	c.store.SetLoading(false)
	c.events.CallChanged(call)
	c.events.TranscriptReplaced(entries)
	return call, nil
}

// LoadHistory fetches one page of past calls and replaces the history list
// and pagination metadata atomically. On failure the previous page stays.
func (c *CallController) LoadHistory(ctx context.Context, page int, pageSize int, status domain.CallStatus) (domain.HistoryPage, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = c.cfg.DefaultPageSize
	}

	c.store.ClearError()
	c.store.SetLoading(true)

	result, err := c.api.List(ctx, page, pageSize, status)
	if err != nil {
		c.fail(domain.ErrorCodeFetch, err)
		return domain.HistoryPage{}, fmt.Errorf("load history: %w", err)
	}

	c.store.SetHistory(result)
	c.store.SetLoading(false)
	c.events.HistoryChanged(result)

	if c.cache != nil {
		if err := c.cache.Upsert(result.Items); err != nil {
			c.log.Warn("history cache update failed", slog.String("error", err.Error()))
		}
	}
	return result, nil
}

// WarmHistory seeds the history view from the local cache. Called once at
// startup; backend data replaces it on the first successful LoadHistory.
func (c *CallController) WarmHistory() {
	if c.cache == nil {
		return
	}
	calls, err := c.cache.Recent(c.cfg.WarmLimit)
	if err != nil {
		c.log.Warn("history cache read failed", slog.String("error", err.Error()))
		return
	}
	if len(calls) == 0 {
		return
	}

	page := domain.HistoryPage{
		Items:    calls,
		Total:    len(calls),
		Page:     1,
		PageSize: c.cfg.DefaultPageSize,
		Pages:    1,
	}
	c.store.SetHistory(page)
	c.events.HistoryChanged(page)
}

// Leave closes the live stream channel, discards any pending reconnect, and
// clears the active-call slice. History data survives.
func (c *CallController) Leave() {
	c.teardownCurrent()
	c.store.Clear()
	c.events.CallCleared()
}

// CopyTranscript formats the visible transcript log and writes it to the
// clipboard.
func (c *CallController) CopyTranscript(ctx context.Context) error {
	entries := c.store.Transcripts()
	if len(entries) == 0 {
		return ErrNoTranscript
	}

	if err := c.clipboard.SetText(ctx, formatTranscript(entries)); err != nil {
		c.events.SessionError(domain.ErrorCodeClipboard, "transcript ready but clipboard write failed")
		return fmt.Errorf("copy transcript: %w", err)
	}
	return nil
}

// PlayRecording starts the external player on the call's recording,
// stopping any playback already running.
func (c *CallController) PlayRecording(ctx context.Context, callID string) error {
	c.StopPlayback()

	session, err := c.player.Play(ctx, c.recordingURLFor(callID))
	if err != nil {
		c.events.SessionError(domain.ErrorCodePlayback, err.Error())
		return fmt.Errorf("play recording %s: %w", callID, err)
	}

	c.mu.Lock()
	c.playback = session
	c.mu.Unlock()

	go func() {
		<-session.Done()
		c.mu.Lock()
		if c.playback == session {
			c.playback = nil
		}
		c.mu.Unlock()
	}()
	return nil
}

// StopPlayback stops the running playback, if any.
func (c *CallController) StopPlayback() {
	c.mu.Lock()
	session := c.playback
	c.playback = nil
	c.mu.Unlock()

	if session != nil {
		_ = session.Stop()
	}
}

// RecordingURL exposes the opaque playback URL for a call.
func (c *CallController) RecordingURL(callID string) string {
	return c.api.RecordingURL(callID)
}

// ViewState summarizes the current state for an initial render.
func (c *CallController) ViewState() domain.ViewState {
	return c.store.ViewState(c.live())
}

func (c *CallController) fetchSnapshot(ctx context.Context, callID string) (domain.Call, []domain.TranscriptEntry, error) {
	call, err := c.api.Call(ctx, callID)
	if err != nil {
		return domain.Call{}, nil, err
	}
	entries, err := c.api.Transcripts(ctx, callID)
	if err != nil {
		return domain.Call{}, nil, err
	}
	return call, entries, nil
}

func (c *CallController) beginSession(ctx context.Context, callID string) *activeSession {
	sessionCtx, cancel := context.WithCancel(ctx)
	session := &activeSession{
		callID:     callID,
		ctx:        sessionCtx,
		cancel:     cancel,
		eventsDone: make(chan struct{}),
	}

	c.mu.Lock()
	c.current = session
	c.mu.Unlock()
	return session
}

// applyIfCurrent applies a snapshot only while the session still owns the
// call view. The ownership check and the apply happen under one lock, so a
// competing session cannot land its snapshot in between and end up shown
// under the wrong call.
func (c *CallController) applyIfCurrent(session *activeSession, call domain.Call, entries []domain.TranscriptEntry) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != session {
		return false
	}
	c.store.ApplySnapshot(call, entries)
	c.store.SetLoading(false)
	return true
}

// openStream dials the push channel for the session and starts routing its
// events into the store. Channel-level failures degrade the live view
// silently; they are never surfaced as user-facing errors.
func (c *CallController) openStream(session *activeSession) {
	ch, err := c.dialer.Open(session.ctx, session.callID)
	if err != nil {
		c.log.Warn("stream open failed",
			slog.String("call_id", session.callID),
			slog.String("error", err.Error()),
		)
		close(session.eventsDone)
		return
	}

	c.mu.Lock()
	if c.current != session {
		c.mu.Unlock()
		_ = ch.Close()
		close(session.eventsDone)
		return
	}
	session.channel = ch
	c.mu.Unlock()

	go c.consumeStreamEvents(session)
}

func (c *CallController) consumeStreamEvents(session *activeSession) {
	defer close(session.eventsDone)

	for evt := range session.channel.Events() {
		switch evt.Kind {
		case domain.StreamEventTranscript:
			c.store.AppendTranscript(evt.Entry)
			c.events.TranscriptAppended(evt.Entry)
		case domain.StreamEventStatus:
			if c.store.ApplyStatusEvent(evt.CallID, evt.Status) {
				if call, ok := c.store.ActiveCall(); ok {
					c.events.CallChanged(call)
				}
			}
		}
	}
}

func (c *CallController) teardownCurrent() {
	c.mu.Lock()
	session := c.current
	c.current = nil
	var ch ports.StreamChannel
	if session != nil {
		ch = session.channel
	}
	c.mu.Unlock()

	if session == nil {
		return
	}
	session.cancel()
	if ch != nil {
		_ = ch.Close()
		<-session.eventsDone
	}
}

// endSession retires a session that never opened its stream.
func (c *CallController) endSession(session *activeSession) {
	c.mu.Lock()
	if c.current == session {
		c.current = nil
	}
	c.mu.Unlock()
	session.cancel()
}

func (c *CallController) currentCallID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return ""
	}
	return c.current.callID
}

func (c *CallController) live() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current != nil && c.current.channel != nil
}

func (c *CallController) recordingURLFor(callID string) string {
	if call, ok := c.store.ActiveCall(); ok && call.ID == callID && call.RecordingURL != "" {
		return call.RecordingURL
	}
	return c.api.RecordingURL(callID)
}

func (c *CallController) fail(code domain.ErrorCode, err error) {
	c.store.SetError(err.Error())
	c.events.SessionError(code, err.Error())
}
