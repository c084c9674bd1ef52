package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"dialdesk/internal/bootstrap"
	"dialdesk/internal/callstate"
	"dialdesk/internal/config"
	"dialdesk/internal/domain"
	"dialdesk/internal/history"
	"dialdesk/internal/usecase"
)

const (
	eventCall        = "dialdesk:call"
	eventTranscript  = "dialdesk:transcript"
	eventTranscripts = "dialdesk:transcripts"
	eventHistory     = "dialdesk:history"
	eventError       = "dialdesk:error"
)

// App is the Wails application root.
type App struct {
	ctx context.Context

	controller *usecase.CallController
	store      *callstate.Store
	cache      *history.Cache
	cfg        config.Config
	bootErr    error
}

func NewApp() *App {
	return &App{}
}

func (a *App) startup(ctx context.Context) {
	a.ctx = ctx

	services, err := bootstrap.Build(a, &wailsClipboard{})
	if err != nil {
		a.bootErr = err
		a.SessionError(domain.ErrorCodeStartup, err.Error())
		return
	}

	a.cfg = services.Config
	a.controller = services.Controller
	a.store = services.Store
	a.cache = services.Cache
	a.controller.WarmHistory()
}

func (a *App) shutdown(_ context.Context) {
	if a.controller != nil {
		a.controller.StopPlayback()
		a.controller.Leave()
	}
	if a.cache != nil {
		_ = a.cache.Close()
	}
}

// StartCall places an outbound call and attaches the live view to it.
func (a *App) StartCall(req domain.CallRequest) (domain.Call, error) {
	if err := a.requireReady(); err != nil {
		return domain.Call{}, err
	}
	return a.controller.StartCall(a.ctx, req)
}

// EndCall hangs up the given call.
func (a *App) EndCall(callID string) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	return a.controller.StopCall(a.ctx, callID)
}

// WatchCall attaches the live view to an existing call.
func (a *App) WatchCall(callID string) (domain.Call, error) {
	if err := a.requireReady(); err != nil {
		return domain.Call{}, err
	}
	call, err := a.controller.WatchCall(a.ctx, callID)
	if errors.Is(err, usecase.ErrSuperseded) {
		return call, nil
	}
	return call, err
}

// LeaveCall detaches from the live view. The call keeps running on the
// backend.
func (a *App) LeaveCall() {
	if a.controller == nil {
		return
	}
	a.controller.Leave()
}

// LoadCallDetails fetches one call with its full transcript.
func (a *App) LoadCallDetails(callID string) (domain.Call, error) {
	if err := a.requireReady(); err != nil {
		return domain.Call{}, err
	}
	call, err := a.controller.LoadCallDetails(a.ctx, callID)
	if errors.Is(err, usecase.ErrSuperseded) {
		return call, nil
	}
	return call, err
}

// LoadHistory fetches one page of past calls.
func (a *App) LoadHistory(page int, pageSize int, status string) (domain.HistoryPage, error) {
	if err := a.requireReady(); err != nil {
		return domain.HistoryPage{}, err
	}
	return a.controller.LoadHistory(a.ctx, page, pageSize, domain.CallStatus(status))
}

// GetActiveCall returns the call the live view is attached to, if any.
func (a *App) GetActiveCall() *domain.Call {
	if a.store == nil {
		return nil
	}
	if call, ok := a.store.ActiveCall(); ok {
		return &call
	}
	return nil
}

// GetTranscripts returns the visible transcript log.
func (a *App) GetTranscripts() []domain.TranscriptEntry {
	if a.store == nil {
		return nil
	}
	return a.store.Transcripts()
}

// GetHistory returns the last loaded history page.
func (a *App) GetHistory() domain.HistoryPage {
	if a.store == nil {
		return domain.HistoryPage{}
	}
	return a.store.History()
}

// GetStatus summarizes the current state for an initial render.
func (a *App) GetStatus() domain.ViewState {
	if a.controller == nil {
		if a.bootErr != nil {
			return domain.ViewState{Error: a.bootErr.Error()}
		}
		return domain.ViewState{}
	}
	return a.controller.ViewState()
}

// RecordingURL returns the playback URL for a call's recording.
func (a *App) RecordingURL(callID string) (string, error) {
	if err := a.requireReady(); err != nil {
		return "", err
	}
	return a.controller.RecordingURL(callID), nil
}

// PlayRecording plays a call's recording through the external player.
func (a *App) PlayRecording(callID string) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	return a.controller.PlayRecording(a.ctx, callID)
}

// StopPlayback stops recording playback, if running.
func (a *App) StopPlayback() {
	if a.controller == nil {
		return
	}
	a.controller.StopPlayback()
}

// CopyTranscript writes the visible transcript to the clipboard.
func (a *App) CopyTranscript() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	if err := a.controller.CopyTranscript(a.ctx); err != nil {
		if errors.Is(err, usecase.ErrNoTranscript) {
			return nil
		}
		return err
	}
	return nil
}

// GetRuntimeInfo returns non-sensitive config for the UI.
func (a *App) GetRuntimeInfo() map[string]string {
	if a.bootErr != nil {
		return map[string]string{"error": a.bootErr.Error()}
	}

	return map[string]string{
		"apiBase":        a.cfg.API.BaseURL,
		"streamBase":     a.cfg.Stream.BaseURL,
		"defaultPersona": a.cfg.API.DefaultPersona,
		"playerCommand":  a.cfg.Player.Command,
		"env":            a.cfg.Env,
	}
}

func (a *App) requireReady() error {
	if a.bootErr != nil {
		return a.bootErr
	}
	if a.controller == nil {
		return fmt.Errorf("application is not initialized")
	}
	return nil
}

// CallChanged emits the updated active call to the frontend.
func (a *App) CallChanged(call domain.Call) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventCall, call)
}

// CallCleared tells the frontend the live view detached.
func (a *App) CallCleared() {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventCall, nil)
}

// TranscriptAppended emits one new live utterance.
func (a *App) TranscriptAppended(entry domain.TranscriptEntry) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventTranscript, entry)
}

// TranscriptReplaced emits a wholesale transcript snapshot.
func (a *App) TranscriptReplaced(entries []domain.TranscriptEntry) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventTranscripts, entries)
}

// HistoryChanged emits a replaced history page.
func (a *App) HistoryChanged(page domain.HistoryPage) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventHistory, page)
}

// SessionError emits backend errors to the UI.
func (a *App) SessionError(code domain.ErrorCode, detail string) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventError, map[string]string{
		"code":    string(code),
		"message": errorMessage(code, detail),
		"detail":  detail,
	})
}

func errorMessage(code domain.ErrorCode, detail string) string {
	switch code {
	case domain.ErrorCodeStartup:
		return "Startup failed"
	case domain.ErrorCodeInitiation:
		return "Call could not be placed"
	case domain.ErrorCodeTermination:
		return "Call could not be ended"
	case domain.ErrorCodeFetch:
		return "Call data could not be loaded"
	case domain.ErrorCodePlayback:
		return "Recording playback failed"
	case domain.ErrorCodeClipboard:
		return "Clipboard write failed"
	default:
		if detail == "" {
			return "Unknown error"
		}
		return detail
	}
}

type wailsClipboard struct{}

func (c *wailsClipboard) SetText(ctx context.Context, text string) error {
	return runtime.ClipboardSetText(ctx, text)
}
