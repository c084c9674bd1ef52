// Package player invokes an external audio player on recording URLs. The
// client never decodes audio itself.
package player

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"dialdesk/internal/ports"
)

// FFPlay plays recordings through an ffplay-compatible command.
type FFPlay struct {
	command string
}

func NewFFPlay(command string) *FFPlay {
	if command == "" {
		command = "ffplay"
	}
	return &FFPlay{command: command}
}

func (p *FFPlay) Play(ctx context.Context, url string) (ports.PlaybackSession, error) {
	if url == "" {
		return nil, errors.New("no recording URL")
	}

	args := []string{
		"-nodisp",
		"-autoexit",
		"-hide_banner",
		"-loglevel", "error",
		url,
	}

	cmd := exec.CommandContext(ctx, p.command, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start player: %w", err)
	}

	waitErr := make(chan error, 1)
	done := make(chan struct{})
	go func() {
		waitErr <- cmd.Wait()
		close(waitErr)
		close(done)
	}()

	// an immediate exit means the player rejected the URL
	select {
	case err := <-waitErr:
		if err != nil {
			return nil, fmt.Errorf("player exited before playback started: %w: %s", err, trimmed(stderr.String()))
		}
		return nil, errors.New("player exited before playback started")
	case <-time.After(250 * time.Millisecond):
	}

	return &playbackSession{
		process: cmd.Process,
		stderr:  &stderr,
		waitErr: waitErr,
		done:    done,
	}, nil
}

type playbackSession struct {
	process *os.Process
	stderr  *bytes.Buffer
	waitErr <-chan error
	done    chan struct{}

	stopOnce sync.Once
	stopErr  error
}

func (s *playbackSession) Done() <-chan struct{} {
	return s.done
}

func (s *playbackSession) Stop() error {
	s.stopOnce.Do(func() {
		if s.process != nil {
			_ = s.process.Signal(os.Interrupt)
		}

		select {
		case err, ok := <-s.waitErr:
			if ok {
				s.stopErr = normalizeStopErr(err)
			}
		case <-time.After(1200 * time.Millisecond):
			if s.process != nil {
				_ = s.process.Kill()
			}
			err, ok := <-s.waitErr
			if ok {
				s.stopErr = normalizeStopErr(err)
			}
		}

		if s.stopErr != nil && s.stderr != nil && s.stderr.Len() > 0 {
			s.stopErr = fmt.Errorf("%w: %s", s.stopErr, trimmed(s.stderr.String()))
		}
	})

	return s.stopErr
}

// normalizeStopErr drops exit-status errors; a player killed mid-playback
// is a normal stop, not a failure.
func normalizeStopErr(err error) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil
	}
	return err
}

func trimmed(input string) string {
	if input == "" {
		return input
	}
	return string(bytes.TrimSpace([]byte(input)))
}
