package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"voiceptt/internal/domain"
)

type fakeTalkSession struct {
	mu       sync.Mutex
	state    domain.CaptureState
	startErr error
	starts   int
	stops    int
	aborts   int
	waits    int
}

func (f *fakeTalkSession) Start(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
	if f.startErr != nil {
		return f.startErr
	}
	f.state = domain.CaptureStateRecording
	return nil
}

func (f *fakeTalkSession) Stop() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
	f.state = domain.CaptureStateIdle
	return true
}

func (f *fakeTalkSession) Abort() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == domain.CaptureStateIdle || f.state == "" {
		return domain.ErrNoActiveCapture
	}
	f.aborts++
	f.state = domain.CaptureStateIdle
	return nil
}

func (f *fakeTalkSession) Wait(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.waits++
	return nil
}

func (f *fakeTalkSession) Status() domain.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return domain.Status{State: f.state}
}

func TestRunTalkTogglesPerLine(t *testing.T) {
	t.Parallel()

	session := &fakeTalkSession{}
	if err := runTalk(context.Background(), strings.NewReader("\n\n\n\n"), session); err != nil {
		t.Fatalf("talk failed: %v", err)
	}
	if session.starts != 2 || session.stops != 2 {
		t.Fatalf("expected two full turns, got starts=%d stops=%d", session.starts, session.stops)
	}
	if session.aborts != 0 {
		t.Fatalf("expected nothing to abort at EOF")
	}
}

func TestRunTalkAbortsUnfinishedRecordingAtEOF(t *testing.T) {
	t.Parallel()

	session := &fakeTalkSession{}
	if err := runTalk(context.Background(), strings.NewReader("\n"), session); err != nil {
		t.Fatalf("talk failed: %v", err)
	}
	if session.starts != 1 || session.aborts != 1 {
		t.Fatalf("expected discarded recording, got starts=%d aborts=%d", session.starts, session.aborts)
	}
}

func TestRunTalkKeepsGoingAfterPermissionDenial(t *testing.T) {
	t.Parallel()

	session := &fakeTalkSession{startErr: &domain.PermissionError{Name: "NotAllowedError", Message: "denied"}}
	if err := runTalk(context.Background(), strings.NewReader("\n\n"), session); err != nil {
		t.Fatalf("expected denial to be survivable, got %v", err)
	}
	if session.starts != 2 {
		t.Fatalf("expected retry on next press, got %d starts", session.starts)
	}
}

func TestRunTalkReturnsUnexpectedStartError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	session := &fakeTalkSession{startErr: boom}
	if err := runTalk(context.Background(), strings.NewReader("\n"), session); !errors.Is(err, boom) {
		t.Fatalf("expected start error, got %v", err)
	}
}

func TestRunTalkStopsOnCancel(t *testing.T) {
	t.Parallel()

	reader, writer := io.Pipe()
	defer writer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	session := &fakeTalkSession{}
	done := make(chan error, 1)
	go func() { done <- runTalk(ctx, reader, session) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("talk loop did not stop on cancel")
	}
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	defer rootCmd.SetArgs(nil)

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.Contains(out.String(), "voiceptt dev") {
		t.Fatalf("unexpected version output: %q", out.String())
	}
}
