package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/wailsapp/wails/v2/pkg/runtime"
	"go.uber.org/zap"

	"voiceptt/internal/bootstrap"
	"voiceptt/internal/config"
	"voiceptt/internal/domain"
	"voiceptt/internal/usecase"
)

const (
	eventLog   = "voiceptt:log"
	eventState = "voiceptt:state"
)

// App is the Wails application root.
type App struct {
	ctx context.Context

	capture  *usecase.CaptureSession
	pipeline *usecase.Pipeline
	stopPlay func()
	logger   *zap.Logger
	cfg      config.Config
	bootErr  error
}

func NewApp() *App {
	return &App{logger: zap.NewNop()}
}

func (a *App) startup(ctx context.Context) {
	a.ctx = ctx

	services, err := bootstrap.Build(a, a)
	if err != nil {
		a.bootErr = err
		a.Append(fmt.Sprintf("[Error] Startup failed: %v", err))
		return
	}

	a.cfg = services.Config
	a.capture = services.Capture
	a.pipeline = services.Pipeline
	a.stopPlay = services.Player.Stop
	a.logger = services.Logger
	a.CaptureStateChanged(domain.CaptureStateIdle)

	go func() {
		_ = a.capture.ProbeMicrophone(ctx)
	}()
}

func (a *App) shutdown(_ context.Context) {
	if a.capture != nil {
		if err := a.capture.Abort(); err != nil && !errors.Is(err, domain.ErrNoActiveCapture) {
			a.logger.Warn("abort on shutdown failed", zap.Error(err))
		}
	}
	if a.stopPlay != nil {
		a.stopPlay()
	}
	_ = a.logger.Sync()
}

// PressHold starts recording. A press while the previous cycle is still
// running is ignored.
func (a *App) PressHold() (domain.Status, error) {
	if err := a.requireReady(); err != nil {
		return domain.Status{}, err
	}
	if err := a.capture.Start(a.ctx); err != nil {
		if errors.Is(err, domain.ErrCaptureBusy) {
			return a.capture.Status(), nil
		}
		return a.capture.Status(), err
	}
	return a.capture.Status(), nil
}

// ReleaseHold stops recording; the reply pipeline runs in the background.
func (a *App) ReleaseHold() (domain.Status, error) {
	if err := a.requireReady(); err != nil {
		return domain.Status{}, err
	}
	a.capture.Stop()
	return a.capture.Status(), nil
}

// AbortHold discards an in-progress recording.
func (a *App) AbortHold() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	if err := a.capture.Abort(); err != nil && !errors.Is(err, domain.ErrNoActiveCapture) {
		return err
	}
	return nil
}

// GetStatus returns the current capture status.
func (a *App) GetStatus() domain.Status {
	if a.capture == nil {
		if a.bootErr != nil {
			return domain.Status{State: domain.CaptureStateIdle, Message: a.bootErr.Error()}
		}
		return domain.Status{State: domain.CaptureStateIdle}
	}
	return a.capture.Status()
}

// GetRuntimeInfo returns non-sensitive config for the UI.
func (a *App) GetRuntimeInfo() map[string]string {
	if a.bootErr != nil {
		return map[string]string{"error": a.bootErr.Error()}
	}

	session := "none"
	if a.pipeline != nil {
		if _, ok := a.pipeline.SessionToken(); ok {
			session = "active"
		}
	}
	return map[string]string{
		"apiBase":          a.cfg.API.BaseURL,
		"audioInput":       a.cfg.Audio.InputDevice,
		"audioInputFormat": a.cfg.Audio.InputFormat,
		"recorder":         a.cfg.Audio.RecorderCommand,
		"player":           a.cfg.Audio.PlayerCommand,
		"session":          session,
	}
}

func (a *App) requireReady() error {
	if a.bootErr != nil {
		return a.bootErr
	}
	if a.capture == nil {
		return fmt.Errorf("application is not initialized")
	}
	return nil
}

// Append emits one activity log line to the frontend.
func (a *App) Append(line string) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventLog, map[string]string{"line": line})
}

// CaptureStateChanged emits capture lifecycle updates to the frontend.
func (a *App) CaptureStateChanged(state domain.CaptureState) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventState, map[string]string{
		"state":   string(state),
		"message": stateMessage(state),
	})
}

func stateMessage(state domain.CaptureState) string {
	switch state {
	case domain.CaptureStateIdle:
		return "Hold to talk"
	case domain.CaptureStateRequesting:
		return "Opening microphone..."
	case domain.CaptureStateRecording:
		return "Recording"
	case domain.CaptureStateStopping:
		return "Thinking..."
	default:
		return ""
	}
}
