package domain

import (
	"errors"
	"fmt"
)

var (
	ErrPermission      = errors.New("microphone unavailable")
	ErrTranscription   = errors.New("transcription failed")
	ErrConversation    = errors.New("conversation failed")
	ErrSynthesis       = errors.New("synthesis failed")
	ErrPlayback        = errors.New("playback failed")
	ErrCaptureBusy     = errors.New("previous recording is still being processed")
	ErrNoActiveCapture = errors.New("no active recording")
)

// PermissionError reports a denied or unavailable microphone. Name mirrors the
// platform error name (NotFoundError, NotReadableError, ...).
type PermissionError struct {
	Name    string
	Message string
	Err     error
}

func (e *PermissionError) Error() string {
	return e.Name + " - " + e.Message
}

func (e *PermissionError) Unwrap() error {
	return e.Err
}

func (e *PermissionError) Is(target error) bool {
	return target == ErrPermission
}

// Stage identifies one remote call of the pipeline.
type Stage string

const (
	StageTranscribe Stage = "transcribe"
	StageConverse   Stage = "converse"
	StageSynthesize Stage = "synthesize"
	StagePlayback   Stage = "playback"
)

// StageError is a failure raised by one pipeline stage. Status is the HTTP
// status when the remote answered with a non-success code.
type StageError struct {
	Stage  Stage
	Status int
	Body   string
	Err    error
}

func (e *StageError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: HTTP %d", e.Stage, e.Status)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Stage, e.Err)
	}
	return string(e.Stage) + " failed"
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func (e *StageError) Is(target error) bool {
	switch e.Stage {
	case StageTranscribe:
		return target == ErrTranscription
	case StageConverse:
		return target == ErrConversation
	case StageSynthesize:
		return target == ErrSynthesis
	case StagePlayback:
		return target == ErrPlayback
	}
	return false
}

// Fatal reports whether the stage failure aborts the run as a failure.
func (e *StageError) Fatal() bool {
	return e.Stage == StageTranscribe || e.Stage == StageConverse
}
