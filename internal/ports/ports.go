package ports

import (
	"context"

	"voiceptt/internal/domain"
)

// AudioConfig describes how the microphone should be captured.
type AudioConfig struct {
	SampleRate  int
	Channels    int
	InputFormat string
	InputDevice string
	ChunkSize   int
}

// MediaStream is an open microphone device.
type MediaStream interface {
	// StopTracks releases the device. Safe to call more than once.
	StopTracks() error
}

// MediaDevices grants access to the microphone.
type MediaDevices interface {
	Open(ctx context.Context, cfg AudioConfig) (MediaStream, error)
}

// EncoderProbe answers whether the host can record a given encoding.
type EncoderProbe interface {
	IsTypeSupported(enc domain.EncodingDescriptor) (bool, error)
}

// MediaRecorder encodes a stream into container chunks.
type MediaRecorder interface {
	// Start begins encoding. Chunks arrive in capture order on the returned
	// channel, which is closed once the recorder has finalized.
	Start(ctx context.Context) (<-chan []byte, error)
	// Stop signals the recorder to finalize; it does not wait for it.
	Stop() error
	// Err reports an abnormal recorder exit once the chunk channel is
	// closed, or nil.
	Err() error
}

// RecorderFactory builds a recorder for a stream. An empty MIMEType asks for
// the platform default encoding.
type RecorderFactory interface {
	NewRecorder(stream MediaStream, enc domain.EncodingDescriptor) (MediaRecorder, error)
}

// VoiceAPI is the remote ASR/Chat/TTS contract.
type VoiceAPI interface {
	Transcribe(ctx context.Context, rec domain.Recording) (domain.TranscriptionResponse, error)
	Chat(ctx context.Context, req domain.ChatRequest) (domain.ChatResponse, error)
	Synthesize(ctx context.Context, req domain.SynthesisRequest) ([]byte, string, error)
}

// LogSink is the append-only user-visible log.
type LogSink interface {
	Append(line string)
}

// PlaybackSink plays synthesized replies.
type PlaybackSink interface {
	Play(ctx context.Context, audio domain.AudioResource) error
}

// CaptureObserver receives capture state transitions.
type CaptureObserver interface {
	CaptureStateChanged(state domain.CaptureState)
}
