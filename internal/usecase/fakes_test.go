package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"voiceptt/internal/domain"
	"voiceptt/internal/ports"
)

type fakeLogSink struct {
	mu    sync.Mutex
	lines []string
}

func (f *fakeLogSink) Append(line string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lines = append(f.lines, line)
}

func (f *fakeLogSink) snapshot() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.lines))
	copy(out, f.lines)
	return out
}

func (f *fakeLogSink) contains(substr string) bool {
	for _, line := range f.snapshot() {
		if strings.Contains(line, substr) {
			return true
		}
	}
	return false
}

type fakeStatusError struct {
	status int
	body   string
}

func (e *fakeStatusError) Error() string        { return fmt.Sprintf("HTTP %d", e.status) }
func (e *fakeStatusError) StatusCode() int      { return e.status }
func (e *fakeStatusError) ResponseBody() string { return e.body }

type fakeVoiceAPI struct {
	mu sync.Mutex

	transcript    domain.TranscriptionResponse
	transcribeErr error
	chat          []domain.ChatResponse
	chatErr       error
	audio         []byte
	audioType     string
	synthErr      error

	transcribed []domain.Recording
	chatReqs    []domain.ChatRequest
	synthReqs   []domain.SynthesisRequest
}

func (f *fakeVoiceAPI) Transcribe(ctx context.Context, rec domain.Recording) (domain.TranscriptionResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transcribed = append(f.transcribed, rec)
	if err := ctx.Err(); err != nil {
		return domain.TranscriptionResponse{}, err
	}
	if f.transcribeErr != nil {
		return domain.TranscriptionResponse{}, f.transcribeErr
	}
	return f.transcript, nil
}

func (f *fakeVoiceAPI) Chat(_ context.Context, req domain.ChatRequest) (domain.ChatResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if req.SessionID != nil {
		sid := *req.SessionID
		req.SessionID = &sid
	}
	f.chatReqs = append(f.chatReqs, req)
	if f.chatErr != nil {
		return domain.ChatResponse{}, f.chatErr
	}
	if len(f.chat) == 0 {
		return domain.ChatResponse{}, errors.New("no chat response configured")
	}
	resp := f.chat[0]
	if len(f.chat) > 1 {
		f.chat = f.chat[1:]
	}
	return resp, nil
}

func (f *fakeVoiceAPI) Synthesize(_ context.Context, req domain.SynthesisRequest) ([]byte, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.synthReqs = append(f.synthReqs, req)
	if f.synthErr != nil {
		return nil, "", f.synthErr
	}
	return f.audio, f.audioType, nil
}

func (f *fakeVoiceAPI) calls() (transcribe, chat, synth int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.transcribed), len(f.chatReqs), len(f.synthReqs)
}

type fakePlayer struct {
	mu     sync.Mutex
	played []domain.AudioResource
	err    error
}

func (f *fakePlayer) Play(_ context.Context, audio domain.AudioResource) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.played = append(f.played, audio)
	return f.err
}

func (f *fakePlayer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.played)
}

type fakeStream struct {
	mu        sync.Mutex
	stopCalls int
	stopErr   error
}

func (f *fakeStream) StopTracks() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopCalls++
	return f.stopErr
}

func (f *fakeStream) stops() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopCalls
}

type fakeDevices struct {
	mu      sync.Mutex
	streams []*fakeStream
	err     error
	calls   int
}

func (f *fakeDevices) Open(_ context.Context, _ ports.AudioConfig) (ports.MediaStream, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if f.calls >= len(f.streams) {
		return nil, errors.New("no stream configured")
	}
	stream := f.streams[f.calls]
	f.calls++
	return stream, nil
}

// fakeRecorder emits its scripted chunks on Start and finalizes on Stop or
// when its Start context is cancelled.
type fakeRecorder struct {
	chunks   [][]byte
	startErr error
	stopErr  error
	exitErr  error

	mu        sync.Mutex
	out       chan []byte
	stopCalls int
	closed    bool
}

func (f *fakeRecorder) Start(ctx context.Context) (<-chan []byte, error) {
	if f.startErr != nil {
		return nil, f.startErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.out = make(chan []byte, len(f.chunks)+1)
	for _, chunk := range f.chunks {
		f.out <- chunk
	}
	go func() {
		<-ctx.Done()
		f.finish()
	}()
	return f.out, nil
}

func (f *fakeRecorder) Err() error {
	return f.exitErr
}

func (f *fakeRecorder) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopCalls++
	if f.stopErr != nil {
		return f.stopErr
	}
	f.finishLocked()
	return nil
}

// finish simulates the recorder ending on its own.
func (f *fakeRecorder) finish() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finishLocked()
}

func (f *fakeRecorder) finishLocked() {
	if f.out != nil && !f.closed {
		close(f.out)
		f.closed = true
	}
}

func (f *fakeRecorder) stops() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopCalls
}

type fakeRecorderFactory struct {
	mu        sync.Mutex
	recorders []*fakeRecorder
	encodings []domain.EncodingDescriptor
	err       error
}

func (f *fakeRecorderFactory) NewRecorder(_ ports.MediaStream, enc domain.EncodingDescriptor) (ports.MediaRecorder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.encodings = append(f.encodings, enc)
	if f.err != nil {
		return nil, f.err
	}
	if len(f.recorders) == 0 {
		return nil, errors.New("no recorder configured")
	}
	recorder := f.recorders[0]
	f.recorders = f.recorders[1:]
	return recorder, nil
}

type fakePicker struct {
	enc domain.EncodingDescriptor
	ok  bool
}

func (f fakePicker) PickEncoding() (domain.EncodingDescriptor, bool) {
	return f.enc, f.ok
}

// blockingPipeline holds Run until unblock is closed.
type blockingPipeline struct {
	started chan struct{}
	unblock chan struct{}
	runs    int
	mu      sync.Mutex
}

func (b *blockingPipeline) Run(ctx context.Context, _ domain.Recording, release func()) domain.PipelineResult {
	defer release()
	b.mu.Lock()
	b.runs++
	if b.runs == 1 {
		close(b.started)
	}
	b.mu.Unlock()
	select {
	case <-b.unblock:
	case <-ctx.Done():
	}
	return domain.PipelineResult{}
}

type fakeObserver struct {
	mu     sync.Mutex
	states []domain.CaptureState
}

func (f *fakeObserver) CaptureStateChanged(state domain.CaptureState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states = append(f.states, state)
}

func (f *fakeObserver) snapshot() []domain.CaptureState {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.CaptureState, len(f.states))
	copy(out, f.states)
	return out
}
