package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"voiceptt/internal/domain"
	"voiceptt/internal/ports"
)

// EncodingPicker chooses the recording encoding.
type EncodingPicker interface {
	PickEncoding() (domain.EncodingDescriptor, bool)
}

// PipelineRunner processes a finalized recording.
type PipelineRunner interface {
	Run(ctx context.Context, rec domain.Recording, release func()) domain.PipelineResult
}

// CaptureSession owns the microphone and the push-to-talk record/stop
// lifecycle. Only one cycle (recording plus its pipeline run) is in flight at
// a time.
type CaptureSession struct {
	devices   ports.MediaDevices
	recorders ports.RecorderFactory
	encodings EncodingPicker
	pipeline  PipelineRunner
	log       ports.LogSink
	observer  ports.CaptureObserver
	logger    *zap.Logger
	audio     ports.AudioConfig

	mu       sync.Mutex
	state    domain.CaptureState
	current  *activeCapture
	lastMIME string
}

// CaptureOption configures a CaptureSession.
type CaptureOption func(*CaptureSession)

func WithCaptureObserver(observer ports.CaptureObserver) CaptureOption {
	return func(c *CaptureSession) {
		c.observer = observer
	}
}

func WithCaptureLogger(logger *zap.Logger) CaptureOption {
	return func(c *CaptureSession) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func NewCaptureSession(
	devices ports.MediaDevices,
	recorders ports.RecorderFactory,
	encodings EncodingPicker,
	pipeline PipelineRunner,
	log ports.LogSink,
	audio ports.AudioConfig,
	opts ...CaptureOption,
) *CaptureSession {
	c := &CaptureSession{
		devices:   devices,
		recorders: recorders,
		encodings: encodings,
		pipeline:  pipeline,
		log:       log,
		logger:    zap.NewNop(),
		audio:     audio,
		state:     domain.CaptureStateIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start requests the microphone and begins recording. ctx bounds the whole
// cycle, including the pipeline run that follows Stop.
func (c *CaptureSession) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.state != domain.CaptureStateIdle {
		state := c.state
		c.mu.Unlock()
		if state == domain.CaptureStateStopping {
			c.log.Append("[Busy] Previous recording is still being processed")
		}
		return domain.ErrCaptureBusy
	}
	c.state = domain.CaptureStateRequesting
	c.mu.Unlock()
	c.notify(domain.CaptureStateRequesting)

	stream, err := c.devices.Open(ctx, c.audio)
	if err != nil {
		permErr := asPermissionError(err)
		c.log.Append(fmt.Sprintf("[MicError] %s - %s (check device/system settings)", permErr.Name, permErr.Message))
		c.logger.Warn("microphone request failed", zap.String("name", permErr.Name), zap.Error(err))
		c.transition(domain.CaptureStateIdle)
		return permErr
	}
	release := releaseOnce(stream, c.log, c.logger)

	enc, ok := c.encodings.PickEncoding()
	if !ok {
		c.log.Append("[Warn] Using default MIME type")
		enc = domain.EncodingDescriptor{}
	}

	recorder, err := c.recorders.NewRecorder(stream, enc)
	if err != nil {
		return c.abortStart(release, nil, err)
	}

	cycleCtx, cancel := context.WithCancel(ctx)
	recorderCtx, cancelRecorder := context.WithCancel(cycleCtx)
	chunks, err := recorder.Start(recorderCtx)
	if err != nil {
		cancelRecorder()
		return c.abortStart(release, cancel, err)
	}

	active := &activeCapture{
		cancel:         cancel,
		cancelRecorder: cancelRecorder,
		stream:   stream,
		recorder: recorder,
		encoding: enc,
		release:  release,
		buffer:   newChunkBuffer(),
		done:     make(chan struct{}),
	}

	c.mu.Lock()
	c.current = active
	c.state = domain.CaptureStateRecording
	c.lastMIME = enc.MIMEType
	c.mu.Unlock()
	c.notify(domain.CaptureStateRecording)

	go c.runCycle(cycleCtx, active, chunks)

	c.logger.Info("recording started", zap.String("mime", enc.MIMEType))
	c.log.Append("[Recording started]")
	return nil
}

// Stop signals the recorder to finalize and returns immediately. It reports
// false and does nothing unless a recording is in progress.
func (c *CaptureSession) Stop() bool {
	c.mu.Lock()
	if c.state != domain.CaptureStateRecording || c.current == nil {
		c.mu.Unlock()
		return false
	}
	active := c.current
	c.state = domain.CaptureStateStopping
	c.mu.Unlock()
	c.notify(domain.CaptureStateStopping)

	if err := active.recorder.Stop(); err != nil {
		c.log.Append(fmt.Sprintf("[Warn] Recorder did not stop cleanly: %v", err))
		c.logger.Warn("recorder stop failed", zap.Error(err))
		// Force finalization; what was captured so far is still uploaded.
		active.cancelRecorder()
	}
	c.log.Append("[Recording stopped]")
	return true
}

// Abort discards the in-progress recording without running the pipeline.
// During a pipeline run it cancels the remaining stages.
func (c *CaptureSession) Abort() error {
	c.mu.Lock()
	active := c.current
	if active == nil {
		c.mu.Unlock()
		return domain.ErrNoActiveCapture
	}
	wasRecording := c.state == domain.CaptureStateRecording
	c.state = domain.CaptureStateStopping
	c.mu.Unlock()
	c.notify(domain.CaptureStateStopping)

	active.markAborted()
	if wasRecording {
		_ = active.recorder.Stop()
	}
	active.cancel()
	return nil
}

// Wait blocks until the current cycle, if any, has finished.
func (c *CaptureSession) Wait(ctx context.Context) error {
	c.mu.Lock()
	active := c.current
	c.mu.Unlock()
	if active == nil {
		return nil
	}
	select {
	case <-active.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Status returns the current capture status.
func (c *CaptureSession) Status() domain.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return domain.Status{
		State:        c.state,
		Active:       c.state != domain.CaptureStateIdle,
		LastMIMEType: c.lastMIME,
	}
}

// ProbeMicrophone opens the microphone and releases it straight away,
// logging whether access was granted.
func (c *CaptureSession) ProbeMicrophone(ctx context.Context) error {
	stream, err := c.devices.Open(ctx, c.audio)
	if err != nil {
		permErr := asPermissionError(err)
		c.log.Append(fmt.Sprintf("[Mic] %s - %s (please allow microphone access)", permErr.Name, permErr.Message))
		return permErr
	}
	if err := stream.StopTracks(); err != nil {
		c.logger.Warn("probe release failed", zap.Error(err))
	}
	c.log.Append("[Mic] Permission granted")
	return nil
}

func (c *CaptureSession) runCycle(ctx context.Context, active *activeCapture, chunks <-chan []byte) {
	defer close(active.done)
	defer c.finishCycle(active)
	defer active.release()
	defer active.cancel()
	defer active.cancelRecorder()

	collectChunks(chunks, active.buffer)

	c.mu.Lock()
	endedEarly := c.state == domain.CaptureStateRecording
	if endedEarly {
		c.state = domain.CaptureStateStopping
	}
	c.mu.Unlock()
	if endedEarly {
		c.notify(domain.CaptureStateStopping)
	}

	if active.isAborted() {
		c.log.Append("[Recording discarded]")
		return
	}

	if err := active.recorder.Err(); err != nil {
		c.log.Append(fmt.Sprintf("[Error] Recorder failed: %v", err))
		c.logger.Error("recorder failed", zap.Int("chunks", active.buffer.Len()), zap.Error(err))
		if active.buffer.Len() == 0 {
			return
		}
	} else if endedEarly {
		c.log.Append("[Warn] Recorder finished before release")
	}

	chunkCount := active.buffer.Len()
	rec := finalizeRecording(active.buffer, active.encoding)
	c.logger.Info("recording finalized", zap.Int("chunks", chunkCount), zap.Int("bytes", rec.Size()))

	result := c.pipeline.Run(ctx, rec, active.release)
	if result.Err != nil {
		c.logger.Debug("pipeline run failed", zap.String("run_id", result.RunID), zap.Error(result.Err))
	}
}

func (c *CaptureSession) finishCycle(active *activeCapture) {
	c.mu.Lock()
	if c.current == active {
		c.current = nil
	}
	c.state = domain.CaptureStateIdle
	c.mu.Unlock()
	c.notify(domain.CaptureStateIdle)
}

func (c *CaptureSession) abortStart(release func(), cancel context.CancelFunc, err error) error {
	if cancel != nil {
		cancel()
	}
	release()
	permErr := &domain.PermissionError{Name: "NotSupportedError", Message: err.Error(), Err: err}
	c.log.Append(fmt.Sprintf("[MicError] %s - %s (check device/system settings)", permErr.Name, permErr.Message))
	c.logger.Warn("recorder start failed", zap.Error(err))
	c.transition(domain.CaptureStateIdle)
	return permErr
}

func (c *CaptureSession) transition(state domain.CaptureState) {
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()
	c.notify(state)
}

func (c *CaptureSession) notify(state domain.CaptureState) {
	if c.observer != nil {
		c.observer.CaptureStateChanged(state)
	}
}

func asPermissionError(err error) *domain.PermissionError {
	var permErr *domain.PermissionError
	if errors.As(err, &permErr) {
		return permErr
	}
	if errors.Is(err, context.Canceled) {
		return &domain.PermissionError{Name: "AbortError", Message: err.Error(), Err: err}
	}
	return &domain.PermissionError{Name: "NotReadableError", Message: err.Error(), Err: err}
}
