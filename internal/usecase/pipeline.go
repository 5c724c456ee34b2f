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

const defaultReplyMIMEType = "audio/mpeg"

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithSessionToken seeds the conversation token sent on the next Converse call.
func WithSessionToken(token string) PipelineOption {
	return func(p *Pipeline) {
		p.session = &token
	}
}

// WithPipelineLogger sets the structured diagnostics logger.
func WithPipelineLogger(logger *zap.Logger) PipelineOption {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// Pipeline runs transcribe → converse → synthesize for one recording and
// owns the conversation session token.
type Pipeline struct {
	api    ports.VoiceAPI
	player ports.PlaybackSink
	log    ports.LogSink
	logger *zap.Logger

	mu      sync.Mutex
	session *string
}

func NewPipeline(api ports.VoiceAPI, player ports.PlaybackSink, log ports.LogSink, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		api:    api,
		player: player,
		log:    log,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SessionToken returns the current conversation token, if any.
func (p *Pipeline) SessionToken() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.session == nil {
		return "", false
	}
	return *p.session, true
}

func (p *Pipeline) currentSession() *string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.session == nil {
		return nil
	}
	token := *p.session
	return &token
}

func (p *Pipeline) setSession(token string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if token == "" {
		p.session = nil
		return
	}
	p.session = &token
}

// Run processes one finalized recording. release is invoked exactly once when
// the run concludes, on every path.
func (p *Pipeline) Run(ctx context.Context, rec domain.Recording, release func()) (result domain.PipelineResult) {
	if release != nil {
		defer release()
	}

	result.RunID = domain.NewRunID()
	ctx = domain.WithRunID(ctx, result.RunID)
	logger := p.logger.With(zap.String("run_id", result.RunID))

	mimeType := rec.MIMEType
	if mimeType == "" {
		mimeType = domain.DefaultMIMEType
	}
	p.log.Append(fmt.Sprintf("[Info] Uploading audio (%s, %d bytes)", mimeType, rec.Size()))
	logger.Info("transcribe", zap.String("mime", mimeType), zap.Int("bytes", rec.Size()), zap.String("filename", rec.Filename()))

	transcript, err := p.api.Transcribe(ctx, rec)
	if err != nil {
		result.Err = p.stageFailed(logger, domain.StageTranscribe, "ASR", err)
		return result
	}
	result.Transcript = transcript.Text
	p.log.Append("User: " + orEmptyMarker(result.Transcript))

	reply, err := p.api.Chat(ctx, domain.ChatRequest{SessionID: p.currentSession(), Text: result.Transcript})
	if err != nil {
		result.Err = p.stageFailed(logger, domain.StageConverse, "Chat", err)
		return result
	}
	p.setSession(reply.SessionID)
	result.Reply = reply.ReplyText()
	logger.Info("converse", zap.String("session_id", reply.SessionID), zap.Int("reply_len", len(result.Reply)))
	p.log.Append("Assistant: " + orEmptyMarker(result.Reply))

	audio, contentType, err := p.api.Synthesize(ctx, domain.SynthesisRequest{Text: result.Reply})
	if err != nil {
		result.NonFatal = p.synthesisFailed(logger, err)
		return result
	}
	if len(audio) == 0 {
		p.log.Append("[Warn] Empty audio from TTS")
		logger.Warn("empty synthesis body")
		return result
	}

	if contentType == "" {
		contentType = defaultReplyMIMEType
	}
	result.Audio = &domain.AudioResource{Data: audio, MIMEType: contentType}

	if err := p.player.Play(ctx, *result.Audio); err != nil {
		result.NonFatal = &domain.StageError{Stage: domain.StagePlayback, Err: err}
		p.log.Append(fmt.Sprintf("[Hint] Playback failed (%v); check the audio output and replay", err))
		logger.Warn("playback failed", zap.Error(err))
		return result
	}
	result.Played = true
	logger.Info("reply played", zap.String("mime", contentType), zap.Int("bytes", len(audio)))
	return result
}

// statusCoder is implemented by transport errors that carry an HTTP status.
type statusCoder interface {
	StatusCode() int
	ResponseBody() string
}

func (p *Pipeline) stageFailed(logger *zap.Logger, stage domain.Stage, endpoint string, err error) error {
	stageErr := newStageError(stage, err)
	if stageErr.Status != 0 {
		p.log.Append(fmt.Sprintf("[Error] %s HTTP %d", endpoint, stageErr.Status))
	} else {
		p.log.Append(fmt.Sprintf("[Error] %s failed: %v", endpoint, err))
	}
	logger.Error("stage failed", zap.String("stage", string(stage)), zap.Int("status", stageErr.Status), zap.Error(err))
	return stageErr
}

func (p *Pipeline) synthesisFailed(logger *zap.Logger, err error) error {
	stageErr := newStageError(domain.StageSynthesize, err)
	if stageErr.Status != 0 {
		line := fmt.Sprintf("[Error] TTS failed: HTTP %d", stageErr.Status)
		if stageErr.Body != "" {
			line += " " + stageErr.Body
		}
		p.log.Append(line)
	} else {
		p.log.Append(fmt.Sprintf("[Error] TTS failed: %v", err))
	}
	logger.Warn("synthesis failed", zap.Int("status", stageErr.Status), zap.Error(err))
	return stageErr
}

func newStageError(stage domain.Stage, err error) *domain.StageError {
	stageErr := &domain.StageError{Stage: stage, Err: err}
	var coded statusCoder
	if errors.As(err, &coded) {
		stageErr.Status = coded.StatusCode()
		stageErr.Body = coded.ResponseBody()
	}
	return stageErr
}

func orEmptyMarker(text string) string {
	if text == "" {
		return "<empty>"
	}
	return text
}
