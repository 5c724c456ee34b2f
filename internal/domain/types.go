package domain

import "strings"

// CaptureState models the push-to-talk recording lifecycle.
type CaptureState string

const (
	CaptureStateIdle       CaptureState = "idle"
	CaptureStateRequesting CaptureState = "requesting"
	CaptureStateRecording  CaptureState = "recording"
	CaptureStateStopping   CaptureState = "stopping"
)

// Container names understood by the recorder.
const (
	ContainerWebM = "webm"
	ContainerOgg  = "ogg"
)

// DefaultMIMEType is used when no candidate encoding is supported.
const DefaultMIMEType = "audio/webm"

// EncodingDescriptor is a recordable container/codec pair.
type EncodingDescriptor struct {
	MIMEType  string `json:"mimeType"`
	Container string `json:"container"`
	Codec     string `json:"codec,omitempty"`
}

// Recording is the assembled audio of one push-to-talk cycle.
type Recording struct {
	Data      []byte
	MIMEType  string
	Container string
}

// Size returns the recording length in bytes.
func (r Recording) Size() int {
	return len(r.Data)
}

// Extension returns the upload filename extension for the recording container.
func (r Recording) Extension() string {
	if r.Container == ContainerOgg || strings.Contains(r.MIMEType, "ogg") {
		return "ogg"
	}
	return "webm"
}

// Filename returns the multipart filename used for transcription uploads.
func (r Recording) Filename() string {
	return "sample." + r.Extension()
}

// TranscriptionResponse is the ASR success body.
type TranscriptionResponse struct {
	Text string `json:"text"`
}

// ChatRequest is the Chat request body. A nil SessionID encodes as null.
type ChatRequest struct {
	SessionID *string `json:"session_id"`
	Text      string  `json:"text"`
}

// ChatResponse is the Chat success body. The reply may arrive under either
// "text" or "reply".
type ChatResponse struct {
	SessionID string `json:"session_id"`
	Text      string `json:"text,omitempty"`
	Reply     string `json:"reply,omitempty"`
}

// ReplyText returns Text, falling back to Reply, then to "".
func (r ChatResponse) ReplyText() string {
	if r.Text != "" {
		return r.Text
	}
	return r.Reply
}

// SynthesisRequest is the TTS request body.
type SynthesisRequest struct {
	Text string `json:"text"`
}

// AudioResource is a playable reply.
type AudioResource struct {
	Data     []byte
	MIMEType string
}

// PipelineResult summarizes one orchestration run. Err is set when a fatal
// stage aborted the run; NonFatal holds a synthesis or playback failure that
// ended the run early without failing it.
type PipelineResult struct {
	RunID      string
	Transcript string
	Reply      string
	Audio      *AudioResource
	Played     bool
	Err        error
	NonFatal   error
}

// Failed reports whether the run aborted on a fatal stage.
func (r PipelineResult) Failed() bool {
	return r.Err != nil
}

// Status summarizes the current capture status.
type Status struct {
	State        CaptureState `json:"state"`
	Active       bool         `json:"active"`
	LastMIMEType string       `json:"lastMimeType,omitempty"`
	Message      string       `json:"message,omitempty"`
}
