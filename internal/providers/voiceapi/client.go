package voiceapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"voiceptt/internal/domain"
)

const DefaultBaseURL = "http://127.0.0.1:8000"

// RequestIDHeader correlates the three stage calls of one pipeline run.
const RequestIDHeader = "X-Request-ID"

// Config controls the remote voice endpoints.
type Config struct {
	BaseURL        string
	TranscribePath string
	ChatPath       string
	SynthesizePath string
}

// StatusError is returned when an endpoint answers with a non-2xx status.
type StatusError struct {
	Endpoint string
	Status   int
	Body     string
}

func (e *StatusError) StatusCode() int {
	return e.Status
}

func (e *StatusError) ResponseBody() string {
	return e.Body
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s HTTP %d", e.Endpoint, e.Status)
	}
	return fmt.Sprintf("%s HTTP %d %s", e.Endpoint, e.Status, e.Body)
}

// Client implements ports.VoiceAPI over plain HTTP. Requests carry no
// timeout of their own; cancellation comes from the caller's context.
type Client struct {
	cfg  Config
	http *http.Client
}

func NewClient(cfg Config, httpClient *http.Client) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.TranscribePath == "" {
		cfg.TranscribePath = "/asr"
	}
	if cfg.ChatPath == "" {
		cfg.ChatPath = "/chat"
	}
	if cfg.SynthesizePath == "" {
		cfg.SynthesizePath = "/tts"
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{cfg: cfg, http: httpClient}
}

// BaseURL returns the resolved endpoint root.
func (c *Client) BaseURL() string {
	return c.cfg.BaseURL
}

func (c *Client) Transcribe(ctx context.Context, rec domain.Recording) (domain.TranscriptionResponse, error) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, rec.Filename()))
	contentType := rec.MIMEType
	if contentType == "" {
		contentType = domain.DefaultMIMEType
	}
	header.Set("Content-Type", contentType)

	part, err := form.CreatePart(header)
	if err != nil {
		return domain.TranscriptionResponse{}, fmt.Errorf("create multipart part: %w", err)
	}
	if _, err := part.Write(rec.Data); err != nil {
		return domain.TranscriptionResponse{}, fmt.Errorf("write multipart part: %w", err)
	}
	if err := form.Close(); err != nil {
		return domain.TranscriptionResponse{}, fmt.Errorf("close multipart body: %w", err)
	}

	resp, err := c.post(ctx, c.cfg.TranscribePath, form.FormDataContentType(), &body)
	if err != nil {
		return domain.TranscriptionResponse{}, err
	}
	defer resp.Body.Close()

	if err := checkStatus("ASR", resp); err != nil {
		return domain.TranscriptionResponse{}, err
	}

	var parsed domain.TranscriptionResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return domain.TranscriptionResponse{}, fmt.Errorf("decode asr response: %w", err)
	}
	return parsed, nil
}

func (c *Client) Chat(ctx context.Context, req domain.ChatRequest) (domain.ChatResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return domain.ChatResponse{}, fmt.Errorf("encode chat request: %w", err)
	}

	resp, err := c.post(ctx, c.cfg.ChatPath, "application/json", bytes.NewReader(payload))
	if err != nil {
		return domain.ChatResponse{}, err
	}
	defer resp.Body.Close()

	if err := checkStatus("Chat", resp); err != nil {
		return domain.ChatResponse{}, err
	}

	var parsed domain.ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return domain.ChatResponse{}, fmt.Errorf("decode chat response: %w", err)
	}
	return parsed, nil
}

// Synthesize returns the reply audio and its content type.
func (c *Client) Synthesize(ctx context.Context, req domain.SynthesisRequest) ([]byte, string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, "", fmt.Errorf("encode tts request: %w", err)
	}

	resp, err := c.post(ctx, c.cfg.SynthesizePath, "application/json", bytes.NewReader(payload))
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if err := checkStatus("TTS", resp); err != nil {
		return nil, "", err
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read tts audio: %w", err)
	}
	return audio, resp.Header.Get("Content-Type"), nil
}

func (c *Client) post(ctx context.Context, path string, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	if id := domain.RunIDFrom(ctx); id != "" {
		req.Header.Set(RequestIDHeader, id)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", path, err)
	}
	return resp, nil
}

func checkStatus(endpoint string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &StatusError{
		Endpoint: endpoint,
		Status:   resp.StatusCode,
		Body:     strings.TrimSpace(string(body)),
	}
}
