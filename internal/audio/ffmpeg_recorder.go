package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"sync"

	"voiceptt/internal/domain"
	"voiceptt/internal/ports"
)

// FFMPEGRecorderFactory encodes PCM microphone streams into webm/ogg chunks.
type FFMPEGRecorderFactory struct {
	command string
}

func NewFFMPEGRecorderFactory(command string) *FFMPEGRecorderFactory {
	if command == "" {
		command = "ffmpeg"
	}
	return &FFMPEGRecorderFactory{command: command}
}

func (f *FFMPEGRecorderFactory) NewRecorder(stream ports.MediaStream, enc domain.EncodingDescriptor) (ports.MediaRecorder, error) {
	pcm, ok := stream.(*ffmpegStream)
	if !ok {
		return nil, fmt.Errorf("unsupported media stream %T", stream)
	}
	return &ffmpegRecorder{
		command: f.command,
		source:  pcm,
		args:    encoderArgs(pcm.sampling, enc),
		chunk:   pcm.sampling.ChunkSize,
	}, nil
}

func encoderArgs(sampling ports.AudioConfig, enc domain.EncodingDescriptor) []string {
	container := enc.Container
	if container == "" {
		container = domain.ContainerWebM
	}

	args := []string{
		"-hide_banner",
		"-loglevel", "warning",
		"-f", "s16le",
		"-ar", strconv.Itoa(sampling.SampleRate),
		"-ac", strconv.Itoa(sampling.Channels),
		"-i", "pipe:0",
	}
	if codec := encoderName(enc.Codec); codec != "" {
		args = append(args, "-c:a", codec)
	}
	return append(args, "-f", container, "pipe:1")
}

type ffmpegRecorder struct {
	command string
	source  io.Reader
	args    []string
	chunk   int

	mu      sync.Mutex
	started bool
	stdin   io.WriteCloser

	stopOnce sync.Once
	stopErr  error

	exitErr error
}

func (r *ffmpegRecorder) Start(ctx context.Context) (<-chan []byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return nil, errors.New("recorder already started")
	}

	cmd := exec.CommandContext(ctx, r.command, r.args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create encoder stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create encoder stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start encoder: %w", err)
	}

	r.started = true
	r.stdin = stdin

	go func() {
		_, _ = io.Copy(stdin, r.source)
	}()

	chunks := make(chan []byte, 32)
	go func() {
		defer close(chunks)
		readChunks(stdout, r.chunk, chunks)
		if err := cmd.Wait(); err != nil && ctx.Err() == nil {
			r.mu.Lock()
			r.exitErr = encoderFailure(err, stderr.String())
			r.mu.Unlock()
		}
	}()

	return chunks, nil
}

func (r *ffmpegRecorder) Stop() error {
	r.mu.Lock()
	stdin := r.stdin
	r.mu.Unlock()
	if stdin == nil {
		return errors.New("recorder not started")
	}

	r.stopOnce.Do(func() {
		// The pipe is already closed when the encoder has exited on its own.
		if err := stdin.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			r.stopErr = err
		}
	})
	return r.stopErr
}

// Err reports why the encoder exited abnormally. It is meaningful once the
// chunk channel is closed; cancellation through the Start context is not
// reported.
func (r *ffmpegRecorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.exitErr
}

func encoderFailure(err error, stderr string) error {
	detail := stringsTrimSpaceSafe(stderr)
	if detail == "" {
		return fmt.Errorf("encoder exited: %w", err)
	}
	return fmt.Errorf("encoder exited: %w: %s", err, detail)
}

// readChunks forwards every read from the encoder as one chunk. Reads of zero
// bytes are forwarded too; the consumer decides what to keep.
func readChunks(src io.Reader, chunkSize int, out chan<- []byte) {
	if chunkSize < 256 {
		chunkSize = 4096
	}

	buf := make([]byte, chunkSize)
	for {
		n, err := src.Read(buf)
		if n > 0 || err == nil {
			out <- append([]byte(nil), buf[:n]...)
		}
		if err != nil {
			return
		}
	}
}
