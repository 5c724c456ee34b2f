package usecase

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestCollectChunksDropsEmptyChunks(t *testing.T) {
	t.Parallel()

	chunks := make(chan []byte, 4)
	for _, chunk := range [][]byte{make([]byte, 0), []byte("12345"), nil, []byte("678")} {
		chunks <- chunk
	}
	close(chunks)

	buffer := newChunkBuffer()
	collectChunks(chunks, buffer)
	if buffer.Len() != 2 {
		t.Fatalf("expected zero-length chunks dropped, got %d buffered", buffer.Len())
	}
	if got := string(buffer.Assemble()); got != "12345678" {
		t.Fatalf("unexpected assembly order: %q", got)
	}
}

func TestReleaseOnceStopsTracksOnce(t *testing.T) {
	t.Parallel()

	stream := &fakeStream{}
	release := releaseOnce(stream, &fakeLogSink{}, zap.NewNop())
	release()
	release()
	release()

	if stream.stops() != 1 {
		t.Fatalf("expected one stop, got %d", stream.stops())
	}
}

func TestReleaseOnceLogsFailure(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.WarnLevel)
	stream := &fakeStream{stopErr: errors.New("device gone")}
	log := &fakeLogSink{}
	release := releaseOnce(stream, log, zap.New(core))
	release()
	release()

	if !log.contains("[Warn] Microphone release failed: device gone") {
		t.Fatalf("expected release warning, got %v", log.snapshot())
	}
	if logs.FilterMessage("microphone release failed").Len() != 1 {
		t.Fatalf("expected a single warn entry")
	}
}

func TestChunkBufferAssembleClears(t *testing.T) {
	t.Parallel()

	buffer := newChunkBuffer()
	buffer.Add([]byte("a"))
	buffer.Add([]byte("bc"))
	if got := string(buffer.Assemble()); got != "abc" {
		t.Fatalf("unexpected assembly: %q", got)
	}
	if got := buffer.Assemble(); len(got) != 0 {
		t.Fatalf("expected empty second assembly, got %q", string(got))
	}
}
