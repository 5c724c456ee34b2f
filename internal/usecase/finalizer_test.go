package usecase

import (
	"testing"

	"voiceptt/internal/domain"
)

func TestFinalizeRecordingUsesNegotiatedEncoding(t *testing.T) {
	t.Parallel()

	buffer := newChunkBuffer()
	buffer.Add([]byte("ab"))
	buffer.Add([]byte("cd"))

	rec := finalizeRecording(buffer, domain.EncodingDescriptor{MIMEType: "audio/ogg;codecs=opus", Container: domain.ContainerOgg, Codec: "opus"})
	if string(rec.Data) != "abcd" {
		t.Fatalf("unexpected data: %q", string(rec.Data))
	}
	if rec.MIMEType != "audio/ogg;codecs=opus" || rec.Extension() != "ogg" {
		t.Fatalf("unexpected recording: %+v", rec)
	}
	if buffer.Len() != 0 {
		t.Fatalf("expected buffer cleared")
	}
}

func TestFinalizeRecordingDefaultsToWebM(t *testing.T) {
	t.Parallel()

	buffer := newChunkBuffer()
	buffer.Add([]byte("x"))

	rec := finalizeRecording(buffer, domain.EncodingDescriptor{})
	if rec.MIMEType != domain.DefaultMIMEType || rec.Container != domain.ContainerWebM {
		t.Fatalf("unexpected defaults: %+v", rec)
	}
	if rec.Filename() != "sample.webm" {
		t.Fatalf("unexpected filename: %q", rec.Filename())
	}
}

func TestFinalizeRecordingEmptyBuffer(t *testing.T) {
	t.Parallel()

	rec := finalizeRecording(newChunkBuffer(), domain.EncodingDescriptor{})
	if rec.Size() != 0 {
		t.Fatalf("expected empty recording, got %d bytes", rec.Size())
	}
}
