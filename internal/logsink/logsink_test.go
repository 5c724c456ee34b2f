package logsink

import (
	"bytes"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapTeeMirrorsAndForwards(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.InfoLevel)
	var forwarded []string
	tee := NewZapTee(zap.New(core), Func(func(line string) { forwarded = append(forwarded, line) }))

	tee.Append("[Error] ASR HTTP 500")
	tee.Append("User: hello")

	if len(forwarded) != 2 || forwarded[0] != "[Error] ASR HTTP 500" {
		t.Fatalf("unexpected forwarded lines: %v", forwarded)
	}
	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected two zap entries, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["kind"]; got != "Error" {
		t.Fatalf("unexpected kind: %v", got)
	}
	if got := entries[1].ContextMap()["kind"]; got != "message" {
		t.Fatalf("unexpected kind: %v", got)
	}
}

func TestZapTeeWithoutNext(t *testing.T) {
	t.Parallel()

	tee := NewZapTee(nil, nil)
	tee.Append("[Recording started]")
}

func TestWriterAppendsLines(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.Append("[Recording started]")
	w.Append("[Recording stopped]")

	if got := buf.String(); got != "[Recording started]\n[Recording stopped]\n" {
		t.Fatalf("unexpected output: %q", got)
	}
}

func TestLineKind(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"[Warn] Using default MIME type": "Warn",
		"[Recording started]":            "Recording",
		"[MicError] NotAllowedError - x": "MicError",
		"Assistant: hi":                  "message",
		"[]":                             "message",
		"[unterminated":                  "message",
	}
	for line, want := range cases {
		if got := lineKind(line); got != want {
			t.Fatalf("lineKind(%q) = %q, want %q", line, got, want)
		}
	}
}
