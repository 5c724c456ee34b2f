// Package logsink provides ports.LogSink implementations for the user-visible
// activity log.
package logsink

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"

	"voiceptt/internal/ports"
)

// ZapTee mirrors every appended line into zap before forwarding it.
type ZapTee struct {
	logger *zap.Logger
	next   ports.LogSink
}

func NewZapTee(logger *zap.Logger, next ports.LogSink) *ZapTee {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapTee{logger: logger, next: next}
}

func (t *ZapTee) Append(line string) {
	t.logger.Info("activity", zap.String("line", line), zap.String("kind", lineKind(line)))
	if t.next != nil {
		t.next.Append(line)
	}
}

// Writer appends each line, newline terminated, to an io.Writer.
type Writer struct {
	mu  sync.Mutex
	out io.Writer
}

func NewWriter(out io.Writer) *Writer {
	return &Writer{out: out}
}

func (w *Writer) Append(line string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, _ = fmt.Fprintln(w.out, line)
}

// Func adapts a plain function to ports.LogSink.
type Func func(line string)

func (f Func) Append(line string) {
	f(line)
}

// lineKind extracts the bracketed tag of a log line ("Error" for
// "[Error] ASR HTTP 500"), or "message" for untagged lines.
func lineKind(line string) string {
	if !strings.HasPrefix(line, "[") {
		return "message"
	}
	end := strings.IndexByte(line, ']')
	if end <= 1 {
		return "message"
	}
	tag := line[1:end]
	if i := strings.IndexByte(tag, ' '); i > 0 {
		tag = tag[:i]
	}
	return tag
}
