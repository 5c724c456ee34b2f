package usecase

import (
	"sync"

	"voiceptt/internal/domain"
	"voiceptt/internal/ports"
)

type activeCapture struct {
	// cancel ends the whole cycle; cancelRecorder only forces the recorder
	// to finalize.
	cancel         func()
	cancelRecorder func()
	stream         ports.MediaStream
	recorder       ports.MediaRecorder
	encoding       domain.EncodingDescriptor
	release        func()

	buffer *chunkBuffer
	done   chan struct{}

	abortMu sync.Mutex
	aborted bool
}

func (a *activeCapture) markAborted() {
	a.abortMu.Lock()
	defer a.abortMu.Unlock()
	a.aborted = true
}

func (a *activeCapture) isAborted() bool {
	a.abortMu.Lock()
	defer a.abortMu.Unlock()
	return a.aborted
}
