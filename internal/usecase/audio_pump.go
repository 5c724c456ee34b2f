package usecase

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"voiceptt/internal/ports"
)

// collectChunks buffers recorder output until the recorder finalizes and
// closes the channel. Empty chunks are dropped here and never buffered.
func collectChunks(chunks <-chan []byte, buffer *chunkBuffer) {
	for chunk := range chunks {
		if len(chunk) == 0 {
			continue
		}
		buffer.Add(chunk)
	}
}

// releaseOnce stops the stream's tracks the first time it is called.
func releaseOnce(stream ports.MediaStream, log ports.LogSink, logger *zap.Logger) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			if err := stream.StopTracks(); err != nil {
				log.Append(fmt.Sprintf("[Warn] Microphone release failed: %v", err))
				logger.Warn("microphone release failed", zap.Error(err))
				return
			}
			logger.Debug("microphone released")
		})
	}
}
