package usecase

import (
	"sync"

	"github.com/samber/lo"
)

// chunkBuffer holds encoded chunks of one recording in arrival order.
type chunkBuffer struct {
	mu     sync.Mutex
	chunks [][]byte
}

func newChunkBuffer() *chunkBuffer {
	return &chunkBuffer{}
}

func (b *chunkBuffer) Add(chunk []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.chunks = append(b.chunks, chunk)
}

func (b *chunkBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.chunks)
}

// Assemble concatenates the buffered chunks and clears the buffer.
func (b *chunkBuffer) Assemble() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	size := lo.SumBy(b.chunks, func(chunk []byte) int { return len(chunk) })
	out := make([]byte, 0, size)
	for _, chunk := range b.chunks {
		out = append(out, chunk...)
	}
	b.chunks = nil
	return out
}
