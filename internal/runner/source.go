package runner

import (
	"io"

	"github.com/verte-zerg/keyload/internal/corpus"
)

// SliceSource replays chunks that are already in memory.
type SliceSource struct {
	chunks []corpus.Chunk
	pos    int
}

// NewSliceSource wraps chunks.
func NewSliceSource(chunks []corpus.Chunk) *SliceSource {
	return &SliceSource{chunks: chunks}
}

// Next returns the next chunk or io.EOF.
func (s *SliceSource) Next() (corpus.Chunk, error) {
	if s.pos >= len(s.chunks) {
		return corpus.Chunk{}, io.EOF
	}
	c := s.chunks[s.pos]
	s.pos++
	return c, nil
}

// Len returns the total number of chunks.
func (s *SliceSource) Len() int {
	return len(s.chunks)
}
