// Package corpus splits a text stream into line-aligned chunks.
package corpus

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/klauspost/compress/zstd"
)

// DefaultChunkSize is the default chunk size in characters.
const DefaultChunkSize = 50000

// Chunk is one piece of the corpus.
type Chunk struct {
	ID   int
	Text string
}

// Reader buffers whole lines and emits a chunk once it holds at least size
// characters. Chunks always end on a line boundary except the last one.
type Reader struct {
	r    *bufio.Reader
	size int
	next int
	done bool
}

// NewReader wraps r. A non-positive size selects DefaultChunkSize.
func NewReader(r io.Reader, size int) *Reader {
	if size <= 0 {
		size = DefaultChunkSize
	}
	return &Reader{r: bufio.NewReaderSize(r, 64*1024), size: size}
}

// Next returns the next chunk, or io.EOF when the stream is exhausted.
func (c *Reader) Next() (Chunk, error) {
	if c.done {
		return Chunk{}, io.EOF
	}
	var b strings.Builder
	n := 0
	for n < c.size {
		line, err := c.r.ReadString('\n')
		if line != "" {
			b.WriteString(line)
			n += utf8.RuneCountInString(line)
		}
		if errors.Is(err, io.EOF) {
			c.done = true
			break
		}
		if err != nil {
			return Chunk{}, fmt.Errorf("failed to read corpus: %w", err)
		}
	}
	if b.Len() == 0 {
		return Chunk{}, io.EOF
	}
	chunk := Chunk{ID: c.next, Text: b.String()}
	c.next++
	return chunk, nil
}

// ReadAll drains the reader.
func (c *Reader) ReadAll() ([]Chunk, error) {
	var chunks []Chunk
	for {
		chunk, err := c.Next()
		if errors.Is(err, io.EOF) {
			return chunks, nil
		}
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, chunk)
	}
}

// File is a Reader over a corpus file on disk.
type File struct {
	*Reader
	file    *os.File
	decoder *zstd.Decoder
}

// Open opens path for chunked reading. Files ending in ".zst" are decompressed.
func Open(path string, size int) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open corpus: %w", err)
	}
	out := &File{file: f}
	var src io.Reader = f
	if strings.HasSuffix(path, ".zst") {
		dec, err := zstd.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
		}
		out.decoder = dec
		src = dec
	}
	out.Reader = NewReader(src, size)
	return out, nil
}

// Close releases the file and the decoder.
func (f *File) Close() error {
	if f.decoder != nil {
		f.decoder.Close()
	}
	return f.file.Close()
}

// ReadFile reads every chunk of path.
func ReadFile(path string, size int) ([]Chunk, error) {
	f, err := Open(path, size)
	if err != nil {
		return nil, err
	}
	defer func() {
		// Best-effort close for a read-only file.
		_ = f.Close()
	}()
	return f.ReadAll()
}

// Compress writes src to dest as a zstd stream.
func Compress(dest io.Writer, src io.Reader) error {
	encoder, err := zstd.NewWriter(dest)
	if err != nil {
		return fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	if _, err := io.Copy(encoder, src); err != nil {
		_ = encoder.Close()
		return fmt.Errorf("failed to compress: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("failed to finalize compression: %w", err)
	}
	return nil
}
