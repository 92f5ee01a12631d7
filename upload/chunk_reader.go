package upload

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

// Chunk is one contiguous slice of the uploaded content.
type Chunk struct {
	// Index is zero-based and increases by one per chunk.
	Index int
	Data  []byte
}

// ChunkReader splits a stream into fixed size chunks.
// Every chunk holds exactly chunkSize bytes, except the last one which holds the remainder.
// The underlying stream is read forward only; a ChunkReader cannot be restarted.
type ChunkReader struct {
	reader    *bufio.Reader
	chunkSize int64
	nextIndex int
	bytesRead int64
}

// NewChunkReader creates a ChunkReader over r.
func NewChunkReader(r io.Reader, chunkSize int64) (*ChunkReader, error) {
	if chunkSize <= 0 {
		return nil, ErrInvalidChunkSize
	}
	return &ChunkReader{
		reader:    bufio.NewReader(r),
		chunkSize: chunkSize,
	}, nil
}

// HasNext reports whether the stream has unread data.
func (c *ChunkReader) HasNext() (bool, error) {
	_, err := c.reader.Peek(1)
	if errors.Is(err, io.EOF) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("peek stream: %w", err)
	}
	return true, nil
}

// Next returns the next chunk, or io.EOF once the stream is exhausted.
// Segmented reads are absorbed, so a chunk is only shorter than chunkSize at the end of the stream.
func (c *ChunkReader) Next() (Chunk, error) {
	hasNext, err := c.HasNext()
	if err != nil {
		return Chunk{}, err
	}
	if !hasNext {
		return Chunk{}, io.EOF
	}

	buf := make([]byte, c.chunkSize)
	n, err := io.ReadFull(c.reader, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return Chunk{}, fmt.Errorf("read chunk %d: %w", c.nextIndex, err)
	}

	chunk := Chunk{Index: c.nextIndex, Data: buf[:n]}
	c.nextIndex++
	c.bytesRead += int64(n)

	return chunk, nil
}

// ChunksRead returns the number of chunks returned so far.
func (c *ChunkReader) ChunksRead() int {
	return c.nextIndex
}

// BytesRead returns the number of bytes returned so far.
func (c *ChunkReader) BytesRead() int64 {
	return c.bytesRead
}

// ChunkCount returns how many chunks a stream of size bytes is split into.
func ChunkCount(size, chunkSize int64) int {
	if size <= 0 || chunkSize <= 0 {
		return 0
	}
	return int((size + chunkSize - 1) / chunkSize)
}
