package upload

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"

	"github.com/bitrise-io/go-bynder/internal"
)

// ByteSource provides the content of an upload.
// Open may be called more than once; each call returns an independent view from the start of the content.
type ByteSource interface {
	Open() (io.ReadCloser, error)
	Size() (int64, error)
}

// FileSource reads the upload content from a file.
type FileSource struct {
	path string
	os   internal.OsProxy
}

// NewFileSource ...
func NewFileSource(path string) *FileSource {
	return NewFileSourceWithOS(path, internal.RealOS{})
}

// NewFileSourceWithOS creates a FileSource reading through the given file system proxy.
func NewFileSourceWithOS(path string, osProxy internal.OsProxy) *FileSource {
	return &FileSource{path: path, os: osProxy}
}

// Open ...
func (s *FileSource) Open() (io.ReadCloser, error) {
	f, err := s.os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	return f, nil
}

// Size ...
func (s *FileSource) Size() (int64, error) {
	info, err := s.os.Stat(s.path)
	if err != nil {
		return 0, fmt.Errorf("stat file: %w", err)
	}
	if info.IsDir() {
		return 0, fmt.Errorf("%s is a directory", s.path)
	}
	return info.Size(), nil
}

// FileName returns the last element of the source path.
func (s *FileSource) FileName() string {
	return filepath.Base(s.path)
}

// ReadSeekerSource reads the upload content from a caller owned stream.
// Views returned by Open rewind the stream to the position it had when the source was created,
// and closing them leaves the stream open.
type ReadSeekerSource struct {
	rs    io.ReadSeeker
	start int64
}

// NewReadSeekerSource ...
func NewReadSeekerSource(rs io.ReadSeeker) (*ReadSeekerSource, error) {
	start, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("get stream position: %w", err)
	}
	return &ReadSeekerSource{rs: rs, start: start}, nil
}

// Open ...
func (s *ReadSeekerSource) Open() (io.ReadCloser, error) {
	if _, err := s.rs.Seek(s.start, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind stream: %w", err)
	}
	return io.NopCloser(s.rs), nil
}

// Size ...
func (s *ReadSeekerSource) Size() (int64, error) {
	current, err := s.rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, fmt.Errorf("get stream position: %w", err)
	}
	end, err := s.rs.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, fmt.Errorf("seek stream end: %w", err)
	}
	if _, err := s.rs.Seek(current, io.SeekStart); err != nil {
		return 0, fmt.Errorf("restore stream position: %w", err)
	}
	return end - s.start, nil
}

// BytesSource serves the upload content from memory.
type BytesSource struct {
	data []byte
}

// NewBytesSource ...
func NewBytesSource(data []byte) *BytesSource {
	return &BytesSource{data: data}
}

// Open ...
func (s *BytesSource) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(s.data)), nil
}

// Size ...
func (s *BytesSource) Size() (int64, error) {
	return int64(len(s.data)), nil
}
