package upload

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/stretchr/testify/mock"
)

type chunkCall struct {
	fileID string
	index  int
	sha256 string
	size   int
	data   []byte
}

// fakeTransport records every call and fails the configured stage.
type fakeTransport struct {
	mu sync.Mutex

	fileID       string
	failPrepare  error
	failChunkAt  int
	failChunk    error
	failFinalize error
	failCommit   error

	prepareCalls  int
	chunks        []chunkCall
	finalizeCalls []FinalizeRequest
	saved         []Metadata
	savedFileIDs  []string
	versioned     []string
}

func newFakeTransport(fileID string) *fakeTransport {
	return &fakeTransport{fileID: fileID, failChunkAt: -1}
}

func (f *fakeTransport) Prepare(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prepareCalls++
	if f.failPrepare != nil {
		return "", f.failPrepare
	}
	return f.fileID, nil
}

func (f *fakeTransport) UploadChunk(ctx context.Context, fileID string, index int, sha256 string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := make([]byte, len(data))
	copy(copied, data)
	f.chunks = append(f.chunks, chunkCall{fileID: fileID, index: index, sha256: sha256, size: len(data), data: copied})
	if f.failChunk != nil && index == f.failChunkAt {
		return f.failChunk
	}
	return nil
}

func (f *fakeTransport) Finalize(ctx context.Context, req FinalizeRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finalizeCalls = append(f.finalizeCalls, req)
	return f.failFinalize
}

func (f *fakeTransport) SaveMedia(ctx context.Context, fileID string, meta Metadata) (SaveResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, meta)
	f.savedFileIDs = append(f.savedFileIDs, fileID)
	if f.failCommit != nil {
		return SaveResult{}, f.failCommit
	}
	return SaveResult{MediaID: "new-media", Success: true}, nil
}

func (f *fakeTransport) SaveMediaVersion(ctx context.Context, mediaID, fileID string) (SaveResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.versioned = append(f.versioned, mediaID)
	f.savedFileIDs = append(f.savedFileIDs, fileID)
	if f.failCommit != nil {
		return SaveResult{}, f.failCommit
	}
	return SaveResult{MediaID: mediaID, Success: true}, nil
}

func (f *fakeTransport) chunkIndexes() []int {
	indexes := make([]int, 0, len(f.chunks))
	for _, c := range f.chunks {
		indexes = append(indexes, c.index)
	}
	return indexes
}

func (f *fakeTransport) chunkSizes() []int {
	sizes := make([]int, 0, len(f.chunks))
	for _, c := range f.chunks {
		sizes = append(sizes, c.size)
	}
	return sizes
}

// mockTransport is a testify mock of Transport.
type mockTransport struct {
	mock.Mock
}

func (m *mockTransport) Prepare(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *mockTransport) UploadChunk(ctx context.Context, fileID string, index int, sha256 string, data []byte) error {
	args := m.Called(ctx, fileID, index, sha256, data)
	return args.Error(0)
}

func (m *mockTransport) Finalize(ctx context.Context, req FinalizeRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *mockTransport) SaveMedia(ctx context.Context, fileID string, meta Metadata) (SaveResult, error) {
	args := m.Called(ctx, fileID, meta)
	return args.Get(0).(SaveResult), args.Error(1)
}

func (m *mockTransport) SaveMediaVersion(ctx context.Context, mediaID, fileID string) (SaveResult, error) {
	args := m.Called(ctx, mediaID, fileID)
	return args.Get(0).(SaveResult), args.Error(1)
}

// closeTracker wraps a source and counts closed views.
type closeTracker struct {
	ByteSource
	opened int
	closed int
}

func (c *closeTracker) Open() (io.ReadCloser, error) {
	rc, err := c.ByteSource.Open()
	if err != nil {
		return nil, err
	}
	c.opened++
	return &trackedCloser{ReadCloser: rc, onClose: func() { c.closed++ }}, nil
}

type trackedCloser struct {
	io.ReadCloser
	onClose func()
}

func (t *trackedCloser) Close() error {
	t.onClose()
	return t.ReadCloser.Close()
}

var errTransport = errors.New("transport failure")
