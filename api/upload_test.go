package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bitrise-io/go-bynder/upload"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Prepare(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v7/file_cmds/upload/prepare", r.URL.Path)
		_, _ = io.WriteString(w, `{"file_id": "f-123"}`)
	})

	fileID, err := client.Prepare(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "f-123", fileID)
}

func TestClient_Prepare_MissingFileID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{}`)
	})

	_, err := client.Prepare(context.Background())

	require.EqualError(t, err, "prepare upload: response has no file ID")
}

func TestClient_UploadChunk(t *testing.T) {
	data := []byte("chunk content")
	sum := upload.SHA256Hex(data)

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v7/file_cmds/upload/f-123/chunk/3", r.URL.Path)
		assert.Equal(t, sum, r.Header.Get(ContentSHA256Header))
		assert.Equal(t, "application/octet-stream", r.Header.Get("Content-Type"))
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Equal(t, data, body)
	})

	err := client.UploadChunk(context.Background(), "f-123", 3, sum, data)

	require.NoError(t, err)
}

func TestClient_Finalize(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v7/file_cmds/upload/f-123/finalise_api", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "3", r.PostForm.Get("chunksCount"))
		assert.Equal(t, "report.pdf", r.PostForm.Get("filename"))
		assert.Equal(t, "12582912", r.PostForm.Get("fileSize"))
		assert.Equal(t, "abcdef", r.PostForm.Get("sha256"))
	})

	err := client.Finalize(context.Background(), upload.FinalizeRequest{
		FileID:      "f-123",
		ChunksCount: 3,
		FileName:    "report.pdf",
		FileSize:    12 * 1024 * 1024,
		SHA256:      "abcdef",
	})

	require.NoError(t, err)
}

func TestClient_SaveMedia(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v4/media/save/f-123", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "brand-1", r.PostForm.Get("brandid"))
		assert.Equal(t, "report.pdf", r.PostForm.Get("name"))
		assert.Equal(t, "a,b", r.PostForm.Get("tags"))
		_, _ = io.WriteString(w, `{"success": true, "mediaid": "m-1", "mediaitems": [{"original_filename": "report.pdf", "mediaid": "m-1"}]}`)
	})

	result, err := client.SaveMedia(context.Background(), "f-123", upload.Metadata{
		BrandID:  "brand-1",
		FileName: "report.pdf",
		Tags:     []string{"a", "b"},
	})

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "m-1", result.MediaID)
	require.Len(t, result.MediaItems, 1)
	assert.Equal(t, "report.pdf", result.MediaItems[0].OriginalFileName)
}

func TestClient_SaveMediaVersion(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v4/media/abc123/save/f-123", r.URL.Path)
		_, _ = io.WriteString(w, `{"success": true, "mediaid": "abc123"}`)
	})

	result, err := client.SaveMediaVersion(context.Background(), "abc123", "f-123")

	require.NoError(t, err)
	assert.Equal(t, "abc123", result.MediaID)
}

// fakeServer records the upload calls it receives.
type fakeServer struct {
	mu        sync.Mutex
	chunks    map[int][]byte
	checksums map[int]string
	finalize  map[string]string
	savedTo   string
}

func (s *fakeServer) handle(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()

		switch {
		case r.URL.Path == "/v7/file_cmds/upload/prepare":
			_, _ = io.WriteString(w, `{"file_id": "f-1"}`)
		case strings.HasPrefix(r.URL.Path, "/v7/file_cmds/upload/f-1/chunk/"):
			var index int
			_, err := fmt.Sscanf(strings.TrimPrefix(r.URL.Path, "/v7/file_cmds/upload/f-1/chunk/"), "%d", &index)
			require.NoError(t, err)
			body, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			s.chunks[index] = body
			s.checksums[index] = r.Header.Get(ContentSHA256Header)
		case r.URL.Path == "/v7/file_cmds/upload/f-1/finalise_api":
			require.NoError(t, r.ParseForm())
			for k := range r.PostForm {
				s.finalize[k] = r.PostForm.Get(k)
			}
		default:
			s.savedTo = r.URL.Path
			_, _ = io.WriteString(w, `{"success": true, "mediaid": "m-1"}`)
		}
	}
}

func TestUploaderOverHTTP(t *testing.T) {
	server := &fakeServer{chunks: map[int][]byte{}, checksums: map[int]string{}, finalize: map[string]string{}}
	client := newTestClient(t, server.handle(t))

	uploader, err := upload.New(client, upload.Config{ChunkSize: 4}, log.NewLogger())
	require.NoError(t, err)

	content := []byte("0123456789")
	result, err := uploader.UploadSource(context.Background(), upload.NewBytesSource(content), upload.Metadata{FileName: "digits.txt"})
	require.NoError(t, err)
	assert.Equal(t, "m-1", result.MediaID)

	require.Len(t, server.chunks, 3)
	var joined []byte
	for i := 0; i < 3; i++ {
		joined = append(joined, server.chunks[i]...)
		assert.Equal(t, upload.SHA256Hex(server.chunks[i]), server.checksums[i])
	}
	assert.True(t, bytes.Equal(content, joined))

	assert.Equal(t, map[string]string{
		"chunksCount": "3",
		"filename":    "digits.txt",
		"fileSize":    "10",
		"sha256":      upload.SHA256Hex(content),
	}, server.finalize)
	assert.Equal(t, "/api/v4/media/save/f-1", server.savedTo)
}

func TestUploaderOverHTTP_FailedChunk(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/v7/file_cmds/upload/prepare":
			_, _ = io.WriteString(w, `{"file_id": "f-1"}`)
		case r.URL.Path == "/v7/file_cmds/upload/f-1/chunk/1":
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, "checksum mismatch")
		case strings.Contains(r.URL.Path, "/chunk/"):
		default:
			t.Errorf("unexpected request: %s", r.URL.Path)
		}
	})

	uploader, err := upload.New(client, upload.Config{ChunkSize: 4}, log.NewLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err = uploader.UploadSource(ctx, upload.NewBytesSource([]byte("0123456789")), upload.Metadata{FileName: "digits.txt"})

	var stageErr *upload.StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, upload.StageUploadChunk, stageErr.Stage)
	assert.Equal(t, 1, stageErr.ChunkIndex)

	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusBadRequest, httpErr.StatusCode)
}
