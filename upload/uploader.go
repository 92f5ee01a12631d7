// Package upload implements the chunked file upload of the Bynder API:
// prepare a session, send the content in checksummed chunks, finalize it with the
// whole-file checksum and save it as a new asset or as a new version of an existing one.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/bitrise-io/go-bynder/internal"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/docker/go-units"
)

// Uploader runs uploads against a Transport.
// It holds no per-upload state, so one Uploader can serve concurrent uploads;
// every call allocates its own upload session.
type Uploader struct {
	config    Config
	transport Transport
	logger    log.Logger
	osProxy   internal.OsProxy
}

// New creates a new Uploader with the given configuration.
func New(transport Transport, config Config, logger log.Logger) (*Uploader, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.NewLogger()
	}
	return &Uploader{
		config:    config,
		transport: transport,
		logger:    logger,
		osProxy:   internal.RealOS{},
	}, nil
}

// UploadFile uploads the file at path and saves it as described by meta.
// If meta.FileName is empty, the base name of path is used.
func (u *Uploader) UploadFile(ctx context.Context, path string, meta Metadata) (SaveResult, error) {
	if path == "" {
		return SaveResult{}, ErrMissingSource
	}
	if meta.FileName == "" {
		meta.FileName = filepath.Base(path)
	}
	return u.upload(ctx, NewFileSourceWithOS(path, u.osProxy), meta)
}

// UploadSource uploads the content of src and saves it as described by meta.
// meta.FileName is required, there is no path to derive it from.
func (u *Uploader) UploadSource(ctx context.Context, src ByteSource, meta Metadata) (SaveResult, error) {
	if src == nil {
		return SaveResult{}, ErrMissingSource
	}
	if meta.FileName == "" {
		return SaveResult{}, ErrMissingFileName
	}
	return u.upload(ctx, src, meta)
}

func (u *Uploader) upload(ctx context.Context, src ByteSource, meta Metadata) (SaveResult, error) {
	size, err := src.Size()
	if err != nil {
		return SaveResult{}, fmt.Errorf("get content size: %w", err)
	}

	content, err := src.Open()
	if err != nil {
		return SaveResult{}, fmt.Errorf("open content: %w", err)
	}
	defer u.close(content)

	u.logger.Debugf("Preparing upload of %s (%s)", meta.FileName, units.HumanSizeWithPrecision(float64(size), 3))
	fileID, err := u.transport.Prepare(ctx)
	if err != nil {
		return SaveResult{}, &StageError{Stage: StagePrepare, Err: err}
	}
	u.logger.Debugf("File ID: %s", fileID)

	chunksUploaded, err := u.uploadChunks(ctx, fileID, content, size)
	if err != nil {
		return SaveResult{}, err
	}

	checksum, err := u.checksum(src)
	if err != nil {
		return SaveResult{}, err
	}

	u.logger.Debugf("Finalizing upload: %d chunks, %d bytes, sha256 %s", chunksUploaded, size, checksum)
	err = u.transport.Finalize(ctx, FinalizeRequest{
		FileID:      fileID,
		ChunksCount: chunksUploaded,
		FileName:    meta.FileName,
		FileSize:    size,
		SHA256:      checksum,
	})
	if err != nil {
		return SaveResult{}, &StageError{Stage: StageFinalize, Err: err}
	}

	result, err := u.commit(ctx, fileID, meta)
	if err != nil {
		return SaveResult{}, &StageError{Stage: StageCommit, Err: err}
	}
	u.logger.Debugf("Upload saved, media ID: %s", result.MediaID)

	return result, nil
}

func (u *Uploader) uploadChunks(ctx context.Context, fileID string, content io.Reader, size int64) (int, error) {
	reader, err := NewChunkReader(content, u.config.ChunkSize)
	if err != nil {
		return 0, err
	}

	expectedChunks := ChunkCount(size, u.config.ChunkSize)
	stats := NewStats()

	for {
		if err := ctx.Err(); err != nil {
			return 0, &StageError{Stage: StageUploadChunk, ChunkIndex: reader.ChunksRead(), Err: err}
		}

		chunk, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("read content: %w", err)
		}

		u.logger.Debugf("Uploading chunk %d/%d (%s) [avg=%v]",
			chunk.Index+1, expectedChunks, units.HumanSize(float64(len(chunk.Data))), stats.Average().Round(time.Millisecond))

		start := time.Now()
		if err := u.transport.UploadChunk(ctx, fileID, chunk.Index, SHA256Hex(chunk.Data), chunk.Data); err != nil {
			return 0, &StageError{Stage: StageUploadChunk, ChunkIndex: chunk.Index, Err: err}
		}
		stats.Update(time.Since(start), len(chunk.Data))
	}

	if reader.BytesRead() != size {
		u.logger.Warnf("content size mismatch, expected %d bytes, read %d", size, reader.BytesRead())
	}
	if stats.FinishedCount() > 0 {
		u.logger.Debugf("Uploaded %d chunks in %v (%s/s)",
			stats.FinishedCount(), stats.TotalDuration().Round(time.Millisecond), units.HumanSize(stats.BytesPerSecond()))
	}

	return reader.ChunksRead(), nil
}

// checksum hashes a fresh view of the content, the one used for chunking is already consumed.
func (u *Uploader) checksum(src ByteSource) (string, error) {
	content, err := src.Open()
	if err != nil {
		return "", fmt.Errorf("reopen content for checksum: %w", err)
	}
	defer u.close(content)

	checksum, err := SHA256HexReader(content)
	if err != nil {
		return "", fmt.Errorf("compute content checksum: %w", err)
	}
	return checksum, nil
}

func (u *Uploader) commit(ctx context.Context, fileID string, meta Metadata) (SaveResult, error) {
	if meta.IsNewVersion() {
		u.logger.Debugf("Saving as new version of media %s", meta.MediaID)
		return u.transport.SaveMediaVersion(ctx, meta.MediaID, fileID)
	}
	u.logger.Debugf("Saving as new asset")
	return u.transport.SaveMedia(ctx, fileID, meta)
}

func (u *Uploader) close(c io.Closer) {
	if err := c.Close(); err != nil {
		u.logger.Errorf("failed to close content: %s", err)
	}
}
