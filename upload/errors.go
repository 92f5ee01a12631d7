package upload

import (
	"errors"
	"fmt"
)

// InvalidInputError is returned before any remote call is made when the caller's input cannot be uploaded.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid upload input: %s", e.Reason)
}

var (
	// ErrInvalidChunkSize ...
	ErrInvalidChunkSize = &InvalidInputError{Reason: "chunk size must be greater than zero"}
	// ErrMissingFileName ...
	ErrMissingFileName = &InvalidInputError{Reason: "file name is required when uploading from a stream"}
	// ErrMissingSource ...
	ErrMissingSource = &InvalidInputError{Reason: "no file path or byte source provided"}
)

// Stage names the step of the upload sequence.
type Stage string

// Upload stages, in the order they run.
const (
	StagePrepare     Stage = "prepare"
	StageUploadChunk Stage = "upload_chunk"
	StageFinalize    Stage = "finalize"
	StageCommit      Stage = "commit"
)

// StageError wraps the first failure of an upload together with the stage it happened in.
// The wrapped error is the transport's error, unmodified.
type StageError struct {
	Stage      Stage
	ChunkIndex int
	Err        error
}

func (e *StageError) Error() string {
	if e.Stage == StageUploadChunk {
		return fmt.Sprintf("upload failed at %s (chunk %d): %s", e.Stage, e.ChunkIndex, e.Err)
	}
	return fmt.Sprintf("upload failed at %s: %s", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// FailedStage returns the stage an upload error happened in, if err carries one.
func FailedStage(err error) (Stage, bool) {
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return stageErr.Stage, true
	}
	return "", false
}
