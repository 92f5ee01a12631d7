package asset

import (
	"context"

	"github.com/bitrise-io/go-bynder/upload"
)

// UploadFileToNewAsset uploads the file at path as a new asset.
// meta.MediaID is ignored, use UploadFileToExistingAsset to add a version.
func (s *Service) UploadFileToNewAsset(ctx context.Context, path string, meta upload.Metadata) (SaveResult, error) {
	meta.MediaID = ""
	return s.uploader.UploadFile(ctx, path, meta)
}

// UploadFileToExistingAsset uploads the file at path as a new version of the mediaID asset.
func (s *Service) UploadFileToExistingAsset(ctx context.Context, path, mediaID string) (SaveResult, error) {
	if err := requireField("media ID", mediaID); err != nil {
		return SaveResult{}, err
	}
	return s.uploader.UploadFile(ctx, path, upload.Metadata{MediaID: mediaID})
}

// UploadSourceToNewAsset uploads the content of src as a new asset; meta.FileName is required.
func (s *Service) UploadSourceToNewAsset(ctx context.Context, src upload.ByteSource, meta upload.Metadata) (SaveResult, error) {
	meta.MediaID = ""
	return s.uploader.UploadSource(ctx, src, meta)
}

// UploadSourceToExistingAsset uploads the content of src as a new version of the mediaID asset.
func (s *Service) UploadSourceToExistingAsset(ctx context.Context, src upload.ByteSource, fileName, mediaID string) (SaveResult, error) {
	if err := requireField("media ID", mediaID); err != nil {
		return SaveResult{}, err
	}
	return s.uploader.UploadSource(ctx, src, upload.Metadata{FileName: fileName, MediaID: mediaID})
}
