package asset

import (
	"context"
	"fmt"
	"net/http"

	"github.com/melbahja/got"
)

// DownloadMedia resolves the signed URL of the selected file and downloads it to dest.
func (s *Service) DownloadMedia(ctx context.Context, query DownloadMediaQuery, dest string) error {
	s.logger.Debugf("Get download URL")
	fileURL, err := s.GetDownloadFileURL(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to get download URL: %w", err)
	}

	s.logger.Debugf("Download media %s", query.MediaID)
	if err := downloadFile(ctx, s.client.StandardClient(), fileURL, dest); err != nil {
		return fmt.Errorf("failed to download media: %w", err)
	}
	return nil
}

func downloadFile(ctx context.Context, client *http.Client, url string, dest string) error {
	downloader := got.New()
	downloader.Client = client

	return downloader.Do(got.NewDownload(ctx, url, dest))
}
