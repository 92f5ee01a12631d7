package input

import (
	"context"
	"net/http"

	"github.com/melbahja/got"
)

// HTTPDownloader downloads files with parallel range requests when the server allows it.
type HTTPDownloader struct {
	client *http.Client
}

// NewHTTPDownloader ...
func NewHTTPDownloader(client *http.Client) HTTPDownloader {
	return HTTPDownloader{client: client}
}

// Get ...
func (d HTTPDownloader) Get(ctx context.Context, destination, source string) error {
	downloader := got.New()
	downloader.Client = d.client

	return downloader.Do(got.NewDownload(ctx, source, destination))
}
