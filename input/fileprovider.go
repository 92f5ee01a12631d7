// Package input resolves upload paths given as file:// or http(s):// URLs to local files.
package input

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/bitrise-io/go-utils/pathutil"
)

const fileScheme = "file://"

// FileDownloader ...
type FileDownloader interface {
	Get(ctx context.Context, destination, source string) error
}

// IsRemote reports whether source has to be downloaded before it can be uploaded.
func IsRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// FileProvider returns the local path of a source, downloading remote sources into a directory.
type FileProvider struct {
	downloader  FileDownloader
	downloadDir string
}

// NewFileProvider ...
func NewFileProvider(downloader FileDownloader, downloadDir string) FileProvider {
	return FileProvider{
		downloader:  downloader,
		downloadDir: downloadDir,
	}
}

// LocalPath strips the file:// scheme of local sources and downloads http(s) sources.
// Any other source is returned unchanged.
func (p FileProvider) LocalPath(ctx context.Context, source string) (string, error) {
	switch {
	case strings.HasPrefix(source, fileScheme):
		return pathutil.AbsPath(strings.TrimPrefix(source, fileScheme))
	case IsRemote(source):
		return p.download(ctx, source)
	default:
		return source, nil
	}
}

func (p FileProvider) download(ctx context.Context, source string) (string, error) {
	fileName, err := fileNameFromURL(source)
	if err != nil {
		return "", err
	}

	localPath := filepath.Join(p.downloadDir, fileName)
	if err := p.downloader.Get(ctx, localPath, source); err != nil {
		return "", fmt.Errorf("download %s: %w", source, err)
	}
	return localPath, nil
}

func fileNameFromURL(source string) (string, error) {
	u, err := url.Parse(source)
	if err != nil {
		return "", err
	}
	name := path.Base(u.Path)
	if name == "/" || name == "." {
		return "", fmt.Errorf("no file name in %s", source)
	}
	return name, nil
}
