package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/bitrise-io/go-bynder/upload"
)

// ContentSHA256Header carries the checksum of a single chunk.
const ContentSHA256Header = "Content-SHA256"

type prepareUploadResponse struct {
	FileID string `json:"file_id"`
}

// Prepare ...
func (c *Client) Prepare(ctx context.Context) (string, error) {
	var response prepareUploadResponse
	err := c.Send(ctx, Request{
		Method: http.MethodPost,
		Path:   "/v7/file_cmds/upload/prepare",
	}, &response)
	if err != nil {
		return "", err
	}
	if response.FileID == "" {
		return "", fmt.Errorf("prepare upload: response has no file ID")
	}
	return response.FileID, nil
}

// UploadChunk ...
func (c *Client) UploadChunk(ctx context.Context, fileID string, index int, sha256 string, data []byte) error {
	return c.Send(ctx, Request{
		Method:  http.MethodPost,
		Path:    fmt.Sprintf("/v7/file_cmds/upload/%s/chunk/%d", url.PathEscape(fileID), index),
		Headers: map[string]string{ContentSHA256Header: sha256},
		Body:    nonNilBody(data),
	}, nil)
}

// Finalize ...
func (c *Client) Finalize(ctx context.Context, req upload.FinalizeRequest) error {
	form := url.Values{}
	form.Set("chunksCount", strconv.Itoa(req.ChunksCount))
	form.Set("filename", req.FileName)
	form.Set("fileSize", strconv.FormatInt(req.FileSize, 10))
	form.Set("sha256", req.SHA256)

	return c.Send(ctx, Request{
		Method: http.MethodPost,
		Path:   fmt.Sprintf("/v7/file_cmds/upload/%s/finalise_api", url.PathEscape(req.FileID)),
		Form:   form,
	}, nil)
}

// SaveMedia ...
func (c *Client) SaveMedia(ctx context.Context, fileID string, meta upload.Metadata) (upload.SaveResult, error) {
	var result upload.SaveResult
	err := c.Send(ctx, Request{
		Method: http.MethodPost,
		Path:   fmt.Sprintf("/api/v4/media/save/%s", url.PathEscape(fileID)),
		Form:   EncodeMetadata(meta),
	}, &result)
	return result, err
}

// SaveMediaVersion ...
func (c *Client) SaveMediaVersion(ctx context.Context, mediaID, fileID string) (upload.SaveResult, error) {
	var result upload.SaveResult
	err := c.Send(ctx, Request{
		Method: http.MethodPost,
		Path:   fmt.Sprintf("/api/v4/media/%s/save/%s", url.PathEscape(mediaID), url.PathEscape(fileID)),
	}, &result)
	return result, err
}

// a nil body would be sent as a request without content
func nonNilBody(data []byte) []byte {
	if data == nil {
		return []byte{}
	}
	return data
}

var _ upload.Transport = (*Client)(nil)
