// Package api sends requests to the Bynder REST API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-io/go-utils/v2/retryhttp"
	"github.com/hashicorp/go-retryablehttp"
)

// Params ...
type Params struct {
	// BaseURL is the portal URL, for example https://portal.getbynder.com
	BaseURL string
	// Token is a permanent token, sent as a bearer token.
	Token string
	// HTTPClient is optional, defaults to go-utils' retryhttp client.
	HTTPClient *retryablehttp.Client
}

// Client sends authenticated requests to one Bynder portal.
type Client struct {
	httpClient  *retryablehttp.Client
	baseURL     string
	accessToken string
	logger      log.Logger
}

// NewClient ...
func NewClient(params Params, logger log.Logger) (*Client, error) {
	if params.BaseURL == "" {
		return nil, fmt.Errorf("API base URL is empty")
	}
	if params.Token == "" {
		return nil, fmt.Errorf("API token is empty")
	}
	if logger == nil {
		logger = log.NewLogger()
	}

	httpClient := params.HTTPClient
	if httpClient == nil {
		httpClient = retryhttp.NewClient(logger)
	}
	// Hand the last response to Send so its status and body end up in an HTTPError
	if httpClient.ErrorHandler == nil {
		httpClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	}

	return &Client{
		httpClient:  httpClient,
		baseURL:     strings.TrimSuffix(params.BaseURL, "/"),
		accessToken: params.Token,
		logger:      logger,
	}, nil
}

// Request describes one API call.
type Request struct {
	Method string
	// Path is relative to the base URL, with a leading slash.
	Path string
	// Query is encoded into the URL.
	Query url.Values
	// Form is sent as an application/x-www-form-urlencoded body.
	Form url.Values
	// Body is sent as a raw binary body. Form and Body are mutually exclusive.
	Body    []byte
	Headers map[string]string
}

// HTTPError is returned when the API answers with a non-2xx status code.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// StandardClient returns a *http.Client backed by the retrying client, for third party downloaders.
func (c *Client) StandardClient() *http.Client {
	return c.httpClient.StandardClient()
}

// Send performs the request and decodes the JSON response into out, unless out is nil.
func (c *Client) Send(ctx context.Context, r Request, out interface{}) error {
	req, err := c.newRequest(ctx, r)
	if err != nil {
		return err
	}

	c.dumpRequest(req, r.Body == nil)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func(body io.ReadCloser) {
		err := body.Close()
		if err != nil {
			c.logger.Warnf("close response body: %s", err)
		}
	}(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return unwrapError(resp)
	}

	if out == nil {
		return nil
	}
	// Some endpoints acknowledge with an empty body
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode %s %s response: %w", r.Method, r.Path, err)
	}

	return nil
}

// dumpRequest logs the request with the access token masked. Binary chunk bodies are never dumped.
func (c *Client) dumpRequest(req *retryablehttp.Request, withBody bool) {
	auth := req.Header.Get("Authorization")
	req.Header.Set("Authorization", "Bearer *****")
	defer req.Header.Set("Authorization", auth)

	dump, err := httputil.DumpRequest(req.Request, withBody)
	if err != nil {
		c.logger.Warnf("error while dumping request: %s", err)
	}
	c.logger.Debugf("Request dump: %s", string(dump))
}

func (c *Client) newRequest(ctx context.Context, r Request) (*retryablehttp.Request, error) {
	if r.Form != nil && r.Body != nil {
		return nil, fmt.Errorf("request to %s has both form and binary body", r.Path)
	}

	u := c.baseURL + r.Path
	if len(r.Query) > 0 {
		u += "?" + r.Query.Encode()
	}

	var body interface{}
	switch {
	case r.Body != nil:
		body = r.Body
	case r.Form != nil:
		body = []byte(r.Form.Encode())
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, r.Method, u, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.accessToken))
	req.Header.Set("Accept", "application/json")
	switch {
	case r.Body != nil:
		req.Header.Set("Content-Type", "application/octet-stream")
		req.ContentLength = int64(len(r.Body))
	case r.Form != nil:
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for k, v := range r.Headers {
		req.Header.Set(k, v)
	}

	return req, nil
}

func unwrapError(resp *http.Response) error {
	errorResp, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return &HTTPError{StatusCode: resp.StatusCode, Body: string(errorResp)}
}
