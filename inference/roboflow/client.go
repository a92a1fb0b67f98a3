package roboflow

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/nvr-ai/shroomguard/common"
	"github.com/nvr-ai/shroomguard/inference"
	"github.com/pkg/errors"
)

// errorExcerptBytes bounds how much of a failed response body ends up in the error message.
const errorExcerptBytes = 512

// Client posts images to the detection endpoint and decodes its predictions.
type Client struct {
	endpoint *url.URL
	apiKey   string
	maxBody  int64
	http     *http.Client
}

var _ inference.Detector = (*Client)(nil)

// NewClient creates a client from cfg.
//
// Arguments:
//   - cfg: Endpoint, credential and limits.
//
// Returns:
//   - *Client: The client.
//   - error: If the endpoint is missing or not an absolute http(s) URL.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("detection endpoint is not configured")
	}
	endpoint, err := url.Parse(cfg.Endpoint)
	if err != nil {
		return nil, errors.Wrap(err, "invalid detection endpoint")
	}
	if endpoint.Scheme != "http" && endpoint.Scheme != "https" {
		return nil, errors.Errorf("invalid detection endpoint scheme %q", endpoint.Scheme)
	}
	maxBody := cfg.MaxResponseBytes
	if maxBody <= 0 {
		maxBody = DefaultConfig().MaxResponseBytes
	}
	return &Client{
		endpoint: endpoint,
		apiKey:   cfg.APIKey,
		maxBody:  maxBody,
		http:     &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// requestURL returns the endpoint with the credential added to its query.
func (c *Client) requestURL() string {
	u := *c.endpoint
	q := u.Query()
	q.Set("api_key", c.apiKey)
	u.RawQuery = q.Encode()
	return u.String()
}

// Detect sends the image read from r as the multipart field "file" and returns the decoded
// response. No local validation of the image is done; rejections come from the service.
//
// Arguments:
//   - ctx: Bounds the outbound request.
//   - name: File name reported to the service; only its base name is sent.
//   - r: The image bytes.
//
// Returns:
//   - *inference.PredictionSet: The decoded response.
//   - error: A *common.TransportError when the exchange fails, the service answers with a
//     non-2xx status, or the body is not valid JSON.
func (c *Client) Detect(ctx context.Context, name string, r io.Reader) (*inference.PredictionSet, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", filepath.Base(name))
	if err != nil {
		return nil, common.NewTransportError("create form file", 0, err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, common.NewTransportError("copy image data", 0, err)
	}
	if err := writer.Close(); err != nil {
		return nil, common.NewTransportError("close multipart body", 0, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.requestURL(), body)
	if err != nil {
		return nil, common.NewTransportError("create request", 0, err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, common.NewTransportError("send request", 0, redact(err, c.apiKey))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, errorExcerptBytes))
		return nil, common.NewTransportError("detection request", resp.StatusCode,
			errors.Errorf("%s: %s", http.StatusText(resp.StatusCode), strings.TrimSpace(string(excerpt))))
	}

	var set inference.PredictionSet
	if err := json.NewDecoder(io.LimitReader(resp.Body, c.maxBody)).Decode(&set); err != nil {
		return nil, common.NewTransportError("decode response", resp.StatusCode, err)
	}
	return &set, nil
}

// Health checks that the endpoint answers at all. Any HTTP response, including an error status for
// the bare GET, counts as reachable.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint.String(), nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return redact(err, c.apiKey)
	}
	resp.Body.Close()
	return nil
}

// redact strips the query, which carries the credential, from transport errors that embed the
// request URL. Any remaining occurrence of the key, raw or query-escaped, is masked too.
func redact(err error, apiKey string) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		err = &url.Error{Op: urlErr.Op, URL: stripQuery(urlErr.URL), Err: urlErr.Err}
	}
	if apiKey == "" {
		return err
	}
	msg := err.Error()
	masked := msg
	for _, form := range []string{apiKey, url.QueryEscape(apiKey), url.PathEscape(apiKey)} {
		masked = strings.ReplaceAll(masked, form, "REDACTED")
	}
	if masked == msg {
		return err
	}
	return errors.New(masked)
}

func stripQuery(rawURL string) string {
	if i := strings.IndexByte(rawURL, '?'); i >= 0 {
		return rawURL[:i]
	}
	return rawURL
}
