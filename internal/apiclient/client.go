// Package apiclient is a thin adapter over net/http for the task backend.
// It issues exactly one request per call and leaves every interpretation of
// the status code to the caller.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"taskboard/internal/logger"

	"github.com/sirupsen/logrus"
)

const (
	ContentTypeJSON      = "application/json"
	ContentTypeMultipart = "multipart/form-data"
)

// Response is the raw backend answer.
type Response struct {
	StatusCode int
	Status     string
	Body       []byte
}

// DecodeJSON unmarshals the response body into v.
func (r *Response) DecodeJSON(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode response body: %w", err)
	}
	return nil
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	log        logrus.FieldLogger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Client) {
		c.log = log
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		log:        logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	return c.do(ctx, http.MethodGet, path, nil, ContentTypeJSON)
}

func (c *Client) PostJSON(ctx context.Context, path string, body any) (*Response, error) {
	return c.doJSON(ctx, http.MethodPost, path, body)
}

func (c *Client) PutJSON(ctx context.Context, path string, body any) (*Response, error) {
	return c.doJSON(ctx, http.MethodPut, path, body)
}

func (c *Client) PostForm(ctx context.Context, path string, form *Form) (*Response, error) {
	return c.doForm(ctx, http.MethodPost, path, form)
}

func (c *Client) PutForm(ctx context.Context, path string, form *Form) (*Response, error) {
	return c.doForm(ctx, http.MethodPut, path, form)
}

func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.do(ctx, http.MethodDelete, path, nil, ContentTypeJSON)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any) (*Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode %s %s body: %w", method, path, err)
	}
	return c.do(ctx, method, path, bytes.NewReader(data), ContentTypeJSON)
}

func (c *Client) doForm(ctx context.Context, method, path string, form *Form) (*Response, error) {
	if form == nil {
		form = NewForm()
	}
	body, contentType, err := form.Encode()
	if err != nil {
		return nil, fmt.Errorf("encode %s %s form: %w", method, path, err)
	}
	return c.do(ctx, method, path, body, contentType)
}

// URL resolves path against the base URL. Absolute URLs pass through.
func (c *Client) URL(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string) (*Response, error) {
	target := c.URL(path)

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, target, err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", ContentTypeJSON)

	requestID := logger.RequestIDFromContext(ctx)
	if requestID != "" {
		req.Header.Set(logger.RequestIDHeader, requestID)
	}

	entry := c.log.WithFields(logrus.Fields{
		"component":  "apiclient",
		"method":     method,
		"url":        target,
		"request_id": requestID,
	})

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		observe(method, "error", start)
		entry.WithError(err).Debug("backend unreachable")
		return nil, fmt.Errorf("%s %s: %w", method, target, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		observe(method, "error", start)
		return nil, fmt.Errorf("read %s %s response: %w", method, target, err)
	}
	observe(method, strconv.Itoa(resp.StatusCode), start)

	out := &Response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       data,
	}

	entry.WithField("status", resp.StatusCode).Debug("backend responded")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return out, &StatusError{
			Method:     method,
			URL:        target,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       data,
		}
	}
	return out, nil
}
