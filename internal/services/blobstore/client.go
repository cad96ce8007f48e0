package blobstore

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"vidflow/internal/services"
)

// Properties captures the blob metadata the metadata stage reads.
type Properties struct {
	SizeBytes    int64
	ContentType  string
	ETag         string
	CreationTime time.Time
	LastModified time.Time
}

// Client reads blob properties from a storage account over HTTP.
type Client struct {
	accountURL string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New creates a blob property client rooted at the storage account URL.
func New(accountURL string, timeout time.Duration, opts ...Option) (*Client, error) {
	accountURL = strings.TrimRight(strings.TrimSpace(accountURL), "/")
	if accountURL == "" {
		return nil, errors.New("blobstore account url required")
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client := &Client{
		accountURL: accountURL,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// GetProperties fetches size, content type, and timestamps for one blob.
func (c *Client) GetProperties(ctx context.Context, container, blob string) (*Properties, error) {
	container = strings.TrimSpace(container)
	blob = strings.TrimSpace(blob)
	if container == "" || blob == "" {
		return nil, services.Wrap(services.ErrValidation, "", "get properties", "container and blob name required", nil)
	}

	endpoint := fmt.Sprintf("%s/%s/%s", c.accountURL, url.PathEscape(container), url.PathEscape(blob))
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build blob request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalService, "", "get properties", "blob request failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, services.Wrap(services.ErrNotFound, "", "get properties", fmt.Sprintf("blob %s/%s not found", container, blob), nil)
	case resp.StatusCode != http.StatusOK:
		return nil, services.Wrap(services.ErrExternalService, "", "get properties", fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	props := &Properties{
		ContentType: resp.Header.Get("Content-Type"),
		ETag:        strings.Trim(resp.Header.Get("ETag"), `"`),
	}
	if raw := resp.Header.Get("Content-Length"); raw != "" {
		if size, err := strconv.ParseInt(raw, 10, 64); err == nil {
			props.SizeBytes = size
		}
	}
	if ts, err := http.ParseTime(resp.Header.Get("Last-Modified")); err == nil {
		props.LastModified = ts.UTC()
	}
	if ts, err := http.ParseTime(resp.Header.Get("x-ms-creation-time")); err == nil {
		props.CreationTime = ts.UTC()
	}
	return props, nil
}
