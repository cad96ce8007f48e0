package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"vidflow/internal/services"
)

// UploadResult reports the outcome of indexing one document.
type UploadResult struct {
	Key        string `json:"key"`
	Succeeded  bool   `json:"status"`
	StatusCode int    `json:"statusCode"`
}

// Client uploads documents to a search index over the REST API.
type Client struct {
	endpoint   string
	apiKey     string
	apiVersion string
	indexName  string
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

// New creates a search index client.
func New(endpoint, apiKey, apiVersion, indexName string, opts ...Option) (*Client, error) {
	endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "/")
	if endpoint == "" {
		return nil, errors.New("search endpoint required")
	}
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("search api key required")
	}
	indexName = strings.TrimSpace(indexName)
	if indexName == "" {
		return nil, errors.New("search index name required")
	}
	client := &Client{
		endpoint:   endpoint,
		apiKey:     apiKey,
		apiVersion: strings.TrimSpace(apiVersion),
		indexName:  indexName,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// IndexName reports the index this client writes to.
func (c *Client) IndexName() string {
	return c.indexName
}

type indexBatch struct {
	Value []map[string]any `json:"value"`
}

type indexResponse struct {
	Value []UploadResult `json:"value"`
}

// UploadDocument upserts one document into the index. The document must carry
// an "id" key.
func (c *Client) UploadDocument(ctx context.Context, document map[string]any) (*UploadResult, error) {
	id, _ := document["id"].(string)
	if strings.TrimSpace(id) == "" {
		return nil, services.Wrap(services.ErrValidation, "", "upload document", "document id required", nil)
	}

	doc := make(map[string]any, len(document)+1)
	for k, v := range document {
		doc[k] = v
	}
	doc["@search.action"] = "mergeOrUpload"

	body, err := json.Marshal(indexBatch{Value: []map[string]any{doc}})
	if err != nil {
		return nil, fmt.Errorf("marshal index batch: %w", err)
	}

	endpoint := fmt.Sprintf("%s/indexes/%s/docs/index", c.endpoint, url.PathEscape(c.indexName))
	if c.apiVersion != "" {
		endpoint += "?api-version=" + url.QueryEscape(c.apiVersion)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build index request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalService, "", "upload document", "index request failed", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, services.Wrap(services.ErrExternalService, "", "upload document", "read index response", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		detail := strings.TrimSpace(string(payload))
		if len(detail) > 256 {
			detail = detail[:256] + "..."
		}
		return nil, services.Wrap(services.ErrExternalService, "", "upload document",
			fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, detail), nil)
	}

	var parsed indexResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return nil, services.Wrap(services.ErrExternalService, "", "upload document", "malformed index response", err)
	}
	if len(parsed.Value) == 0 {
		return nil, services.Wrap(services.ErrExternalService, "", "upload document", "empty index response", nil)
	}
	result := parsed.Value[0]
	if !result.Succeeded {
		return nil, services.Wrap(services.ErrExternalService, "", "upload document",
			fmt.Sprintf("document %s rejected with status %d", result.Key, result.StatusCode), nil)
	}
	return &result, nil
}
