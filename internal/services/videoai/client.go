package videoai

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

// AnalyzeRequest identifies the video to analyze.
type AnalyzeRequest struct {
	VideoURL  string `json:"video_url"`
	VideoName string `json:"video_name"`
}

// Transcript is the speech-to-text portion of an analysis.
type Transcript struct {
	Text       string  `json:"text"`
	Language   string  `json:"language"`
	Confidence float64 `json:"confidence"`
}

// NamedScore is a detected topic or label with a confidence score.
type NamedScore struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// Scene describes one detected scene segment.
type Scene struct {
	Start       float64 `json:"start_seconds"`
	End         float64 `json:"end_seconds"`
	Description string  `json:"description"`
}

// Insights bundles the analyzer output consumed by later stages.
type Insights struct {
	Transcript Transcript   `json:"transcript"`
	Topics     []NamedScore `json:"topics"`
	Labels     []NamedScore `json:"labels"`
	Scenes     []Scene      `json:"scenes"`
}

// Analysis is the full content-understanding response.
type Analysis struct {
	VideoName  string   `json:"video_name"`
	Status     string   `json:"analysis_status"`
	AnalyzedAt string   `json:"analyzed_at"`
	Insights   Insights `json:"insights"`
}

// Client calls the content-understanding analysis service.
type Client struct {
	endpoint   string
	apiKey     string
	apiVersion string
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

// New creates a content-understanding client.
func New(endpoint, apiKey, apiVersion string, opts ...Option) (*Client, error) {
	endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "/")
	if endpoint == "" {
		return nil, errors.New("videoai endpoint required")
	}
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("videoai api key required")
	}
	client := &Client{
		endpoint:   endpoint,
		apiKey:     apiKey,
		apiVersion: strings.TrimSpace(apiVersion),
		httpClient: &http.Client{Timeout: 5 * time.Minute},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Analyze submits a video for content analysis and returns the insights.
func (c *Client) Analyze(ctx context.Context, req AnalyzeRequest) (*Analysis, error) {
	if strings.TrimSpace(req.VideoURL) == "" {
		return nil, services.Wrap(services.ErrValidation, "", "analyze", "video url required", nil)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal analyze request: %w", err)
	}

	endpoint := c.endpoint + "/contentunderstanding/analyzers/video:analyze"
	if c.apiVersion != "" {
		endpoint += "?api-version=" + url.QueryEscape(c.apiVersion)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build analyze request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Ocp-Apim-Subscription-Key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalService, "", "analyze", "analysis request failed", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, services.Wrap(services.ErrExternalService, "", "analyze", "read analysis response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, services.Wrap(services.ErrExternalService, "", "analyze",
			fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, truncate(payload, 256)), nil)
	}

	var analysis Analysis
	if err := json.Unmarshal(payload, &analysis); err != nil {
		return nil, services.Wrap(services.ErrExternalService, "", "analyze", "malformed analysis response", err)
	}
	return &analysis, nil
}

func truncate(b []byte, n int) string {
	s := strings.TrimSpace(string(b))
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
