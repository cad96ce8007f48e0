package openai

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

// Embedding is one named vector produced from a text fragment.
type Embedding struct {
	Vector    []float64 `json:"vector"`
	Dimension int       `json:"dimension"`
	TextHash  string    `json:"text_hash,omitempty"`
}

// InsightContext is the condensed video context the chat model summarizes.
type InsightContext struct {
	VideoName       string   `json:"video_name"`
	DurationMinutes float64  `json:"duration_minutes"`
	FileSizeMB      float64  `json:"file_size_mb"`
	Transcript      string   `json:"transcript"`
	Topics          []string `json:"topics"`
	Labels          []string `json:"labels"`
}

// VideoInsights is the generated summary payload.
type VideoInsights struct {
	Summary        string   `json:"summary"`
	KeyTakeaways   []string `json:"key_takeaways"`
	ContentType    string   `json:"content_type"`
	TargetAudience string   `json:"target_audience"`
}

// Client calls an OpenAI-compatible deployment for embeddings and chat insights.
type Client struct {
	endpoint            string
	apiKey              string
	apiVersion          string
	embeddingDeployment string
	chatDeployment      string
	httpClient          *http.Client
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

// New creates an OpenAI client bound to one embedding and one chat deployment.
func New(endpoint, apiKey, apiVersion, embeddingDeployment, chatDeployment string, opts ...Option) (*Client, error) {
	endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "/")
	if endpoint == "" {
		return nil, errors.New("openai endpoint required")
	}
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("openai api key required")
	}
	client := &Client{
		endpoint:            endpoint,
		apiKey:              apiKey,
		apiVersion:          strings.TrimSpace(apiVersion),
		embeddingDeployment: strings.TrimSpace(embeddingDeployment),
		chatDeployment:      strings.TrimSpace(chatDeployment),
		httpClient:          &http.Client{Timeout: 2 * time.Minute},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

type embeddingsRequest struct {
	Input []string `json:"input"`
}

type embeddingsResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

// GenerateEmbeddings produces one vector per named text fragment. Empty
// fragments are skipped; the result maps fragment name to its embedding.
func (c *Client) GenerateEmbeddings(ctx context.Context, texts map[string]string) (map[string]Embedding, error) {
	names := make([]string, 0, len(texts))
	inputs := make([]string, 0, len(texts))
	for name, text := range texts {
		if strings.TrimSpace(text) == "" {
			continue
		}
		names = append(names, name)
		inputs = append(inputs, text)
	}
	if len(inputs) == 0 {
		return nil, services.Wrap(services.ErrValidation, "", "embeddings", "no text content to embed", nil)
	}

	var resp embeddingsResponse
	path := fmt.Sprintf("/openai/deployments/%s/embeddings", url.PathEscape(c.embeddingDeployment))
	if err := c.post(ctx, path, embeddingsRequest{Input: inputs}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) != len(inputs) {
		return nil, services.Wrap(services.ErrExternalService, "", "embeddings",
			fmt.Sprintf("expected %d vectors, got %d", len(inputs), len(resp.Data)), nil)
	}

	result := make(map[string]Embedding, len(names))
	for _, item := range resp.Data {
		if item.Index < 0 || item.Index >= len(names) {
			return nil, services.Wrap(services.ErrExternalService, "", "embeddings", "vector index out of range", nil)
		}
		result[names[item.Index]] = Embedding{Vector: item.Embedding, Dimension: len(item.Embedding)}
	}
	return result, nil
}

type chatRequest struct {
	Messages []chatMessage `json:"messages"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// GenerateVideoInsights asks the chat deployment for a structured summary of
// the analyzed video.
func (c *Client) GenerateVideoInsights(ctx context.Context, insightCtx InsightContext) (*VideoInsights, error) {
	contextJSON, err := json.Marshal(insightCtx)
	if err != nil {
		return nil, fmt.Errorf("marshal insight context: %w", err)
	}

	req := chatRequest{
		Messages: []chatMessage{
			{Role: "system", Content: "You summarize analyzed videos. Respond with JSON containing summary, key_takeaways, content_type, and target_audience."},
			{Role: "user", Content: string(contextJSON)},
		},
	}
	req.ResponseFormat.Type = "json_object"

	var resp chatResponse
	path := fmt.Sprintf("/openai/deployments/%s/chat/completions", url.PathEscape(c.chatDeployment))
	if err := c.post(ctx, path, req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, services.Wrap(services.ErrExternalService, "", "insights", "empty chat response", nil)
	}

	var insights VideoInsights
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &insights); err != nil {
		return nil, services.Wrap(services.ErrExternalService, "", "insights", "malformed insight payload", err)
	}
	return &insights, nil
}

func (c *Client) post(ctx context.Context, path string, request any, response any) error {
	body, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	endpoint := c.endpoint + path
	if c.apiVersion != "" {
		endpoint += "?api-version=" + url.QueryEscape(c.apiVersion)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("api-key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return services.Wrap(services.ErrExternalService, "", "openai", "request failed", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return services.Wrap(services.ErrExternalService, "", "openai", "read response", err)
	}
	if resp.StatusCode != http.StatusOK {
		detail := strings.TrimSpace(string(payload))
		if len(detail) > 256 {
			detail = detail[:256] + "..."
		}
		return services.Wrap(services.ErrExternalService, "", "openai",
			fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, detail), nil)
	}
	if err := json.Unmarshal(payload, response); err != nil {
		return services.Wrap(services.ErrExternalService, "", "openai", "malformed response", err)
	}
	return nil
}
