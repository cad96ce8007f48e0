package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"vidflow/internal/daemon"
	"vidflow/internal/status"
)

// apiClient talks to the daemon HTTP API.
type apiClient struct {
	base   string
	token  string
	client *http.Client
}

func newAPIClient(addr, token string) *apiClient {
	base := strings.TrimSpace(addr)
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	return &apiClient{
		base:   strings.TrimRight(base, "/"),
		token:  token,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *apiClient) do(ctx context.Context, method, path string, body []byte, into any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("daemon unreachable at %s: %w", c.base, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(payload, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s", apiErr.Error)
		}
		return fmt.Errorf("daemon returned status %d", resp.StatusCode)
	}
	if into == nil {
		return nil
	}
	return json.Unmarshal(payload, into)
}

func (c *apiClient) instanceStatus(ctx context.Context, instanceID string, includeHistory bool) (*status.View, error) {
	path := "/api/instances/" + url.PathEscape(instanceID)
	if includeHistory {
		path += "?include_history=true"
	}
	var view status.View
	if err := c.do(ctx, http.MethodGet, path, nil, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

func (c *apiClient) listInstances(ctx context.Context, limit int) ([]status.View, error) {
	path := "/api/instances"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var response struct {
		Instances []status.View `json:"instances"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &response); err != nil {
		return nil, err
	}
	return response.Instances, nil
}

type submitResponse struct {
	InstanceID string `json:"instance_id"`
	VideoName  string `json:"video_name"`
	Status     string `json:"status"`
	Skipped    bool   `json:"skipped"`
}

func (c *apiClient) submitEvent(ctx context.Context, event []byte) (*submitResponse, error) {
	var response submitResponse
	if err := c.do(ctx, http.MethodPost, "/api/events", event, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

func (c *apiClient) health(ctx context.Context) (*daemon.Status, error) {
	var health daemon.Status
	if err := c.do(ctx, http.MethodGet, "/api/health", nil, &health); err != nil {
		return nil, err
	}
	return &health, nil
}
