package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Ping fetches the demo status string. The status code is not checked: any
// JSON body is accepted, and anything other than an object with a non-empty
// "result" string (arrays and scalars included) is returned serialized in
// full.
func (c *Client) Ping(ctx context.Context) (string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/ping", nil)
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ping request failed: %w", err)
	}
	defer resp.Body.Close()

	var parsed interface{}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("parse ping json failed: %w", err)
	}
	if body, ok := parsed.(map[string]interface{}); ok {
		if result, ok := body["result"].(string); ok && result != "" {
			return result, nil
		}
	}

	serialized, err := json.Marshal(parsed)
	if err != nil {
		return "", fmt.Errorf("serialize ping body failed: %w", err)
	}
	return strings.TrimSpace(string(serialized)), nil
}

// Health calls the backend's probe endpoint and returns its status field.
func (c *Client) Health(ctx context.Context) (string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return "", err
	}
	var parsed struct {
		Status string `json:"status"`
	}
	if err := c.doJSON(req, &parsed); err != nil {
		return "", err
	}
	return parsed.Status, nil
}
