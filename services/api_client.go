package services

import (
	"assetmap/models"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// APIClient - 텔레메트리 서버 REST 클라이언트 (메타데이터, 통계)
type APIClient struct {
	BaseURL    string
	httpClient *http.Client
}

func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// FetchDescriptors calls GET /api/objects.
func (c *APIClient) FetchDescriptors(ctx context.Context) ([]models.AssetDescriptor, error) {
	var out []models.AssetDescriptor
	if err := c.getJSON(ctx, "/api/objects", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchStats calls GET /api/stats.
func (c *APIClient) FetchStats(ctx context.Context) (models.SystemStats, error) {
	var out models.SystemStats
	err := c.getJSON(ctx, "/api/stats", &out)
	return out, err
}

func (c *APIClient) getJSON(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: unexpected status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("GET %s: decode: %w", path, err)
	}
	return nil
}
