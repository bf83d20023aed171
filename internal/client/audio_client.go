package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tracklab/studio-api/internal/config"
)

// SectionAnalyzer defines the interface for structural audio analysis
type SectionAnalyzer interface {
	AnalyzeSections(ctx context.Context, req *AnalyzeRequest) (*AnalyzeResponse, error)
	HealthCheck(ctx context.Context) error
	IsConfigured() bool
}

// AudioClient implements SectionAnalyzer against the analysis microservice
type AudioClient struct {
	httpClient *http.Client
	baseURL    string
}

// AnalyzeRequest asks the analysis service to detect structural sections
// and transcribe lyrics for an audio file.
type AnalyzeRequest struct {
	AudioURL         string `json:"audio_url"`
	TranscribeLyrics bool   `json:"transcribe_lyrics,omitempty"`
}

// DetectedSection is one structural unit with its time bounds
type DetectedSection struct {
	Label     string  `json:"label"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
	Lyrics    string  `json:"lyrics,omitempty"`
}

// AnalyzeResponse carries the detected sections
type AnalyzeResponse struct {
	Sections []DetectedSection `json:"sections"`
	Duration float64           `json:"duration,omitempty"`
}

// NewAudioClient creates a new analysis client
func NewAudioClient(cfg *config.AudioConfig) *AudioClient {
	return &AudioClient{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
		baseURL: cfg.ServiceURL,
	}
}

// AnalyzeSections sends audio to the section detection endpoint
func (c *AudioClient) AnalyzeSections(ctx context.Context, req *AnalyzeRequest) (*AnalyzeResponse, error) {
	var result AnalyzeResponse
	if err := c.post(ctx, "/analyze/sections", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// HealthCheck pings the analysis service
func (c *AudioClient) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("analysis service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("analysis service unhealthy (status %d)", resp.StatusCode)
	}
	return nil
}

// IsConfigured returns true if a service URL is set
func (c *AudioClient) IsConfigured() bool {
	return c.baseURL != ""
}

// post sends a POST request with JSON body and parses the response
func (c *AudioClient) post(ctx context.Context, endpoint string, body interface{}, result interface{}) error {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("analysis service error (status %d): %s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return nil
}
