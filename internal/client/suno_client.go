package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/tracklab/studio-api/internal/config"
)

// MusicGenerator defines the interface for studio generation operations.
// All submissions are asynchronous: the provider returns a task id and
// later reports a terminal status via GetTaskStatus or its callback.
type MusicGenerator interface {
	Generate(ctx context.Context, req *GenerateRequest) (*SubmitResponse, error)
	SeparateStems(ctx context.Context, audioURL string) (*SubmitResponse, error)
	GetTaskStatus(ctx context.Context, taskID string) (*ProviderTaskResult, error)
	PollTaskStatus(ctx context.Context, taskID string, interval, maxWait time.Duration) (*ProviderTaskResult, error)
	IsConfigured() bool
}

// SunoClient implements MusicGenerator for the Suno API
type SunoClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// GenerateRequest covers all prompt-driven operations: replace_section,
// extend, cover, add_vocals, add_instrumental, replace_instrumental.
// SectionStart/SectionEnd bound the edit for replace_section.
type GenerateRequest struct {
	Mode         string   `json:"mode"`
	AudioURL     string   `json:"audio_url"`
	Prompt       string   `json:"prompt,omitempty"`
	Tags         string   `json:"tags,omitempty"`
	Lyrics       string   `json:"lyrics,omitempty"`
	SectionStart *float64 `json:"section_start,omitempty"`
	SectionEnd   *float64 `json:"section_end,omitempty"`
}

// SubmitResponse is the provider's acknowledgement of a submitted task
type SubmitResponse struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
}

// ProviderTaskResult is a provider task's current state. Clips are only
// present on terminal success.
type ProviderTaskResult struct {
	TaskID       string `json:"task_id"`
	Status       string `json:"status"`
	Clips        []Clip `json:"clips,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// Clip is one generated audio variant
type Clip struct {
	ID       string  `json:"id"`
	AudioURL string  `json:"audio_url"`
	Title    string  `json:"title,omitempty"`
	Duration float64 `json:"duration,omitempty"`
}

// NewSunoClient creates a new Suno API client
func NewSunoClient(cfg *config.SunoConfig) *SunoClient {
	return &SunoClient{
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
	}
}

// Generate submits a prompt-driven generation task
func (c *SunoClient) Generate(ctx context.Context, req *GenerateRequest) (*SubmitResponse, error) {
	var result SubmitResponse
	if err := c.post(ctx, "/v1/music/generate", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SeparateStems submits a stem separation task for an audio file
func (c *SunoClient) SeparateStems(ctx context.Context, audioURL string) (*SubmitResponse, error) {
	req := map[string]string{"audio_url": audioURL}
	var result SubmitResponse
	if err := c.post(ctx, "/v1/audio/split-stems", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetTaskStatus retrieves the current state of a provider task
func (c *SunoClient) GetTaskStatus(ctx context.Context, taskID string) (*ProviderTaskResult, error) {
	endpoint := fmt.Sprintf("/v1/tasks/%s", taskID)
	var result ProviderTaskResult
	if err := c.get(ctx, endpoint, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// PollTaskStatus polls until the task reaches a terminal state or maxWait
// elapses
func (c *SunoClient) PollTaskStatus(ctx context.Context, taskID string, interval, maxWait time.Duration) (*ProviderTaskResult, error) {
	deadline := time.Now().Add(maxWait)
	attempt := 0

	for time.Now().Before(deadline) {
		attempt++
		result, err := c.GetTaskStatus(ctx, taskID)
		if err != nil {
			log.Printf("[Suno API] Poll #%d (task=%s) — error: %v", attempt, taskID, err)
			return nil, err
		}

		log.Printf("[Suno API] Poll #%d (task=%s) — status: %s", attempt, taskID, result.Status)

		switch result.Status {
		case "completed", "success":
			return result, nil
		case "failed", "error":
			message := result.ErrorMessage
			if message == "" {
				message = result.Status
			}
			return nil, fmt.Errorf("generation failed: %s", message)
		}

		select {
		case <-ctx.Done():
			log.Printf("[Suno API] Poll (task=%s) — context cancelled", taskID)
			return nil, ctx.Err()
		case <-time.After(interval):
			continue
		}
	}

	return nil, fmt.Errorf("generation timed out after %v", maxWait)
}

// IsConfigured returns true if the client has valid configuration
func (c *SunoClient) IsConfigured() bool {
	return c.apiKey != ""
}

// post sends a POST request with JSON body
func (c *SunoClient) post(ctx context.Context, endpoint string, body interface{}, result interface{}) error {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	return c.doRequest(req, result)
}

// get sends a GET request and parses JSON response
func (c *SunoClient) get(ctx context.Context, endpoint string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	return c.doRequest(req, result)
}

// doRequest executes an HTTP request and parses the response
func (c *SunoClient) doRequest(req *http.Request, result interface{}) error {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	log.Printf("[Suno API] → %s %s", req.Method, req.URL.String())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("[Suno API] ✗ %s %s — request failed: %v", req.Method, req.URL.String(), err)
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("[Suno API] ✗ %s %s — failed to read response: %v", req.Method, req.URL.String(), err)
		return fmt.Errorf("failed to read response: %w", err)
	}

	log.Printf("[Suno API] ← %d %s %s", resp.StatusCode, req.Method, req.URL.String())

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("suno API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		log.Printf("[Suno API] ✗ unmarshal error for %s %s: %v", req.Method, req.URL.String(), err)
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return nil
}
