// Package client provides a Go client for the irisd HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Interface defines the operations irisctl needs against a running daemon.
// Used for testability and mocking in the CLI.
type Interface interface {
	Health() (*HealthStatus, error)
	GetDevices() ([]Device, error)
	SendMotionAlert(payload map[string]any) error
	SetDeviceStatus(deviceType, status string) error
	ClearInterrupts() (int, error)
	PushTranscript(text string) error
	GetLogFilters() (string, []LogFilter, error)
	SetLogFilters(filters []LogFilter) (string, []LogFilter, error)
	SetLogLevel(level string) (string, error)
}

// LogFilter mirrors the daemon's log filter representation.
type LogFilter struct {
	Type        string     `json:"type"`
	Pattern     string     `json:"pattern"`
	Level       string     `json:"level"`
	OutputLevel string     `json:"output_level,omitempty"`
	Enabled     bool       `json:"enabled"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// HealthStatus is the daemon's health report.
type HealthStatus struct {
	Status        string  `json:"status"`
	Service       string  `json:"service"`
	Timestamp     float64 `json:"timestamp"`
	QueueSize     int     `json:"queue_size"`
	DevicesOnline int     `json:"devices_online"`
}

// Device is one entry from the daemon's device registry.
type Device struct {
	Type     string    `json:"type"`
	Name     string    `json:"name"`
	IP       string    `json:"ip"`
	Port     int       `json:"port"`
	Hostname string    `json:"hostname,omitempty"`
	LastSeen time.Time `json:"last_seen"`
	Online   bool      `json:"online"`
	Manual   bool      `json:"manual"`
}

var _ Interface = (*Client)(nil)

// Client represents an HTTP connection to irisd
type Client struct {
	logger  *slog.Logger
	baseURL string
	client  *http.Client
}

// New creates a new client for the daemon at baseURL.
func New(logger *slog.Logger, baseURL string) *Client {
	// Ensure baseURL doesn't have trailing slash
	baseURL = strings.TrimSuffix(baseURL, "/")

	return &Client{
		logger:  logger,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// request performs an HTTP request and decodes the JSON response
func (c *Client) request(method, path string, body any, resp any) error {
	url := c.baseURL + path
	c.logger.Debug("HTTP request", "method", method, "url", url)

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("HTTP request failed", "error", err)
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if httpResp.StatusCode >= 400 {
		c.logger.Error("HTTP error response", "status", httpResp.StatusCode, "body", string(respBody))
		return fmt.Errorf("HTTP error %d: %s", httpResp.StatusCode, string(respBody))
	}

	if resp != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, resp); err != nil {
			c.logger.Error("Failed to decode response", "error", err, "body", string(respBody))
			return fmt.Errorf("failed to decode response: %w", err)
		}
		c.logger.Debug("Received response", "response", resp)
	}

	return nil
}

// Health returns the daemon's health report.
func (c *Client) Health() (*HealthStatus, error) {
	var resp HealthStatus
	if err := c.request("GET", "/api/v1/health", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetDevices returns all known devices in display order.
func (c *Client) GetDevices() ([]Device, error) {
	var resp struct {
		Devices []Device `json:"devices"`
	}
	if err := c.request("GET", "/api/v1/devices", nil, &resp); err != nil {
		return nil, err
	}
	// Ensure we return an empty slice instead of nil
	if resp.Devices == nil {
		return []Device{}, nil
	}
	return resp.Devices, nil
}

// SendMotionAlert queues a motion interrupt with an arbitrary payload.
func (c *Client) SendMotionAlert(payload map[string]any) error {
	if payload == nil {
		payload = map[string]any{}
	}
	return c.request("POST", "/api/v1/interrupts/motion", payload, nil)
}

// SetDeviceStatus queues a device status interrupt. Status must be
// "online" or "offline".
func (c *Client) SetDeviceStatus(deviceType, status string) error {
	body := map[string]any{
		"type":   deviceType,
		"status": status,
	}
	return c.request("POST", "/api/v1/interrupts/device-status", body, nil)
}

// ClearInterrupts drops all pending interrupts and returns how many
// were cleared.
func (c *Client) ClearInterrupts() (int, error) {
	var resp struct {
		Cleared int `json:"cleared"`
	}
	if err := c.request("POST", "/api/v1/interrupts/clear", nil, &resp); err != nil {
		return 0, err
	}
	return resp.Cleared, nil
}

// PushTranscript feeds a transcript line into the daemon's voice pipeline.
func (c *Client) PushTranscript(text string) error {
	body := map[string]any{
		"text": text,
	}
	return c.request("POST", "/api/v1/transcript", body, nil)
}

// GetLogFilters returns the daemon's current log level and active filters.
func (c *Client) GetLogFilters() (string, []LogFilter, error) {
	var resp struct {
		Level   string      `json:"level"`
		Filters []LogFilter `json:"filters"`
	}
	if err := c.request("GET", "/api/v1/logging/filters", nil, &resp); err != nil {
		return "", nil, err
	}
	return resp.Level, resp.Filters, nil
}

// SetLogFilters replaces the daemon's log filters and returns the applied set.
func (c *Client) SetLogFilters(filters []LogFilter) (string, []LogFilter, error) {
	body := map[string]any{
		"filters": filters,
	}
	var resp struct {
		Level   string      `json:"level"`
		Filters []LogFilter `json:"filters"`
	}
	if err := c.request("PUT", "/api/v1/logging/filters", body, &resp); err != nil {
		return "", nil, err
	}
	return resp.Level, resp.Filters, nil
}

// SetLogLevel changes the daemon's log level at runtime.
func (c *Client) SetLogLevel(level string) (string, error) {
	body := map[string]any{
		"level": level,
	}
	var resp struct {
		Level string `json:"level"`
	}
	if err := c.request("PUT", "/api/v1/logging/level", body, &resp); err != nil {
		return "", err
	}
	return resp.Level, nil
}
