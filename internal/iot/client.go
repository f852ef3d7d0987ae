// Package iot is the HTTP client for the ESP32 peripherals. Addresses are
// resolved through the registry at call time, never hardcoded, so a device
// that re-announces on a new IP is picked up without restart.
package iot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/ryunzz/iris/internal/config"
	"github.com/ryunzz/iris/internal/display"
	"github.com/ryunzz/iris/internal/errors"
	"github.com/ryunzz/iris/internal/registry"
)

// statusCacheTTL bounds how long a cached status answer is served before
// the device is asked again.
const statusCacheTTL = 5 * time.Second

type cachedState struct {
	state map[string]any
	at    time.Time
}

// Client talks to peripherals over HTTP. Safe for concurrent use.
type Client struct {
	registry   *registry.Registry
	httpClient *http.Client
	logger     *slog.Logger

	mu    sync.Mutex
	cache map[registry.DeviceType]cachedState
}

// New creates a client. An optional httpClient overrides the default
// (useful for tests); otherwise requests use the given timeout.
func New(reg *registry.Registry, logger *slog.Logger, timeout time.Duration, httpClient ...*http.Client) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = config.DefaultIoTTimeout
	}
	var hc *http.Client
	if len(httpClient) > 0 && httpClient[0] != nil {
		hc = httpClient[0]
	} else {
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{
		registry:   reg,
		httpClient: hc,
		logger:     logger,
		cache:      make(map[registry.DeviceType]cachedState),
	}
}

// SendCommand issues GET http://<device>/<command> and decodes the JSON
// response. A transport or HTTP failure marks the device offline in the
// registry and surfaces as a device-offline error.
func (c *Client) SendCommand(ctx context.Context, t registry.DeviceType, command string) (map[string]any, error) {
	device, err := c.resolve(t)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("http://%s:%d/%s", device.IP, device.Port, command)
	c.logger.Info("iot: sending command", "device", device.Name, "url", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Internalf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.markOffline(t, err)
		return nil, errors.DeviceOfflinef("communication failed with %s: %w", t, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		c.markOffline(t, err)
		return nil, errors.DeviceOfflinef("communication failed with %s: %w", t, err)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.markOffline(t, err)
		return nil, errors.DeviceOfflinef("communication failed with %s: %w", t, err)
	}

	var result map[string]any
	if err := json.Unmarshal(body, &result); err != nil {
		// Shape errors are a failed operation, not an offline device.
		c.logger.Error("iot: malformed response", "device", device.Name, "error", err)
		return nil, errors.Internalf("malformed response from %s: %w", t, err)
	}

	c.updateCache(t, result)
	c.logger.Debug("iot: device responded", "device", device.Name, "response", result)
	return result, nil
}

// GetDeviceStatus returns the device's status, served from a short-lived
// cache when fresh.
func (c *Client) GetDeviceStatus(ctx context.Context, t registry.DeviceType) (map[string]any, error) {
	if cached, ok := c.cachedState(t); ok {
		return cached, nil
	}
	return c.SendCommand(ctx, t, "status")
}

// GetDistanceReading asks the distance sensor for its current reading in
// centimeters.
func (c *Client) GetDistanceReading(ctx context.Context) (int, error) {
	resp, err := c.SendCommand(ctx, registry.DeviceDistance, "distance")
	if err != nil {
		return 0, err
	}
	cm, ok := resp["distance_cm"].(float64)
	if !ok {
		return 0, errors.Internalf("distance response missing distance_cm: %v", resp)
	}
	return int(cm), nil
}

// SendToGlasses pushes display content to the paired glasses. The payload
// is always exactly four lines, each truncated to the display width.
// Failures mark the glasses offline and report false, never an error, since
// the caller treats the remote display as fire-and-forget.
func (c *Client) SendToGlasses(ctx context.Context, lines []string) bool {
	device, err := c.resolve(registry.DeviceGlasses)
	if err != nil {
		c.logger.Warn("iot: glasses not available", "error", err)
		return false
	}

	frame := make([]string, config.DisplayLines)
	for i := range frame {
		if i < len(lines) {
			frame[i] = display.Truncate(lines[i])
		}
	}

	payload, err := json.Marshal(map[string]any{"lines": frame})
	if err != nil {
		c.logger.Error("iot: failed to marshal display payload", "error", err)
		return false
	}

	url := fmt.Sprintf("http://%s:%d/display", device.IP, device.Port)
	c.logger.Info("iot: sending display", "device", device.Name, "lines", frame)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.markOffline(registry.DeviceGlasses, err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.markOffline(registry.DeviceGlasses, fmt.Errorf("unexpected status code: %d", resp.StatusCode))
		return false
	}

	var result struct {
		Success *bool `json:"success"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false
	}
	return result.Success == nil || *result.Success
}

// Ping checks a device's /health endpoint. Unlike SendCommand a failed
// ping does not mark the device offline; discovery staleness handles that.
func (c *Client) Ping(ctx context.Context, t registry.DeviceType) bool {
	device, err := c.resolve(t)
	if err != nil {
		return false
	}

	url := fmt.Sprintf("http://%s:%d/health", device.IP, device.Port)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// ClearCache drops all cached device state.
func (c *Client) ClearCache() {
	c.mu.Lock()
	c.cache = make(map[registry.DeviceType]cachedState)
	c.mu.Unlock()
	c.logger.Debug("iot: state cache cleared")
}

func (c *Client) resolve(t registry.DeviceType) (*registry.Device, error) {
	device, ok := c.registry.Get(t)
	if !ok || !device.Online {
		return nil, errors.DeviceOfflinef("%s is not available", t)
	}
	return device, nil
}

func (c *Client) markOffline(t registry.DeviceType, err error) {
	c.logger.Error("iot: command failed", "device", t, "error", err)
	c.registry.MarkOffline(t)
}

func (c *Client) updateCache(t registry.DeviceType, state map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[t] = cachedState{state: state, at: time.Now()}
}

func (c *Client) cachedState(t registry.DeviceType) (map[string]any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cached, ok := c.cache[t]
	if !ok || time.Since(cached.at) > statusCacheTTL {
		return nil, false
	}
	return cached.state, true
}
