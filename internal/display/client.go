// Package display drives the glasses OLED through the Pi display server.
// Every call is fire-and-forget: failures are logged and reported as a
// bool, they never feed back into the state machine.
package display

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ryunzz/iris/internal/config"
	"github.com/ryunzz/iris/internal/registry"
)

// Sender is the line-level display contract the renderer draws on.
type Sender interface {
	ShowLines(lines []string) bool
	Clear() bool
}

// Client sends display frames to the Pi over HTTP. The Pi's address is
// resolved through the registry on every call.
type Client struct {
	registry   *registry.Registry
	httpClient *http.Client
	logger     *slog.Logger
}

var _ Sender = (*Client)(nil)

// NewClient creates a display client. An optional httpClient overrides
// the default.
func NewClient(reg *registry.Registry, logger *slog.Logger, httpClient ...*http.Client) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	var hc *http.Client
	if len(httpClient) > 0 && httpClient[0] != nil {
		hc = httpClient[0]
	} else {
		hc = &http.Client{Timeout: 3 * time.Second}
	}
	return &Client{registry: reg, httpClient: hc, logger: logger}
}

// ShowLines displays up to four lines. Long lines are truncated to the
// display width with a trailing ellipsis. An empty slice clears the
// screen.
func (c *Client) ShowLines(lines []string) bool {
	if len(lines) == 0 {
		return c.Clear()
	}
	return c.post(FitLines(lines))
}

// ShowText displays free text, word-wrapped across the four lines.
func (c *Client) ShowText(text string) bool {
	if strings.TrimSpace(text) == "" {
		return c.Clear()
	}
	return c.ShowLines(WrapText(text))
}

// Clear blanks the display.
func (c *Client) Clear() bool {
	return c.post(nil)
}

func (c *Client) post(lines []string) bool {
	device, ok := c.registry.Get(registry.DevicePi)
	if !ok || !device.Online {
		c.logger.Warn("display: pi not available")
		return false
	}
	if lines == nil {
		lines = []string{}
	}

	payload, err := json.Marshal(map[string]any{"lines": lines})
	if err != nil {
		c.logger.Error("display: failed to marshal frame", "error", err)
		return false
	}

	url := fmt.Sprintf("http://%s:%d/display", device.IP, device.Port)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("display: frame send failed", "error", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("display: frame rejected", "status", resp.StatusCode)
		return false
	}
	c.logger.Debug("display: frame sent", "lines", lines)
	return true
}

// FitLines clamps lines to the display geometry: at most four lines, each
// at most the display width, with long lines ellipsized.
func FitLines(lines []string) []string {
	if len(lines) > config.DisplayLines {
		lines = lines[:config.DisplayLines]
	}
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = Truncate(line)
	}
	return out
}

// Truncate shortens a line to the display width, replacing the tail with
// an ellipsis when it doesn't fit.
func Truncate(line string) string {
	runes := []rune(line)
	if len(runes) <= config.DisplayWidth {
		return line
	}
	return string(runes[:config.DisplayWidth-1]) + "…"
}

// WrapText word-wraps text into at most four display-width lines. Words
// that overflow the last line are dropped.
func WrapText(text string) []string {
	var lines []string
	var current string

	for _, word := range strings.Fields(text) {
		test := word
		if current != "" {
			test = current + " " + word
		}
		if len([]rune(test)) <= config.DisplayWidth {
			current = test
			continue
		}
		if current != "" {
			lines = append(lines, current)
		}
		current = word
		if len(lines) >= config.DisplayLines {
			break
		}
	}
	if current != "" && len(lines) < config.DisplayLines {
		lines = append(lines, current)
	}
	return FitLines(lines)
}
