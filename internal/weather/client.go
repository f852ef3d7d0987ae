// Package weather fetches current conditions from OpenWeatherMap for the
// idle screen. Reports are cached so the idle loop can re-render freely
// without hammering the API.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/ryunzz/iris/internal/errors"
)

const defaultBaseURL = "https://api.openweathermap.org/data/2.5/weather"

// updateInterval is how long a fetched report stays fresh.
const updateInterval = 10 * time.Minute

// Report is a display-ready weather summary.
type Report struct {
	City        string
	TempF       int
	Description string
	Humidity    int
	FetchedAt   time.Time
}

// apiResponse is the subset of the OpenWeatherMap payload we read.
type apiResponse struct {
	Name string `json:"name"`
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity int     `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
}

// Client is an OpenWeatherMap client. Safe for concurrent use.
type Client struct {
	apiKey     string
	latitude   float64
	longitude  float64
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger

	mu     sync.Mutex
	cached *Report
}

// New creates a client. An optional httpClient overrides the default.
func New(logger *slog.Logger, apiKey string, lat, lon float64, httpClient ...*http.Client) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	var hc *http.Client
	if len(httpClient) > 0 && httpClient[0] != nil {
		hc = httpClient[0]
	} else {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		apiKey:     apiKey,
		latitude:   lat,
		longitude:  lon,
		baseURL:    defaultBaseURL,
		httpClient: hc,
		logger:     logger,
	}
}

// Current returns the current conditions, served from cache while fresh.
func (c *Client) Current(ctx context.Context) (*Report, error) {
	c.mu.Lock()
	if c.cached != nil && time.Since(c.cached.FetchedAt) < updateInterval {
		report := *c.cached
		c.mu.Unlock()
		return &report, nil
	}
	c.mu.Unlock()

	report, err := c.fetch(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.cached = report
	c.mu.Unlock()

	out := *report
	return &out, nil
}

func (c *Client) fetch(ctx context.Context) (*Report, error) {
	if c.apiKey == "" {
		return nil, errors.InvalidInputf("weather api key not configured")
	}

	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(c.latitude, 'f', 4, 64))
	q.Set("lon", strconv.FormatFloat(c.longitude, 'f', 4, 64))
	q.Set("appid", c.apiKey)
	q.Set("units", "imperial")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, errors.Internalf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("weather: fetch failed", "error", err)
		return nil, errors.Internalf("weather fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		c.logger.Error("weather: fetch failed", "error", err)
		return nil, errors.Internalf("weather fetch failed: %w", err)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Internalf("weather fetch failed: %w", err)
	}
	var parsed apiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, errors.Internalf("malformed weather response: %w", err)
	}
	if len(parsed.Weather) == 0 {
		return nil, errors.Internalf("weather response missing conditions")
	}

	report := &Report{
		City:        parsed.Name,
		TempF:       int(parsed.Main.Temp + 0.5),
		Description: parsed.Weather[0].Description,
		Humidity:    parsed.Main.Humidity,
		FetchedAt:   time.Now(),
	}
	c.logger.Info("weather: updated", "city", report.City, "temp_f", report.TempF)
	return report, nil
}
