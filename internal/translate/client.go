// Package translate wraps the DeepL REST API for the live translation
// state. Each transcript chunk is translated independently; the client
// keeps a short rolling history for the two-line translation screen.
package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/ryunzz/iris/internal/errors"
)

const defaultBaseURL = "https://api-free.deepl.com/v2/translate"

// historySize bounds the rolling exchange history.
const historySize = 10

// Exchange is one original/translated pair.
type Exchange struct {
	Original   string
	Translated string
	At         time.Time
}

type apiResponse struct {
	Translations []struct {
		DetectedSourceLanguage string `json:"detected_source_language"`
		Text                   string `json:"text"`
	} `json:"translations"`
}

// Client is a DeepL client. Safe for concurrent use.
type Client struct {
	apiKey     string
	sourceLang string
	targetLang string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger

	mu      sync.Mutex
	history []Exchange
}

// New creates a client. An optional httpClient overrides the default.
func New(logger *slog.Logger, apiKey, sourceLang, targetLang string, httpClient ...*http.Client) *Client {
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
		sourceLang: sourceLang,
		targetLang: targetLang,
		baseURL:    defaultBaseURL,
		httpClient: hc,
		logger:     logger,
	}
}

// Translate converts text to the target language.
func (c *Client) Translate(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", nil
	}
	if c.apiKey == "" {
		return "", errors.InvalidInputf("translation api key not configured")
	}

	form := url.Values{}
	form.Set("text", text)
	form.Set("target_lang", strings.ToUpper(c.targetLang))
	if c.sourceLang != "" {
		form.Set("source_lang", strings.ToUpper(c.sourceLang))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", errors.Internalf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "DeepL-Auth-Key "+c.apiKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("translate: request failed", "error", err)
		return "", errors.Internalf("translation failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		c.logger.Error("translate: request failed", "error", err)
		return "", errors.Internalf("translation failed: %w", err)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Internalf("translation failed: %w", err)
	}
	var parsed apiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", errors.Internalf("malformed translation response: %w", err)
	}
	if len(parsed.Translations) == 0 {
		return "", errors.Internalf("translation response empty")
	}

	translated := parsed.Translations[0].Text
	c.logger.Info("translate: translated", "original", text, "translated", translated)
	return translated, nil
}

// TranslateContinuous translates a chunk and appends it to the rolling
// history used by the live translation screen.
func (c *Client) TranslateContinuous(ctx context.Context, text string) (Exchange, error) {
	translated, err := c.Translate(ctx, text)
	if err != nil {
		return Exchange{}, err
	}

	ex := Exchange{Original: text, Translated: translated, At: time.Now()}
	c.mu.Lock()
	c.history = append(c.history, ex)
	if len(c.history) > historySize {
		c.history = c.history[len(c.history)-historySize:]
	}
	c.mu.Unlock()
	return ex, nil
}

// History returns a copy of the rolling exchange history.
func (c *Client) History() []Exchange {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Exchange, len(c.history))
	copy(out, c.history)
	return out
}

// ClearHistory empties the rolling history, used when leaving the
// translation state.
func (c *Client) ClearHistory() {
	c.mu.Lock()
	c.history = nil
	c.mu.Unlock()
}
