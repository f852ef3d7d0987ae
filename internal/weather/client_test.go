package weather

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryunzz/iris/internal/errors"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

func TestCurrent(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		assert.Equal(t, "imperial", r.URL.Query().Get("units"))
		assert.Equal(t, "test-key", r.URL.Query().Get("appid"))
		json.NewEncoder(w).Encode(map[string]any{
			"name": "College Station",
			"main": map[string]any{"temp": 87.6, "humidity": 61},
			"weather": []map[string]any{
				{"description": "clear sky"},
			},
		})
	}))
	defer srv.Close()

	c := New(testLogger(), "test-key", 30.628, -96.3344)
	c.baseURL = srv.URL

	report, err := c.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "College Station", report.City)
	assert.Equal(t, 88, report.TempF)
	assert.Equal(t, "clear sky", report.Description)
	assert.Equal(t, 61, report.Humidity)

	// Second read is served from cache
	_, err = c.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, hits)
}

func TestCurrentNoAPIKey(t *testing.T) {
	c := New(testLogger(), "", 0, 0)
	_, err := c.Current(context.Background())
	assert.True(t, errors.IsInvalidInput(err))
}

func TestCurrentServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := New(testLogger(), "bad-key", 0, 0)
	c.baseURL = srv.URL

	_, err := c.Current(context.Background())
	assert.Error(t, err)
}

func TestCurrentMissingConditions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"name": "Nowhere"})
	}))
	defer srv.Close()

	c := New(testLogger(), "test-key", 0, 0)
	c.baseURL = srv.URL

	_, err := c.Current(context.Background())
	assert.Error(t, err)
}
