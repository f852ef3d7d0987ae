package server

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryunzz/iris/internal/config"
	"github.com/ryunzz/iris/internal/registry"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.Server.ListenAddress = "127.0.0.1:0"
	cfg.Registry.StaleWindowSeconds = 120
	cfg.Registry.RescanIntervalSeconds = 30
	cfg.Registry.WaitTimeoutSeconds = 1
	cfg.Interrupts.Capacity = 10
	cfg.Interrupts.OverlaySeconds = 1
	cfg.Parser.TimeoutSeconds = 10
	cfg.Audio.ListenTimeoutMs = 50
	cfg.IoT.TimeoutSeconds = 1
	cfg.Todo.File = filepath.Join(t.TempDir(), "todos.json")
	return cfg
}

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	s := New(testLogger(), testConfig(t), "test")
	ts := httptest.NewServer(s.httpServer.Handler)
	t.Cleanup(func() {
		ts.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		s.Stop(ctx)
	})
	return s, ts
}

func TestNew_WiresComponents(t *testing.T) {
	s := New(testLogger(), testConfig(t), "test")
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		s.Stop(ctx)
	}()

	assert.NotNil(t, s.registry)
	assert.NotNil(t, s.discoverer)
	assert.NotNil(t, s.queue)
	assert.NotNil(t, s.parser)
	assert.NotNil(t, s.source)
	assert.NotNil(t, s.orch)
	assert.NotNil(t, s.httpServer)
}

func TestHTTP_Health(t *testing.T) {
	s, ts := newTestServer(t)
	s.registry.RecordSighting(registry.DeviceLight, "light", "192.168.1.20", 80, "")

	resp, err := http.Get(ts.URL + "/api/v1/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Status        string `json:"status"`
		Service       string `json:"service"`
		QueueSize     int    `json:"queue_size"`
		DevicesOnline int    `json:"devices_online"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "irisd", body.Service)
	assert.Equal(t, 0, body.QueueSize)
	assert.Equal(t, 1, body.DevicesOnline)
}

func TestHTTP_MotionInterrupt(t *testing.T) {
	s, ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/v1/interrupts/motion", "application/json",
		bytes.NewBufferString(`{"confidence": 0.8}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	in, ok := s.queue.Poll()
	require.True(t, ok)
	assert.Equal(t, 0.8, in.Payload["confidence"])
	assert.NotEmpty(t, in.SourceAddr)
}

func TestHTTP_DeviceStatusRejectsUnknown(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/v1/interrupts/device-status", "application/json",
		bytes.NewBufferString(`{"type":"light","status":"rebooting"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	// The enum constraint rejects it before the handler runs
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestHTTP_Devices(t *testing.T) {
	s, ts := newTestServer(t)
	s.registry.RecordSighting(registry.DeviceFan, "fan", "192.168.1.21", 80, "")
	s.registry.RecordSighting(registry.DeviceLight, "light", "192.168.1.20", 80, "")

	resp, err := http.Get(ts.URL + "/api/v1/devices")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Devices []struct {
			Type   string `json:"type"`
			Online bool   `json:"online"`
		} `json:"devices"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Devices, 2)
	assert.Equal(t, "light", body.Devices[0].Type)
	assert.Equal(t, "fan", body.Devices[1].Type)
}

func TestHTTP_Transcript(t *testing.T) {
	s, ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/v1/transcript", "application/json",
		bytes.NewBufferString(`{"text":"hey iris"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, 1, s.source.Pending())
}

func TestHTTP_InterruptQueueFull(t *testing.T) {
	s, ts := newTestServer(t)

	for i := 0; i < 10; i++ {
		resp, err := http.Post(ts.URL+"/api/v1/interrupts/motion", "application/json",
			bytes.NewBufferString(`{}`))
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	assert.Equal(t, 10, s.queue.Len())

	resp, err := http.Post(ts.URL+"/api/v1/interrupts/motion", "application/json",
		bytes.NewBufferString(`{}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestHTTP_ClearInterrupts(t *testing.T) {
	s, ts := newTestServer(t)

	for i := 0; i < 3; i++ {
		resp, err := http.Post(ts.URL+"/api/v1/interrupts/motion", "application/json",
			bytes.NewBufferString(`{}`))
		require.NoError(t, err)
		resp.Body.Close()
	}

	resp, err := http.Post(ts.URL+"/api/v1/interrupts/clear", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Cleared int `json:"cleared"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 3, body.Cleared)
	assert.Equal(t, 0, s.queue.Len())
}

func TestHTTP_OpenAPIServed(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/openapi.json")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
