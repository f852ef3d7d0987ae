// Package routes provides shared route registration for the irisd HTTP API.
// Both the daemon and the OpenAPI generator use the same route definitions,
// ensuring the spec is always in sync with the implementation.
package routes

import (
	"github.com/danielgtaylor/huma/v2"
)

// NewHumaConfig creates the shared Huma configuration for the API.
func NewHumaConfig(version, baseURL string) huma.Config {
	cfg := huma.DefaultConfig("irisd API", version)
	cfg.Info.Description = "REST API for the Iris smart glasses hub: interrupt intake from peripherals, transcript push, and device registry inspection."

	// Disable $schema field in responses
	cfg.CreateHooks = nil

	if baseURL != "" {
		cfg.Servers = []*huma.Server{
			{URL: baseURL, Description: "API Server"},
		}
	}

	// Define OpenAPI tags
	cfg.Tags = []*huma.Tag{
		{Name: "Interrupts", Description: "Interrupt intake from motion and status sensors"},
		{Name: "Transcripts", Description: "Speech transcript push"},
		{Name: "Devices", Description: "Device registry inspection"},
		{Name: "Health", Description: "Service health"},
		{Name: "Logging", Description: "Runtime log level and filter management"},
	}

	return cfg
}
