package routes

import (
	"github.com/ryunzz/iris/internal/http/handlers"
)

// Handlers aggregates all handler interfaces for route registration.
// For the daemon, pass real handler implementations.
// For OpenAPI generation, pass stub implementations.
type Handlers struct {
	Health     handlers.HealthHandlers
	Interrupt  handlers.InterruptHandlers
	Transcript handlers.TranscriptHandlers
	Device     handlers.DeviceHandlers
	Logging    handlers.LoggingHandlers
}
