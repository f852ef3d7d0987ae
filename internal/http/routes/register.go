package routes

import (
	"github.com/danielgtaylor/huma/v2"

	"github.com/ryunzz/iris/internal/http/mw"
)

// Register registers all API routes with the given Huma API instance.
func Register(api huma.API, h *Handlers) {
	// --- Health ---
	mw.PublicGet(api, "/api/v1/health", h.Health.HealthCheck,
		mw.WithTags("Health"),
		mw.WithSummary("Health check"),
		mw.WithDescription("Returns service status plus interrupt queue depth and online device count."),
		mw.WithOperationID("healthCheck"))

	mw.HiddenGet(api, "/healthz", h.Health.HealthCheck)

	// --- Interrupts ---
	mw.PublicPost(api, "/api/v1/interrupts/motion", h.Interrupt.MotionAlert,
		mw.WithTags("Interrupts"),
		mw.WithSummary("Report motion"),
		mw.WithDescription("Queues a motion interrupt from a sensor. Returns 503 with queue_full when the interrupt queue is at capacity."),
		mw.WithOperationID("motionAlert"))

	mw.PublicPost(api, "/api/v1/interrupts/device-status", h.Interrupt.DeviceStatus,
		mw.WithTags("Interrupts"),
		mw.WithSummary("Report device status"),
		mw.WithDescription("Queues a device_online or device_offline interrupt. The registry is updated when the main loop processes it."),
		mw.WithOperationID("deviceStatus"))

	mw.PublicPost(api, "/api/v1/interrupts/clear", h.Interrupt.ClearInterrupts,
		mw.WithTags("Interrupts"),
		mw.WithSummary("Clear pending interrupts"),
		mw.WithOperationID("clearInterrupts"))

	// --- Transcripts ---
	mw.PublicPost(api, "/api/v1/transcript", h.Transcript.PushTranscript,
		mw.WithTags("Transcripts"),
		mw.WithSummary("Push a speech transcript"),
		mw.WithDescription("Hands recognized speech to the voice command loop. Returns 503 with queue_full when the transcript buffer is at capacity."),
		mw.WithOperationID("pushTranscript"))

	// --- Devices ---
	mw.PublicGet(api, "/api/v1/devices", h.Device.ListDevices,
		mw.WithTags("Devices"),
		mw.WithSummary("List registered devices"),
		mw.WithDescription("Returns all known devices in display order with staleness-checked online flags."),
		mw.WithOperationID("listDevices"))

	// --- Logging ---
	mw.PublicGet(api, "/api/v1/logging/filters", h.Logging.ListFilters,
		mw.WithTags("Logging"),
		mw.WithSummary("List log filters and current level"),
		mw.WithOperationID("listLogFilters"))

	mw.PublicPut(api, "/api/v1/logging/filters", h.Logging.SetFilters,
		mw.WithTags("Logging"),
		mw.WithSummary("Replace all log filters"),
		mw.WithDescription("Validates and replaces all active log filters. Invalid filters are rejected entirely."),
		mw.WithOperationID("setLogFilters"))

	mw.PublicPut(api, "/api/v1/logging/level", h.Logging.SetLevel,
		mw.WithTags("Logging"),
		mw.WithSummary("Set global log level"),
		mw.WithDescription("Changes the global log level at runtime. Valid values: debug, info, warn, error."),
		mw.WithOperationID("setLogLevel"))
}
