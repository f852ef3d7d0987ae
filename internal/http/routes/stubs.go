package routes

import (
	"context"

	"github.com/ryunzz/iris/internal/http/handlers"
)

// StubHandlers returns a Handlers instance with stub implementations.
// All handlers return nil responses; these are only used for OpenAPI
// generation where Huma extracts type information from signatures.
func StubHandlers() *Handlers {
	return &Handlers{
		Health:     &stubHealthHandlers{},
		Interrupt:  &stubInterruptHandlers{},
		Transcript: &stubTranscriptHandlers{},
		Device:     &stubDeviceHandlers{},
		Logging:    &stubLoggingHandlers{},
	}
}

type stubHealthHandlers struct{}

func (s *stubHealthHandlers) HealthCheck(_ context.Context, _ *handlers.HealthInput) (*handlers.HealthOutput, error) {
	return nil, nil
}

type stubInterruptHandlers struct{}

func (s *stubInterruptHandlers) MotionAlert(_ context.Context, _ *handlers.MotionInterruptInput) (*handlers.MotionInterruptOutput, error) {
	return nil, nil
}

func (s *stubInterruptHandlers) DeviceStatus(_ context.Context, _ *handlers.DeviceStatusInput) (*handlers.DeviceStatusOutput, error) {
	return nil, nil
}

func (s *stubInterruptHandlers) ClearInterrupts(_ context.Context, _ *handlers.ClearInterruptsInput) (*handlers.ClearInterruptsOutput, error) {
	return nil, nil
}

type stubTranscriptHandlers struct{}

func (s *stubTranscriptHandlers) PushTranscript(_ context.Context, _ *handlers.PushTranscriptInput) (*handlers.PushTranscriptOutput, error) {
	return nil, nil
}

type stubDeviceHandlers struct{}

func (s *stubDeviceHandlers) ListDevices(_ context.Context, _ *handlers.ListDevicesInput) (*handlers.ListDevicesOutput, error) {
	return nil, nil
}

type stubLoggingHandlers struct{}

func (s *stubLoggingHandlers) ListFilters(_ context.Context, _ *handlers.ListFiltersInput) (*handlers.ListFiltersOutput, error) {
	return nil, nil
}

func (s *stubLoggingHandlers) SetFilters(_ context.Context, _ *handlers.SetFiltersInput) (*handlers.SetFiltersOutput, error) {
	return nil, nil
}

func (s *stubLoggingHandlers) SetLevel(_ context.Context, _ *handlers.SetLevelInput) (*handlers.SetLevelOutput, error) {
	return nil, nil
}
