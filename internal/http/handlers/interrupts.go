package handlers

import (
	"context"
	"log/slog"
	"net"

	"github.com/danielgtaylor/huma/v2"

	"github.com/ryunzz/iris/internal/interrupt"
)

// InterruptSink is the queue surface the interrupt endpoints need.
type InterruptSink interface {
	Push(in interrupt.Interrupt) bool
	Drain() int
}

// InterruptHandler implements the interrupt-receiver endpoints that the
// ESP32 peripherals post to.
type InterruptHandler struct {
	Sink   InterruptSink
	Logger *slog.Logger
}

// sourceHost strips the port from a RemoteAddr value.
func sourceHost(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}

// --- Motion alert ---

// MotionInterruptInput is the input for motion alerts. The body carries
// whatever extra fields the sensor includes; none are required.
type MotionInterruptInput struct {
	Body map[string]any `doc:"Sensor payload; passed through to the interrupt"`

	remoteAddr string
}

// Resolve captures the caller's address for the interrupt record.
func (i *MotionInterruptInput) Resolve(ctx huma.Context) []error {
	i.remoteAddr = sourceHost(ctx.RemoteAddr())
	return nil
}

// MotionInterruptOutput is the output for motion alerts.
type MotionInterruptOutput struct {
	Body ReceivedResponse
}

// MotionAlert queues a motion interrupt for the main loop.
func (h *InterruptHandler) MotionAlert(_ context.Context, input *MotionInterruptInput) (*MotionInterruptOutput, error) {
	in := interrupt.New(interrupt.TypeMotion, input.Body, input.remoteAddr)
	if !h.Sink.Push(in) {
		return nil, huma.Error503ServiceUnavailable("queue_full")
	}
	h.Logger.Info("http: motion alert queued", "source", input.remoteAddr)
	return &MotionInterruptOutput{Body: ReceivedResponse{Received: true, Status: "queued"}}, nil
}

// --- Device status ---

// DeviceStatusInput is the input for device status updates.
type DeviceStatusInput struct {
	Body struct {
		Type   string `json:"type" doc:"Device type reporting the change"`
		Status string `json:"status" enum:"online,offline" doc:"New device status"`
	}

	remoteAddr string
}

// Resolve captures the caller's address for the interrupt record.
func (i *DeviceStatusInput) Resolve(ctx huma.Context) []error {
	i.remoteAddr = sourceHost(ctx.RemoteAddr())
	return nil
}

// DeviceStatusOutput is the output for device status updates.
type DeviceStatusOutput struct {
	Body ReceivedResponse
}

// DeviceStatus queues a device_online or device_offline interrupt. The main
// loop applies the change to the registry when it processes the interrupt.
func (h *InterruptHandler) DeviceStatus(_ context.Context, input *DeviceStatusInput) (*DeviceStatusOutput, error) {
	var t interrupt.Type
	switch input.Body.Status {
	case "online":
		t = interrupt.TypeDeviceOnline
	case "offline":
		t = interrupt.TypeDeviceOffline
	default:
		return nil, huma.Error400BadRequest("unknown status: " + input.Body.Status)
	}

	payload := map[string]any{
		"type":   input.Body.Type,
		"status": input.Body.Status,
	}
	in := interrupt.New(t, payload, input.remoteAddr)
	if !h.Sink.Push(in) {
		return nil, huma.Error503ServiceUnavailable("queue_full")
	}
	h.Logger.Info("http: device status queued",
		"device", input.Body.Type, "status", input.Body.Status, "source", input.remoteAddr)
	return &DeviceStatusOutput{Body: ReceivedResponse{Received: true}}, nil
}

// --- Clear queue ---

// ClearInterruptsInput is the input for clearing the interrupt queue.
type ClearInterruptsInput struct{}

// ClearInterruptsOutput is the output for clearing the interrupt queue.
type ClearInterruptsOutput struct {
	Body struct {
		Cleared int `json:"cleared" doc:"Number of interrupts removed"`
	}
}

// ClearInterrupts drains all pending interrupts. Intended for debugging a
// wedged queue; in-flight processing is unaffected.
func (h *InterruptHandler) ClearInterrupts(_ context.Context, _ *ClearInterruptsInput) (*ClearInterruptsOutput, error) {
	out := &ClearInterruptsOutput{}
	out.Body.Cleared = h.Sink.Drain()
	h.Logger.Info("http: interrupt queue cleared", "count", out.Body.Cleared)
	return out, nil
}

// InterruptHandlers is the interface used for route registration.
type InterruptHandlers interface {
	MotionAlert(ctx context.Context, input *MotionInterruptInput) (*MotionInterruptOutput, error)
	DeviceStatus(ctx context.Context, input *DeviceStatusInput) (*DeviceStatusOutput, error)
	ClearInterrupts(ctx context.Context, input *ClearInterruptsInput) (*ClearInterruptsOutput, error)
}

var _ InterruptHandlers = (*InterruptHandler)(nil)
