package handlers

import (
	"context"

	"github.com/ryunzz/iris/internal/registry"
)

// DeviceDirectory is the registry surface the HTTP handlers need.
type DeviceDirectory interface {
	Get(t registry.DeviceType) (*registry.Device, bool)
	AllOnline() []registry.Device
	DisplayList() []registry.Listing
}

// --- List Devices ---

// ListDevicesInput is the input for listing registered devices.
type ListDevicesInput struct{}

// ListDevicesOutput is the output for listing registered devices.
// Devices appear in the same order the glasses device screen shows them.
type ListDevicesOutput struct {
	Body struct {
		Devices []DeviceResponse `json:"devices" doc:"Registered devices in display order"`
	}
}

// DeviceHandler implements device-related HTTP handlers.
type DeviceHandler struct {
	Registry DeviceDirectory
}

// ListDevices returns a snapshot of every registered device. Staleness is
// re-evaluated by the registry on read, so Online reflects the stale window.
func (h *DeviceHandler) ListDevices(_ context.Context, _ *ListDevicesInput) (*ListDevicesOutput, error) {
	out := &ListDevicesOutput{}
	out.Body.Devices = []DeviceResponse{}
	for _, row := range h.Registry.DisplayList() {
		d, ok := h.Registry.Get(row.Type)
		if !ok {
			continue
		}
		out.Body.Devices = append(out.Body.Devices, DeviceFromRegistry(*d))
	}
	return out, nil
}

// DeviceHandlers is the interface used for route registration.
type DeviceHandlers interface {
	ListDevices(ctx context.Context, input *ListDevicesInput) (*ListDevicesOutput, error)
}

var _ DeviceHandlers = (*DeviceHandler)(nil)
