// Package handlers provides typed Huma request/response structs and handler
// implementations for the irisd HTTP API.
package handlers

import (
	"time"

	"github.com/ryunzz/iris/internal/registry"
)

// --- Device types ---

// DeviceResponse is the API representation of a registered device.
type DeviceResponse struct {
	Type     string    `json:"type" doc:"Device type (pi, light, fan, motion, distance, glasses)"`
	Name     string    `json:"name" doc:"Display name of the device"`
	IP       string    `json:"ip" doc:"IP address of the device"`
	Port     int       `json:"port" doc:"Port number of the device"`
	Hostname string    `json:"hostname,omitempty" doc:"mDNS hostname, if discovered"`
	LastSeen time.Time `json:"last_seen" doc:"Last time the device was seen on the network"`
	Online   bool      `json:"online" doc:"Whether the device is currently considered online"`
	Manual   bool      `json:"manual,omitempty" doc:"Whether the device was configured manually"`
}

// DeviceFromRegistry converts a registry.Device to a DeviceResponse.
func DeviceFromRegistry(d registry.Device) DeviceResponse {
	return DeviceResponse{
		Type:     string(d.Type),
		Name:     d.Name,
		IP:       d.IP,
		Port:     d.Port,
		Hostname: d.Hostname,
		LastSeen: d.LastSeen,
		Online:   d.Online,
		Manual:   d.Manual,
	}
}

// --- Common response types ---

// ReceivedResponse acknowledges an interrupt submission.
type ReceivedResponse struct {
	Received bool   `json:"received" doc:"Whether the interrupt was accepted"`
	Status   string `json:"status,omitempty" doc:"Queue outcome (queued, queue_full)"`
}
