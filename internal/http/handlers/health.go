package handlers

import (
	"context"
	"time"
)

// --- Health Check ---

// HealthInput is the input for health check endpoints.
type HealthInput struct{}

// HealthOutput is the output for health check endpoints.
type HealthOutput struct {
	Body struct {
		Status        string    `json:"status" doc:"Service health status"`
		Service       string    `json:"service" doc:"Service identifier"`
		Timestamp     time.Time `json:"timestamp" doc:"Server time of the health check"`
		QueueSize     int       `json:"queue_size" doc:"Number of pending interrupts"`
		DevicesOnline int       `json:"devices_online" doc:"Number of devices currently online"`
	}
}

// HealthHandler reports daemon liveness plus queue and registry depth.
type HealthHandler struct {
	Queue    QueueStats
	Registry DeviceDirectory
}

// QueueStats is the queue surface the health endpoint needs.
type QueueStats interface {
	Len() int
}

// HealthCheck returns the service health status.
func (h *HealthHandler) HealthCheck(_ context.Context, _ *HealthInput) (*HealthOutput, error) {
	out := &HealthOutput{}
	out.Body.Status = "ok"
	out.Body.Service = "irisd"
	out.Body.Timestamp = time.Now()
	out.Body.QueueSize = h.Queue.Len()
	out.Body.DevicesOnline = len(h.Registry.AllOnline())
	return out, nil
}

// HealthHandlers is the interface used for route registration.
type HealthHandlers interface {
	HealthCheck(ctx context.Context, input *HealthInput) (*HealthOutput, error)
}

var _ HealthHandlers = (*HealthHandler)(nil)
