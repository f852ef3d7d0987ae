// Package registry tracks the peripherals the hub talks to. Devices are
// keyed by type because the system expects at most one of each kind on
// the network at a time. Records are never deleted, only flagged offline
// when they go unseen past the stale window.
package registry

import (
	"context"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/ryunzz/iris/internal/config"
	"github.com/ryunzz/iris/internal/errors"
	"github.com/ryunzz/iris/internal/events"
)

// DeviceType identifies the role a peripheral plays.
type DeviceType string

const (
	DevicePi       DeviceType = "pi"
	DeviceLight    DeviceType = "light"
	DeviceFan      DeviceType = "fan"
	DeviceMotion   DeviceType = "motion"
	DeviceDistance DeviceType = "distance"
	DeviceGlasses  DeviceType = "glasses"
)

// AllDeviceTypes lists every known device type.
var AllDeviceTypes = []DeviceType{
	DevicePi, DeviceLight, DeviceFan, DeviceMotion, DeviceDistance, DeviceGlasses,
}

// IsValidDeviceType reports whether t is one of the known device types.
func IsValidDeviceType(t DeviceType) bool {
	for _, known := range AllDeviceTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Device is a single tracked peripheral.
type Device struct {
	Type     DeviceType `json:"type"`
	Name     string     `json:"name"`
	IP       string     `json:"ip"`
	Port     int        `json:"port"`
	Hostname string     `json:"hostname,omitempty"`
	LastSeen time.Time  `json:"last_seen"`
	Online   bool       `json:"online"`
	Manual   bool       `json:"manual,omitempty"`
}

// Listing is a display-ready row for the device list screen.
type Listing struct {
	Name   string
	Type   DeviceType
	Status string
}

// placeholderAddresses are sentinel values that mean "not configured".
// Manual entries carrying one of these are skipped with a log line
// rather than rejected as an error.
var placeholderAddresses = map[string]bool{
	"":            true,
	"0.0.0.0":     true,
	"CHANGE_ME":   true,
	"change_me":   true,
	"placeholder": true,
}

// waitPollInterval is the re-check cadence inside WaitFor.
const waitPollInterval = time.Second

// Registry is the authoritative device table. All methods are safe for
// concurrent use.
type Registry struct {
	mu          sync.RWMutex
	devices     map[DeviceType]Device
	staleWindow time.Duration
	logger      *slog.Logger
	bus         *events.Bus
}

// New creates a registry. A nil bus disables event publication.
func New(logger *slog.Logger, bus *events.Bus, staleWindow time.Duration) *Registry {
	if staleWindow <= 0 {
		staleWindow = config.DefaultStaleWindow
	}
	return &Registry{
		devices:     make(map[DeviceType]Device),
		staleWindow: staleWindow,
		logger:      logger,
		bus:         bus,
	}
}

// RecordSighting upserts a device record and marks it online. It is called
// by discovery, by manual device loading, and by any component that just
// had a successful exchange with the device.
func (r *Registry) RecordSighting(t DeviceType, name, ip string, port int, hostname string) {
	r.mu.Lock()
	d, existed := r.devices[t]
	wasOnline := existed && d.Online
	d.Type = t
	if name != "" {
		d.Name = name
	}
	d.IP = ip
	d.Port = port
	if hostname != "" {
		d.Hostname = hostname
	}
	d.LastSeen = time.Now()
	d.Online = true
	r.devices[t] = d
	r.mu.Unlock()

	if !wasOnline {
		r.logger.Info("registry: device online", "type", t, "name", d.Name, "ip", ip, "port", port)
		r.publish(events.DeviceDiscovered, d)
	} else {
		r.logger.Debug("registry: sighting refreshed", "type", t, "ip", ip)
	}
}

// MarkOffline flags a device offline without touching its address. It is
// a no-op for unknown types.
func (r *Registry) MarkOffline(t DeviceType) {
	r.mu.Lock()
	d, ok := r.devices[t]
	if !ok || !d.Online {
		r.mu.Unlock()
		return
	}
	d.Online = false
	r.devices[t] = d
	r.mu.Unlock()

	r.logger.Warn("registry: device offline", "type", t, "name", d.Name)
	r.publish(events.DeviceOffline, d)
}

// Get returns a copy of the device record for t. Staleness is re-evaluated
// on every read so a device that stopped announcing reads as offline even
// if nothing has touched it since.
func (r *Registry) Get(t DeviceType) (*Device, bool) {
	r.mu.Lock()
	d, ok := r.devices[t]
	if !ok {
		r.mu.Unlock()
		return nil, false
	}
	flipped := r.refreshLocked(&d)
	r.devices[t] = d
	r.mu.Unlock()

	if flipped {
		r.logger.Warn("registry: device went stale", "type", t, "name", d.Name, "last_seen", d.LastSeen)
		r.publish(events.DeviceOffline, d)
	}
	out := d
	return &out, true
}

// IsOnline reports whether a device of type t is known and currently online.
func (r *Registry) IsOnline(t DeviceType) bool {
	d, ok := r.Get(t)
	return ok && d.Online
}

// AllOnline returns staleness-checked copies of every online device.
func (r *Registry) AllOnline() []Device {
	out := make([]Device, 0, len(AllDeviceTypes))
	for _, t := range AllDeviceTypes {
		if d, ok := r.Get(t); ok && d.Online {
			out = append(out, *d)
		}
	}
	return out
}

// All returns staleness-checked copies of every known device.
func (r *Registry) All() []Device {
	out := make([]Device, 0, len(AllDeviceTypes))
	for _, t := range AllDeviceTypes {
		if d, ok := r.Get(t); ok {
			out = append(out, *d)
		}
	}
	return out
}

// WaitFor blocks until a device of type t is online, polling once a second.
// It returns a not-found error when the timeout elapses or the context is
// cancelled first.
func (r *Registry) WaitFor(ctx context.Context, t DeviceType, timeout time.Duration) (*Device, error) {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(waitPollInterval)
	defer ticker.Stop()

	for {
		if d, ok := r.Get(t); ok && d.Online {
			return d, nil
		}
		if time.Now().After(deadline) {
			return nil, errors.NotFoundf("device %s not found within %s", t, timeout)
		}
		select {
		case <-ctx.Done():
			return nil, errors.NotFoundf("device %s not found: %w", t, ctx.Err())
		case <-ticker.C:
		}
	}
}

// AddManual registers a statically configured device. The entry is skipped
// when discovery already has a live record for the same type, when the
// address is a placeholder, or when it is not a literal IPv4 address.
func (r *Registry) AddManual(t DeviceType, name, ip string, port int) error {
	if !IsValidDeviceType(t) {
		return errors.InvalidInputf("unknown device type %q", t)
	}
	if placeholderAddresses[ip] {
		r.logger.Info("registry: skipping manual device with placeholder address", "type", t, "ip", ip)
		return errors.InvalidInputf("manual device %s has placeholder address %q", t, ip)
	}
	parsed := net.ParseIP(ip)
	if parsed == nil || parsed.To4() == nil {
		return errors.InvalidInputf("manual device %s has invalid IPv4 address %q", t, ip)
	}
	if d, ok := r.Get(t); ok && d.Online && !d.Manual {
		r.logger.Debug("registry: manual device ignored, already discovered", "type", t)
		return nil
	}

	if name == "" {
		name = string(t)
	}
	r.RecordSighting(t, name, ip, port, "")
	r.mu.Lock()
	d := r.devices[t]
	d.Manual = true
	r.devices[t] = d
	r.mu.Unlock()
	r.logger.Info("registry: manual device added", "type", t, "name", name, "ip", ip, "port", port)
	return nil
}

// LoadManualDevices applies configured fallback entries. Invalid entries
// are logged and skipped so one bad line cannot take out the rest.
func (r *Registry) LoadManualDevices(entries map[string]config.ManualDevice) {
	for key, md := range entries {
		if err := r.AddManual(DeviceType(key), md.Name, md.IP, md.Port); err != nil {
			r.logger.Warn("registry: manual device skipped", "type", key, "error", err)
		}
	}
}

// displayOrder fixes the rows the device list screen shows first.
var displayOrder = []DeviceType{DeviceLight, DeviceFan, DeviceDistance, DeviceMotion}

// DisplayList returns device rows in presentation order: light, fan,
// distance, motion, then any remaining known devices.
func (r *Registry) DisplayList() []Listing {
	listed := make(map[DeviceType]bool, len(displayOrder))
	out := make([]Listing, 0, len(AllDeviceTypes))

	appendRow := func(t DeviceType) {
		d, ok := r.Get(t)
		if !ok {
			return
		}
		status := "Offline"
		if d.Online {
			status = "Online"
		}
		name := d.Name
		if name == "" {
			name = string(t)
		}
		out = append(out, Listing{Name: name, Type: t, Status: status})
	}

	for _, t := range displayOrder {
		appendRow(t)
		listed[t] = true
	}
	for _, t := range AllDeviceTypes {
		if !listed[t] {
			appendRow(t)
		}
	}
	return out
}

// refreshLocked applies the stale window to a record. Returns true when
// the device flipped from online to offline. Caller holds the write lock.
func (r *Registry) refreshLocked(d *Device) bool {
	if !d.Online {
		return false
	}
	if time.Since(d.LastSeen) > r.staleWindow {
		d.Online = false
		return true
	}
	return false
}

func (r *Registry) publish(t events.EventType, d Device) {
	if r.bus == nil {
		return
	}
	r.bus.Publish(events.NewEvent(t, d))
}
