package registry

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"strings"
	"time"

	"github.com/hashicorp/mdns"

	"github.com/ryunzz/iris/internal/config"
)

const (
	// iotService is advertised by sensor and actuator peripherals. The
	// instance label carries the device type (e.g. "light._iris-iot._tcp").
	iotService = "_iris-iot._tcp"

	// displayService is advertised by the Pi display server and the glasses.
	displayService = "_iris-display._tcp"

	domain = "local."
)

// Discoverer periodically issues mDNS queries and feeds sightings into the
// registry.
type Discoverer struct {
	registry *Registry
	logger   *slog.Logger
	interval time.Duration
}

// NewDiscoverer creates a discoverer. The interval is clamped to the
// minimum rescan interval.
func NewDiscoverer(reg *Registry, logger *slog.Logger, interval time.Duration) *Discoverer {
	if interval < config.MinRescanInterval {
		logger.Warn("discovery: interval too short, using minimum", "min", config.MinRescanInterval)
		interval = config.MinRescanInterval
	}
	return &Discoverer{registry: reg, logger: logger, interval: interval}
}

// Run performs an immediate scan and then rescans on the configured
// interval until the context is cancelled. Each scan lasts one second
// less than the interval so runs never overlap.
func (d *Discoverer) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	// A failed initial scan must not stop discovery; the interface may
	// simply not be up yet. The next tick retries.
	if err := d.scan(ctx); err != nil {
		d.logger.Error("discovery: initial scan failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := d.scan(ctx); err != nil {
				d.logger.Error("discovery: scan failed", "error", err)
				// Keep running even when a scan fails
			}
		}
	}
}

// scan queries both iris service types once.
func (d *Discoverer) scan(ctx context.Context) error {
	scanCtx, cancel := context.WithTimeout(ctx, d.interval-time.Second)
	defer cancel()

	for _, service := range []string{iotService, displayService} {
		if err := d.query(scanCtx, service); err != nil {
			return err
		}
	}
	return nil
}

func (d *Discoverer) query(ctx context.Context, service string) error {
	entriesCh := make(chan *mdns.ServiceEntry, 10)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case entry, ok := <-entriesCh:
				if !ok {
					return
				}
				d.handleEntry(entry)
			}
		}
	}()

	params := mdns.DefaultParams(service)
	params.Domain = domain
	params.Entries = entriesCh
	params.Logger = slogToStdLogger(d.logger)
	if deadline, ok := ctx.Deadline(); ok {
		params.Timeout = time.Until(deadline)
	}

	err := mdns.Query(params)
	close(entriesCh)
	<-done
	if err != nil {
		return fmt.Errorf("mdns query %s failed: %w", service, err)
	}
	return nil
}

// handleEntry validates an mDNS answer and records the sighting. The first
// label of the instance name is the device type.
func (d *Discoverer) handleEntry(entry *mdns.ServiceEntry) {
	if entry == nil || entry.AddrV4 == nil || entry.Port == 0 {
		d.logger.Debug("discovery: skipping invalid service entry", "name", entryName(entry))
		return
	}

	label, _, _ := strings.Cut(entry.Name, ".")
	devType := DeviceType(strings.ToLower(label))
	if !IsValidDeviceType(devType) {
		d.logger.Debug("discovery: unknown device type", "name", entry.Name, "type", devType)
		return
	}

	d.logger.Debug("discovery: sighted device",
		"type", devType, "addr", entry.AddrV4, "port", entry.Port, "host", entry.Host)
	d.registry.RecordSighting(devType, string(devType), entry.AddrV4.String(), entry.Port, entry.Host)
}

func entryName(entry *mdns.ServiceEntry) string {
	if entry == nil {
		return ""
	}
	return entry.Name
}

// slogWriter forwards the mdns library's log lines to slog at debug level.
type slogWriter struct {
	logger *slog.Logger
}

func (w slogWriter) Write(p []byte) (int, error) {
	w.logger.Debug("mdns: " + strings.TrimSpace(string(p)))
	return len(p), nil
}

func slogToStdLogger(logger *slog.Logger) *log.Logger {
	return log.New(slogWriter{logger: logger}, "", 0)
}
