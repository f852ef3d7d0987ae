// Package server assembles the irisd daemon: device registry and mDNS
// discovery, interrupt queue, voice parser, the orchestrator main loop,
// and the HTTP API with its WebSocket event stream.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"github.com/ryunzz/iris/internal/audio"
	"github.com/ryunzz/iris/internal/config"
	"github.com/ryunzz/iris/internal/display"
	"github.com/ryunzz/iris/internal/events"
	"github.com/ryunzz/iris/internal/http/handlers"
	"github.com/ryunzz/iris/internal/http/mw"
	"github.com/ryunzz/iris/internal/http/routes"
	"github.com/ryunzz/iris/internal/interrupt"
	"github.com/ryunzz/iris/internal/iot"
	"github.com/ryunzz/iris/internal/orchestrator"
	"github.com/ryunzz/iris/internal/parser"
	"github.com/ryunzz/iris/internal/registry"
	"github.com/ryunzz/iris/internal/todo"
	"github.com/ryunzz/iris/internal/translate"
	"github.com/ryunzz/iris/internal/weather"
	"github.com/ryunzz/iris/internal/ws"
)

// Server owns every long-lived component of the daemon.
type Server struct {
	logger *slog.Logger
	cfg    *config.Config

	bus        *events.Bus
	registry   *registry.Registry
	discoverer *registry.Discoverer
	queue      *interrupt.Queue
	parser     *parser.Parser
	source     *audio.PushSource
	orch       *orchestrator.Orchestrator

	httpServer *http.Server
	rootCtx    context.Context
	rootCancel context.CancelFunc
	wg         sync.WaitGroup

	// orchDone carries the main loop's exit error (fatal startup only).
	orchDone chan error
}

// New wires the daemon's components from configuration.
func New(logger *slog.Logger, cfg *config.Config, version string) *Server {
	bus := events.NewBus()

	reg := registry.New(logger, bus, time.Duration(cfg.Registry.StaleWindowSeconds)*time.Second)
	reg.LoadManualDevices(cfg.ManualDevices)

	disc := registry.NewDiscoverer(reg, logger,
		time.Duration(cfg.Registry.RescanIntervalSeconds)*time.Second)

	queue := interrupt.NewQueue(logger, bus, cfg.Interrupts.Capacity)
	par := parser.New(logger, bus, time.Duration(cfg.Parser.TimeoutSeconds)*time.Second)
	source := audio.NewPushSource(logger)

	iotClient := iot.New(reg, logger, time.Duration(cfg.IoT.TimeoutSeconds)*time.Second)
	renderer := display.NewRenderer(display.NewClient(reg, logger), logger)

	todoFile := cfg.Todo.File
	if !filepath.IsAbs(todoFile) {
		todoFile = config.GetConfigPath(todoFile)
	}
	todos := todo.NewStore(logger, todoFile)

	weatherClient := weather.New(logger, cfg.Weather.APIKey, cfg.Weather.Latitude, cfg.Weather.Longitude)
	transClient := translate.New(logger, cfg.Translate.APIKey, cfg.Translate.SourceLang, cfg.Translate.TargetLang)

	orch := orchestrator.New(orchestrator.Options{
		Logger:          logger,
		Parser:          par,
		Registry:        reg,
		Queue:           queue,
		Audio:           source,
		Renderer:        renderer,
		IoT:             iotClient,
		Todos:           todos,
		Weather:         weatherClient,
		Trans:           transClient,
		ListenTimeout:   time.Duration(cfg.Audio.ListenTimeoutMs) * time.Millisecond,
		OverlayDuration: time.Duration(cfg.Interrupts.OverlaySeconds) * time.Second,
		StartupWait:     time.Duration(cfg.Registry.WaitTimeoutSeconds) * time.Second,
	})

	rootCtx, rootCancel := context.WithCancel(context.Background())

	s := &Server{
		logger:     logger,
		cfg:        cfg,
		bus:        bus,
		registry:   reg,
		discoverer: disc,
		queue:      queue,
		parser:     par,
		source:     source,
		orch:       orch,
		rootCtx:    rootCtx,
		rootCancel: rootCancel,
		orchDone:   make(chan error, 1),
	}
	s.httpServer = &http.Server{
		Addr:         cfg.Server.ListenAddress,
		Handler:      s.buildRouter(version),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// buildRouter assembles the Chi router, Huma API and WebSocket endpoint.
func (s *Server) buildRouter(version string) http.Handler {
	router := chi.NewRouter()
	router.Use(mw.RequestLogging(s.logger))
	router.Use(mw.RateLimitByIP(mw.DefaultRateLimitConfig()))

	humaConfig := routes.NewHumaConfig(version, "")
	api := humachi.New(router, humaConfig)

	routes.Register(api, &routes.Handlers{
		Health:     &handlers.HealthHandler{Queue: s.queue, Registry: s.registry},
		Interrupt:  &handlers.InterruptHandler{Sink: s.queue, Logger: s.logger},
		Transcript: &handlers.TranscriptHandler{Sink: s.source, Logger: s.logger},
		Device:     &handlers.DeviceHandler{Registry: s.registry},
		Logging:    &handlers.LoggingHandler{Logger: s.logger},
	})

	// The event stream bypasses Huma; gorilla handles the upgrade itself.
	wsHub := ws.NewHub(s.logger, s.bus)
	s.wg.Go(func() {
		defer s.recoverPanic("websocket hub")
		wsHub.Run(s.rootCtx)
	})
	router.Get("/api/v1/ws", ws.Handler(wsHub, s.logger))

	return router
}

// Start launches discovery, the HTTP listener and the orchestrator loop.
// It returns immediately; use Done to observe a fatal main-loop exit.
func (s *Server) Start() error {
	s.logger.Info("Starting irisd",
		"listen_address", s.cfg.Server.ListenAddress,
		"rescan_interval", s.cfg.Registry.RescanIntervalSeconds,
	)

	s.wg.Go(func() {
		defer s.recoverPanic("discovery")
		if err := s.discoverer.Run(s.rootCtx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("Discovery stopped", "error", err)
		}
	})

	s.wg.Go(func() {
		defer s.recoverPanic("http server")
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP server failed", "error", err)
		}
		s.logger.Info("HTTP server stopped")
	})

	s.wg.Go(func() {
		defer s.recoverPanic("orchestrator")
		s.orchDone <- s.orch.Run(s.rootCtx)
	})

	return nil
}

// Done yields the orchestrator's exit error. A non-nil value means the
// mandatory display never appeared and the daemon should exit.
func (s *Server) Done() <-chan error {
	return s.orchDone
}

// Stop shuts everything down: cancels the root context (stopping the
// orchestrator, discovery and the WebSocket hub), closes the HTTP
// listener, then waits for the goroutines to drain.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down irisd")
	s.rootCancel()

	var shutdownErr error
	if err := s.httpServer.Shutdown(ctx); err != nil {
		shutdownErr = fmt.Errorf("http shutdown: %w", err)
	}

	s.source.Close()
	s.queue.Close()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.logger.Info("irisd shut down gracefully")
	case <-ctx.Done():
		s.logger.Warn("shutdown deadline reached before services stopped")
	}
	return shutdownErr
}

func (s *Server) recoverPanic(name string) {
	if r := recover(); r != nil {
		s.logger.Error("panic in "+name, "recover", r)
	}
}
