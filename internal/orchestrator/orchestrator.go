// Package orchestrator runs the single-threaded main loop that ties the
// voice parser, device registry, interrupt queue and peripherals together.
// All display writes happen from this loop; no other component holds a
// renderer handle.
package orchestrator

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/ryunzz/iris/internal/audio"
	"github.com/ryunzz/iris/internal/display"
	"github.com/ryunzz/iris/internal/errors"
	"github.com/ryunzz/iris/internal/interrupt"
	"github.com/ryunzz/iris/internal/parser"
	"github.com/ryunzz/iris/internal/registry"
	"github.com/ryunzz/iris/internal/todo"
	"github.com/ryunzz/iris/internal/translate"
	"github.com/ryunzz/iris/internal/weather"
)

const (
	// todoWindow is how many todo rows fit under the list header.
	todoWindow = 3

	// notRecognizedDelay is how long the transient "?" screen stays up.
	notRecognizedDelay = 1 * time.Second

	// distanceTick is the refresh cadence of the live distance readout.
	distanceTick = 1 * time.Second
)

// IoT is the peripheral-command surface the loop dispatches actions to.
type IoT interface {
	SendCommand(ctx context.Context, t registry.DeviceType, command string) (map[string]any, error)
	GetDeviceStatus(ctx context.Context, t registry.DeviceType) (map[string]any, error)
	GetDistanceReading(ctx context.Context) (int, error)
	SendToGlasses(ctx context.Context, lines []string) bool
}

// WeatherProvider supplies the idle screen's current conditions.
type WeatherProvider interface {
	Current(ctx context.Context) (*weather.Report, error)
}

// Translator turns transcript text into a translated exchange.
type Translator interface {
	TranslateContinuous(ctx context.Context, text string) (translate.Exchange, error)
}

// Options carries the collaborators and tunables for the loop.
type Options struct {
	Logger   *slog.Logger
	Parser   *parser.Parser
	Registry *registry.Registry
	Queue    *interrupt.Queue
	Audio    audio.Source
	Renderer *display.Renderer
	IoT      IoT
	Todos    *todo.Store
	Weather  WeatherProvider
	Trans    Translator

	// ListenTimeout bounds the per-iteration transcript wait. Keep it
	// sub-second so interrupts stay responsive.
	ListenTimeout time.Duration

	// OverlayDuration is how long interrupt overlays stay on screen.
	OverlayDuration time.Duration

	// StartupWait is how long to wait for the display at startup before
	// giving up.
	StartupWait time.Duration
}

// Orchestrator is the cooperative main loop.
type Orchestrator struct {
	logger   *slog.Logger
	parser   *parser.Parser
	registry *registry.Registry
	queue    *interrupt.Queue
	audio    audio.Source
	renderer *display.Renderer
	iot      IoT
	todos    *todo.Store
	weather  WeatherProvider
	trans    Translator

	listenTimeout   time.Duration
	overlayDuration time.Duration
	startupWait     time.Duration

	// deviceCursor indexes into the registry display list. Only the loop
	// touches it.
	deviceCursor int

	// lastGlassesMessage is shown on the glasses chat screen.
	lastGlassesMessage   string
	lastGlassesDelivered bool

	// lastDistanceRender throttles the live distance readout.
	lastDistanceRender time.Time
}

// New assembles an orchestrator. Zero durations fall back to safe values.
func New(opts Options) *Orchestrator {
	if opts.ListenTimeout <= 0 {
		opts.ListenTimeout = 500 * time.Millisecond
	}
	if opts.OverlayDuration <= 0 {
		opts.OverlayDuration = 5 * time.Second
	}
	if opts.StartupWait <= 0 {
		opts.StartupWait = 30 * time.Second
	}
	return &Orchestrator{
		logger:          opts.Logger,
		parser:          opts.Parser,
		registry:        opts.Registry,
		queue:           opts.Queue,
		audio:           opts.Audio,
		renderer:        opts.Renderer,
		iot:             opts.IoT,
		todos:           opts.Todos,
		weather:         opts.Weather,
		trans:           opts.Trans,
		listenTimeout:   opts.ListenTimeout,
		overlayDuration: opts.OverlayDuration,
		startupWait:     opts.StartupWait,
	}
}

// Run blocks until ctx is cancelled. It returns an error only when the
// mandatory display never shows up within the startup wait; everything
// after that point is non-fatal.
func (o *Orchestrator) Run(ctx context.Context) error {
	if _, err := o.registry.WaitFor(ctx, registry.DevicePi, o.startupWait); err != nil {
		return errors.WrapErrorf(err, "orchestrator: display not found at startup")
	}
	o.logger.Info("orchestrator: display found, entering main loop")
	o.renderState(ctx, parser.StateIdle)

	for {
		select {
		case <-ctx.Done():
			o.teardown()
			return nil
		default:
		}

		// Interrupts pre-empt command processing for this iteration.
		if in, ok := o.queue.Poll(); ok {
			o.handleInterrupt(ctx, in)
			continue
		}

		if next, fired := o.parser.CheckTimeout(); fired {
			o.renderState(ctx, next)
		}

		o.refreshLiveReadout(ctx)

		transcript, err := o.audio.Listen(ctx, o.listenTimeout)
		if err != nil {
			// Only context cancellation reaches here; loop back to exit.
			continue
		}
		if transcript == "" {
			continue
		}

		res := o.parser.Parse(transcript)
		switch {
		case res.Action != "":
			o.dispatchAction(ctx, res)
		case res.NewState != "":
			o.renderState(ctx, res.NewState)
		default:
			o.showNotRecognized(ctx)
		}
	}
}

// teardown is the fixed shutdown sequence: blank the display and drop
// anything still queued.
func (o *Orchestrator) teardown() {
	o.renderer.Clear()
	if n := o.queue.Drain(); n > 0 {
		o.logger.Info("orchestrator: dropped pending interrupts on shutdown", "count", n)
	}
	o.logger.Info("orchestrator: main loop stopped")
}

// --- Interrupt handling ---

func (o *Orchestrator) handleInterrupt(ctx context.Context, in interrupt.Interrupt) {
	o.logger.Info("orchestrator: handling interrupt", "type", in.Type, "source", in.SourceAddr)

	switch in.Type {
	case interrupt.TypeMotion:
		o.renderer.ShowMotionInterrupt()
		o.overlayWait(ctx)

	case interrupt.TypeDeviceOffline:
		t := deviceTypeFromPayload(in.Payload)
		if t != "" {
			o.registry.MarkOffline(t)
			o.renderer.ShowMessage(string(t) + " went offline")
			o.overlayWait(ctx)
		}

	case interrupt.TypeDeviceOnline:
		t := deviceTypeFromPayload(in.Payload)
		if t != "" {
			d, ok := o.registry.Get(t)
			if !ok {
				// No record to refresh; discovery has to sight the
				// device before an online report means anything.
				o.logger.Warn("orchestrator: online report for unknown device", "type", t)
				return
			}
			o.registry.RecordSighting(t, d.Name, d.IP, d.Port, d.Hostname)
			o.renderer.ShowMessage(string(t) + " is online")
			o.overlayWait(ctx)
		}

	case interrupt.TypeSystemError:
		o.logger.Error("orchestrator: system error interrupt", "payload", in.Payload)
		o.renderer.ShowMessage("System error")
		o.overlayWait(ctx)

	default:
		o.logger.Warn("orchestrator: unknown interrupt type", "type", in.Type)
		return
	}

	o.renderCurrent(ctx)
}

// deviceTypeFromPayload pulls a valid device type out of an interrupt
// payload, or "" when absent or unknown.
func deviceTypeFromPayload(payload map[string]any) registry.DeviceType {
	raw, _ := payload["type"].(string)
	t := registry.DeviceType(raw)
	if !registry.IsValidDeviceType(t) {
		return ""
	}
	return t
}

// overlayWait keeps an overlay on screen for the configured duration,
// returning early on shutdown.
func (o *Orchestrator) overlayWait(ctx context.Context) {
	timer := time.NewTimer(o.overlayDuration)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// --- Rendering ---

// renderCurrent redraws whatever state the parser is in.
func (o *Orchestrator) renderCurrent(ctx context.Context) {
	o.renderState(ctx, o.parser.CurrentState())
}

// renderState draws the screen for a state, fetching whatever data it
// needs. Fetch failures degrade the screen, never the loop.
func (o *Orchestrator) renderState(ctx context.Context, s parser.State) {
	switch s {
	case parser.StateIdle:
		report, err := o.weather.Current(ctx)
		if err != nil {
			o.logger.Debug("orchestrator: weather unavailable", "error", err)
			report = nil
		}
		o.renderer.ShowIdle(report)

	case parser.StateMainMenu:
		o.renderer.ShowMainMenu()

	case parser.StateTodoMenu:
		o.renderer.ShowTodoMenu()

	case parser.StateTodoInstructions:
		o.renderer.ShowTodoInstructions()

	case parser.StateTodoList:
		o.renderer.ShowTodoList(o.todos.Visible(todoWindow), o.todos.GetStats())

	case parser.StateTodoAdd:
		o.renderer.ShowTodoCapture(o.parser.GetStateData("captured_text"))

	case parser.StateTranslation:
		o.renderer.ShowTranslationIntro()

	case parser.StateDeviceList:
		rows := o.registry.DisplayList()
		o.clampDeviceCursor(len(rows))
		o.renderer.ShowDeviceList(rows, o.deviceCursor)

	case parser.StateConnectedLight, parser.StateConnectedFan, parser.StateConnectedMotion:
		t := deviceForConnectedState(s)
		status, err := o.iot.GetDeviceStatus(ctx, t)
		if err != nil {
			o.logger.Warn("orchestrator: status fetch failed", "device", t, "error", err)
			status = nil
		}
		o.renderer.ShowConnected(t, status)

	case parser.StateConnectedDistance:
		o.renderDistance(ctx)

	case parser.StateConnectedGlasses:
		o.renderer.ShowGlassesChat(o.lastGlassesMessage, o.lastGlassesDelivered)

	default:
		o.logger.Warn("orchestrator: no screen for state", "state", s)
	}
}

// deviceForConnectedState inverts parser.ConnectedStateFor for the three
// statusful control screens.
func deviceForConnectedState(s parser.State) registry.DeviceType {
	switch s {
	case parser.StateConnectedLight:
		return registry.DeviceLight
	case parser.StateConnectedFan:
		return registry.DeviceFan
	case parser.StateConnectedMotion:
		return registry.DeviceMotion
	}
	return ""
}

func (o *Orchestrator) renderDistance(ctx context.Context) {
	cm, err := o.iot.GetDistanceReading(ctx)
	if err != nil {
		o.renderer.ShowDistanceUnavailable()
	} else {
		o.renderer.ShowDistance(cm)
	}
	o.lastDistanceRender = time.Now()
}

// refreshLiveReadout re-renders the distance screen on a fixed tick while
// it is up. Other screens only redraw on state changes and actions.
func (o *Orchestrator) refreshLiveReadout(ctx context.Context) {
	if o.parser.CurrentState() != parser.StateConnectedDistance {
		return
	}
	if time.Since(o.lastDistanceRender) < distanceTick {
		return
	}
	o.renderDistance(ctx)
}

func (o *Orchestrator) showNotRecognized(ctx context.Context) {
	o.renderer.ShowNotRecognized()
	timer := time.NewTimer(notRecognizedDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}
	o.renderCurrent(ctx)
}

func (o *Orchestrator) clampDeviceCursor(rows int) {
	if rows == 0 {
		o.deviceCursor = 0
		return
	}
	if o.deviceCursor >= rows {
		o.deviceCursor = rows - 1
	}
	if o.deviceCursor < 0 {
		o.deviceCursor = 0
	}
}

// --- Action dispatch ---

func (o *Orchestrator) dispatchAction(ctx context.Context, res parser.Result) {
	o.logger.Info("orchestrator: dispatching action", "action", res.Action)

	switch res.Action {
	case parser.ActionScrollUp, parser.ActionScrollDown:
		o.handleScroll(ctx, res.Action)

	case parser.ActionMarkDone:
		o.todos.Cross()
		o.renderState(ctx, parser.StateTodoList)

	case parser.ActionMarkUndone:
		o.todos.Uncross()
		o.renderState(ctx, parser.StateTodoList)

	case parser.ActionAddTodo:
		if text := res.Data["text"]; text != "" {
			o.todos.Add(text)
		}
		o.renderState(ctx, parser.StateTodoList)

	case parser.ActionCaptureTodoText:
		text := res.Data["text"]
		o.parser.SetStateData("captured_text", text)
		o.renderer.ShowTodoCapture(text)

	case parser.ActionTranslate:
		o.handleTranslate(ctx, res.Data["text"])

	case parser.ActionConnectCurrent:
		rows := o.registry.DisplayList()
		o.clampDeviceCursor(len(rows))
		if len(rows) == 0 {
			o.renderer.ShowMessage("No devices found")
			return
		}
		o.connectTo(ctx, rows[o.deviceCursor].Type)

	case parser.ActionConnectNamed:
		name := res.Data["name"]
		t, ok := parser.DeviceAliases()[name]
		if !ok {
			o.logger.Info("orchestrator: unknown device name", "name", name)
			o.showNotRecognized(ctx)
			return
		}
		o.connectTo(ctx, t)

	case parser.ActionConnectNumbered:
		idx, err := strconv.Atoi(res.Data["index"])
		rows := o.registry.DisplayList()
		if err != nil || idx < 0 || idx >= len(rows) {
			o.logger.Info("orchestrator: device number out of range", "index", res.Data["index"])
			o.showNotRecognized(ctx)
			return
		}
		o.deviceCursor = idx
		o.connectTo(ctx, rows[idx].Type)

	case parser.ActionLightOn:
		o.sendDeviceCommand(ctx, registry.DeviceLight, "on")
	case parser.ActionLightOff:
		o.sendDeviceCommand(ctx, registry.DeviceLight, "off")

	case parser.ActionFanOn:
		o.sendDeviceCommand(ctx, registry.DeviceFan, "on")
	case parser.ActionFanOff:
		o.sendDeviceCommand(ctx, registry.DeviceFan, "off")
	case parser.ActionFanLow:
		o.sendDeviceCommand(ctx, registry.DeviceFan, "low")
	case parser.ActionFanHigh:
		o.sendDeviceCommand(ctx, registry.DeviceFan, "high")

	case parser.ActionMotionOn:
		o.sendDeviceCommand(ctx, registry.DeviceMotion, "on")
	case parser.ActionMotionOff:
		o.sendDeviceCommand(ctx, registry.DeviceMotion, "off")

	case parser.ActionSendMessage:
		o.handleSendMessage(ctx, res.Data["message"])

	default:
		o.logger.Warn("orchestrator: unknown action", "action", res.Action)
	}
}

// handleScroll is state-dependent: the todo list scrolls the store cursor,
// the device list scrolls the loop's own cursor.
func (o *Orchestrator) handleScroll(ctx context.Context, action string) {
	switch o.parser.CurrentState() {
	case parser.StateTodoList:
		if action == parser.ActionScrollUp {
			o.todos.ScrollUp()
		} else {
			o.todos.ScrollDown()
		}
		o.renderState(ctx, parser.StateTodoList)

	case parser.StateDeviceList:
		rows := o.registry.DisplayList()
		if action == parser.ActionScrollUp {
			o.deviceCursor--
		} else {
			o.deviceCursor++
		}
		o.clampDeviceCursor(len(rows))
		o.renderer.ShowDeviceList(rows, o.deviceCursor)

	default:
		o.logger.Warn("orchestrator: scroll in unexpected state", "state", o.parser.CurrentState())
	}
}

func (o *Orchestrator) handleTranslate(ctx context.Context, text string) {
	if text == "" {
		return
	}
	ex, err := o.trans.TranslateContinuous(ctx, text)
	if err != nil {
		o.logger.Warn("orchestrator: translation failed", "error", err)
		o.renderer.ShowMessage("Translation failed")
		return
	}
	o.renderer.ShowTranslation(ex)
}

// connectTo switches to a device's control screen, or shows a connection
// error and stays on the device list when it is offline.
func (o *Orchestrator) connectTo(ctx context.Context, t registry.DeviceType) {
	if !o.registry.IsOnline(t) {
		name := string(t)
		if d, ok := o.registry.Get(t); ok && d.Name != "" {
			name = d.Name
		}
		o.logger.Info("orchestrator: connect refused, device offline", "device", t)
		o.renderer.ShowConnectionError(name)
		return
	}
	next := parser.ConnectedStateFor(t)
	o.parser.TransitionTo(next)
	o.renderState(ctx, next)
}

// sendDeviceCommand runs a control command and redraws the connected
// screen, or surfaces a connection error when the device dropped out.
func (o *Orchestrator) sendDeviceCommand(ctx context.Context, t registry.DeviceType, command string) {
	if _, err := o.iot.SendCommand(ctx, t, command); err != nil {
		o.logger.Warn("orchestrator: device command failed", "device", t, "command", command, "error", err)
		o.renderer.ShowConnectionError(string(t))
		return
	}
	o.renderCurrent(ctx)
}

func (o *Orchestrator) handleSendMessage(ctx context.Context, message string) {
	if message == "" {
		return
	}
	delivered := o.iot.SendToGlasses(ctx, display.WrapText(message))
	o.lastGlassesMessage = message
	o.lastGlassesDelivered = delivered
	o.renderer.ShowGlassesChat(message, delivered)
}
