package orchestrator

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryunzz/iris/internal/audio"
	"github.com/ryunzz/iris/internal/display"
	"github.com/ryunzz/iris/internal/errors"
	"github.com/ryunzz/iris/internal/events"
	"github.com/ryunzz/iris/internal/interrupt"
	"github.com/ryunzz/iris/internal/parser"
	"github.com/ryunzz/iris/internal/registry"
	"github.com/ryunzz/iris/internal/todo"
	"github.com/ryunzz/iris/internal/translate"
	"github.com/ryunzz/iris/internal/weather"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

// --- Fakes ---

type fakeSender struct {
	mu      sync.Mutex
	frames  [][]string
	cleared int
}

func (f *fakeSender) ShowLines(lines []string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	frame := make([]string, len(lines))
	copy(frame, lines)
	f.frames = append(f.frames, frame)
	return true
}

func (f *fakeSender) Clear() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared++
	return true
}

func (f *fakeSender) hasFrame(substr string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, frame := range f.frames {
		if strings.Contains(strings.Join(frame, "\n"), substr) {
			return true
		}
	}
	return false
}

func (f *fakeSender) lastFrame() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.frames) == 0 {
		return nil
	}
	return f.frames[len(f.frames)-1]
}

func (f *fakeSender) clearCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cleared
}

type fakeIoT struct {
	mu          sync.Mutex
	commands    []string
	sendErr     error
	status      map[string]any
	statusErr   error
	distance    int
	distanceErr error
	glasses     [][]string
	glassesOK   bool
}

func (f *fakeIoT) SendCommand(_ context.Context, t registry.DeviceType, command string) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.commands = append(f.commands, string(t)+":"+command)
	return map[string]any{"status": command}, nil
}

func (f *fakeIoT) GetDeviceStatus(_ context.Context, _ registry.DeviceType) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	return f.status, nil
}

func (f *fakeIoT) GetDistanceReading(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.distanceErr != nil {
		return 0, f.distanceErr
	}
	return f.distance, nil
}

func (f *fakeIoT) SendToGlasses(_ context.Context, lines []string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.glasses = append(f.glasses, lines)
	return f.glassesOK
}

func (f *fakeIoT) sentCommands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.commands))
	copy(out, f.commands)
	return out
}

type fakeWeather struct {
	report *weather.Report
	err    error
}

func (f *fakeWeather) Current(_ context.Context) (*weather.Report, error) {
	return f.report, f.err
}

type fakeTranslator struct {
	err error
}

func (f *fakeTranslator) TranslateContinuous(_ context.Context, text string) (translate.Exchange, error) {
	if f.err != nil {
		return translate.Exchange{}, f.err
	}
	return translate.Exchange{Original: text, Translated: "fr: " + text, At: time.Now()}, nil
}

// --- Harness ---

type harness struct {
	orch    *Orchestrator
	sender  *fakeSender
	iot     *fakeIoT
	reg     *registry.Registry
	queue   *interrupt.Queue
	par     *parser.Parser
	source  *audio.PushSource
	todos   *todo.Store
	weather *fakeWeather
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := testLogger()
	bus := events.NewBus()

	h := &harness{
		sender:  &fakeSender{},
		iot:     &fakeIoT{status: map[string]any{"status": "on"}, distance: 42, glassesOK: true},
		reg:     registry.New(logger, bus, 0),
		queue:   interrupt.NewQueue(logger, bus, 10),
		par:     parser.New(logger, bus, time.Minute),
		source:  audio.NewPushSource(logger),
		todos:   todo.NewStore(logger, filepath.Join(t.TempDir(), "todos.json")),
		weather: &fakeWeather{},
	}
	h.orch = New(Options{
		Logger:          logger,
		Parser:          h.par,
		Registry:        h.reg,
		Queue:           h.queue,
		Audio:           h.source,
		Renderer:        display.NewRenderer(h.sender, logger),
		IoT:             h.iot,
		Todos:           h.todos,
		Weather:         h.weather,
		Trans:           &fakeTranslator{},
		ListenTimeout:   10 * time.Millisecond,
		OverlayDuration: 20 * time.Millisecond,
		StartupWait:     100 * time.Millisecond,
	})
	return h
}

func (h *harness) addPi() {
	h.reg.RecordSighting(registry.DevicePi, "pi", "192.168.1.10", 5001, "")
}

// --- Action dispatch ---

func TestDispatch_AddTodo(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.orch.dispatchAction(ctx, parser.Result{
		NewState: parser.StateTodoList,
		Action:   parser.ActionAddTodo,
		Data:     map[string]string{"text": "buy milk"},
	})

	items := h.todos.All()
	require.Len(t, items, 1)
	assert.Equal(t, "buy milk", items[0].Text)
	assert.True(t, h.sender.hasFrame("buy milk"))
}

func TestDispatch_CaptureTodoText(t *testing.T) {
	h := newHarness(t)
	h.par.TransitionTo(parser.StateTodoAdd)

	h.orch.dispatchAction(context.Background(), parser.Result{
		Action: parser.ActionCaptureTodoText,
		Data:   map[string]string{"text": "water plants"},
	})

	assert.Equal(t, "water plants", h.par.GetStateData("captured_text"))
	assert.True(t, h.sender.hasFrame("water plants"))
}

func TestDispatch_MarkDone(t *testing.T) {
	h := newHarness(t)
	h.todos.Add("task")

	h.orch.dispatchAction(context.Background(), parser.Result{Action: parser.ActionMarkDone})

	items := h.todos.All()
	require.Len(t, items, 1)
	assert.True(t, items[0].Done)
	assert.True(t, h.sender.hasFrame("[x]"))
}

func TestDispatch_ScrollDeviceList(t *testing.T) {
	h := newHarness(t)
	h.reg.RecordSighting(registry.DeviceLight, "light", "192.168.1.20", 80, "")
	h.reg.RecordSighting(registry.DeviceFan, "fan", "192.168.1.21", 80, "")
	h.par.TransitionTo(parser.StateDeviceList)

	h.orch.dispatchAction(context.Background(), parser.Result{Action: parser.ActionScrollDown})
	assert.Equal(t, 1, h.orch.deviceCursor)

	// Clamped at the bottom
	h.orch.dispatchAction(context.Background(), parser.Result{Action: parser.ActionScrollDown})
	assert.Equal(t, 1, h.orch.deviceCursor)

	h.orch.dispatchAction(context.Background(), parser.Result{Action: parser.ActionScrollUp})
	assert.Equal(t, 0, h.orch.deviceCursor)
}

func TestDispatch_ConnectNamed(t *testing.T) {
	h := newHarness(t)
	h.reg.RecordSighting(registry.DeviceLight, "light", "192.168.1.20", 80, "")
	h.par.TransitionTo(parser.StateDeviceList)

	h.orch.dispatchAction(context.Background(), parser.Result{
		Action: parser.ActionConnectNamed,
		Data:   map[string]string{"name": "light"},
	})

	assert.Equal(t, parser.StateConnectedLight, h.par.CurrentState())
	assert.True(t, h.sender.hasFrame("LIGHT"))
}

func TestDispatch_ConnectNumbered(t *testing.T) {
	h := newHarness(t)
	h.reg.RecordSighting(registry.DeviceLight, "light", "192.168.1.20", 80, "")
	h.reg.RecordSighting(registry.DeviceFan, "fan", "192.168.1.21", 80, "")
	h.par.TransitionTo(parser.StateDeviceList)

	// "2" selects the fan (second row in display order)
	h.orch.dispatchAction(context.Background(), parser.Result{
		Action: parser.ActionConnectNumbered,
		Data:   map[string]string{"index": "1"},
	})

	assert.Equal(t, parser.StateConnectedFan, h.par.CurrentState())
	assert.Equal(t, 1, h.orch.deviceCursor)
}

func TestDispatch_ConnectOffline(t *testing.T) {
	h := newHarness(t)
	h.reg.RecordSighting(registry.DeviceLight, "light", "192.168.1.20", 80, "")
	h.reg.MarkOffline(registry.DeviceLight)
	h.par.TransitionTo(parser.StateDeviceList)

	h.orch.dispatchAction(context.Background(), parser.Result{
		Action: parser.ActionConnectNamed,
		Data:   map[string]string{"name": "light"},
	})

	assert.Equal(t, parser.StateDeviceList, h.par.CurrentState())
	assert.True(t, h.sender.hasFrame("CONNECTION ERROR"))
}

func TestDispatch_FanCommands(t *testing.T) {
	h := newHarness(t)
	h.par.TransitionTo(parser.StateConnectedFan)

	ctx := context.Background()
	h.orch.dispatchAction(ctx, parser.Result{Action: parser.ActionFanHigh})
	h.orch.dispatchAction(ctx, parser.Result{Action: parser.ActionFanOff})

	assert.Equal(t, []string{"fan:high", "fan:off"}, h.iot.sentCommands())
}

func TestDispatch_DeviceCommandFailure(t *testing.T) {
	h := newHarness(t)
	h.iot.sendErr = errors.DeviceOfflinef("light gone")
	h.par.TransitionTo(parser.StateConnectedLight)

	h.orch.dispatchAction(context.Background(), parser.Result{Action: parser.ActionLightOn})

	assert.True(t, h.sender.hasFrame("CONNECTION ERROR"))
}

func TestDispatch_Translate(t *testing.T) {
	h := newHarness(t)
	h.par.TransitionTo(parser.StateTranslation)

	h.orch.dispatchAction(context.Background(), parser.Result{
		Action: parser.ActionTranslate,
		Data:   map[string]string{"text": "hello there"},
	})

	assert.True(t, h.sender.hasFrame("fr: hello there"))
}

func TestDispatch_TranslateFailure(t *testing.T) {
	h := newHarness(t)
	h.orch.trans = &fakeTranslator{err: errors.Internalf("api down")}

	h.orch.dispatchAction(context.Background(), parser.Result{
		Action: parser.ActionTranslate,
		Data:   map[string]string{"text": "hello"},
	})

	assert.True(t, h.sender.hasFrame("Translation failed"))
}

func TestDispatch_SendMessage(t *testing.T) {
	h := newHarness(t)
	h.par.TransitionTo(parser.StateConnectedGlasses)

	h.orch.dispatchAction(context.Background(), parser.Result{
		Action: parser.ActionSendMessage,
		Data:   map[string]string{"message": "on my way"},
	})

	require.Len(t, h.iot.glasses, 1)
	assert.True(t, h.sender.hasFrame("Sent"))
	assert.Equal(t, "on my way", h.orch.lastGlassesMessage)
}

func TestDispatch_UnknownActionIgnored(t *testing.T) {
	h := newHarness(t)
	h.orch.dispatchAction(context.Background(), parser.Result{Action: "launch_rocket"})
	assert.Empty(t, h.iot.sentCommands())
}

// --- Rendering ---

func TestRenderState_IdleWeatherFallback(t *testing.T) {
	h := newHarness(t)
	h.weather.err = errors.InvalidInputf("no api key")

	h.orch.renderState(context.Background(), parser.StateIdle)

	assert.True(t, h.sender.hasFrame("Iris Smart Glasses"))
}

func TestRenderState_IdleWithWeather(t *testing.T) {
	h := newHarness(t)
	h.weather.report = &weather.Report{City: "College Station", TempF: 88, Description: "clear sky", Humidity: 40}

	h.orch.renderState(context.Background(), parser.StateIdle)

	assert.True(t, h.sender.hasFrame("College Station"))
}

func TestRenderState_DistanceUnavailable(t *testing.T) {
	h := newHarness(t)
	h.iot.distanceErr = errors.DeviceOfflinef("sensor gone")

	h.orch.renderState(context.Background(), parser.StateConnectedDistance)

	assert.True(t, h.sender.hasFrame("No reading"))
}

func TestRefreshLiveReadout_Throttled(t *testing.T) {
	h := newHarness(t)
	h.par.TransitionTo(parser.StateConnectedDistance)
	ctx := context.Background()

	h.orch.refreshLiveReadout(ctx)
	first := len(h.sender.frames)
	h.orch.refreshLiveReadout(ctx)

	assert.Equal(t, first, len(h.sender.frames))
	assert.True(t, h.sender.hasFrame("42 cm"))
}

// --- Interrupt handling ---

func TestHandleInterrupt_Motion(t *testing.T) {
	h := newHarness(t)

	h.orch.handleInterrupt(context.Background(), interrupt.New(interrupt.TypeMotion, nil, "192.168.1.30"))

	assert.True(t, h.sender.hasFrame("! MOTION DETECTED !"))
	// Restores the idle screen after the overlay
	assert.True(t, h.sender.hasFrame("Iris Smart Glasses"))
}

func TestHandleInterrupt_DeviceOffline(t *testing.T) {
	h := newHarness(t)
	h.reg.RecordSighting(registry.DeviceLight, "light", "192.168.1.20", 80, "")

	h.orch.handleInterrupt(context.Background(), interrupt.New(
		interrupt.TypeDeviceOffline, map[string]any{"type": "light"}, ""))

	assert.False(t, h.reg.IsOnline(registry.DeviceLight))
	assert.True(t, h.sender.hasFrame("went offline"))
}

func TestHandleInterrupt_DeviceOnline(t *testing.T) {
	h := newHarness(t)
	h.reg.RecordSighting(registry.DeviceFan, "fan", "192.168.1.21", 80, "")
	h.reg.MarkOffline(registry.DeviceFan)

	h.orch.handleInterrupt(context.Background(), interrupt.New(
		interrupt.TypeDeviceOnline, map[string]any{"type": "fan"}, ""))

	assert.True(t, h.reg.IsOnline(registry.DeviceFan))
}

func TestHandleInterrupt_OnlineForUnseenDevice(t *testing.T) {
	h := newHarness(t)

	h.orch.handleInterrupt(context.Background(), interrupt.New(
		interrupt.TypeDeviceOnline, map[string]any{"type": "fan"}, ""))

	// No registry record to refresh, so no overlay either
	assert.Empty(t, h.sender.frames)
	_, ok := h.reg.Get(registry.DeviceFan)
	assert.False(t, ok)
}

func TestHandleInterrupt_UnknownPayloadType(t *testing.T) {
	h := newHarness(t)

	h.orch.handleInterrupt(context.Background(), interrupt.New(
		interrupt.TypeDeviceOffline, map[string]any{"type": "toaster"}, ""))

	// Nothing rendered, nothing marked
	assert.Empty(t, h.sender.frames)
}

// --- Run loop ---

func TestRun_FatalWithoutDisplay(t *testing.T) {
	h := newHarness(t)

	err := h.orch.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestRun_WakeToMainMenu(t *testing.T) {
	h := newHarness(t)
	h.addPi()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.orch.Run(ctx) }()

	require.True(t, h.source.Push("hey iris"))

	assert.Eventually(t, func() bool {
		return h.sender.hasFrame("MAIN MENU")
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	assert.GreaterOrEqual(t, h.sender.clearCount(), 1)
}

func TestRun_MotionInterruptPreempts(t *testing.T) {
	h := newHarness(t)
	h.addPi()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.orch.Run(ctx) }()

	h.queue.Push(interrupt.New(interrupt.TypeMotion, nil, "192.168.1.30"))

	assert.Eventually(t, func() bool {
		return h.sender.hasFrame("! MOTION DETECTED !")
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestRun_NotRecognized(t *testing.T) {
	h := newHarness(t)
	h.addPi()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.orch.Run(ctx) }()

	// Unrecognized while idle ("hey iris" absent)
	require.True(t, h.source.Push("open the pod bay doors"))

	assert.Eventually(t, func() bool {
		return h.sender.hasFrame("Not recognized")
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}
