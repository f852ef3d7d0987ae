package display

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryunzz/iris/internal/registry"
	"github.com/ryunzz/iris/internal/todo"
	"github.com/ryunzz/iris/internal/translate"
	"github.com/ryunzz/iris/internal/weather"
)

// fakeSender records frames instead of talking to the Pi.
type fakeSender struct {
	frames  [][]string
	cleared int
}

func (f *fakeSender) ShowLines(lines []string) bool {
	f.frames = append(f.frames, FitLines(lines))
	return true
}

func (f *fakeSender) Clear() bool {
	f.cleared++
	return true
}

func (f *fakeSender) last() []string {
	if len(f.frames) == 0 {
		return nil
	}
	return f.frames[len(f.frames)-1]
}

func newTestRenderer() (*Renderer, *fakeSender) {
	sender := &fakeSender{}
	return NewRenderer(sender, testLogger()), sender
}

func TestShowIdleWithWeather(t *testing.T) {
	r, sender := newTestRenderer()
	r.ShowIdle(&weather.Report{
		City:        "College Station",
		TempF:       88,
		Description: "clear sky",
		Humidity:    61,
	})

	frame := sender.last()
	require.Len(t, frame, 4)
	assert.Equal(t, "College Station", frame[0])
	assert.Equal(t, "88°F clear sky", frame[1])
	assert.Equal(t, "Humidity: 61%", frame[2])
}

func TestShowIdleWithoutWeather(t *testing.T) {
	r, sender := newTestRenderer()
	r.ShowIdle(nil)

	frame := sender.last()
	assert.Equal(t, "Iris Smart Glasses", frame[0])
	assert.Equal(t, "Say 'Hey Iris...'", frame[3])
}

func TestShowMenus(t *testing.T) {
	r, sender := newTestRenderer()

	r.ShowMainMenu()
	assert.Equal(t, []string{"MAIN MENU", "1. Todo", "2. Translation", "3. Connect"}, sender.last())

	r.ShowTodoMenu()
	assert.Equal(t, "TODO", sender.last()[0])

	r.ShowTodoInstructions()
	assert.Equal(t, "TODO HELP", sender.last()[0])
}

func TestShowTodoList(t *testing.T) {
	r, sender := newTestRenderer()

	r.ShowTodoList(nil, todo.Stats{})
	assert.Equal(t, "TODO (empty)", sender.last()[0])

	r.ShowTodoList([]todo.VisibleItem{
		{Text: "buy milk", Done: true},
		{Text: "call mom", IsCurrent: true},
	}, todo.Stats{Total: 2, Done: 1, Pending: 1})

	frame := sender.last()
	require.Len(t, frame, 4)
	assert.Equal(t, "TODO (1/2 done)", frame[0])
	assert.Equal(t, "  [x] buy milk", frame[1])
	assert.Equal(t, "> [ ] call mom", frame[2])
	assert.Equal(t, "", frame[3])
}

func TestShowTodoCapture(t *testing.T) {
	r, sender := newTestRenderer()

	r.ShowTodoCapture("")
	assert.Equal(t, "Speak your item", sender.last()[1])

	r.ShowTodoCapture("water the plants")
	frame := sender.last()
	assert.Equal(t, "NEW TODO", frame[0])
	assert.Equal(t, "water the plants", frame[1])
	assert.Equal(t, "confirm / cancel", frame[3])
}

func TestShowDeviceListWindow(t *testing.T) {
	r, sender := newTestRenderer()

	rows := []registry.Listing{
		{Name: "light", Type: registry.DeviceLight, Status: "Online"},
		{Name: "fan", Type: registry.DeviceFan, Status: "Offline"},
		{Name: "distance", Type: registry.DeviceDistance, Status: "Online"},
		{Name: "motion", Type: registry.DeviceMotion, Status: "Online"},
	}

	r.ShowDeviceList(rows, 0)
	frame := sender.last()
	assert.Equal(t, "DEVICES", frame[0])
	assert.Equal(t, "> light Online", frame[1])

	r.ShowDeviceList(rows, 3)
	frame = sender.last()
	assert.Equal(t, "> motion Online", frame[3])
	assert.Equal(t, "  fan Offline", frame[1])

	r.ShowDeviceList(nil, 0)
	assert.Equal(t, "None found", sender.last()[1])
}

func TestShowConnected(t *testing.T) {
	r, sender := newTestRenderer()
	r.ShowConnected(registry.DeviceFan, map[string]any{"status": "on", "speed": "low"})

	frame := sender.last()
	assert.Equal(t, "FAN", frame[0])
	assert.Equal(t, "status: on", frame[1])
	assert.Equal(t, "speed: low", frame[2])
	assert.Equal(t, "Say 'back' to exit", frame[3])
}

func TestShowDistance(t *testing.T) {
	r, sender := newTestRenderer()
	r.ShowDistance(42)
	assert.Equal(t, "42 cm", sender.last()[1])

	r.ShowDistanceUnavailable()
	assert.Equal(t, "No reading", sender.last()[1])
}

func TestShowTranslation(t *testing.T) {
	r, sender := newTestRenderer()
	r.ShowTranslation(translate.Exchange{Original: "hello", Translated: "bonjour"})

	frame := sender.last()
	assert.Equal(t, "hello", frame[1])
	assert.Equal(t, "bonjour", frame[2])
}

func TestShowMotionInterrupt(t *testing.T) {
	r, sender := newTestRenderer()
	r.ShowMotionInterrupt()
	assert.Equal(t, "! MOTION DETECTED !", sender.last()[0])
}

func TestShowConnectionError(t *testing.T) {
	r, sender := newTestRenderer()
	r.ShowConnectionError("fan")
	assert.Equal(t, "CONNECTION ERROR", sender.last()[0])
	assert.Equal(t, "fan", sender.last()[1])
}

func TestClear(t *testing.T) {
	r, sender := newTestRenderer()
	r.Clear()
	assert.Equal(t, 1, sender.cleared)
}
