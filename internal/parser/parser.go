// Package parser implements the voice command state machine. Parsing is
// purely a function of the current state and the transcript; side effects
// (device control, rendering) belong to the orchestrator, which interprets
// the returned Result.
package parser

import (
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ryunzz/iris/internal/events"
	"github.com/ryunzz/iris/internal/registry"
)

// State is one of the 13 voice interaction states.
type State string

const (
	StateIdle              State = "idle"
	StateMainMenu          State = "main_menu"
	StateTodoMenu          State = "todo_menu"
	StateTodoList          State = "todo_list"
	StateTodoAdd           State = "todo_add"
	StateTodoInstructions  State = "todo_instructions"
	StateTranslation       State = "translation"
	StateDeviceList        State = "device_list"
	StateConnectedLight    State = "connected_light"
	StateConnectedFan      State = "connected_fan"
	StateConnectedMotion   State = "connected_motion"
	StateConnectedDistance State = "connected_distance"
	StateConnectedGlasses  State = "connected_glasses"
)

// Actions emitted by the parser and dispatched by the orchestrator.
const (
	ActionScrollUp        = "scroll_up"
	ActionScrollDown      = "scroll_down"
	ActionMarkDone        = "mark_done"
	ActionMarkUndone      = "mark_undone"
	ActionAddTodo         = "add_todo"
	ActionCaptureTodoText = "capture_todo_text"
	ActionTranslate       = "translate"
	ActionConnectCurrent  = "connect_current"
	ActionConnectNamed    = "connect_named"
	ActionConnectNumbered = "connect_numbered"
	ActionLightOn         = "light_on"
	ActionLightOff        = "light_off"
	ActionFanOn           = "fan_on"
	ActionFanOff          = "fan_off"
	ActionFanLow          = "fan_low"
	ActionFanHigh         = "fan_high"
	ActionMotionOn        = "motion_on"
	ActionMotionOff       = "motion_off"
	ActionSendMessage     = "send_message"
)

// Result is what a single parse produced: a transition, an action, or
// neither (unrecognized input).
type Result struct {
	NewState State
	Action   string
	Data     map[string]string
}

// Recognized reports whether the parse produced anything at all.
func (r Result) Recognized() bool {
	return r.NewState != "" || r.Action != ""
}

// timeoutRule classifies a state's inactivity behavior.
type timeoutRule struct {
	fires  bool
	target State
}

// timeoutRules classifies every state explicitly. Unlisted states would
// fail open (no timeout), but the table is kept exhaustive so a new state
// cannot silently inherit surprise behavior.
var timeoutRules = map[State]timeoutRule{
	StateMainMenu:   {fires: true, target: StateIdle},
	StateTodoList:   {fires: true, target: StateIdle},
	StateDeviceList: {fires: true, target: StateIdle},

	// An in-progress dictation times out as an implicit cancel.
	StateTodoAdd: {fires: true, target: StateTodoList},

	StateIdle:              {},
	StateTodoMenu:          {},
	StateTodoInstructions:  {},
	StateTranslation:       {},
	StateConnectedLight:    {},
	StateConnectedFan:      {},
	StateConnectedMotion:   {},
	StateConnectedDistance: {},
	StateConnectedGlasses:  {},
}

// wordToDigit normalizes spoken number words used for menu selection.
var wordToDigit = map[string]string{
	"one": "1", "two": "2", "three": "3", "four": "4", "five": "5",
	"six": "6", "seven": "7", "eight": "8", "nine": "9",
}

// deviceAliases maps spoken device names to device types for
// connect-by-name.
var deviceAliases = map[string]registry.DeviceType{
	"light":           registry.DeviceLight,
	"smart light":     registry.DeviceLight,
	"fan":             registry.DeviceFan,
	"smart fan":       registry.DeviceFan,
	"motion":          registry.DeviceMotion,
	"motion sensor":   registry.DeviceMotion,
	"distance":        registry.DeviceDistance,
	"distance sensor": registry.DeviceDistance,
	"glasses":         registry.DeviceGlasses,
	"glasses 2":       registry.DeviceGlasses,
	"glasses two":     registry.DeviceGlasses,
}

// DeviceAliases returns the spoken-name table used for connect-by-name.
func DeviceAliases() map[string]registry.DeviceType {
	out := make(map[string]registry.DeviceType, len(deviceAliases))
	for k, v := range deviceAliases {
		out[k] = v
	}
	return out
}

// connectedStates maps a device type to its live control state.
var connectedStates = map[registry.DeviceType]State{
	registry.DeviceLight:    StateConnectedLight,
	registry.DeviceFan:      StateConnectedFan,
	registry.DeviceMotion:   StateConnectedMotion,
	registry.DeviceDistance: StateConnectedDistance,
	registry.DeviceGlasses:  StateConnectedGlasses,
}

// ConnectedStateFor returns the control state for a device type, falling
// back to the device list for types with no live screen (the pi).
func ConnectedStateFor(t registry.DeviceType) State {
	if s, ok := connectedStates[t]; ok {
		return s
	}
	return StateDeviceList
}

// Parser is the state machine. Safe for concurrent use, though in practice
// only the orchestrator loop drives it.
type Parser struct {
	mu          sync.Mutex
	state       State
	lastCommand time.Time
	stateData   map[string]string
	timeout     time.Duration
	logger      *slog.Logger
	bus         *events.Bus
}

// New creates a parser in the idle state. A nil bus disables event
// publication.
func New(logger *slog.Logger, bus *events.Bus, timeout time.Duration) *Parser {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	p := &Parser{
		state:       StateIdle,
		lastCommand: time.Now(),
		stateData:   make(map[string]string),
		timeout:     timeout,
		logger:      logger,
		bus:         bus,
	}
	logger.Info("parser: initialized", "state", StateIdle, "timeout", timeout)
	return p
}

// Parse routes a transcript through the handler for the current state and
// applies any resulting transition. Any non-empty transcript refreshes the
// inactivity timer, recognized or not, since speech means the user is
// still there.
func (p *Parser) Parse(transcript string) Result {
	transcript = strings.ToLower(strings.TrimSpace(transcript))
	if transcript == "" {
		return Result{}
	}

	cleaned := stripIrisPrefix(transcript)

	p.mu.Lock()
	p.lastCommand = time.Now()
	state := p.state
	p.mu.Unlock()

	p.logger.Info("parser: parsing", "transcript", cleaned, "state", state)

	var result Result
	switch state {
	case StateIdle:
		result = p.parseIdle(cleaned)
	case StateMainMenu:
		result = p.parseMainMenu(cleaned)
	case StateTodoMenu:
		result = p.parseTodoMenu(cleaned)
	case StateTodoInstructions:
		result = p.parseTodoInstructions(cleaned)
	case StateTodoList:
		result = p.parseTodoList(cleaned)
	case StateTodoAdd:
		result = p.parseTodoAdd(cleaned)
	case StateTranslation:
		result = p.parseTranslation(cleaned)
	case StateDeviceList:
		result = p.parseDeviceList(cleaned)
	case StateConnectedLight:
		result = p.parseConnectedLight(cleaned)
	case StateConnectedFan:
		result = p.parseConnectedFan(cleaned)
	case StateConnectedMotion:
		result = p.parseConnectedMotion(cleaned)
	case StateConnectedDistance:
		result = p.parseConnectedDistance(cleaned)
	case StateConnectedGlasses:
		result = p.parseConnectedGlasses(cleaned)
	default:
		p.logger.Warn("parser: no handler for state", "state", state)
	}

	if result.NewState != "" {
		p.TransitionTo(result.NewState)
	}
	return result
}

// CheckTimeout reports whether the current state's inactivity timeout has
// fired, applying the transition when it has.
func (p *Parser) CheckTimeout() (State, bool) {
	p.mu.Lock()
	elapsed := time.Since(p.lastCommand)
	state := p.state
	p.mu.Unlock()

	if elapsed < p.timeout {
		return "", false
	}
	rule := timeoutRules[state]
	if !rule.fires {
		return "", false
	}

	p.logger.Info("parser: state timed out", "state", state, "next", rule.target)
	p.TransitionTo(rule.target)
	return rule.target, true
}

// TransitionTo moves to a new state, clearing per-state data and resetting
// the inactivity timer. Transitioning to the current state only resets the
// timer.
func (p *Parser) TransitionTo(next State) {
	p.mu.Lock()
	old := p.state
	p.state = next
	p.lastCommand = time.Now()
	if old != next {
		p.stateData = make(map[string]string)
	}
	p.mu.Unlock()

	if old != next {
		p.logger.Info("parser: state transition", "from", old, "to", next)
		if p.bus != nil {
			p.bus.Publish(events.NewEvent(events.StateChanged, map[string]string{
				"from": string(old),
				"to":   string(next),
			}))
		}
	}
}

// CurrentState returns the current state.
func (p *Parser) CurrentState() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// SetStateData stores a scratch value for the current state. It is cleared
// on the next transition.
func (p *Parser) SetStateData(key, value string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stateData[key] = value
}

// GetStateData returns a scratch value for the current state.
func (p *Parser) GetStateData(key string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stateData[key]
}

// stripIrisPrefix removes a leading "iris " token from commands while
// leaving the "hey iris" wake phrase intact.
func stripIrisPrefix(transcript string) string {
	if strings.HasPrefix(transcript, "hey iris") {
		return transcript
	}
	if rest, ok := strings.CutPrefix(transcript, "iris "); ok {
		return strings.TrimSpace(rest)
	}
	return transcript
}

func normalizeNumberWord(transcript string) string {
	if d, ok := wordToDigit[transcript]; ok {
		return d
	}
	return transcript
}

// Per-state handlers. Each is a pure function of the transcript plus the
// parser's scratch data.

func (p *Parser) parseIdle(transcript string) Result {
	if strings.Contains(transcript, "hey iris") {
		return Result{NewState: StateMainMenu}
	}
	return Result{}
}

func (p *Parser) parseMainMenu(transcript string) Result {
	switch normalizeNumberWord(transcript) {
	case "todo", "1":
		return Result{NewState: StateTodoMenu}
	case "weather", "translation", "2":
		return Result{NewState: StateTranslation}
	case "connect", "3":
		return Result{NewState: StateDeviceList}
	case "back":
		return Result{NewState: StateIdle}
	}
	return Result{}
}

func (p *Parser) parseTodoMenu(transcript string) Result {
	switch normalizeNumberWord(transcript) {
	case "list", "1":
		return Result{NewState: StateTodoList}
	case "add", "2":
		return Result{NewState: StateTodoAdd}
	case "instructions", "3":
		return Result{NewState: StateTodoInstructions}
	}
	return Result{}
}

func (p *Parser) parseTodoInstructions(transcript string) Result {
	if transcript == "back" {
		return Result{NewState: StateTodoMenu}
	}
	return Result{}
}

func (p *Parser) parseTodoList(transcript string) Result {
	switch transcript {
	case "up":
		return Result{Action: ActionScrollUp}
	case "down":
		return Result{Action: ActionScrollDown}
	case "cross":
		return Result{Action: ActionMarkDone}
	case "uncross":
		return Result{Action: ActionMarkUndone}
	case "add":
		return Result{NewState: StateTodoAdd}
	case "back":
		return Result{NewState: StateTodoMenu}
	}
	return Result{}
}

func (p *Parser) parseTodoAdd(transcript string) Result {
	switch transcript {
	case "confirm":
		text := p.GetStateData("captured_text")
		if text == "" {
			return Result{}
		}
		return Result{
			NewState: StateTodoList,
			Action:   ActionAddTodo,
			Data:     map[string]string{"text": text},
		}
	case "cancel":
		return Result{NewState: StateTodoList}
	default:
		// Everything else is dictation, captured for the next "confirm"
		// and echoed back for live display.
		p.SetStateData("captured_text", transcript)
		return Result{Action: ActionCaptureTodoText, Data: map[string]string{"text": transcript}}
	}
}

func (p *Parser) parseTranslation(transcript string) Result {
	if transcript == "end" || strings.Contains(transcript, "iris end") {
		return Result{NewState: StateMainMenu}
	}
	// All other speech passes through as the live translation feed.
	return Result{Action: ActionTranslate, Data: map[string]string{"text": transcript}}
}

func (p *Parser) parseDeviceList(transcript string) Result {
	switch transcript {
	case "up":
		return Result{Action: ActionScrollUp}
	case "down":
		return Result{Action: ActionScrollDown}
	case "connect":
		return Result{Action: ActionConnectCurrent}
	case "back":
		return Result{NewState: StateMainMenu}
	}
	if name, ok := strings.CutPrefix(transcript, "connect "); ok {
		return Result{Action: ActionConnectNamed, Data: map[string]string{"name": name}}
	}
	if d := normalizeNumberWord(transcript); len(d) == 1 && d >= "1" && d <= "9" {
		n, _ := strconv.Atoi(d)
		return Result{Action: ActionConnectNumbered, Data: map[string]string{"index": strconv.Itoa(n - 1)}}
	}
	return Result{}
}

func (p *Parser) parseConnectedLight(transcript string) Result {
	switch transcript {
	case "on":
		return Result{Action: ActionLightOn}
	case "off":
		return Result{Action: ActionLightOff}
	case "back":
		return Result{NewState: StateDeviceList}
	}
	return Result{}
}

func (p *Parser) parseConnectedFan(transcript string) Result {
	switch transcript {
	case "on":
		return Result{Action: ActionFanOn}
	case "off":
		return Result{Action: ActionFanOff}
	case "low":
		return Result{Action: ActionFanLow}
	case "high":
		return Result{Action: ActionFanHigh}
	case "back":
		return Result{NewState: StateDeviceList}
	}
	return Result{}
}

func (p *Parser) parseConnectedMotion(transcript string) Result {
	switch transcript {
	case "on":
		return Result{Action: ActionMotionOn}
	case "off":
		return Result{Action: ActionMotionOff}
	case "back":
		return Result{NewState: StateDeviceList}
	}
	return Result{}
}

func (p *Parser) parseConnectedDistance(transcript string) Result {
	// Passive live readout, only an explicit exit is recognized.
	if transcript == "back" {
		return Result{NewState: StateDeviceList}
	}
	return Result{}
}

func (p *Parser) parseConnectedGlasses(transcript string) Result {
	if msg, ok := strings.CutPrefix(transcript, "send "); ok {
		return Result{Action: ActionSendMessage, Data: map[string]string{"message": msg}}
	}
	if transcript == "back" {
		return Result{NewState: StateDeviceList}
	}
	return Result{}
}
