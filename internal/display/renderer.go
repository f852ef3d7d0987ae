package display

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/ryunzz/iris/internal/registry"
	"github.com/ryunzz/iris/internal/todo"
	"github.com/ryunzz/iris/internal/translate"
	"github.com/ryunzz/iris/internal/weather"
)

// listWindow is how many list rows fit under a screen header.
const listWindow = 3

// Renderer formats every screen the hub can show and pushes frames
// through a Sender. Only the orchestrator loop calls it, so frames are
// never interleaved.
type Renderer struct {
	sender Sender
	logger *slog.Logger
}

// NewRenderer creates a renderer on top of a line-level display.
func NewRenderer(sender Sender, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{sender: sender, logger: logger}
}

// ShowIdle renders the resting screen: weather when available, otherwise
// the ready banner.
func (r *Renderer) ShowIdle(report *weather.Report) {
	if report == nil {
		r.show([]string{
			"Iris Smart Glasses",
			"",
			"Ready for commands",
			"Say 'Hey Iris...'",
		})
		return
	}
	desc := report.Description
	if len(desc) > 10 {
		desc = desc[:10]
	}
	r.show([]string{
		report.City,
		fmt.Sprintf("%d°F %s", report.TempF, desc),
		fmt.Sprintf("Humidity: %d%%", report.Humidity),
		time.Now().Format("Mon 3:04 PM"),
	})
}

// ShowMainMenu renders the top-level menu.
func (r *Renderer) ShowMainMenu() {
	r.show([]string{
		"MAIN MENU",
		"1. Todo",
		"2. Translation",
		"3. Connect",
	})
}

// ShowTodoMenu renders the todo submenu.
func (r *Renderer) ShowTodoMenu() {
	r.show([]string{
		"TODO",
		"1. List",
		"2. Add",
		"3. Instructions",
	})
}

// ShowTodoInstructions renders the todo usage help.
func (r *Renderer) ShowTodoInstructions() {
	r.show([]string{
		"TODO HELP",
		"up/down: move",
		"cross/uncross: mark",
		"add, back",
	})
}

// ShowTodoList renders the cursor window of the todo list.
func (r *Renderer) ShowTodoList(items []todo.VisibleItem, stats todo.Stats) {
	if len(items) == 0 {
		r.show([]string{
			"TODO (empty)",
			"",
			"Say 'add' to create",
			"",
		})
		return
	}

	lines := []string{fmt.Sprintf("TODO (%d/%d done)", stats.Done, stats.Total)}
	for i := 0; i < listWindow; i++ {
		if i >= len(items) {
			lines = append(lines, "")
			continue
		}
		item := items[i]
		marker := "  "
		if item.IsCurrent {
			marker = "> "
		}
		box := "[ ]"
		if item.Done {
			box = "[x]"
		}
		lines = append(lines, marker+box+" "+item.Text)
	}
	r.show(lines)
}

// ShowTodoCapture renders in-progress dictation of a new todo.
func (r *Renderer) ShowTodoCapture(text string) {
	if text == "" {
		r.show([]string{
			"NEW TODO",
			"Speak your item",
			"",
			"confirm / cancel",
		})
		return
	}
	wrapped := WrapText(text)
	lines := []string{"NEW TODO"}
	for i := 0; i < 2; i++ {
		if i < len(wrapped) {
			lines = append(lines, wrapped[i])
		} else {
			lines = append(lines, "")
		}
	}
	lines = append(lines, "confirm / cancel")
	r.show(lines)
}

// ShowDeviceList renders a cursor window over the device rows.
func (r *Renderer) ShowDeviceList(rows []registry.Listing, cursor int) {
	if len(rows) == 0 {
		r.show([]string{
			"DEVICES",
			"None found",
			"",
			"Searching...",
		})
		return
	}
	if cursor < 0 {
		cursor = 0
	}
	if cursor >= len(rows) {
		cursor = len(rows) - 1
	}

	start := cursor - listWindow + 1
	if start < 0 {
		start = 0
	}
	end := start + listWindow
	if end > len(rows) {
		end = len(rows)
	}

	lines := []string{"DEVICES"}
	for i := start; i < end; i++ {
		marker := "  "
		if i == cursor {
			marker = "> "
		}
		lines = append(lines, fmt.Sprintf("%s%s %s", marker, rows[i].Name, rows[i].Status))
	}
	r.show(lines)
}

// ShowConnected renders a live control screen for a peripheral. The
// status pairs come straight from the device's status response.
func (r *Renderer) ShowConnected(t registry.DeviceType, status map[string]any) {
	lines := []string{strings.ToUpper(string(t))}
	keys := orderedStatusKeys(status)
	for _, k := range keys {
		if len(lines) >= 3 {
			break
		}
		lines = append(lines, fmt.Sprintf("%s: %v", k, status[k]))
	}
	for len(lines) < 3 {
		lines = append(lines, "")
	}
	lines = append(lines, "Say 'back' to exit")
	r.show(lines)
}

// ShowDistance renders the live distance readout.
func (r *Renderer) ShowDistance(cm int) {
	r.show([]string{
		"DISTANCE",
		fmt.Sprintf("%d cm", cm),
		"",
		"Say 'back' to exit",
	})
}

// ShowDistanceUnavailable renders the readout when the sensor drops out.
func (r *Renderer) ShowDistanceUnavailable() {
	r.show([]string{
		"DISTANCE",
		"No reading",
		"",
		"Say 'back' to exit",
	})
}

// ShowTranslation renders the latest exchange of the live feed.
func (r *Renderer) ShowTranslation(ex translate.Exchange) {
	r.show([]string{
		"TRANSLATE",
		Truncate(ex.Original),
		Truncate(ex.Translated),
		"Say 'iris end' to exit",
	})
}

// ShowTranslationIntro renders the translation screen before any speech.
func (r *Renderer) ShowTranslationIntro() {
	r.show([]string{
		"TRANSLATE",
		"Listening...",
		"",
		"Say 'iris end' to exit",
	})
}

// ShowGlassesChat renders the send-message screen.
func (r *Renderer) ShowGlassesChat(lastMessage string, delivered bool) {
	status := ""
	if lastMessage != "" {
		if delivered {
			status = "Sent"
		} else {
			status = "Send failed"
		}
	}
	r.show([]string{
		"GLASSES",
		Truncate(lastMessage),
		status,
		"'send <msg>' / back",
	})
}

// ShowMotionInterrupt renders the motion overlay.
func (r *Renderer) ShowMotionInterrupt() {
	r.show([]string{
		"! MOTION DETECTED !",
		"",
		time.Now().Format("3:04:05 PM"),
		"",
	})
}

// ShowConnectionError renders a failed device interaction.
func (r *Renderer) ShowConnectionError(name string) {
	r.show([]string{
		"CONNECTION ERROR",
		Truncate(name),
		"Device unreachable",
		"Say 'back'",
	})
}

// ShowNotRecognized renders the transient unrecognized-command notice.
func (r *Renderer) ShowNotRecognized() {
	r.show([]string{
		"",
		"Not recognized",
		"",
		"",
	})
}

// ShowMessage renders free text, word-wrapped.
func (r *Renderer) ShowMessage(text string) {
	r.show(WrapText(text))
}

// Clear blanks the display.
func (r *Renderer) Clear() {
	if !r.sender.Clear() {
		r.logger.Debug("display: clear not delivered")
	}
}

func (r *Renderer) show(lines []string) {
	if !r.sender.ShowLines(lines) {
		r.logger.Debug("display: frame not delivered", "first_line", lines[0])
	}
}

// orderedStatusKeys returns status keys with the well-known ones first so
// screens stay stable across renders.
func orderedStatusKeys(status map[string]any) []string {
	preferred := []string{"status", "speed", "alerts"}
	out := make([]string, 0, len(status))
	seen := make(map[string]bool, len(status))
	for _, k := range preferred {
		if _, ok := status[k]; ok {
			out = append(out, k)
			seen[k] = true
		}
	}
	extras := make([]string, 0, len(status))
	for k := range status {
		if !seen[k] {
			extras = append(extras, k)
		}
	}
	sort.Strings(extras)
	return append(out, extras...)
}
