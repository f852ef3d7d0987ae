// Package todo manages the persisted todo list and its display cursor.
// Writes go through an atomic save; a failed save rolls the in-memory
// change back so memory and disk never diverge.
package todo

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Item is a single todo entry.
type Item struct {
	Text      string    `json:"text"`
	Done      bool      `json:"done"`
	CreatedAt time.Time `json:"created_at"`
}

// VisibleItem is a display-ready row from the cursor window.
type VisibleItem struct {
	Text      string `json:"text"`
	Done      bool   `json:"done"`
	IsCurrent bool   `json:"is_current"`
	Index     int    `json:"index"`
}

// Stats summarizes the list.
type Stats struct {
	Total   int `json:"total"`
	Done    int `json:"done"`
	Pending int `json:"pending"`
}

// fileFormat is the on-disk shape.
type fileFormat struct {
	Todos       []Item    `json:"todos"`
	CursorIndex int       `json:"cursor_index"`
	SavedAt     time.Time `json:"saved_at"`
}

// Store holds the todo list, its cursor and the backing file. Safe for
// concurrent use.
type Store struct {
	mu       sync.Mutex
	filename string
	todos    []Item
	cursor   int
	logger   *slog.Logger
}

// NewStore opens a store backed by filename, loading existing items. A
// missing file is not an error, the store just starts empty.
func NewStore(logger *slog.Logger, filename string) *Store {
	s := &Store{filename: filename, logger: logger}
	s.load()
	logger.Info("todo: store initialized", "file", filename, "items", len(s.todos))
	return s
}

// Add appends a todo and moves the cursor to it. Empty or whitespace-only
// text is rejected.
func (s *Store) Add(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		s.logger.Warn("todo: refusing empty item")
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.todos = append(s.todos, Item{Text: text, CreatedAt: time.Now()})
	s.cursor = len(s.todos) - 1

	if !s.saveLocked() {
		s.todos = s.todos[:len(s.todos)-1]
		if s.cursor >= len(s.todos) && s.cursor > 0 {
			s.cursor = len(s.todos) - 1
		}
		return false
	}
	s.logger.Info("todo: added", "text", text)
	return true
}

// Cross marks the item under the cursor done.
func (s *Store) Cross() bool {
	return s.setDone(true)
}

// Uncross clears the done flag on the item under the cursor.
func (s *Store) Uncross() bool {
	return s.setDone(false)
}

func (s *Store) setDone(done bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.validCursorLocked() {
		return false
	}
	item := &s.todos[s.cursor]
	if item.Done == done {
		return true
	}
	item.Done = done
	if !s.saveLocked() {
		item.Done = !done
		return false
	}
	s.logger.Info("todo: toggled", "text", item.Text, "done", done)
	return true
}

// ScrollUp moves the cursor towards the top. Returns false at the edge.
func (s *Store) ScrollUp() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cursor > 0 {
		s.cursor--
		return true
	}
	return false
}

// ScrollDown moves the cursor towards the bottom. Returns false at the edge.
func (s *Store) ScrollDown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cursor < len(s.todos)-1 {
		s.cursor++
		return true
	}
	return false
}

// Visible returns up to window items around the cursor for display.
func (s *Store) Visible(window int) []VisibleItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.todos) == 0 || window <= 0 {
		return nil
	}

	start := s.cursor - window + 1
	if start < 0 {
		start = 0
	}
	end := start + window
	if end > len(s.todos) {
		end = len(s.todos)
	}
	if end-start < window && start > 0 {
		start = end - window
		if start < 0 {
			start = 0
		}
	}

	out := make([]VisibleItem, 0, end-start)
	for i := start; i < end; i++ {
		out = append(out, VisibleItem{
			Text:      s.todos[i].Text,
			Done:      s.todos[i].Done,
			IsCurrent: i == s.cursor,
			Index:     i,
		})
	}
	return out
}

// Current returns a copy of the item under the cursor.
func (s *Store) Current() (Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.validCursorLocked() {
		return Item{}, false
	}
	return s.todos[s.cursor], true
}

// All returns a copy of every item.
func (s *Store) All() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Item, len(s.todos))
	copy(out, s.todos)
	return out
}

// GetStats returns list counts.
func (s *Store) GetStats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Stats{Total: len(s.todos)}
	for _, item := range s.todos {
		if item.Done {
			st.Done++
		}
	}
	st.Pending = st.Total - st.Done
	return st
}

// RemoveCurrent deletes the item under the cursor.
func (s *Store) RemoveCurrent() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.validCursorLocked() {
		return false
	}
	removed := s.todos[s.cursor]
	s.todos = append(s.todos[:s.cursor], s.todos[s.cursor+1:]...)
	if s.cursor >= len(s.todos) && len(s.todos) > 0 {
		s.cursor = len(s.todos) - 1
	} else if len(s.todos) == 0 {
		s.cursor = 0
	}

	if !s.saveLocked() {
		idx := s.cursor
		if idx > len(s.todos) {
			idx = len(s.todos)
		}
		s.todos = append(s.todos[:idx], append([]Item{removed}, s.todos[idx:]...)...)
		return false
	}
	s.logger.Info("todo: removed", "text", removed.Text)
	return true
}

// ClearCompleted removes every done item and returns how many went.
func (s *Store) ClearCompleted() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.todos[:0:0]
	for _, item := range s.todos {
		if !item.Done {
			kept = append(kept, item)
		}
	}
	removed := len(s.todos) - len(kept)
	if removed == 0 {
		return 0
	}
	s.todos = kept
	if s.cursor > len(s.todos)-1 {
		s.cursor = len(s.todos) - 1
	}
	if s.cursor < 0 {
		s.cursor = 0
	}

	if !s.saveLocked() {
		s.logger.Error("todo: failed to save after clearing completed")
	} else {
		s.logger.Info("todo: cleared completed", "removed", removed)
	}
	return removed
}

// CursorIndex returns the current cursor position.
func (s *Store) CursorIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

func (s *Store) validCursorLocked() bool {
	return s.cursor >= 0 && s.cursor < len(s.todos)
}

// saveLocked writes the list to disk via a temp file rename. Caller holds
// the lock.
func (s *Store) saveLocked() bool {
	data, err := json.MarshalIndent(fileFormat{
		Todos:       s.todos,
		CursorIndex: s.cursor,
		SavedAt:     time.Now(),
	}, "", "  ")
	if err != nil {
		s.logger.Error("todo: marshal failed", "error", err)
		return false
	}

	tmp := s.filename + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.filename), 0755); err != nil {
		s.logger.Error("todo: save failed", "error", err)
		return false
	}
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		s.logger.Error("todo: save failed", "error", err)
		return false
	}
	if err := os.Rename(tmp, s.filename); err != nil {
		s.logger.Error("todo: save failed", "error", err)
		return false
	}
	return true
}

func (s *Store) load() {
	raw, err := os.ReadFile(s.filename)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Error("todo: load failed", "error", err)
		}
		return
	}
	var ff fileFormat
	if err := json.Unmarshal(raw, &ff); err != nil {
		s.logger.Error("todo: corrupt todo file, starting empty", "file", s.filename, "error", err)
		return
	}
	s.todos = ff.Todos
	s.cursor = ff.CursorIndex
	if s.cursor >= len(s.todos) {
		s.cursor = len(s.todos) - 1
	}
	if s.cursor < 0 {
		s.cursor = 0
	}
}
