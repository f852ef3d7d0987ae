package todo

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(testLogger(), filepath.Join(t.TempDir(), "todos.json"))
}

func TestAddAndStats(t *testing.T) {
	s := newTestStore(t)

	assert.True(t, s.Add("buy groceries"))
	assert.True(t, s.Add("call mom"))
	assert.False(t, s.Add("   "))

	st := s.GetStats()
	assert.Equal(t, Stats{Total: 2, Done: 0, Pending: 2}, st)
	assert.Equal(t, 1, s.CursorIndex(), "cursor follows the newest item")
}

func TestCrossUncross(t *testing.T) {
	s := newTestStore(t)
	assert.False(t, s.Cross(), "no items yet")

	s.Add("fix bug")
	assert.True(t, s.Cross())
	item, ok := s.Current()
	require.True(t, ok)
	assert.True(t, item.Done)

	// Idempotent
	assert.True(t, s.Cross())

	assert.True(t, s.Uncross())
	item, _ = s.Current()
	assert.False(t, item.Done)
}

func TestScrollBounds(t *testing.T) {
	s := newTestStore(t)
	assert.False(t, s.ScrollUp())
	assert.False(t, s.ScrollDown())

	s.Add("one")
	s.Add("two")
	s.Add("three")
	assert.Equal(t, 2, s.CursorIndex())

	assert.False(t, s.ScrollDown(), "already at bottom")
	assert.True(t, s.ScrollUp())
	assert.True(t, s.ScrollUp())
	assert.False(t, s.ScrollUp(), "at top")
	assert.Equal(t, 0, s.CursorIndex())
}

func TestVisibleWindow(t *testing.T) {
	s := newTestStore(t)
	for _, text := range []string{"a", "b", "c", "d", "e"} {
		s.Add(text)
	}
	// Cursor at index 4 (last added)

	vis := s.Visible(3)
	require.Len(t, vis, 3)
	assert.Equal(t, "c", vis[0].Text)
	assert.Equal(t, "e", vis[2].Text)
	assert.True(t, vis[2].IsCurrent)
	assert.Equal(t, 4, vis[2].Index)

	// Cursor near the top keeps a full window
	for i := 0; i < 4; i++ {
		s.ScrollUp()
	}
	vis = s.Visible(3)
	require.Len(t, vis, 3)
	assert.Equal(t, "a", vis[0].Text)
	assert.True(t, vis[0].IsCurrent)

	assert.Nil(t, newTestStore(t).Visible(3))
}

func TestRemoveCurrent(t *testing.T) {
	s := newTestStore(t)
	s.Add("one")
	s.Add("two")

	assert.True(t, s.RemoveCurrent())
	assert.Equal(t, 1, s.GetStats().Total)
	item, _ := s.Current()
	assert.Equal(t, "one", item.Text)

	assert.True(t, s.RemoveCurrent())
	assert.False(t, s.RemoveCurrent())
	assert.Equal(t, 0, s.CursorIndex())
}

func TestClearCompleted(t *testing.T) {
	s := newTestStore(t)
	s.Add("keep")
	s.Add("done one")
	s.Cross()
	s.Add("done two")
	s.Cross()

	assert.Equal(t, 2, s.ClearCompleted())
	assert.Equal(t, 0, s.ClearCompleted())

	all := s.All()
	require.Len(t, all, 1)
	assert.Equal(t, "keep", all[0].Text)
	assert.Equal(t, 0, s.CursorIndex())
}

func TestPersistenceRoundTrip(t *testing.T) {
	file := filepath.Join(t.TempDir(), "todos.json")

	s := NewStore(testLogger(), file)
	s.Add("buy milk")
	s.Add("water plants")
	s.ScrollUp()
	s.Cross()

	reloaded := NewStore(testLogger(), file)
	all := reloaded.All()
	require.Len(t, all, 2)
	assert.Equal(t, "buy milk", all[0].Text)
	assert.True(t, all[0].Done)
	assert.False(t, all[1].Done)
	assert.Equal(t, 0, reloaded.CursorIndex())
}

func TestLoadMissingFile(t *testing.T) {
	s := NewStore(testLogger(), filepath.Join(t.TempDir(), "nope", "todos.json"))
	assert.Equal(t, 0, s.GetStats().Total)
	// Directory is created on first save
	assert.True(t, s.Add("first"))
}
