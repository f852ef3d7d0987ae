package interrupt

import (
	"bytes"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryunzz/iris/internal/events"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

func TestPushPollFIFO(t *testing.T) {
	q := NewQueue(testLogger(), nil, 10)

	for i := 0; i < 3; i++ {
		ok := q.Push(New(TypeMotion, map[string]any{"seq": i}, "192.168.1.12"))
		assert.True(t, ok)
	}
	assert.Equal(t, 3, q.Len())

	for i := 0; i < 3; i++ {
		in, ok := q.Poll()
		require.True(t, ok)
		assert.Equal(t, TypeMotion, in.Type)
		assert.Equal(t, i, in.Payload["seq"])
		assert.NotEmpty(t, in.ID)
	}

	_, ok := q.Poll()
	assert.False(t, ok)
}

func TestPushDropsNewestWhenFull(t *testing.T) {
	q := NewQueue(testLogger(), nil, 2)

	assert.True(t, q.Push(New(TypeMotion, map[string]any{"n": "first"}, "")))
	assert.True(t, q.Push(New(TypeMotion, map[string]any{"n": "second"}, "")))
	assert.False(t, q.Push(New(TypeMotion, map[string]any{"n": "third"}, "")))
	assert.Equal(t, 2, q.Len())

	in, ok := q.Poll()
	require.True(t, ok)
	assert.Equal(t, "first", in.Payload["n"], "backlog survives, newest is dropped")
}

func TestDrain(t *testing.T) {
	q := NewQueue(testLogger(), nil, 10)
	for i := 0; i < 5; i++ {
		q.Push(New(TypeDeviceOffline, nil, ""))
	}

	assert.Equal(t, 5, q.Drain())
	assert.Equal(t, 0, q.Len())
	assert.Equal(t, 0, q.Drain())
}

func TestCloseIdempotent(t *testing.T) {
	q := NewQueue(testLogger(), nil, 10)
	q.Push(New(TypeSystemError, map[string]any{"error": "sensor read failed"}, ""))

	q.Close()
	q.Close()

	assert.False(t, q.Push(New(TypeMotion, nil, "")))

	// Pending interrupts stay readable after close
	in, ok := q.Poll()
	require.True(t, ok)
	assert.Equal(t, TypeSystemError, in.Type)
}

func TestDefaultCapacity(t *testing.T) {
	q := NewQueue(testLogger(), nil, 0)
	assert.Equal(t, 100, q.Cap())
}

func TestQueueEvents(t *testing.T) {
	bus := events.NewBus()
	var got []events.EventType
	unsub := bus.Subscribe(func(e events.Event) {
		got = append(got, e.Type)
	})
	defer unsub()

	q := NewQueue(testLogger(), bus, 1)
	q.Push(New(TypeMotion, nil, ""))
	q.Push(New(TypeMotion, nil, ""))

	assert.Equal(t, []events.EventType{events.InterruptQueued, events.InterruptDropped}, got)
}

func TestConcurrentProducers(t *testing.T) {
	q := NewQueue(testLogger(), nil, 100)
	done := make(chan struct{})
	for p := 0; p < 4; p++ {
		go func(p int) {
			for i := 0; i < 50; i++ {
				q.Push(New(TypeMotion, map[string]any{"producer": fmt.Sprint(p)}, ""))
			}
			done <- struct{}{}
		}(p)
	}
	for p := 0; p < 4; p++ {
		<-done
	}

	// 200 pushes into capacity 100: exactly the capacity is retained
	assert.Equal(t, 100, q.Len())
}
