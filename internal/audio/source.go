// Package audio supplies transcripts to the main loop. Speech-to-text
// happens off-box; transcripts arrive as text pushes and are buffered
// until the loop's next listen window.
package audio

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Source is where the orchestrator gets transcripts. Listen returns an
// empty string when nothing arrived within the timeout; it never returns
// an error for plain silence.
type Source interface {
	Listen(ctx context.Context, timeout time.Duration) (string, error)
}

// transcriptBuffer bounds how many pushed transcripts can queue up while
// the main loop is busy.
const transcriptBuffer = 10

// PushSource is a Source fed by external pushes, typically the transcript
// HTTP endpoint. Pushes never block: when the buffer is full the newest
// transcript is dropped.
type PushSource struct {
	ch     chan string
	logger *slog.Logger

	closeOnce sync.Once
	closed    chan struct{}
}

var _ Source = (*PushSource)(nil)

// NewPushSource creates an empty push source.
func NewPushSource(logger *slog.Logger) *PushSource {
	return &PushSource{
		ch:     make(chan string, transcriptBuffer),
		logger: logger,
		closed: make(chan struct{}),
	}
}

// Push hands a transcript to the main loop. Returns false when the buffer
// is full or the source is closed.
func (s *PushSource) Push(transcript string) bool {
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return false
	}

	select {
	case <-s.closed:
		return false
	default:
	}

	select {
	case s.ch <- transcript:
		s.logger.Debug("audio: transcript queued", "transcript", transcript)
		return true
	default:
		s.logger.Warn("audio: transcript buffer full, dropping", "transcript", transcript)
		return false
	}
}

// Listen waits up to timeout for a transcript. Silence yields "", nil;
// only context cancellation is an error.
func (s *PushSource) Listen(ctx context.Context, timeout time.Duration) (string, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-timer.C:
		return "", nil
	case transcript := <-s.ch:
		return transcript, nil
	}
}

// Pending reports how many transcripts are buffered.
func (s *PushSource) Pending() int {
	return len(s.ch)
}

// Close stops accepting pushes. Buffered transcripts remain readable.
func (s *PushSource) Close() {
	s.closeOnce.Do(func() {
		close(s.closed)
	})
}
