package handlers

import (
	"context"
	"log/slog"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// TranscriptSink accepts recognized speech for the main loop.
type TranscriptSink interface {
	Push(transcript string) bool
}

// TranscriptHandler receives transcripts from an external speech-to-text
// front end and feeds them to the voice command loop.
type TranscriptHandler struct {
	Sink   TranscriptSink
	Logger *slog.Logger
}

// --- Push transcript ---

// PushTranscriptInput is the input for submitting a transcript.
type PushTranscriptInput struct {
	Body struct {
		Text string `json:"text" minLength:"1" doc:"Recognized speech to hand to the command parser"`
	}
}

// PushTranscriptOutput is the output for submitting a transcript.
type PushTranscriptOutput struct {
	Body ReceivedResponse
}

// PushTranscript queues a transcript for the next listen cycle. Returns 503
// when the transcript buffer is full.
func (h *TranscriptHandler) PushTranscript(_ context.Context, input *PushTranscriptInput) (*PushTranscriptOutput, error) {
	if strings.TrimSpace(input.Body.Text) == "" {
		return nil, huma.Error400BadRequest("text must not be blank")
	}
	if !h.Sink.Push(input.Body.Text) {
		return nil, huma.Error503ServiceUnavailable("queue_full")
	}
	h.Logger.Debug("http: transcript queued", "text", input.Body.Text)
	return &PushTranscriptOutput{Body: ReceivedResponse{Received: true, Status: "queued"}}, nil
}

// TranscriptHandlers is the interface used for route registration.
type TranscriptHandlers interface {
	PushTranscript(ctx context.Context, input *PushTranscriptInput) (*PushTranscriptOutput, error)
}

var _ TranscriptHandlers = (*TranscriptHandler)(nil)
