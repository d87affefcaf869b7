package llm

import (
	"context"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type CompletionRequest struct {
	Messages    []Message
	Model       string
	MaxTokens   int
	Temperature float32
}

// StreamChunk is one step of a streamed completion. A chunk carries either
// a text fragment, the end-of-stream marker (Done) or a terminal error.
type StreamChunk struct {
	Content string
	Done    bool
	Err     error
}

type AIProvider interface {
	Complete(ctx context.Context, req CompletionRequest) (Message, error)
	// StreamComplete starts a streamed completion. Errors that happen before
	// the first byte (rejected request, transport failure) are returned
	// directly; later failures arrive as a chunk with Err set. The channel is
	// closed after Done, after an error, or when ctx is cancelled.
	StreamComplete(ctx context.Context, req CompletionRequest) (<-chan StreamChunk, error)
}

type ImageRequest struct {
	Prompt string
	Model  string
	Size   string
}

type ImageProvider interface {
	// CreateImage returns a URL from which the generated image can be fetched.
	CreateImage(ctx context.Context, req ImageRequest) (string, error)
}
