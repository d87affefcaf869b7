package llm

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MockBattleFragments is the canned verdict streamed by the mock route.
var MockBattleFragments = []string{
	"winner: ",
	"opponent2. ",
	"reason: ",
	"Hello ",
	"this ",
	"is ",
	"a ",
	"test ",
	"streaming ",
	"response.",
}

// ScriptedProvider replays a fixed list of fragments. It backs the mock
// battle route and serves as a deterministic upstream in tests.
type ScriptedProvider struct {
	Fragments []string
	Delay     time.Duration
	// FailAfter, when set, is sent as a stream error after the fragments
	// instead of the end-of-stream marker.
	FailAfter error
	// Reject, when set, is returned by StreamComplete and Complete before
	// anything is streamed.
	Reject error
	// Record keeps every received request for Requests. It is off by
	// default so long-running servers retain nothing.
	Record bool

	mu       sync.Mutex
	requests []CompletionRequest
}

func NewScriptedProvider(fragments []string, delay time.Duration) *ScriptedProvider {
	return &ScriptedProvider{Fragments: fragments, Delay: delay}
}

func (p *ScriptedProvider) Complete(_ context.Context, req CompletionRequest) (Message, error) {
	p.record(req)
	if p.Reject != nil {
		return Message{}, p.Reject
	}
	return Message{Role: "assistant", Content: strings.Join(p.Fragments, "")}, nil
}

func (p *ScriptedProvider) StreamComplete(ctx context.Context, req CompletionRequest) (<-chan StreamChunk, error) {
	p.record(req)
	if p.Reject != nil {
		return nil, p.Reject
	}

	chunks := make(chan StreamChunk)
	go func() {
		defer close(chunks)

		for i, fragment := range p.Fragments {
			if i > 0 && p.Delay > 0 {
				select {
				case <-time.After(p.Delay):
				case <-ctx.Done():
					return
				}
			}
			if !send(ctx, chunks, StreamChunk{Content: fragment}) {
				return
			}
		}

		if p.FailAfter != nil {
			send(ctx, chunks, StreamChunk{Err: p.FailAfter})
			return
		}
		send(ctx, chunks, StreamChunk{Done: true})
	}()

	return chunks, nil
}

// Requests returns the completion requests received so far when Record is set.
func (p *ScriptedProvider) Requests() []CompletionRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]CompletionRequest(nil), p.requests...)
}

func (p *ScriptedProvider) record(req CompletionRequest) {
	if !p.Record {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests = append(p.requests, req)
}
