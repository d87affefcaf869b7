package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

type GeminiProvider struct {
	client *genai.Client
	model  string
}

func NewGeminiAIProvider(client *genai.Client, model string) *GeminiProvider {
	return &GeminiProvider{client: client, model: model}
}

func NewGeminiClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return client, nil
}

func (p *GeminiProvider) Close() error {
	return p.client.Close()
}

func (p *GeminiProvider) Complete(ctx context.Context, req CompletionRequest) (Message, error) {
	res, err := p.generativeModel(req).GenerateContent(ctx, p.extractParts(req.Messages)...)
	if err != nil {
		return Message{}, fromGeminiError(err)
	}

	text := responseText(res)
	if text == "" {
		return Message{}, ErrEmptyResponse
	}
	return Message{Role: "assistant", Content: text}, nil
}

func (p *GeminiProvider) StreamComplete(ctx context.Context, req CompletionRequest) (<-chan StreamChunk, error) {
	resIterator := p.generativeModel(req).GenerateContentStream(ctx, p.extractParts(req.Messages)...)

	// The iterator only contacts the API on the first Next call, so pull the
	// first response here to report rejections before streaming starts.
	first, err := resIterator.Next()
	if err != nil && !errors.Is(err, iterator.Done) {
		return nil, fromGeminiError(err)
	}

	chunks := make(chan StreamChunk)
	go func() {
		defer close(chunks)

		resp := first
		for {
			if errors.Is(err, iterator.Done) {
				send(ctx, chunks, StreamChunk{Done: true})
				return
			}
			if err != nil {
				send(ctx, chunks, StreamChunk{Err: fromGeminiError(err)})
				return
			}

			if !send(ctx, chunks, StreamChunk{Content: responseText(resp)}) {
				return
			}

			resp, err = resIterator.Next()
		}
	}()

	return chunks, nil
}

func (p *GeminiProvider) generativeModel(req CompletionRequest) *genai.GenerativeModel {
	name := req.Model
	if name == "" {
		name = p.model
	}

	model := p.client.GenerativeModel(name)
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(req.MaxTokens))
	}
	model.SetTemperature(req.Temperature)
	return model
}

// -----------------Private Helper Functions-----------------
func (p *GeminiProvider) extractParts(messages []Message) []genai.Part {
	var parts []genai.Part
	for _, msg := range messages {
		parts = append(parts, genai.Text(msg.Content))
	}
	return parts
}

func responseText(res *genai.GenerateContentResponse) string {
	if res == nil || len(res.Candidates) == 0 || res.Candidates[0].Content == nil {
		return ""
	}

	var b strings.Builder
	for _, part := range res.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return b.String()
}

func fromGeminiError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return &UpstreamRejected{
			StatusCode: apiErr.Code,
			Message:    apiErr.Message,
		}
	}
	return fmt.Errorf("%w: %w", ErrUpstreamFailed, err)
}
