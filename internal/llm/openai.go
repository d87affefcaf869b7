package llm

import (
	"context"
	"errors"
	"io"

	"github.com/sashabaranov/go-openai"
)

type OpenAIProvider struct {
	client *openai.Client
}

func NewOpenAIProvider(client *openai.Client) *OpenAIProvider {
	return &OpenAIProvider{client: client}
}

// NewOpenAIClient builds a go-openai client. An empty baseURL keeps the
// public API endpoint.
func NewOpenAIClient(apiKey, baseURL string) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return openai.NewClientWithConfig(cfg)
}

func (p *OpenAIProvider) Complete(ctx context.Context, req CompletionRequest) (Message, error) {
	res, err := p.client.CreateChatCompletion(ctx, toOpenAIRequest(req))
	if err != nil {
		return Message{}, fromOpenAIError(err)
	}
	if len(res.Choices) == 0 {
		return Message{}, ErrEmptyResponse
	}
	return fromOpenAIMessage(res.Choices[0].Message), nil
}

func (p *OpenAIProvider) StreamComplete(ctx context.Context, req CompletionRequest) (<-chan StreamChunk, error) {
	stream, err := p.client.CreateChatCompletionStream(ctx, toOpenAIRequest(req))
	if err != nil {
		return nil, fromOpenAIError(err)
	}

	chunks := make(chan StreamChunk)
	go func() {
		defer close(chunks)
		defer stream.Close()

		for {
			response, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				send(ctx, chunks, StreamChunk{Done: true})
				return
			}
			if err != nil {
				send(ctx, chunks, StreamChunk{Err: fromOpenAIError(err)})
				return
			}

			// Some deployments emit bookkeeping events with no choices.
			if len(response.Choices) == 0 {
				continue
			}

			if !send(ctx, chunks, StreamChunk{Content: response.Choices[0].Delta.Content}) {
				return
			}
		}
	}()

	return chunks, nil
}

func (p *OpenAIProvider) CreateImage(ctx context.Context, req ImageRequest) (string, error) {
	res, err := p.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         req.Prompt,
		Model:          req.Model,
		Size:           req.Size,
		N:              1,
		ResponseFormat: openai.CreateImageResponseFormatURL,
	})
	if err != nil {
		return "", fromOpenAIError(err)
	}
	if len(res.Data) == 0 || res.Data[0].URL == "" {
		return "", ErrEmptyResponse
	}
	return res.Data[0].URL, nil
}

// send delivers chunk unless ctx is done first. It reports whether the
// consumer is still listening.
func send(ctx context.Context, chunks chan<- StreamChunk, chunk StreamChunk) bool {
	select {
	case chunks <- chunk:
		return true
	case <-ctx.Done():
		return false
	}
}

// ------------------Private helper function------------------

func toOpenAIRequest(req CompletionRequest) openai.ChatCompletionRequest {
	return openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    toOpenAIMessages(req.Messages),
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
}

func toOpenAIMessage(msg Message) openai.ChatCompletionMessage {
	return openai.ChatCompletionMessage{
		Role:    msg.Role,
		Content: msg.Content,
	}
}

func fromOpenAIMessage(msg openai.ChatCompletionMessage) Message {
	return Message{
		Role:    msg.Role,
		Content: msg.Content,
	}
}

func toOpenAIMessages(messages []Message) []openai.ChatCompletionMessage {
	result := make([]openai.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		result[i] = toOpenAIMessage(msg)
	}
	return result
}
