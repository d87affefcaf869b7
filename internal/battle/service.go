package battle

import (
	"context"
	"errors"
	"fmt"

	"combatai/internal/llm"

	"github.com/sashabaranov/go-openai"
)

var ErrMissingOpponent = errors.New("missing opponent")

// MissingOpponentMessage is the client-facing text for ErrMissingOpponent.
const MissingOpponentMessage = "Both opponents is required"

// VerdictService turns a pair of opponents into a judge request for the
// configured provider.
type VerdictService struct {
	aiProvider llm.AIProvider
	params     SamplingParams
}

func NewVerdictService(aiProvider llm.AIProvider, params SamplingParams) *VerdictService {
	return &VerdictService{aiProvider: aiProvider, params: params}
}

// StreamVerdict validates the request and starts a streamed judge completion.
// Nothing is sent upstream when an opponent is missing.
func (s *VerdictService) StreamVerdict(ctx context.Context, req VerdictRequest) (<-chan llm.StreamChunk, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	chunks, err := s.aiProvider.StreamComplete(ctx, s.completionRequest(req))
	if err != nil {
		return nil, fmt.Errorf("start verdict stream: %w", err)
	}
	return chunks, nil
}

// Verdict runs the judge request without streaming and parses the answer.
func (s *VerdictService) Verdict(ctx context.Context, req VerdictRequest) (*VerdictResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	msg, err := s.aiProvider.Complete(ctx, s.completionRequest(req))
	if err != nil {
		return nil, fmt.Errorf("request verdict: %w", err)
	}

	resp := &VerdictResponse{Response: msg.Content}
	if verdict, ok := ParseVerdict(msg.Content); ok {
		resp.Winner = &verdict.Winner
		resp.Reason = verdict.Reason
	}
	return resp, nil
}

func (s *VerdictService) completionRequest(req VerdictRequest) llm.CompletionRequest {
	return llm.CompletionRequest{
		Messages: []llm.Message{{
			Role:    openai.ChatMessageRoleUser,
			Content: BuildJudgePrompt(req.Opponent1, req.Opponent2),
		}},
		Model:       s.params.Model,
		MaxTokens:   s.params.MaxTokens,
		Temperature: s.params.Temperature,
	}
}

func (r VerdictRequest) Validate() error {
	if r.Opponent1 == "" || r.Opponent2 == "" {
		return ErrMissingOpponent
	}
	return nil
}
