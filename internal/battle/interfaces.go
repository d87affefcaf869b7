package battle

import "context"

type VerdictRequest struct {
	Opponent1 string `json:"opponent1"`
	Opponent2 string `json:"opponent2"`
}

type VerdictResponse struct {
	Response string  `json:"response"`
	Winner   *string `json:"winner"`
	Reason   string  `json:"reason"`
}

type ErrorResponse struct {
	Message string `json:"message"`
	Type    string `json:"type,omitempty"`
	Param   string `json:"param,omitempty"`
	Code    string `json:"code,omitempty"`
}

// ImageGenerator renders an illustration of the fight and returns the public
// path the image is served from.
type ImageGenerator interface {
	Generate(ctx context.Context, opponent1, opponent2 string) (string, error)
}

// SamplingParams are the fixed parameters sent with every judge request.
type SamplingParams struct {
	Model       string
	MaxTokens   int
	Temperature float32
}
