package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sashabaranov/go-openai"
)

var (
	ErrUpstreamFailed = errors.New("upstream request failed")
	ErrMalformedEvent = errors.New("malformed stream event")
	ErrEmptyResponse  = errors.New("upstream returned no choices")
)

// UpstreamRejected is returned when the inference provider answers with an
// error object. Fields the provider leaves out are empty.
type UpstreamRejected struct {
	StatusCode int
	Message    string
	Type       string
	Param      string
	Code       string
}

func (e *UpstreamRejected) Error() string {
	var b strings.Builder
	b.WriteString("upstream rejected request")
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.Type != "" {
		fmt.Fprintf(&b, " [%s]", e.Type)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

func fromOpenAIError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		rejected := &UpstreamRejected{
			StatusCode: apiErr.HTTPStatusCode,
			Message:    apiErr.Message,
			Type:       apiErr.Type,
			Code:       codeString(apiErr.Code),
		}
		if apiErr.Param != nil {
			rejected.Param = *apiErr.Param
		}
		return rejected
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.Err == nil {
			return fmt.Errorf("%w: status %d", ErrUpstreamFailed, reqErr.HTTPStatusCode)
		}
		return fmt.Errorf("%w: status %d: %v", ErrUpstreamFailed, reqErr.HTTPStatusCode, reqErr.Err)
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return fmt.Errorf("%w: %w", ErrMalformedEvent, err)
	}

	return err
}

func codeString(code any) string {
	switch v := code.(type) {
	case nil:
		return ""
	case string:
		return v
	case int:
		// go-openai decodes a JSON null code as 0.
		if v == 0 {
			return ""
		}
		return strconv.Itoa(v)
	default:
		return fmt.Sprint(v)
	}
}
