package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sseServer answers /v1/chat/completions with the given raw SSE body.
func sseServer(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if status != http.StatusOK {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_, _ = w.Write([]byte(body))
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func newTestProvider(srv *httptest.Server) *OpenAIProvider {
	return NewOpenAIProvider(NewOpenAIClient("sk-test", srv.URL+"/v1"))
}

func streamRequest() CompletionRequest {
	return CompletionRequest{
		Model:       "gpt-3.5-turbo",
		Messages:    []Message{{Role: "user", Content: "who wins?"}},
		MaxTokens:   200,
		Temperature: 1,
	}
}

func event(content string) string {
	return fmt.Sprintf("data: {\"choices\":[{\"index\":0,\"delta\":{\"content\":%q}}]}\n\n", content)
}

func collect(t *testing.T, chunks <-chan StreamChunk) (string, []StreamChunk) {
	t.Helper()

	var text strings.Builder
	var all []StreamChunk
	timeout := time.After(5 * time.Second)
	for {
		select {
		case chunk, ok := <-chunks:
			if !ok {
				return text.String(), all
			}
			all = append(all, chunk)
			text.WriteString(chunk.Content)
		case <-timeout:
			t.Fatal("stream did not finish")
		}
	}
}

func TestOpenAIProvider_StreamComplete(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantText string
		wantDone bool
		wantErr  error
	}{
		{
			name:     "single fragment then sentinel",
			body:     event("foo") + "data: [DONE]\n\n",
			wantText: "foo",
			wantDone: true,
		},
		{
			name:     "fragments keep upstream order",
			body:     event("winner: ") + event("opponent1. ") + event("reason: ") + event("bigger") + "data: [DONE]\n\n",
			wantText: "winner: opponent1. reason: bigger",
			wantDone: true,
		},
		{
			name:     "transport close without sentinel",
			body:     event("foo") + event("bar"),
			wantText: "foobar",
			wantDone: true,
		},
		{
			name:     "nothing after sentinel is read",
			body:     event("foo") + "data: [DONE]\n\n" + event("late"),
			wantText: "foo",
			wantDone: true,
		},
		{
			name:     "events without choices are skipped",
			body:     "data: {\"choices\":[]}\n\n" + event("foo") + "data: [DONE]\n\n",
			wantText: "foo",
			wantDone: true,
		},
		{
			name:     "malformed event aborts the stream",
			body:     event("foo") + "data: {\"choices\": [\n\n" + event("bar") + "data: [DONE]\n\n",
			wantText: "foo",
			wantErr:  ErrMalformedEvent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := sseServer(t, http.StatusOK, tt.body)

			chunks, err := newTestProvider(srv).StreamComplete(context.Background(), streamRequest())
			require.NoError(t, err)

			text, all := collect(t, chunks)
			assert.Equal(t, tt.wantText, text)

			last := all[len(all)-1]
			assert.Equal(t, tt.wantDone, last.Done)
			if tt.wantErr != nil {
				require.Error(t, last.Err)
				assert.ErrorIs(t, last.Err, tt.wantErr)
			} else {
				assert.NoError(t, last.Err)
			}
		})
	}
}

func TestOpenAIProvider_StreamCompleteSendsSamplingParameters(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte("data: [DONE]\n\n"))
	}))
	defer srv.Close()

	chunks, err := newTestProvider(srv).StreamComplete(context.Background(), streamRequest())
	require.NoError(t, err)
	collect(t, chunks)

	assert.Equal(t, "gpt-3.5-turbo", got["model"])
	assert.Equal(t, true, got["stream"])
	assert.EqualValues(t, 200, got["max_tokens"])
	assert.EqualValues(t, 1, got["temperature"])

	messages, ok := got["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 1)
	assert.Equal(t, "user", messages[0].(map[string]any)["role"])
}

func TestOpenAIProvider_StreamCompleteRejected(t *testing.T) {
	srv, calls := sseServer(t, http.StatusBadRequest,
		`{"error":{"message":"Invalid model","type":"invalid_request_error","param":"model","code":"model_not_found"}}`)

	_, err := newTestProvider(srv).StreamComplete(context.Background(), streamRequest())
	require.Error(t, err)

	var rejected *UpstreamRejected
	require.True(t, errors.As(err, &rejected))
	assert.Equal(t, http.StatusBadRequest, rejected.StatusCode)
	assert.Equal(t, "invalid_request_error", rejected.Type)
	assert.Equal(t, "Invalid model", rejected.Message)
	assert.Equal(t, "model", rejected.Param)
	assert.Equal(t, "model_not_found", rejected.Code)
	assert.EqualValues(t, 1, calls.Load(), "no retry")
}

func TestOpenAIProvider_StreamCompleteGenericFailure(t *testing.T) {
	srv, _ := sseServer(t, http.StatusBadGateway, `upstream exploded`)

	_, err := newTestProvider(srv).StreamComplete(context.Background(), streamRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstreamFailed)

	var rejected *UpstreamRejected
	assert.False(t, errors.As(err, &rejected))
}

func TestOpenAIProvider_StreamCompleteStopsOnCancel(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte(event("foo")))
		w.(http.Flusher).Flush()
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	chunks, err := newTestProvider(srv).StreamComplete(ctx, streamRequest())
	require.NoError(t, err)

	first := <-chunks
	assert.Equal(t, "foo", first.Content)

	cancel()
	// The producer must stop and close the channel once the consumer leaves.
	_, all := collect(t, chunks)
	for _, chunk := range all {
		assert.False(t, chunk.Done)
	}
}

func TestOpenAIProvider_Complete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"index":0,"message":{"role":"assistant","content":"winner: opponent1. reason: faster"}}]}`))
	}))
	defer srv.Close()

	msg, err := newTestProvider(srv).Complete(context.Background(), streamRequest())
	require.NoError(t, err)
	assert.Equal(t, "assistant", msg.Role)
	assert.Equal(t, "winner: opponent1. reason: faster", msg.Content)
}

func TestOpenAIProvider_CreateImage(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/images/generations", r.URL.Path)
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"created":1,"data":[{"url":"https://img.example/a.png"}]}`))
	}))
	defer srv.Close()

	url, err := newTestProvider(srv).CreateImage(context.Background(), ImageRequest{
		Prompt: "a and b in a battle to the death",
		Model:  "dall-e-2",
		Size:   "512x512",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://img.example/a.png", url)
	assert.Equal(t, "dall-e-2", got["model"])
	assert.Equal(t, "512x512", got["size"])
	assert.Equal(t, "url", got["response_format"])
}
