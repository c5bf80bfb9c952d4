package narrative

import (
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/kdduha/image-narrator/internal/config"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func newService(t *testing.T, handler http.HandlerFunc) *Service {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := openai.NewClient(
		option.WithAPIKey("test"),
		option.WithBaseURL(srv.URL),
		option.WithMaxRetries(0),
	)
	return NewService(log.New(io.Discard, "", 0), client, config.OpenAIConfig{Model: "mistral-large-latest"})
}

func TestAnalyze(t *testing.T) {
	var got chatRequest
	s := newService(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %s", err)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
			"id": "cmpl-1",
			"object": "chat.completion",
			"created": 1700000000,
			"model": "mistral-large-latest",
			"choices": [{
				"index": 0,
				"finish_reason": "stop",
				"message": {"role": "assistant", "content": "Once upon a time, a cat watched the rain."}
			}],
			"usage": {"prompt_tokens": 30, "completion_tokens": 10, "total_tokens": 40}
		}`)
	})

	analysis, err := s.Analyze(t.Context(), "a cat by a window")
	if err != nil {
		t.Fatalf("Unexpected error %s", err)
	}
	if expected := "Once upon a time, a cat watched the rain."; analysis != expected {
		t.Errorf("Expected %q, got %q", expected, analysis)
	}

	if expected := "mistral-large-latest"; got.Model != expected {
		t.Errorf("Expected model %q, got %q", expected, got.Model)
	}
	if len(got.Messages) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(got.Messages))
	}
	if got.Messages[0].Role != "system" || got.Messages[0].Content != systemPrompt {
		t.Errorf("Unexpected system message %+v", got.Messages[0])
	}
	if got.Messages[1].Role != "user" || !strings.HasSuffix(got.Messages[1].Content, ": a cat by a window") {
		t.Errorf("Unexpected user message %+v", got.Messages[1])
	}
}

func TestAnalyzeUpstreamError(t *testing.T) {
	s := newService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error": {"message": "invalid api key", "type": "invalid_request_error"}}`)
	})

	_, err := s.Analyze(t.Context(), "a cat")
	if err == nil {
		t.Fatal("Expected error")
	}
	if !strings.Contains(err.Error(), "401") {
		t.Errorf("Expected upstream status in error, got %q", err)
	}
}

func TestAnalyzeNoChoices(t *testing.T) {
	s := newService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id": "x", "object": "chat.completion", "created": 0, "model": "m", "choices": []}`)
	})

	if _, err := s.Analyze(t.Context(), "a cat"); err == nil {
		t.Error("Expected error for empty choices")
	}
}
