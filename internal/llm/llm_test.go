package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"github.com/pavelanni/neetmock/internal/model"
)

func newFakeLLM(t *testing.T, reply string, calls *int) *Client {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/models", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(openai.ModelsList{Models: []openai.Model{{ID: "test-model"}}})
	})
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		*calls++
		var req openai.ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Messages) != 1 || !strings.Contains(req.Messages[0].Content, "CORRECT OPTION: C") {
			t.Errorf("unexpected prompt: %+v", req.Messages)
		}
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: reply}},
			},
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c, err := New(srv.URL+"/v1", "test-key", "test-model", "brief")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func testQuestion() model.Question {
	return model.Question{
		ID:      "chem_1",
		Subject: "Chemistry",
		Text:    "Which gas is evolved?",
		Options: []string{"O2", "N2", "H2", "CO2"},
		Correct: 2,
	}
}

func TestExplainCallsModel(t *testing.T) {
	calls := 0
	c := newFakeLLM(t, "  Hydrogen is released by the metal.  ", &calls)

	got, err := c.Explain(context.Background(), testQuestion(), nil)
	if err != nil {
		t.Fatalf("Explain: %v", err)
	}
	if got != "Hydrogen is released by the metal." {
		t.Errorf("unexpected explanation %q", got)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestExplainUsesStoredExplanation(t *testing.T) {
	calls := 0
	c := newFakeLLM(t, "unused", &calls)

	q := testQuestion()
	q.Explanation = "From the corpus."
	got, err := c.Explain(context.Background(), q, nil)
	if err != nil || got != "From the corpus." {
		t.Errorf("expected stored explanation, got %q, %v", got, err)
	}
	if calls != 0 {
		t.Errorf("model should not be called, got %d calls", calls)
	}
}

func TestExplainEmptyReply(t *testing.T) {
	calls := 0
	c := newFakeLLM(t, "   ", &calls)
	if _, err := c.Explain(context.Background(), testQuestion(), nil); !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestPing(t *testing.T) {
	calls := 0
	c := newFakeLLM(t, "", &calls)
	if err := c.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

func TestNewRejectsUnknownStyle(t *testing.T) {
	if _, err := New("", "k", "m", "poetic"); err == nil {
		t.Error("expected error for unknown style")
	}
}
