package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClient_Invoke_OpenAI(t *testing.T) {
	var gotPath, gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Messages) != 1 || req.Messages[0].Content != "hello" {
			t.Errorf("messages = %+v", req.Messages)
		}

		json.NewEncoder(w).Encode(chatResponse{
			Choices: []struct {
				Message chatMessage `json:"message"`
			}{{Message: chatMessage{Role: "assistant", Content: "world"}}},
		})
	}))
	defer server.Close()

	client := NewClient(Options{
		BaseURL: server.URL,
		Model:   "test-model",
		APIKey:  "sk-test",
		Style:   StyleOpenAI,
	})

	out, err := client.Invoke(context.Background(), "hello")
	if err != nil {
		t.Fatal(err)
	}
	if out != "world" {
		t.Errorf("output = %q, want %q", out, "world")
	}
	if gotPath != "/chat/completions" {
		t.Errorf("path = %q", gotPath)
	}
	if gotAuth != "Bearer sk-test" {
		t.Errorf("auth = %q", gotAuth)
	}
}

func TestClient_Invoke_Ollama(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("path = %q", r.URL.Path)
		}
		var req generateRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Stream {
			t.Error("stream should be disabled")
		}
		json.NewEncoder(w).Encode(generateResponse{Response: "generated text"})
	}))
	defer server.Close()

	client := NewClient(Options{BaseURL: server.URL, Model: "gemma", Style: StyleOllama})

	out, err := client.Invoke(context.Background(), "prompt")
	if err != nil {
		t.Fatal(err)
	}
	if out != "generated text" {
		t.Errorf("output = %q", out)
	}
}

func TestClient_Invoke_ProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(Options{BaseURL: server.URL, Model: "test-model"})

	_, err := client.Invoke(context.Background(), "hello")
	assertKind(t, err, KindProvider)
}

func TestClient_Invoke_MalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": []}`))
	}))
	defer server.Close()

	client := NewClient(Options{BaseURL: server.URL, Model: "test-model"})

	_, err := client.Invoke(context.Background(), "hello")
	assertKind(t, err, KindMalformed)
}

func TestClient_Invoke_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := NewClient(Options{
		BaseURL: server.URL,
		Model:   "test-model",
		Timeout: 20 * time.Millisecond,
	})

	_, err := client.Invoke(context.Background(), "hello")
	assertKind(t, err, KindTimeout)
}

func TestClient_Invoke_TransportError(t *testing.T) {
	// Port that nothing listens on
	client := NewClient(Options{BaseURL: "http://127.0.0.1:1", Model: "test-model"})

	_, err := client.Invoke(context.Background(), "hello")
	assertKind(t, err, KindTransport)
}

func assertKind(t *testing.T, err error, want ErrorKind) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error")
	}
	var invErr *InvocationError
	if !errors.As(err, &invErr) {
		t.Fatalf("err = %v, want InvocationError", err)
	}
	if invErr.Kind != want {
		t.Errorf("kind = %q, want %q", invErr.Kind, want)
	}
}
