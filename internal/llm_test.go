package internal

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/openai/openai-go/v2/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeChat replays scripted results per model and records every call
type fakeChat struct {
	mu      sync.Mutex
	results map[string][]error
	reply   string
	calls   []string
	prompts []string
}

func (f *fakeChat) CreateChatCompletion(_ context.Context, model, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, model)
	f.prompts = append(f.prompts, prompt)
	if errs := f.results[model]; len(errs) > 0 {
		f.results[model] = errs[1:]
		if errs[0] != nil {
			return "", errs[0]
		}
	}
	return f.reply + " from " + model, nil
}

func newTestAI(chat ChatClient, models []string, attempts int) *AI {
	ai := NewAI(chat, models, attempts, time.Second, nil)
	ai.retryDelay = 0
	return ai
}

var errOverloaded = errors.New(`503 Service Unavailable: {"code":503,"message":"The model is overloaded"}`)

func TestIsTemporaryModelError(t *testing.T) {
	assert.True(t, IsTemporaryModelError(errOverloaded))
	assert.True(t, IsTemporaryModelError(errors.New("model is experiencing high demand")))
	assert.True(t, IsTemporaryModelError(errors.New("UNAVAILABLE")))
	assert.False(t, IsTemporaryModelError(errors.New("invalid api key")))
	assert.False(t, IsTemporaryModelError(nil))
}

func TestGenerateFirstModel(t *testing.T) {
	chat := &fakeChat{reply: "ok"}
	got, err := newTestAI(chat, []string{"a", "b"}, 2).Generate(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "ok from a", got)
	assert.Equal(t, []string{"a"}, chat.calls)
}

func TestGenerateRetriesTemporaryErrors(t *testing.T) {
	chat := &fakeChat{reply: "ok", results: map[string][]error{"a": {errOverloaded}}}
	got, err := newTestAI(chat, []string{"a", "b"}, 2).Generate(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "ok from a", got)
	assert.Equal(t, []string{"a", "a"}, chat.calls)
}

func TestGenerateFallsBackAcrossModels(t *testing.T) {
	chat := &fakeChat{reply: "ok", results: map[string][]error{
		"a": {errOverloaded, errOverloaded},
		"b": {errors.New("model not found")},
	}}
	got, err := newTestAI(chat, []string{"a", "b", "c"}, 2).Generate(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "ok from c", got)
	assert.Equal(t, []string{"a", "a", "b", "c"}, chat.calls, "permanent errors are not retried")
}

func TestGenerateAllModelsFail(t *testing.T) {
	last := errors.New("quota exceeded")
	chat := &fakeChat{results: map[string][]error{
		"a": {errOverloaded, errOverloaded},
		"b": {last},
	}}
	_, err := newTestAI(chat, []string{"a", "b"}, 2).Generate(context.Background(), "p")
	assert.ErrorIs(t, err, last)
}

func TestGenerateCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	chat := &fakeChat{results: map[string][]error{"a": {context.Canceled}}}
	_, err := newTestAI(chat, []string{"a", "b"}, 2).Generate(ctx, "p")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, chat.calls, 1)
}

func TestNewAIDeduplicatesModels(t *testing.T) {
	ai := NewAI(&fakeChat{}, []string{"a", "", "a", "b"}, 0, 0, nil)
	assert.Equal(t, []string{"a", "b"}, ai.models)
	assert.Equal(t, 1, ai.attempts)
}

func TestEnsureClientFromConfig(t *testing.T) {
	t.Run("no keys", func(t *testing.T) {
		ai := NewAIWithConfig(&Config{}, nil)
		assert.ErrorIs(t, ai.ensureClient(), ErrNoAPIKey)
		_, err := ai.Generate(context.Background(), "p")
		assert.ErrorIs(t, err, ErrNoAPIKey)
	})

	t.Run("gemini preferred", func(t *testing.T) {
		ai := NewAIWithConfig(&Config{
			GeminiAPIKey:         "g",
			OpenAIAPIKey:         "o",
			GeminiModel:          "gemini-2.5-flash",
			GeminiFallbackModels: []string{"gemini-2.5-flash-lite", "gemini-2.5-flash"},
		}, nil)
		require.NoError(t, ai.ensureClient())
		assert.Equal(t, "gemini", ai.provider)
		assert.Equal(t, []string{"gemini-2.5-flash", "gemini-2.5-flash-lite"}, ai.models)
		assert.Equal(t, 2, ai.attempts)
	})

	t.Run("openai", func(t *testing.T) {
		ai := NewAIWithConfig(&Config{OpenAIAPIKey: "o", Model: "gpt-5-nano"}, nil)
		require.NoError(t, ai.ensureClient())
		assert.Equal(t, "openai", ai.provider)
		assert.Equal(t, []string{"gpt-5-nano"}, ai.models)
		assert.Equal(t, 1, ai.attempts)
	})
}

func chatCompletionBody(content string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1,
		"model":   "test-model",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
	}
}

func TestOpenAIClientCreateChatCompletion(t *testing.T) {
	var gotModel string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body struct {
			Model string `json:"model"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotModel = body.Model

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(chatCompletionBody("  the answer \n"))
	}))
	defer srv.Close()

	client := NewOpenAIClient("test-key", option.WithBaseURL(srv.URL+"/"))
	got, err := client.CreateChatCompletion(context.Background(), "gpt-5-nano", "hello")
	require.NoError(t, err)
	assert.Equal(t, "the answer", got)
	assert.Equal(t, "gpt-5-nano", gotModel)
}

func TestOpenAIClientEmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(chatCompletionBody("   "))
	}))
	defer srv.Close()

	_, err := NewOpenAIClient("k", option.WithBaseURL(srv.URL+"/")).CreateChatCompletion(context.Background(), "m", "p")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestOpenAIClientUnavailableIsTemporary(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"message":"overloaded","code":503}}`))
	}))
	defer srv.Close()

	_, err := NewOpenAIClient("k", option.WithBaseURL(srv.URL+"/")).CreateChatCompletion(context.Background(), "m", "p")
	require.Error(t, err)
	assert.True(t, IsTemporaryModelError(err))
	assert.Equal(t, 1, hits, "SDK retries are disabled")
}
