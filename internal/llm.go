package internal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

// GeminiBaseURL is Gemini's OpenAI-compatible endpoint.
const GeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"

const (
	geminiAttemptsPerModel = 2
	temporaryRetryDelay    = 800 * time.Millisecond
)

// ChatClient defines the interface for chat completion calls
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, model, prompt string) (string, error)
}

// OpenAIClient wraps the official OpenAI Go SDK
type OpenAIClient struct {
	client *openai.Client
}

// NewOpenAIClient creates a new OpenAI client. Retries are left to AI.
func NewOpenAIClient(apiKey string, opts ...option.RequestOption) *OpenAIClient {
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}, opts...)
	client := openai.NewClient(opts...)
	return &OpenAIClient{client: &client}
}

// NewGeminiClient creates a client for Gemini through its OpenAI-compatible API
func NewGeminiClient(apiKey string) *OpenAIClient {
	return NewOpenAIClient(apiKey, option.WithBaseURL(GeminiBaseURL))
}

// CreateChatCompletion sends prompt as a single user message
func (c *OpenAIClient) CreateChatCompletion(ctx context.Context, model, prompt string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", ErrEmptyResponse
	}
	return content, nil
}

// IsTemporaryModelError reports whether err looks like a transient overload worth
// one more attempt on the same model.
func IsTemporaryModelError(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusServiceUnavailable {
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unavailable") ||
		strings.Contains(msg, "high demand") ||
		strings.Contains(msg, `"code":503`)
}

// AI sends prompts to the configured provider, falling back across models
type AI struct {
	client     ChatClient
	provider   string
	models     []string
	attempts   int
	timeout    time.Duration
	retryDelay time.Duration
	log        *logrus.Entry

	config     *Config
	clientOnce sync.Once
	clientErr  error
}

// NewAI creates an AI that tries models in order, each up to attempts times
func NewAI(client ChatClient, models []string, attempts int, timeout time.Duration, log *logrus.Entry) *AI {
	if log == nil {
		log = logrus.WithField("component", "llm")
	}
	return &AI{
		client:     client,
		provider:   "custom",
		models:     lo.Uniq(lo.Compact(models)),
		attempts:   max(attempts, 1),
		timeout:    timeout,
		retryDelay: temporaryRetryDelay,
		log:        log,
	}
}

// NewAIWithConfig creates an AI whose client is chosen from the configured keys on
// first use. A Gemini key takes precedence over an OpenAI key.
func NewAIWithConfig(config *Config, log *logrus.Entry) *AI {
	if log == nil {
		log = logrus.WithField("component", "llm")
	}
	return &AI{
		timeout:    config.SummaryTimeout,
		retryDelay: temporaryRetryDelay,
		log:        log,
		config:     config,
	}
}

// ensureClient initializes the provider client if needed
func (ai *AI) ensureClient() error {
	if ai.client != nil {
		return nil
	}

	ai.clientOnce.Do(func() {
		switch {
		case ai.config == nil:
			ai.clientErr = ErrNoAPIKey
		case ai.config.GeminiAPIKey != "":
			ai.client = NewGeminiClient(ai.config.GeminiAPIKey)
			ai.provider = "gemini"
			ai.models = lo.Uniq(lo.Compact(append([]string{ai.config.GeminiModel}, ai.config.GeminiFallbackModels...)))
			ai.attempts = geminiAttemptsPerModel
		case ai.config.OpenAIAPIKey != "":
			ai.client = NewOpenAIClient(ai.config.OpenAIAPIKey)
			ai.provider = "openai"
			ai.models = lo.Compact([]string{ai.config.Model})
			ai.attempts = 1
		default:
			ai.clientErr = ErrNoAPIKey
		}
	})

	return ai.clientErr
}

// Generate returns the first successful completion of prompt. Each model gets up to
// attempts tries; a retry happens only after a temporary error.
func (ai *AI) Generate(ctx context.Context, prompt string) (string, error) {
	if err := ai.ensureClient(); err != nil {
		return "", err
	}
	if len(ai.models) == 0 {
		return "", fmt.Errorf("no %s model configured", ai.provider)
	}

	if ai.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ai.timeout)
		defer cancel()
	}

	var lastErr error
	for _, model := range ai.models {
		log := ai.log.WithFields(logrus.Fields{"provider": ai.provider, "model": model})

		for attempt := 1; attempt <= ai.attempts; attempt++ {
			text, err := ai.client.CreateChatCompletion(ctx, model, prompt)
			if err == nil {
				log.Debug("completion received")
				return text, nil
			}
			lastErr = err

			if ctxErr := ctx.Err(); ctxErr != nil {
				return "", fmt.Errorf("creating chat completion: %w", ctxErr)
			}

			retry := attempt < ai.attempts && IsTemporaryModelError(err)
			log.WithError(err).WithFields(logrus.Fields{"attempt": attempt, "retry": retry}).Debug("completion failed")
			if !retry {
				break
			}

			select {
			case <-time.After(ai.retryDelay):
			case <-ctx.Done():
				return "", fmt.Errorf("creating chat completion: %w", ctx.Err())
			}
		}
	}

	return "", fmt.Errorf("creating chat completion: %w", lastErr)
}
