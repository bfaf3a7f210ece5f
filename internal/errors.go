package internal

import (
	"errors"

	"github.com/rtzll/overalltube/internal/transcript"
)

var (
	// ErrTranscriptUnavailable is returned when no strategy produced a transcript.
	ErrTranscriptUnavailable = transcript.ErrTranscriptUnavailable

	ErrNoAPIKey            = errors.New("API key is missing: set GEMINI_API_KEY or OPENAI_API_KEY in config.toml or the environment")
	ErrEmptyResponse       = errors.New("language model returned an empty response")
	ErrUnsupportedLanguage = errors.New("unsupported language")
	ErrInvalidVideo        = errors.New("invalid YouTube URL")
	ErrQuestionRequired    = errors.New("question is required")
)
