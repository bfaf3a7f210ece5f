package internal

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// AnalysisMode selects which analysis prompt is sent to the model
type AnalysisMode string

const (
	ModeSummary  AnalysisMode = "summary"
	ModeCritical AnalysisMode = "critical"
)

// ParseAnalysisMode maps "summary" to ModeSummary and anything else to ModeCritical
func ParseAnalysisMode(s string) AnalysisMode {
	if strings.EqualFold(strings.TrimSpace(s), string(ModeSummary)) {
		return ModeSummary
	}
	return ModeCritical
}

// String returns a human-readable representation of the mode
func (m AnalysisMode) String() string {
	return string(m)
}

// Role is the author of a chat message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// MaxHistoryMessages bounds how much conversation is replayed to the model
const MaxHistoryMessages = 12

// ChatMessage is one turn of a question-and-answer session about a video
type ChatMessage struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Label returns the speaker name used in prompts
func (m ChatMessage) Label() string {
	if m.Role == RoleAssistant {
		return "Assistant"
	}
	return "User"
}

// String returns a formatted representation of the message
func (m ChatMessage) String() string {
	return fmt.Sprintf("%s: %s", m.Label(), m.Text)
}

// SafeHistory keeps the last MaxHistoryMessages messages, coerces unknown roles to
// user, trims text and drops empty messages
func SafeHistory(history []ChatMessage) []ChatMessage {
	if len(history) > MaxHistoryMessages {
		history = history[len(history)-MaxHistoryMessages:]
	}

	cleaned := lo.Map(history, func(m ChatMessage, _ int) ChatMessage {
		role := RoleUser
		if m.Role == RoleAssistant {
			role = RoleAssistant
		}
		return ChatMessage{Role: role, Text: strings.TrimSpace(m.Text)}
	})

	return lo.Filter(cleaned, func(m ChatMessage, _ int) bool {
		return m.Text != ""
	})
}
