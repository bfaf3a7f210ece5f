package internal

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAnalysisMode(t *testing.T) {
	assert.Equal(t, ModeSummary, ParseAnalysisMode("summary"))
	assert.Equal(t, ModeSummary, ParseAnalysisMode(" Summary "))
	assert.Equal(t, ModeCritical, ParseAnalysisMode("critical"))
	assert.Equal(t, ModeCritical, ParseAnalysisMode("review"))
	assert.Equal(t, ModeCritical, ParseAnalysisMode(""))
}

func TestChatMessageString(t *testing.T) {
	assert.Equal(t, "User: hi", ChatMessage{Role: RoleUser, Text: "hi"}.String())
	assert.Equal(t, "Assistant: hello", ChatMessage{Role: RoleAssistant, Text: "hello"}.String())
	assert.Equal(t, "User: ?", ChatMessage{Role: "system", Text: "?"}.String())
}

func TestSafeHistory(t *testing.T) {
	t.Run("sanitizes", func(t *testing.T) {
		got := SafeHistory([]ChatMessage{
			{Role: RoleUser, Text: "  first  "},
			{Role: "system", Text: "coerced"},
			{Role: RoleAssistant, Text: "   "},
			{Role: RoleAssistant, Text: "answer"},
		})
		assert.Equal(t, []ChatMessage{
			{Role: RoleUser, Text: "first"},
			{Role: RoleUser, Text: "coerced"},
			{Role: RoleAssistant, Text: "answer"},
		}, got)
	})

	t.Run("keeps last messages", func(t *testing.T) {
		var history []ChatMessage
		for i := range 20 {
			history = append(history, ChatMessage{Role: RoleUser, Text: fmt.Sprint(i)})
		}
		got := SafeHistory(history)
		assert.Len(t, got, MaxHistoryMessages)
		assert.Equal(t, "8", got[0].Text)
		assert.Equal(t, "19", got[len(got)-1].Text)
	})

	t.Run("window applies before empties are dropped", func(t *testing.T) {
		history := []ChatMessage{{Role: RoleUser, Text: "old"}}
		for range MaxHistoryMessages {
			history = append(history, ChatMessage{Role: RoleUser, Text: " "})
		}
		assert.Empty(t, SafeHistory(history))
	})

	t.Run("empty", func(t *testing.T) {
		assert.Empty(t, SafeHistory(nil))
	})
}
