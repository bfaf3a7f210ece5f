package internal

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/rtzll/overalltube/internal/transcript"
)

// OutputRules constrains the shape of every model response.
const OutputRules = "Return only the answer content. Do not add introductory or concluding phrases. " +
	"Return plain text only: no markdown, no headings, no bullet points, no quotes, and no extra formatting. " +
	"Split the response into short readable paragraphs."

// PromptData for template injection
type PromptData struct {
	LanguageName string
	OutputRules  string
	Title        string
	Author       string
	Description  string
	Transcript   string
	Question     string
	History      []ChatMessage
}

// PromptManager handles loading and processing prompt templates
type PromptManager struct {
	promptFile   string
	promptString string
	configDir    string
}

// NewPromptManager creates a new prompt manager. A non-empty promptSetting replaces
// the analysis templates; it is read as a file when it looks like a path to one.
func NewPromptManager(configDir, promptSetting string) *PromptManager {
	pm := &PromptManager{
		configDir: configDir,
	}

	if promptSetting != "" {
		if IsLikelyFilePath(promptSetting) && FileExists(promptSetting) {
			pm.promptFile = promptSetting
		} else {
			pm.promptString = promptSetting
		}
	}

	return pm
}

// HasCustomPrompt reports whether a prompt string or file overrides the defaults.
func (pm *PromptManager) HasCustomPrompt() bool {
	return pm.promptString != "" || pm.promptFile != ""
}

// CreateAnalysisPrompt builds the summary or critical review prompt
func (pm *PromptManager) CreateAnalysisPrompt(mode AnalysisMode, language, text string, details *transcript.VideoDetails) (string, error) {
	var tmplContent string
	switch {
	case pm.promptString != "":
		tmplContent = pm.promptString
	case pm.promptFile != "":
		content, err := os.ReadFile(pm.promptFile)
		if err != nil {
			return "", fmt.Errorf("reading prompt template: %w", err)
		}
		tmplContent = string(content)
	default:
		content, err := pm.loadTemplate(mode.String() + ".txt")
		if err != nil {
			return "", err
		}
		tmplContent = content
	}

	data := PromptData{
		LanguageName: LanguageName(language),
		OutputRules:  OutputRules,
		Transcript:   text,
	}
	if details != nil {
		data.Title = details.Title
		data.Author = details.Author
		data.Description = details.Description
	}

	return pm.buildPromptFromTemplate(tmplContent, data)
}

// CreateAskPrompt builds a question prompt carrying the sanitized history
func (pm *PromptManager) CreateAskPrompt(language, text, question string, history []ChatMessage) (string, error) {
	tmplContent, err := pm.loadTemplate("ask.txt")
	if err != nil {
		return "", err
	}

	return pm.buildPromptFromTemplate(tmplContent, PromptData{
		LanguageName: LanguageName(language),
		OutputRules:  OutputRules,
		Transcript:   text,
		Question:     strings.TrimSpace(question),
		History:      SafeHistory(history),
	})
}

// loadTemplate prefers the user's copy in the config directory over the embedded default
func (pm *PromptManager) loadTemplate(name string) (string, error) {
	if pm.configDir != "" {
		if content, err := os.ReadFile(filepath.Join(pm.configDir, name)); err == nil {
			return string(content), nil
		}
	}

	content, err := defaultFS.ReadFile(name)
	if err != nil {
		return "", fmt.Errorf("reading prompt template %s: %w", name, err)
	}
	return string(content), nil
}

// buildPromptFromTemplate builds the AI prompt from template content
func (pm *PromptManager) buildPromptFromTemplate(templateContent string, data PromptData) (string, error) {
	tmpl, err := template.New("prompt").Parse(templateContent)
	if err != nil {
		return "", fmt.Errorf("parsing prompt template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing prompt template: %w", err)
	}

	return buf.String(), nil
}

// IsLikelyFilePath uses heuristics to determine if a string is likely a file path
func IsLikelyFilePath(s string) bool {
	if strings.Contains(s, "/") || strings.Contains(s, "\\") {
		return true
	}

	if strings.Contains(s, ".txt") || strings.Contains(s, ".md") ||
		strings.Contains(s, ".template") || strings.Contains(s, ".tmpl") {
		return true
	}

	// If it's longer than 200 characters, it's likely a prompt string
	if len(s) > 200 {
		return false
	}

	return !strings.Contains(s, " ") && !strings.Contains(s, "\n")
}
