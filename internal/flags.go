package internal

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rtzll/overalltube/internal/transcript"
)

// AddLLMFlags adds flags related to model-backed commands
func AddLLMFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("model", "m", "", "Model to use (overrides the configured model of the active provider)")
	cmd.Flags().StringP("prompt", "p", "", "Custom prompt (string or file path)")
	cmd.Flags().Bool("raw", false, "Print the model output without markdown rendering")
}

// AddSourceFlags adds flags that choose where transcripts are read from
func AddSourceFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("browser", false, "Open the video in headless Chromium and read the rendered transcript first")
	cmd.Flags().String("html", "", "Read transcripts and captions from a saved watch page instead of a live browser")
}

// HandleSourceFlags applies the source flags to config and returns the app options they imply
func HandleSourceFlags(cmd *cobra.Command, config *Config) ([]AppOption, error) {
	if f := cmd.Flags().Lookup("browser"); f != nil && f.Changed {
		browser, err := cmd.Flags().GetBool("browser")
		if err != nil {
			return nil, fmt.Errorf("failed to get browser flag: %w", err)
		}
		config.Browser = browser
	}

	snapshot, _ := cmd.Flags().GetString("html")
	if snapshot == "" {
		return nil, nil
	}

	page, err := transcript.LoadSnapshotPage(snapshot)
	if err != nil {
		return nil, fmt.Errorf("loading page snapshot: %w", err)
	}
	config.Browser = false
	return []AppOption{WithHostPage(page)}, nil
}

// HandleLanguageFlag validates --language and stores it in config
func HandleLanguageFlag(cmd *cobra.Command, config *Config) error {
	lang, err := cmd.Flags().GetString("language")
	if err != nil {
		return fmt.Errorf("failed to get language flag: %w", err)
	}
	if lang == "" {
		return nil
	}
	lang, err = ValidateLanguage(lang)
	if err != nil {
		return err
	}
	config.Language = lang
	return nil
}

// HandlePromptFlag processes the --prompt flag to set custom prompt
func HandlePromptFlag(cmd *cobra.Command, app *App) error {
	promptFlag := cmd.Flags().Lookup("prompt")
	if promptFlag == nil || !promptFlag.Changed {
		return nil
	}

	prompt, err := cmd.Flags().GetString("prompt")
	if err != nil {
		return fmt.Errorf("failed to get prompt flag: %w", err)
	}
	if prompt == "" {
		return nil
	}

	app.SetPromptManager(NewPromptManager(app.config.ConfigDir, prompt))

	if IsLikelyFilePath(prompt) && FileExists(prompt) {
		app.log.WithField("file", prompt).Info("using custom prompt file")
	} else {
		app.log.Info("using custom prompt string")
	}

	return nil
}

// HandleVerboseFlag processes the --verbose flag to update config
func HandleVerboseFlag(cmd *cobra.Command, config *Config) error {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return fmt.Errorf("failed to get verbose flag: %w", err)
	}
	config.Verbose = verbose
	return nil
}

// ValidateLLMRequirements checks that a provider key is configured and applies --model
func ValidateLLMRequirements(cmd *cobra.Command, config *Config) error {
	if config.GeminiAPIKey == "" && config.OpenAIAPIKey == "" {
		return ErrNoAPIKey
	}

	model, _ := cmd.Flags().GetString("model")
	if model == "" {
		return nil
	}
	if config.GeminiAPIKey != "" {
		config.GeminiModel = model
	} else {
		config.Model = model
	}
	return nil
}
