package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rtzll/overalltube/internal"
)

// askCmd answers a question about a video from its transcript
var askCmd = &cobra.Command{
	Use:   "ask [YouTube URL or ID] [question]",
	Short: "Ask a question about a YouTube video",
	Long: `Ask a question that is answered using only the video's transcript.

With --history the conversation is kept in a JSON file: earlier turns are sent
along with the question and the new question and answer are appended to it.`,
	Example: `  # Ask a single question
  overalltube ask tAP1eZYEuKA "Which tools are recommended?"

  # Keep a conversation going across invocations
  overalltube ask tAP1eZYEuKA "Who is the speaker?" --history chat.json
  overalltube ask tAP1eZYEuKA "What did they say about testing?" --history chat.json`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := internal.ValidateLLMRequirements(cmd, config); err != nil {
			return err
		}

		app, err := newApp(cmd)
		if err != nil {
			return err
		}

		question := strings.Join(args[1:], " ")
		historyFile, _ := cmd.Flags().GetString("history")

		var history []internal.ChatMessage
		if historyFile != "" {
			if history, err = internal.LoadHistory(historyFile); err != nil {
				return err
			}
		}

		answer, err := app.Ask(cmd.Context(), args[0], question, config.Language, history)
		if err != nil {
			return err
		}

		if historyFile != "" {
			history = append(history,
				internal.ChatMessage{Role: internal.RoleUser, Text: question},
				internal.ChatMessage{Role: internal.RoleAssistant, Text: answer},
			)
			if err := internal.SaveHistory(historyFile, history); err != nil {
				internal.Logger("cmd").WithError(err).Warn("failed to save history")
			}
		}

		raw, _ := cmd.Flags().GetBool("raw")
		if raw {
			fmt.Println(answer)
			return nil
		}
		rendered, err := internal.RenderMarkdown(answer)
		if err != nil {
			return err
		}
		fmt.Println(rendered)
		return nil
	},
}

func init() {
	internal.AddLLMFlags(askCmd)
	internal.AddSourceFlags(askCmd)
	askCmd.Flags().String("history", "", "JSON file holding the conversation so far")
	rootCmd.AddCommand(askCmd)
}
