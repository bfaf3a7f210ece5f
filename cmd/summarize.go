package cmd

import (
	"github.com/spf13/cobra"

	"github.com/rtzll/overalltube/internal"
)

// summarizeCmd represents the summarize command
var summarizeCmd = &cobra.Command{
	Use:   "summarize [YouTube URL or ID]",
	Short: "Generate a brief summary of a YouTube video",
	Example: `  # Generate summary from YouTube video
  overalltube summarize "https://www.youtube.com/watch?v=tAP1eZYEuKA"
  overalltube summarize tAP1eZYEuKA

  # Use a specific model
  overalltube summarize tAP1eZYEuKA --model gemini-2.5-flash-lite

  # Summarize in Spanish and print the plain model output
  overalltube summarize tAP1eZYEuKA -l es --raw`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnalysis(cmd, args[0], internal.ModeSummary)
	},
}

func init() {
	internal.AddLLMFlags(summarizeCmd)
	internal.AddSourceFlags(summarizeCmd)
	rootCmd.AddCommand(summarizeCmd)
}
