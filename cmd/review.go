package cmd

import (
	"github.com/spf13/cobra"

	"github.com/rtzll/overalltube/internal"
)

// reviewCmd asks for a critical review instead of a summary
var reviewCmd = &cobra.Command{
	Use:     "review [YouTube URL or ID]",
	Aliases: []string{"critical"},
	Short:   "Critically review the claims made in a YouTube video",
	Example: `  # Verify claims and point out possible biases
  overalltube review tAP1eZYEuKA

  # Review in Russian
  overalltube review "https://youtu.be/tAP1eZYEuKA" --language ru`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnalysis(cmd, args[0], internal.ModeCritical)
	},
}

func init() {
	internal.AddLLMFlags(reviewCmd)
	internal.AddSourceFlags(reviewCmd)
	rootCmd.AddCommand(reviewCmd)
}
