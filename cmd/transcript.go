package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rtzll/overalltube/internal"
)

// transcriptCmd prints a video's transcript
var transcriptCmd = &cobra.Command{
	Use:     "transcript [YouTube URL or ID]",
	Aliases: []string{"transcribe"},
	Short:   "Get transcript from YouTube (cached or fetched)",
	Example: `  # Get transcript from YouTube captions
  overalltube transcript "https://www.youtube.com/watch?v=tAP1eZYEuKA"
  overalltube transcript tAP1eZYEuKA

  # Prefer Portuguese captions
  overalltube transcript tAP1eZYEuKA -l pt

  # Save transcript to file
  overalltube transcript tAP1eZYEuKA -o transcript.txt

  # Read the transcript from a saved watch page
  overalltube transcript tAP1eZYEuKA --html watch.html`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		transcript, err := fetchTranscript(cmd, args[0])
		if err != nil {
			return err
		}

		outputFile, _ := cmd.Flags().GetString("output")
		if outputFile != "" {
			if err := os.WriteFile(outputFile, []byte(transcript), 0644); err != nil {
				return fmt.Errorf("writing transcript: %w", err)
			}
			return nil
		}

		fmt.Println(transcript)
		return nil
	},
}

func init() {
	internal.AddSourceFlags(transcriptCmd)
	transcriptCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	rootCmd.AddCommand(transcriptCmd)
}
