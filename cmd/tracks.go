package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rtzll/overalltube/internal"
)

// tracksCmd lists caption tracks in the order they would be tried
var tracksCmd = &cobra.Command{
	Use:   "tracks [YouTube URL or ID]",
	Short: "List a video's caption tracks, best match first",
	Example: `  # Show which captions would be used for English
  overalltube tracks tAP1eZYEuKA

  # Rank the tracks for Ukrainian
  overalltube tracks tAP1eZYEuKA -l uk`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd)
		if err != nil {
			return err
		}

		tracks, err := app.Tracks(cmd.Context(), args[0], config.Language)
		if err != nil {
			return err
		}
		if len(tracks) == 0 {
			fmt.Println("No caption tracks.")
			return nil
		}

		fmt.Print(internal.FormatTracks(tracks, config.Language))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tracksCmd)
}
