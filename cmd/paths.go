package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// pathsCmd represents the paths command
var pathsCmd = &cobra.Command{
	Use:   "paths",
	Short: "Show paths used by the application",
	Example: `  # Show all application paths
  overalltube paths`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Config directory: %s\n", config.ConfigDir)
		fmt.Printf("Data directory: %s\n", config.DataDir)
		fmt.Printf("Cache directory: %s\n", config.CacheDir)
		fmt.Printf("Transcript cache: %s\n", config.TranscriptCachePath())
		fmt.Printf("Analysis cache: %s\n", config.AnalysisCachePath())
		fmt.Printf("MCP log: %s\n", config.LogPath())
	},
}

func init() {
	rootCmd.AddCommand(pathsCmd)
}
