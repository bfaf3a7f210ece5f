package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rtzll/overalltube/internal"
)

var (
	config    *internal.Config
	logCloser io.Closer
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "overalltube [YouTube URL or ID]",
	Short: "Summarize, review and question YouTube videos from their transcripts",
	Long: `overalltube reads the transcript of a YouTube video and asks an LLM about it.

Transcripts come from the rendered transcript panel when a browser is used
(--browser) or a saved page is given (--html), and otherwise from the video's
caption tracks, preferring the requested language and falling back to English.

Responses are generated with Gemini when GEMINI_API_KEY is set, otherwise with OpenAI.`,
	Example: `  # Summarize a YouTube video (default behavior)
  overalltube "https://www.youtube.com/watch?v=tAP1eZYEuKA"
  overalltube tAP1eZYEuKA

  # Summarize in German from German captions when available
  overalltube tAP1eZYEuKA --language de

  # Use a custom prompt
  overalltube tAP1eZYEuKA --prompt "tldr: {{.Transcript}}"

  # Read the transcript panel through headless Chromium
  overalltube tAP1eZYEuKA --browser`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd, false)
	},
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		arg := args[0]
		if internal.IsLikelyCommand(arg) {
			return unknownArgError(arg)
		}
		return runAnalysis(cmd, arg, internal.ModeSummary)
	},
}

// setup loads configuration and logging before any command runs
func setup(cmd *cobra.Command, mcpMode bool) error {
	configFile, _ := cmd.Flags().GetString("config")
	config = internal.LoadConfig(viper.GetViper(), configFile)

	if err := internal.HandleVerboseFlag(cmd, config); err != nil {
		return err
	}
	if quiet, _ := cmd.Flags().GetBool("quiet"); quiet {
		config.Quiet = true
	}
	if err := internal.HandleLanguageFlag(cmd, config); err != nil {
		return err
	}
	if mcpMode {
		config.Quiet = true
	}

	closer, err := internal.SetupLogging(config, mcpMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to set up logging: %v\n", err)
	}
	logCloser = closer

	// Ensure XDG directories exist
	if err := internal.EnsureDirs(config.ConfigDir, config.DataDir, config.CacheDir, config.TranscriptsDir); err != nil {
		return fmt.Errorf("creating XDG directories: %w", err)
	}

	if err := internal.EnsureDefaultConfig(config.ConfigDir); err != nil {
		internal.Logger("setup").WithError(err).Warn("failed to ensure default config")
	}
	if err := internal.EnsureDefaultPrompts(config.ConfigDir); err != nil {
		internal.Logger("setup").WithError(err).Warn("failed to ensure default prompts")
	}

	return nil
}

func unknownArgError(arg string) error {
	var suggestions []string
	for _, c := range rootCmd.Commands() {
		name := c.Name()
		if strings.Contains(name, arg) || (len(arg) <= len(name) && strings.Contains(arg, name[:len(arg)])) {
			suggestions = append(suggestions, name)
		}
	}

	if len(suggestions) > 0 {
		return fmt.Errorf("'%s' doesn't look like a YouTube URL or video ID. Did you mean: %s?", arg, strings.Join(suggestions, ", "))
	}
	return fmt.Errorf("'%s' doesn't look like a YouTube URL or video ID. Use --help to see available commands", arg)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nReceived interrupt signal. Cleaning up and shutting down...")

		cancel()

		cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cleanupCancel()

		cleanupDone := make(chan struct{})
		go func() {
			closeApps()
			close(cleanupDone)
		}()

		select {
		case <-cleanupDone:
		case <-cleanupCtx.Done():
			fmt.Fprintln(os.Stderr, "Warning: Cleanup timed out, forcing exit")
		}

		os.Exit(130)
	}()

	rootCmd.SetContext(ctx)

	err := rootCmd.Execute()
	closeApps()
	if logCloser != nil {
		_ = logCloser.Close()
	}
	return err
}

func init() {
	internal.AddLLMFlags(rootCmd)
	internal.AddSourceFlags(rootCmd)
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output for debugging")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().StringP("language", "l", "", "Preferred caption and response language (e.g. en, de, ru)")
	rootCmd.PersistentFlags().String("config", "", "Config file (default is $XDG_CONFIG_HOME/overalltube/config.toml)")
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}
