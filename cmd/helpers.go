package cmd

import (
	"sync"

	"github.com/spf13/cobra"

	"github.com/rtzll/overalltube/internal"
)

var (
	appsMu sync.Mutex
	apps   []*internal.App
)

// newApp builds an App from config and the command's source flags. Apps are
// closed on exit so a launched browser does not outlive the process.
func newApp(cmd *cobra.Command) (*internal.App, error) {
	opts, err := internal.HandleSourceFlags(cmd, config)
	if err != nil {
		return nil, err
	}

	app := internal.NewApp(config, opts...)

	appsMu.Lock()
	apps = append(apps, app)
	appsMu.Unlock()

	return app, nil
}

func closeApps() {
	appsMu.Lock()
	defer appsMu.Unlock()

	for _, app := range apps {
		if err := app.Close(); err != nil {
			internal.Logger("cmd").WithError(err).Warn("closing app")
		}
	}
	apps = nil
}

// runAnalysis prints the summary or critical review of arg
func runAnalysis(cmd *cobra.Command, arg string, mode internal.AnalysisMode) error {
	if err := internal.ValidateLLMRequirements(cmd, config); err != nil {
		return err
	}

	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	if err := internal.HandlePromptFlag(cmd, app); err != nil {
		return err
	}

	raw, _ := cmd.Flags().GetBool("raw")
	return app.AnalyzeYouTube(cmd.Context(), arg, mode, config.Language, raw)
}

// fetchTranscript retrieves a transcript for arg, showing progress unless quiet
func fetchTranscript(cmd *cobra.Command, arg string) (string, error) {
	app, err := newApp(cmd)
	if err != nil {
		return "", err
	}
	return app.GetTranscriptWithStatus(cmd.Context(), arg, config.Language, !config.Quiet)
}
