package internal

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/rtzll/overalltube/internal/transcript"
)

// App holds the application state and dependencies
type App struct {
	client        transcript.Getter
	opener        transcript.PageOpener
	pollPolicy    transcript.PollPolicy
	watchURL      func(videoID, lang string) string
	ai            *AI
	promptManager *PromptManager
	transcripts   Cache[TranscriptKey, string]
	analyses      Cache[AnalysisKey, string]
	fs            afero.Fs
	config        *Config
	ui            UIManager
	log           *logrus.Entry
}

// NewApp initializes the application
func NewApp(config *Config, options ...AppOption) *App {
	app := &App{
		client: transcript.NewClient(transcript.ClientOptions{
			Timeout:           config.RequestTimeout,
			UserAgent:         config.UserAgent,
			AcceptLanguage:    config.Language,
			Cookie:            config.Cookie,
			RequestsPerSecond: config.RequestsPerSecond,
			Retry:             transcript.DefaultRetryConfig,
			Logger:            Logger("http"),
		}),
		opener:        transcript.StaticOpener{},
		pollPolicy:    transcript.DefaultPollPolicy,
		ai:            NewAIWithConfig(config, Logger("llm")),
		promptManager: NewPromptManager(config.ConfigDir, config.Prompt),
		fs:            afero.NewOsFs(),
		config:        config,
		ui:            NewUIManager(config.Verbose, config.Quiet),
		log:           Logger("app"),
	}

	if config.Browser {
		app.opener = &lazyBrowser{opts: transcript.BrowserOptions{
			Bin:       config.BrowserBin,
			UserAgent: config.UserAgent,
			Language:  config.Language,
			Logger:    Logger("browser"),
		}}
	}

	for _, option := range options {
		option(app)
	}

	if app.transcripts == nil {
		app.transcripts = NewFileCache[TranscriptKey, string](app.fs, config.TranscriptCachePath(), config.CacheTTL)
	}
	if app.analyses == nil {
		app.analyses = NewFileCache[AnalysisKey, string](app.fs, config.AnalysisCachePath(), config.CacheTTL)
	}

	return app
}

// AppOption customizes App creation
type AppOption func(*App)

// WithHTTPClient sets the client used for YouTube requests
func WithHTTPClient(client transcript.Getter) AppOption {
	return func(a *App) {
		a.client = client
	}
}

// WithPageOpener sets where host pages for the DOM strategies come from
func WithPageOpener(opener transcript.PageOpener) AppOption {
	return func(a *App) {
		a.opener = opener
	}
}

// WithHostPage reads every video from page, typically a saved watch page snapshot
func WithHostPage(page transcript.HostPage) AppOption {
	return WithPageOpener(transcript.StaticOpener{Page: page})
}

// WithPollPolicy sets the DOM reader delays
func WithPollPolicy(policy transcript.PollPolicy) AppOption {
	return func(a *App) {
		a.pollPolicy = policy
	}
}

// WithWatchURL overrides how watch page URLs are built
func WithWatchURL(fn func(videoID, lang string) string) AppOption {
	return func(a *App) {
		a.watchURL = fn
	}
}

// WithAI sets a custom AI processor
func WithAI(ai *AI) AppOption {
	return func(a *App) {
		a.ai = ai
	}
}

// WithFs sets the filesystem the default file caches live on
func WithFs(fs afero.Fs) AppOption {
	return func(a *App) {
		a.fs = fs
	}
}

// WithTranscriptCache sets the transcript cache
func WithTranscriptCache(c Cache[TranscriptKey, string]) AppOption {
	return func(a *App) {
		a.transcripts = c
	}
}

// WithAnalysisCache sets the analysis cache
func WithAnalysisCache(c Cache[AnalysisKey, string]) AppOption {
	return func(a *App) {
		a.analyses = c
	}
}

// WithUI sets the UI manager
func WithUI(ui UIManager) AppOption {
	return func(a *App) {
		a.ui = ui
	}
}

// SetPromptManager sets a new prompt manager
func (app *App) SetPromptManager(pm *PromptManager) {
	app.promptManager = pm
}

// Close releases the browser, if one was started
func (app *App) Close() error {
	if c, ok := app.opener.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// language resolves lang against the configured default
func (app *App) language(lang string) string {
	if strings.TrimSpace(lang) == "" {
		return app.config.Language
	}
	return SafeLanguage(lang)
}

func (app *App) acquirer(spinner ProgressBar) *transcript.Acquirer {
	opts := []transcript.AcquirerOption{
		transcript.WithPageOpener(app.opener),
		transcript.WithPollPolicy(app.pollPolicy),
		transcript.WithLogger(Logger("acquire")),
	}
	if app.watchURL != nil {
		opts = append(opts, transcript.WithWatchURL(app.watchURL))
	}
	if spinner != nil {
		opts = append(opts, transcript.WithStageHook(func(stage string) {
			spinner.Describe(stageDescription(stage))
			spinner.Advance()
		}))
	}
	return transcript.NewAcquirer(app.client, opts...)
}

func stageDescription(stage string) string {
	switch {
	case stage == "rendered-dom":
		return "Reading rendered transcript..."
	case stage == "current-page":
		return "Checking captions on the page..."
	case strings.HasPrefix(stage, "watch-page:"):
		return fmt.Sprintf("Fetching captions (%s)...", strings.TrimPrefix(stage, "watch-page:"))
	default:
		return stage
	}
}

// GetTranscript gets a transcript (cached or acquired) for a video URL or ID
func (app *App) GetTranscript(ctx context.Context, input, lang string) (string, error) {
	return app.GetTranscriptWithStatus(ctx, input, lang, false)
}

// GetTranscriptWithStatus gets a transcript with optional status spinner
func (app *App) GetTranscriptWithStatus(ctx context.Context, input, lang string, showStatus bool) (string, error) {
	videoID, err := ExtractVideoID(input)
	if err != nil {
		return "", err
	}
	lang = app.language(lang)
	key := TranscriptKey{VideoID: videoID, Language: lang}
	log := app.log.WithFields(logrus.Fields{"video": videoID, "lang": lang})

	if cached, ok := app.transcripts.Get(key).Get(); ok {
		log.Debug("using cached transcript")
		app.ui.Verbose("Using cached transcript for %s (%s)\n", videoID, lang)
		return cached, nil
	}

	var spinner ProgressBar
	if showStatus {
		spinner = app.ui.NewSpinner("Looking for a transcript...")
		defer spinner.Finish()
	}

	text, err := app.acquirer(spinner).Acquire(ctx, videoID, lang)
	if err != nil {
		return "", err
	}

	if err := app.transcripts.Set(key, text); err != nil {
		log.WithError(err).Warn("failed to cache transcript")
	}
	return text, nil
}

// Tracks lists a video's caption tracks ranked for lang
func (app *App) Tracks(ctx context.Context, input, lang string) ([]transcript.CaptionTrack, error) {
	videoID, err := ExtractVideoID(input)
	if err != nil {
		return nil, err
	}
	return app.acquirer(nil).Tracks(ctx, videoID, app.language(lang))
}

// Metadata gets the video details embedded in the watch page
func (app *App) Metadata(ctx context.Context, input, lang string) (transcript.VideoDetails, error) {
	videoID, err := ExtractVideoID(input)
	if err != nil {
		return transcript.VideoDetails{}, err
	}
	details, err := app.acquirer(nil).Metadata(ctx, videoID, app.language(lang))
	if err != nil {
		return transcript.VideoDetails{}, fmt.Errorf("fetching video metadata: %w", err)
	}
	return details, nil
}

// Analyze returns the model's summary or critical review of a video. Results for the
// default prompts are cached per video, mode and language.
func (app *App) Analyze(ctx context.Context, input string, mode AnalysisMode, lang string) (string, error) {
	if err := app.ai.ensureClient(); err != nil {
		return "", err
	}

	videoID, err := ExtractVideoID(input)
	if err != nil {
		return "", err
	}
	lang = app.language(lang)
	key := AnalysisKey{VideoID: videoID, Mode: mode, Language: lang}
	cacheable := !app.promptManager.HasCustomPrompt()

	if cacheable {
		if cached, ok := app.analyses.Get(key).Get(); ok {
			app.log.WithField("video", videoID).Debug("using cached analysis")
			app.ui.Printf("Using cached %s for %s\n", mode, videoID)
			return cached, nil
		}
	}

	text, err := app.GetTranscriptWithStatus(ctx, videoID, lang, !app.config.Quiet)
	if err != nil {
		return "", err
	}

	var details *transcript.VideoDetails
	if d, err := app.Metadata(ctx, videoID, lang); err != nil {
		app.log.WithError(err).Debug("continuing without video metadata")
	} else {
		details = &d
	}

	prompt, err := app.promptManager.CreateAnalysisPrompt(mode, lang, text, details)
	if err != nil {
		return "", fmt.Errorf("creating prompt: %w", err)
	}

	analysis, err := app.generateWithStatus(ctx, prompt, "Analyzing video...")
	if err != nil {
		return "", fmt.Errorf("generating %s: %w", mode, err)
	}

	if cacheable {
		if err := app.analyses.Set(key, analysis); err != nil {
			app.log.WithError(err).Warn("failed to cache analysis")
		}
	}
	return analysis, nil
}

// Ask answers a question about a video using only its transcript
func (app *App) Ask(ctx context.Context, input, question, lang string, history []ChatMessage) (string, error) {
	if err := app.ai.ensureClient(); err != nil {
		return "", err
	}
	if strings.TrimSpace(question) == "" {
		return "", ErrQuestionRequired
	}

	videoID, err := ExtractVideoID(input)
	if err != nil {
		return "", err
	}
	lang = app.language(lang)

	text, err := app.GetTranscriptWithStatus(ctx, videoID, lang, !app.config.Quiet)
	if err != nil {
		return "", err
	}

	prompt, err := app.promptManager.CreateAskPrompt(lang, text, question, history)
	if err != nil {
		return "", fmt.Errorf("creating prompt: %w", err)
	}

	answer, err := app.generateWithStatus(ctx, prompt, "Thinking...")
	if err != nil {
		return "", fmt.Errorf("answering question: %w", err)
	}
	return answer, nil
}

func (app *App) generateWithStatus(ctx context.Context, prompt, status string) (string, error) {
	spinner := app.ui.NewSpinner(status)
	defer spinner.Finish()
	return app.ai.Generate(ctx, prompt)
}

// AnalyzeYouTube runs Analyze and prints the result, rendered unless raw is set
func (app *App) AnalyzeYouTube(ctx context.Context, input string, mode AnalysisMode, lang string, raw bool) error {
	analysis, err := app.Analyze(ctx, input, mode, lang)
	if err != nil {
		return err
	}

	if raw {
		fmt.Println(analysis)
		return nil
	}

	rendered, err := RenderMarkdown(analysis)
	if err != nil {
		return fmt.Errorf("rendering markdown: %w", err)
	}
	fmt.Println(rendered)
	return nil
}

// lazyBrowser launches Chromium on first use and reuses it for later pages
type lazyBrowser struct {
	opts    transcript.BrowserOptions
	mu      sync.Mutex
	browser *transcript.Browser
}

func (l *lazyBrowser) OpenPage(ctx context.Context, videoID string) (transcript.HostPage, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.browser == nil {
		b, err := transcript.LaunchBrowser(ctx, l.opts)
		if err != nil {
			return nil, err
		}
		l.browser = b
	}
	return l.browser.OpenPage(ctx, videoID)
}

func (l *lazyBrowser) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.browser == nil {
		return nil
	}
	err := l.browser.Close()
	l.browser = nil
	return err
}
