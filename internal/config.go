package internal

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

// AppName names the XDG directories and the env prefix.
const AppName = "overalltube"

// Config holds application settings
type Config struct {
	// User configurable settings
	Language             string
	Model                string
	GeminiModel          string
	GeminiFallbackModels []string
	RequestTimeout       time.Duration
	SummaryTimeout       time.Duration
	RequestsPerSecond    float64
	Cookie               string
	UserAgent            string
	Verbose              bool
	Quiet                bool
	LogJSON              bool
	CacheTTL             time.Duration
	Prompt               string
	Browser              bool
	BrowserBin           string
	OpenAIAPIKey         string
	GeminiAPIKey         string

	// Fixed XDG paths (not configurable)
	ConfigDir      string
	DataDir        string
	CacheDir       string
	TranscriptsDir string
}

//go:embed config.toml summary.txt critical.txt ask.txt
var defaultFS embed.FS

// promptFiles are the default templates written next to config.toml
var promptFiles = []string{"summary.txt", "critical.txt", "ask.txt"}

// ensureDefaultFile checks if a file exists in the specified directory
// and creates it from the embedded default if it doesn't exist
func ensureDefaultFile(configDir, embedFilename, description string) error {
	filePath := filepath.Join(configDir, embedFilename)

	if FileExists(filePath) {
		return nil
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	defaultContent, err := defaultFS.ReadFile(embedFilename)
	if err != nil {
		return fmt.Errorf("reading embedded default %s: %w", description, err)
	}

	if err := os.WriteFile(filePath, defaultContent, 0644); err != nil {
		return fmt.Errorf("writing default %s: %w", description, err)
	}

	fmt.Fprintf(os.Stderr, "Created default %s at %s\n", description, filePath)
	return nil
}

// EnsureDefaultConfig creates config.toml in the config directory if it is missing
func EnsureDefaultConfig(configDir string) error {
	return ensureDefaultFile(configDir, "config.toml", "configuration")
}

// EnsureDefaultPrompts creates any missing prompt template in the config directory
func EnsureDefaultPrompts(configDir string) error {
	var errs []error
	for _, name := range promptFiles {
		if err := ensureDefaultFile(configDir, name, "prompt template"); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// InitConfig initializes Viper and loads configuration
func InitConfig() *Config {
	return LoadConfig(viper.New(), "")
}

// LoadConfig reads settings into a Config using v. A non-empty configFile replaces
// the XDG lookup.
func LoadConfig(v *viper.Viper, configFile string) *Config {
	configDir := filepath.Join(xdg.ConfigHome, AppName)
	dataDir := filepath.Join(xdg.DataHome, AppName)
	cacheDir := filepath.Join(xdg.CacheHome, AppName)
	transcriptsDir := filepath.Join(dataDir, "transcripts")

	v.SetDefault("language", DefaultLanguage)
	v.SetDefault("model", "gpt-5-nano")
	v.SetDefault("gemini_model", "gemini-2.5-flash")
	v.SetDefault("gemini_fallback_models", []string{"gemini-2.5-flash-lite", "gemini-3-flash-preview"})
	v.SetDefault("request_timeout", 30*time.Second)
	v.SetDefault("summary_timeout", 2*time.Minute)
	v.SetDefault("requests_per_second", 2.0)
	v.SetDefault("cookie", "")
	v.SetDefault("user_agent", "")
	v.SetDefault("verbose", false)
	v.SetDefault("quiet", false)
	v.SetDefault("log_json", false)
	v.SetDefault("cache_ttl", 7*24*time.Hour)
	v.SetDefault("prompt", "") // if empty will use default prompt templates
	v.SetDefault("browser", false)
	v.SetDefault("browser_bin", "")

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(configDir)
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(strings.ToUpper(AppName))
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	// API keys are also read from their conventional variables
	_ = v.BindEnv("openai_api_key", "OPENAI_API_KEY")
	_ = v.BindEnv("gemini_api_key", "GEMINI_API_KEY")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "Warning: Error reading config file: %v\n", err)
		}
	}

	config := &Config{
		Language:             SafeLanguage(v.GetString("language")),
		Model:                v.GetString("model"),
		GeminiModel:          v.GetString("gemini_model"),
		GeminiFallbackModels: v.GetStringSlice("gemini_fallback_models"),
		RequestTimeout:       v.GetDuration("request_timeout"),
		SummaryTimeout:       v.GetDuration("summary_timeout"),
		RequestsPerSecond:    v.GetFloat64("requests_per_second"),
		Cookie:               v.GetString("cookie"),
		UserAgent:            v.GetString("user_agent"),
		Verbose:              v.GetBool("verbose"),
		Quiet:                v.GetBool("quiet"),
		LogJSON:              v.GetBool("log_json"),
		CacheTTL:             v.GetDuration("cache_ttl"),
		Prompt:               v.GetString("prompt"),
		Browser:              v.GetBool("browser"),
		BrowserBin:           v.GetString("browser_bin"),
		OpenAIAPIKey:         strings.TrimSpace(v.GetString("openai_api_key")),
		GeminiAPIKey:         strings.TrimSpace(v.GetString("gemini_api_key")),

		ConfigDir:      configDir,
		DataDir:        dataDir,
		CacheDir:       cacheDir,
		TranscriptsDir: transcriptsDir,
	}

	if config.Verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", v.ConfigFileUsed())
	}

	return config
}

// TranscriptCachePath is the file holding cached transcripts.
func (c *Config) TranscriptCachePath() string {
	return filepath.Join(c.TranscriptsDir, "transcripts.json")
}

// AnalysisCachePath is the file holding cached model responses.
func (c *Config) AnalysisCachePath() string {
	return filepath.Join(c.CacheDir, "analyses.json")
}

// LogPath is where logs go when stdout is reserved for the MCP protocol.
func (c *Config) LogPath() string {
	return filepath.Join(c.CacheDir, "mcp.log")
}
