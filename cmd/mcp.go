package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/adrg/xdg"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"

	"github.com/rtzll/overalltube/internal"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run an MCP server exposing transcripts and analysis",
	Long: `Run a Model Context Protocol (MCP) server that exposes overalltube as tools.

The MCP server provides these tools:
- get_youtube_transcript: Transcript in the preferred language, falling back to English
- list_caption_tracks: Caption tracks ranked for a language
- get_youtube_metadata: Title, channel, duration and description
- analyze_youtube_video: Summary or critical review (needs an API key)
- ask_youtube_video: Answer a question from the transcript (needs an API key)

Logs are written to the cache directory because stdout carries the protocol.

Transport options:
- stdio (default): Standard MCP transport via stdin/stdout
- http: HTTP transport on specified port (use --port to configure)`,
	Example: `  # Run MCP server with stdio transport (e.g. for Claude Desktop)
  overalltube mcp

  # Run MCP server with HTTP transport on port 8080
  overalltube mcp --transport=http --port=8080

  # Keep a headless browser around for rendered transcripts
  overalltube mcp --browser

  # Set up Claude Desktop integration
  overalltube mcp setup-claude`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd, true)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		app, err := newApp(cmd)
		if err != nil {
			return err
		}

		mcpServer := internal.NewMCPServer(app, version)

		internal.Logger("mcp").WithFields(logrus.Fields{
			"transport": transport,
			"browser":   config.Browser,
		}).Info("starting MCP server")

		return mcpServer.Start(cmd.Context(), transport, port)
	},
}

// setupClaudeCmd represents the setup-claude subcommand
var setupClaudeCmd = &cobra.Command{
	Use:   "setup-claude",
	Short: "Configure Claude Desktop to use the overalltube MCP server",
	Long: `Automatically configure Claude Desktop to use overalltube as an MCP server.

This command will:
- Detect Claude Desktop installation and config location
- Add the overalltube MCP server configuration to claude_desktop_config.json
- Preserve every other setting in the file
- Set appropriate XDG environment variables for the current platform`,
	RunE: func(cmd *cobra.Command, args []string) error {
		browser, _ := cmd.Flags().GetBool("browser")
		return setupClaudeDesktop(browser)
	},
}

// MCPServerConfig is one entry of claude_desktop_config.json's mcpServers
type MCPServerConfig struct {
	Command string            `json:"command"`
	Args    []string          `json:"args"`
	Env     map[string]string `json:"env"`
}

// setupClaudeDesktop implements the setup-claude subcommand
func setupClaudeDesktop(browser bool) error {
	execPath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("getting executable path: %w", err)
	}

	execPath, err = filepath.EvalSymlinks(execPath)
	if err != nil {
		return fmt.Errorf("resolving executable path: %w", err)
	}

	configPath, err := getClaudeDesktopConfigPath()
	if err != nil {
		return fmt.Errorf("getting Claude Desktop config path: %w", err)
	}

	args := []string{"mcp"}
	if browser {
		args = append(args, "--browser")
	}

	// Pass the XDG base paths so the server finds the same config and caches
	entry := MCPServerConfig{
		Command: execPath,
		Args:    args,
		Env: map[string]string{
			"XDG_DATA_HOME":   xdg.DataHome,
			"XDG_CONFIG_HOME": xdg.ConfigHome,
			"XDG_CACHE_HOME":  xdg.CacheHome,
		},
	}
	if err := registerMCPServer(configPath, internal.AppName, entry); err != nil {
		return err
	}

	fmt.Printf("Successfully configured Claude Desktop MCP server\n")
	fmt.Printf("Restart Claude Desktop to use the overalltube MCP server\n")

	return nil
}

// registerMCPServer adds or replaces mcpServers.<name> in the Claude Desktop
// config at configPath, leaving every other setting untouched.
func registerMCPServer(configPath, name string, entry MCPServerConfig) error {
	data, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		return fmt.Errorf("config for Claude Desktop not found at %s", configPath)
	}
	if err != nil {
		return fmt.Errorf("reading existing config: %w", err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		data = []byte("{}")
	}
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("parsing existing config: %s is not valid JSON", configPath)
	}

	data, err = sjson.SetBytes(data, "mcpServers."+escapePathKey(name), entry)
	if err != nil {
		return fmt.Errorf("updating config: %w", err)
	}

	if err := os.WriteFile(configPath, pretty.Pretty(data), 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// escapePathKey escapes the path characters sjson treats specially
func escapePathKey(key string) string {
	r := strings.NewReplacer(".", `\.`, "*", `\*`, "?", `\?`)
	return r.Replace(key)
}

// getClaudeDesktopConfigPath returns the platform-specific config path for Claude Desktop
func getClaudeDesktopConfigPath() (string, error) {
	switch runtime.GOOS {
	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(homeDir, "Library", "Application Support", "Claude", "claude_desktop_config.json"), nil
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", fmt.Errorf("APPDATA environment variable not set")
		}
		return filepath.Join(appData, "Claude", "claude_desktop_config.json"), nil
	case "linux":
		return filepath.Join(xdg.ConfigHome, "Claude", "claude_desktop_config.json"), nil
	default:
		return "", fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
}

func init() {
	internal.AddSourceFlags(mcpCmd)
	mcpCmd.Flags().String("transport", "stdio", "Transport protocol (stdio or http)")
	mcpCmd.Flags().Int("port", 8080, "Port for HTTP transport (only used with --transport=http)")
	setupClaudeCmd.Flags().Bool("browser", false, "Start the server with --browser")
	mcpCmd.AddCommand(setupClaudeCmd)
	rootCmd.AddCommand(mcpCmd)
}
