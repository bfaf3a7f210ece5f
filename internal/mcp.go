package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/rtzll/overalltube/internal/transcript"
)

// MCPServer wraps the MCP server and application dependencies
type MCPServer struct {
	app       *App
	mcpServer *server.MCPServer
	log       *logrus.Entry
}

// NewMCPServer creates a new MCP server instance
func NewMCPServer(app *App, version string) *MCPServer {
	mcpServer := server.NewMCPServer(
		AppName,
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	s := &MCPServer{
		app:       app,
		mcpServer: mcpServer,
		log:       Logger("mcp"),
	}

	s.registerTools()

	return s
}

func languageParam() mcp.ToolOption {
	return mcp.WithString("language",
		mcp.Description("Preferred language code, e.g. en, ru, pt-BR. Defaults to the configured language."),
	)
}

func urlParam() mcp.ToolOption {
	return mcp.WithString("url",
		mcp.Description("YouTube video URL or 11-character video ID"),
		mcp.Required(),
	)
}

func (s *MCPServer) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("get_youtube_transcript",
		mcp.WithDescription("Get the transcript of a YouTube video. Reads the rendered transcript panel when a browser is attached, otherwise fetches caption tracks, preferring the requested language and falling back to English."),
		urlParam(),
		languageParam(),
	), s.handleGetTranscript)

	s.mcpServer.AddTool(mcp.NewTool("list_caption_tracks",
		mcp.WithDescription("List the caption tracks a video offers, best match for the language first. Each line shows the language, whether it is auto-generated and its rank (0 is best)."),
		urlParam(),
		languageParam(),
	), s.handleListTracks)

	s.mcpServer.AddTool(mcp.NewTool("get_youtube_metadata",
		mcp.WithDescription("Get a video's title, channel, duration, keywords, caption availability and description."),
		urlParam(),
	), s.handleGetMetadata)

	s.mcpServer.AddTool(mcp.NewTool("analyze_youtube_video",
		mcp.WithDescription("Summarize or critically review a video from its transcript using the configured LLM (requires GEMINI_API_KEY or OPENAI_API_KEY)."),
		urlParam(),
		mcp.WithString("mode",
			mcp.Description("summary for a structured summary, critical for a critical review"),
			mcp.Enum(string(ModeSummary), string(ModeCritical)),
			mcp.DefaultString(string(ModeSummary)),
		),
		mcp.WithString("language",
			mcp.Description("Response language code. Defaults to the configured language."),
		),
	), s.handleAnalyze)

	s.mcpServer.AddTool(mcp.NewTool("ask_youtube_video",
		mcp.WithDescription("Answer a question about a video using only its transcript (requires GEMINI_API_KEY or OPENAI_API_KEY)."),
		urlParam(),
		mcp.WithString("question",
			mcp.Description("The question to answer"),
			mcp.Required(),
		),
		mcp.WithString("language",
			mcp.Description("Response language code. Defaults to the configured language."),
		),
		mcp.WithArray("history",
			mcp.Description("Previous turns of the conversation, oldest first"),
			mcp.Items(map[string]any{
				"type": "object",
				"properties": map[string]any{
					"role": map[string]any{"type": "string", "enum": []string{string(RoleUser), string(RoleAssistant)}},
					"text": map[string]any{"type": "string"},
				},
			}),
		),
	), s.handleAsk)
}

func (s *MCPServer) handleGetTranscript(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url, err := request.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError("url parameter is required and must be a string"), nil
	}
	lang := request.GetString("language", "")

	s.log.WithFields(logrus.Fields{"url": url, "lang": lang}).Info("get_youtube_transcript")

	text, err := s.app.GetTranscript(ctx, url, lang)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("no transcript available", err), nil
	}
	return mcp.NewToolResultText(text), nil
}

func (s *MCPServer) handleListTracks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url, err := request.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError("url parameter is required and must be a string"), nil
	}
	lang := s.app.language(request.GetString("language", ""))

	tracks, err := s.app.Tracks(ctx, url, lang)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("listing caption tracks", err), nil
	}
	if len(tracks) == 0 {
		return mcp.NewToolResultText("No caption tracks."), nil
	}

	lines := lo.Map(tracks, func(t transcript.CaptionTrack, _ int) string {
		return formatTrack(t, lang)
	})
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *MCPServer) handleGetMetadata(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url, err := request.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError("url parameter is required and must be a string"), nil
	}

	details, err := s.app.Metadata(ctx, url, "")
	if err != nil {
		return mcp.NewToolResultErrorFromErr("metadata error", err), nil
	}
	return mcp.NewToolResultText(FormatDetails(details)), nil
}

func (s *MCPServer) handleAnalyze(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url, err := request.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError("url parameter is required and must be a string"), nil
	}
	mode := ParseAnalysisMode(request.GetString("mode", string(ModeSummary)))
	lang := request.GetString("language", "")

	s.log.WithFields(logrus.Fields{"url": url, "mode": mode, "lang": lang}).Info("analyze_youtube_video")

	analysis, err := s.app.Analyze(ctx, url, mode, lang)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("analysis failed", err), nil
	}
	return mcp.NewToolResultText(analysis), nil
}

func (s *MCPServer) handleAsk(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url, err := request.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError("url parameter is required and must be a string"), nil
	}
	question, err := request.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError("question parameter is required and must be a string"), nil
	}

	history, err := historyArgument(request.GetArguments()["history"])
	if err != nil {
		return mcp.NewToolResultErrorFromErr("invalid history", err), nil
	}

	s.log.WithFields(logrus.Fields{"url": url, "turns": len(history)}).Info("ask_youtube_video")

	answer, err := s.app.Ask(ctx, url, question, request.GetString("language", ""), history)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("answering failed", err), nil
	}
	return mcp.NewToolResultText(answer), nil
}

// historyArgument decodes the loosely typed history argument into chat messages
func historyArgument(raw any) ([]ChatMessage, error) {
	if raw == nil {
		return nil, nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var history []ChatMessage
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, fmt.Errorf("history must be a list of {role, text} objects: %w", err)
	}
	return history, nil
}

// Start starts the MCP server using the specified transport
func (s *MCPServer) Start(ctx context.Context, transport string, port int) error {
	if transport == "http" {
		httpServer := server.NewStreamableHTTPServer(s.mcpServer)
		addr := fmt.Sprintf(":%d", port)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.log.WithField("addr", addr).Info("serving streamable HTTP")
		return httpServer.Start(addr)
	}

	s.log.Info("serving stdio")
	return server.ServeStdio(s.mcpServer)
}

// GetServer returns the underlying MCP server
func (s *MCPServer) GetServer() *server.MCPServer {
	return s.mcpServer
}
