package mcpserver

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"blockpage/internal/domain"
)

// Server is the MCP server for block pages.
// It exposes tools, resources, and prompts so agents can read and edit a page.
type Server struct {
	mcp    *server.MCPServer
	pages  domain.PageService
	blocks domain.BlockEngine
	log    zerolog.Logger
}

// Deps holds everything the server needs from the service layer.
type Deps struct {
	Pages  domain.PageService
	Blocks domain.BlockEngine
	Log    zerolog.Logger
}

// New creates and configures a new MCP server with all tools and resources.
func New(deps Deps) *Server {
	s := &Server{
		pages:  deps.Pages,
		blocks: deps.Blocks,
		log:    deps.Log,
	}

	s.mcp = server.NewMCPServer(
		"blockpage-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
		server.WithPromptCapabilities(true),
	)

	s.registerPageTools()
	s.registerBlockTools()
	s.registerResources()
	s.registerPrompts()

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	s.log.Info().Msg("starting stdio server")
	return server.ServeStdio(s.mcp)
}

// ── Helpers ────────────────────────────────────────────────

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

// errorResult reports a failed operation to the agent as "<kind>: message".
func (s *Server) errorResult(tool string, err error) *mcp.CallToolResult {
	kind := domain.ErrorKind(err)
	s.log.Warn().Err(err).Str("tool", tool).Str("kind", kind).Msg("tool failed")
	return mcp.NewToolResultError(kind + ": " + err.Error())
}

// argError reports a malformed tool argument.
func (s *Server) argError(tool string, err error) *mcp.CallToolResult {
	return s.errorResult(tool, fmt.Errorf("%w: %s", domain.ErrInvalidArgument, err.Error()))
}

func requireID(req mcp.CallToolRequest, key string) (int64, error) {
	v, err := req.RequireFloat(key)
	if err != nil {
		return 0, err
	}
	if v != float64(int64(v)) || v <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer", key)
	}
	return int64(v), nil
}

// optionalDimension returns nil when key is absent.
func optionalDimension(req mcp.CallToolRequest, key string) (*int, error) {
	raw, ok := req.GetArguments()[key]
	if !ok || raw == nil {
		return nil, nil
	}
	v, ok := raw.(float64)
	if !ok || v != float64(int(v)) {
		return nil, fmt.Errorf("%s must be an integer", key)
	}
	n := int(v)
	return &n, nil
}

func textPayload(req mcp.CallToolRequest) (domain.TextPayload, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return domain.TextPayload{}, err
	}
	style := req.GetString("textStyle", string(domain.TextStyleParagraph))
	return domain.TextPayload{Text: text, Style: domain.TextStyle(strings.ToLower(style))}, nil
}

func imagePayload(req mcp.CallToolRequest) (domain.ImagePayload, error) {
	src, err := req.RequireString("imageSrc")
	if err != nil {
		return domain.ImagePayload{}, err
	}
	p := domain.ImagePayload{Src: src}
	if p.Width, err = optionalDimension(req, "width"); err != nil {
		return p, err
	}
	if p.Height, err = optionalDimension(req, "height"); err != nil {
		return p, err
	}
	return p, nil
}
