package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPageTools() {
	// ── get_home_page ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("get_home_page",
		mcp.WithDescription("Get the home page and its blocks in display order. Creates the page on first use."),
	), s.handleGetHomePage)

	// ── update_page_title ──────────────────────────────
	s.mcp.AddTool(mcp.NewTool("update_page_title",
		mcp.WithDescription("Rename a page. Unknown page IDs rename the home page."),
		mcp.WithNumber("pageId", mcp.Description("Page ID"), mcp.Required()),
		mcp.WithString("title", mcp.Description("New title, 1 to 256 characters"), mcp.Required()),
	), s.handleUpdatePageTitle)
}

func (s *Server) handleGetHomePage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	state, err := s.pages.GetHome(ctx)
	if err != nil {
		return s.errorResult("get_home_page", err), nil
	}
	return jsonResult(state)
}

func (s *Server) handleUpdatePageTitle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pageID, err := requireID(req, "pageId")
	if err != nil {
		return s.argError("update_page_title", err), nil
	}
	title, err := req.RequireString("title")
	if err != nil {
		return s.argError("update_page_title", err), nil
	}

	page, err := s.pages.UpdateTitle(ctx, pageID, title)
	if err != nil {
		return s.errorResult("update_page_title", err), nil
	}
	return jsonResult(page)
}
