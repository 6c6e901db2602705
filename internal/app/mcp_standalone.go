package app

import (
	"context"

	mcpserver "blockpage/internal/mcp"
)

// ServeMCP runs the MCP server on stdin/stdout until the client disconnects.
func (a *App) ServeMCP(ctx context.Context) error {
	// Make sure the home page exists before the first tool call.
	if _, err := a.Pages.GetHome(ctx); err != nil {
		return err
	}

	srv := mcpserver.New(mcpserver.Deps{
		Pages:  a.Pages,
		Blocks: a.Blocks,
		Log:    a.Log.Component("mcp"),
	})
	return srv.ServeStdio()
}
