package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPrompts() {
	s.mcp.AddPrompt(mcp.NewPrompt("outline_page",
		mcp.WithPromptDescription("Write a structured outline on the home page using headings and paragraphs"),
		mcp.WithArgument("topic",
			mcp.ArgumentDescription("Topic of the outline"),
			mcp.RequiredArgument(),
		),
	), s.handleOutlinePrompt)

	s.mcp.AddPrompt(mcp.NewPrompt("reorder_page",
		mcp.WithPromptDescription("Reorder the blocks of a page into a requested order using move_block"),
		mcp.WithArgument("instructions",
			mcp.ArgumentDescription("How the blocks should be ordered"),
			mcp.RequiredArgument(),
		),
	), s.handleReorderPrompt)
}

func (s *Server) handleOutlinePrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	topic := req.Params.Arguments["topic"]
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Outline: %s", topic),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Write an outline about "%s" on the home page. Follow these steps:

1. Call get_home_page to get the page ID and the current blocks
2. Use update_page_title to set the title to "%s"
3. Use append_text_block with textStyle "h1" for the main heading
4. For each section, append an "h2" heading followed by one or more "p" paragraphs
5. If a section is missing later, use insert_block_after on the block it should follow

Do not delete existing blocks unless asked.`, topic, topic),
				},
			},
		},
	}, nil
}

func (s *Server) handleReorderPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	instructions := req.Params.Arguments["instructions"]
	return &mcp.GetPromptResult{
		Description: "Reorder page blocks",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Reorder the blocks of the home page: %s

1. Call get_home_page and note each block ID in display order
2. Work out the target order, then use move_block with "up" or "down" one step at a time
3. move_block returns moved=false at the top or bottom of the page; stop moving that block
4. Call list_blocks at the end and confirm the order matches`, instructions),
				},
			},
		},
	}, nil
}
