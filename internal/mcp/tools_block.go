package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"blockpage/internal/domain"
)

var textStyleDescription = mcp.Description("Text style: h1, h2, h3 or p (default p)")

func (s *Server) registerBlockTools() {
	// ── list_blocks ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_blocks",
		mcp.WithDescription("List all blocks on a page in display order"),
		mcp.WithNumber("pageId", mcp.Description("Page ID"), mcp.Required()),
	), s.handleListBlocks)

	// ── append_text_block ──────────────────────────────
	s.mcp.AddTool(mcp.NewTool("append_text_block",
		mcp.WithDescription("Add a text block at the end of a page"),
		mcp.WithNumber("pageId", mcp.Description("Page ID"), mcp.Required()),
		mcp.WithString("text", mcp.Description("Block text"), mcp.Required()),
		mcp.WithString("textStyle", textStyleDescription, mcp.Enum("h1", "h2", "h3", "p")),
	), s.handleAppendTextBlock)

	// ── append_image_block ─────────────────────────────
	s.mcp.AddTool(mcp.NewTool("append_image_block",
		mcp.WithDescription("Add an image block at the end of a page"),
		mcp.WithNumber("pageId", mcp.Description("Page ID"), mcp.Required()),
		mcp.WithString("imageSrc", mcp.Description("Image URL or path"), mcp.Required()),
		mcp.WithNumber("width", mcp.Description("Width in pixels (optional)")),
		mcp.WithNumber("height", mcp.Description("Height in pixels (optional)")),
	), s.handleAppendImageBlock)

	// ── insert_block_after ─────────────────────────────
	s.mcp.AddTool(mcp.NewTool("insert_block_after",
		mcp.WithDescription("Insert a new block directly after an existing one. Pass text for a text block or imageSrc for an image block."),
		mcp.WithNumber("pageId", mcp.Description("Page ID"), mcp.Required()),
		mcp.WithNumber("afterBlockId", mcp.Description("ID of the block the new one follows"), mcp.Required()),
		mcp.WithString("type", mcp.Description("Block type: text or image"), mcp.Required(), mcp.Enum("text", "image")),
		mcp.WithString("text", mcp.Description("Block text (text blocks)")),
		mcp.WithString("textStyle", textStyleDescription, mcp.Enum("h1", "h2", "h3", "p")),
		mcp.WithString("imageSrc", mcp.Description("Image URL or path (image blocks)")),
		mcp.WithNumber("width", mcp.Description("Width in pixels (optional)")),
		mcp.WithNumber("height", mcp.Description("Height in pixels (optional)")),
	), s.handleInsertBlockAfter)

	// ── update_text_block ──────────────────────────────
	s.mcp.AddTool(mcp.NewTool("update_text_block",
		mcp.WithDescription("Replace the text and style of a text block. Position is unchanged."),
		mcp.WithNumber("blockId", mcp.Description("Block ID"), mcp.Required()),
		mcp.WithString("text", mcp.Description("New text"), mcp.Required()),
		mcp.WithString("textStyle", textStyleDescription, mcp.Enum("h1", "h2", "h3", "p")),
	), s.handleUpdateTextBlock)

	// ── update_image_block ─────────────────────────────
	s.mcp.AddTool(mcp.NewTool("update_image_block",
		mcp.WithDescription("Replace the source and size of an image block. Position is unchanged."),
		mcp.WithNumber("blockId", mcp.Description("Block ID"), mcp.Required()),
		mcp.WithString("imageSrc", mcp.Description("Image URL or path"), mcp.Required()),
		mcp.WithNumber("width", mcp.Description("Width in pixels (optional)")),
		mcp.WithNumber("height", mcp.Description("Height in pixels (optional)")),
	), s.handleUpdateImageBlock)

	// ── delete_block (destructive) ─────────────────────
	s.mcp.AddTool(mcp.NewTool("delete_block",
		mcp.WithDescription("🛑 DESTRUCTIVE: Delete a block. Deleting a missing block succeeds."),
		mcp.WithNumber("blockId", mcp.Description("Block ID to delete"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true), IdempotentHint: boolPtr(true)}),
	), s.handleDeleteBlock)

	// ── move_block ─────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("move_block",
		mcp.WithDescription("Swap a block with its neighbor above or below. Returns moved=false at the edge of the page."),
		mcp.WithNumber("blockId", mcp.Description("Block ID"), mcp.Required()),
		mcp.WithString("direction", mcp.Description("up or down"), mcp.Required(), mcp.Enum("up", "down")),
	), s.handleMoveBlock)
}

func boolPtr(v bool) *bool { return &v }

// ── Handlers ───────────────────────────────────────────────

func (s *Server) handleListBlocks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pageID, err := requireID(req, "pageId")
	if err != nil {
		return s.argError("list_blocks", err), nil
	}
	blocks, err := s.blocks.ListBlocks(ctx, pageID)
	if err != nil {
		return s.errorResult("list_blocks", err), nil
	}
	return jsonResult(blocks)
}

func (s *Server) handleAppendTextBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pageID, err := requireID(req, "pageId")
	if err != nil {
		return s.argError("append_text_block", err), nil
	}
	payload, err := textPayload(req)
	if err != nil {
		return s.argError("append_text_block", err), nil
	}
	return s.appendBlock(ctx, "append_text_block", pageID, payload)
}

func (s *Server) handleAppendImageBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pageID, err := requireID(req, "pageId")
	if err != nil {
		return s.argError("append_image_block", err), nil
	}
	payload, err := imagePayload(req)
	if err != nil {
		return s.argError("append_image_block", err), nil
	}
	return s.appendBlock(ctx, "append_image_block", pageID, payload)
}

func (s *Server) appendBlock(ctx context.Context, tool string, pageID int64, p domain.Payload) (*mcp.CallToolResult, error) {
	b, err := s.blocks.AppendBlock(ctx, pageID, p)
	if err != nil {
		return s.errorResult(tool, err), nil
	}
	return jsonResult(b)
}

func (s *Server) handleInsertBlockAfter(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	const tool = "insert_block_after"
	pageID, err := requireID(req, "pageId")
	if err != nil {
		return s.argError(tool, err), nil
	}
	afterID, err := requireID(req, "afterBlockId")
	if err != nil {
		return s.argError(tool, err), nil
	}

	var payload domain.Payload
	switch kind := domain.BlockKind(req.GetString("type", "")); kind {
	case domain.BlockKindText:
		payload, err = textPayload(req)
	case domain.BlockKindImage:
		payload, err = imagePayload(req)
	default:
		err = fmt.Errorf("unknown block type %q", kind)
	}
	if err != nil {
		return s.argError(tool, err), nil
	}

	b, err := s.blocks.InsertBlockAfter(ctx, pageID, afterID, payload)
	if err != nil {
		return s.errorResult(tool, err), nil
	}
	return jsonResult(b)
}

func (s *Server) handleUpdateTextBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	blockID, err := requireID(req, "blockId")
	if err != nil {
		return s.argError("update_text_block", err), nil
	}
	payload, err := textPayload(req)
	if err != nil {
		return s.argError("update_text_block", err), nil
	}
	return s.updateBlock(ctx, "update_text_block", blockID, payload)
}

func (s *Server) handleUpdateImageBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	blockID, err := requireID(req, "blockId")
	if err != nil {
		return s.argError("update_image_block", err), nil
	}
	payload, err := imagePayload(req)
	if err != nil {
		return s.argError("update_image_block", err), nil
	}
	return s.updateBlock(ctx, "update_image_block", blockID, payload)
}

func (s *Server) updateBlock(ctx context.Context, tool string, blockID int64, p domain.Payload) (*mcp.CallToolResult, error) {
	b, err := s.blocks.UpdateBlockContent(ctx, blockID, p)
	if err != nil {
		return s.errorResult(tool, err), nil
	}
	return jsonResult(b)
}

func (s *Server) handleDeleteBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	blockID, err := requireID(req, "blockId")
	if err != nil {
		return s.argError("delete_block", err), nil
	}
	if err := s.blocks.DeleteBlock(ctx, blockID); err != nil {
		return s.errorResult("delete_block", err), nil
	}
	return textResult(fmt.Sprintf("Deleted block %d", blockID)), nil
}

func (s *Server) handleMoveBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	blockID, err := requireID(req, "blockId")
	if err != nil {
		return s.argError("move_block", err), nil
	}
	dir, err := req.RequireString("direction")
	if err != nil {
		return s.argError("move_block", err), nil
	}

	res, err := s.blocks.MoveBlock(ctx, blockID, domain.Direction(dir))
	if err != nil {
		return s.errorResult("move_block", err), nil
	}
	return jsonResult(res)
}
