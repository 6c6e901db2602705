package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

const (
	homeURI          = "blockpage://home"
	pageBlocksURI    = "blockpage://page/{pageId}/blocks"
	pageBlocksPrefix = "blockpage://page/"
)

func (s *Server) registerResources() {
	// ── blockpage://home ───────────────────────────────
	s.mcp.AddResource(mcp.NewResource(
		homeURI,
		"Home Page",
		mcp.WithMIMEType("application/json"),
	), s.handleHomeResource)

	// ── blockpage://page/{pageId}/blocks ───────────────
	s.mcp.AddResourceTemplate(
		mcp.NewResourceTemplate(
			pageBlocksURI,
			"Blocks on a Page",
		),
		s.handlePageBlocksResource,
	)
}

func (s *Server) handleHomeResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	state, err := s.pages.GetHome(ctx)
	if err != nil {
		return nil, err
	}
	return jsonResource(homeURI, state)
}

func (s *Server) handlePageBlocksResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	pageID, err := pageIDFromURI(uri)
	if err != nil {
		return nil, err
	}

	blocks, err := s.blocks.ListBlocks(ctx, pageID)
	if err != nil {
		return nil, err
	}
	return jsonResource(uri, blocks)
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal resource: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// pageIDFromURI extracts the page ID from "blockpage://page/{id}/blocks".
func pageIDFromURI(uri string) (int64, error) {
	rest, ok := strings.CutPrefix(uri, pageBlocksPrefix)
	if !ok {
		return 0, fmt.Errorf("unexpected resource URI: %s", uri)
	}
	raw, ok := strings.CutSuffix(rest, "/blocks")
	if !ok {
		return 0, fmt.Errorf("unexpected resource URI: %s", uri)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("could not extract pageId from URI %s: %w", uri, err)
	}
	return id, nil
}
