package mcpserver

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blockpage/internal/domain"
	"blockpage/internal/service"
	"blockpage/internal/storage"
)

func newTestServer(t *testing.T) (*Server, *domain.PageState) {
	t.Helper()
	db, err := storage.New(filepath.Join(t.TempDir(), "mcp.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	emitter := &service.MockEmitter{}
	s := New(Deps{
		Pages:  service.NewPageService(db, emitter, zerolog.Nop()),
		Blocks: service.NewBlockService(db, emitter),
		Log:    zerolog.Nop(),
	})

	res, err := s.handleGetHomePage(context.Background(), callRequest("get_home_page", nil))
	require.NoError(t, err)
	require.False(t, res.IsError)
	var home domain.PageState
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &home))
	return s, &home
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "unexpected content %T", res.Content[0])
	return text.Text
}

func decodeBlock(t *testing.T, res *mcp.CallToolResult) domain.Block {
	t.Helper()
	require.False(t, res.IsError, resultText(t, res))
	var b domain.Block
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &b))
	return b
}

func TestTools_AppendInsertList(t *testing.T) {
	s, home := newTestServer(t)
	ctx := context.Background()
	pageID := float64(home.Page.ID)

	res, err := s.handleAppendTextBlock(ctx, callRequest("append_text_block", map[string]any{
		"pageId": pageID, "text": "Intro", "textStyle": "h1",
	}))
	require.NoError(t, err)
	intro := decodeBlock(t, res)
	assert.Equal(t, int64(1000), intro.Position)
	assert.Equal(t, domain.TextStyleH1, *intro.TextStyle)

	res, err = s.handleAppendImageBlock(ctx, callRequest("append_image_block", map[string]any{
		"pageId": pageID, "imageSrc": "https://example.com/cat.png", "width": float64(300),
	}))
	require.NoError(t, err)
	img := decodeBlock(t, res)
	assert.Equal(t, int64(2000), img.Position)
	require.NotNil(t, img.ImageWidth)
	assert.Equal(t, 300, *img.ImageWidth)

	res, err = s.handleInsertBlockAfter(ctx, callRequest("insert_block_after", map[string]any{
		"pageId": pageID, "afterBlockId": float64(intro.ID), "type": "text", "text": "Between",
	}))
	require.NoError(t, err)
	mid := decodeBlock(t, res)
	assert.Equal(t, int64(1500), mid.Position)
	assert.Equal(t, domain.TextStyleParagraph, *mid.TextStyle)

	res, err = s.handleListBlocks(ctx, callRequest("list_blocks", map[string]any{"pageId": pageID}))
	require.NoError(t, err)
	var list []domain.Block
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &list))
	require.Len(t, list, 3)
	assert.Equal(t, []int64{intro.ID, mid.ID, img.ID}, []int64{list[0].ID, list[1].ID, list[2].ID})
}

func TestTools_MoveAndDelete(t *testing.T) {
	s, home := newTestServer(t)
	ctx := context.Background()
	pageID := float64(home.Page.ID)

	var ids []float64
	for _, text := range []string{"a", "b"} {
		res, err := s.handleAppendTextBlock(ctx, callRequest("append_text_block", map[string]any{"pageId": pageID, "text": text}))
		require.NoError(t, err)
		ids = append(ids, float64(decodeBlock(t, res).ID))
	}

	res, err := s.handleMoveBlock(ctx, callRequest("move_block", map[string]any{"blockId": ids[0], "direction": "up"}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"moved": false}`, resultText(t, res))

	res, err = s.handleMoveBlock(ctx, callRequest("move_block", map[string]any{"blockId": ids[0], "direction": "down"}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"moved": true}`, resultText(t, res))

	for i := 0; i < 2; i++ {
		res, err = s.handleDeleteBlock(ctx, callRequest("delete_block", map[string]any{"blockId": ids[1]}))
		require.NoError(t, err)
		assert.False(t, res.IsError)
	}
}

func TestTools_ErrorsCarryKind(t *testing.T) {
	s, home := newTestServer(t)
	ctx := context.Background()
	pageID := float64(home.Page.ID)

	res, err := s.handleAppendImageBlock(ctx, callRequest("append_image_block", map[string]any{"pageId": pageID + 50, "imageSrc": "x.png"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.True(t, strings.HasPrefix(resultText(t, res), "not_found: "), resultText(t, res))

	res, err = s.handleAppendTextBlock(ctx, callRequest("append_text_block", map[string]any{"pageId": pageID, "text": "x", "textStyle": "h7"}))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(resultText(t, res), "invalid_argument: "))

	res, err = s.handleAppendTextBlock(ctx, callRequest("append_text_block", map[string]any{"pageId": 1.5, "text": "x"}))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(resultText(t, res), "invalid_argument: "))

	res, err = s.handleAppendTextBlock(ctx, callRequest("append_text_block", map[string]any{"pageId": pageID, "text": "x"}))
	require.NoError(t, err)
	b := decodeBlock(t, res)

	res, err = s.handleUpdateImageBlock(ctx, callRequest("update_image_block", map[string]any{"blockId": float64(b.ID), "imageSrc": "x.png"}))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(resultText(t, res), "type_mismatch: "))

	res, err = s.handleMoveBlock(ctx, callRequest("move_block", map[string]any{"blockId": float64(b.ID), "direction": "left"}))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(resultText(t, res), "invalid_argument: "))

	res, err = s.handleInsertBlockAfter(ctx, callRequest("insert_block_after", map[string]any{
		"pageId": pageID, "afterBlockId": float64(b.ID), "type": "video",
	}))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(resultText(t, res), "invalid_argument: "))
}

func TestTools_UpdatePageTitle(t *testing.T) {
	s, home := newTestServer(t)
	ctx := context.Background()

	res, err := s.handleUpdatePageTitle(ctx, callRequest("update_page_title", map[string]any{
		"pageId": float64(home.Page.ID), "title": " Journal ",
	}))
	require.NoError(t, err)
	require.False(t, res.IsError)
	var page domain.Page
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &page))
	assert.Equal(t, "Journal", page.Title)

	res, err = s.handleUpdatePageTitle(ctx, callRequest("update_page_title", map[string]any{
		"pageId": float64(home.Page.ID), "title": "",
	}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestPageIDFromURI(t *testing.T) {
	id, err := pageIDFromURI("blockpage://page/42/blocks")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, uri := range []string{"blockpage://page/x/blocks", "notes://page/1/blocks", "blockpage://page/1"} {
		_, err := pageIDFromURI(uri)
		assert.Error(t, err, uri)
	}
}

func TestHandlePageBlocksResource(t *testing.T) {
	s, home := newTestServer(t)
	ctx := context.Background()

	var req mcp.ReadResourceRequest
	req.Params.URI = "blockpage://page/" + strconv.FormatInt(home.Page.ID, 10) + "/blocks"
	contents, err := s.handlePageBlocksResource(ctx, req)
	require.NoError(t, err)
	require.Len(t, contents, 1)
	text, ok := contents[0].(mcp.TextResourceContents)
	require.True(t, ok)
	assert.JSONEq(t, `[]`, text.Text)
}
