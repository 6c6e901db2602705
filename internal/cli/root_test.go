package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blockpage/internal/domain"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "blockpage", cmd.Use)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	paths := [][]string{
		{"page", "home"}, {"page", "title"},
		{"block", "list"}, {"block", "append"}, {"block", "insert"},
		{"block", "update"}, {"block", "delete"}, {"block", "move"},
		{"mcp"},
	}

	for _, path := range paths {
		name := path[len(path)-1]
		t.Run(name, func(t *testing.T) {
			subCmd, _, err := cmd.Find(path)
			require.NoError(t, err, "command %v should exist", path)
			assert.Equal(t, name, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "c", configFlag.Shorthand)
}

// ─────────────────────────────────────────────────────────────
// End-to-end against a temporary SQLite database
// ─────────────────────────────────────────────────────────────

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "blockpage.yaml")
	content := "database:\n  driver: sqlite\n  path: " + filepath.Join(dir, "cli.db") + "\nlog:\n  level: error\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func run(t *testing.T, cfgPath string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := Execute(append([]string{"--config", cfgPath}, args...), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func runJSON(t *testing.T, cfgPath string, target any, args ...string) {
	t.Helper()
	code, out, errOut := run(t, cfgPath, append([]string{"--format", "json"}, args...)...)
	require.Equal(t, ExitSuccess, code, "stdout=%s stderr=%s", out, errOut)

	var resp struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Equal(t, "ok", resp.Status)
	if target != nil {
		require.NoError(t, json.Unmarshal(resp.Data, target))
	}
}

func TestCLI_EditHomePage(t *testing.T) {
	cfg := writeConfig(t)

	var home domain.PageState
	runJSON(t, cfg, &home, "page", "home")
	assert.Equal(t, domain.HomeSlug, home.Page.Slug)
	assert.Empty(t, home.Blocks)
	pageID := jsonID(home.Page.ID)

	var first, second, mid domain.Block
	runJSON(t, cfg, &first, "block", "append", pageID, "--text", "Title", "--style", "h1")
	runJSON(t, cfg, &second, "block", "append", pageID, "--image", "cat.png", "--width", "100")
	runJSON(t, cfg, &mid, "block", "insert", pageID, jsonID(first.ID), "--text", "between")
	assert.Equal(t, int64(1000), first.Position)
	assert.Equal(t, int64(2000), second.Position)
	assert.Equal(t, int64(1500), mid.Position)

	var moved domain.MoveResult
	runJSON(t, cfg, &moved, "block", "move", jsonID(second.ID), "up")
	assert.True(t, moved.Moved)

	var list []domain.Block
	runJSON(t, cfg, &list, "block", "list", pageID)
	require.Len(t, list, 3)
	assert.Equal(t, []int64{first.ID, second.ID, mid.ID}, []int64{list[0].ID, list[1].ID, list[2].ID})

	runJSON(t, cfg, nil, "block", "delete", jsonID(mid.ID))
	runJSON(t, cfg, nil, "block", "delete", jsonID(mid.ID))

	var page domain.Page
	runJSON(t, cfg, &page, "page", "title", pageID, "Journal")
	assert.Equal(t, "Journal", page.Title)

	code, out, _ := run(t, cfg, "block", "list", pageID)
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "Title")
	assert.Contains(t, out, "img cat.png (100x?)")
}

func TestCLI_Errors(t *testing.T) {
	cfg := writeConfig(t)

	code, out, _ := run(t, cfg, "--format", "json", "block", "append", "999", "--text", "x")
	assert.Equal(t, ExitFailure, code)
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "not_found", resp.Error.Kind)

	code, _, errOut := run(t, cfg, "block", "move", "1", "sideways")
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, errOut, "Error [")

	code, _, _ = run(t, cfg, "block", "list", "abc")
	assert.Equal(t, ExitCommandError, code)

	code, _, _ = run(t, cfg, "--format", "xml", "page", "home")
	assert.Equal(t, ExitCommandError, code)

	code, _, _ = run(t, filepath.Join(t.TempDir(), "missing.yaml"), "page", "home")
	assert.Equal(t, ExitCommandError, code)
}

func jsonID(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}
