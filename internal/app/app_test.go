package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blockpage/internal/config"
	"blockpage/internal/domain"
)

func TestNew_WiresServices(t *testing.T) {
	cfg := config.Default()
	dir := t.TempDir()
	cfg.Database.Path = filepath.Join(dir, "data", "app.db")
	cfg.Log.File = filepath.Join(dir, "app.log")
	cfg.Log.Level = "debug"

	a, err := New(cfg)
	require.NoError(t, err)
	defer a.Close()

	ctx := context.Background()
	home, err := a.Pages.GetHome(ctx)
	require.NoError(t, err)

	b, err := a.Blocks.AppendBlock(ctx, home.Page.ID, domain.TextPayload{Text: "hi", Style: domain.TextStyleParagraph})
	require.NoError(t, err)
	assert.Equal(t, int64(1000), b.Position)
}

func TestNew_BadLogLevel(t *testing.T) {
	cfg := config.Default()
	cfg.Database.Path = filepath.Join(t.TempDir(), "app.db")
	cfg.Log.Level = "loud"

	_, err := New(cfg)
	assert.Error(t, err)
}

func TestNew_UnresolvedPasswordRef(t *testing.T) {
	cfg := config.Default()
	cfg.Database.Path = filepath.Join(t.TempDir(), "app.db")
	cfg.Database.PasswordRef = "env:BLOCKPAGE_TEST_DEFINITELY_UNSET"

	_, err := New(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database password")
}
