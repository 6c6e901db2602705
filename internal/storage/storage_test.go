package storage

import (
	"context"
	"errors"
	"net/url"
	"path/filepath"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blockpage/internal/domain"
)

// createTestDB opens a fresh SQLite database under t.TempDir().
func createTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "nested", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestPage(t *testing.T, db *DB, slug string) *domain.Page {
	t.Helper()
	p, err := NewPageStore(db).CreatePageIfMissing(context.Background(), slug, "Untitled")
	require.NoError(t, err)
	return p
}

func textBlock(pageID, pos int64, text string) *domain.Block {
	b := &domain.Block{PageID: pageID, Position: pos}
	domain.TextPayload{Text: text, Style: domain.TextStyleParagraph}.Apply(b)
	return b
}

func TestNew_MigrationsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	for i := 0; i < 3; i++ {
		db, err := New(path)
		require.NoError(t, err, "open #%d", i)
		require.NoError(t, db.Close())
	}
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(ConnConfig{Driver: "mongodb"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported driver")
}

func TestDialect_Rebind(t *testing.T) {
	pg, err := dialectFor(domain.DatabaseDriverPostgres)
	require.NoError(t, err)
	assert.Equal(t, "UPDATE blocks SET position = $1 WHERE id = $2",
		pg.rebind("UPDATE blocks SET position = ? WHERE id = ?"))

	lite, err := dialectFor(domain.DatabaseDriverSQLite)
	require.NoError(t, err)
	assert.Equal(t, "SELECT ? ", lite.rebind("SELECT ? "))
}

func TestDialect_DSN(t *testing.T) {
	cfg := ConnConfig{Host: "db.local", Name: "pages", User: "app", Password: "pw"}

	pg, _ := dialectFor(domain.DatabaseDriverPostgres)
	assert.Equal(t, "postgres://app:pw@db.local:5432/pages?sslmode=disable", pg.dsn(cfg))

	my, _ := dialectFor(domain.DatabaseDriverMySQL)
	parsed, err := mysql.ParseDSN(my.dsn(cfg))
	require.NoError(t, err)
	assert.Equal(t, "db.local:3306", parsed.Addr)
	assert.Equal(t, "pages", parsed.DBName)
	assert.True(t, parsed.ParseTime)
	assert.True(t, parsed.ClientFoundRows)
	assert.Equal(t, "utf8mb4", parsed.Params["charset"])
	assert.Empty(t, parsed.TLSConfig)

	cfg.SSLMode = "require"
	cfg.Port = 3307
	parsed, err = mysql.ParseDSN(my.dsn(cfg))
	require.NoError(t, err)
	assert.Equal(t, "db.local:3307", parsed.Addr)
	assert.Equal(t, "true", parsed.TLSConfig)
}

func TestDialect_DSNEscapesCredentials(t *testing.T) {
	for _, pw := range []string{"pa ss", `it's`, `back\slash`, "at@sign/colon:"} {
		cfg := ConnConfig{Host: "db.local", Name: "pages", User: "app", Password: pw}

		pg, _ := dialectFor(domain.DatabaseDriverPostgres)
		dsn := pg.dsn(cfg)
		_, err := pq.NewConnector(dsn)
		require.NoError(t, err, "postgres dsn for %q", pw)
		u, err := url.Parse(dsn)
		require.NoError(t, err)
		got, _ := u.User.Password()
		assert.Equal(t, pw, got)

		my, _ := dialectFor(domain.DatabaseDriverMySQL)
		parsed, err := mysql.ParseDSN(my.dsn(cfg))
		require.NoError(t, err, "mysql dsn for %q", pw)
		assert.Equal(t, pw, parsed.Passwd)
	}
}

func TestBlockStore_CreateGetList(t *testing.T) {
	ctx := context.Background()
	db := createTestDB(t)
	page := createTestPage(t, db, "home")
	store := NewBlockStore(db)

	second := textBlock(page.ID, 2000, "second")
	first := textBlock(page.ID, 1000, "first")
	require.NoError(t, store.CreateBlock(ctx, second))
	require.NoError(t, store.CreateBlock(ctx, first))
	assert.NotZero(t, first.ID)
	assert.NotEqual(t, first.ID, second.ID)

	got, err := store.GetBlock(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "first", *got.Text)
	assert.Equal(t, domain.TextStyleParagraph, *got.TextStyle)
	assert.Nil(t, got.ImageSrc)

	list, err := store.ListBlocks(ctx, page.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, second.ID, list[1].ID)
}

func TestBlockStore_GetMissing(t *testing.T) {
	db := createTestDB(t)
	_, err := NewBlockStore(db).GetBlock(context.Background(), 42)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBlockStore_ImageNullableDimensions(t *testing.T) {
	ctx := context.Background()
	db := createTestDB(t)
	page := createTestPage(t, db, "home")
	store := NewBlockStore(db)

	w := 640
	b := &domain.Block{PageID: page.ID, Position: 1000}
	domain.ImagePayload{Src: "https://example.com/a.png", Width: &w}.Apply(b)
	require.NoError(t, store.CreateBlock(ctx, b))

	got, err := store.GetBlock(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BlockKindImage, got.Kind)
	require.NotNil(t, got.ImageWidth)
	assert.Equal(t, 640, *got.ImageWidth)
	assert.Nil(t, got.ImageHeight)
	assert.Nil(t, got.Text)
}

func TestBlockStore_Neighbors(t *testing.T) {
	ctx := context.Background()
	db := createTestDB(t)
	page := createTestPage(t, db, "home")
	other := createTestPage(t, db, "other")
	store := NewBlockStore(db)

	for _, pos := range []int64{1000, 1500, 3000} {
		require.NoError(t, store.CreateBlock(ctx, textBlock(page.ID, pos, "")))
	}
	require.NoError(t, store.CreateBlock(ctx, textBlock(other.ID, 1200, "elsewhere")))

	next, err := store.NextAfter(ctx, page.ID, 1000)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, int64(1500), next.Position)

	last, err := store.NextAfter(ctx, page.ID, 3000)
	require.NoError(t, err)
	assert.Nil(t, last)

	prev, err := store.PrevBefore(ctx, page.ID, 3000)
	require.NoError(t, err)
	require.NotNil(t, prev)
	assert.Equal(t, int64(1500), prev.Position)

	first, err := store.PrevBefore(ctx, page.ID, 1000)
	require.NoError(t, err)
	assert.Nil(t, first)

	maxPos, ok, err := store.MaxPosition(ctx, page.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(3000), maxPos)

	empty := createTestPage(t, db, "empty")
	_, ok, err = store.MaxPosition(ctx, empty.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBlockStore_DeleteReportsExistence(t *testing.T) {
	ctx := context.Background()
	db := createTestDB(t)
	page := createTestPage(t, db, "home")
	store := NewBlockStore(db)

	b := textBlock(page.ID, 1000, "x")
	require.NoError(t, store.CreateBlock(ctx, b))

	deleted, err := store.DeleteBlock(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = store.DeleteBlock(ctx, b.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestWithTx_DuplicatePositionIsConflict(t *testing.T) {
	ctx := context.Background()
	db := createTestDB(t)
	page := createTestPage(t, db, "home")

	err := db.WithTx(ctx, func(tx *Tx) error {
		if err := tx.Blocks().CreateBlock(ctx, textBlock(page.ID, 1000, "a")); err != nil {
			return err
		}
		return tx.Blocks().CreateBlock(ctx, textBlock(page.ID, 1000, "b"))
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConflict)

	// The first insert was rolled back with the second.
	list, err := NewBlockStore(db).ListBlocks(ctx, page.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestWithTx_SamePositionOnDifferentPagesAllowed(t *testing.T) {
	ctx := context.Background()
	db := createTestDB(t)
	a := createTestPage(t, db, "a")
	b := createTestPage(t, db, "b")

	err := db.WithTx(ctx, func(tx *Tx) error {
		if err := tx.Blocks().CreateBlock(ctx, textBlock(a.ID, 1000, "a")); err != nil {
			return err
		}
		return tx.Blocks().CreateBlock(ctx, textBlock(b.ID, 1000, "b"))
	})
	require.NoError(t, err)
}

func TestWithTx_RollbackOnError(t *testing.T) {
	ctx := context.Background()
	db := createTestDB(t)
	page := createTestPage(t, db, "home")
	store := NewBlockStore(db)

	b := textBlock(page.ID, 1000, "x")
	require.NoError(t, store.CreateBlock(ctx, b))

	boom := errors.New("boom")
	err := db.WithTx(ctx, func(tx *Tx) error {
		if err := tx.Blocks().ShiftPositions(ctx, page.ID, 5); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, domain.ErrConflict)

	got, err := store.GetBlock(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), got.Position)
}

func TestPageStore_CreateIfMissingAndTitle(t *testing.T) {
	ctx := context.Background()
	db := createTestDB(t)
	store := NewPageStore(db)

	first, err := store.CreatePageIfMissing(ctx, "home", "Untitled")
	require.NoError(t, err)
	again, err := store.CreatePageIfMissing(ctx, "home", "Ignored")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, "Untitled", again.Title)

	ok, err := store.UpdateTitle(ctx, first.ID, "Renamed")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.UpdateTitle(ctx, first.ID+100, "Nope")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = store.UpdateTitleBySlug(ctx, "home", "By slug")
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := store.GetPage(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "By slug", got.Title)

	_, err = store.GetPageBySlug(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestIsConflict_PlainErrors(t *testing.T) {
	assert.False(t, isConflict(errors.New("unique")))
	assert.Nil(t, translate(nil))
	wrapped := translate(domain.ErrConflict)
	assert.Equal(t, domain.ErrConflict, wrapped)
}
