package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"blockpage/internal/domain"
)

const pageColumns = `id, slug, title, created_at, updated_at`

// PageStore runs page queries against either the pool or an open transaction.
type PageStore struct {
	q       querier
	dialect dialect
}

func NewPageStore(db *DB) *PageStore {
	return &PageStore{q: db.conn, dialect: db.dialect}
}

func (s *PageStore) getBy(ctx context.Context, column string, value any) (*domain.Page, error) {
	p := &domain.Page{}
	err := s.q.QueryRowContext(ctx,
		s.dialect.rebind(`SELECT `+pageColumns+` FROM pages WHERE `+column+` = ?`), value,
	).Scan(&p.ID, &p.Slug, &p.Title, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("page %s=%v: %w", column, value, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get page: %w", err)
	}
	return p, nil
}

func (s *PageStore) GetPage(ctx context.Context, id int64) (*domain.Page, error) {
	return s.getBy(ctx, "id", id)
}

func (s *PageStore) GetPageBySlug(ctx context.Context, slug string) (*domain.Page, error) {
	return s.getBy(ctx, "slug", slug)
}

// CreatePageIfMissing inserts a page with the given slug unless one already
// exists, then returns whichever row holds the slug.
func (s *PageStore) CreatePageIfMissing(ctx context.Context, slug, title string) (*domain.Page, error) {
	now := time.Now().UTC()
	if _, err := s.q.ExecContext(ctx, s.dialect.rebind(s.dialect.createPage), slug, title, now, now); err != nil {
		return nil, fmt.Errorf("create page %q: %w", slug, err)
	}
	return s.GetPageBySlug(ctx, slug)
}

// UpdateTitle sets the title of the page with the given id. It reports
// whether such a page exists.
func (s *PageStore) UpdateTitle(ctx context.Context, id int64, title string) (bool, error) {
	return s.updateTitleBy(ctx, "id", id, title)
}

func (s *PageStore) UpdateTitleBySlug(ctx context.Context, slug, title string) (bool, error) {
	return s.updateTitleBy(ctx, "slug", slug, title)
}

func (s *PageStore) updateTitleBy(ctx context.Context, column string, value any, title string) (bool, error) {
	res, err := s.q.ExecContext(ctx,
		s.dialect.rebind(`UPDATE pages SET title = ?, updated_at = ? WHERE `+column+` = ?`),
		title, time.Now().UTC(), value,
	)
	if err != nil {
		return false, fmt.Errorf("update page title: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update page title: %w", err)
	}
	return n > 0, nil
}
