package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"blockpage/internal/domain"
)

const blockColumns = `id, page_id, kind, position, text, text_style, image_src, image_width, image_height, created_at, updated_at`

// BlockStore runs block queries against either the pool or an open
// transaction (see Tx.Blocks).
type BlockStore struct {
	q       querier
	dialect dialect
}

func NewBlockStore(db *DB) *BlockStore {
	return &BlockStore{q: db.conn, dialect: db.dialect}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBlock(row rowScanner) (*domain.Block, error) {
	var (
		b                domain.Block
		text, style, src sql.NullString
		width, height    sql.NullInt64
	)
	err := row.Scan(&b.ID, &b.PageID, &b.Kind, &b.Position, &text, &style, &src, &width, &height, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if text.Valid {
		b.Text = &text.String
	}
	if style.Valid {
		ts := domain.TextStyle(style.String)
		b.TextStyle = &ts
	}
	if src.Valid {
		b.ImageSrc = &src.String
	}
	if width.Valid {
		w := int(width.Int64)
		b.ImageWidth = &w
	}
	if height.Valid {
		h := int(height.Int64)
		b.ImageHeight = &h
	}
	return &b, nil
}

func (s *BlockStore) queryBlocks(ctx context.Context, query string, args ...any) ([]domain.Block, error) {
	rows, err := s.q.QueryContext(ctx, s.dialect.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var blocks []domain.Block
	for rows.Next() {
		b, err := scanBlock(rows)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, *b)
	}
	return blocks, rows.Err()
}

// queryOne returns the first block of query, or nil when there is none.
func (s *BlockStore) queryOne(ctx context.Context, query string, args ...any) (*domain.Block, error) {
	b, err := scanBlock(s.q.QueryRowContext(ctx, s.dialect.rebind(query), args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return b, err
}

// GetBlock returns the block with the given id, wrapping domain.ErrNotFound
// when it does not exist.
func (s *BlockStore) GetBlock(ctx context.Context, id int64) (*domain.Block, error) {
	b, err := s.queryOne(ctx, `SELECT `+blockColumns+` FROM blocks WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("get block: %w", err)
	}
	if b == nil {
		return nil, fmt.Errorf("block %d: %w", id, domain.ErrNotFound)
	}
	return b, nil
}

// ListBlocks returns a page's blocks in canonical order: position, then id.
func (s *BlockStore) ListBlocks(ctx context.Context, pageID int64) ([]domain.Block, error) {
	blocks, err := s.queryBlocks(ctx,
		`SELECT `+blockColumns+` FROM blocks WHERE page_id = ? ORDER BY position ASC, id ASC`, pageID)
	if err != nil {
		return nil, fmt.Errorf("list blocks: %w", err)
	}
	return blocks, nil
}

// MaxPosition returns the largest position on the page. ok is false for an
// empty page.
func (s *BlockStore) MaxPosition(ctx context.Context, pageID int64) (pos int64, ok bool, err error) {
	var maxPos sql.NullInt64
	err = s.q.QueryRowContext(ctx,
		s.dialect.rebind(`SELECT MAX(position) FROM blocks WHERE page_id = ?`), pageID,
	).Scan(&maxPos)
	if err != nil {
		return 0, false, fmt.Errorf("max position: %w", err)
	}
	return maxPos.Int64, maxPos.Valid, nil
}

// NextAfter returns the block immediately following position pos in
// canonical order, or nil if pos is the last one.
func (s *BlockStore) NextAfter(ctx context.Context, pageID, pos int64) (*domain.Block, error) {
	b, err := s.queryOne(ctx,
		`SELECT `+blockColumns+` FROM blocks WHERE page_id = ? AND position > ?
		 ORDER BY position ASC, id ASC LIMIT 1`, pageID, pos)
	if err != nil {
		return nil, fmt.Errorf("next block: %w", err)
	}
	return b, nil
}

// PrevBefore returns the block immediately preceding position pos in
// canonical order, or nil if pos is the first one.
func (s *BlockStore) PrevBefore(ctx context.Context, pageID, pos int64) (*domain.Block, error) {
	b, err := s.queryOne(ctx,
		`SELECT `+blockColumns+` FROM blocks WHERE page_id = ? AND position < ?
		 ORDER BY position DESC, id DESC LIMIT 1`, pageID, pos)
	if err != nil {
		return nil, fmt.Errorf("previous block: %w", err)
	}
	return b, nil
}

// CreateBlock inserts b and fills in its ID and timestamps.
func (s *BlockStore) CreateBlock(ctx context.Context, b *domain.Block) error {
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now

	query := `INSERT INTO blocks (page_id, kind, position, text, text_style, image_src, image_width, image_height, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	args := []any{b.PageID, b.Kind, b.Position, b.Text, b.TextStyle, b.ImageSrc, b.ImageWidth, b.ImageHeight, b.CreatedAt, b.UpdatedAt}

	if s.dialect.returningID {
		err := s.q.QueryRowContext(ctx, s.dialect.rebind(query+` RETURNING id`), args...).Scan(&b.ID)
		if err != nil {
			return fmt.Errorf("insert block: %w", err)
		}
		return nil
	}

	res, err := s.q.ExecContext(ctx, s.dialect.rebind(query), args...)
	if err != nil {
		return fmt.Errorf("insert block: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert block id: %w", err)
	}
	b.ID = id
	return nil
}

// SetPosition moves a single block to pos.
func (s *BlockStore) SetPosition(ctx context.Context, id, pos int64) error {
	_, err := s.q.ExecContext(ctx,
		s.dialect.rebind(`UPDATE blocks SET position = ?, updated_at = ? WHERE id = ?`),
		pos, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("set position of block %d: %w", id, err)
	}
	return nil
}

// ShiftPositions adds offset to the position of every block on the page.
func (s *BlockStore) ShiftPositions(ctx context.Context, pageID, offset int64) error {
	_, err := s.q.ExecContext(ctx,
		s.dialect.rebind(`UPDATE blocks SET position = position + ? WHERE page_id = ?`),
		offset, pageID,
	)
	if err != nil {
		return fmt.Errorf("shift positions: %w", err)
	}
	return nil
}

// UpdateContent writes the payload columns of b. Position and page are untouched.
func (s *BlockStore) UpdateContent(ctx context.Context, b *domain.Block) error {
	b.UpdatedAt = time.Now().UTC()
	_, err := s.q.ExecContext(ctx,
		s.dialect.rebind(`UPDATE blocks SET text = ?, text_style = ?, image_src = ?, image_width = ?, image_height = ?, updated_at = ? WHERE id = ?`),
		b.Text, b.TextStyle, b.ImageSrc, b.ImageWidth, b.ImageHeight, b.UpdatedAt, b.ID,
	)
	if err != nil {
		return fmt.Errorf("update block %d: %w", b.ID, err)
	}
	return nil
}

// DeleteBlock removes a block. It reports whether a row was deleted.
func (s *BlockStore) DeleteBlock(ctx context.Context, id int64) (bool, error) {
	res, err := s.q.ExecContext(ctx, s.dialect.rebind(`DELETE FROM blocks WHERE id = ?`), id)
	if err != nil {
		return false, fmt.Errorf("delete block %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete block %d: %w", id, err)
	}
	return n > 0, nil
}
