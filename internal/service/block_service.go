package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jpillora/backoff"
	"github.com/rs/zerolog"

	"blockpage/internal/domain"
	"blockpage/internal/ordering"
	"blockpage/internal/storage"
)

// ─────────────────────────────────────────────────────────────
// Block Service: ordered blocks on a page
// ─────────────────────────────────────────────────────────────

// EventBlocksChanged is emitted with {"pageId": id} after a committed mutation.
const EventBlocksChanged = "blocks:changed"

// RetryPolicy controls how often an operation is replayed after losing a
// race on a page's positions.
type RetryPolicy struct {
	Retries  int
	MinDelay time.Duration
	MaxDelay time.Duration
}

// DefaultRetryPolicy matches the defaults of the engine config section.
var DefaultRetryPolicy = RetryPolicy{Retries: 3, MinDelay: 10 * time.Millisecond, MaxDelay: 200 * time.Millisecond}

func (p RetryPolicy) backoff() *backoff.Backoff {
	return &backoff.Backoff{Min: p.MinDelay, Max: p.MaxDelay, Factor: 2, Jitter: true}
}

// BlockService assigns and maintains block positions. Every operation runs
// in a single backend transaction; the service itself holds no locks.
type BlockService struct {
	db      *storage.DB
	blocks  *storage.BlockStore
	emitter EventEmitter
	log     zerolog.Logger
	retry   RetryPolicy
}

type BlockOption func(*BlockService)

func WithLogger(log zerolog.Logger) BlockOption {
	return func(s *BlockService) { s.log = log }
}

func WithRetryPolicy(p RetryPolicy) BlockOption {
	return func(s *BlockService) { s.retry = p }
}

// NewBlockService creates a BlockService.
func NewBlockService(db *storage.DB, emitter EventEmitter, opts ...BlockOption) *BlockService {
	s := &BlockService{
		db:      db,
		blocks:  storage.NewBlockStore(db),
		emitter: emitter,
		log:     zerolog.Nop(),
		retry:   DefaultRetryPolicy,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ domain.BlockEngine = (*BlockService)(nil)

// AppendBlock adds a block after the last one on the page.
func (s *BlockService) AppendBlock(ctx context.Context, pageID int64, p domain.Payload) (*domain.Block, error) {
	if err := domain.ValidatePayload(p); err != nil {
		return nil, err
	}

	var created *domain.Block
	err := s.run(ctx, "append", func(ctx context.Context, tx *storage.Tx) error {
		if _, err := tx.Pages().GetPage(ctx, pageID); err != nil {
			return err
		}
		maxPos, ok, err := tx.Blocks().MaxPosition(ctx, pageID)
		if err != nil {
			return err
		}
		b := &domain.Block{PageID: pageID, Position: ordering.Append(maxPos, ok)}
		p.Apply(b)
		if err := tx.Blocks().CreateBlock(ctx, b); err != nil {
			return err
		}
		created = b
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("append block: %w", err)
	}

	s.emitChanged(ctx, pageID)
	return created, nil
}

// InsertBlockAfter places a new block directly after afterID. When no integer
// is left between afterID and its successor the page is reindexed first,
// inside the same transaction.
func (s *BlockService) InsertBlockAfter(ctx context.Context, pageID, afterID int64, p domain.Payload) (*domain.Block, error) {
	if err := domain.ValidatePayload(p); err != nil {
		return nil, err
	}

	var created *domain.Block
	err := s.run(ctx, "insert_after", func(ctx context.Context, tx *storage.Tx) error {
		blocks := tx.Blocks()
		ref, err := blocks.GetBlock(ctx, afterID)
		if err != nil {
			return err
		}
		if ref.PageID != pageID {
			return fmt.Errorf("%w: block %d does not belong to page %d", domain.ErrInvalidArgument, afterID, pageID)
		}

		next, err := blocks.NextAfter(ctx, pageID, ref.Position)
		if err != nil {
			return err
		}

		pos := ref.Position + ordering.Step
		if next != nil {
			mid, ok := ordering.Between(ref.Position, next.Position)
			if ok {
				pos = mid
			} else {
				positions, err := reindex(ctx, blocks, pageID)
				if err != nil {
					return err
				}
				refPos, found := positions[ref.ID]
				if !found {
					return fmt.Errorf("%w: block %d missing after reindexing page %d", domain.ErrInternal, ref.ID, pageID)
				}
				pos = ordering.AfterReindex(refPos)
			}
		}

		b := &domain.Block{PageID: pageID, Position: pos}
		p.Apply(b)
		if err := blocks.CreateBlock(ctx, b); err != nil {
			return err
		}
		created = b
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("insert block after %d: %w", afterID, err)
	}

	s.emitChanged(ctx, pageID)
	return created, nil
}

// reindex renumbers every block on the page to (rank+1)*Step, keeping the
// canonical order, and returns the new position of each block id.
func reindex(ctx context.Context, blocks *storage.BlockStore, pageID int64) (map[int64]int64, error) {
	ordered, err := blocks.ListBlocks(ctx, pageID)
	if err != nil {
		return nil, err
	}
	if len(ordered) == 0 {
		return map[int64]int64{}, nil
	}
	if !sort.SliceIsSorted(ordered, func(i, j int) bool { return ordering.Canonical(ordered[i], ordered[j]) }) {
		return nil, fmt.Errorf("%w: blocks of page %d not in display order", domain.ErrInternal, pageID)
	}

	ids := make([]int64, len(ordered))
	for i, b := range ordered {
		ids[i] = b.ID
	}
	plan, positions := ordering.Renumber(ids)

	// Move everything out of the way first: the unique index is checked row by row.
	offset := ordering.ShiftOffset(ordered[len(ordered)-1].Position, len(ordered))
	if err := blocks.ShiftPositions(ctx, pageID, offset); err != nil {
		return nil, err
	}
	for _, a := range plan {
		if err := blocks.SetPosition(ctx, a.ID, a.Position); err != nil {
			return nil, err
		}
	}

	zerolog.Ctx(ctx).Info().
		Int64("pageId", pageID).
		Int("blocks", len(plan)).
		Msg("reindexed page")
	return positions, nil
}

// UpdateBlockContent replaces a block's payload. The payload kind must match
// the stored kind.
func (s *BlockService) UpdateBlockContent(ctx context.Context, blockID int64, p domain.Payload) (*domain.Block, error) {
	if err := domain.ValidatePayload(p); err != nil {
		return nil, err
	}

	var updated *domain.Block
	err := s.run(ctx, "update_content", func(ctx context.Context, tx *storage.Tx) error {
		b, err := tx.Blocks().GetBlock(ctx, blockID)
		if err != nil {
			return err
		}
		if b.Kind != p.Kind() {
			return fmt.Errorf("%w: block %d is %s, payload is %s", domain.ErrTypeMismatch, blockID, b.Kind, p.Kind())
		}
		p.Apply(b)
		if err := tx.Blocks().UpdateContent(ctx, b); err != nil {
			return err
		}
		updated = b
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update block %d: %w", blockID, err)
	}

	s.emitChanged(ctx, updated.PageID)
	return updated, nil
}

// DeleteBlock removes a block. Sibling positions are left as they are.
// Deleting a block that does not exist is not an error.
func (s *BlockService) DeleteBlock(ctx context.Context, blockID int64) error {
	var pageID int64
	var deleted bool
	err := s.run(ctx, "delete", func(ctx context.Context, tx *storage.Tx) error {
		b, err := tx.Blocks().GetBlock(ctx, blockID)
		if errors.Is(err, domain.ErrNotFound) {
			deleted = false
			return nil
		}
		if err != nil {
			return err
		}
		pageID = b.PageID
		deleted, err = tx.Blocks().DeleteBlock(ctx, blockID)
		return err
	})
	if err != nil {
		return fmt.Errorf("delete block %d: %w", blockID, err)
	}

	if deleted {
		s.emitChanged(ctx, pageID)
	}
	return nil
}

// MoveBlock swaps a block with its neighbor in the given direction. At the
// edge of the page nothing changes and Moved is false.
func (s *BlockService) MoveBlock(ctx context.Context, blockID int64, dir domain.Direction) (domain.MoveResult, error) {
	if !dir.Valid() {
		return domain.MoveResult{}, fmt.Errorf("%w: unknown direction %q", domain.ErrInvalidArgument, dir)
	}

	var result domain.MoveResult
	var pageID int64
	err := s.run(ctx, "move_"+string(dir), func(ctx context.Context, tx *storage.Tx) error {
		blocks := tx.Blocks()
		cur, err := blocks.GetBlock(ctx, blockID)
		if err != nil {
			return err
		}
		pageID = cur.PageID

		var neighbor *domain.Block
		if dir == domain.DirectionUp {
			neighbor, err = blocks.PrevBefore(ctx, cur.PageID, cur.Position)
		} else {
			neighbor, err = blocks.NextAfter(ctx, cur.PageID, cur.Position)
		}
		if err != nil {
			return err
		}
		if neighbor == nil {
			result = domain.MoveResult{Moved: false}
			return nil
		}

		// Park the moving block on the sentinel so neither write collides.
		if err := blocks.SetPosition(ctx, cur.ID, ordering.Sentinel); err != nil {
			return err
		}
		if err := blocks.SetPosition(ctx, neighbor.ID, cur.Position); err != nil {
			return err
		}
		if err := blocks.SetPosition(ctx, cur.ID, neighbor.Position); err != nil {
			return err
		}
		result = domain.MoveResult{Moved: true}
		return nil
	})
	if err != nil {
		return domain.MoveResult{}, fmt.Errorf("move block %d %s: %w", blockID, dir, err)
	}

	if result.Moved {
		s.emitChanged(ctx, pageID)
	}
	return result, nil
}

// ListBlocks returns the page's blocks in display order.
func (s *BlockService) ListBlocks(ctx context.Context, pageID int64) ([]domain.Block, error) {
	blocks, err := s.blocks.ListBlocks(ctx, pageID)
	if err != nil {
		return nil, err
	}
	if blocks == nil {
		blocks = []domain.Block{}
	}
	return blocks, nil
}

// GetBlock returns a block by ID.
func (s *BlockService) GetBlock(ctx context.Context, id int64) (*domain.Block, error) {
	return s.blocks.GetBlock(ctx, id)
}

// ── helpers ────────────────────────────────────────────────

// run executes fn in a transaction, replaying it while the backend reports
// a conflict and the retry budget lasts. Internal errors are never replayed.
func (s *BlockService) run(ctx context.Context, op string, fn func(ctx context.Context, tx *storage.Tx) error) error {
	log := s.log.With().Str("op", op).Str("opId", uuid.NewString()).Logger()
	ctx = log.WithContext(ctx)

	b := s.retry.backoff()
	for attempt := 0; ; attempt++ {
		err := s.db.WithTx(ctx, func(tx *storage.Tx) error { return fn(ctx, tx) })
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrConflict) || errors.Is(err, domain.ErrInternal) {
			if errors.Is(err, domain.ErrInternal) {
				log.Error().Err(err).Msg("consistency failure")
			}
			return err
		}
		if attempt >= s.retry.Retries {
			log.Warn().Err(err).Int("attempts", attempt+1).Msg("position conflict, giving up")
			return err
		}

		delay := b.Duration()
		log.Warn().Err(err).Int("attempt", attempt+1).Dur("delay", delay).Msg("position conflict, retrying")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

func (s *BlockService) emitChanged(ctx context.Context, pageID int64) {
	if s.emitter == nil {
		return
	}
	s.emitter.Emit(ctx, EventBlocksChanged, map[string]int64{"pageId": pageID})
}
