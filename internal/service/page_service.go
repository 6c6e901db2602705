package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"blockpage/internal/domain"
	"blockpage/internal/storage"
)

// ─────────────────────────────────────────────────────────────
// Page Service: the home page and its title
// ─────────────────────────────────────────────────────────────

// DefaultTitle is given to pages created on first access.
const DefaultTitle = "Untitled"

// EventPageChanged is emitted with {"pageId": id} after a title change.
const EventPageChanged = "page:changed"

// PageService owns page rows. Blocks are read through the BlockStore so the
// returned state is always in display order.
type PageService struct {
	db      *storage.DB
	pages   *storage.PageStore
	blocks  *storage.BlockStore
	emitter EventEmitter
	log     zerolog.Logger
}

// NewPageService creates a PageService.
func NewPageService(db *storage.DB, emitter EventEmitter, log zerolog.Logger) *PageService {
	return &PageService{
		db:      db,
		pages:   storage.NewPageStore(db),
		blocks:  storage.NewBlockStore(db),
		emitter: emitter,
		log:     log,
	}
}

var _ domain.PageService = (*PageService)(nil)

// EnsurePage returns the page with slug, creating it with title if needed.
func (s *PageService) EnsurePage(ctx context.Context, slug, title string) (*domain.Page, error) {
	var page *domain.Page
	err := s.db.WithTx(ctx, func(tx *storage.Tx) error {
		p, err := tx.Pages().CreatePageIfMissing(ctx, slug, title)
		page = p
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("ensure page %q: %w", slug, err)
	}
	return page, nil
}

// GetHome returns the home page and its blocks, creating the page on first use.
func (s *PageService) GetHome(ctx context.Context) (*domain.PageState, error) {
	page, err := s.EnsurePage(ctx, domain.HomeSlug, DefaultTitle)
	if err != nil {
		return nil, err
	}
	blocks, err := s.blocks.ListBlocks(ctx, page.ID)
	if err != nil {
		return nil, err
	}
	if blocks == nil {
		blocks = []domain.Block{}
	}
	return &domain.PageState{Page: *page, Blocks: blocks}, nil
}

// UpdateTitle renames a page. An unknown pageID falls back to the home page.
func (s *PageService) UpdateTitle(ctx context.Context, pageID int64, title string) (*domain.Page, error) {
	title, err := normalizeTitle(title)
	if err != nil {
		return nil, err
	}

	var page *domain.Page
	err = s.db.WithTx(ctx, func(tx *storage.Tx) error {
		pages := tx.Pages()
		ok, err := pages.UpdateTitle(ctx, pageID, title)
		if err != nil {
			return err
		}
		if ok {
			page, err = pages.GetPage(ctx, pageID)
			return err
		}

		ok, err = pages.UpdateTitleBySlug(ctx, domain.HomeSlug, title)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("page %d: %w", pageID, domain.ErrNotFound)
		}
		s.log.Debug().Int64("pageId", pageID).Msg("unknown page, title applied to home")
		page, err = pages.GetPageBySlug(ctx, domain.HomeSlug)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("update title: %w", err)
	}

	if s.emitter != nil {
		s.emitter.Emit(ctx, EventPageChanged, map[string]int64{"pageId": page.ID})
	}
	return page, nil
}

func normalizeTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	n := utf8.RuneCountInString(title)
	switch {
	case n == 0:
		return "", fmt.Errorf("%w: title is empty", domain.ErrInvalidArgument)
	case n > domain.MaxTitleLength:
		return "", fmt.Errorf("%w: title longer than %d characters", domain.ErrInvalidArgument, domain.MaxTitleLength)
	}
	return title, nil
}
