package domain

import (
	"context"
	"time"
)

type BlockKind string

const (
	BlockKindText  BlockKind = "text"
	BlockKindImage BlockKind = "image"
)

type TextStyle string

const (
	TextStyleH1        TextStyle = "h1"
	TextStyleH2        TextStyle = "h2"
	TextStyleH3        TextStyle = "h3"
	TextStyleParagraph TextStyle = "p"
)

// Valid reports whether s is one of the fixed text styles.
func (s TextStyle) Valid() bool {
	switch s {
	case TextStyleH1, TextStyleH2, TextStyleH3, TextStyleParagraph:
		return true
	}
	return false
}

// Block is one row of a page's ordered list. Text fields are set for text
// blocks, image fields for image blocks; the others stay nil.
type Block struct {
	ID          int64      `json:"id"`
	PageID      int64      `json:"pageId"`
	Kind        BlockKind  `json:"type"`
	Position    int64      `json:"position"`
	Text        *string    `json:"text"`
	TextStyle   *TextStyle `json:"textStyle"`
	ImageSrc    *string    `json:"imageSrc"`
	ImageWidth  *int       `json:"imageWidth"`
	ImageHeight *int       `json:"imageHeight"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Direction is the way a block moves relative to its neighbors.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

func (d Direction) Valid() bool {
	return d == DirectionUp || d == DirectionDown
}

// MoveResult reports whether a move swapped the block with a neighbor.
type MoveResult struct {
	Moved bool `json:"moved"`
}

// BlockEngine is the operation set callers use to edit a page's blocks.
type BlockEngine interface {
	AppendBlock(ctx context.Context, pageID int64, p Payload) (*Block, error)
	InsertBlockAfter(ctx context.Context, pageID, afterID int64, p Payload) (*Block, error)
	UpdateBlockContent(ctx context.Context, blockID int64, p Payload) (*Block, error)
	DeleteBlock(ctx context.Context, blockID int64) error
	MoveBlock(ctx context.Context, blockID int64, dir Direction) (MoveResult, error)
	ListBlocks(ctx context.Context, pageID int64) ([]Block, error)
}
