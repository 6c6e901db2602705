package domain

import (
	"fmt"
	"strings"
)

// Payload is the kind-specific content of a block.
type Payload interface {
	Kind() BlockKind
	Validate() error
	// Apply copies the payload fields onto b, clearing the other kind's fields.
	Apply(b *Block)
}

type TextPayload struct {
	Text  string    `json:"text"`
	Style TextStyle `json:"textStyle"`
}

func (TextPayload) Kind() BlockKind { return BlockKindText }

func (p TextPayload) Validate() error {
	if !p.Style.Valid() {
		return fmt.Errorf("%w: unknown text style %q", ErrInvalidArgument, p.Style)
	}
	return nil
}

func (p TextPayload) Apply(b *Block) {
	text, style := p.Text, p.Style
	b.Kind = BlockKindText
	b.Text = &text
	b.TextStyle = &style
	b.ImageSrc, b.ImageWidth, b.ImageHeight = nil, nil, nil
}

// ImagePayload describes an image block. Width and Height are optional.
type ImagePayload struct {
	Src    string `json:"imageSrc"`
	Width  *int   `json:"width"`
	Height *int   `json:"height"`
}

func (ImagePayload) Kind() BlockKind { return BlockKindImage }

func (p ImagePayload) Validate() error {
	if strings.TrimSpace(p.Src) == "" {
		return fmt.Errorf("%w: image source is required", ErrInvalidArgument)
	}
	if p.Width != nil && *p.Width <= 0 {
		return fmt.Errorf("%w: image width must be positive, got %d", ErrInvalidArgument, *p.Width)
	}
	if p.Height != nil && *p.Height <= 0 {
		return fmt.Errorf("%w: image height must be positive, got %d", ErrInvalidArgument, *p.Height)
	}
	return nil
}

func (p ImagePayload) Apply(b *Block) {
	src := p.Src
	b.Kind = BlockKindImage
	b.ImageSrc = &src
	b.ImageWidth = copyInt(p.Width)
	b.ImageHeight = copyInt(p.Height)
	b.Text, b.TextStyle = nil, nil
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// ValidatePayload rejects nil payloads and delegates to p.Validate.
func ValidatePayload(p Payload) error {
	if p == nil {
		return fmt.Errorf("%w: payload is required", ErrInvalidArgument)
	}
	return p.Validate()
}
